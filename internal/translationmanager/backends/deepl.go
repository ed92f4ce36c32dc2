package backends

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sublarr/sublarr/internal/translationmanager"
)

// DeepL calls the DeepL REST API directly. No Go SDK for DeepL appears
// anywhere in the example pack, so this is a plain net/http JSON client —
// the same shape the teacher uses for its own REST integrations
// (pkg/providers/*.go fetch-then-json.Unmarshal pattern).
type DeepL struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewDeepL(apiKey string, free bool) *DeepL {
	base := "https://api.deepl.com/v2"
	if free {
		base = "https://api-free.deepl.com/v2"
	}
	return &DeepL{apiKey: apiKey, baseURL: base, client: &http.Client{Timeout: 20 * time.Second}}
}

func (d *DeepL) Name() string          { return "deepl" }
func (d *DeepL) DisplayName() string   { return "DeepL" }
func (d *DeepL) SupportsGlossary() bool { return false }
func (d *DeepL) SupportsBatch() bool    { return true }
func (d *DeepL) MaxBatchSize() int      { return 50 }

type deeplResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

func (d *DeepL) TranslateBatch(ctx context.Context, lines []string, sourceLang, targetLang string, _ []translationmanager.GlossaryEntry) (translationmanager.TranslationResult, error) {
	start := time.Now()

	form := url.Values{}
	for _, l := range lines {
		form.Add("text", l)
	}
	form.Set("target_lang", strings.ToUpper(targetLang))
	if sourceLang != "" && sourceLang != "auto" {
		form.Set("source_lang", strings.ToUpper(sourceLang))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/translate", strings.NewReader(form.Encode()))
	if err != nil {
		return translationmanager.TranslationResult{}, err
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return translationmanager.TranslationResult{}, fmt.Errorf("deepl request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return translationmanager.TranslationResult{}, fmt.Errorf("deepl status %d", resp.StatusCode)
	}

	var parsed deeplResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return translationmanager.TranslationResult{}, fmt.Errorf("deepl decode: %w", err)
	}

	out := make([]string, len(parsed.Translations))
	for i, t := range parsed.Translations {
		out[i] = t.Text
	}

	var chars int64
	for _, l := range lines {
		chars += int64(len(l))
	}

	return translationmanager.TranslationResult{
		Lines:      out,
		ElapsedMs:  time.Since(start).Milliseconds(),
		Characters: chars,
	}, nil
}

func (d *DeepL) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/usage", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deepl health status %d", resp.StatusCode)
	}
	return nil
}
