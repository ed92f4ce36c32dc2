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

// GoogleTranslate calls the Google Cloud Translation v2 REST endpoint
// directly (rule-based/statistical, distinct from the generative Gemini
// backend in google.go). Plain net/http — no dedicated Cloud Translation
// SDK appears in the example pack.
type GoogleTranslate struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewGoogleTranslate(apiKey string) *GoogleTranslate {
	return &GoogleTranslate{
		apiKey:  apiKey,
		baseURL: "https://translation.googleapis.com/language/translate/v2",
		client:  &http.Client{Timeout: 20 * time.Second},
	}
}

func (g *GoogleTranslate) Name() string          { return "google_translate" }
func (g *GoogleTranslate) DisplayName() string   { return "Google Translate" }
func (g *GoogleTranslate) SupportsGlossary() bool { return false }
func (g *GoogleTranslate) SupportsBatch() bool    { return true }
func (g *GoogleTranslate) MaxBatchSize() int      { return 100 }

type googleTranslateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

func (g *GoogleTranslate) TranslateBatch(ctx context.Context, lines []string, sourceLang, targetLang string, _ []translationmanager.GlossaryEntry) (translationmanager.TranslationResult, error) {
	start := time.Now()

	form := url.Values{}
	form.Set("key", g.apiKey)
	form.Set("target", targetLang)
	form.Set("format", "text")
	if sourceLang != "" && sourceLang != "auto" {
		form.Set("source", sourceLang)
	}
	for _, l := range lines {
		form.Add("q", l)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return translationmanager.TranslationResult{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return translationmanager.TranslationResult{}, fmt.Errorf("google translate request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return translationmanager.TranslationResult{}, fmt.Errorf("google translate status %d", resp.StatusCode)
	}

	var parsed googleTranslateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return translationmanager.TranslationResult{}, fmt.Errorf("google translate decode: %w", err)
	}

	out := make([]string, len(parsed.Data.Translations))
	for i, t := range parsed.Data.Translations {
		out[i] = t.TranslatedText
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

func (g *GoogleTranslate) HealthCheck(ctx context.Context) error {
	result, err := g.TranslateBatch(ctx, []string{"ping"}, "en", "fr", nil)
	if err != nil {
		return err
	}
	if len(result.Lines) == 0 {
		return fmt.Errorf("google translate health check returned no lines")
	}
	return nil
}
