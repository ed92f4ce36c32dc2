package backends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sublarr/sublarr/internal/translationmanager"
)

// LibreTranslate calls a self-hosted or public LibreTranslate instance's
// /translate endpoint. Plain net/http JSON — LibreTranslate has no
// official Go client and none appears in the example pack.
type LibreTranslate struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewLibreTranslate(baseURL, apiKey string) *LibreTranslate {
	return &LibreTranslate{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: &http.Client{Timeout: 20 * time.Second}}
}

func (l *LibreTranslate) Name() string          { return "libretranslate" }
func (l *LibreTranslate) DisplayName() string   { return "LibreTranslate" }
func (l *LibreTranslate) SupportsGlossary() bool { return false }
func (l *LibreTranslate) SupportsBatch() bool    { return false }
func (l *LibreTranslate) MaxBatchSize() int      { return 1 }

type libreTranslateRequest struct {
	Q       string `json:"q"`
	Source  string `json:"source"`
	Target  string `json:"target"`
	Format  string `json:"format"`
	APIKey  string `json:"api_key,omitempty"`
}

type libreTranslateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// TranslateBatch issues one request per line — LibreTranslate's public API
// has no batch endpoint (SupportsBatch is false), so the manager calls
// this once per line rather than once per chunk.
func (l *LibreTranslate) TranslateBatch(ctx context.Context, lines []string, sourceLang, targetLang string, _ []translationmanager.GlossaryEntry) (translationmanager.TranslationResult, error) {
	start := time.Now()
	out := make([]string, len(lines))
	var chars int64

	for i, line := range lines {
		chars += int64(len(line))
		translated, err := l.translateOne(ctx, line, sourceLang, targetLang)
		if err != nil {
			return translationmanager.TranslationResult{}, fmt.Errorf("libretranslate line %d: %w", i, err)
		}
		out[i] = translated
	}

	return translationmanager.TranslationResult{
		Lines:      out,
		ElapsedMs:  time.Since(start).Milliseconds(),
		Characters: chars,
	}, nil
}

func (l *LibreTranslate) translateOne(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	source := sourceLang
	if source == "" {
		source = "auto"
	}
	body, err := json.Marshal(libreTranslateRequest{Q: text, Source: source, Target: targetLang, Format: "text", APIKey: l.apiKey})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("libretranslate status %d", resp.StatusCode)
	}

	var parsed libreTranslateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	return parsed.TranslatedText, nil
}

func (l *LibreTranslate) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/languages", nil)
	if err != nil {
		return err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("libretranslate health status %d", resp.StatusCode)
	}
	return nil
}
