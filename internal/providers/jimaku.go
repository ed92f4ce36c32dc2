package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/sublarr/sublarr/internal/providerregistry"
)

const jimakuBaseURL = "https://jimaku.cc/api"

// Jimaku is an anime-focused subtitle catalog, typically carrying Japanese
// source tracks and occasional fan-translated targets.
type Jimaku struct {
	APIKey string
	client *http.Client
	log    zerolog.Logger
}

func NewJimaku(apiKey string, log zerolog.Logger) *Jimaku {
	return &Jimaku{APIKey: apiKey, client: &http.Client{}, log: log.With().Str("provider", "jimaku").Logger()}
}

func (p *Jimaku) Name() string { return "jimaku" }

type jimakuEntry struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Episode  int    `json:"episode"`
	Language string `json:"language"`
	URL      string `json:"url"`
}

func (p *Jimaku) Search(ctx context.Context, query providerregistry.VideoQuery) ([]providerregistry.Candidate, error) {
	params := url.Values{}
	params.Set("query", query.Title)
	if query.Episode > 0 {
		params.Set("episode", fmt.Sprintf("%d", query.Episode))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jimakuBaseURL+"/entries/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", p.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jimaku search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, providerregistry.ErrProviderRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("jimaku search failed: %s: %s", resp.Status, body)
	}

	var entries []jimakuEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding jimaku response: %w", err)
	}

	candidates := make([]providerregistry.Candidate, 0, len(entries))
	for _, e := range entries {
		if query.TargetLanguage != "" && e.Language != "" && e.Language != query.TargetLanguage {
			continue
		}
		candidates = append(candidates, providerregistry.Candidate{
			ProviderName: p.Name(),
			SubtitleID:   fmt.Sprintf("%d", e.ID),
			Language:     e.Language,
			Format:       "ass",
			ReleaseName:  e.Name,
			DownloadURL:  e.URL,
		})
	}
	return candidates, nil
}

func (p *Jimaku) Download(ctx context.Context, candidate providerregistry.Candidate) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate.DownloadURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", p.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jimaku download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("jimaku download failed: %s: %s", resp.Status, b)
	}
	return io.ReadAll(resp.Body)
}
