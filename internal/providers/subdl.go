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

const subdlBaseURL = "https://api.subdl.com/api/v1"

// SubDL is a general-purpose catalog with broad language coverage,
// returning zip-packaged results like animetosho.
type SubDL struct {
	APIKey string
	client *http.Client
	log    zerolog.Logger
}

func NewSubDL(apiKey string, log zerolog.Logger) *SubDL {
	return &SubDL{APIKey: apiKey, client: &http.Client{}, log: log.With().Str("provider", "subdl").Logger()}
}

func (p *SubDL) Name() string { return "subdl" }

type subdlResponse struct {
	Subtitles []struct {
		ReleaseName string `json:"release_name"`
		Language    string `json:"language"`
		URL         string `json:"url"`
		HI          bool   `json:"hi"`
	} `json:"subtitles"`
}

func (p *SubDL) Search(ctx context.Context, query providerregistry.VideoQuery) ([]providerregistry.Candidate, error) {
	params := url.Values{}
	params.Set("api_key", p.APIKey)
	params.Set("languages", query.TargetLanguage)
	if query.IMDBId != "" {
		params.Set("imdb_id", query.IMDBId)
	} else {
		params.Set("film_name", query.Title)
	}
	if query.Season > 0 {
		params.Set("season_number", fmt.Sprintf("%d", query.Season))
	}
	if query.Episode > 0 {
		params.Set("episode_number", fmt.Sprintf("%d", query.Episode))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, subdlBaseURL+"/subtitles?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("subdl search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, providerregistry.ErrProviderRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("subdl search failed: %s: %s", resp.Status, body)
	}

	var parsed subdlResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding subdl response: %w", err)
	}

	candidates := make([]providerregistry.Candidate, 0, len(parsed.Subtitles))
	for i, s := range parsed.Subtitles {
		candidates = append(candidates, providerregistry.Candidate{
			ProviderName:    p.Name(),
			SubtitleID:      fmt.Sprintf("%d", i),
			Language:        s.Language,
			Format:          "archive",
			ReleaseName:     s.ReleaseName,
			DownloadURL:     "https://dl.subdl.com" + s.URL,
			HearingImpaired: s.HI,
		})
	}
	return candidates, nil
}

func (p *SubDL) Download(ctx context.Context, candidate providerregistry.Candidate) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate.DownloadURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("subdl download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("subdl download failed: %s: %s", resp.Status, b)
	}
	return io.ReadAll(resp.Body)
}
