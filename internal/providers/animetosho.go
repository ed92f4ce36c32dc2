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

const animeToshoBaseURL = "https://feed.animetosho.org/api"

// AnimeTosho indexes subtitle attachments extracted from fansub release
// torrents; its results are typically packaged in a zip/rar archive
// containing one or more subtitle files, resolved by ExtractSubtitle.
type AnimeTosho struct {
	client *http.Client
	log    zerolog.Logger
}

func NewAnimeTosho(log zerolog.Logger) *AnimeTosho {
	return &AnimeTosho{client: &http.Client{}, log: log.With().Str("provider", "animetosho").Logger()}
}

func (p *AnimeTosho) Name() string { return "animetosho" }

type animeToshoEntry struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ArchiveURL  string `json:"torrent_url"`
	NbSubtitles int    `json:"num_subs"`
}

func (p *AnimeTosho) Search(ctx context.Context, query providerregistry.VideoQuery) ([]providerregistry.Candidate, error) {
	params := url.Values{}
	params.Set("q", query.Title)
	params.Set("only_tor", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, animeToshoBaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("animetosho search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, providerregistry.ErrProviderRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("animetosho search failed: %s: %s", resp.Status, body)
	}

	var entries []animeToshoEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding animetosho response: %w", err)
	}

	candidates := make([]providerregistry.Candidate, 0, len(entries))
	for _, e := range entries {
		if e.NbSubtitles == 0 {
			continue
		}
		candidates = append(candidates, providerregistry.Candidate{
			ProviderName: p.Name(),
			SubtitleID:   fmt.Sprintf("%d", e.ID),
			Language:     query.TargetLanguage,
			Format:       "archive", // resolved by ExtractSubtitle after download
			ReleaseName:  e.Title,
			DownloadURL:  e.ArchiveURL,
		})
	}
	return candidates, nil
}

// Download fetches the raw archive; callers run ExtractSubtitle to pull the
// actual subtitle bytes out of it (spec §3 domain-stack note: "the caller's
// hint may be wrong" — the true format is only known after extraction).
func (p *AnimeTosho) Download(ctx context.Context, candidate providerregistry.Candidate) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate.DownloadURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("animetosho download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("animetosho download failed: %s: %s", resp.Status, b)
	}
	return io.ReadAll(resp.Body)
}
