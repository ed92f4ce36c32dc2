package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/sublarr/sublarr/internal/providerregistry"
)

const openSubtitlesBaseURL = "https://api.opensubtitles.com/api/v1"

// OpenSubtitles talks to the public REST API at api.opensubtitles.com.
// Auth: API key header, per original_source/backend/providers/__init__.py's
// registration of this provider's credential shape.
type OpenSubtitles struct {
	APIKey string
	client *http.Client
	log    zerolog.Logger
}

func NewOpenSubtitles(apiKey string, log zerolog.Logger) *OpenSubtitles {
	return &OpenSubtitles{APIKey: apiKey, client: &http.Client{}, log: log.With().Str("provider", "opensubtitles").Logger()}
}

func (p *OpenSubtitles) Name() string { return "opensubtitles" }

type osSearchResponse struct {
	Data []struct {
		Attributes struct {
			SubtitleID string `json:"subtitle_id"`
			Language   string `json:"language"`
			Release    string `json:"release"`
			ForeignPartsOnly bool `json:"foreign_parts_only"`
			HearingImpaired  bool `json:"hearing_impaired"`
			MachineTranslated bool `json:"machine_translated"`
			UploaderRank     string `json:"uploader_rank"`
			Files []struct {
				FileID int `json:"file_id"`
			} `json:"files"`
		} `json:"attributes"`
	} `json:"data"`
}

func (p *OpenSubtitles) Search(ctx context.Context, query providerregistry.VideoQuery) ([]providerregistry.Candidate, error) {
	params := url.Values{}
	if query.IMDBId != "" {
		params.Set("imdb_id", query.IMDBId)
	}
	if query.Title != "" {
		params.Set("query", query.Title)
	}
	if query.Season > 0 {
		params.Set("season_number", strconv.Itoa(query.Season))
	}
	if query.Episode > 0 {
		params.Set("episode_number", strconv.Itoa(query.Episode))
	}
	params.Set("languages", query.TargetLanguage)
	if query.ForcedOnly {
		params.Set("foreign_parts_only", "only")
	}
	if query.HearingImpaired {
		params.Set("hearing_impaired", "include")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openSubtitlesBaseURL+"/subtitles?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Api-Key", p.APIKey)
	req.Header.Set("User-Agent", "sublarr v1")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opensubtitles search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, providerregistry.ErrProviderRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("opensubtitles search failed: %s: %s", resp.Status, body)
	}

	var parsed osSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding opensubtitles response: %w", err)
	}

	candidates := make([]providerregistry.Candidate, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		candidates = append(candidates, providerregistry.Candidate{
			ProviderName:      p.Name(),
			SubtitleID:        d.Attributes.SubtitleID,
			Language:          d.Attributes.Language,
			Format:            "srt",
			ReleaseName:       d.Attributes.Release,
			ForcedOnly:        d.Attributes.ForeignPartsOnly,
			HearingImpaired:   d.Attributes.HearingImpaired,
			MachineTranslated: d.Attributes.MachineTranslated,
			UploaderTrusted:   d.Attributes.UploaderRank == "trusted" || d.Attributes.UploaderRank == "gold member",
		})
	}
	return candidates, nil
}

func (p *OpenSubtitles) Download(ctx context.Context, candidate providerregistry.Candidate) ([]byte, error) {
	body, err := json.Marshal(map[string]string{"file_id": candidate.SubtitleID})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openSubtitlesBaseURL+"/download", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Api-Key", p.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opensubtitles requesting download link: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("opensubtitles download failed: %s: %s", resp.Status, b)
	}

	var link struct {
		Link string `json:"link"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return nil, fmt.Errorf("decoding opensubtitles download link: %w", err)
	}

	fileReq, err := http.NewRequestWithContext(ctx, http.MethodGet, link.Link, nil)
	if err != nil {
		return nil, err
	}
	fileResp, err := p.client.Do(fileReq)
	if err != nil {
		return nil, fmt.Errorf("opensubtitles fetching file: %w", err)
	}
	defer fileResp.Body.Close()
	return io.ReadAll(fileResp.Body)
}
