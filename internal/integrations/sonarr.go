package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// SonarrClient implements LibraryManager over the Sonarr v3 REST API.
// Grounded on original_source/backend/sonarr_client.py's SonarrClient: series
// listing, episode-file path lookup, and the RescanSeries command, with its
// hand-rolled retry loop replaced by buildRetryPolicy.
type SonarrClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

func NewSonarrClient(baseURL, apiKey string, log zerolog.Logger) *SonarrClient {
	return &SonarrClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("component", "sonarr").Logger(),
	}
}

func (c *SonarrClient) Name() string { return "sonarr" }

func (c *SonarrClient) HealthCheck(ctx context.Context) (bool, string) {
	if _, err := c.get(ctx, "/system/status", nil); err != nil {
		return false, fmt.Sprintf("cannot connect to Sonarr at %s: %v", c.baseURL, err)
	}
	return true, "OK"
}

type sonarrSeries struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Year    int    `json:"year"`
	TvdbID  int    `json:"tvdbId"`
	ImdbID  string `json:"imdbId"`
}

type sonarrEpisodeFile struct {
	ID            int    `json:"id"`
	Path          string `json:"path"`
	SeriesID      int    `json:"seriesId"`
	SeasonNumber  int    `json:"seasonNumber"`
}

type sonarrEpisode struct {
	ID            int    `json:"id"`
	SeriesID      int    `json:"seriesId"`
	SeasonNumber  int    `json:"seasonNumber"`
	EpisodeNumber int    `json:"episodeNumber"`
	HasFile       bool   `json:"hasFile"`
	EpisodeFileID int    `json:"episodeFileId"`
}

// ListItems enumerates every episode with a file across every series,
// mirroring get_series + get_episode_files_by_series from the original.
func (c *SonarrClient) ListItems(ctx context.Context) ([]LibraryItem, error) {
	var series []sonarrSeries
	if err := c.getJSON(ctx, "/series", nil, &series); err != nil {
		return nil, fmt.Errorf("listing series: %w", err)
	}

	var items []LibraryItem
	for _, s := range series {
		var episodes []sonarrEpisode
		if err := c.getJSON(ctx, "/episode", url.Values{"seriesId": {fmt.Sprint(s.ID)}}, &episodes); err != nil {
			c.log.Warn().Int("series_id", s.ID).Err(err).Msg("listing episodes failed, skipping series")
			continue
		}

		var files []sonarrEpisodeFile
		if err := c.getJSON(ctx, "/episodefile", url.Values{"seriesId": {fmt.Sprint(s.ID)}}, &files); err != nil {
			c.log.Warn().Int("series_id", s.ID).Err(err).Msg("listing episode files failed")
		}
		fileByID := make(map[int]sonarrEpisodeFile, len(files))
		for _, f := range files {
			fileByID[f.ID] = f
		}

		for _, ep := range episodes {
			if !ep.HasFile {
				continue
			}
			path := ""
			if f, ok := fileByID[ep.EpisodeFileID]; ok {
				path = f.Path
			}
			items = append(items, LibraryItem{
				EntityID: fmt.Sprint(s.ID),
				ItemType: "episode",
				Title:    s.Title,
				Season:   ep.SeasonNumber,
				Episode:  ep.EpisodeNumber,
				Year:     s.Year,
				IMDBId:   s.ImdbID,
				FilePath: path,
				HasFile:  path != "",
			})
		}
	}
	return items, nil
}

// RescanEntity triggers Sonarr's RescanSeries command, per
// original_source/backend/sonarr_client.py:rescan_series.
func (c *SonarrClient) RescanEntity(ctx context.Context, entityID string) error {
	var seriesID int
	if _, err := fmt.Sscanf(entityID, "%d", &seriesID); err != nil {
		return fmt.Errorf("invalid sonarr series id %q: %w", entityID, err)
	}
	body := map[string]any{"name": "RescanSeries", "seriesId": seriesID}
	_, err := c.post(ctx, "/command", body)
	return err
}

func (c *SonarrClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	raw, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (c *SonarrClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	policy := buildRetryPolicy[[]byte](3, c.log, "sonarr")
	return failsafeGet(policy, func() ([]byte, error) {
		u := c.baseURL + "/api/v3" + path
		if len(params) > 0 {
			u += "?" + params.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Api-Key", c.apiKey)
		return doRequest(c.client, req)
	})
}

func (c *SonarrClient) post(ctx context.Context, path string, body any) ([]byte, error) {
	policy := buildRetryPolicy[[]byte](3, c.log, "sonarr")
	return failsafeGet(policy, func() ([]byte, error) {
		u := c.baseURL + "/api/v3" + path
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, jsonReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Api-Key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return doRequest(c.client, req)
	})
}
