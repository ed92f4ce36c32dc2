package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// RadarrClient implements LibraryManager over the Radarr v3 REST API,
// mirroring SonarrClient's structure (Radarr and Sonarr share the same
// *arr REST conventions; original_source/backend has no separate
// radarr_client.py, but sonarr_client.py's shape is the documented
// template both arr clients in this project follow).
type RadarrClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

func NewRadarrClient(baseURL, apiKey string, log zerolog.Logger) *RadarrClient {
	return &RadarrClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("component", "radarr").Logger(),
	}
}

func (c *RadarrClient) Name() string { return "radarr" }

func (c *RadarrClient) HealthCheck(ctx context.Context) (bool, string) {
	if _, err := c.get(ctx, "/system/status"); err != nil {
		return false, fmt.Sprintf("cannot connect to Radarr at %s: %v", c.baseURL, err)
	}
	return true, "OK"
}

type radarrMovie struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Year     int    `json:"year"`
	ImdbID   string `json:"imdbId"`
	TmdbID   int    `json:"tmdbId"`
	HasFile  bool   `json:"hasFile"`
	MovieFile struct {
		Path string `json:"path"`
	} `json:"movieFile"`
}

func (c *RadarrClient) ListItems(ctx context.Context) ([]LibraryItem, error) {
	raw, err := c.get(ctx, "/movie")
	if err != nil {
		return nil, fmt.Errorf("listing movies: %w", err)
	}
	var movies []radarrMovie
	if err := json.Unmarshal(raw, &movies); err != nil {
		return nil, fmt.Errorf("decoding movies: %w", err)
	}

	items := make([]LibraryItem, 0, len(movies))
	for _, m := range movies {
		if !m.HasFile {
			continue
		}
		items = append(items, LibraryItem{
			EntityID: fmt.Sprint(m.ID),
			ItemType: "movie",
			Title:    m.Title,
			Year:     m.Year,
			IMDBId:   m.ImdbID,
			TMDBId:   fmt.Sprint(m.TmdbID),
			FilePath: m.MovieFile.Path,
			HasFile:  true,
		})
	}
	return items, nil
}

func (c *RadarrClient) RescanEntity(ctx context.Context, entityID string) error {
	var movieID int
	if _, err := fmt.Sscanf(entityID, "%d", &movieID); err != nil {
		return fmt.Errorf("invalid radarr movie id %q: %w", entityID, err)
	}
	body := map[string]any{"name": "RescanMovie", "movieIds": []int{movieID}}
	_, err := c.post(ctx, "/command", body)
	return err
}

func (c *RadarrClient) get(ctx context.Context, path string) ([]byte, error) {
	policy := buildRetryPolicy[[]byte](3, c.log, "radarr")
	return failsafeGet(policy, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3"+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Api-Key", c.apiKey)
		return doRequest(c.client, req)
	})
}

func (c *RadarrClient) post(ctx context.Context, path string, body any) ([]byte, error) {
	policy := buildRetryPolicy[[]byte](3, c.log, "radarr")
	return failsafeGet(policy, func() ([]byte, error) {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v3"+path, jsonReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Api-Key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return doRequest(c.client, req)
	})
}
