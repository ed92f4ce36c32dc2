package integrations

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// PlexNotifier issues a Plex "refresh" request for the library section
// containing a changed file. Plex has no per-file refresh endpoint; the
// narrower `/library/sections/<id>/refresh?path=<file>` partial-scan form
// is used instead of a full library rescan.
type PlexNotifier struct {
	baseURL  string
	token    string
	sectionID string
	client   *http.Client
	log      zerolog.Logger
}

func NewPlexNotifier(baseURL, token, sectionID string, log zerolog.Logger) *PlexNotifier {
	return &PlexNotifier{
		baseURL:   baseURL,
		token:     token,
		sectionID: sectionID,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("component", "plex").Logger(),
	}
}

func (p *PlexNotifier) Name() string { return "plex" }

func (p *PlexNotifier) RefreshItem(ctx context.Context, filePath string) error {
	u := fmt.Sprintf("%s/library/sections/%s/refresh", p.baseURL, p.sectionID)
	q := url.Values{"path": {filePath}, "X-Plex-Token": {p.token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("plex refresh request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("plex refresh returned status %d", resp.StatusCode)
	}
	return nil
}

// KodiNotifier issues a JSON-RPC VideoLibrary.Scan request, Kodi's
// closest equivalent to a targeted rescan.
type KodiNotifier struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

func NewKodiNotifier(baseURL string, log zerolog.Logger) *KodiNotifier {
	return &KodiNotifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("component", "kodi").Logger(),
	}
}

func (k *KodiNotifier) Name() string { return "kodi" }

func (k *KodiNotifier) RefreshItem(ctx context.Context, filePath string) error {
	body := []byte(fmt.Sprintf(`{"jsonrpc":"2.0","method":"VideoLibrary.Scan","params":{"directory":%q},"id":1}`, filePath))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.baseURL+"/jsonrpc", jsonReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := k.client.Do(req)
	if err != nil {
		return fmt.Errorf("kodi scan request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("kodi scan returned status %d", resp.StatusCode)
	}
	return nil
}
