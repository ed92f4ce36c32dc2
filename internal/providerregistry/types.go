// Package providerregistry is the fan-out admission layer over subtitle
// providers (spec §4.2): registration, per-provider rate limiting, and the
// circuit/auto-disable gate a search must clear before a provider is
// included in a given attempt. Grounded on the teacher's pkg/llms
// (registry.go singleton + client.go provider map), generalized from
// LLM-completion providers to subtitle search providers.
package providerregistry

import (
	"context"
	"errors"
	"time"
)

var (
	ErrProviderNotFound  = errors.New("provider not registered")
	ErrProviderDisabled  = errors.New("provider temporarily disabled")
	ErrProviderRateLimited = errors.New("provider rate limit exhausted")
)

// VideoQuery is the subject of a subtitle search: enough identifying
// information for a provider to look up candidates (spec §4.2, §4.3).
type VideoQuery struct {
	ItemType       string // episode | movie
	Title          string
	Year           int
	Season         int
	Episode        int
	IMDBId         string
	TMDBId         string
	ReleaseGroup   string
	Resolution     string
	TargetLanguage string
	FormatFilter   string // "" | "ass" | "srt"
	ForcedOnly     bool
	HearingImpaired bool
}

// Candidate is one subtitle search result, scored later by internal/scorer.
type Candidate struct {
	ProviderName    string
	SubtitleID      string
	Language        string
	Format          string // ass | srt
	ReleaseName     string
	DownloadURL     string
	UploaderTrusted bool
	HearingImpaired bool
	ForcedOnly      bool
	MachineTranslated bool
	FetchedAt       time.Time
}

// SubtitleProvider is the interface every concrete provider (opensubtitles,
// jimaku, animetosho, subdl, the embedded sentinel...) implements.
type SubtitleProvider interface {
	Name() string
	Search(ctx context.Context, query VideoQuery) ([]Candidate, error)
	Download(ctx context.Context, candidate Candidate) ([]byte, error)
}

// Limits describes one provider's admission budget (spec §3 DOMAIN STACK
// table): sliding-window rate limit, request timeout, and retry attempts.
type Limits struct {
	MaxRequests int
	Window      time.Duration
	Timeout     time.Duration
	MaxRetries  int
}
