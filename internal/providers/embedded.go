package providers

import (
	"context"

	"github.com/sublarr/sublarr/internal/providerregistry"
)

// Embedded is a sentinel provider (spec §4.3): it never returns search
// results and its Download always returns an empty byte slice. It exists
// so the provider registry and scorer can uniformly treat "this video's
// own muxed subtitle stream" as just another provider name, while the
// actual stream extraction (ffprobe + mkvextract-equivalent) is the
// Translator's job, not a network fetch.
type Embedded struct{}

func NewEmbedded() *Embedded { return &Embedded{} }

func (Embedded) Name() string { return "embedded" }

func (Embedded) Search(ctx context.Context, query providerregistry.VideoQuery) ([]providerregistry.Candidate, error) {
	return nil, nil
}

func (Embedded) Download(ctx context.Context, candidate providerregistry.Candidate) ([]byte, error) {
	return []byte{}, nil
}
