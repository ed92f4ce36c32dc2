package scanner

import (
	"context"

	"github.com/sublarr/sublarr/internal/integrations"
)

// IntegrationSource adapts an integrations.LibraryManager (Sonarr/Radarr)
// into a LibrarySource, so the scan loop treats arr-backed libraries and
// watched folders identically.
type IntegrationSource struct {
	manager integrations.LibraryManager
}

func NewIntegrationSource(manager integrations.LibraryManager) *IntegrationSource {
	return &IntegrationSource{manager: manager}
}

func (s *IntegrationSource) Name() string { return s.manager.Name() }

func (s *IntegrationSource) ListItems(ctx context.Context) ([]integrations.LibraryItem, error) {
	return s.manager.ListItems(ctx)
}
