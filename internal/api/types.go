// Package api is the HTTP/WebSocket surface described by spec §6: a thin
// router over the components built below it, one endpoint per component
// operation. Grounded on the teacher's internal/api (chi.Router + Registry
// of mountable services) and internal/gui/websocket_server.go (broadcast to
// connected clients), generalized from a local desktop webview surface into
// a conventional REST+WS API server.
package api

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sublarr/sublarr/internal/integrations"
	"github.com/sublarr/sublarr/internal/jobqueue"
	"github.com/sublarr/sublarr/internal/providermanager"
	"github.com/sublarr/sublarr/internal/providerregistry"
	"github.com/sublarr/sublarr/internal/scanner"
	"github.com/sublarr/sublarr/internal/store"
	"github.com/sublarr/sublarr/internal/translator"
)

// TranslateService is the subset of translator.Translator the /translate
// and /retranslate endpoints drive synchronously or via the job queue.
type TranslateService interface {
	Translate(ctx context.Context, req translator.Request) translator.Result
}

// Enqueuer is the subset of jobqueue.Queue the async /translate endpoint
// needs; narrowed to one method so a handler test double doesn't have to
// implement Stop too.
type Enqueuer interface {
	Enqueue(ctx context.Context, filePath, configHash string, task jobqueue.Task) (string, error)
}

// Dependencies bundles every singleton a handler may need. A single struct
// (rather than one constructor parameter per handler) mirrors the way the
// teacher's internal/api/services package threads one *deps.Deps through
// every service constructor.
type Dependencies struct {
	Store       *store.Store
	Registry    *providerregistry.Registry
	Providers   *providermanager.Manager
	Translate   TranslateService
	Jobs        Enqueuer
	Scanner     *scanner.Scanner
	SearchLoop  *scanner.SearchLoop
	Webhook     *scanner.WebhookPipeline
	Integration *integrations.RescanNotifier
	Managers    []integrations.LibraryManager
	MediaRoot   string
	Broadcaster *Broadcaster
	Health      func(ctx context.Context) HealthReport
	ConfigHash  func() string

	Log zerolog.Logger
}

// HealthReport is the body of GET /health (spec §6).
type HealthReport struct {
	Healthy      bool            `json:"healthy"`
	Integrations map[string]bool `json:"integrations"`
}
