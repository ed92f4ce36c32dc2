// Package notify defines the narrow interface the core calls through for
// operator-facing notification delivery (spec §4.9's auto-disable events),
// without reimplementing any particular delivery channel — email, Discord,
// ntfy, and the rest are external collaborators left to the operator's own
// integration, mirroring the way internal/ffprobe stands in for the ffmpeg
// binary rather than vendoring it.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Event is one notification-worthy occurrence: a provider or backend
// crossing its auto-disable threshold, a breaker recovering, or similar.
type Event struct {
	Kind    string // e.g. "provider_auto_disabled", "backend_recovered"
	Subject string // provider/backend name the event concerns
	Message string
	At      time.Time
}

// Notifier delivers an Event to whatever channel the operator has wired up.
// Failures must never propagate past the caller (spec §4.7: "Failures in
// notification must never propagate").
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier is the default Notifier: it writes the event to the structured
// log and returns nil unconditionally. Running without any external
// notification channel configured should not leave auto-disable events
// invisible, just unexported to a second system.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	n.log.Warn().
		Str("kind", event.Kind).
		Str("subject", event.Subject).
		Time("at", event.At).
		Msg(event.Message)
	return nil
}
