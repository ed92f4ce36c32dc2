// Package circuitbreaker wraps sony/gobreaker/v2 behind a keyed registry so
// every provider and translation backend gets its own independent
// closed/open/half_open state machine (spec §4.10), grounded on
// tomtom215-cartographus's internal/eventprocessor/circuitbreaker.go.
package circuitbreaker

import (
	"context"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/sublarr/sublarr/internal/notify"
)

// Config parameterizes one breaker instance. FailureThreshold trips the
// breaker after that many consecutive failures; Timeout is how long it
// stays open before probing with a single half-open request.
type Config struct {
	FailureThreshold uint32
	Timeout          time.Duration
	HalfOpenMaxProbe uint32
}

// DefaultConfig matches spec §4.10's documented defaults.
func DefaultConfig() Config {
	return Config{FailureThreshold: 5, Timeout: 30 * time.Minute, HalfOpenMaxProbe: 1}
}

// Registry hands out one named breaker per key, creating it on first use.
// A Notifier, if set, is told whenever a breaker trips open or recovers
// (spec §4.9: crossing the auto-disable threshold emits a notification
// event); a nil Notifier is a no-op, not an error.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
	cfg      Config
	notifier notify.Notifier
}

func NewRegistry(cfg Config) *Registry {
	return &Registry{breakers: make(map[string]*gobreaker.CircuitBreaker[any]), cfg: cfg}
}

// WithNotifier attaches a notify.Notifier that the registry alerts on every
// breaker state transition from here on, including transitions of breakers
// created earlier: each breaker's OnStateChange reads the registry's
// notifier at the time of the transition.
func (r *Registry) WithNotifier(n notify.Notifier) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifier = n
	return r
}

func (r *Registry) get(key string) *gobreaker.CircuitBreaker[any] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cb, ok := r.breakers[key]; ok {
		return cb
	}
	settings := gobreaker.Settings{
		Name:        key,
		MaxRequests: r.cfg.HalfOpenMaxProbe,
		Timeout:     r.cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= r.cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.notifyStateChange(name, from, to)
		},
	}
	cb := gobreaker.NewCircuitBreaker[any](settings)
	r.breakers[key] = cb
	return cb
}

// notifyStateChange reports a breaker tripping open (auto-disable) or
// closing again (recovery) to the registry's Notifier, swallowing any
// delivery error per spec §4.7's "failures in notification must never
// propagate" — gobreaker's OnStateChange hook has no error return to
// surface one through anyway.
func (r *Registry) notifyStateChange(name string, from, to gobreaker.State) {
	if r.notifier == nil || from == to {
		return
	}
	event := notify.Event{Subject: name, At: time.Now()}
	switch to {
	case gobreaker.StateOpen:
		event.Kind = "provider_auto_disabled"
		event.Message = name + " crossed its failure threshold and was auto-disabled"
	case gobreaker.StateClosed:
		event.Kind = "provider_recovered"
		event.Message = name + " recovered and is accepting requests again"
	default:
		return
	}
	_ = r.notifier.Notify(context.Background(), event)
}

// Execute runs fn through the named breaker. A fast-fail when the breaker
// is open surfaces as gobreaker.ErrOpenState; callers translate that into
// the provider-unavailable behavior described in spec §4.10.
func (r *Registry) Execute(key string, fn func() (any, error)) (any, error) {
	return r.get(key).Execute(fn)
}

// State reports the current state of the named breaker as one of
// "closed", "open", "half_open" for status endpoints (spec §6).
func (r *Registry) State(key string) string {
	switch r.get(key).State() {
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

func IsOpenError(err error) bool {
	return err == gobreaker.ErrOpenState
}
