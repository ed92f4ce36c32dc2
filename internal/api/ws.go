package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Broadcaster fans named events out to every connected WebSocket client,
// adapted from the teacher's internal/gui/websocket_server.go: same
// upgrade/register/broadcast shape, generalized from a single local webview
// client to an arbitrary number of API subscribers and from the teacher's
// free-form WSMessage.Type to the closed event-name set spec §6 names
// (job_update, batch_progress, wanted_scan_completed, ...).
type Broadcaster struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex
	writeMu   sync.Mutex
	log       zerolog.Logger
}

// Event is the envelope every WebSocket message carries; Payload mirrors
// the GET representation of whatever entity changed (spec §6).
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

func NewBroadcaster(log zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*websocket.Conn]bool),
		log:     log.With().Str("component", "ws_broadcaster").Logger(),
	}
}

func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	b.clientsMu.Lock()
	b.clients[conn] = true
	b.clientsMu.Unlock()

	defer func() {
		b.clientsMu.Lock()
		delete(b.clients, conn)
		b.clientsMu.Unlock()
		conn.Close()
	}()

	// The read pump exists only to detect disconnection; this API never
	// accepts client-originated messages over the socket.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Publish sends an event of the given type to every connected client.
// A client whose write fails is left for the read pump to evict; Publish
// never blocks on a stalled client beyond the one write attempt.
func (b *Broadcaster) Publish(eventType string, payload interface{}) {
	evt := Event{Type: eventType, Payload: payload, Timestamp: time.Now().Unix()}

	b.clientsMu.RLock()
	clients := make([]*websocket.Conn, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.clientsMu.RUnlock()

	for _, c := range clients {
		b.writeMu.Lock()
		err := c.WriteJSON(evt)
		b.writeMu.Unlock()
		if err != nil {
			b.log.Debug().Str("event", eventType).Err(err).Msg("dropping unreachable websocket client")
		}
	}
}

func (b *Broadcaster) Close() {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()
	for c := range b.clients {
		c.Close()
	}
	b.clients = make(map[*websocket.Conn]bool)
}
