// Package messaging provides the concrete implementation of the SSE broadcaster.
package messaging

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
)

// SSE event names pushed to the browser during a session's lifetime.
const (
	EventForecastProgress  = "forecast_progress"
	EventForecastCompleted = "forecast_completed"
	EventForecastFailed    = "forecast_failed"
	EventForecastCancelled = "forecast_cancelled"
	EventSessionExpired    = "session_expired"
	EventHeartbeat         = "heartbeat"
)

// SSEBroadcaster manages session-scoped SSE connections. Events for one
// session are never visible to another.
type SSEBroadcaster struct {
	sessions       map[string][]chan string // sessionId -> client channels
	maxConnections int
	mu             sync.Mutex
	logger         *logging.ChanneledLogger
}

// NewSSEBroadcaster creates a broadcaster with a global connection cap.
func NewSSEBroadcaster(maxConnections int, logger *logging.ChanneledLogger) *SSEBroadcaster {
	return &SSEBroadcaster{
		sessions:       make(map[string][]chan string),
		maxConnections: maxConnections,
		logger:         logger,
	}
}

// AddClient registers a new SSE client for a session. Returns nil when the
// connection cap is reached.
func (b *SSEBroadcaster) AddClient(sessionID string) chan string {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := 0
	for _, clients := range b.sessions {
		total += len(clients)
	}
	if b.maxConnections > 0 && total >= b.maxConnections {
		if b.logger != nil {
			b.logger.SSE().Warn("SSE connection cap reached, rejecting client",
				"sessionId", logging.SanitizeSessionID(sessionID), "total", total)
		}
		return nil
	}

	ch := make(chan string, 10)
	b.sessions[sessionID] = append(b.sessions[sessionID], ch)

	if b.logger != nil {
		b.logger.SSE().Debug("SSE client registered",
			"sessionId", logging.SanitizeSessionID(sessionID),
			"sessionClients", len(b.sessions[sessionID]))
	}
	return ch
}

// RemoveClient removes an SSE client from a session.
func (b *SSEBroadcaster) RemoveClient(ch chan string, sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients, exists := b.sessions[sessionID]
	if !exists {
		return
	}

	remaining := make([]chan string, 0, len(clients))
	for _, client := range clients {
		if client != ch {
			remaining = append(remaining, client)
		}
	}
	if len(remaining) == 0 {
		delete(b.sessions, sessionID)
	} else {
		b.sessions[sessionID] = remaining
	}

	if b.logger != nil {
		b.logger.SSE().Debug("SSE client unregistered",
			"sessionId", logging.SanitizeSessionID(sessionID))
	}
}

// ConnectionCount returns the client count for a session.
func (b *SSEBroadcaster) ConnectionCount(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions[sessionID])
}

// TotalConnections returns the client count across all sessions.
func (b *SSEBroadcaster) TotalConnections() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := 0
	for _, clients := range b.sessions {
		total += len(clients)
	}
	return total
}

// BroadcastToSession pushes an event with a JSON payload to every client of
// one session. Slow clients drop messages rather than block the sender.
func (b *SSEBroadcaster) BroadcastToSession(sessionID, event string, payload any) {
	defer func() {
		if r := recover(); r != nil && b.logger != nil {
			b.logger.SSE().Error("Panic recovered in BroadcastToSession",
				"error", r, "sessionId", logging.SanitizeSessionID(sessionID))
		}
	}()

	data, err := json.Marshal(payload)
	if err != nil {
		if b.logger != nil {
			b.logger.SSE().Error("Failed to marshal SSE payload",
				"event", event, "error", err.Error())
		}
		return
	}
	message := fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)

	b.mu.Lock()
	defer b.mu.Unlock()

	clients, exists := b.sessions[sessionID]
	if !exists {
		return
	}

	delivered := 0
	for _, ch := range clients {
		select {
		case ch <- message:
			delivered++
		default:
			if b.logger != nil {
				b.logger.SSE().Warn("SSE channel full, message dropped",
					"event", event, "sessionId", logging.SanitizeSessionID(sessionID))
			}
		}
	}

	if b.logger != nil {
		b.logger.LogSSEEvent(event, sessionID, delivered)
	}
}

// NotifySessionExpired tells a session's clients their server-side state is
// gone, then drops the client channels.
func (b *SSEBroadcaster) NotifySessionExpired(sessionID string) {
	b.BroadcastToSession(sessionID, EventSessionExpired, map[string]any{
		"sessionId": sessionID,
		"reason":    "expired",
	})

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.sessions[sessionID] {
		close(ch)
	}
	delete(b.sessions, sessionID)
}
