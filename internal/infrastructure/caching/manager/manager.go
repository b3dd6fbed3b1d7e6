// Package manager provides centralized access to the in-memory stores
package manager

import (
	"time"

	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/stores"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
)

// Manager owns the session store and exposes the aggregate views the ops
// dashboard and the cleanup worker need.
type Manager struct {
	sessionsStore *stores.SessionsStore
	logger        *logging.ChanneledLogger
	startedAt     time.Time
}

func NewManager(maxSessions int, logger *logging.ChanneledLogger) *Manager {
	if logger != nil {
		logger.Session().Info("Initializing store manager", "stores", []string{"sessions"})
	}

	return &Manager{
		sessionsStore: stores.NewSessionsStore(maxSessions, logger),
		logger:        logger,
		startedAt:     time.Now().UTC(),
	}
}

// Sessions returns the underlying sessions store.
func (m *Manager) Sessions() *stores.SessionsStore {
	return m.sessionsStore
}

// Stats returns counts-only store statistics for health and ops endpoints.
func (m *Manager) Stats() map[string]any {
	return map[string]any{
		"sessionCount": m.sessionsStore.Count(),
		"uptime":       time.Since(m.startedAt).String(),
	}
}
