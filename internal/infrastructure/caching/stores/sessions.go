// Package stores provides concrete in-memory store implementations
package stores

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ForesightHQ/foresight-go/internal/domain/session"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
)

var (
	// ErrSessionNotFound is returned when a session id has no live entry.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStoreFull is returned when the session cap has been reached.
	ErrStoreFull = errors.New("session store at capacity")
)

// SessionSummary is the counts-only view of a session exposed to the ops
// dashboard. It deliberately carries no user data.
type SessionSummary struct {
	SessionID    string    `json:"sessionId"`
	StartTime    time.Time `json:"startTime"`
	LastActivity time.Time `json:"lastActivity"`
	HasData      bool      `json:"hasData"`
	HasResults   bool      `json:"hasResults"`
	RowCount     int       `json:"rowCount"`
	StepCount    int       `json:"stepCount"`
}

// SessionsStore holds every live session in memory. Nothing here is ever
// written to disk.
type SessionsStore struct {
	sessions    map[string]*session.Session
	maxSessions int
	mu          sync.RWMutex
	logger      *logging.ChanneledLogger
}

// NewSessionsStore creates a new in-memory sessions store
func NewSessionsStore(maxSessions int, logger *logging.ChanneledLogger) *SessionsStore {
	if logger != nil {
		logger.Session().Info("Initializing sessions store", "maxSessions", maxSessions)
	}
	return &SessionsStore{
		sessions:    make(map[string]*session.Session),
		maxSessions: maxSessions,
		logger:      logger,
	}
}

// Create registers a new session, enforcing the capacity limit.
func (ss *SessionsStore) Create(sess *session.Session) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.maxSessions > 0 && len(ss.sessions) >= ss.maxSessions {
		if ss.logger != nil {
			ss.logger.Session().Warn("Session store at capacity", "count", len(ss.sessions))
		}
		return ErrStoreFull
	}

	ss.sessions[sess.SessionID] = sess
	if ss.logger != nil {
		ss.logger.Session().Info("Session created",
			"sessionId", logging.SanitizeSessionID(sess.SessionID), "count", len(ss.sessions))
	}
	return nil
}

// Get retrieves a session and refreshes its activity timestamp. The touch
// happens under the write lock so concurrent reads never race each other or
// an in-flight Update.
func (ss *SessionsStore) Get(sessionID string) (*session.Session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	sess, exists := ss.sessions[sessionID]
	if exists {
		sess.Touch()
	}
	return sess, exists
}

// Peek retrieves a session without refreshing activity. Used by the sweep
// and the ops dashboard so observation never extends a session's life.
func (ss *SessionsStore) Peek(sessionID string) (*session.Session, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	sess, exists := ss.sessions[sessionID]
	return sess, exists
}

// Update applies fn to the session under the store lock. All mutation of
// session content goes through here so concurrent requests never interleave
// partial writes.
func (ss *SessionsStore) Update(sessionID string, fn func(*session.Session) error) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	sess, exists := ss.sessions[sessionID]
	if !exists {
		return ErrSessionNotFound
	}

	if err := fn(sess); err != nil {
		return err
	}
	sess.Touch()
	return nil
}

// Delete removes a session entirely.
func (ss *SessionsStore) Delete(sessionID string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if _, exists := ss.sessions[sessionID]; exists {
		delete(ss.sessions, sessionID)
		if ss.logger != nil {
			ss.logger.Session().Info("Session deleted",
				"sessionId", logging.SanitizeSessionID(sessionID), "count", len(ss.sessions))
		}
	}
}

// Count returns the number of live sessions.
func (ss *SessionsStore) Count() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}

// ExpiredIDs returns the ids of sessions whose age exceeds maxAge.
func (ss *SessionsStore) ExpiredIDs(now time.Time, maxAge time.Duration) []string {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	var expired []string
	for id, sess := range ss.sessions {
		if sess.Expired(now, maxAge) {
			expired = append(expired, id)
		}
	}
	return expired
}

// Summaries returns counts-only session views sorted by start time.
func (ss *SessionsStore) Summaries() []SessionSummary {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	summaries := make([]SessionSummary, 0, len(ss.sessions))
	for _, sess := range ss.sessions {
		summary := SessionSummary{
			SessionID:    sess.SessionID,
			StartTime:    sess.StartTime,
			LastActivity: sess.LastActivity,
			HasData:      sess.HasData(),
			HasResults:   sess.HasResults(),
			StepCount:    len(sess.History),
		}
		if sess.Preview != nil {
			summary.RowCount = sess.Preview.TotalRows
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartTime.Before(summaries[j].StartTime)
	})
	return summaries
}
