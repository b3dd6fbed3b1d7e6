package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ForesightHQ/foresight-go/internal/domain/session"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/stores"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/registry"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/security"
)

// SessionState is the full workflow state returned to the browser.
type SessionState struct {
	SessionID  string           `json:"sessionId"`
	StartTime  time.Time        `json:"startTime"`
	ExpiresAt  time.Time        `json:"expiresAt"`
	HasData    bool             `json:"hasData"`
	HasConfig  bool             `json:"hasConfig"`
	HasResults bool             `json:"hasResults"`
	Session    *session.Session `json:"session"`
}

// SessionService owns session lifecycle: create, extend, duplicate, clear,
// export, and import.
type SessionService struct {
	store        *stores.SessionsStore
	registryRepo *registry.Repository
	maxAge       time.Duration
	logger       *logging.ChanneledLogger
}

// NewSessionService creates a new session service
func NewSessionService(store *stores.SessionsStore, registryRepo *registry.Repository, maxAge time.Duration, logger *logging.ChanneledLogger) *SessionService {
	return &SessionService{
		store:        store,
		registryRepo: registryRepo,
		maxAge:       maxAge,
		logger:       logger,
	}
}

// Create starts a brand new session.
func (s *SessionService) Create() (*session.Session, error) {
	sess := session.New(security.GenerateSessionID())
	if err := s.store.Create(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// GetOrCreate returns the session for the given id, minting a new one when
// the id is unknown or empty. The second return reports whether a new
// session was created.
func (s *SessionService) GetOrCreate(sessionID string) (*session.Session, bool, error) {
	if sessionID != "" {
		if sess, exists := s.store.Get(sessionID); exists {
			return sess, false, nil
		}
	}
	sess, err := s.Create()
	return sess, true, err
}

// State assembles the full workflow state for the browser.
func (s *SessionService) State(sessionID string) (*SessionState, error) {
	sess, exists := s.store.Get(sessionID)
	if !exists {
		return nil, stores.ErrSessionNotFound
	}

	return &SessionState{
		SessionID:  sess.SessionID,
		StartTime:  sess.StartTime,
		ExpiresAt:  sess.StartTime.Add(s.maxAge),
		HasData:    sess.HasData(),
		HasConfig:  sess.HasConfig(),
		HasResults: sess.HasResults(),
		Session:    sess,
	}, nil
}

// Extend resets the session clock, granting a fresh expiry window.
func (s *SessionService) Extend(sessionID string) (time.Time, error) {
	var expiresAt time.Time
	err := s.store.Update(sessionID, func(sess *session.Session) error {
		sess.StartTime = time.Now().UTC()
		expiresAt = sess.StartTime.Add(s.maxAge)
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}

	s.logger.Session().Info("Session extended",
		"sessionId", logging.SanitizeSessionID(sessionID), "expiresAt", expiresAt)
	return expiresAt, nil
}

// Duplicate deep-copies a session into a new id, so the user can branch an
// analysis without disturbing the original.
func (s *SessionService) Duplicate(sessionID string) (*session.Session, error) {
	source, exists := s.store.Get(sessionID)
	if !exists {
		return nil, stores.ErrSessionNotFound
	}

	snap, err := source.Export()
	if err != nil {
		return nil, fmt.Errorf("failed to copy session: %w", err)
	}

	dup := session.New(security.GenerateSessionID())
	dup.Restore(snap)
	// The copy carries data and config only; results belong to the run that
	// produced them and are regenerated in the new branch.
	dup.Results = nil
	if err := s.store.Create(dup); err != nil {
		return nil, err
	}

	s.logger.Session().Info("Session duplicated",
		"sourceId", logging.SanitizeSessionID(sessionID),
		"newId", logging.SanitizeSessionID(dup.SessionID))
	return dup, nil
}

// Clear wipes all data from the session while keeping the session alive.
// Registered models for the session are purged with it. Clearing an
// already-empty session succeeds as a no-op.
func (s *SessionService) Clear(ctx context.Context, sessionID string) error {
	err := s.store.Update(sessionID, func(sess *session.Session) error {
		sess.Clear()
		return nil
	})
	if err != nil {
		return err
	}

	if s.registryRepo != nil {
		if purged, err := s.registryRepo.PurgeSession(ctx, sessionID); err != nil {
			s.logger.LogError(logging.ChannelRegistry, "purge_session", err, sessionID)
		} else if purged > 0 {
			s.logger.Registry().Info("Registry purged on session clear",
				"sessionId", logging.SanitizeSessionID(sessionID), "models", purged)
		}
	}

	s.logger.Session().Info("Session cleared", "sessionId", logging.SanitizeSessionID(sessionID))
	return nil
}

// Delete removes the session entirely, purging its registry entries.
func (s *SessionService) Delete(ctx context.Context, sessionID string) {
	if s.registryRepo != nil {
		if _, err := s.registryRepo.PurgeSession(ctx, sessionID); err != nil {
			s.logger.LogError(logging.ChannelRegistry, "purge_session", err, sessionID)
		}
	}
	s.store.Delete(sessionID)
}

// Export serializes the session to a downloadable snapshot. When password is
// non-empty the snapshot JSON is AES-GCM encrypted.
func (s *SessionService) Export(sessionID, password string) ([]byte, bool, error) {
	sess, exists := s.store.Get(sessionID)
	if !exists {
		return nil, false, stores.ErrSessionNotFound
	}

	snap, err := sess.Export()
	if err != nil {
		return nil, false, err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, false, err
	}

	if password == "" {
		return data, false, nil
	}

	encrypted, err := security.Encrypt(data, deriveExportKey(password))
	if err != nil {
		return nil, false, err
	}

	envelope, err := json.Marshal(map[string]any{
		"version":   session.SnapshotVersion,
		"encrypted": true,
		"payload":   encrypted,
	})
	return envelope, true, err
}

// Import restores a previously exported snapshot into the session.
func (s *SessionService) Import(sessionID string, data []byte, password string) error {
	var envelope struct {
		Encrypted bool   `json:"encrypted"`
		Payload   string `json:"payload"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Encrypted {
		if password == "" {
			return fmt.Errorf("this export is password protected")
		}
		decrypted, err := security.Decrypt(envelope.Payload, deriveExportKey(password))
		if err != nil {
			return fmt.Errorf("failed to decrypt export: wrong password or corrupted file")
		}
		data = decrypted
	}

	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("invalid session export: %w", err)
	}
	if snap.Version != session.SnapshotVersion {
		return fmt.Errorf("unsupported export version %d", snap.Version)
	}

	err := s.store.Update(sessionID, func(sess *session.Session) error {
		sess.Restore(&snap)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Session().Info("Session imported",
		"sessionId", logging.SanitizeSessionID(sessionID), "exportedAt", snap.ExportedAt)
	return nil
}

// deriveExportKey hashes a user password into a 32-byte AES key.
func deriveExportKey(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
