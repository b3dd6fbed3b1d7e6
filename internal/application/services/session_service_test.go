package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ForesightHQ/foresight-go/internal/domain/forecast"
	"github.com/ForesightHQ/foresight-go/internal/domain/session"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/stores"
)

func newSessionService(t *testing.T) (*SessionService, *stores.SessionsStore) {
	store := stores.NewSessionsStore(100, nil)
	return NewSessionService(store, nil, 2*time.Hour, quietLogger(t)), store
}

func TestSessionServiceGetOrCreate(t *testing.T) {
	svc, _ := newSessionService(t)

	sess, created, err := svc.GetOrCreate("")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, sess.SessionID)

	same, created, err := svc.GetOrCreate(sess.SessionID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, sess.SessionID, same.SessionID)

	minted, created, err := svc.GetOrCreate("unknown-id")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, "unknown-id", minted.SessionID)
}

func TestSessionServiceState(t *testing.T) {
	svc, store := newSessionService(t)
	seedSession(t, store, "sess-1")

	state, err := svc.State("sess-1")
	require.NoError(t, err)
	assert.True(t, state.HasData)
	assert.False(t, state.HasConfig)
	assert.False(t, state.HasResults)
	assert.True(t, state.ExpiresAt.After(time.Now()))

	_, err = svc.State("missing")
	assert.ErrorIs(t, err, stores.ErrSessionNotFound)
}

func TestSessionServiceExtend(t *testing.T) {
	svc, store := newSessionService(t)
	sess := seedSession(t, store, "sess-1")
	sess.StartTime = time.Now().UTC().Add(-90 * time.Minute)

	expiresAt, err := svc.Extend("sess-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), expiresAt, time.Minute)
}

func TestSessionServiceDuplicateIsIndependent(t *testing.T) {
	svc, store := newSessionService(t)
	seedSession(t, store, "sess-1")

	dup, err := svc.Duplicate("sess-1")
	require.NoError(t, err)
	assert.NotEqual(t, "sess-1", dup.SessionID)
	assert.Equal(t, 4, dup.Preview.TotalRows)

	// Mutating the copy must not leak into the source.
	require.NoError(t, store.Update(dup.SessionID, func(s *session.Session) error {
		s.RawData[0][1] = "999"
		return nil
	}))

	source, _ := store.Peek("sess-1")
	assert.Equal(t, "10", source.RawData[0][1])
}

func TestSessionServiceClear(t *testing.T) {
	svc, store := newSessionService(t)
	sess := seedSession(t, store, "sess-1")
	sess.Config = forecast.DefaultConfig()

	require.NoError(t, svc.Clear(context.Background(), "sess-1"))

	got, exists := store.Peek("sess-1")
	require.True(t, exists, "clear keeps the session shell alive")
	assert.False(t, got.HasData())
	assert.False(t, got.HasConfig())

	// Clearing an already-empty session is a no-op, not an error.
	assert.NoError(t, svc.Clear(context.Background(), "sess-1"))
}

func TestSessionServiceExportImportRoundtrip(t *testing.T) {
	svc, store := newSessionService(t)
	sess := seedSession(t, store, "sess-1")
	sess.Config = forecast.DefaultConfig()

	data, encrypted, err := svc.Export("sess-1", "")
	require.NoError(t, err)
	assert.False(t, encrypted)

	fresh, err := svc.Create()
	require.NoError(t, err)
	require.NoError(t, svc.Import(fresh.SessionID, data, ""))

	restored, _ := store.Peek(fresh.SessionID)
	assert.Equal(t, 4, restored.Preview.TotalRows)
	assert.Equal(t, "date", restored.Mapping.DateColumn)
	require.NotNil(t, restored.Config)
	assert.Equal(t, 30, restored.Config.Horizon)
}

func TestSessionServicePasswordProtectedExport(t *testing.T) {
	svc, store := newSessionService(t)
	seedSession(t, store, "sess-1")

	data, encrypted, err := svc.Export("sess-1", "hunter2")
	require.NoError(t, err)
	assert.True(t, encrypted)
	assert.NotContains(t, string(data), "2024-01-01", "uploaded data must not appear in the encrypted export")

	fresh, err := svc.Create()
	require.NoError(t, err)

	assert.Error(t, svc.Import(fresh.SessionID, data, ""), "password required")
	assert.Error(t, svc.Import(fresh.SessionID, data, "wrong"), "wrong password rejected")

	require.NoError(t, svc.Import(fresh.SessionID, data, "hunter2"))
	restored, _ := store.Peek(fresh.SessionID)
	assert.Equal(t, 4, restored.Preview.TotalRows)
}

func TestSessionServiceImportRejectsGarbage(t *testing.T) {
	svc, _ := newSessionService(t)
	fresh, err := svc.Create()
	require.NoError(t, err)

	assert.Error(t, svc.Import(fresh.SessionID, []byte("not json"), ""))
	assert.Error(t, svc.Import(fresh.SessionID, []byte(`{"version": 99}`), ""))
}
