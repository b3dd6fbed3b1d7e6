package stores

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ForesightHQ/foresight-go/internal/domain/dataset"
	"github.com/ForesightHQ/foresight-go/internal/domain/session"
)

func TestSessionsStoreCreateAndGet(t *testing.T) {
	store := NewSessionsStore(10, nil)

	sess := session.New("sess-1")
	require.NoError(t, store.Create(sess))

	got, exists := store.Get("sess-1")
	require.True(t, exists)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, 1, store.Count())

	_, exists = store.Get("unknown")
	assert.False(t, exists)
}

func TestSessionsStoreCapacity(t *testing.T) {
	store := NewSessionsStore(2, nil)

	require.NoError(t, store.Create(session.New("a")))
	require.NoError(t, store.Create(session.New("b")))

	err := store.Create(session.New("c"))
	assert.ErrorIs(t, err, ErrStoreFull)

	store.Delete("a")
	assert.NoError(t, store.Create(session.New("c")))
}

func TestSessionsStoreGetTouchesPeekDoesNot(t *testing.T) {
	store := NewSessionsStore(10, nil)

	sess := session.New("sess-1")
	sess.LastActivity = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, store.Create(sess))

	peeked, _ := store.Peek("sess-1")
	assert.True(t, time.Since(peeked.LastActivity) > 30*time.Minute,
		"Peek must not refresh activity")

	got, _ := store.Get("sess-1")
	assert.True(t, time.Since(got.LastActivity) < time.Minute,
		"Get must refresh activity")
}

func TestSessionsStoreConcurrentGetAndUpdate(t *testing.T) {
	store := NewSessionsStore(10, nil)
	sess := session.New("sess-1")
	sess.LastActivity = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, store.Create(sess))

	// Gets touch LastActivity, so concurrent reads and updates must all
	// serialize on the store lock. Run under the race detector.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				store.Get("sess-1")
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			_ = store.Update("sess-1", func(s *session.Session) error { return nil })
		}
	}()
	wg.Wait()

	got, _ := store.Peek("sess-1")
	assert.True(t, time.Since(got.LastActivity) < time.Minute)
}

func TestSessionsStoreUpdate(t *testing.T) {
	store := NewSessionsStore(10, nil)
	require.NoError(t, store.Create(session.New("sess-1")))

	err := store.Update("sess-1", func(s *session.Session) error {
		s.Mapping = &dataset.ColumnMapping{DateColumn: "date", ValueColumn: "sales"}
		return nil
	})
	require.NoError(t, err)

	got, _ := store.Peek("sess-1")
	require.NotNil(t, got.Mapping)
	assert.Equal(t, "date", got.Mapping.DateColumn)

	err = store.Update("missing", func(s *session.Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionsStoreExpiredIDs(t *testing.T) {
	store := NewSessionsStore(10, nil)

	fresh := session.New("fresh")
	require.NoError(t, store.Create(fresh))

	stale := session.New("stale")
	stale.StartTime = time.Now().UTC().Add(-3 * time.Hour)
	require.NoError(t, store.Create(stale))

	expired := store.ExpiredIDs(time.Now().UTC(), 2*time.Hour)
	assert.Equal(t, []string{"stale"}, expired)
}

func TestSessionClearIsIdempotent(t *testing.T) {
	store := NewSessionsStore(10, nil)

	sess := session.New("sess-1")
	sess.RawData = [][]string{{"2024-01-01", "10"}}
	sess.Preview = &dataset.Preview{TotalRows: 1}
	require.NoError(t, store.Create(sess))

	require.NoError(t, store.Update("sess-1", func(s *session.Session) error {
		s.Clear()
		return nil
	}))

	got, _ := store.Peek("sess-1")
	assert.False(t, got.HasData())
	assert.Nil(t, got.RawData)

	// Clearing again must succeed without changing anything.
	require.NoError(t, store.Update("sess-1", func(s *session.Session) error {
		s.Clear()
		return nil
	}))
	got, _ = store.Peek("sess-1")
	assert.False(t, got.HasData())
	assert.Empty(t, got.History)
	assert.Empty(t, got.Annotations)
}

func TestSessionsStoreSummariesCarryNoData(t *testing.T) {
	store := NewSessionsStore(10, nil)

	sess := session.New("sess-1")
	sess.RawData = [][]string{{"2024-01-01", "10"}}
	sess.Preview = &dataset.Preview{TotalRows: 42}
	require.NoError(t, store.Create(sess))

	summaries := store.Summaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, 42, summaries[0].RowCount)
	assert.True(t, summaries[0].HasData)
}
