package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ForesightHQ/foresight-go/internal/domain/dataset"
	"github.com/ForesightHQ/foresight-go/internal/domain/session"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/stores"
)

func sweepConfig(maxAge time.Duration) *Config {
	return &Config{
		SweepInterval:    time.Minute,
		VerboseReporting: false,
		MaxSessionAge:    maxAge,
	}
}

func TestSweepRemovesOnlyExpiredSessions(t *testing.T) {
	store := stores.NewSessionsStore(10, nil)

	fresh := session.New("fresh")
	require.NoError(t, store.Create(fresh))

	stale := session.New("stale")
	stale.StartTime = time.Now().UTC().Add(-3 * time.Hour)
	stale.RawData = [][]string{{"2024-01-01", "10"}}
	stale.Preview = &dataset.Preview{TotalRows: 1}
	require.NoError(t, store.Create(stale))

	var notified []string
	worker := NewWorker(store, sweepConfig(2*time.Hour), func(id string) {
		notified = append(notified, id)
	}, nil)

	removed := worker.Sweep(context.Background())

	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"stale"}, notified)
	assert.Equal(t, 1, store.Count())

	_, exists := store.Peek("stale")
	assert.False(t, exists)
	_, exists = store.Peek("fresh")
	assert.True(t, exists)
}

func TestSweepNotifiesBeforeDeletion(t *testing.T) {
	store := stores.NewSessionsStore(10, nil)

	stale := session.New("stale")
	stale.StartTime = time.Now().UTC().Add(-3 * time.Hour)
	require.NoError(t, store.Create(stale))

	stillThere := false
	worker := NewWorker(store, sweepConfig(2*time.Hour), func(id string) {
		_, stillThere = store.Peek(id)
	}, nil)

	worker.Sweep(context.Background())
	assert.True(t, stillThere, "notifier must run while the session is still in the store")
}

func TestSweepWithNoExpiredSessions(t *testing.T) {
	store := stores.NewSessionsStore(10, nil)
	require.NoError(t, store.Create(session.New("fresh")))

	worker := NewWorker(store, sweepConfig(2*time.Hour), nil, nil)

	assert.Equal(t, 0, worker.Sweep(context.Background()))
	assert.Equal(t, 1, store.Count())
}

func TestSweepStopsOnCancelledContext(t *testing.T) {
	store := stores.NewSessionsStore(10, nil)
	for _, id := range []string{"a", "b", "c"} {
		s := session.New(id)
		s.StartTime = time.Now().UTC().Add(-3 * time.Hour)
		require.NoError(t, store.Create(s))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	worker := NewWorker(store, sweepConfig(2*time.Hour), nil, nil)
	removed := worker.Sweep(ctx)

	assert.Equal(t, 0, removed)
	assert.Equal(t, 3, store.Count())
}
