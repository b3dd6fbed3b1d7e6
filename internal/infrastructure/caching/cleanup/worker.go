// Package cleanup provides the background session expiry worker
package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/stores"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
)

// ExpiryNotifier is invoked for every session the sweep removes, before the
// session leaves the store. The messaging layer uses it to tell connected
// browsers their session is gone.
type ExpiryNotifier func(sessionID string)

// Worker handles background session expiry sweeps
type Worker struct {
	store    *stores.SessionsStore
	config   *Config
	notify   ExpiryNotifier
	logger   *logging.ChanneledLogger
	reporter *Reporter
}

// NewWorker creates a new sweep worker with injected configuration
func NewWorker(store *stores.SessionsStore, config *Config, notify ExpiryNotifier, logger *logging.ChanneledLogger) *Worker {
	return &Worker{
		store:    store,
		config:   config,
		notify:   notify,
		logger:   logger,
		reporter: NewReporter(store),
	}
}

// Start begins the sweep routine, using the configured interval
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	if w.logger != nil {
		w.logger.Session().Info("Session sweep worker started",
			"interval", w.config.SweepInterval.String(),
			"maxSessionAge", w.config.MaxSessionAge.String(),
			"verbose", w.config.VerboseReporting)
	}

	for {
		select {
		case <-ctx.Done():
			if w.logger != nil {
				w.logger.Shutdown().Info("Session sweep worker stopping")
			}
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep removes every session older than MaxSessionAge, notifying listeners
// first so the browser learns why its state vanished. Returns the number of
// sessions removed.
func (w *Worker) Sweep(ctx context.Context) int {
	start := time.Now()
	now := time.Now().UTC()

	if w.config.VerboseReporting {
		w.reporter.LogStage("PERIODIC SESSION SWEEP")
		fmt.Print(w.reporter.GenerateStoreReport())
	}

	expired := w.store.ExpiredIDs(now, w.config.MaxSessionAge)

	removed := 0
	for _, sessionID := range expired {
		select {
		case <-ctx.Done():
			return removed
		default:
		}

		if w.notify != nil {
			w.notify(sessionID)
		}

		// Wipe data before dropping the entry so nothing lingers if a
		// handler still holds the pointer.
		sess, exists := w.store.Peek(sessionID)
		if exists {
			sess.Clear()
		}
		w.store.Delete(sessionID)
		removed++

		if w.logger != nil {
			w.logger.Session().Info("Session expired and removed",
				"sessionId", logging.SanitizeSessionID(sessionID),
				"maxAge", w.config.MaxSessionAge.String())
		}
	}

	duration := time.Since(start)
	if removed > 0 {
		w.reporter.LogSuccess("Session sweep finished: %d expired sessions removed in %v", removed, duration)
	} else if w.config.VerboseReporting {
		w.reporter.LogInfo("Session sweep completed - no expired sessions (%v)", duration)
	}

	return removed
}
