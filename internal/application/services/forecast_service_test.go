package services

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ForesightHQ/foresight-go/internal/domain/forecast"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/stores"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/messaging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/prophet"
)

const forecastResponse = `{
	"forecast": [
		{"ds": "2024-01-05", "yhat": 15.2, "yhat_lower": 12.0, "yhat_upper": 18.4},
		{"ds": "2024-01-06", "yhat": 16.1, "yhat_lower": 12.8, "yhat_upper": 19.5}
	],
	"model_summary": {"growth": "linear", "seasonality_mode": "additive", "training_rows": 4},
	"performance_metrics": {"mae": 1.2, "rmse": 1.5, "mape": 4.1, "coverage": 0.94},
	"elapsed_seconds": 0.8
}`

// fakeBackend serves the validate and forecast endpoints the way the Python
// engine does. forecastFn lets a test block or fail the long call.
func fakeBackend(t *testing.T, forecastFn http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/validate", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"is_valid": true, "errors": [], "warnings": [], "row_count": 4}`))
	})
	mux.HandleFunc("/forecast", forecastFn)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newForecastService(t *testing.T, backendURL string) (*ForecastService, *stores.SessionsStore) {
	store := stores.NewSessionsStore(100, nil)
	client := prophet.NewClient(backendURL, 30*time.Second, quietLogger(t))
	sse := messaging.NewSSEBroadcaster(10, quietLogger(t))
	svc := NewForecastService(store, client, nil, sse, quietLogger(t), newTestTracker())
	return svc, store
}

// waitForTerminal polls the run state until it leaves the active phases.
func waitForTerminal(t *testing.T, svc *ForecastService, sessionID string) *Run {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		run, err := svc.Status(sessionID)
		require.NoError(t, err)
		switch run.State {
		case forecast.StateCompleted, forecast.StateFailed, forecast.StateCancelled:
			return run
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("run never reached a terminal state")
	return nil
}

func TestForecastStartRequiresReadySession(t *testing.T) {
	svc, store := newForecastService(t, "http://127.0.0.1:0")

	_, err := svc.Start("missing")
	assert.ErrorIs(t, err, stores.ErrSessionNotFound)

	// Data and mapping without a config is not enough.
	seedSession(t, store, "sess-1")
	_, err = svc.Start("sess-1")
	assert.ErrorIs(t, err, forecast.ErrNotReady)
}

func TestForecastHappyPath(t *testing.T) {
	ts := fakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(forecastResponse))
	})
	svc, store := newForecastService(t, ts.URL)
	sess := seedSession(t, store, "sess-1")
	sess.Config = forecast.DefaultConfig()

	run, err := svc.Start("sess-1")
	require.NoError(t, err)
	assert.Equal(t, forecast.StateValidating, run.State)

	final := waitForTerminal(t, svc, "sess-1")
	assert.Equal(t, forecast.StateCompleted, final.State)
	assert.Equal(t, float64(100), final.Percent)
	assert.NotEmpty(t, final.ModelID)
	require.NotNil(t, final.FinishedAt)
	for _, stage := range final.Stages {
		assert.Equal(t, forecast.StageCompleted, stage.Status)
	}

	stored, _ := store.Peek("sess-1")
	require.NotNil(t, stored.Results)
	assert.Len(t, stored.Results.Forecast, 2)
	assert.Equal(t, "2024-01-05", stored.Results.Forecast[0].DS)
	assert.InDelta(t, 1.2, stored.Results.PerformanceMetrics.MAE, 0.001)
}

func TestForecastRejectsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	ts := fakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(forecastResponse))
	})
	svc, store := newForecastService(t, ts.URL)
	sess := seedSession(t, store, "sess-1")
	sess.Config = forecast.DefaultConfig()

	_, err := svc.Start("sess-1")
	require.NoError(t, err)

	_, err = svc.Start("sess-1")
	assert.ErrorIs(t, err, forecast.ErrRunInFlight)

	close(release)
	waitForTerminal(t, svc, "sess-1")

	// A finished run no longer blocks a new one.
	_, err = svc.Start("sess-1")
	assert.NoError(t, err)
	waitForTerminal(t, svc, "sess-1")
}

func TestForecastCancelAbortsBackendCall(t *testing.T) {
	reached := make(chan struct{})
	ts := fakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server watches the connection; otherwise the
		// client's disconnect is never noticed and r.Context() never fires,
		// which deadlocks ts.Close in cleanup.
		io.Copy(io.Discard, r.Body)
		close(reached)
		// Hold the request open until the client gives up.
		<-r.Context().Done()
	})
	svc, store := newForecastService(t, ts.URL)
	sess := seedSession(t, store, "sess-1")
	sess.Config = forecast.DefaultConfig()

	_, err := svc.Start("sess-1")
	require.NoError(t, err)

	select {
	case <-reached:
	case <-time.After(5 * time.Second):
		t.Fatal("backend never received the forecast request")
	}

	require.NoError(t, svc.Cancel("sess-1"))

	final := waitForTerminal(t, svc, "sess-1")
	assert.Equal(t, forecast.StateCancelled, final.State)
	assert.Empty(t, final.Error, "cancellation is not an error")
	for _, stage := range final.Stages {
		assert.NotEqual(t, forecast.StageError, stage.Status, "cancelled runs have no error stage")
	}

	// Cancelling again reports that nothing is running.
	assert.ErrorIs(t, svc.Cancel("sess-1"), forecast.ErrNoRun)
}

func TestForecastFailureCarriesPrivacyNote(t *testing.T) {
	ts := fakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail": "series too short for weekly seasonality"}`))
	})
	svc, store := newForecastService(t, ts.URL)
	sess := seedSession(t, store, "sess-1")
	sess.Config = forecast.DefaultConfig()

	_, err := svc.Start("sess-1")
	require.NoError(t, err)

	final := waitForTerminal(t, svc, "sess-1")
	assert.Equal(t, forecast.StateFailed, final.State)
	assert.Contains(t, final.Error, "series too short")
	assert.True(t, strings.HasSuffix(final.Error, forecast.PrivacyNote),
		"every failure message ends with the in-memory processing note")
}

func TestForecastImmediateFailureMarksActiveStage(t *testing.T) {
	// Fail at the validation call, before the first progress tick fires.
	mux := http.NewServeMux()
	mux.HandleFunc("/validate", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "engine offline"}`))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	svc, store := newForecastService(t, ts.URL)
	sess := seedSession(t, store, "sess-1")
	sess.Config = forecast.DefaultConfig()

	_, err := svc.Start("sess-1")
	require.NoError(t, err)

	final := waitForTerminal(t, svc, "sess-1")
	require.Equal(t, forecast.StateFailed, final.State)

	assert.Equal(t, forecast.StageError, final.Stages[0].Status,
		"the stage active at failure time carries the error")
	for _, stage := range final.Stages[1:] {
		assert.Equal(t, forecast.StagePending, stage.Status,
			"stage %s never ran and stays pending", stage.Name)
	}
}

func TestForecastRetryAfterFailure(t *testing.T) {
	var calls atomic.Int32
	ts := fakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": "transient"}`))
			return
		}
		w.Write([]byte(forecastResponse))
	})
	svc, store := newForecastService(t, ts.URL)
	sess := seedSession(t, store, "sess-1")
	sess.Config = forecast.DefaultConfig()

	_, err := svc.Retry("sess-1")
	assert.ErrorIs(t, err, forecast.ErrNoRun, "retry needs a previous run")

	_, err = svc.Start("sess-1")
	require.NoError(t, err)
	final := waitForTerminal(t, svc, "sess-1")
	require.Equal(t, forecast.StateFailed, final.State)

	_, err = svc.Retry("sess-1")
	require.NoError(t, err)
	final = waitForTerminal(t, svc, "sess-1")
	assert.Equal(t, forecast.StateCompleted, final.State)
}

func TestForecastDropRunCancelsActiveWork(t *testing.T) {
	ts := fakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	svc, store := newForecastService(t, ts.URL)
	sess := seedSession(t, store, "sess-1")
	sess.Config = forecast.DefaultConfig()

	_, err := svc.Start("sess-1")
	require.NoError(t, err)

	svc.DropRun("sess-1")

	_, err = svc.Status("sess-1")
	assert.ErrorIs(t, err, forecast.ErrNoRun)
}

func TestSetConfigValidatesBeforeStoring(t *testing.T) {
	svc, store := newForecastService(t, "http://127.0.0.1:0")
	seedSession(t, store, "sess-1")

	bad := forecast.DefaultConfig()
	bad.Horizon = 0
	result := svc.SetConfig("sess-1", bad)
	assert.False(t, result.IsValid)

	stored, _ := store.Peek("sess-1")
	assert.Nil(t, stored.Config, "invalid config is never persisted")

	good := forecast.DefaultConfig()
	result = svc.SetConfig("sess-1", good)
	require.True(t, result.IsValid)

	stored, _ = store.Peek("sess-1")
	require.NotNil(t, stored.Config)
	assert.Equal(t, good.Horizon, stored.Config.Horizon)
}
