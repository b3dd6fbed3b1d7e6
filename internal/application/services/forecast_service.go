package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ForesightHQ/foresight-go/internal/domain/forecast"
	"github.com/ForesightHQ/foresight-go/internal/domain/session"
	"github.com/ForesightHQ/foresight-go/internal/domain/validation"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/stores"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/messaging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/performance"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/prophet"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/registry"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/security"
)

// progressTick is how often the cosmetic progress interpolator advances.
const progressTick = 200 * time.Millisecond

// Run is the state of one forecast execution. Stage and percent values are
// cosmetic; State is the real lifecycle.
type Run struct {
	State      forecast.RunState `json:"state"`
	Stages     []forecast.Stage  `json:"stages"`
	Percent    float64           `json:"percent"`
	Warnings   []string          `json:"warnings,omitempty"`
	Error      string            `json:"error,omitempty"`
	ModelID    string            `json:"modelId,omitempty"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt *time.Time        `json:"finishedAt,omitempty"`

	config *forecast.Config
	cancel context.CancelFunc
}

func (r *Run) active() bool {
	switch r.State {
	case forecast.StateValidating, forecast.StateSubmitting, forecast.StateProcessing:
		return true
	}
	return false
}

// ForecastService drives the forecast execution lifecycle. At most one run
// is active per session; cancellation aborts the backend request itself.
type ForecastService struct {
	store        *stores.SessionsStore
	client       *prophet.Client
	registryRepo *registry.Repository
	sse          *messaging.SSEBroadcaster
	logger       *logging.ChanneledLogger
	perfTracker  *performance.Tracker

	runs map[string]*Run
	mu   sync.Mutex
}

// NewForecastService creates a new forecast service
func NewForecastService(
	store *stores.SessionsStore,
	client *prophet.Client,
	registryRepo *registry.Repository,
	sse *messaging.SSEBroadcaster,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *ForecastService {
	return &ForecastService{
		store:        store,
		client:       client,
		registryRepo: registryRepo,
		sse:          sse,
		logger:       logger,
		perfTracker:  perfTracker,
		runs:         make(map[string]*Run),
	}
}

// SetConfig validates and stores the forecast configuration on the session.
func (s *ForecastService) SetConfig(sessionID string, cfg *forecast.Config) validation.ConfigValidationResult {
	result := validation.ValidateForecastConfig(cfg)
	if !result.IsValid {
		return result
	}

	err := s.store.Update(sessionID, func(sess *session.Session) error {
		sess.Config = cfg.Clone()
		return nil
	})
	if err != nil {
		result.IsValid = false
		result.Errors = append(result.Errors, validation.FieldError{Field: "session", Message: err.Error()})
	}
	return result
}

// Start begins a forecast execution for the session. Exactly one run may be
// active per session at a time.
func (s *ForecastService) Start(sessionID string) (*Run, error) {
	sess, exists := s.store.Get(sessionID)
	if !exists {
		return nil, stores.ErrSessionNotFound
	}
	if !sess.ReadyToForecast() {
		return nil, forecast.ErrNotReady
	}

	cfg := sess.Config.Clone()

	s.mu.Lock()
	if existing, ok := s.runs[sessionID]; ok && existing.active() {
		s.mu.Unlock()
		return nil, forecast.ErrRunInFlight
	}

	ctx, cancel := context.WithCancel(context.Background())
	stages := forecast.CloneStages(forecast.DefaultStagePlan())
	// The first stage is active from the moment the run exists, so a failure
	// before the first progress tick still has a stage to pin the error on.
	stages[0].Status = forecast.StageActive
	run := &Run{
		State:     forecast.StateValidating,
		Stages:    stages,
		StartedAt: time.Now().UTC(),
		config:    cfg,
		cancel:    cancel,
	}
	s.runs[sessionID] = run
	s.mu.Unlock()

	go s.execute(ctx, sessionID, run, cfg)

	return s.snapshotRun(run), nil
}

// Cancel aborts the active run. The backend request is cut off via context
// cancellation; this is a real abort, not a display change.
func (s *ForecastService) Cancel(sessionID string) error {
	s.mu.Lock()
	run, exists := s.runs[sessionID]
	if !exists {
		s.mu.Unlock()
		return forecast.ErrNoRun
	}
	if !run.active() {
		s.mu.Unlock()
		return forecast.ErrNoRun
	}
	cancel := run.cancel
	s.mu.Unlock()

	cancel()
	s.logger.Forecast().Info("Forecast cancellation requested",
		"sessionId", logging.SanitizeSessionID(sessionID))
	return nil
}

// Retry starts a fresh run with the failed run's configuration.
func (s *ForecastService) Retry(sessionID string) (*Run, error) {
	s.mu.Lock()
	run, exists := s.runs[sessionID]
	if !exists {
		s.mu.Unlock()
		return nil, forecast.ErrNoRun
	}
	if run.active() {
		s.mu.Unlock()
		return nil, forecast.ErrRunInFlight
	}
	s.mu.Unlock()

	return s.Start(sessionID)
}

// Status returns a copy of the session's run state, or ErrNoRun.
func (s *ForecastService) Status(sessionID string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, exists := s.runs[sessionID]
	if !exists {
		return nil, forecast.ErrNoRun
	}
	return s.snapshotRunLocked(run), nil
}

// DropRun discards run state for a session, used when the session is cleared
// or expires.
func (s *ForecastService) DropRun(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run, exists := s.runs[sessionID]; exists {
		if run.active() && run.cancel != nil {
			run.cancel()
		}
		delete(s.runs, sessionID)
	}
}

// execute drives one run from validation through completion.
func (s *ForecastService) execute(ctx context.Context, sessionID string, run *Run, cfg *forecast.Config) {
	marker := s.perfTracker.StartOperation("forecast:generate", sessionID)
	defer s.perfTracker.CompleteOperation(marker)

	progressDone := make(chan struct{})
	go s.animateProgress(ctx, sessionID, run, progressDone)
	defer close(progressDone)

	dates, values, err := s.mappedSeries(sessionID)
	if err != nil {
		s.finishRun(sessionID, run, marker, err)
		return
	}

	// Validation phase: the backend checks the series before the long fit.
	validateResp, err := s.client.Validate(ctx, &prophet.ValidateRequest{Dates: dates, Values: values})
	if err != nil {
		s.finishRun(sessionID, run, marker, err)
		return
	}
	if !validateResp.IsValid {
		s.finishRun(sessionID, run, marker,
			fmt.Errorf("data validation failed: %s", firstOr(validateResp.Errors, "series rejected by backend")))
		return
	}

	if len(validateResp.Warnings) > 0 {
		s.mu.Lock()
		run.Warnings = append([]string(nil), validateResp.Warnings...)
		s.mu.Unlock()
	}

	s.setRunState(sessionID, run, forecast.StateSubmitting)
	s.setRunState(sessionID, run, forecast.StateProcessing)

	results, err := s.client.Generate(ctx, &prophet.GenerateRequest{
		Dates:  dates,
		Values: values,
		Config: cfg,
	})
	if err != nil {
		s.finishRun(sessionID, run, marker, err)
		return
	}

	modelID := security.GenerateULID()
	storeErr := s.store.Update(sessionID, func(sess *session.Session) error {
		sess.Results = results
		return nil
	})
	if storeErr != nil {
		s.finishRun(sessionID, run, marker, storeErr)
		return
	}

	if s.registryRepo != nil {
		model := &registry.Model{
			ModelID:   modelID,
			SessionID: sessionID,
			Label:     fmt.Sprintf("%s %dd forecast", cfg.Growth, cfg.Horizon),
			Config:    cfg,
			Metrics:   results.PerformanceMetrics,
			Horizon:   cfg.Horizon,
			Growth:    cfg.Growth,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.registryRepo.Save(context.Background(), model); err != nil {
			// Registry failure never fails the forecast itself.
			s.logger.LogError(logging.ChannelRegistry, "save_model", err, sessionID)
		}
	}

	s.mu.Lock()
	run.State = forecast.StateCompleted
	run.Percent = 100
	run.ModelID = modelID
	now := time.Now().UTC()
	run.FinishedAt = &now
	for i := range run.Stages {
		run.Stages[i].Status = forecast.StageCompleted
	}
	snapshot := s.snapshotRunLocked(run)
	s.mu.Unlock()

	marker.SetSuccess(true)
	marker.AddMetadata("horizon", cfg.Horizon)
	marker.AddMetadata("points", len(results.Forecast))

	s.logger.Forecast().Info("Forecast completed",
		"sessionId", logging.SanitizeSessionID(sessionID),
		"modelId", modelID, "horizon", cfg.Horizon,
		"elapsed", time.Since(run.StartedAt).String())

	s.sse.BroadcastToSession(sessionID, messaging.EventForecastCompleted, map[string]any{
		"run":     snapshot,
		"modelId": modelID,
	})
}

// finishRun records a failed or cancelled outcome and notifies the browser.
func (s *ForecastService) finishRun(sessionID string, run *Run, marker *performance.Marker, err error) {
	cancelled := errors.Is(err, context.Canceled)

	s.mu.Lock()
	now := time.Now().UTC()
	run.FinishedAt = &now
	if cancelled {
		run.State = forecast.StateCancelled
	} else {
		run.State = forecast.StateFailed
		run.Error = fmt.Sprintf("%s %s", userFacingError(err), forecast.PrivacyNote)
	}
	for i := range run.Stages {
		if run.Stages[i].Status != forecast.StageActive {
			continue
		}
		if cancelled {
			run.Stages[i].Status = forecast.StagePending
		} else {
			run.Stages[i].Status = forecast.StageError
		}
	}
	snapshot := s.snapshotRunLocked(run)
	s.mu.Unlock()

	marker.SetError(err)

	if cancelled {
		s.logger.Forecast().Info("Forecast cancelled",
			"sessionId", logging.SanitizeSessionID(sessionID))
		s.sse.BroadcastToSession(sessionID, messaging.EventForecastCancelled, map[string]any{"run": snapshot})
		return
	}

	s.logger.LogError(logging.ChannelForecast, "forecast_run", err, sessionID)
	s.sse.BroadcastToSession(sessionID, messaging.EventForecastFailed, map[string]any{"run": snapshot})
}

// animateProgress interpolates the cosmetic stage sequence until the run
// finishes. Display only: it never reflects real backend progress, and it
// parks short of the final target while the backend is still working.
func (s *ForecastService) animateProgress(ctx context.Context, sessionID string, run *Run, done <-chan struct{}) {
	ticker := time.NewTicker(progressTick)
	defer ticker.Stop()

	stagePlan := forecast.DefaultStagePlan()
	stageIdx := 0
	stageElapsed := time.Duration(0)
	prevTarget := 0.0

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if stageIdx >= len(stagePlan) {
			continue // Parked at the cap until the backend answers.
		}

		stage := stagePlan[stageIdx]
		stageElapsed += progressTick

		fraction := float64(stageElapsed) / float64(stage.Duration)
		if fraction > 1 {
			fraction = 1
		}
		percent := prevTarget + (stage.TargetPercent-prevTarget)*fraction

		// Hold below 100 while work is outstanding; completion sets 100.
		if percent > 95 {
			percent = 95
		}

		s.mu.Lock()
		if !run.active() {
			s.mu.Unlock()
			return
		}
		run.Percent = percent
		for i := range run.Stages {
			switch {
			case i < stageIdx:
				run.Stages[i].Status = forecast.StageCompleted
			case i == stageIdx:
				run.Stages[i].Status = forecast.StageActive
			}
		}
		snapshot := s.snapshotRunLocked(run)
		s.mu.Unlock()

		s.sse.BroadcastToSession(sessionID, messaging.EventForecastProgress, map[string]any{"run": snapshot})

		if fraction >= 1 {
			prevTarget = stage.TargetPercent
			stageIdx++
			stageElapsed = 0
		}
	}
}

// setRunState advances the real lifecycle state.
func (s *ForecastService) setRunState(sessionID string, run *Run, state forecast.RunState) {
	s.mu.Lock()
	if run.active() {
		run.State = state
	}
	s.mu.Unlock()
}

// mappedSeries extracts the date and value columns per the session mapping.
func (s *ForecastService) mappedSeries(sessionID string) ([]string, []float64, error) {
	sess, exists := s.store.Get(sessionID)
	if !exists {
		return nil, nil, stores.ErrSessionNotFound
	}
	if sess.Preview == nil || sess.Mapping == nil {
		return nil, nil, forecast.ErrNotReady
	}

	dateIdx, valueIdx := -1, -1
	for i, col := range sess.Preview.Columns {
		if col.Name == sess.Mapping.DateColumn {
			dateIdx = i
		}
		if col.Name == sess.Mapping.ValueColumn {
			valueIdx = i
		}
	}
	if dateIdx < 0 || valueIdx < 0 {
		return nil, nil, fmt.Errorf("mapped columns no longer exist in the dataset")
	}

	dates := make([]string, 0, len(sess.RawData))
	values := make([]float64, 0, len(sess.RawData))
	for _, row := range sess.RawData {
		if dateIdx >= len(row) || valueIdx >= len(row) {
			continue
		}
		v, err := ParseNumeric(row[valueIdx])
		if err != nil {
			continue // Backend validation reports gaps; skip unparseable cells here.
		}
		dates = append(dates, row[dateIdx])
		values = append(values, v)
	}

	if len(dates) == 0 {
		return nil, nil, fmt.Errorf("no usable rows in the mapped columns")
	}
	return dates, values, nil
}

func (s *ForecastService) snapshotRun(run *Run) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotRunLocked(run)
}

// snapshotRunLocked copies the run for handlers and SSE payloads. Caller
// holds s.mu.
func (s *ForecastService) snapshotRunLocked(run *Run) *Run {
	dup := &Run{
		State:     run.State,
		Stages:    forecast.CloneStages(run.Stages),
		Percent:   run.Percent,
		Warnings:  append([]string(nil), run.Warnings...),
		Error:     run.Error,
		ModelID:   run.ModelID,
		StartedAt: run.StartedAt,
	}
	if run.FinishedAt != nil {
		t := *run.FinishedAt
		dup.FinishedAt = &t
	}
	return dup
}

// userFacingError converts transport errors into messages fit for the UI.
func userFacingError(err error) string {
	var backendErr *prophet.BackendError
	if errors.As(err, &backendErr) {
		if backendErr.Message != "" {
			return fmt.Sprintf("The forecasting engine rejected the request: %s.", backendErr.Message)
		}
		return "The forecasting engine rejected the request."
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The forecast took too long and was stopped."
	}
	return fmt.Sprintf("Forecast failed: %s.", err.Error())
}

func firstOr(items []string, fallback string) string {
	if len(items) > 0 {
		return items[0]
	}
	return fallback
}
