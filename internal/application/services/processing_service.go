package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ForesightHQ/foresight-go/internal/domain/dataset"
	"github.com/ForesightHQ/foresight-go/internal/domain/session"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/stores"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/performance"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/prophet"
)

// ProcessingService applies cleaning and transformation steps to the
// session's dataset via the backend, keeping an append-only history so
// changes can be reverted.
type ProcessingService struct {
	store           *stores.SessionsStore
	client          *prophet.Client
	previewRowLimit int
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewProcessingService creates a new processing service
func NewProcessingService(store *stores.SessionsStore, client *prophet.Client, previewRowLimit int, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ProcessingService {
	return &ProcessingService{
		store:           store,
		client:          client,
		previewRowLimit: previewRowLimit,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// ApplyStep runs one cleaning or transformation operation and records it in
// the session history. The preview is replaced, never mutated in place.
func (s *ProcessingService) ApplyStep(ctx context.Context, sessionID string, stepType session.StepType, operation string, options map[string]any) (*dataset.Preview, map[string]any, error) {
	opName := "processing:clean"
	if stepType == session.StepTransformation {
		opName = "processing:transform"
	}
	marker := s.perfTracker.StartOperation(opName, sessionID)
	defer s.perfTracker.CompleteOperation(marker)

	sess, exists := s.store.Get(sessionID)
	if !exists {
		return nil, nil, stores.ErrSessionNotFound
	}
	if sess.Preview == nil {
		return nil, nil, fmt.Errorf("no data uploaded")
	}

	columnNames := make([]string, len(sess.Preview.Columns))
	for i, col := range sess.Preview.Columns {
		columnNames[i] = col.Name
	}

	req := &prophet.ProcessRequest{
		Columns:   columnNames,
		Rows:      sess.RawData,
		Operation: operation,
		Options:   options,
	}

	var resp *prophet.ProcessResponse
	var err error
	if stepType == session.StepCleaning {
		resp, err = s.client.Clean(ctx, req)
	} else {
		resp, err = s.client.Transform(ctx, req)
	}
	if err != nil {
		marker.SetError(err)
		s.logger.LogError(logging.ChannelProcessing, operation, err, sessionID)
		return nil, nil, err
	}

	var newPreview *dataset.Preview
	err = s.store.Update(sessionID, func(sess *session.Session) error {
		columns := inferColumnTypes(columnNames, resp.Rows)
		newPreview = &dataset.Preview{
			Columns:   columns,
			Rows:      limitRows(resp.Rows, s.previewRowLimit),
			TotalRows: len(resp.Rows),
			Quality:   scanQuality(columns, resp.Rows),
			FileInfo:  sess.Preview.FileInfo,
			CreatedAt: time.Now().UTC(),
		}

		sess.RawData = resp.Rows
		sess.Preview = newPreview
		sess.History = append(sess.History, session.ProcessingStep{
			Type:      stepType,
			Config:    mergeOperation(operation, options),
			Report:    resp.Report,
			AppliedAt: time.Now().UTC(),
		})
		// Results computed on the previous dataset are stale now.
		sess.Results = nil
		return nil
	})
	if err != nil {
		marker.SetError(err)
		return nil, nil, err
	}

	marker.AddMetadata("operation", operation)
	s.logger.Processing().Info("Processing step applied",
		"sessionId", logging.SanitizeSessionID(sessionID),
		"type", string(stepType), "operation", operation, "rows", newPreview.TotalRows)

	return newPreview, resp.Report, nil
}

// History returns the session's applied steps in order.
func (s *ProcessingService) History(sessionID string) ([]session.ProcessingStep, error) {
	sess, exists := s.store.Get(sessionID)
	if !exists {
		return nil, stores.ErrSessionNotFound
	}
	history := make([]session.ProcessingStep, len(sess.History))
	copy(history, sess.History)
	return history, nil
}

// RevertAll restores the original uploaded dataset and clears the history.
func (s *ProcessingService) RevertAll(ctx context.Context, sessionID string) (*dataset.Preview, error) {
	marker := s.perfTracker.StartOperation("processing:revert", sessionID)
	defer s.perfTracker.CompleteOperation(marker)

	var restored *dataset.Preview
	err := s.store.Update(sessionID, func(sess *session.Session) error {
		if sess.OriginalPreview == nil || sess.OriginalRaw == nil {
			return fmt.Errorf("no original dataset to revert to")
		}

		restored = sess.OriginalPreview.Clone()
		sess.Preview = restored
		sess.RawData = cloneRows(sess.OriginalRaw)
		sess.History = sess.History[:0]
		sess.Results = nil
		return nil
	})
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	s.logger.Processing().Info("All processing steps reverted",
		"sessionId", logging.SanitizeSessionID(sessionID))
	return restored, nil
}

// RemoveStep drops one history entry by index and replays the remaining
// steps against the original dataset.
func (s *ProcessingService) RemoveStep(ctx context.Context, sessionID string, index int) (*dataset.Preview, error) {
	sess, exists := s.store.Get(sessionID)
	if !exists {
		return nil, stores.ErrSessionNotFound
	}
	if index < 0 || index >= len(sess.History) {
		return nil, fmt.Errorf("no processing step at index %d", index)
	}

	remaining := make([]session.ProcessingStep, 0, len(sess.History)-1)
	for i, step := range sess.History {
		if i != index {
			remaining = append(remaining, step)
		}
	}

	// Replay from the original upload so the remaining steps compose cleanly.
	preview, err := s.RevertAll(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for _, step := range remaining {
		operation, options := splitOperation(step.Config)
		preview, _, err = s.ApplyStep(ctx, sessionID, step.Type, operation, options)
		if err != nil {
			return nil, fmt.Errorf("failed to replay step %q: %w", operation, err)
		}
	}
	return preview, nil
}

func mergeOperation(operation string, options map[string]any) map[string]any {
	config := map[string]any{"operation": operation}
	for k, v := range options {
		config[k] = v
	}
	return config
}

func splitOperation(config map[string]any) (string, map[string]any) {
	operation, _ := config["operation"].(string)
	options := make(map[string]any, len(config))
	for k, v := range config {
		if k != "operation" {
			options[k] = v
		}
	}
	return operation, options
}

