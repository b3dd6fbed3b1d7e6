package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/registry"
)

// Comparable metric names for ranking registered models.
const (
	MetricMAE      = "mae"
	MetricRMSE     = "rmse"
	MetricMAPE     = "mape"
	MetricCoverage = "coverage"
)

// Comparison ranks a session's registered models by one metric.
type Comparison struct {
	Metric string            `json:"metric"`
	Best   string            `json:"bestModelId,omitempty"`
	Models []*registry.Model `json:"models"`
}

// ComparisonService reads and ranks the session's model registry.
type ComparisonService struct {
	repo   *registry.Repository
	logger *logging.ChanneledLogger
}

// NewComparisonService creates a new comparison service
func NewComparisonService(repo *registry.Repository, logger *logging.ChanneledLogger) *ComparisonService {
	return &ComparisonService{repo: repo, logger: logger}
}

// List returns the session's registered models, newest first.
func (s *ComparisonService) List(ctx context.Context, sessionID string) ([]*registry.Model, error) {
	return s.repo.ListBySession(ctx, sessionID)
}

// Detail returns one registered model with its full config and metrics.
func (s *ComparisonService) Detail(ctx context.Context, sessionID, modelID string) (*registry.Model, error) {
	return s.repo.Get(ctx, sessionID, modelID)
}

// Compare ranks models by the given metric. Lower is better for error
// metrics; higher is better for coverage. An empty id list compares every
// model registered for the session.
func (s *ComparisonService) Compare(ctx context.Context, sessionID, metric string, modelIDs []string) (*Comparison, error) {
	if metric == "" {
		metric = MetricMAPE
	}
	if !validMetric(metric) {
		return nil, fmt.Errorf("unknown comparison metric %q", metric)
	}

	models, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if len(modelIDs) > 0 {
		wanted := make(map[string]bool, len(modelIDs))
		for _, id := range modelIDs {
			wanted[id] = true
		}
		subset := make([]*registry.Model, 0, len(wanted))
		for _, m := range models {
			if wanted[m.ModelID] {
				subset = append(subset, m)
				delete(wanted, m.ModelID)
			}
		}
		if len(wanted) > 0 {
			return nil, registry.ErrModelNotFound
		}
		models = subset
	}

	sort.SliceStable(models, func(i, j int) bool {
		a := metricValue(models[i], metric)
		b := metricValue(models[j], metric)
		if metric == MetricCoverage {
			return a > b
		}
		return a < b
	})

	comparison := &Comparison{Metric: metric, Models: models}
	if len(models) > 0 {
		comparison.Best = models[0].ModelID
	}
	return comparison, nil
}

// Rename updates a model's display label.
func (s *ComparisonService) Rename(ctx context.Context, sessionID, modelID, label string) error {
	return s.repo.UpdateLabel(ctx, sessionID, modelID, label)
}

// Remove deletes one model from the session's registry.
func (s *ComparisonService) Remove(ctx context.Context, sessionID, modelID string) error {
	if err := s.repo.Delete(ctx, sessionID, modelID); err != nil {
		return err
	}
	s.logger.Registry().Info("Model removed from registry",
		"sessionId", logging.SanitizeSessionID(sessionID), "modelId", modelID)
	return nil
}

func validMetric(metric string) bool {
	switch metric {
	case MetricMAE, MetricRMSE, MetricMAPE, MetricCoverage:
		return true
	}
	return false
}

func metricValue(m *registry.Model, metric string) float64 {
	switch metric {
	case MetricMAE:
		return m.Metrics.MAE
	case MetricRMSE:
		return m.Metrics.RMSE
	case MetricCoverage:
		return m.Metrics.Coverage
	default:
		return m.Metrics.MAPE
	}
}
