package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ForesightHQ/foresight-go/internal/domain/forecast"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/registry"
)

func newComparisonService(t *testing.T) (*ComparisonService, *registry.Repository) {
	t.Helper()
	db, err := registry.NewDatabase(nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := registry.NewRepository(db)
	return NewComparisonService(repo, quietLogger(t)), repo
}

func registerModel(t *testing.T, repo *registry.Repository, sessionID, modelID string, metrics forecast.Metrics) {
	t.Helper()
	require.NoError(t, repo.Save(context.Background(), &registry.Model{
		ModelID:   modelID,
		SessionID: sessionID,
		Label:     modelID,
		Config:    forecast.DefaultConfig(),
		Metrics:   metrics,
		Horizon:   30,
		Growth:    "linear",
		CreatedAt: time.Now().UTC(),
	}))
}

func TestCompareRanksByErrorMetric(t *testing.T) {
	svc, repo := newComparisonService(t)
	sessionID := t.Name()
	registerModel(t, repo, sessionID, "worse", forecast.Metrics{MAPE: 8.5, Coverage: 0.80})
	registerModel(t, repo, sessionID, "better", forecast.Metrics{MAPE: 3.2, Coverage: 0.95})

	// MAPE is the default metric and lower is better.
	comparison, err := svc.Compare(context.Background(), sessionID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, MetricMAPE, comparison.Metric)
	assert.Equal(t, "better", comparison.Best)
	require.Len(t, comparison.Models, 2)
	assert.Equal(t, "better", comparison.Models[0].ModelID)
}

func TestCompareCoverageRanksHigherFirst(t *testing.T) {
	svc, repo := newComparisonService(t)
	sessionID := t.Name()
	registerModel(t, repo, sessionID, "narrow", forecast.Metrics{MAPE: 3.0, Coverage: 0.70})
	registerModel(t, repo, sessionID, "wide", forecast.Metrics{MAPE: 5.0, Coverage: 0.96})

	comparison, err := svc.Compare(context.Background(), sessionID, MetricCoverage, nil)
	require.NoError(t, err)
	assert.Equal(t, "wide", comparison.Best)
}

func TestCompareSubsetByID(t *testing.T) {
	svc, repo := newComparisonService(t)
	sessionID := t.Name()
	registerModel(t, repo, sessionID, "a", forecast.Metrics{MAPE: 8.5})
	registerModel(t, repo, sessionID, "b", forecast.Metrics{MAPE: 3.2})
	registerModel(t, repo, sessionID, "c", forecast.Metrics{MAPE: 1.1})

	// Only the named models compete, even when a better one exists outside
	// the subset.
	comparison, err := svc.Compare(context.Background(), sessionID, MetricMAPE, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, comparison.Models, 2)
	assert.Equal(t, "b", comparison.Best)

	_, err = svc.Compare(context.Background(), sessionID, MetricMAPE, []string{"a", "ghost"})
	assert.ErrorIs(t, err, registry.ErrModelNotFound)
}

func TestDetailReturnsFullModel(t *testing.T) {
	svc, repo := newComparisonService(t)
	sessionID := t.Name()
	registerModel(t, repo, sessionID, "model-a", forecast.Metrics{MAPE: 3.2, Coverage: 0.95})

	model, err := svc.Detail(context.Background(), sessionID, "model-a")
	require.NoError(t, err)
	assert.Equal(t, "model-a", model.ModelID)
	require.NotNil(t, model.Config)
	assert.InDelta(t, 3.2, model.Metrics.MAPE, 0.001)

	_, err = svc.Detail(context.Background(), sessionID, "ghost")
	assert.ErrorIs(t, err, registry.ErrModelNotFound)
}

func TestCompareRejectsUnknownMetric(t *testing.T) {
	svc, _ := newComparisonService(t)

	_, err := svc.Compare(context.Background(), t.Name(), "r_squared", nil)
	assert.Error(t, err)
}

func TestCompareEmptyRegistry(t *testing.T) {
	svc, _ := newComparisonService(t)

	comparison, err := svc.Compare(context.Background(), t.Name(), MetricMAE, nil)
	require.NoError(t, err)
	assert.Empty(t, comparison.Best)
	assert.Empty(t, comparison.Models)
}

func TestRenameAndRemove(t *testing.T) {
	svc, repo := newComparisonService(t)
	sessionID := t.Name()
	registerModel(t, repo, sessionID, "model-a", forecast.Metrics{MAPE: 3.0})

	require.NoError(t, svc.Rename(context.Background(), sessionID, "model-a", "holiday-aware"))
	models, err := svc.List(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "holiday-aware", models[0].Label)

	assert.ErrorIs(t, svc.Rename(context.Background(), sessionID, "ghost", "x"), registry.ErrModelNotFound)

	require.NoError(t, svc.Remove(context.Background(), sessionID, "model-a"))
	models, err = svc.List(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Empty(t, models)
}
