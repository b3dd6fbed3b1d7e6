package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ForesightHQ/foresight-go/internal/domain/session"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/stores"
)

func newAnnotationService(t *testing.T) *AnnotationService {
	store := stores.NewSessionsStore(100, nil)
	require.NoError(t, store.Create(session.New("sess-1")))
	return NewAnnotationService(store)
}

func TestAnnotationLifecycle(t *testing.T) {
	svc := newAnnotationService(t)

	first, err := svc.Add("sess-1", session.AnnotationInsight, "Sales spike every December", true, false)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := svc.Add("sess-1", session.AnnotationConcern, "Q1 data is partial", false, true)
	require.NoError(t, err)

	list, err := svc.List("sess-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID, "creation order preserved")

	updated, err := svc.Update("sess-1", second.ID, session.AnnotationConcern, "Q1 data is partial, pending restatement", true, true)
	require.NoError(t, err)
	assert.True(t, updated.IncludeInReport)

	require.NoError(t, svc.Remove("sess-1", first.ID))
	list, err = svc.List("sess-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
}

func TestAnnotationValidation(t *testing.T) {
	svc := newAnnotationService(t)

	_, err := svc.Add("sess-1", session.AnnotationInsight, "", true, true)
	assert.Error(t, err, "empty text rejected")

	_, err = svc.Add("sess-1", session.AnnotationType("rant"), "text", true, true)
	assert.Error(t, err, "unknown type rejected")

	_, err = svc.Add("missing", session.AnnotationInsight, "text", true, true)
	assert.ErrorIs(t, err, stores.ErrSessionNotFound)

	_, err = svc.Update("sess-1", "no-such-id", session.AnnotationInsight, "text", true, true)
	assert.Error(t, err)

	assert.Error(t, svc.Remove("sess-1", "no-such-id"))
}
