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
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/registry"
)

type sentEmail struct {
	to       string
	shareURL string
	label    string
	note     string
}

// fakeEmailService records what would have been sent.
type fakeEmailService struct {
	sent []sentEmail
	err  error
}

func (f *fakeEmailService) SendShareReportEmail(toEmail, shareURL, modelLabel, senderNote string, horizon, expiresHours int) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to: toEmail, shareURL: shareURL, label: modelLabel, note: senderNote})
	return nil
}

func newShareService(t *testing.T, emailSvc *fakeEmailService) (*ShareService, *stores.SessionsStore, *registry.Repository) {
	t.Helper()
	db, err := registry.NewDatabase(nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := stores.NewSessionsStore(100, nil)
	repo := registry.NewRepository(db)
	var svc *ShareService
	if emailSvc != nil {
		svc = NewShareService(store, repo, emailSvc, "share-test-secret", time.Hour, quietLogger(t))
	} else {
		svc = NewShareService(store, repo, nil, "share-test-secret", time.Hour, quietLogger(t))
	}
	return svc, store, repo
}

// seedSharedModel builds a session with results plus a registered model.
func seedSharedModel(t *testing.T, store *stores.SessionsStore, repo *registry.Repository, sessionID, modelID string) {
	t.Helper()
	sess := seedSession(t, store, sessionID)
	sess.Results = &forecast.Results{
		Forecast:    []forecast.SeriesPoint{{DS: "2024-02-01", Yhat: 12.5}},
		GeneratedAt: time.Now().UTC(),
	}
	sess.Annotations = []session.Annotation{
		{ID: "a1", Type: session.AnnotationInsight, Text: "public note", IncludeInShare: true},
		{ID: "a2", Type: session.AnnotationConcern, Text: "private note", IncludeInShare: false},
	}

	require.NoError(t, repo.Save(context.Background(), &registry.Model{
		ModelID:   modelID,
		SessionID: sessionID,
		Label:     "baseline",
		Config:    forecast.DefaultConfig(),
		Horizon:   30,
		Growth:    "linear",
		CreatedAt: time.Now().UTC(),
	}))
}

func TestShareLinkRoundtrip(t *testing.T) {
	svc, store, repo := newShareService(t, nil)
	sessionID := t.Name()
	seedSharedModel(t, store, repo, sessionID, "model-a")

	token, expiresAt, err := svc.CreateLink(context.Background(), sessionID, "model-a")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	view, err := svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "baseline", view.ModelLabel)
	require.NotNil(t, view.Results)
	assert.Equal(t, "2024-02-01", view.Results.Forecast[0].DS)

	// Only annotations opted into sharing are visible to visitors.
	require.Len(t, view.Annotations, 1)
	assert.Equal(t, "public note", view.Annotations[0].Text)
}

func TestShareLinkRequiresRegisteredModel(t *testing.T) {
	svc, store, _ := newShareService(t, nil)
	seedSession(t, store, t.Name())

	_, _, err := svc.CreateLink(context.Background(), t.Name(), "never-registered")
	assert.ErrorIs(t, err, registry.ErrModelNotFound)
}

func TestResolveFailsAfterSessionGone(t *testing.T) {
	svc, store, repo := newShareService(t, nil)
	sessionID := t.Name()
	seedSharedModel(t, store, repo, sessionID, "model-a")

	token, _, err := svc.CreateLink(context.Background(), sessionID, "model-a")
	require.NoError(t, err)

	store.Delete(sessionID)
	_, err = svc.Resolve(context.Background(), token)
	assert.Error(t, err, "a valid token is not enough once the session expired")
}

func TestResolveRejectsForgedToken(t *testing.T) {
	svc, _, _ := newShareService(t, nil)

	_, err := svc.Resolve(context.Background(), "not-a-real-token")
	assert.Error(t, err)
}

func TestSendEmailIncludesShareLink(t *testing.T) {
	emailSvc := &fakeEmailService{}
	svc, store, repo := newShareService(t, emailSvc)
	sessionID := t.Name()
	seedSharedModel(t, store, repo, sessionID, "model-a")

	err := svc.SendEmail(context.Background(), sessionID, "model-a", "colleague@example.com", "have a look", "https://foresight.example.com")
	require.NoError(t, err)

	require.Len(t, emailSvc.sent, 1)
	assert.Equal(t, "colleague@example.com", emailSvc.sent[0].to)
	assert.Contains(t, emailSvc.sent[0].shareURL, "https://foresight.example.com/shared/")
	assert.Equal(t, "baseline", emailSvc.sent[0].label)
}

func TestSendEmailWhenDisabled(t *testing.T) {
	svc, store, repo := newShareService(t, nil)
	sessionID := t.Name()
	seedSharedModel(t, store, repo, sessionID, "model-a")

	err := svc.SendEmail(context.Background(), sessionID, "model-a", "x@example.com", "", "https://foresight.example.com")
	assert.Error(t, err)
}
