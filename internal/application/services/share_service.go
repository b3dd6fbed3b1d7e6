package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ForesightHQ/foresight-go/internal/domain/forecast"
	"github.com/ForesightHQ/foresight-go/internal/domain/session"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/stores"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/email"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/registry"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/security"
)

// SharedView is what a share-link visitor sees: forecast output plus the
// annotations marked shareable. The uploaded dataset is never included.
type SharedView struct {
	ModelLabel  string               `json:"modelLabel"`
	Results     *forecast.Results    `json:"results"`
	Config      *forecast.Config     `json:"config"`
	Annotations []session.Annotation `json:"annotations"`
	ExpiresAt   time.Time            `json:"expiresAt"`
}

// ShareService issues share links for forecast results and resolves them
// for visitors.
type ShareService struct {
	store        *stores.SessionsStore
	registryRepo *registry.Repository
	emailService email.Service
	jwtSecret    string
	tokenTTL     time.Duration
	logger       *logging.ChanneledLogger
}

// NewShareService creates a new share service. emailService may be nil when
// email sharing is disabled.
func NewShareService(store *stores.SessionsStore, registryRepo *registry.Repository, emailService email.Service, jwtSecret string, tokenTTL time.Duration, logger *logging.ChanneledLogger) *ShareService {
	return &ShareService{
		store:        store,
		registryRepo: registryRepo,
		emailService: emailService,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
		logger:       logger,
	}
}

// CreateLink mints a share token for one of the session's models.
func (s *ShareService) CreateLink(ctx context.Context, sessionID, modelID string) (string, time.Time, error) {
	if _, err := s.registryRepo.Get(ctx, sessionID, modelID); err != nil {
		return "", time.Time{}, err
	}

	token, err := security.GenerateShareToken(sessionID, modelID, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign share token: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.tokenTTL)
	s.logger.Session().Info("Share link created",
		"sessionId", logging.SanitizeSessionID(sessionID), "modelId", modelID, "expiresAt", expiresAt)
	return token, expiresAt, nil
}

// Resolve validates a share token and assembles the shared view. Fails when
// the session has expired or its results were cleared since issuance.
func (s *ShareService) Resolve(ctx context.Context, token string) (*SharedView, error) {
	claims, err := security.ParseShareToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	sess, exists := s.store.Peek(claims.SessionID)
	if !exists {
		return nil, fmt.Errorf("the shared session no longer exists")
	}
	if sess.Results == nil {
		return nil, fmt.Errorf("the shared forecast is no longer available")
	}

	model, err := s.registryRepo.Get(ctx, claims.SessionID, claims.ModelID)
	if err != nil {
		return nil, fmt.Errorf("the shared model is no longer available")
	}

	shared := make([]session.Annotation, 0)
	for _, ann := range sess.Annotations {
		if ann.IncludeInShare {
			shared = append(shared, ann)
		}
	}

	return &SharedView{
		ModelLabel:  model.Label,
		Results:     sess.Results,
		Config:      model.Config,
		Annotations: shared,
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}

// SendEmail mints a share link and emails it to the recipient.
func (s *ShareService) SendEmail(ctx context.Context, sessionID, modelID, toEmail, note, baseURL string) error {
	if s.emailService == nil {
		return fmt.Errorf("email sharing is not configured")
	}

	model, err := s.registryRepo.Get(ctx, sessionID, modelID)
	if err != nil {
		return err
	}

	token, _, err := s.CreateLink(ctx, sessionID, modelID)
	if err != nil {
		return err
	}

	shareURL := fmt.Sprintf("%s/shared/%s", baseURL, token)
	expiresHours := int(s.tokenTTL.Hours())

	if err := s.emailService.SendShareReportEmail(toEmail, shareURL, model.Label, note, model.Horizon, expiresHours); err != nil {
		s.logger.LogError(logging.ChannelEmail, "send_share_email", err, sessionID)
		return err
	}

	s.logger.Email().Info("Share email sent",
		"sessionId", logging.SanitizeSessionID(sessionID), "modelId", modelID)
	return nil
}
