// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"

	"github.com/ForesightHQ/foresight-go/internal/application/services"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/manager"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/email"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/messaging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/performance"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/prophet"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/registry"
	"github.com/ForesightHQ/foresight-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application services
	SessionService    *services.SessionService
	UploadService     *services.UploadService
	ForecastService   *services.ForecastService
	ProcessingService *services.ProcessingService
	ComparisonService *services.ComparisonService
	AnnotationService *services.AnnotationService
	ShareService      *services.ShareService

	// Infrastructure
	Logger         *logging.ChanneledLogger
	PerfTracker    *performance.Tracker
	StoreManager   *manager.Manager
	ProphetClient  *prophet.Client
	RegistryDB     *registry.Database
	RegistryRepo   *registry.Repository
	SSEBroadcaster *messaging.SSEBroadcaster
	OpsBroadcaster *messaging.OpsBroadcaster
	EmailService   email.Service
}

// NewContainer creates and wires all singleton services
func NewContainer() (*Container, error) {
	logger, err := logging.NewChanneledLogger(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	perfTracker := performance.NewTracker(nil)
	storeManager := manager.NewManager(config.MaxSessions, logger)
	sessionsStore := storeManager.Sessions()

	registryDB, err := registry.NewDatabase(&registry.Config{
		URL:       config.RegistryDBURL,
		AuthToken: config.RegistryDBToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open model registry: %w", err)
	}
	registryRepo := registry.NewRepository(registryDB)
	logger.Registry().Info("Model registry ready", "backend", registryDB.ConnectionInfo())

	prophetClient := prophet.NewClient(config.ProphetAPIURL, config.ProphetTimeout, logger)
	sseBroadcaster := messaging.NewSSEBroadcaster(config.MaxSSEConnections, logger)
	opsBroadcaster := messaging.NewOpsBroadcaster(storeManager, sseBroadcaster, perfTracker, config.OpsSnapshotInterval)

	var emailService email.Service
	if config.EmailEnabled {
		emailService, err = email.NewService()
		if err != nil {
			logger.System().Warn("Email sharing disabled", "reason", err.Error())
			emailService = nil
		}
	}

	return &Container{
		SessionService:    services.NewSessionService(sessionsStore, registryRepo, config.MaxSessionAge, logger),
		UploadService:     services.NewUploadService(sessionsStore, config.PreviewRowLimit, logger, perfTracker),
		ForecastService:   services.NewForecastService(sessionsStore, prophetClient, registryRepo, sseBroadcaster, logger, perfTracker),
		ProcessingService: services.NewProcessingService(sessionsStore, prophetClient, config.PreviewRowLimit, logger, perfTracker),
		ComparisonService: services.NewComparisonService(registryRepo, logger),
		AnnotationService: services.NewAnnotationService(sessionsStore),
		ShareService:      services.NewShareService(sessionsStore, registryRepo, emailService, config.JWTSecret, config.ShareTokenTTL, logger),

		Logger:         logger,
		PerfTracker:    perfTracker,
		StoreManager:   storeManager,
		ProphetClient:  prophetClient,
		RegistryDB:     registryDB,
		RegistryRepo:   registryRepo,
		SSEBroadcaster: sseBroadcaster,
		OpsBroadcaster: opsBroadcaster,
		EmailService:   emailService,
	}, nil
}

// Close releases container-held resources.
func (c *Container) Close() error {
	if c.RegistryDB != nil {
		return c.RegistryDB.Close()
	}
	return nil
}
