package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/stewardhq/steward/internal/config"
	"github.com/stewardhq/steward/internal/events"
	"github.com/stewardhq/steward/internal/health"
	"github.com/stewardhq/steward/internal/observability"
	"github.com/stewardhq/steward/internal/service"
)

// App bundles everything the api binary runs and shuts down.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	DB            *gorm.DB
	Redis         redis.UniversalClient
	Readiness     *health.ProbeRunner
	Pruner        *service.RevisionPruner
	Publisher     events.Publisher

	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
	pruner *service.RevisionPruner,
	publisher events.Publisher,
) *App {
	return &App{
		Config:        cfg,
		Logger:        logger,
		Server:        server,
		Observability: runtime,
		DB:            db,
		Redis:         redisClient,
		Readiness:     readiness,
		Pruner:        pruner,
		Publisher:     publisher,

		ShutdownTimeout:              20 * time.Second,
		ShutdownHTTPDrainTimeout:     10 * time.Second,
		ShutdownObservabilityTimeout: 8 * time.Second,
	}
}

// StartBackground launches the revision pruner schedule. The HTTP server is
// started by the caller so it owns the listen error.
func (a *App) StartBackground() error {
	if a.Pruner != nil {
		if err := a.Pruner.Start(); err != nil {
			return err
		}
	}
	return nil
}

// StopBackground halts the pruner and flushes the event publisher. Safe to
// call after the HTTP server has drained.
func (a *App) StopBackground() {
	if a.Pruner != nil {
		a.Pruner.Stop()
	}
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Logger.Error("failed to close event publisher", "error", err)
		}
	}
}
