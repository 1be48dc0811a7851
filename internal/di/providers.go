package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/stewardhq/steward/internal/admin"
	"github.com/stewardhq/steward/internal/admins"
	"github.com/stewardhq/steward/internal/app"
	"github.com/stewardhq/steward/internal/config"
	"github.com/stewardhq/steward/internal/database"
	"github.com/stewardhq/steward/internal/events"
	"github.com/stewardhq/steward/internal/health"
	"github.com/stewardhq/steward/internal/http/handler"
	"github.com/stewardhq/steward/internal/http/middleware"
	"github.com/stewardhq/steward/internal/http/render"
	"github.com/stewardhq/steward/internal/http/router"
	"github.com/stewardhq/steward/internal/observability"
	"github.com/stewardhq/steward/internal/repository"
	"github.com/stewardhq/steward/internal/security"
	"github.com/stewardhq/steward/internal/service"
)

const (
	capabilityCacheTTL = 5 * time.Minute
	idempotencyTTL     = 24 * time.Hour
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewOperatorRepository,
	repository.NewRoleRepository,
	repository.NewSessionRepository,
	repository.NewOAuthRepository,
	repository.NewLocalCredentialRepository,
	repository.NewProductRepository,
	repository.NewRevisionRepository,
	repository.NewACLGrantRepository,
)

var SecuritySet = wire.NewSet(
	provideJWTManager,
	provideCookieManager,
)

var AdminSet = wire.NewSet(
	provideRegistry,
	provideRenderer,
)

var ServiceSet = wire.NewSet(
	service.NewCapabilityService,
	service.NewOperatorService,
	wire.Bind(new(service.OperatorServiceInterface), new(*service.OperatorService)),
	provideCapabilityResolver,
	service.NewCapabilityAuthorizer,
	wire.Bind(new(admin.Authorizer), new(*service.CapabilityAuthorizer)),
	service.NewACLService,
	service.NewRevisionService,
	provideRevisionPruner,
	service.NewGoogleOAuthProvider,
	wire.Bind(new(service.OAuthProvider), new(*service.GoogleOAuthProvider)),
	service.NewOAuthService,
	provideTokenService,
	provideSessionService,
	provideAuthAbuseGuard,
	service.NewAuthService,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	service.NewCatalogService,
	wire.Bind(new(service.CatalogService), new(*service.CatalogServiceImpl)),
	service.NewExporter,
	provideExportStorage,
	provideListCacheStore,
	provideIdempotencyStore,
	providePublisher,
)

var HTTPSet = wire.NewSet(
	provideAuthHandler,
	provideLoginHandler,
	handler.NewOperatorHandler,
	handler.NewRoleHandler,
	handler.NewProductHandler,
	provideCRUDHandler,
	provideGlobalRateLimiter,
	provideAuthRateLimiter,
	provideAdminRateLimiter,
	provideIdempotencyFactory,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

type MigrationRunner struct {
	cfg *config.Config
	db  *gorm.DB
}

func NewMigrationRunner(cfg *config.Config, db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{cfg: cfg, db: db}
}

func (m *MigrationRunner) Run() error {
	if err := database.Migrate(m.db); err != nil {
		return err
	}
	if err := database.Seed(m.db, m.cfg.BootstrapMasterEmail); err != nil {
		return err
	}
	fmt.Println("migration complete")
	return nil
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if err := database.Seed(db, cfg.BootstrapMasterEmail); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if !cfg.RateLimitRedisEnabled && !cfg.AdminListCacheEnabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	observability.InstrumentRedisClient(client, logger)
	return client
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)
}

func provideRegistry(cfg *config.Config, db *gorm.DB) (*admin.Registry, error) {
	return admins.BuildRegistry(db, cfg.AdminManifestPath)
}

func provideRenderer(cfg *config.Config, logger *slog.Logger) (*render.Renderer, error) {
	rd, err := render.New(logger, cfg.Debug)
	if err != nil {
		return nil, err
	}
	if cfg.AdminTemplateOverrideDir != "" {
		if err := rd.LoadOverrides(cfg.AdminTemplateOverrideDir); err != nil {
			return nil, err
		}
	}
	return rd, nil
}

func provideCapabilityResolver(cfg *config.Config, operatorSvc service.OperatorServiceInterface, redisClient redis.UniversalClient) *service.CachedCapabilityResolver {
	var store service.CapabilityCacheStore
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		store = service.NewRedisCapabilityCacheStore(redisClient, cfg.AdminListCachePrefix+":caps")
	} else {
		store = service.NewInMemoryCapabilityCacheStore()
	}
	return service.NewCachedCapabilityResolver(store, operatorSvc, capabilityCacheTTL)
}

func provideRevisionPruner(repo repository.RevisionRepository, registry *admin.Registry, logger *slog.Logger, cfg *config.Config) *service.RevisionPruner {
	return service.NewRevisionPruner(repo, registry, logger, cfg.RevisionPruneSchedule, cfg.RevisionRetention)
}

func provideTokenService(cfg *config.Config, jwt *security.JWTManager, sessionRepo repository.SessionRepository) *service.TokenService {
	return service.NewTokenService(jwt, sessionRepo, cfg.RefreshTokenPepper, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
}

func provideSessionService(cfg *config.Config, sessionRepo repository.SessionRepository) *service.SessionService {
	return service.NewSessionService(sessionRepo, cfg.RefreshTokenPepper)
}

func provideAuthAbuseGuard(cfg *config.Config, redisClient redis.UniversalClient) service.AuthAbuseGuard {
	policy := service.AuthAbusePolicy{
		FreeAttempts: cfg.AuthAbuseFreeAttempts,
		BaseDelay:    cfg.AuthAbuseBaseDelay,
		MaxDelay:     cfg.AuthAbuseMaxDelay,
		ResetWindow:  cfg.AuthAbuseResetWindow,
	}
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		return service.NewRedisAuthAbuseGuard(redisClient, cfg.RateLimitRedisPrefix+":abuse", policy)
	}
	return service.NewInMemoryAuthAbuseGuard(policy)
}

func provideExportStorage(cfg *config.Config) (service.ExportStorage, error) {
	if !cfg.ExportArchiveMode {
		return nil, nil
	}
	return service.NewMinIOExportStorage(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL)
}

func provideListCacheStore(cfg *config.Config, redisClient redis.UniversalClient) service.AdminListCacheStore {
	if !cfg.AdminListCacheEnabled {
		return service.NewNoopAdminListCacheStore()
	}
	if redisClient != nil {
		return service.NewRedisAdminListCacheStore(redisClient, cfg.AdminListCachePrefix)
	}
	return service.NewInMemoryAdminListCacheStore()
}

func provideIdempotencyStore(db *gorm.DB) service.IdempotencyStore {
	return service.NewDBIdempotencyStore(db)
}

func providePublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if !cfg.KafkaEnabled {
		return events.NewNoopPublisher()
	}
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
}

func provideAuthHandler(authSvc service.AuthServiceInterface, cookieMgr *security.CookieManager, cfg *config.Config) *handler.AuthHandler {
	return handler.NewAuthHandler(authSvc, cookieMgr, cfg.StateSigningSecret, cfg.JWTRefreshTTL)
}

func provideLoginHandler(authSvc service.AuthServiceInterface, cookieMgr *security.CookieManager, renderer *render.Renderer, cfg *config.Config) *handler.LoginHandler {
	return handler.NewLoginHandler(authSvc, cookieMgr, renderer, cfg.JWTRefreshTTL, cfg.AuthLocalEnabled, cfg.AuthGoogleEnabled)
}

func provideCRUDHandler(
	registry *admin.Registry,
	authz admin.Authorizer,
	renderer *render.Renderer,
	revisions *service.RevisionService,
	acl *service.ACLService,
	exporter *service.Exporter,
	exportStorage service.ExportStorage,
	listCache service.AdminListCacheStore,
	publisher events.Publisher,
	operatorRepo repository.OperatorRepository,
	roleRepo repository.RoleRepository,
	logger *slog.Logger,
	cfg *config.Config,
) *handler.CRUDHandler {
	return handler.NewCRUDHandler(handler.CRUDHandlerConfig{
		Registry:        registry,
		Authorizer:      authz,
		Renderer:        renderer,
		Revisions:       revisions,
		ACL:             acl,
		Exporter:        exporter,
		ExportStorage:   exportStorage,
		ListCache:       listCache,
		Publisher:       publisher,
		OperatorRepo:    operatorRepo,
		RoleRepo:        roleRepo,
		Logger:          logger,
		Debug:           cfg.Debug,
		ListCacheTTL:    cfg.AdminListCacheTTL,
		ArchiveRowLimit: cfg.ExportArchiveRowLimit,
	})
}

func provideGlobalRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.GlobalRateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":api")
		return middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.APIRateLimitPerMin,
			time.Minute,
			middleware.FailOpen,
			"api",
		).Middleware()
	}
	return middleware.NewRateLimiter(cfg.APIRateLimitPerMin, time.Minute).Middleware()
}

func provideAuthRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.AuthRateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":auth")
		return middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.AuthRateLimitPerMin,
			time.Minute,
			middleware.FailClosed,
			"auth",
		).Middleware()
	}
	return middleware.NewRateLimiter(cfg.AuthRateLimitPerMin, time.Minute).Middleware()
}

// provideAdminRateLimiter keys console traffic by operator subject, so one
// noisy session cannot starve operators behind the same NAT.
func provideAdminRateLimiter(cfg *config.Config, redisClient redis.UniversalClient, jwtMgr *security.JWTManager) router.AdminRateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":admin")
		return middleware.NewDistributedRateLimiterWithKey(
			redisLimiter,
			cfg.AdminRateLimitPerMin,
			time.Minute,
			middleware.FailOpen,
			"admin",
			middleware.SubjectOrIPKeyFunc(jwtMgr),
		).Middleware()
	}
	return middleware.NewDistributedRateLimiterWithKey(
		middleware.NewLocalFixedWindowLimiter(),
		cfg.AdminRateLimitPerMin,
		time.Minute,
		middleware.FailOpen,
		"admin",
		middleware.SubjectOrIPKeyFunc(jwtMgr),
	).Middleware()
}

func provideIdempotencyFactory(store service.IdempotencyStore) router.IdempotencyMiddlewareFactory {
	mw := middleware.NewIdempotencyMiddleware(store, idempotencyTTL)
	return mw.Middleware
}

func provideRouterDependencies(
	loginHandler *handler.LoginHandler,
	authHandler *handler.AuthHandler,
	operatorHandler *handler.OperatorHandler,
	roleHandler *handler.RoleHandler,
	productHandler *handler.ProductHandler,
	crudHandler *handler.CRUDHandler,
	jwt *security.JWTManager,
	authz admin.Authorizer,
	globalRateLimiter router.GlobalRateLimiterFunc,
	authRateLimiter router.AuthRateLimiterFunc,
	adminRateLimiter router.AdminRateLimiterFunc,
	idempotency router.IdempotencyMiddlewareFactory,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		LoginHandler:      loginHandler,
		AuthHandler:       authHandler,
		OperatorHandler:   operatorHandler,
		RoleHandler:       roleHandler,
		ProductHandler:    productHandler,
		CRUDHandler:       crudHandler,
		JWTManager:        jwt,
		Authorizer:        authz,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		AuthRateLimitRPM:  cfg.AuthRateLimitPerMin,
		AdminRateLimitRPM: cfg.AdminRateLimitPerMin,
		APIRateLimitRPM:   cfg.APIRateLimitPerMin,
		GlobalRateLimiter: globalRateLimiter,
		AuthRateLimiter:   authRateLimiter,
		AdminRateLimiter:  adminRateLimiter,
		Idempotency:       idempotency,
		Readiness:         readiness,
		EnableOTelHTTP:    cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	checkers := make([]health.Checker, 0, 2)
	if c := health.NewDBChecker(db); c != nil {
		checkers = append(checkers, c)
	}
	if cfg.RateLimitRedisEnabled {
		if c := health.NewRedisChecker(redisClient); c != nil {
			checkers = append(checkers, c)
		}
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, checkers...)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
	pruner *service.RevisionPruner,
	publisher events.Publisher,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, redisClient, readiness, pruner, publisher)
}
