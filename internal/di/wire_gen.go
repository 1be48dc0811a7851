// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"github.com/stewardhq/steward/internal/app"
	"github.com/stewardhq/steward/internal/config"
	"github.com/stewardhq/steward/internal/http/handler"
	"github.com/stewardhq/steward/internal/http/router"
	"github.com/stewardhq/steward/internal/repository"
	"github.com/stewardhq/steward/internal/service"
)

// Injectors from wire.go:

func InitializeApp() (*app.App, error) {
	configConfig, err := config.Load()
	if err != nil {
		return nil, err
	}
	runtime, err := provideObservabilityRuntime(configConfig)
	if err != nil {
		return nil, err
	}
	logger := provideAppLogger(configConfig, runtime)
	googleOAuthProvider := service.NewGoogleOAuthProvider(configConfig)
	db, err := provideRuntimeDB(configConfig)
	if err != nil {
		return nil, err
	}
	operatorRepository := repository.NewOperatorRepository(db)
	oAuthRepository := repository.NewOAuthRepository(db)
	roleRepository := repository.NewRoleRepository(db)
	oAuthService := service.NewOAuthService(googleOAuthProvider, operatorRepository, oAuthRepository, roleRepository)
	jwtManager := provideJWTManager(configConfig)
	sessionRepository := repository.NewSessionRepository(db)
	tokenService := provideTokenService(configConfig, jwtManager, sessionRepository)
	capabilityService := service.NewCapabilityService()
	operatorService := service.NewOperatorService(operatorRepository, capabilityService)
	localCredentialRepository := repository.NewLocalCredentialRepository(db)
	universalClient := provideRedisClient(configConfig, logger)
	cachedCapabilityResolver := provideCapabilityResolver(configConfig, operatorService, universalClient)
	authAbuseGuard := provideAuthAbuseGuard(configConfig, universalClient)
	authService := service.NewAuthService(configConfig, oAuthService, tokenService, operatorService, operatorRepository, roleRepository, localCredentialRepository, cachedCapabilityResolver, authAbuseGuard)
	cookieManager := provideCookieManager(configConfig)
	renderer, err := provideRenderer(configConfig, logger)
	if err != nil {
		return nil, err
	}
	loginHandler := provideLoginHandler(authService, cookieManager, renderer, configConfig)
	authHandler := provideAuthHandler(authService, cookieManager, configConfig)
	sessionService := provideSessionService(configConfig, sessionRepository)
	operatorHandler := handler.NewOperatorHandler(operatorService, sessionService)
	registry, err := provideRegistry(configConfig, db)
	if err != nil {
		return nil, err
	}
	roleHandler := handler.NewRoleHandler(roleRepository, operatorRepository, registry)
	productRepository := repository.NewProductRepository(db)
	catalogServiceImpl := service.NewCatalogService(productRepository)
	productHandler := handler.NewProductHandler(catalogServiceImpl)
	aclGrantRepository := repository.NewACLGrantRepository(db)
	capabilityAuthorizer := service.NewCapabilityAuthorizer(cachedCapabilityResolver, capabilityService, aclGrantRepository)
	revisionRepository := repository.NewRevisionRepository(db)
	revisionService := service.NewRevisionService(revisionRepository)
	aclService := service.NewACLService(aclGrantRepository)
	exporter := service.NewExporter()
	exportStorage, err := provideExportStorage(configConfig)
	if err != nil {
		return nil, err
	}
	adminListCacheStore := provideListCacheStore(configConfig, universalClient)
	publisher := providePublisher(configConfig, logger)
	crudHandler := provideCRUDHandler(registry, capabilityAuthorizer, renderer, revisionService, aclService, exporter, exportStorage, adminListCacheStore, publisher, operatorRepository, roleRepository, logger, configConfig)
	globalRateLimiterFunc := provideGlobalRateLimiter(configConfig, universalClient)
	authRateLimiterFunc := provideAuthRateLimiter(configConfig, universalClient)
	adminRateLimiterFunc := provideAdminRateLimiter(configConfig, universalClient, jwtManager)
	idempotencyStore := provideIdempotencyStore(db)
	idempotencyMiddlewareFactory := provideIdempotencyFactory(idempotencyStore)
	probeRunner := provideReadinessProbeRunner(configConfig, db, universalClient)
	dependencies := provideRouterDependencies(loginHandler, authHandler, operatorHandler, roleHandler, productHandler, crudHandler, jwtManager, capabilityAuthorizer, globalRateLimiterFunc, authRateLimiterFunc, adminRateLimiterFunc, idempotencyMiddlewareFactory, probeRunner, configConfig)
	httpHandler := router.NewRouter(dependencies)
	server := provideHTTPServer(configConfig, httpHandler)
	revisionPruner := provideRevisionPruner(revisionRepository, registry, logger, configConfig)
	appApp := provideApp(configConfig, logger, server, runtime, db, universalClient, probeRunner, revisionPruner, publisher)
	return appApp, nil
}

func InitializeMigrationRunner() (*MigrationRunner, error) {
	configConfig, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := provideOpenDB(configConfig)
	if err != nil {
		return nil, err
	}
	migrationRunner := NewMigrationRunner(configConfig, db)
	return migrationRunner, nil
}
