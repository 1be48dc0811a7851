package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stewardhq/steward/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
	"go.opentelemetry.io/otel/sdk/resource"
)

type AppMetrics struct {
	authLoginCounter             metric.Int64Counter
	authRefreshCounter           metric.Int64Counter
	authLogoutCounter            metric.Int64Counter
	authReqDuration              metric.Float64Histogram
	accessTokenValidationCounter metric.Int64Counter
	csrfValidationCounter        metric.Int64Counter
	rateLimitDecisionCounter     metric.Int64Counter
	rateLimitRetryAfter          metric.Float64Histogram
	abuseGuardCounter            metric.Int64Counter
	abuseGuardCooldown           metric.Float64Histogram
	refreshSecurityCounter       metric.Int64Counter
	sessionManagementCounter     metric.Int64Counter
	sessionRevokedCount          metric.Float64Histogram
	operatorProfileCounter       metric.Int64Counter
	authLocalFlowCounter         metric.Int64Counter
	googleOAuthReqDuration       metric.Float64Histogram
	googleOAuthErrorCounter      metric.Int64Counter
	capabilityCacheCounter       metric.Int64Counter
	capabilityCheckCounter       metric.Int64Counter
	adminActionCounter           metric.Int64Counter
	adminActionDuration          metric.Float64Histogram
	adminListReqDuration         metric.Float64Histogram
	adminListPageSize            metric.Float64Histogram
	adminListCacheHits           metric.Int64Counter
	adminListCacheEntryAge       metric.Float64Histogram
	accountMutationCounter       metric.Int64Counter
	batchExecutionCounter        metric.Int64Counter
	exportCounter                metric.Int64Counter
	exportRows                   metric.Float64Histogram
	revisionWriteCounter         metric.Int64Counter
	revisionsPruned              metric.Float64Histogram
	aclUpdateCounter             metric.Int64Counter
	repoOperationCounter         metric.Int64Counter
	catalogOpDuration            metric.Float64Histogram
	idempotencyCounter           metric.Int64Counter
	idempotencyCleanupRuns       metric.Int64Counter
	idempotencyCleanupRows       metric.Float64Histogram
	middlewareValidationCounter  metric.Int64Counter
	databaseStartupCounter       metric.Int64Counter
	databaseStartupDuration      metric.Float64Histogram
	healthCheckResultCounter     metric.Int64Counter
	healthCheckDuration          metric.Float64Histogram
	toolCommandRuns              metric.Int64Counter
	toolCommandDuration          metric.Float64Histogram
	loadgenRequestsCounter       metric.Int64Counter
	obscheckStageCounter         metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "auth.request.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
				},
			},
		)),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "admin.action.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter("steward")
	loginCounter, err := meter.Int64Counter("auth.login.attempts")
	if err != nil {
		return nil, err
	}
	refreshCounter, err := meter.Int64Counter("auth.refresh.attempts")
	if err != nil {
		return nil, err
	}
	logoutCounter, err := meter.Int64Counter("auth.logout.attempts")
	if err != nil {
		return nil, err
	}
	authReqDuration, err := meter.Float64Histogram("auth.request.duration", metric.WithUnit("s"), metric.WithDescription("Duration of auth endpoint requests in seconds"))
	if err != nil {
		return nil, err
	}
	accessTokenValidationCounter, err := meter.Int64Counter("auth.access_token.validation.events")
	if err != nil {
		return nil, err
	}
	csrfValidationCounter, err := meter.Int64Counter("security.csrf.validation.events")
	if err != nil {
		return nil, err
	}
	rateLimitDecisionCounter, err := meter.Int64Counter("http.rate_limit.decisions")
	if err != nil {
		return nil, err
	}
	rateLimitRetryAfter, err := meter.Float64Histogram(
		"http.rate_limit.retry_after",
		metric.WithUnit("s"),
		metric.WithDescription("Retry-after duration in seconds for throttled requests"),
	)
	if err != nil {
		return nil, err
	}
	abuseGuardCounter, err := meter.Int64Counter("auth.abuse_guard.events")
	if err != nil {
		return nil, err
	}
	abuseGuardCooldown, err := meter.Float64Histogram(
		"auth.abuse_guard.cooldown",
		metric.WithUnit("s"),
		metric.WithDescription("Cooldown duration returned by auth abuse guard"),
	)
	if err != nil {
		return nil, err
	}
	refreshSecurityCounter, err := meter.Int64Counter("auth.refresh.security.events")
	if err != nil {
		return nil, err
	}
	sessionManagementCounter, err := meter.Int64Counter("session.management.events")
	if err != nil {
		return nil, err
	}
	sessionRevokedCount, err := meter.Float64Histogram(
		"session.revoked.count",
		metric.WithDescription("Number of sessions revoked per management action"),
	)
	if err != nil {
		return nil, err
	}
	operatorProfileCounter, err := meter.Int64Counter("operator.profile.events")
	if err != nil {
		return nil, err
	}
	authLocalFlowCounter, err := meter.Int64Counter("auth.local.flow.events")
	if err != nil {
		return nil, err
	}
	googleOAuthReqDuration, err := meter.Float64Histogram(
		"auth.google.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of upstream Google OAuth calls in seconds"),
	)
	if err != nil {
		return nil, err
	}
	googleOAuthErrorCounter, err := meter.Int64Counter("auth.google.errors")
	if err != nil {
		return nil, err
	}
	capabilityCacheCounter, err := meter.Int64Counter("auth.capability.cache.events")
	if err != nil {
		return nil, err
	}
	capabilityCheckCounter, err := meter.Int64Counter("auth.capability.check.events")
	if err != nil {
		return nil, err
	}
	adminActionCounter, err := meter.Int64Counter("admin.action.requests")
	if err != nil {
		return nil, err
	}
	adminActionDuration, err := meter.Float64Histogram(
		"admin.action.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of admin CRUD actions in seconds"),
	)
	if err != nil {
		return nil, err
	}
	adminListReqDuration, err := meter.Float64Histogram(
		"admin.list.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of admin list requests in seconds"),
	)
	if err != nil {
		return nil, err
	}
	adminListPageSize, err := meter.Float64Histogram(
		"admin.list.page_size",
		metric.WithDescription("Requested page size for admin list views"),
	)
	if err != nil {
		return nil, err
	}
	adminListCacheEvents, err := meter.Int64Counter("admin.list.cache.events")
	if err != nil {
		return nil, err
	}
	adminListCacheEntryAge, err := meter.Float64Histogram(
		"admin.list.cache.entry_age",
		metric.WithUnit("s"),
		metric.WithDescription("Age of served admin list cache entries in seconds"),
	)
	if err != nil {
		return nil, err
	}
	accountMutationCounter, err := meter.Int64Counter("admin.account.mutations")
	if err != nil {
		return nil, err
	}
	batchExecutionCounter, err := meter.Int64Counter("admin.batch.executions")
	if err != nil {
		return nil, err
	}
	exportCounter, err := meter.Int64Counter("admin.export.requests")
	if err != nil {
		return nil, err
	}
	exportRows, err := meter.Float64Histogram(
		"admin.export.rows",
		metric.WithDescription("Rows written per export request"),
	)
	if err != nil {
		return nil, err
	}
	revisionWriteCounter, err := meter.Int64Counter("admin.revision.writes")
	if err != nil {
		return nil, err
	}
	revisionsPruned, err := meter.Float64Histogram(
		"admin.revision.pruned_rows",
		metric.WithDescription("Revision rows removed per pruning pass"),
	)
	if err != nil {
		return nil, err
	}
	aclUpdateCounter, err := meter.Int64Counter("admin.acl.updates")
	if err != nil {
		return nil, err
	}
	repoOperationCounter, err := meter.Int64Counter("repository.operations")
	if err != nil {
		return nil, err
	}
	catalogOpDuration, err := meter.Float64Histogram(
		"catalog.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of public catalog operations in seconds"),
	)
	if err != nil {
		return nil, err
	}
	idempotencyCounter, err := meter.Int64Counter("http.idempotency.events")
	if err != nil {
		return nil, err
	}
	idempotencyCleanupRuns, err := meter.Int64Counter("http.idempotency.cleanup.runs")
	if err != nil {
		return nil, err
	}
	idempotencyCleanupRows, err := meter.Float64Histogram(
		"http.idempotency.cleanup.deleted_rows",
		metric.WithDescription("Idempotency records removed per cleanup pass"),
	)
	if err != nil {
		return nil, err
	}
	middlewareValidationCounter, err := meter.Int64Counter("http.middleware.validation.events")
	if err != nil {
		return nil, err
	}
	databaseStartupCounter, err := meter.Int64Counter("database.startup.events")
	if err != nil {
		return nil, err
	}
	databaseStartupDuration, err := meter.Float64Histogram(
		"database.startup.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of database startup stages in seconds"),
	)
	if err != nil {
		return nil, err
	}
	healthCheckResultCounter, err := meter.Int64Counter("health.check.results")
	if err != nil {
		return nil, err
	}
	healthCheckDuration, err := meter.Float64Histogram(
		"health.check.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of health dependency checks in seconds"),
	)
	if err != nil {
		return nil, err
	}
	toolCommandRuns, err := meter.Int64Counter("tool.command.runs")
	if err != nil {
		return nil, err
	}
	toolCommandDuration, err := meter.Float64Histogram(
		"tool.command.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of CLI tool commands in seconds"),
	)
	if err != nil {
		return nil, err
	}
	loadgenRequestsCounter, err := meter.Int64Counter("loadgen.requests")
	if err != nil {
		return nil, err
	}
	obscheckStageCounter, err := meter.Int64Counter("obscheck.stage.events")
	if err != nil {
		return nil, err
	}

	metricsMu.Lock()
	appMetrics = &AppMetrics{
		authLoginCounter:             loginCounter,
		authRefreshCounter:           refreshCounter,
		authLogoutCounter:            logoutCounter,
		authReqDuration:              authReqDuration,
		accessTokenValidationCounter: accessTokenValidationCounter,
		csrfValidationCounter:        csrfValidationCounter,
		rateLimitDecisionCounter:     rateLimitDecisionCounter,
		rateLimitRetryAfter:          rateLimitRetryAfter,
		abuseGuardCounter:            abuseGuardCounter,
		abuseGuardCooldown:           abuseGuardCooldown,
		refreshSecurityCounter:       refreshSecurityCounter,
		sessionManagementCounter:     sessionManagementCounter,
		sessionRevokedCount:          sessionRevokedCount,
		operatorProfileCounter:       operatorProfileCounter,
		authLocalFlowCounter:         authLocalFlowCounter,
		googleOAuthReqDuration:       googleOAuthReqDuration,
		googleOAuthErrorCounter:      googleOAuthErrorCounter,
		capabilityCacheCounter:       capabilityCacheCounter,
		capabilityCheckCounter:       capabilityCheckCounter,
		adminActionCounter:           adminActionCounter,
		adminActionDuration:          adminActionDuration,
		adminListReqDuration:         adminListReqDuration,
		adminListPageSize:            adminListPageSize,
		adminListCacheHits:           adminListCacheEvents,
		adminListCacheEntryAge:       adminListCacheEntryAge,
		accountMutationCounter:       accountMutationCounter,
		batchExecutionCounter:        batchExecutionCounter,
		exportCounter:                exportCounter,
		exportRows:                   exportRows,
		revisionWriteCounter:         revisionWriteCounter,
		revisionsPruned:              revisionsPruned,
		aclUpdateCounter:             aclUpdateCounter,
		repoOperationCounter:         repoOperationCounter,
		catalogOpDuration:            catalogOpDuration,
		idempotencyCounter:           idempotencyCounter,
		idempotencyCleanupRuns:       idempotencyCleanupRuns,
		idempotencyCleanupRows:       idempotencyCleanupRows,
		middlewareValidationCounter:  middlewareValidationCounter,
		databaseStartupCounter:       databaseStartupCounter,
		databaseStartupDuration:      databaseStartupDuration,
		healthCheckResultCounter:     healthCheckResultCounter,
		healthCheckDuration:          healthCheckDuration,
		toolCommandRuns:              toolCommandRuns,
		toolCommandDuration:          toolCommandDuration,
		loadgenRequestsCounter:       loadgenRequestsCounter,
		obscheckStageCounter:         obscheckStageCounter,
	}
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func RecordAuthLogin(ctx context.Context, provider, status string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.authLoginCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

func RecordAuthRefresh(ctx context.Context, status string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.authRefreshCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordAuthLogout(ctx context.Context, status string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.authLogoutCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordAuthRequestDuration(ctx context.Context, endpoint, status string, duration time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.authReqDuration.Record(
		ctx,
		duration.Seconds(),
		metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("status", status),
		),
	)
}

func RecordAccessTokenValidation(ctx context.Context, outcome, source string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.accessTokenValidationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("source", source),
	))
}

func RecordCSRFValidation(ctx context.Context, outcome, pathGroup string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.csrfValidationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("path_group", pathGroup),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome, mode, keyType string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.rateLimitDecisionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("outcome", outcome),
		attribute.String("mode", mode),
		attribute.String("key_type", keyType),
	))
}

func RecordRateLimitRetryAfter(ctx context.Context, scope, reason string, retryAfter time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.rateLimitRetryAfter.Record(ctx, retryAfter.Seconds(), metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("reason", reason),
	))
}

func RecordAuthAbuseGuardEvent(ctx context.Context, scope, action, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.abuseGuardCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

func RecordAuthAbuseCooldown(ctx context.Context, scope, action string, cooldown time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.abuseGuardCooldown.Record(ctx, cooldown.Seconds(), metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("action", action),
	))
}

func RecordRefreshSecurityEvent(ctx context.Context, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.refreshSecurityCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func RecordSessionManagementEvent(ctx context.Context, action, status string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.sessionManagementCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("status", status),
	))
}

func RecordSessionRevokedCount(ctx context.Context, action string, count int64) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.sessionRevokedCount.Record(ctx, float64(count), metric.WithAttributes(
		attribute.String("action", action),
	))
}

func RecordOperatorProfileEvent(ctx context.Context, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.operatorProfileCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func RecordAuthLocalFlowEvent(ctx context.Context, flow, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.authLocalFlowCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("outcome", outcome),
	))
}

func RecordGoogleOAuthRequestDuration(ctx context.Context, operation, status string, duration time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.googleOAuthReqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

func RecordGoogleOAuthError(ctx context.Context, reason string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.googleOAuthErrorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

func RecordCapabilityCacheEvent(ctx context.Context, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.capabilityCacheCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func RecordCapabilityCheck(ctx context.Context, admin, capability, decision string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.capabilityCheckCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("admin", admin),
		attribute.String("capability", capability),
		attribute.String("decision", decision),
	))
}

func RecordAdminAction(ctx context.Context, admin, action, outcome string, duration time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.adminActionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("admin", admin),
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
	m.adminActionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("admin", admin),
		attribute.String("action", action),
	))
}

func RecordAdminListRequestDuration(ctx context.Context, admin, status string, duration time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.adminListReqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("admin", admin),
		attribute.String("status", status),
	))
}

func RecordAdminListPageSize(ctx context.Context, admin string, pageSize int) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.adminListPageSize.Record(ctx, float64(pageSize), metric.WithAttributes(
		attribute.String("admin", admin),
	))
}

func RecordAdminListCacheEvent(ctx context.Context, admin, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.adminListCacheHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("admin", admin),
		attribute.String("outcome", outcome),
	))
}

func RecordAdminListCacheEntryAge(ctx context.Context, admin string, age time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.adminListCacheEntryAge.Record(ctx, age.Seconds(), metric.WithAttributes(
		attribute.String("admin", admin),
	))
}

func RecordAccountMutation(ctx context.Context, entity, action, status string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.accountMutationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("action", action),
		attribute.String("status", status),
	))
}

func RecordBatchExecution(ctx context.Context, admin, action, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.batchExecutionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("admin", admin),
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

func RecordExport(ctx context.Context, admin, format, delivery, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.exportCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("admin", admin),
		attribute.String("format", format),
		attribute.String("delivery", delivery),
		attribute.String("outcome", outcome),
	))
}

func RecordExportRows(ctx context.Context, admin, format string, rows int64) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.exportRows.Record(ctx, float64(rows), metric.WithAttributes(
		attribute.String("admin", admin),
		attribute.String("format", format),
	))
}

func RecordRevisionWrite(ctx context.Context, admin, action string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.revisionWriteCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("admin", admin),
		attribute.String("action", action),
	))
}

func RecordRevisionsPruned(ctx context.Context, admin string, rows int64) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.revisionsPruned.Record(ctx, float64(rows), metric.WithAttributes(
		attribute.String("admin", admin),
	))
}

func RecordACLUpdate(ctx context.Context, admin, subjectType string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.aclUpdateCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("admin", admin),
		attribute.String("subject_type", subjectType),
	))
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.repoOperationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordCatalogOperation(ctx context.Context, operation, outcome string, duration time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.catalogOpDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}


func RecordIdempotencyEvent(ctx context.Context, scope, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.idempotencyCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("outcome", outcome),
	))
}

func RecordIdempotencyCleanupRun(ctx context.Context, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.idempotencyCleanupRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func RecordIdempotencyCleanupDeletedRows(ctx context.Context, rows int64) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.idempotencyCleanupRows.Record(ctx, float64(rows))
}

func RecordMiddlewareValidationEvent(ctx context.Context, middleware, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.middlewareValidationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("middleware", middleware),
		attribute.String("outcome", outcome),
	))
}

func RecordDatabaseStartupEvent(ctx context.Context, stage, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.databaseStartupCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	))
}

func RecordDatabaseStartupDuration(ctx context.Context, stage string, duration time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.databaseStartupDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
	))
}

func RecordHealthCheckResult(ctx context.Context, check, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.healthCheckResultCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check", check),
		attribute.String("outcome", outcome),
	))
}

func RecordHealthCheckDuration(ctx context.Context, check string, duration time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.healthCheckDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("check", check),
	))
}

func RecordToolCommandRun(ctx context.Context, tool, command, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.toolCommandRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	))
}

func RecordToolCommandDuration(ctx context.Context, tool, command, outcome string, duration time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.toolCommandDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	))
}

func RecordLoadgenRequest(ctx context.Context, statusClass, profile string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.loadgenRequestsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status_class", statusClass),
		attribute.String("profile", profile),
	))
}

func RecordObscheckStageEvent(ctx context.Context, stage, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.obscheckStageCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	))
}
