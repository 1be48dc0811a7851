package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string
	Debug    bool

	DatabaseURL string

	JWTIssuer          string
	JWTAudience        string
	JWTAccessSecret    string
	JWTRefreshSecret   string
	JWTAccessTTL       time.Duration
	JWTRefreshTTL      time.Duration
	RefreshTokenPepper string
	StateSigningSecret string
	CookieDomain       string
	CookieSecure       bool
	CookieSameSite     string
	CORSAllowedOrigins []string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	AuthGoogleEnabled  bool
	AuthLocalEnabled   bool

	// BootstrapMasterEmail names the operator that is granted the master
	// role on first login so a fresh deployment is never locked out.
	BootstrapMasterEmail string

	AuthRateLimitPerMin  int
	AdminRateLimitPerMin int
	APIRateLimitPerMin   int

	AuthAbuseFreeAttempts int
	AuthAbuseBaseDelay    time.Duration
	AuthAbuseMaxDelay     time.Duration
	AuthAbuseResetWindow  time.Duration

	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	RateLimitRedisEnabled bool
	RateLimitRedisPrefix  string

	// Admin console knobs. The manifest overlays per-admin settings on the
	// registered descriptors; the override dir shadows shared templates.
	AdminManifestPath        string
	AdminTemplateOverrideDir string
	AdminListCacheEnabled    bool
	AdminListCacheTTL        time.Duration
	AdminListCachePrefix     string
	ExportArchiveRowLimit    int64

	MinIOEndpoint     string
	MinIOAccessKey    string
	MinIOSecretKey    string
	MinIOBucket       string
	MinIOUseSSL       bool
	ExportArchiveMode bool

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	RevisionRetention     time.Duration
	RevisionPruneSchedule string

	ReadinessProbeTimeout  time.Duration
	ServerStartGracePeriod time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")
	googleClientID := os.Getenv("GOOGLE_OAUTH_CLIENT_ID")
	googleClientSecret := os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET")
	googleEnabled := getEnvBool("AUTH_GOOGLE_ENABLED", true)
	if _, explicitlySet := os.LookupEnv("AUTH_GOOGLE_ENABLED"); !explicitlySet &&
		(googleClientID == "" || googleClientSecret == "") && isLocalLikeEnv(env) {
		googleEnabled = false
	}

	cfg := &Config{
		Env:                  env,
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		Debug:                getEnvBool("STEWARD_DEBUG", isLocalLikeEnv(env)),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		JWTIssuer:            getEnv("JWT_ISSUER", "steward"),
		JWTAudience:          getEnv("JWT_AUDIENCE", "steward-console"),
		JWTAccessSecret:      os.Getenv("JWT_ACCESS_SECRET"),
		JWTRefreshSecret:     os.Getenv("JWT_REFRESH_SECRET"),
		RefreshTokenPepper:   os.Getenv("REFRESH_TOKEN_PEPPER"),
		StateSigningSecret:   os.Getenv("OAUTH_STATE_SECRET"),
		CookieDomain:         os.Getenv("COOKIE_DOMAIN"),
		CookieSecure:         getEnvBool("COOKIE_SECURE", true),
		CookieSameSite:       strings.ToLower(getEnv("COOKIE_SAMESITE", "lax")),
		CORSAllowedOrigins:   splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		GoogleClientID:       googleClientID,
		GoogleClientSecret:   googleClientSecret,
		GoogleRedirectURL:    getEnv("GOOGLE_OAUTH_REDIRECT_URL", "http://localhost:8080/api/v1/auth/google/callback"),
		AuthGoogleEnabled:    googleEnabled,
		AuthLocalEnabled:     getEnvBool("AUTH_LOCAL_ENABLED", true),
		BootstrapMasterEmail: strings.TrimSpace(strings.ToLower(os.Getenv("STEWARD_BOOTSTRAP_MASTER_EMAIL"))),

		AuthRateLimitPerMin:  getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		AdminRateLimitPerMin: getEnvInt("ADMIN_RATE_LIMIT_PER_MIN", 300),
		APIRateLimitPerMin:   getEnvInt("API_RATE_LIMIT_PER_MIN", 120),

		AuthAbuseFreeAttempts: getEnvInt("AUTH_ABUSE_FREE_ATTEMPTS", 3),

		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getEnvInt("REDIS_DB", 0),
		RateLimitRedisEnabled: getEnvBool("RATE_LIMIT_REDIS_ENABLED", false),
		RateLimitRedisPrefix:  getEnv("RATE_LIMIT_REDIS_PREFIX", "steward:ratelimit"),

		AdminManifestPath:        os.Getenv("STEWARD_ADMIN_MANIFEST"),
		AdminTemplateOverrideDir: os.Getenv("STEWARD_TEMPLATE_OVERRIDE_DIR"),
		AdminListCacheEnabled:    getEnvBool("STEWARD_LIST_CACHE_ENABLED", true),
		AdminListCachePrefix:     getEnv("STEWARD_LIST_CACHE_PREFIX", "steward:list"),
		ExportArchiveRowLimit:    int64(getEnvInt("STEWARD_EXPORT_ARCHIVE_ROW_LIMIT", 10000)),

		MinIOEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    getEnv("MINIO_EXPORT_BUCKET", "steward-exports"),
		MinIOUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		KafkaEnabled: getEnvBool("STEWARD_KAFKA_ENABLED", false),
		KafkaBrokers: splitCSV(getEnv("STEWARD_KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   getEnv("STEWARD_KAFKA_TOPIC", "steward.entity-changes"),

		RevisionPruneSchedule: getEnv("STEWARD_REVISION_PRUNE_SCHEDULE", "0 3 * * *"),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "steward"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", true),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", true),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", true),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}
	cfg.ExportArchiveMode = cfg.MinIOEndpoint != ""

	accessTTL, err := time.ParseDuration(getEnv("JWT_ACCESS_TTL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("parse JWT_ACCESS_TTL: %w", err)
	}
	cfg.JWTAccessTTL = accessTTL

	refreshTTL, err := time.ParseDuration(getEnv("JWT_REFRESH_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("parse JWT_REFRESH_TTL: %w", err)
	}
	cfg.JWTRefreshTTL = refreshTTL

	abuseBaseDelay, err := time.ParseDuration(getEnv("AUTH_ABUSE_BASE_DELAY", "2s"))
	if err != nil {
		return nil, fmt.Errorf("parse AUTH_ABUSE_BASE_DELAY: %w", err)
	}
	cfg.AuthAbuseBaseDelay = abuseBaseDelay

	abuseMaxDelay, err := time.ParseDuration(getEnv("AUTH_ABUSE_MAX_DELAY", "5m"))
	if err != nil {
		return nil, fmt.Errorf("parse AUTH_ABUSE_MAX_DELAY: %w", err)
	}
	cfg.AuthAbuseMaxDelay = abuseMaxDelay

	abuseResetWindow, err := time.ParseDuration(getEnv("AUTH_ABUSE_RESET_WINDOW", "30m"))
	if err != nil {
		return nil, fmt.Errorf("parse AUTH_ABUSE_RESET_WINDOW: %w", err)
	}
	cfg.AuthAbuseResetWindow = abuseResetWindow

	listCacheTTL, err := time.ParseDuration(getEnv("STEWARD_LIST_CACHE_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("parse STEWARD_LIST_CACHE_TTL: %w", err)
	}
	cfg.AdminListCacheTTL = listCacheTTL

	retention, err := time.ParseDuration(getEnv("STEWARD_REVISION_RETENTION", "2160h"))
	if err != nil {
		return nil, fmt.Errorf("parse STEWARD_REVISION_RETENTION: %w", err)
	}
	cfg.RevisionRetention = retention

	probeTimeout, err := time.ParseDuration(getEnv("READINESS_PROBE_TIMEOUT", "2s"))
	if err != nil {
		return nil, fmt.Errorf("parse READINESS_PROBE_TIMEOUT: %w", err)
	}
	cfg.ReadinessProbeTimeout = probeTimeout

	gracePeriod, err := time.ParseDuration(getEnv("SERVER_START_GRACE_PERIOD", "10s"))
	if err != nil {
		return nil, fmt.Errorf("parse SERVER_START_GRACE_PERIOD: %w", err)
	}
	cfg.ServerStartGracePeriod = gracePeriod

	metricsInterval, err := time.ParseDuration(getEnv("OTEL_METRICS_EXPORT_INTERVAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("parse OTEL_METRICS_EXPORT_INTERVAL: %w", err)
	}
	cfg.OTELMetricsExportInterval = metricsInterval

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.JWTAccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET must be at least 32 chars")
	}
	if len(c.JWTRefreshSecret) < 32 {
		errs = append(errs, "JWT_REFRESH_SECRET must be at least 32 chars")
	}
	if c.JWTAccessSecret == c.JWTRefreshSecret {
		errs = append(errs, "JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if len(c.RefreshTokenPepper) < 16 {
		errs = append(errs, "REFRESH_TOKEN_PEPPER must be at least 16 chars")
	}
	if len(c.StateSigningSecret) < 16 {
		errs = append(errs, "OAUTH_STATE_SECRET must be at least 16 chars")
	}
	if !c.AuthLocalEnabled && !c.AuthGoogleEnabled {
		errs = append(errs, "at least one auth provider must be enabled")
	}
	if c.AuthGoogleEnabled && c.GoogleClientID == "" {
		errs = append(errs, "GOOGLE_OAUTH_CLIENT_ID is required when AUTH_GOOGLE_ENABLED=true")
	}
	if c.AuthGoogleEnabled && c.GoogleClientSecret == "" {
		errs = append(errs, "GOOGLE_OAUTH_CLIENT_SECRET is required when AUTH_GOOGLE_ENABLED=true")
	}
	if c.JWTAccessTTL <= 0 || c.JWTAccessTTL > time.Hour {
		errs = append(errs, "JWT_ACCESS_TTL must be between 1s and 1h")
	}
	if c.JWTRefreshTTL <= 0 || c.JWTRefreshTTL > (30*24*time.Hour) {
		errs = append(errs, "JWT_REFRESH_TTL must be between 1s and 30d")
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.AdminListCacheEnabled && c.AdminListCacheTTL <= 0 {
		errs = append(errs, "STEWARD_LIST_CACHE_TTL must be > 0 when the list cache is enabled")
	}
	if c.ExportArchiveRowLimit < 0 {
		errs = append(errs, "STEWARD_EXPORT_ARCHIVE_ROW_LIMIT must be >= 0")
	}
	if c.ExportArchiveMode && (c.MinIOAccessKey == "" || c.MinIOSecretKey == "") {
		errs = append(errs, "MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		errs = append(errs, "STEWARD_KAFKA_BROKERS is required when STEWARD_KAFKA_ENABLED=true")
	}
	if c.RevisionRetention <= 0 {
		errs = append(errs, "STEWARD_REVISION_RETENTION must be > 0")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func isLocalLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "local", "test":
		return true
	default:
		return false
	}
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
