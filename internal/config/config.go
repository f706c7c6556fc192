package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mkowalczk/footsync/internal/domain/trackedplayer"
	"github.com/mkowalczk/footsync/internal/engine/cache"
	"github.com/mkowalczk/footsync/internal/engine/schedule"
	"github.com/mkowalczk/footsync/internal/platform/logging"
	"github.com/mkowalczk/footsync/internal/platform/resilience"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	DBURL                   string
	DBDisablePreparedBinary bool
	CORSAllowedOrigins      []string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	LogLevel                logging.Level

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	SportsIOEnabled        bool
	SportsIOBaseURL        string
	SportsIOAPIKey         string
	SportsIOTimeout        time.Duration
	SportsIORatePerSecond  float64
	SportsIORateBurst      int
	SportsIOCircuitBreaker resilience.CircuitBreakerConfig

	HistScrapeEnabled        bool
	HistScrapeBaseURL        string
	HistScrapeTimeout        time.Duration
	HistScrapeRateEvery      time.Duration
	HistScrapeCircuitBreaker resilience.CircuitBreakerConfig

	QuotaMonthlyCeiling int64
	QuotaSoftDailyLimit int64

	CacheDefaultTTL time.Duration
	CacheTTLByClass map[cache.Class]time.Duration

	SyncSeason       int
	SyncMaxWorkers   int
	SyncMaxAttempts  int
	SyncRetryBackoff time.Duration

	SchedulerEnabled      bool
	SchedulerTickInterval time.Duration
	ScheduleTimezone      *time.Location
	ScheduleTier1Triggers []schedule.Trigger
	ScheduleTier2Triggers []schedule.Trigger
	ScheduleTier3Triggers []schedule.Trigger
	ScheduleTier3Floor    time.Duration

	WebhookEnabled        bool
	WebhookURL            string
	WebhookToken          string
	WebhookTimeout        time.Duration
	WebhookCircuitBreaker resilience.CircuitBreakerConfig
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	sportsIOEnabled, err := strconv.ParseBool(getEnv("SPORTSIO_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTSIO_ENABLED: %w", err)
	}
	sportsIOBaseURL := strings.TrimSpace(getEnv("SPORTSIO_BASE_URL", "https://api.sportsio.example.com"))
	sportsIOAPIKey := strings.TrimSpace(getEnv("SPORTSIO_API_KEY", ""))
	if sportsIOEnabled && sportsIOAPIKey == "" {
		return Config{}, fmt.Errorf("SPORTSIO_API_KEY is required when SPORTSIO_ENABLED=true")
	}
	sportsIOTimeout, err := time.ParseDuration(getEnv("SPORTSIO_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTSIO_TIMEOUT: %w", err)
	}
	if sportsIOTimeout <= 0 {
		return Config{}, fmt.Errorf("SPORTSIO_TIMEOUT must be > 0")
	}
	sportsIORatePerSecond, err := getEnvAsFloat("SPORTSIO_RATE_PER_SECOND", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTSIO_RATE_PER_SECOND: %w", err)
	}
	if sportsIORatePerSecond <= 0 {
		return Config{}, fmt.Errorf("SPORTSIO_RATE_PER_SECOND must be > 0")
	}
	sportsIORateBurst, err := getEnvAsInt("SPORTSIO_RATE_BURST", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTSIO_RATE_BURST: %w", err)
	}
	if sportsIORateBurst < 1 {
		return Config{}, fmt.Errorf("SPORTSIO_RATE_BURST must be >= 1")
	}
	sportsIOCircuit, err := loadCircuitBreaker("SPORTSIO")
	if err != nil {
		return Config{}, err
	}

	histScrapeEnabled, err := strconv.ParseBool(getEnv("HISTSCRAPE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HISTSCRAPE_ENABLED: %w", err)
	}
	histScrapeBaseURL := strings.TrimSpace(getEnv("HISTSCRAPE_BASE_URL", "https://feed.histscrape.example.com"))
	histScrapeTimeout, err := time.ParseDuration(getEnv("HISTSCRAPE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HISTSCRAPE_TIMEOUT: %w", err)
	}
	if histScrapeTimeout <= 0 {
		return Config{}, fmt.Errorf("HISTSCRAPE_TIMEOUT must be > 0")
	}
	histScrapeRateEvery, err := time.ParseDuration(getEnv("HISTSCRAPE_RATE_EVERY", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HISTSCRAPE_RATE_EVERY: %w", err)
	}
	if histScrapeRateEvery <= 0 {
		return Config{}, fmt.Errorf("HISTSCRAPE_RATE_EVERY must be > 0")
	}
	histScrapeCircuit, err := loadCircuitBreaker("HISTSCRAPE")
	if err != nil {
		return Config{}, err
	}

	if !sportsIOEnabled && !histScrapeEnabled {
		return Config{}, fmt.Errorf("at least one provider must be enabled")
	}

	quotaMonthlyCeiling, err := getEnvAsInt64("QUOTA_MONTHLY_CEILING", 7500)
	if err != nil {
		return Config{}, fmt.Errorf("parse QUOTA_MONTHLY_CEILING: %w", err)
	}
	if quotaMonthlyCeiling <= 0 {
		return Config{}, fmt.Errorf("QUOTA_MONTHLY_CEILING must be > 0")
	}
	quotaSoftDailyLimit, err := getEnvAsInt64("QUOTA_SOFT_DAILY_LIMIT", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse QUOTA_SOFT_DAILY_LIMIT: %w", err)
	}
	if quotaSoftDailyLimit < 0 {
		return Config{}, fmt.Errorf("QUOTA_SOFT_DAILY_LIMIT must be >= 0")
	}

	cacheDefaultTTL, err := time.ParseDuration(getEnv("CACHE_DEFAULT_TTL", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_DEFAULT_TTL: %w", err)
	}
	if cacheDefaultTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_DEFAULT_TTL must be > 0")
	}
	cacheTTLByClass := make(map[cache.Class]time.Duration, 3)
	for class, envKey := range map[cache.Class]string{
		cache.ClassPlayerSeason: "CACHE_TTL_PLAYER_SEASON",
		cache.ClassScrapeFeed:   "CACHE_TTL_SCRAPE_FEED",
		cache.ClassLiveMatch:    "CACHE_TTL_LIVE_MATCH",
	} {
		raw := strings.TrimSpace(getEnv(envKey, ""))
		if raw == "" {
			continue
		}
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", envKey, err)
		}
		if ttl <= 0 {
			return Config{}, fmt.Errorf("%s must be > 0", envKey)
		}
		cacheTTLByClass[class] = ttl
	}

	syncSeason, err := getEnvAsInt("SYNC_SEASON", time.Now().UTC().Year())
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_SEASON: %w", err)
	}
	if syncSeason < 1900 {
		return Config{}, fmt.Errorf("SYNC_SEASON must be a four-digit year")
	}
	syncMaxWorkers, err := getEnvAsInt("SYNC_MAX_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_MAX_WORKERS: %w", err)
	}
	if syncMaxWorkers < 1 {
		return Config{}, fmt.Errorf("SYNC_MAX_WORKERS must be >= 1")
	}
	syncMaxAttempts, err := getEnvAsInt("SYNC_MAX_ATTEMPTS", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_MAX_ATTEMPTS: %w", err)
	}
	if syncMaxAttempts < 1 {
		return Config{}, fmt.Errorf("SYNC_MAX_ATTEMPTS must be >= 1")
	}
	syncRetryBackoff, err := time.ParseDuration(getEnv("SYNC_RETRY_BACKOFF", "500ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_RETRY_BACKOFF: %w", err)
	}
	if syncRetryBackoff <= 0 {
		return Config{}, fmt.Errorf("SYNC_RETRY_BACKOFF must be > 0")
	}

	schedulerEnabled, err := strconv.ParseBool(getEnv("SCHEDULER_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCHEDULER_ENABLED: %w", err)
	}
	schedulerTickInterval, err := time.ParseDuration(getEnv("SCHEDULER_TICK_INTERVAL", "1m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCHEDULER_TICK_INTERVAL: %w", err)
	}
	if schedulerTickInterval <= 0 {
		return Config{}, fmt.Errorf("SCHEDULER_TICK_INTERVAL must be > 0")
	}
	scheduleTimezone, err := time.LoadLocation(getEnv("SCHEDULE_TIMEZONE", "UTC"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCHEDULE_TIMEZONE: %w", err)
	}
	tier1Triggers, err := schedule.ParseTriggers(getEnv("SCHEDULE_TIER1_TRIGGERS", "thu 23:00,sun 23:00"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCHEDULE_TIER1_TRIGGERS: %w", err)
	}
	tier2Triggers, err := schedule.ParseTriggers(getEnv("SCHEDULE_TIER2_TRIGGERS", "sun 23:00"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCHEDULE_TIER2_TRIGGERS: %w", err)
	}
	tier3Triggers, err := schedule.ParseTriggers(getEnv("SCHEDULE_TIER3_TRIGGERS", "sun 23:00"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCHEDULE_TIER3_TRIGGERS: %w", err)
	}
	tier3Floor, err := time.ParseDuration(getEnv("SCHEDULE_TIER3_MIN_INTERVAL", "648h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCHEDULE_TIER3_MIN_INTERVAL: %w", err)
	}
	if tier3Floor < 0 {
		return Config{}, fmt.Errorf("SCHEDULE_TIER3_MIN_INTERVAL must be >= 0")
	}

	webhookEnabled, err := strconv.ParseBool(getEnv("WEBHOOK_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_ENABLED: %w", err)
	}
	webhookURL := strings.TrimSpace(getEnv("WEBHOOK_URL", ""))
	if webhookEnabled && webhookURL == "" {
		return Config{}, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_ENABLED=true")
	}
	webhookTimeout, err := time.ParseDuration(getEnv("WEBHOOK_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_TIMEOUT: %w", err)
	}
	if webhookTimeout <= 0 {
		return Config{}, fmt.Errorf("WEBHOOK_TIMEOUT must be > 0")
	}
	webhookCircuit, err := loadCircuitBreaker("WEBHOOK")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "footsync-api"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                      getEnv("DB_URL", ""),
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:                   parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		SportsIOEnabled:            sportsIOEnabled,
		SportsIOBaseURL:            sportsIOBaseURL,
		SportsIOAPIKey:             sportsIOAPIKey,
		SportsIOTimeout:            sportsIOTimeout,
		SportsIORatePerSecond:      sportsIORatePerSecond,
		SportsIORateBurst:          sportsIORateBurst,
		SportsIOCircuitBreaker:     sportsIOCircuit,
		HistScrapeEnabled:          histScrapeEnabled,
		HistScrapeBaseURL:          histScrapeBaseURL,
		HistScrapeTimeout:          histScrapeTimeout,
		HistScrapeRateEvery:        histScrapeRateEvery,
		HistScrapeCircuitBreaker:   histScrapeCircuit,
		QuotaMonthlyCeiling:        quotaMonthlyCeiling,
		QuotaSoftDailyLimit:        quotaSoftDailyLimit,
		CacheDefaultTTL:            cacheDefaultTTL,
		CacheTTLByClass:            cacheTTLByClass,
		SyncSeason:                 syncSeason,
		SyncMaxWorkers:             syncMaxWorkers,
		SyncMaxAttempts:            syncMaxAttempts,
		SyncRetryBackoff:           syncRetryBackoff,
		SchedulerEnabled:           schedulerEnabled,
		SchedulerTickInterval:      schedulerTickInterval,
		ScheduleTimezone:           scheduleTimezone,
		ScheduleTier1Triggers:      tier1Triggers,
		ScheduleTier2Triggers:      tier2Triggers,
		ScheduleTier3Triggers:      tier3Triggers,
		ScheduleTier3Floor:         tier3Floor,
		WebhookEnabled:             webhookEnabled,
		WebhookURL:                 webhookURL,
		WebhookToken:               strings.TrimSpace(getEnv("WEBHOOK_TOKEN", "")),
		WebhookTimeout:             webhookTimeout,
		WebhookCircuitBreaker:      webhookCircuit,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	cfg.DBDisablePreparedBinary = dbDisablePreparedBinary

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}
	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout

	return cfg, nil
}

// SchedulePlan assembles the tier timetable from the parsed trigger lists.
func (c Config) SchedulePlan() (schedule.Plan, error) {
	loc := c.ScheduleTimezone
	if loc == nil {
		loc = time.UTC
	}

	plan := schedule.Plan{
		Location: loc,
		Tiers: map[trackedplayer.Tier]schedule.TierPlan{
			trackedplayer.TierOne:   {Triggers: c.ScheduleTier1Triggers},
			trackedplayer.TierTwo:   {Triggers: c.ScheduleTier2Triggers},
			trackedplayer.TierThree: {Triggers: c.ScheduleTier3Triggers, MinInterval: c.ScheduleTier3Floor},
		},
	}
	if err := plan.Validate(); err != nil {
		return schedule.Plan{}, err
	}
	return plan, nil
}

func loadCircuitBreaker(prefix string) (resilience.CircuitBreakerConfig, error) {
	enabled, err := strconv.ParseBool(getEnv(prefix+"_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_ENABLED: %w", prefix, err)
	}
	failureCount, err := getEnvAsInt(prefix+"_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_FAILURE_COUNT: %w", prefix, err)
	}
	if failureCount < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_FAILURE_COUNT must be >= 1", prefix)
	}
	openTimeout, err := time.ParseDuration(getEnv(prefix+"_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_OPEN_TIMEOUT: %w", prefix, err)
	}
	if openTimeout <= 0 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_OPEN_TIMEOUT must be > 0", prefix)
	}
	halfOpenMaxReq, err := getEnvAsInt(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_HALF_OPEN_MAX_REQ: %w", prefix, err)
	}
	if halfOpenMaxReq < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1", prefix)
	}

	return resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failureCount,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	}, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsInt64(key string, fallback int64) (int64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
