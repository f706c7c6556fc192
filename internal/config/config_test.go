package config

import (
	"testing"
	"time"

	"github.com/mkowalczk/footsync/internal/engine/cache"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("SPORTSIO_API_KEY", "test-key")
}

func TestLoad_AppEnvValidation(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_SportsIORequiresAPIKeyWhenEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SPORTSIO_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when SPORTSIO_ENABLED=true without SPORTSIO_API_KEY")
	}
}

func TestLoad_AtLeastOneProviderMustBeEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SPORTSIO_ENABLED", "false")
	t.Setenv("HISTSCRAPE_ENABLED", "false")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when both providers are disabled")
	}
}

func TestLoad_ProviderDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.SportsIOEnabled || !cfg.HistScrapeEnabled {
		t.Fatalf("expected both providers enabled by default")
	}
	if cfg.SportsIOTimeout != 20*time.Second {
		t.Fatalf("unexpected default sportsio timeout: %s", cfg.SportsIOTimeout)
	}
	if cfg.SportsIORatePerSecond != 2 {
		t.Fatalf("unexpected default sportsio rate: %v", cfg.SportsIORatePerSecond)
	}
	if cfg.HistScrapeRateEvery != 3*time.Second {
		t.Fatalf("unexpected default histscrape pacing: %s", cfg.HistScrapeRateEvery)
	}
	if !cfg.SportsIOCircuitBreaker.Enabled {
		t.Fatalf("expected circuit breaker enabled by default")
	}
}

func TestLoad_QuotaParsing(t *testing.T) {
	setRequiredEnv(t)

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("QUOTA_MONTHLY_CEILING", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.QuotaMonthlyCeiling != 7500 {
			t.Fatalf("unexpected default monthly ceiling: %d", cfg.QuotaMonthlyCeiling)
		}
		if cfg.QuotaSoftDailyLimit != 0 {
			t.Fatalf("unexpected default soft daily limit: %d", cfg.QuotaSoftDailyLimit)
		}
	})

	t.Run("ceiling must be positive", func(t *testing.T) {
		t.Setenv("QUOTA_MONTHLY_CEILING", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for QUOTA_MONTHLY_CEILING=0")
		}
	})
}

func TestLoad_CacheTTLParsing(t *testing.T) {
	setRequiredEnv(t)

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.CacheDefaultTTL != time.Hour {
			t.Fatalf("unexpected default cache ttl: %s", cfg.CacheDefaultTTL)
		}
		if len(cfg.CacheTTLByClass) != 0 {
			t.Fatalf("expected no per-class overrides by default: %+v", cfg.CacheTTLByClass)
		}
	})

	t.Run("per-class override", func(t *testing.T) {
		t.Setenv("CACHE_TTL_SCRAPE_FEED", "6h")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.CacheTTLByClass[cache.ClassScrapeFeed] != 6*time.Hour {
			t.Fatalf("unexpected scrape feed ttl: %s", cfg.CacheTTLByClass[cache.ClassScrapeFeed])
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL_LIVE_MATCH", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid CACHE_TTL_LIVE_MATCH")
		}
	})
}

func TestLoad_SchedulePlanFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCHEDULE_TIMEZONE", "Europe/Warsaw")
	t.Setenv("SCHEDULE_TIER1_TRIGGERS", "thu 23:00,sun 23:00")
	t.Setenv("SCHEDULE_TIER2_TRIGGERS", "sun 23:00")
	t.Setenv("SCHEDULE_TIER3_TRIGGERS", "sun 23:00")
	t.Setenv("SCHEDULE_TIER3_MIN_INTERVAL", "648h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	plan, err := cfg.SchedulePlan()
	if err != nil {
		t.Fatalf("build schedule plan: %v", err)
	}
	if plan.Location.String() != "Europe/Warsaw" {
		t.Fatalf("unexpected schedule timezone: %s", plan.Location)
	}
}

func TestLoad_SchedulePlanRejectsInvertedFrequency(t *testing.T) {
	setRequiredEnv(t)
	// A lower tier must not fire more often than the one above it.
	t.Setenv("SCHEDULE_TIER1_TRIGGERS", "sun 23:00")
	t.Setenv("SCHEDULE_TIER2_TRIGGERS", "thu 23:00,sun 23:00")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if _, err := cfg.SchedulePlan(); err == nil {
		t.Fatalf("expected plan validation error for inverted tier frequency")
	}
}

func TestLoad_SyncSettingsParsing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SYNC_SEASON", "2025")
	t.Setenv("SYNC_MAX_WORKERS", "8")
	t.Setenv("SYNC_MAX_ATTEMPTS", "5")
	t.Setenv("SYNC_RETRY_BACKOFF", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SyncSeason != 2025 {
		t.Fatalf("unexpected season: %d", cfg.SyncSeason)
	}
	if cfg.SyncMaxWorkers != 8 || cfg.SyncMaxAttempts != 5 {
		t.Fatalf("unexpected sync settings: workers=%d attempts=%d", cfg.SyncMaxWorkers, cfg.SyncMaxAttempts)
	}
	if cfg.SyncRetryBackoff != 250*time.Millisecond {
		t.Fatalf("unexpected retry backoff: %s", cfg.SyncRetryBackoff)
	}
}

func TestLoad_WebhookRequiresURLWhenEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WEBHOOK_ENABLED", "true")
	t.Setenv("WEBHOOK_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when WEBHOOK_ENABLED=true without WEBHOOK_URL")
	}
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_SERVICE_NAME", "footsync-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "footsync-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	setRequiredEnv(t)

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://a.example.com" {
			t.Fatalf("unexpected first CORS origin: %s", cfg.CORSAllowedOrigins[0])
		}
	})
}

func TestLoad_DBDisablePreparedBinaryResultParsing(t *testing.T) {
	setRequiredEnv(t)

	t.Run("default true", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.DBDisablePreparedBinary {
			t.Fatalf("expected DBDisablePreparedBinary=true by default")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
		}
	})
}
