package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/mkowalczk/footsync/internal/config"
	"github.com/mkowalczk/footsync/internal/domain/batchreport"
	"github.com/mkowalczk/footsync/internal/domain/statrecord"
	"github.com/mkowalczk/footsync/internal/domain/trackedplayer"
	"github.com/mkowalczk/footsync/internal/domain/usage"
	"github.com/mkowalczk/footsync/internal/engine/cache"
	"github.com/mkowalczk/footsync/internal/engine/quota"
	"github.com/mkowalczk/footsync/internal/engine/reconcile"
	"github.com/mkowalczk/footsync/internal/engine/scheduler"
	"github.com/mkowalczk/footsync/internal/engine/syncer"
	"github.com/mkowalczk/footsync/internal/infrastructure/repository/memory"
	"github.com/mkowalczk/footsync/internal/infrastructure/repository/postgres"
	"github.com/mkowalczk/footsync/internal/interfaces/httpapi"
	"github.com/mkowalczk/footsync/internal/notify"
	"github.com/mkowalczk/footsync/internal/observability"
	"github.com/mkowalczk/footsync/internal/platform/logging"
	"github.com/mkowalczk/footsync/internal/provider"
	"github.com/mkowalczk/footsync/internal/provider/histscrape"
	"github.com/mkowalczk/footsync/internal/provider/sportsio"
)

const shutdownTimeout = 10 * time.Second

// App owns the wired service graph and the lifecycle of everything that
// runs in the background: the HTTP server, the tier scheduler, the pprof
// listener and the telemetry exporters.
type App struct {
	cfg    config.Config
	logger *logging.Logger

	httpServer  *http.Server
	pprofServer *http.Server
	scheduler   *scheduler.Scheduler

	db              *sqlx.DB
	uptraceShutdown func(context.Context) error
	pyroscopeStop   func() error
}

type repositories struct {
	players trackedplayer.Repository
	records statrecord.Repository
	usage   usage.Repository
	reports batchreport.Repository
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	a := &App{cfg: cfg, logger: logger}

	uptraceShutdown, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init uptrace: %w", err)
	}
	a.uptraceShutdown = uptraceShutdown

	pyroscopeStop, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		a.closePartial(ctx)
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}
	a.pyroscopeStop = pyroscopeStop

	pprofServer, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		a.closePartial(ctx)
		return nil, fmt.Errorf("start pprof server: %w", err)
	}
	a.pprofServer = pprofServer

	repos, err := a.buildRepositories(ctx)
	if err != nil {
		a.closePartial(ctx)
		return nil, err
	}

	notifier := a.buildNotifier()
	guard := quota.NewGuard(quota.Config{
		MonthlyCeiling: cfg.QuotaMonthlyCeiling,
		SoftDailyLimit: cfg.QuotaSoftDailyLimit,
	}, repos.usage, notifier, logger)

	store := cache.NewStore(cache.Config{
		DefaultTTL: cfg.CacheDefaultTTL,
		TTLByClass: cfg.CacheTTLByClass,
	})

	reconciler, err := reconcile.New(reconcile.DefaultPrecedence())
	if err != nil {
		a.closePartial(ctx)
		return nil, fmt.Errorf("build reconciler: %w", err)
	}

	adapters := a.buildAdapters()

	syncService, err := syncer.NewService(
		adapters,
		guard,
		store,
		reconciler,
		repos.players,
		repos.records,
		repos.reports,
		notifier,
		syncer.Config{
			Season:       cfg.SyncSeason,
			MaxWorkers:   cfg.SyncMaxWorkers,
			MaxAttempts:  cfg.SyncMaxAttempts,
			RetryBackoff: cfg.SyncRetryBackoff,
		},
		logger,
	)
	if err != nil {
		a.closePartial(ctx)
		return nil, fmt.Errorf("build sync service: %w", err)
	}

	if cfg.SchedulerEnabled {
		plan, err := cfg.SchedulePlan()
		if err != nil {
			a.closePartial(ctx)
			return nil, fmt.Errorf("build schedule plan: %w", err)
		}
		sched, err := scheduler.New(plan, repos.players, syncService, scheduler.Config{
			TickInterval: cfg.SchedulerTickInterval,
		}, logger)
		if err != nil {
			a.closePartial(ctx)
			return nil, fmt.Errorf("build scheduler: %w", err)
		}
		a.scheduler = sched
	}

	handler := httpapi.NewHandler(syncService, guard, a.scheduler, repos.reports, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	a.httpServer = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return a, nil
}

// Run starts the background loops and blocks until ctx is cancelled or
// the HTTP server fails. Shutdown is graceful on both paths.
func (a *App) Run(ctx context.Context) error {
	schedulerCtx, cancelScheduler := context.WithCancel(context.Background())
	defer cancelScheduler()

	schedulerDone := make(chan struct{})
	if a.scheduler != nil {
		go func() {
			defer close(schedulerDone)
			if err := a.scheduler.Run(schedulerCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("scheduler stopped", "error", err)
			}
		}()
	} else {
		close(schedulerDone)
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		runErr = fmt.Errorf("http server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown failed", "error", err)
		if runErr == nil {
			runErr = fmt.Errorf("http server shutdown: %w", err)
		}
	}

	cancelScheduler()
	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
		a.logger.Warn("scheduler did not stop before shutdown deadline")
	}

	a.closePartial(shutdownCtx)
	a.logger.Info("http server stopped")

	return runErr
}

func (a *App) buildRepositories(ctx context.Context) (repositories, error) {
	if a.cfg.DBURL == "" {
		a.logger.Info("no database configured, using in-memory repositories")
		return repositories{
			players: memory.NewTrackedPlayerRepository(memory.SeedTrackedPlayers()),
			records: memory.NewStatRecordRepository(),
			usage:   memory.NewUsageRepository(),
			reports: memory.NewBatchReportRepository(),
		}, nil
	}

	dsn := normalizeDBURL(a.cfg.DBURL, a.cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return repositories{}, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return repositories{}, fmt.Errorf("ping database: %w", err)
	}

	if err := postgres.BootstrapSeed(ctx, db); err != nil {
		_ = db.Close()
		return repositories{}, fmt.Errorf("bootstrap seed: %w", err)
	}

	a.db = db
	a.logger.Info("database connected", "db", dbNameFromURL(dsn))

	return repositories{
		players: postgres.NewTrackedPlayerRepository(db),
		records: postgres.NewStatRecordRepository(db),
		usage:   postgres.NewUsageRepository(db),
		reports: postgres.NewBatchReportRepository(db),
	}, nil
}

func (a *App) buildNotifier() notify.Notifier {
	if !a.cfg.WebhookEnabled {
		return notify.NopNotifier{}
	}

	return notify.NewWebhookNotifier(notify.WebhookConfig{
		URL:            a.cfg.WebhookURL,
		Token:          a.cfg.WebhookToken,
		Timeout:        a.cfg.WebhookTimeout,
		CircuitBreaker: a.cfg.WebhookCircuitBreaker,
	}, a.logger)
}

func (a *App) buildAdapters() []provider.Adapter {
	var adapters []provider.Adapter

	if a.cfg.SportsIOEnabled {
		adapters = append(adapters, sportsio.NewClient(sportsio.ClientConfig{
			BaseURL:        a.cfg.SportsIOBaseURL,
			APIKey:         a.cfg.SportsIOAPIKey,
			Timeout:        a.cfg.SportsIOTimeout,
			RatePerSecond:  a.cfg.SportsIORatePerSecond,
			RateBurst:      a.cfg.SportsIORateBurst,
			CircuitBreaker: a.cfg.SportsIOCircuitBreaker,
		}, a.logger))
	}

	if a.cfg.HistScrapeEnabled {
		adapters = append(adapters, histscrape.NewClient(histscrape.ClientConfig{
			BaseURL:        a.cfg.HistScrapeBaseURL,
			Timeout:        a.cfg.HistScrapeTimeout,
			RateEvery:      a.cfg.HistScrapeRateEvery,
			CircuitBreaker: a.cfg.HistScrapeCircuitBreaker,
		}, a.logger))
	}

	return adapters
}

// closePartial releases whatever has been initialized so far. Safe to
// call more than once; every teardown hook is cleared after use.
func (a *App) closePartial(ctx context.Context) {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("close database", "error", err)
		}
		a.db = nil
	}

	if a.pprofServer != nil {
		if err := observability.StopPprofServer(a.pprofServer, a.logger, 5*time.Second); err != nil {
			a.logger.Error("stop pprof server", "error", err)
		}
		a.pprofServer = nil
	}

	if a.pyroscopeStop != nil {
		if err := a.pyroscopeStop(); err != nil {
			a.logger.Error("stop pyroscope", "error", err)
		}
		a.pyroscopeStop = nil
	}

	if a.uptraceShutdown != nil {
		if err := a.uptraceShutdown(ctx); err != nil {
			a.logger.Error("shutdown uptrace", "error", err)
		}
		a.uptraceShutdown = nil
	}
}
