// Package main runs the sniper core service:
// - Scanner (continuous): new-token feed under a restart supervisor, periodic rescoring
// - Ledger: trade journal restored from durable storage on boot
// - Cron (scheduled): daily stats flush to the analytics store
// - HTTP: control and query API plus Prometheus metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solana-sniper-core/internal/config"
	cronrunner "solana-sniper-core/internal/cron"
	"solana-sniper-core/internal/feed"
	"solana-sniper-core/internal/filter"
	"solana-sniper-core/internal/httpapi"
	"solana-sniper-core/internal/ledger"
	"solana-sniper-core/internal/logger"
	"solana-sniper-core/internal/scanner"
	"solana-sniper-core/internal/storage"
	chstore "solana-sniper-core/internal/storage/clickhouse"
	"solana-sniper-core/internal/storage/memory"
	"solana-sniper-core/internal/storage/migrations"
	pgstore "solana-sniper-core/internal/storage/postgres"
)

// forceExitAfter bounds graceful shutdown once the first signal arrives.
const forceExitAfter = 30 * time.Second

// Server holds all components of the service.
type Server struct {
	cfg    config.Config
	logger *zap.Logger

	journal *ledger.Journal
	filter  *filter.TokenFilter
	scanner *scanner.Scanner

	startedAt time.Time
}

// allStores holds the trade journal backends.
type allStores struct {
	trades storage.TradeLogStore
	// daily is nil when no analytics store is configured.
	daily storage.DailyStatsStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	configPath := flag.String("config", os.Getenv(config.EnvPrefix+"_CONFIG"), "Path to YAML config (optional)")
	envOnly := flag.Bool("env-only", false, "Ignore the config file and read SNIPER_* environment variables only")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envOnly)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("failed to create stores", zap.Error(err))
	}
	defer cleanup()

	server, err := newServer(ctx, cfg, stores, log)
	if err != nil {
		log.Fatal("failed to build server", zap.Error(err))
	}

	// Channel to signal completion
	done := make(chan error, 1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received signal, initiating graceful shutdown", zap.Stringer("signal", sig))
		cancel()

		select {
		case sig := <-sigCh:
			log.Warn("received second signal, forcing immediate shutdown", zap.Stringer("signal", sig))
			os.Exit(1)
		case <-time.After(forceExitAfter):
			log.Error("graceful shutdown timed out, forcing exit", zap.Duration("after", forceExitAfter))
			os.Exit(1)
		case <-done:
		}
	}()

	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("server error", zap.Error(err))
	}
	log.Info("shutdown complete")
}

// newServer builds the ledger, filter and scanner and restores persisted trades.
func newServer(ctx context.Context, cfg config.Config, stores *allStores, log *zap.Logger) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	l := ledger.New(ledger.Options{
		Location:         loc,
		DedupBySignature: cfg.Ledger.DedupBySignature,
		Logger:           log,
	})
	journal := ledger.NewJournal(l, stores.trades, stores.daily, log)
	restored, err := journal.Restore(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore trade journal: %w", err)
	}
	log.Info("trade journal restored", zap.Int("trades", restored))

	tf, err := filter.NewTokenFilter(cfg.FilterSettings(), filter.Options{Logger: log})
	if err != nil {
		return nil, err
	}

	adapter := feed.NewAdapter(feed.Options{
		URL:              cfg.Feed.URL,
		HandshakeTimeout: cfg.Feed.HandshakeTimeout,
		WriteTimeout:     cfg.Feed.WriteTimeout,
		ReadTimeout:      cfg.Feed.ReadTimeout,
		Logger:           log,
	})
	supervised := feed.NewSupervisor(adapter, feed.SupervisorOptions{
		InitialInterval: cfg.Feed.RestartMin,
		MaxInterval:     cfg.Feed.RestartMax,
		MaxElapsedTime:  cfg.Feed.RestartMaxElapsed,
		HealthyAfter:    cfg.Feed.HealthyAfter,
		Logger:          log,
	})
	batch := feed.NewBatchClient(cfg.Feed.BatchURL,
		feed.WithBatchTimeout(cfg.Feed.BatchTimeout),
		feed.WithBatchLogger(log),
	)

	sc := scanner.New(scanner.NewStore(scanner.StoreOptions{Capacity: cfg.Scanner.Capacity}), scanner.Options{
		Feed:   supervised,
		Batch:  batch,
		Scorer: tf,
		Logger: log,
	})
	if err := sc.Configure(cfg.ScannerSettings().AsConfig()); err != nil {
		return nil, err
	}

	return &Server{
		cfg:       cfg,
		logger:    log,
		journal:   journal,
		filter:    tf,
		scanner:   sc,
		startedAt: time.Now(),
	}, nil
}

// createStores picks memory or durable backends. ClickHouse is optional:
// without a DSN, daily stats are flushed to memory in memory mode and
// not flushed at all otherwise.
func createStores(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (*allStores, func(), error) {
	if cfg.UseMemory {
		log.Info("using in-memory storage")
		return &allStores{
			trades: memory.NewTradeLogStore(),
			daily:  memory.NewDailyStatsStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, pgstore.PoolOptions{
		MaxConns:        cfg.PostgresMaxConns,
		MaxConnLifetime: cfg.PostgresConnLife,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if cfg.RunMigrations {
		if err := migrations.RunPostgresMigrations(ctx, pool, log); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}

	stores := &allStores{trades: pgstore.NewTradeLogStore(pool)}
	cleanup := func() { pool.Close() }

	if cfg.ClickhouseDSN == "" {
		log.Warn("clickhouse_dsn not set, daily stats will not be flushed")
		return stores, cleanup, nil
	}

	var conn *chstore.Conn
	if cfg.RunMigrations {
		conn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN, log)
	} else {
		conn, err = chstore.NewConn(ctx, cfg.ClickhouseDSN)
	}
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	stores.daily = chstore.NewDailyStatsStore(conn)

	return stores, func() {
		_ = conn.Close()
		pool.Close()
	}, nil
}

// Run serves HTTP and runs the scheduled jobs until ctx is cancelled or a
// component fails.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting sniper core",
		zap.String("http_addr", s.cfg.Server.HTTPAddr),
		zap.Bool("auto_start", s.cfg.Scanner.AutoStart))

	g, gctx := errgroup.WithContext(ctx)

	if s.cfg.Scanner.AutoStart {
		if err := s.scanner.Start(gctx); err != nil {
			return fmt.Errorf("start scanner: %w", err)
		}
	}

	if s.cfg.Cron.Enabled {
		runner := cronrunner.New(s.logger, gctx)
		if _, err := runner.Add("daily_stats_flush", s.cfg.Cron.DailyStatsFlush, s.flushDailyStats); err != nil {
			return fmt.Errorf("schedule daily stats flush: %w", err)
		}
		runner.Start()
		defer runner.Stop()
	}

	if !s.cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	metricsPath := ""
	if s.cfg.Metrics.Enabled {
		metricsPath = s.cfg.Metrics.Path
	}
	srv := &http.Server{
		Addr: s.cfg.Server.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Scanner:     s.scanner,
			Filter:      s.filter,
			Journal:     s.journal,
			BaseCtx:     gctx,
			MetricsPath: metricsPath,
			StartedAt:   s.startedAt,
			Logger:      s.logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		s.logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("http shutdown", zap.Error(err))
		}

		s.scanner.Stop()

		if err := s.flushDailyStats(shutdownCtx); err != nil {
			s.logger.Warn("final daily stats flush failed", zap.Error(err))
		}
		return gctx.Err()
	})

	return g.Wait()
}

func (s *Server) flushDailyStats(ctx context.Context) error {
	n, err := s.journal.FlushDailyStats(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Debug("daily stats flushed", zap.Int("days", n))
	}
	return nil
}

// loadEnvFile loads environment variables from .env file.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Don't override existing env vars
		if _, set := os.LookupEnv(key); !set {
			_ = os.Setenv(key, value)
		}
	}
}
