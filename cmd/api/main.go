package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ronaldoarch/postenobicho-sub001/internal/config"
	"github.com/ronaldoarch/postenobicho-sub001/internal/identity"
	"github.com/ronaldoarch/postenobicho-sub001/internal/infra"
	"github.com/ronaldoarch/postenobicho-sub001/internal/logging"
	"github.com/ronaldoarch/postenobicho-sub001/internal/notification"
	"github.com/ronaldoarch/postenobicho-sub001/internal/payout"
	"github.com/ronaldoarch/postenobicho-sub001/internal/quotation"
	"github.com/ronaldoarch/postenobicho-sub001/internal/routes"
	"github.com/ronaldoarch/postenobicho-sub001/internal/server"
	"github.com/ronaldoarch/postenobicho-sub001/internal/store"
)

const usage = `usage: api [command]

commands:
  serve                  run the HTTP API (default)
  migrate up             apply pending migrations
  migrate down [n]       roll back n migrations (default 1)
  migrate status         print the schema version
  payouts correct        run one payout correction pass`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogPretty)

	if err := run(cfg, logger, os.Args[1:]); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func run(cfg config.Config, logger zerolog.Logger, args []string) error {
	if len(args) == 0 {
		return serve(cfg, logger)
	}
	switch args[0] {
	case "serve":
		return serve(cfg, logger)
	case "migrate":
		return migrateCmd(cfg, logger, args[1:])
	case "payouts":
		if len(args) < 2 || args[1] != "correct" {
			return errors.New(usage)
		}
		return correctPayouts(cfg, logger)
	case "help", "-h", "--help":
		fmt.Println(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func migrateCmd(cfg config.Config, logger zerolog.Logger, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	switch args[0] {
	case "up":
		changed, err := infra.MigrateUp(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		logger.Info().Bool("changed", changed).Msg("migrations applied")
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid step count %q", args[1])
			}
			steps = n
		}
		if err := infra.MigrateDown(cfg.DatabaseURL, steps); err != nil {
			return err
		}
		logger.Info().Int("steps", steps).Msg("migrations rolled back")
	case "status":
		status, err := infra.MigrateStatusOf(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t applied=%t\n", status.Version, status.Dirty, status.Applied)
	default:
		return fmt.Errorf("unknown migrate command %q\n%s", args[0], usage)
	}
	return nil
}

// deps holds the long-lived collaborators shared by serve and the CLI jobs.
type deps struct {
	db        *pgxpool.Pool
	cache     *redis.Client
	store     store.Store
	quotes    *quotation.Resolver
	corrector *payout.Corrector
}

func (d deps) close(logger zerolog.Logger) {
	if d.cache != nil {
		if err := d.cache.Close(); err != nil {
			logger.Warn().Err(err).Msg("close redis")
		}
	}
	d.db.Close()
}

func connect(ctx context.Context, cfg config.Config, logger zerolog.Logger) (deps, error) {
	db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL, infra.PoolOptions{
		MaxConns:        cfg.DatabaseMaxConns,
		LockTimeout:     cfg.DatabaseLockWait,
		ApplicationName: cfg.AppName,
	})
	if err != nil {
		return deps{}, err
	}
	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		db.Close()
		return deps{}, err
	}

	st := store.NewPostgres(db, store.Options{MaxRetries: cfg.Ledger.MaxRetries, Logger: logger})
	quotes := quotation.NewResolver(quotation.NewPostgresCatalog(db))
	if err := quotes.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial quotation load failed, serving empty catalog")
	}

	opts := []payout.Option{
		payout.WithTolerance(cfg.Payout.Tolerance),
		payout.WithBatchSize(cfg.Payout.BatchSize),
	}
	if cache != nil {
		opts = append(opts, payout.WithLock(infra.NewRedisLocker(cache), cfg.Payout.LockTTL))
	}

	return deps{
		db:        db,
		cache:     cache,
		store:     st,
		quotes:    quotes,
		corrector: payout.NewCorrector(st.Wagers(), quotes, logger, opts...),
	}, nil
}

func correctPayouts(cfg config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.close(logger)

	report, err := d.corrector.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("scanned=%d corrected=%d skipped=%d\n", report.Scanned, report.Corrected, report.Skipped)
	return nil
}

func serve(cfg config.Config, logger zerolog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.close(logger)

	go d.quotes.RefreshEvery(ctx, cfg.Quotation.RefreshInterval, logger)

	srv, err := server.New(routes.Deps{
		Cfg:       cfg,
		DB:        d.db,
		Cache:     d.cache,
		Logger:    logger,
		Store:     d.store,
		Identity:  identity.NewPostgresRepository(d.db),
		Quotes:    d.quotes,
		Corrector: d.corrector,
		Notifier:  notification.NewLoggerNotifier(logger),
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-srvErrCh:
		return err
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info().Msg("server exited cleanly")
	return nil
}
