package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/165cm/fxarchive/internal/adapters"
	"github.com/165cm/fxarchive/internal/adapters/cache"
	"github.com/165cm/fxarchive/internal/adapters/frankfurter"
	"github.com/165cm/fxarchive/internal/adapters/fsstore"
	"github.com/165cm/fxarchive/internal/adapters/notify"
	"github.com/165cm/fxarchive/internal/adapters/retrypolicy"
	"github.com/165cm/fxarchive/internal/api"
	"github.com/165cm/fxarchive/internal/config"
	"github.com/165cm/fxarchive/internal/domain"
	httpserver "github.com/165cm/fxarchive/internal/platform/http"
	"github.com/165cm/fxarchive/internal/rate"
	"github.com/165cm/fxarchive/internal/rate/handler"
)

type components struct {
	store    *fsstore.Store
	cache    *cache.RistrettoRateCache
	updater  *rate.Updater
	resolver *rate.Resolver
	verifier *rate.Integrity
	notifier adapters.Notifier
}

func build(cfg *config.AppConfig) (*components, error) {
	store := fsstore.New(fsstore.Config{
		BaseDir:       cfg.Storage.BaseDir,
		CurrentDir:    cfg.Storage.CurrentDir,
		HistoricalDir: cfg.Storage.HistoricalDir,
	})

	httpTimeout := time.Duration(cfg.RatesAPI.TimeoutSeconds) * time.Second
	if httpTimeout <= 0 {
		httpTimeout = 10 * time.Second
	}
	client := frankfurter.NewClient(&http.Client{Timeout: httpTimeout}, cfg.RatesAPI.BaseURL)

	rateCache, err := cache.NewRateCache(cfg.Resolver.CacheSize)
	if err != nil {
		return nil, err
	}

	var policy adapters.RetryPolicy = retrypolicy.None{}
	if cfg.Updater.RetryMax > 0 {
		policy = retrypolicy.Fibonacci{Base: time.Second, MaxRetries: uint64(cfg.Updater.RetryMax)}
	}

	updater := rate.NewUpdater(
		store,
		client,
		policy,
		rateCache,
		time.Duration(cfg.Updater.PaceMillis)*time.Millisecond,
		cfg.Updater.BootstrapDays,
	)

	return &components{
		store:    store,
		cache:    rateCache,
		updater:  updater,
		resolver: rate.NewResolver(store, rateCache, cfg.Resolver.DefaultRate),
		verifier: rate.NewIntegrity(store),
		notifier: notify.NewLogNotifier("fxarchive-updater"),
	}, nil
}

func initConfig() (*config.AppConfig, error) {
	cfg, err := config.Init()
	if err != nil {
		return nil, err
	}

	logrus.SetOutput(os.Stdout)
	if parsedLvl, parseErr := logrus.ParseLevel(cfg.Logging.Level); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	logrus.Info("✅ Config initialization successful")
	return cfg, nil
}

// Run wires the application components, starts the HTTP server and the
// daily update scheduler.
func Run() error {
	cfg, err := initConfig()
	if err != nil {
		return err
	}

	// Root context bound to OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps, err := build(cfg)
	if err != nil {
		logrus.WithError(err).Error("Failed to build components")
		return err
	}
	defer comps.cache.Close()

	if cfg.Scheduler.Enabled {
		scheduler := rate.NewScheduler(comps.updater, comps.notifier, cfg.Scheduler.Cron)
		defer func() {
			if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
				logrus.Errorf("Scheduler shutdown error: %v", shutDownErr)
			}
		}()
		if startErr := scheduler.Start(ctx); startErr != nil {
			logrus.WithError(startErr).Error("Failed to start scheduler")
			return startErr
		}
		logrus.Info("✅ Scheduler activation successful")
	}

	rateHandler := handler.NewHandler(comps.updater, comps.resolver, comps.verifier, comps.notifier)
	router := api.NewRouter(rateHandler)

	logrus.Info("Starting http server")
	if serverErr := httpserver.Start(ctx, cfg.HTTPServer, router); serverErr != nil {
		stop()
		logrus.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}

// RunOnce executes a single update and exits, the CLI path a cron or
// operator uses. A non-empty fromDate re-fetches from that day on.
func RunOnce(fromDate string) error {
	cfg, err := initConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps, err := build(cfg)
	if err != nil {
		logrus.WithError(err).Error("Failed to build components")
		return err
	}
	defer comps.cache.Close()

	var from *domain.Date
	if fromDate != "" {
		d, parseErr := domain.ParseDate(fromDate)
		if parseErr != nil {
			return parseErr
		}
		from = &d
	}

	execID := uuid.NewString()
	res, runErr := comps.updater.Run(ctx, from)
	if runErr != nil {
		comps.notifier.NotifyError(ctx, runErr)
		return runErr
	}
	logrus.Infof("Update run %s wrote %d day(s) over %s..%s", execID, res.DaysWritten, res.Start, res.End)
	return nil
}
