package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "PriceCast/internal/domain/repository"
	"PriceCast/internal/scheduler"
	"PriceCast/pkg/config"
	xhttp "PriceCast/pkg/http"
	applogger "PriceCast/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	scheduler  *scheduler.Scheduler
	bars       domrepo.BarStore
	publisher  domrepo.ForecastPublisher
}

// New creates a new App instance. sched may be nil when collection is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	bars domrepo.BarStore,
	publisher domrepo.ForecastPublisher,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		scheduler:  sched,
		bars:       bars,
		publisher:  publisher,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if a.scheduler != nil {
		a.scheduler.Start()
		if a.cfg.Collector.Enabled {
			// warm the bar store so forecasts work right after start
			go a.scheduler.RunNow()
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("pricecast started",
		applogger.String("env", a.cfg.Environment),
		applogger.Strings("symbols", a.cfg.Forecast.Symbols),
		applogger.String("bar_store", a.cfg.BarStore.Type),
		applogger.String("model_backend", a.cfg.ModelStore.Backend),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.bars != nil {
		if err := a.bars.Close(); err != nil {
			a.log.Warn("bar store close error", applogger.Error(err))
		}
	}
	a.log.Info("shutdown complete")
	return nil
}
