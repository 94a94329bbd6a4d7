package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"PriceCast/internal/domain/repository"
	"PriceCast/internal/handler/api"
	internalrepo "PriceCast/internal/repository"
	"PriceCast/internal/scheduler"
	"PriceCast/internal/service/binance"
	"PriceCast/internal/service/ratelimit"
	"PriceCast/internal/services/modelstore"
	"PriceCast/internal/usecase"
	pkgcache "PriceCast/pkg/cache"
	pkgch "PriceCast/pkg/clickhouse"
	"PriceCast/pkg/config"
	xhttp "PriceCast/pkg/http"
	pkgkafka "PriceCast/pkg/kafka"
	applogger "PriceCast/pkg/logger"
	"PriceCast/pkg/metrics"
	"PriceCast/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry creates a private Prometheus registry with runtime collectors.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideBarStore opens the configured bar store and initializes its schema.
func ProvideBarStore(cfg *config.Config, l *applogger.Logger) (repository.BarStore, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.BarStore.Type {
	case "clickhouse":
		client, err := pkgch.NewClient(ctx,
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		if err := client.InitSchema(ctx, []string{
			"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
		}); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		store := internalrepo.NewCHBarStore(client)
		store.SetLogger(l)
		if err := store.Init(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				l.Warn("clickhouse close error", applogger.Error(err))
			}
		}
		return store, cleanup, nil
	default:
		store, err := internalrepo.NewSQLiteBarStore(cfg.BarStore.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store.SetLogger(l)
		if err := store.Init(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		// App.shutdown closes the store
		return store, func() {}, nil
	}
}

// ProvideModelStore builds the artifact store on the configured backend.
func ProvideModelStore(cfg *config.Config, l *applogger.Logger) (*modelstore.Store, func(), error) {
	switch cfg.ModelStore.Backend {
	case "redis":
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisAddr(cfg.Redis.Addr),
			pkgcache.WithRedisPassword(cfg.Redis.Password),
			pkgcache.WithRedisDB(cfg.Redis.DB),
			pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		cleanup := func() {
			if err := rc.Close(); err != nil {
				l.Warn("redis close error", applogger.Error(err))
			}
		}
		return modelstore.New(modelstore.NewRedisBackend(rc), modelstore.WithLogger(l)), cleanup, nil
	default:
		return modelstore.New(modelstore.NewFileBackend(cfg.ModelStore.ArtifactDir), modelstore.WithLogger(l)), func() {}, nil
	}
}

// ProvideForecastPublisher returns a Kafka publisher, or a no-op one when kafka is disabled.
func ProvideForecastPublisher(cfg *config.Config, reg *prometheus.Registry) (repository.ForecastPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaForecastPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideBinanceClient creates the exchange kline client.
func ProvideBinanceClient(cfg *config.Config, l *applogger.Logger) *binance.Client {
	return binance.New(
		binance.WithBaseURL(cfg.Collector.BinanceURL),
		binance.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Collector.Timeout))),
		binance.WithRateLimit(cfg.Collector.RequestsPerSec),
		binance.WithRetries(cfg.Collector.MaxRetries, 2*cfg.Collector.Timeout),
		binance.WithLogger(l),
	)
}

func ProvideForecastUseCase(
	cfg *config.Config,
	bars repository.BarStore,
	store *modelstore.Store,
	m repository.Metrics,
	pub repository.ForecastPublisher,
	l *applogger.Logger,
) *usecase.ForecastUseCase {
	uc := usecase.NewForecastUseCase(cfg.Forecast, bars, store,
		usecase.WithEngineCache(cfg.ModelStore.CacheTTL),
		usecase.WithMetrics(m),
		usecase.WithPublisher(pub),
		usecase.WithForecastLogger(l),
	)
	store.OnSave(uc.InvalidateEngine)
	return uc
}

func ProvideBarsUseCase(cfg *config.Config, bars repository.BarStore) *usecase.BarsUseCase {
	return usecase.NewBarsUseCase(cfg.Forecast, bars)
}

func ProvideBarCollector(
	cfg *config.Config,
	client *binance.Client,
	bars repository.BarStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.BarCollector {
	return usecase.NewBarCollector(client, bars, cfg.Forecast.Symbols, cfg.BarStore.FetchHours, m, l)
}

// ProvideScheduler registers hourly collection. It returns nil when the collector is disabled.
func ProvideScheduler(cfg *config.Config, collector *usecase.BarCollector, l *applogger.Logger) (*scheduler.Scheduler, error) {
	if !cfg.Collector.Enabled {
		return nil, nil
	}
	timeout := time.Duration(len(cfg.Forecast.Symbols)+1) * 2 * cfg.Collector.Timeout
	s := scheduler.New(collector, timeout, l)
	if err := s.Register(cfg.Collector.Cron); err != nil {
		return nil, err
	}
	return s, nil
}

func ProvideForecastHandler(
	cfg *config.Config,
	l *applogger.Logger,
	forecasts *usecase.ForecastUseCase,
	bars *usecase.BarsUseCase,
	collector *usecase.BarCollector,
) *api.ForecastEchoHandler {
	// one manual collect per symbol per minute
	return api.NewForecastEchoHandler(l, forecasts, bars, collector).
		WithDefaultHorizon(cfg.Forecast.DefaultHorizon).
		WithCollectLimit(ratelimit.New(1.0/60, 1))
}

// ProvideHTTPServer creates the Echo server with routes and /metrics.
func ProvideHTTPServer(cfg *config.Config, h *api.ForecastEchoHandler, reg *prometheus.Registry, l *applogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, reg))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	sched *scheduler.Scheduler,
	bars repository.BarStore,
	pub repository.ForecastPublisher,
) *server.App {
	return server.New(cfg, l, srv, sched, bars, pub)
}

func ProvideBootstrap(cfg *config.Config, store *modelstore.Store, l *applogger.Logger) *usecase.Bootstrap {
	return usecase.NewBootstrap(store, cfg.Forecast.Symbols, l)
}
