//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"PriceCast/internal/usecase"
	"PriceCast/pkg/config"
	"PriceCast/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure
		ProvideBarStore,
		ProvideModelStore,
		ProvideForecastPublisher,
		ProvideBinanceClient,

		// Use cases
		ProvideForecastUseCase,
		ProvideBarsUseCase,
		ProvideBarCollector,
		ProvideScheduler,

		// HTTP
		ProvideForecastHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeBootstrap wires the placeholder bootstrap job.
func InitializeBootstrap(cfg *config.Config) (*usecase.Bootstrap, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideModelStore,
		ProvideBootstrap,
	)
	return nil, nil, nil
}
