//go:build wireinject
// +build wireinject

package di

import (
	"StockSage/pkg/config"
	"StockSage/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient services
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,

		// Market data and model clients
		ProvideStream,
		ProvidePriceProvider,
		ProvidePredictor,

		// Recommendation recording
		ProvideSink,

		// Use cases
		ProvideAdvisor,

		// HTTP surface
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
