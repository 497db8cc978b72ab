//go:build !wireinject
// +build !wireinject

package di

import (
	"StockSage/pkg/config"
	"StockSage/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// It implements the wireinject template in wire.go by calling the
// providers listed in wire.Build in dependency order. Wire cannot
// generate this function because ProvideSink returns two values plus
// an error, which the generator does not support.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	m := ProvideMetrics()
	cache, err := ProvideCache(cfg)
	if err != nil {
		return nil, err
	}
	stream := ProvideStream(cfg, logger)
	provider := ProvidePriceProvider(cfg, cache, stream)
	predictor := ProvidePredictor(cfg)
	sink, history, err := ProvideSink(cfg)
	if err != nil {
		return nil, err
	}
	advisor := ProvideAdvisor(cfg, provider, predictor, sink, m, logger)
	handler := ProvideHandler(logger, advisor, history)
	app := ProvideApp(cfg, logger, advisor, handler, stream)
	return app, nil
}
