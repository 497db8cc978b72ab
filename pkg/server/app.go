package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"StockSage/internal/service/marketdata"
	"StockSage/internal/usecase"
	"StockSage/pkg/config"
	xhttp "StockSage/pkg/http"
	applogger "StockSage/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	advisor    *usecase.Advisor
	handler    xhttp.Handler
	stream     *marketdata.Stream
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	advisor *usecase.Advisor,
	handler xhttp.Handler,
	stream *marketdata.Stream,
) *App {
	return &App{
		cfg:     cfg,
		log:     log,
		advisor: advisor,
		handler: handler,
		stream:  stream,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.log, a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Keep the live quote snapshot warm when a stream is configured.
	if a.stream != nil {
		go a.stream.Run(ctx)
		a.log.Info("quote stream starting", applogger.Strings("symbols", a.cfg.Provider.Symbols))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("advisor serving", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.stream != nil {
		if err := a.stream.Close(); err != nil {
			a.log.Warn("stream close error", applogger.Error(err))
		}
	}

	// Release the recommendation sink (Kafka producer, ClickHouse pool).
	a.advisor.Close()

	a.log.Info("shutdown complete")
	return nil
}
