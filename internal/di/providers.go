package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"StockSage/internal/domain/repository"
	dservice "StockSage/internal/domain/service"
	"StockSage/internal/handler/api"
	internalrepo "StockSage/internal/repository"
	"StockSage/internal/service/marketdata"
	"StockSage/internal/services/analytics"
	"StockSage/internal/usecase"
	pkgcache "StockSage/pkg/cache"
	pkgch "StockSage/pkg/clickhouse"
	"StockSage/pkg/config"
	xhttp "StockSage/pkg/http"
	pkgkafka "StockSage/pkg/kafka"
	applogger "StockSage/pkg/logger"
	"StockSage/pkg/metrics"
	"StockSage/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache selects the series cache backend: a layered memory+Redis cache
// when Redis is configured, an in-process LRU otherwise.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}

	host, port, err := splitRedisAddr(cfg.Cache.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, err
	}
	return pkgcache.NewLayeredCache(rc), nil
}

func splitRedisAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

// ProvideStream creates the vendor quote stream when a WebSocket URL is set.
func ProvideStream(cfg *config.Config, log *applogger.Logger) *marketdata.Stream {
	if cfg.Provider.WebSocketURL == "" {
		return nil
	}
	return marketdata.NewStream(
		cfg.Provider.APIKey,
		cfg.Provider.WebSocketURL,
		cfg.Provider.Symbols,
		cfg.Provider.ReconnectDelay,
		cfg.Provider.PingInterval,
		log,
	)
}

// ProvidePriceProvider creates the REST price provider with cache, rate limit
// and optional live snapshot.
func ProvidePriceProvider(cfg *config.Config, cache pkgcache.Service, stream *marketdata.Stream) repository.PriceProvider {
	opts := []marketdata.Option{
		marketdata.WithCache(cache, cfg.Provider.CacheTTL),
	}
	if cfg.Provider.RateCapacity > 0 {
		opts = append(opts, marketdata.WithRateLimit(cfg.Provider.RateCapacity, cfg.Provider.RateRefill))
	}
	if stream != nil {
		opts = append(opts, marketdata.WithStream(stream))
	}
	return marketdata.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.Timeout, opts...)
}

// ProvidePredictor creates the model service client.
func ProvidePredictor(cfg *config.Config) dservice.Predictor {
	return analytics.NewHTTPPredictor(cfg)
}

// ProvideSink builds the recommendation sink for the configured backend and,
// when ClickHouse is part of it, the query-side history over the same store.
// A nil sink disables recording; a nil history disables the read endpoint.
func ProvideSink(cfg *config.Config) (repository.RecommendationSink, repository.RecommendationHistory, error) {
	backend := cfg.Recorder.Backend
	if backend == "" || backend == "none" {
		return nil, nil, nil
	}

	var sinks []repository.RecommendationSink
	var history repository.RecommendationHistory

	if backend == "kafka" || backend == "both" {
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
			pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
			pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
			pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka producer: %w", err)
		}
		sinks = append(sinks, internalrepo.NewKafkaRecommendationPublisher(producer, cfg.Kafka.Topic))
	}

	if backend == "clickhouse" || backend == "both" {
		client, err := provideClickHouseClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		table := cfg.ClickHouse.Database + ".recommendations"
		store := internalrepo.NewClickHouseRecommendationStore(client.DB(), table)
		history = store
		sinks = append(sinks, &closingSink{
			RecommendationSink: store,
			client:             client,
		})
	}

	return internalrepo.NewMultiSink(sinks...), history, nil
}

func provideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".recommendations (" +
			"issued_at DateTime, valid_until DateTime, symbol String, action String, " +
			"risk_tier String, confidence Float64, reasoning String" +
			") ENGINE=MergeTree ORDER BY (symbol, issued_at)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// closingSink ties the ClickHouse pool lifetime to the sink.
type closingSink struct {
	repository.RecommendationSink
	client *pkgch.Client
}

func (s *closingSink) Close() error {
	if err := s.RecommendationSink.Close(); err != nil {
		_ = s.client.Close()
		return err
	}
	return s.client.Close()
}

// ProvideAdvisor creates the advisor use case.
func ProvideAdvisor(
	cfg *config.Config,
	provider repository.PriceProvider,
	predictor dservice.Predictor,
	sink repository.RecommendationSink,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Advisor {
	return usecase.NewAdvisor(cfg, provider, predictor, sink, m, log)
}

// ProvideHandler creates the HTTP route handler.
func ProvideHandler(log *applogger.Logger, advisor *usecase.Advisor, history repository.RecommendationHistory) xhttp.Handler {
	return api.NewAdvisorEchoHandler(log, advisor, history)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	advisor *usecase.Advisor,
	handler xhttp.Handler,
	stream *marketdata.Stream,
) *server.App {
	return server.New(cfg, log, advisor, handler, stream)
}
