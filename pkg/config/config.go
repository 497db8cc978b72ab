package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Recorder struct {
		Backend string `yaml:"backend"` // kafka, clickhouse, both, none
	} `yaml:"recorder"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Provider struct {
		BaseURL        string        `yaml:"base_url"`
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		Timeout        time.Duration `yaml:"timeout"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		CacheTTL       time.Duration `yaml:"cache_ttl"`
		RateCapacity   float64       `yaml:"rate_capacity"`
		RateRefill     float64       `yaml:"rate_refill_per_sec"`
	} `yaml:"provider"`
	Predictor struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
		Retries int           `yaml:"retries"`
	} `yaml:"predictor"`
	Cache struct {
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Analysis Analysis `yaml:"analysis"`
}

// Analysis holds the model constants used across indicator, risk and
// recommendation computations. Values default to the calibrated set but stay
// overridable from YAML.
type Analysis struct {
	RiskFreeRate      float64 `yaml:"risk_free_rate"`
	MarketReturn      float64 `yaml:"market_return"`
	MarketVolatility  float64 `yaml:"market_volatility"`
	MarketCorrelation float64 `yaml:"market_correlation"`
	ActionThreshold   float64 `yaml:"action_threshold"`
	MismatchPenalty   float64 `yaml:"mismatch_penalty"`
	MaxBatchSymbols   int     `yaml:"max_batch_symbols"`
	BatchWorkers      int     `yaml:"batch_workers"`
	Confidence        struct {
		MATrend   float64 `yaml:"ma_trend"`
		RSI       float64 `yaml:"rsi"`
		MACD      float64 `yaml:"macd"`
		Bollinger float64 `yaml:"bollinger"`
		Volume    float64 `yaml:"volume"`
	} `yaml:"confidence"`
}

func defaultAnalysis() Analysis {
	a := Analysis{
		RiskFreeRate:      0.02,
		MarketReturn:      0.10,
		MarketVolatility:  0.16,
		MarketCorrelation: 0.7,
		ActionThreshold:   0.02,
		MismatchPenalty:   0.8,
		MaxBatchSymbols:   50,
		BatchWorkers:      8,
	}
	a.Confidence.MATrend = 0.8
	a.Confidence.RSI = 0.7
	a.Confidence.MACD = 0.75
	a.Confidence.Bollinger = 0.65
	a.Confidence.Volume = 0.6
	return a
}

// applyDefaults fills zero-valued analysis constants with the calibrated set.
func (c *Config) applyDefaults() {
	def := defaultAnalysis()
	a := &c.Analysis
	if a.RiskFreeRate == 0 {
		a.RiskFreeRate = def.RiskFreeRate
	}
	if a.MarketReturn == 0 {
		a.MarketReturn = def.MarketReturn
	}
	if a.MarketVolatility == 0 {
		a.MarketVolatility = def.MarketVolatility
	}
	if a.MarketCorrelation == 0 {
		a.MarketCorrelation = def.MarketCorrelation
	}
	if a.ActionThreshold == 0 {
		a.ActionThreshold = def.ActionThreshold
	}
	if a.MismatchPenalty == 0 {
		a.MismatchPenalty = def.MismatchPenalty
	}
	if a.MaxBatchSymbols <= 0 || a.MaxBatchSymbols > def.MaxBatchSymbols {
		a.MaxBatchSymbols = def.MaxBatchSymbols
	}
	if a.BatchWorkers <= 0 {
		a.BatchWorkers = def.BatchWorkers
	}
	if a.Confidence.MATrend == 0 {
		a.Confidence = def.Confidence
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PROVIDER_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("PROVIDER_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Provider.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("PREDICTOR_URL"); v != "" {
		c.Predictor.URL = v
	}
	if v := os.Getenv("RECORDER_BACKEND"); v != "" {
		c.Recorder.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Enabled = true
		c.Cache.Redis.Addr = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Recorder.Backend {
	case "", "none", "kafka", "clickhouse", "both":
	default:
		return fmt.Errorf("recorder.backend must be 'kafka', 'clickhouse', 'both' or 'none', got '%s'", c.Recorder.Backend)
	}
	if c.Recorder.Backend == "kafka" || c.Recorder.Backend == "both" {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when recorder.backend is '%s'", c.Recorder.Backend)
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when recorder.backend is '%s'", c.Recorder.Backend)
		}
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if len(c.Provider.Symbols) == 0 {
		return fmt.Errorf("provider.symbols cannot be empty")
	}
	if c.Predictor.URL == "" {
		return fmt.Errorf("predictor.url is required")
	}
	if c.Analysis.ActionThreshold < 0 {
		return fmt.Errorf("analysis.action_threshold must be non-negative")
	}
	if c.Analysis.MismatchPenalty <= 0 || c.Analysis.MismatchPenalty > 1 {
		return fmt.Errorf("analysis.mismatch_penalty must be in (0, 1]")
	}
	return nil
}
