package marketdata

import (
	"context"
	"fmt"
	"time"

	"StockSage/internal/domain/models"
	drepo "StockSage/internal/domain/repository"
	"StockSage/internal/domain/service"
	"StockSage/internal/service/ratelimit"
	"StockSage/pkg/cache"
	xhttp "StockSage/pkg/http"
)

// Client implements repository.PriceProvider over the vendor's REST API with
// a read-through cache and a token-bucket rate limit. When a Stream is
// attached, GetLatest prefers its snapshot over a REST round trip.
type Client struct {
	baseURL  string
	apiKey   string
	http     *xhttp.Client
	cache    cache.Service
	cacheTTL time.Duration
	limiter  *ratelimit.Limiter
	capacity float64
	refill   float64
	stream   *Stream
}

// Option configures Client.
type Option func(*Client)

// WithCache attaches a read-through cache for series responses.
func WithCache(c cache.Service, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

// WithRateLimit bounds outbound request rate.
func WithRateLimit(capacity, refillPerSec float64) Option {
	return func(cl *Client) {
		cl.limiter = ratelimit.New()
		cl.capacity = capacity
		cl.refill = refillPerSec
	}
}

// WithStream attaches a quote stream used as the latest-price source.
func WithStream(s *Stream) Option {
	return func(cl *Client) { cl.stream = s }
}

// NewClient creates a price provider client.
func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// candleResponse is the columnar bar payload of the vendor API.
type candleResponse struct {
	Timestamps []int64   `json:"t"`
	Opens      []float64 `json:"o"`
	Highs      []float64 `json:"h"`
	Lows       []float64 `json:"l"`
	Closes     []float64 `json:"c"`
	Volumes    []float64 `json:"v"`
	Status     string    `json:"s"`
}

// GetSeries fetches the bar history for symbol, serving from cache when fresh.
func (c *Client) GetSeries(ctx context.Context, symbol string, period drepo.Period, interval drepo.Interval) (models.PriceSeries, error) {
	key := cache.GenerateKeyWithParams("series", symbol, period, interval)

	if c.cache != nil {
		var series models.PriceSeries
		if err := c.cache.Get(ctx, key, &series); err == nil && len(series) > 0 {
			return series, nil
		}
	}

	if c.limiter != nil && !c.limiter.Allow("provider", c.capacity, c.refill) {
		return nil, service.NewExternalError("fetch_series", symbol, fmt.Errorf("provider rate limit exceeded"))
	}

	var resp candleResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/candles",
		QueryParams: map[string][]string{
			"symbol":   {symbol},
			"period":   {string(period)},
			"interval": {string(interval)},
			"token":    {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, service.NewExternalError("fetch_series", symbol, err)
	}
	if resp.Status != "" && resp.Status != "ok" {
		return nil, service.NewExternalError("fetch_series", symbol, fmt.Errorf("provider status %q", resp.Status))
	}

	series := make(models.PriceSeries, 0, len(resp.Closes))
	for i := range resp.Closes {
		bar := models.PriceBar{Symbol: symbol, Close: resp.Closes[i]}
		if i < len(resp.Timestamps) {
			bar.Timestamp = time.Unix(resp.Timestamps[i], 0).UTC()
		}
		if i < len(resp.Opens) {
			bar.Open = resp.Opens[i]
		}
		if i < len(resp.Highs) {
			bar.High = resp.Highs[i]
		}
		if i < len(resp.Lows) {
			bar.Low = resp.Lows[i]
		}
		if i < len(resp.Volumes) {
			bar.Volume = resp.Volumes[i]
		}
		series = append(series, bar)
	}

	if c.cache != nil && len(series) > 0 {
		_ = c.cache.Set(ctx, key, series, c.cacheTTL)
	}
	return series, nil
}

// quoteResponse is the latest-quote payload of the vendor API.
type quoteResponse struct {
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Current   float64 `json:"c"`
	Volume    float64 `json:"v"`
	Timestamp int64   `json:"t"`
}

// GetLatest returns the most recent bar for symbol. The live stream snapshot
// wins when available; otherwise the REST quote endpoint is consulted.
func (c *Client) GetLatest(ctx context.Context, symbol string) (models.PriceBar, error) {
	if c.stream != nil {
		if bar, ok := c.stream.Snapshot(symbol); ok {
			return bar, nil
		}
	}

	if c.limiter != nil && !c.limiter.Allow("provider", c.capacity, c.refill) {
		return models.PriceBar{}, service.NewExternalError("fetch_quote", symbol, fmt.Errorf("provider rate limit exceeded"))
	}

	var resp quoteResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/quote",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"token":  {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return models.PriceBar{}, service.NewExternalError("fetch_quote", symbol, err)
	}

	return models.PriceBar{
		Timestamp: time.Unix(resp.Timestamp, 0).UTC(),
		Symbol:    symbol,
		Open:      resp.Open,
		High:      resp.High,
		Low:       resp.Low,
		Close:     resp.Current,
		Volume:    resp.Volume,
	}, nil
}
