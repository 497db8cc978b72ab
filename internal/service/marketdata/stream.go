package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"StockSage/internal/domain/models"
	applogger "StockSage/pkg/logger"

	"github.com/gorilla/websocket"
)

// Stream keeps a latest-quote snapshot per symbol fed by the vendor WebSocket.
type Stream struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *applogger.Logger

	conn      *websocket.Conn
	connected bool

	mu       sync.RWMutex
	snapshot map[string]models.PriceBar
}

// NewStream creates a quote stream for the configured symbols.
func NewStream(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, log *applogger.Logger) *Stream {
	return &Stream{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
		snapshot:       make(map[string]models.PriceBar),
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", s.websocketURL, s.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("stream connect: %w", err)
	}
	s.conn = conn
	s.connected = true
	return nil
}

// Subscribe subscribes to configured symbols.
func (s *Stream) Subscribe(ctx context.Context) error {
	if s.conn == nil || !s.connected {
		return fmt.Errorf("stream not connected")
	}
	for _, sym := range s.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": sym}
		if err := s.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", sym, err)
		}
	}
	return nil
}

type wsTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string    `json:"type"`
	Data []wsTrade `json:"data"`
}

// Run connects, subscribes and keeps the snapshot fresh until ctx is done,
// reconnecting with a fixed delay after read failures.
func (s *Stream) Run(ctx context.Context) {
	for {
		if err := s.Connect(ctx); err != nil {
			s.log.Warn("stream connect failed", applogger.Error(err))
			if !s.sleep(ctx) {
				return
			}
			continue
		}
		if err := s.Subscribe(ctx); err != nil {
			s.log.Warn("stream subscribe failed", applogger.Error(err))
			_ = s.Close()
			if !s.sleep(ctx) {
				return
			}
			continue
		}
		s.log.Info("quote stream connected", applogger.Strings("symbols", s.symbols))

		if err := s.readLoop(ctx); err != nil {
			s.log.Warn("stream read failed", applogger.Error(err))
		}
		_ = s.Close()

		select {
		case <-ctx.Done():
			return
		default:
		}
		if !s.sleep(ctx) {
			return
		}
	}
}

func (s *Stream) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(s.reconnectDelay):
		return true
	}
}

func (s *Stream) readLoop(ctx context.Context) error {
	// ping loop
	pingCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingCtx.Done():
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		_, b, err := s.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("stream read: %w", err)
		}
		var m wsMessage
		if err := json.Unmarshal(b, &m); err != nil {
			// ignore non-trade frames
			continue
		}
		if m.Type != "trade" {
			continue
		}
		s.apply(m.Data)
	}
}

func (s *Stream) apply(trades []wsTrade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range trades {
		ts := time.Unix(t.T/1000, (t.T%1000)*int64(time.Millisecond))
		bar := s.snapshot[t.S]
		if bar.Symbol == "" {
			bar = models.PriceBar{Symbol: t.S, Open: t.P, High: t.P, Low: t.P}
		}
		if t.P > bar.High {
			bar.High = t.P
		}
		if t.P < bar.Low || bar.Low == 0 {
			bar.Low = t.P
		}
		bar.Close = t.P
		bar.Volume += t.V
		bar.Timestamp = ts
		s.snapshot[t.S] = bar
	}
}

// Snapshot returns the latest observed bar for symbol, if any.
func (s *Stream) Snapshot(symbol string) (models.PriceBar, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bar, ok := s.snapshot[symbol]
	return bar, ok
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool { return s.connected }
