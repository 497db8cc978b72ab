package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StockSage/internal/domain/models"
	xhttp "StockSage/pkg/http"
	xlogger "StockSage/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHistory struct {
	recs      []models.Recommendation
	healthErr error

	gotSymbol string
	gotLimit  int
}

func (s *stubHistory) Recent(_ context.Context, symbol string, limit int) ([]models.Recommendation, error) {
	s.gotSymbol = symbol
	s.gotLimit = limit
	return s.recs, nil
}

func (s *stubHistory) Health(context.Context) error { return s.healthErr }

func newTestLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	return log
}

func performGET(h *AdvisorEchoHandler, target string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRecentRecommendationsQueriesStore(t *testing.T) {
	now := time.Now()
	hist := &stubHistory{recs: []models.Recommendation{
		{Symbol: "AAPL", Action: models.ActionBuy, RiskTier: models.TierRegular, Confidence: 72, IssuedAt: now},
		{Symbol: "AAPL", Action: models.ActionHold, RiskTier: models.TierRegular, Confidence: 50, IssuedAt: now.Add(-time.Hour)},
	}}
	h := NewAdvisorEchoHandler(newTestLogger(t), nil, hist)

	rec := performGET(h, "/api/recommendations/recent?symbol=aapl&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)

	// The symbol is normalized before hitting the store.
	assert.Equal(t, "AAPL", hist.gotSymbol)
	assert.Equal(t, 5, hist.gotLimit)

	var resp struct {
		Status int                     `json:"status"`
		Data   []models.Recommendation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusOK, resp.Status)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, models.ActionBuy, resp.Data[0].Action)
}

func TestRecentRecommendationsDefaultLimit(t *testing.T) {
	hist := &stubHistory{}
	h := NewAdvisorEchoHandler(newTestLogger(t), nil, hist)

	rec := performGET(h, "/api/recommendations/recent?symbol=MSFT")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, hist.gotLimit)
}

func TestRecentRecommendationsWithoutStore(t *testing.T) {
	h := NewAdvisorEchoHandler(newTestLogger(t), nil, nil)

	rec := performGET(h, "/api/recommendations/recent?symbol=AAPL")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp xhttp.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
}

func TestHealthReportsStorePing(t *testing.T) {
	var resp struct {
		Data map[string]string `json:"data"`
	}

	h := NewAdvisorEchoHandler(newTestLogger(t), nil, &stubHistory{})
	rec := performGET(h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Data["status"])
	assert.Equal(t, "ok", resp.Data["store"])

	h = NewAdvisorEchoHandler(newTestLogger(t), nil, &stubHistory{healthErr: errors.New("dial tcp: connection refused")})
	rec = performGET(h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Data["status"])
	assert.Equal(t, "unreachable", resp.Data["store"])
}

func TestHealthWithoutStore(t *testing.T) {
	h := NewAdvisorEchoHandler(newTestLogger(t), nil, nil)
	rec := performGET(h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Data["status"])
	assert.NotContains(t, resp.Data, "store")
}
