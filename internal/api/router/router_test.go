package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	httpmiddleware "github.com/wolfman30/spa-ledger/internal/http/middleware"
	"github.com/wolfman30/spa-ledger/internal/ledger"
	"github.com/wolfman30/spa-ledger/internal/period"
	"github.com/wolfman30/spa-ledger/internal/reports"
	"github.com/wolfman30/spa-ledger/internal/store"
	"github.com/wolfman30/spa-ledger/pkg/logging"
)

const testSecret = "admin-secret"

func newTestRouter(t *testing.T, mutate func(*Config)) http.Handler {
	t.Helper()

	logger := logging.Discard()
	st := store.NewMemoryStore()
	st.Seed([]string{"15/03/2024", "ANA", "spa", "10"})
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.FixedZone("UTC-3", -3*3600))
	svc := ledger.NewService(st, period.Fixed(now), logger, nil)

	cfg := &Config{
		Logger:          logger,
		Reports:         reports.NewHandler(svc, logger),
		AdminAuthSecret: testSecret,
		MetricsHandler:  promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{}),
		TelegramWebhook: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("hook"))
		}),
	}
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg)
}

func adminToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "reception",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestRouterReadyReportsFailingCheck(t *testing.T) {
	router := newTestRouter(t, func(cfg *Config) {
		cfg.ReadyChecks = map[string]Pinger{
			"redis": func(context.Context) error { return nil },
			"store": func(context.Context) error { return errors.New("down") },
		}
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"store":"down"`)
	assert.Contains(t, rr.Body.String(), `"redis":"ok"`)
}

func TestRouterMetricsAndWebhookArePublic(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("{}")))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "hook", rr.Body.String())
}

func TestRouterAPIRequiresToken(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/summary/day", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/summary/day", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Period  struct{ Label string }
		Summary struct{ Count int }
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "o dia 15/03/2024", resp.Period.Label)
	assert.Equal(t, 1, resp.Summary.Count)
}

func TestRouterAPIRateLimited(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	router := newTestRouter(t, func(cfg *Config) {
		cfg.RateLimiter = httpmiddleware.NewRateLimiter(ctx, 0.001, 1)
	})

	codes := make([]int, 0, 2)
	for range 2 {
		req := httptest.NewRequest(http.MethodGet, "/api/procedures", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken(t))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
