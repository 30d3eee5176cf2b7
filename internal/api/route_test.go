package api

import (
	"CraveQuest/internal/api/config"
	"CraveQuest/internal/api/handler"
	"CraveQuest/internal/pkg/metrics"
	"CraveQuest/internal/pkg/security"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *security.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens, err := security.NewTokenManager(config.JWTConfig{Secret: "test", Issuer: "CraveQuest"})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics()
	require.NoError(t, m.Register(reg))
	m.IncJobRun("hot_snapshot_refresh", metrics.StatusSuccess)

	group := &HandlersGroup{
		RankingHandler: handler.NewRankingHandler(nil),
		ValueHandler:   handler.NewValueHandler(nil),
		TrendHandler:   handler.NewTrendHandler(nil),
		RatingHandler:  handler.NewRatingHandler(nil),
	}
	return SetupRouter(group, tokens, reg), tokens
}

func businessCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var body struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestRouter_Ping(t *testing.T) {
	r, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
	assert.Equal(t, 200, businessCode(t, w))
}

func TestRouter_Metrics(t *testing.T) {
	r, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), metrics.MetricJobRunsTotal)
}

func TestRouter_TraceIDPropagated(t *testing.T) {
	r, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("X-Trace-ID", "abc-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get("X-Trace-ID"))
}

func TestRouter_RatingRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/recipes/1/ratings", strings.NewReader(`{"taste":3}`)))
	assert.Equal(t, 401, businessCode(t, w))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/recipes/1/ratings", strings.NewReader(`{"taste":3}`))
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)
	assert.Equal(t, 401, businessCode(t, w))
}

func TestRouter_AdminRequiresRole(t *testing.T) {
	r, tokens := newTestRouter(t)
	token, err := tokens.GenerateToken(9, []string{"USER"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/rankings/invalidate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, 403, businessCode(t, w))
}

func TestRouter_CORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/rankings", nil)
	req.Header.Set("Origin", "https://crave.example")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://crave.example", w.Header().Get("Access-Control-Allow-Origin"))
}
