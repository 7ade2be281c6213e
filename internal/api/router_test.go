package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/synthlab/backend/internal/api/handlers"
	"github.com/wonny/synthlab/backend/internal/contracts"
	"github.com/wonny/synthlab/backend/internal/history"
	"github.com/wonny/synthlab/backend/internal/prediction"
	"github.com/wonny/synthlab/backend/internal/sessions"
	"github.com/wonny/synthlab/backend/pkg/logger"
	"github.com/wonny/synthlab/backend/pkg/redis"
)

func newTestRouter(t *testing.T, stubDelay time.Duration) http.Handler {
	t.Helper()
	log := logger.Nop()
	rec := history.NewMemoryRecorder()
	manager := sessions.NewManager(prediction.NewStubService(stubDelay), sessions.Options{Recorder: rec}, log)
	t.Cleanup(manager.Close)

	return NewRouter(Deps{
		Sessions:    handlers.NewSessionHandler(manager, log),
		Stats:       handlers.NewStatsHandler(rec, log),
		Limiter:     redis.NewRateLimiter(redis.Disabled(), "synthlab"),
		SubmitLimit: 30,
	}, log)
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	w := do(t, h, "POST", "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	snap := decode[contracts.SessionSnapshot](t, w)
	assert.Equal(t, contracts.StateIdle, snap.State)
	return snap.ID
}

func waitForState(t *testing.T, h http.Handler, id string, want contracts.SessionState) contracts.SessionSnapshot {
	t.Helper()
	var snap contracts.SessionSnapshot
	require.Eventually(t, func() bool {
		snap = decode[contracts.SessionSnapshot](t, do(t, h, "GET", "/api/sessions/"+id, nil))
		return snap.State == want
	}, 2*time.Second, 5*time.Millisecond)
	return snap
}

func TestHealth(t *testing.T) {
	w := do(t, newTestRouter(t, 0), "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestSubmitFlow(t *testing.T) {
	h := newTestRouter(t, 150*time.Millisecond)
	id := createSession(t, h)

	w := do(t, h, "GET", "/api/sessions/"+id+"/comparison", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "POST", "/api/sessions/"+id+"/predictions", map[string]interface{}{
		"symbol": "aapl", "model": "both", "prediction_days": 7,
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	snap := decode[contracts.SessionSnapshot](t, w)
	assert.Equal(t, contracts.StateLoading, snap.State)
	assert.Equal(t, "AAPL", snap.LastRequest.Symbol)

	w = do(t, h, "POST", "/api/sessions/"+id+"/predictions", map[string]interface{}{
		"symbol": "MSFT", "model": "rnn",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	snap = waitForState(t, h, id, contracts.StateResolved)
	assert.Equal(t, "AAPL", snap.LastResult.Symbol)

	w = do(t, h, "GET", "/api/sessions/"+id+"/comparison", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[contracts.ComparisonView](t, w)
	assert.Equal(t, contracts.VariantLSTM, view.OverallWinner)
	assert.Len(t, view.Rows, 4)

	w = do(t, h, "GET", "/api/sessions/"+id+"/chart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	chart := decode[contracts.ChartSeries](t, w)
	assert.Len(t, chart.Points, 7)

	assert.Eventually(t, func() bool {
		stats := decode[contracts.DashboardStats](t, do(t, h, "GET", "/api/stats", nil))
		return stats.PredictionsMade == 1 && stats.ModelsAvailable == 2
	}, time.Second, 5*time.Millisecond)
}

func TestSubmitSupersede(t *testing.T) {
	h := newTestRouter(t, 150*time.Millisecond)
	id := createSession(t, h)

	w := do(t, h, "POST", "/api/sessions/"+id+"/predictions", map[string]interface{}{"symbol": "AAPL", "model": "both"})
	require.Equal(t, http.StatusAccepted, w.Code)

	w = do(t, h, "POST", "/api/sessions/"+id+"/predictions", map[string]interface{}{
		"symbol": "MSFT", "model": "both", "supersede": true,
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, uint64(2), decode[contracts.SessionSnapshot](t, w).Generation)

	snap := waitForState(t, h, id, contracts.StateResolved)
	assert.Equal(t, "MSFT", snap.LastResult.Symbol)
}

func TestSubmitValidation(t *testing.T) {
	h := newTestRouter(t, 0)
	id := createSession(t, h)

	tests := []struct {
		name  string
		body  map[string]interface{}
		code  contracts.ErrorCode
		field string
	}{
		{"missing symbol", map[string]interface{}{"model": "both"}, contracts.CodeMissingField, "symbol"},
		{"missing model", map[string]interface{}{"symbol": "AAPL"}, contracts.CodeMissingField, "model"},
		{"unknown model", map[string]interface{}{"symbol": "AAPL", "model": "gru"}, contracts.CodeInvalidField, "model"},
		{"bad horizon", map[string]interface{}{"symbol": "AAPL", "model": "lstm", "prediction_days": 10}, contracts.CodeInvalidField, "prediction_days"},
		{"bad date", map[string]interface{}{"symbol": "AAPL", "model": "lstm", "date_from": "01/02/2024"}, contracts.CodeInvalidField, "date_from"},
		{"reversed range", map[string]interface{}{"symbol": "AAPL", "model": "lstm", "date_from": "2024-03-01", "date_to": "2024-01-01"}, contracts.CodeInvalidDateRange, "date_to"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "POST", "/api/sessions/"+id+"/predictions", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			resp := decode[handlers.ErrorResponse](t, w)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.field, resp.Field)
		})
	}

	snap := decode[contracts.SessionSnapshot](t, do(t, h, "GET", "/api/sessions/"+id, nil))
	assert.Equal(t, contracts.StateIdle, snap.State)
	assert.Nil(t, snap.LastRequest)
}

func TestSubmitMalformedBody(t *testing.T) {
	h := newTestRouter(t, 0)
	id := createSession(t, h)

	req := httptest.NewRequest("POST", "/api/sessions/"+id+"/predictions", strings.NewReader("{"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownSession(t *testing.T) {
	h := newTestRouter(t, 0)
	for _, path := range []string{"/api/sessions/nope", "/api/sessions/nope/chart", "/api/sessions/nope/comparison"} {
		assert.Equal(t, http.StatusNotFound, do(t, h, "GET", path, nil).Code, path)
	}
	w := do(t, h, "POST", "/api/sessions/nope/predictions", map[string]interface{}{"symbol": "AAPL", "model": "both"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStream(t *testing.T) {
	h := newTestRouter(t, 20*time.Millisecond)
	srv := httptest.NewServer(h)
	defer srv.Close()

	id := createSession(t, h)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + id + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() contracts.SessionSnapshot {
		var snap contracts.SessionSnapshot
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&snap))
		return snap
	}

	assert.Equal(t, contracts.StateIdle, read().State)

	resp, err := http.Post(srv.URL+"/api/sessions/"+id+"/predictions", "application/json",
		strings.NewReader(`{"symbol":"AAPL","model":"both"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	assert.Equal(t, contracts.StateLoading, read().State)
	resolved := read()
	assert.Equal(t, contracts.StateResolved, resolved.State)
	require.NotNil(t, resolved.LastResult)
	assert.Equal(t, "AAPL", resolved.LastResult.Symbol)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSubmitRateLimitMiddleware_Disabled(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	h := submitRateLimitMiddleware(nil, 10, logger.Nop())(next)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/", nil))
	assert.True(t, called)
}
