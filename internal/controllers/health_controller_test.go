package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"seatcheck/internal/testutil"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHealth(open int, driver string, uptime time.Duration) *HealthController {
	hc := NewHealthController(NewResponder(&testutil.MockLogger{}), &testutil.MockOccupancyService{Open: open}, driver)
	started := hc.startedAt
	hc.now = func() time.Time { return started.Add(uptime) }
	return hc
}

func healthBody(t *testing.T, hc *HealthController) map[string]interface{} {
	t.Helper()
	rr := httptest.NewRecorder()
	hc.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestHealth_ReportsGauges(t *testing.T) {
	body := healthBody(t, newHealth(3, "sqlite", 90*time.Minute+1500*time.Millisecond))

	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1h30m1s", body["uptime"])
	assert.Equal(t, float64(5401), body["uptime_seconds"])
	assert.Equal(t, float64(3), body["open_presences"])
	assert.Equal(t, "sqlite", body["storage"])
	assert.Contains(t, body, "started_at")
}

func TestHealth_FreshProcess(t *testing.T) {
	body := healthBody(t, newHealth(0, "memory", 0))

	assert.Equal(t, "0s", body["uptime"])
	assert.Equal(t, float64(0), body["open_presences"])
}
