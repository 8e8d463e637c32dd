package observability

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker_Status(t *testing.T) {
	checker := NewHealthChecker("1.2.3")

	status := checker.Status()
	assert.Equal(t, StatusUnhealthy, status.Status)
	assert.Nil(t, status.LastBuild)
	assert.Equal(t, "1.2.3", status.Version)

	checker.RecordBuild(4, 0, nil)
	status = checker.Status()
	assert.Equal(t, StatusHealthy, status.Status)
	require.NotNil(t, status.LastBuild)
	assert.Equal(t, 4, status.LastBuild.Generated)

	checker.RecordBuild(3, 1, nil)
	assert.Equal(t, StatusDegraded, checker.Status().Status)

	checker.RecordBuild(0, 0, errors.New("no sources"))
	status = checker.Status()
	assert.Equal(t, StatusDegraded, status.Status)
	assert.Equal(t, "no sources", status.LastBuild.Error)
}

func TestHealthChecker_Liveness(t *testing.T) {
	checker := NewHealthChecker("")

	w := httptest.NewRecorder()
	checker.Liveness(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestHealthChecker_Readiness(t *testing.T) {
	checker := NewHealthChecker("dev")

	w := httptest.NewRecorder()
	checker.Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	checker.RecordBuild(1, 1, nil)

	w = httptest.NewRecorder()
	checker.Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, StatusDegraded, status.Status)
	assert.Equal(t, 1, status.LastBuild.Failed)
}
