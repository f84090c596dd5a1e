package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devrev/timeline/internal/model"
	"github.com/devrev/timeline/internal/store"
)

// stubStream is an EventStream whose ping result is controlled by the test
type stubStream struct {
	pingErr error
}

func (s *stubStream) Append(ctx context.Context, event *model.ChangeEvent) error { return nil }
func (s *stubStream) Ping(ctx context.Context) error                             { return s.pingErr }
func (s *stubStream) Close() error                                               { return nil }

func TestLivenessHandler(t *testing.T) {
	hc := NewHealthChecker(nil, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()

	hc.LivenessHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "alive", status.Status)
}

func TestReadinessHandler_AllHealthy(t *testing.T) {
	recordStore := store.NewInMemorySortedStore(zap.NewNop())
	hc := NewHealthChecker(recordStore, &stubStream{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()

	hc.ReadinessHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ready", status.Status)
	assert.Equal(t, "healthy", status.Checks["record_store"])
	assert.Equal(t, "healthy", status.Checks["event_stream"])
}

func TestReadinessHandler_StreamDown(t *testing.T) {
	recordStore := store.NewInMemorySortedStore(zap.NewNop())
	hc := NewHealthChecker(recordStore, &stubStream{pingErr: errors.New("connection refused")}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()

	hc.ReadinessHandler(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "not_ready", status.Status)
	assert.Equal(t, "healthy", status.Checks["record_store"])
	assert.Contains(t, status.Checks["event_stream"], "unhealthy")
}
