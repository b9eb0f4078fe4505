package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider("flows")
	require.NoError(t, err)
	require.NotNil(t, provider)
	defer provider.Shutdown(context.Background())

	assert.NotNil(t, provider.MeterProvider())
	assert.NotNil(t, provider.Handler())
}

func TestProvider_HandlerServesMetrics(t *testing.T) {
	provider, err := NewProvider("flows")
	require.NoError(t, err)
	defer provider.Shutdown(context.Background())

	business, err := NewBusinessMetrics(provider.MeterProvider(), "flows")
	require.NoError(t, err)

	ctx := context.Background()
	business.RecordOperation(ctx, "flows", "data_exchange", "success")
	business.RecordDuration(ctx, "flows", "data_exchange", 25*time.Millisecond, "success")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "flows_operations_total")
}

func TestNoOpBusinessMetrics(t *testing.T) {
	business := NewNoOpBusinessMetrics()

	// Must not panic
	business.RecordOperation(context.Background(), "flows", "data_exchange", "success")
	business.RecordDuration(context.Background(), "flows", "data_exchange", time.Second, "success")
}
