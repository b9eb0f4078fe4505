package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/domain"
	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/service"
)

type recordedOperation struct {
	domain    string
	operation string
	status    string
}

type recordingMetrics struct {
	mu         sync.Mutex
	operations []recordedOperation
	durations  int
}

func (r *recordingMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operations = append(r.operations, recordedOperation{domain, operation, status})
}

func (r *recordingMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations++
}

func TestExchangeMetricsDecorator(t *testing.T) {
	ctx := context.Background()

	pair, err := service.GenerateKeyPair()
	require.NoError(t, err)

	inner, _ := newExchange(t, &stubLifecycle{pair: pair}, NewHandlerRegistry())

	t.Run("Success", func(t *testing.T) {
		recorder := &recordingMetrics{}
		decorated := NewExchangeMetricsDecorator(inner, recorder)

		envelope, _, _ := sealEnvelope(t, pair.PublicKeyPEM, map[string]any{"action": "ping"})

		_, err := decorated.HandleExchange(ctx, envelope)
		require.NoError(t, err)

		require.Len(t, recorder.operations, 1)
		assert.Equal(t, recordedOperation{"flows", "data_exchange", "success"}, recorder.operations[0])
		assert.Equal(t, 1, recorder.durations)
	})

	t.Run("MalformedRequestStatus", func(t *testing.T) {
		recorder := &recordingMetrics{}
		decorated := NewExchangeMetricsDecorator(inner, recorder)

		_, err := decorated.HandleExchange(ctx, domain.FlowEnvelope{
			EncryptedFlowData: "!!not-base64!!",
		})
		require.Error(t, err)

		require.Len(t, recorder.operations, 1)
		assert.Equal(t, "malformed_request", recorder.operations[0].status)
	})
}

func TestExchangeStatusMapping(t *testing.T) {
	assert.Equal(t, "success", exchangeStatus(nil))
	assert.Equal(t, "key_mismatch", exchangeStatus(domain.ErrKeyMismatch))
	assert.Equal(t, "malformed_payload", exchangeStatus(domain.ErrMalformedPayload))
	assert.Equal(t, "malformed_request", exchangeStatus(domain.ErrMalformedRequest))
	assert.Equal(t, "error", exchangeStatus(assert.AnError))
}
