package usecase

import (
	"context"
	"time"

	"github.com/rfgrow/vozzysmart1-sub008/internal/errors"
	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/domain"
	"github.com/rfgrow/vozzysmart1-sub008/internal/metrics"
)

// exchangeMetricsDecorator records operation counts and latencies around the
// exchange pipeline without touching its behavior.
type exchangeMetricsDecorator struct {
	next    ExchangeUseCase
	metrics metrics.BusinessMetrics
}

// NewExchangeMetricsDecorator wraps an ExchangeUseCase with business metrics.
func NewExchangeMetricsDecorator(next ExchangeUseCase, m metrics.BusinessMetrics) ExchangeUseCase {
	return &exchangeMetricsDecorator{next: next, metrics: m}
}

func (d *exchangeMetricsDecorator) HandleExchange(
	ctx context.Context,
	envelope domain.FlowEnvelope,
) (string, error) {
	start := time.Now()
	response, err := d.next.HandleExchange(ctx, envelope)
	status := exchangeStatus(err)

	d.metrics.RecordOperation(ctx, "flows", "data_exchange", status)
	d.metrics.RecordDuration(ctx, "flows", "data_exchange", time.Since(start), status)
	return response, err
}

// exchangeStatus maps the error taxonomy to a low-cardinality metric label.
func exchangeStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrKeyMismatch):
		return "key_mismatch"
	case errors.Is(err, domain.ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, domain.ErrMalformedRequest):
		return "malformed_request"
	default:
		return "error"
	}
}

// keyLifecycleMetricsDecorator records operation counts for key lifecycle
// actions. Durations matter less here; the interesting signal is how often
// rotations and operator actions happen.
type keyLifecycleMetricsDecorator struct {
	next    KeyLifecycleUseCase
	metrics metrics.BusinessMetrics
}

// NewKeyLifecycleMetricsDecorator wraps a KeyLifecycleUseCase with business metrics.
func NewKeyLifecycleMetricsDecorator(next KeyLifecycleUseCase, m metrics.BusinessMetrics) KeyLifecycleUseCase {
	return &keyLifecycleMetricsDecorator{next: next, metrics: m}
}

func (d *keyLifecycleMetricsDecorator) EnsureKeyPair(ctx context.Context) (*domain.KeyPair, error) {
	pair, err := d.next.EnsureKeyPair(ctx)
	d.metrics.RecordOperation(ctx, "keys", "ensure", statusFromError(err))
	return pair, err
}

func (d *keyLifecycleMetricsDecorator) RotateOnFailure(ctx context.Context, cause error) {
	d.next.RotateOnFailure(ctx, cause)
	d.metrics.RecordOperation(ctx, "keys", "rotate_on_failure", "attempted")
}

func (d *keyLifecycleMetricsDecorator) GenerateKeyPair(ctx context.Context) (*domain.KeyPair, MetaSyncResult, error) {
	pair, sync, err := d.next.GenerateKeyPair(ctx)
	d.metrics.RecordOperation(ctx, "keys", "generate", statusFromError(err))
	return pair, sync, err
}

func (d *keyLifecycleMetricsDecorator) ImportKeyPair(
	ctx context.Context,
	privatePEM, publicPEM []byte,
) (*domain.KeyPair, MetaSyncResult, error) {
	pair, sync, err := d.next.ImportKeyPair(ctx, privatePEM, publicPEM)
	d.metrics.RecordOperation(ctx, "keys", "import", statusFromError(err))
	return pair, sync, err
}

func (d *keyLifecycleMetricsDecorator) DeleteKeyPair(ctx context.Context) error {
	err := d.next.DeleteKeyPair(ctx)
	d.metrics.RecordOperation(ctx, "keys", "delete", statusFromError(err))
	return err
}

func (d *keyLifecycleMetricsDecorator) Status(ctx context.Context) (*KeyStatus, error) {
	status, err := d.next.Status(ctx)
	d.metrics.RecordOperation(ctx, "keys", "status", statusFromError(err))
	return status, err
}

func statusFromError(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
