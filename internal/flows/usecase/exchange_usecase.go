package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rfgrow/vozzysmart1-sub008/internal/errors"
	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/domain"
	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/service"
)

// genericHandlerError is the message encrypted into the response when the
// business handler fails. Internal error details never reach the wire.
const genericHandlerError = "unable to process request"

// rotationTimeout bounds the detached rotation attempt kicked off after a
// key-mismatch failure.
const rotationTimeout = 30 * time.Second

// exchangeUseCase implements ExchangeUseCase.
type exchangeUseCase struct {
	codec    *service.ProtocolCodec
	keys     KeyLifecycleUseCase
	registry *HandlerRegistry
	logger   *slog.Logger

	// rotateDone is signalled after each detached rotation attempt. Nil in
	// production; tests set it to observe the goroutine.
	rotateDone chan<- struct{}
}

// NewExchangeUseCase creates a new ExchangeUseCase.
func NewExchangeUseCase(
	codec *service.ProtocolCodec,
	keys KeyLifecycleUseCase,
	registry *HandlerRegistry,
	logger *slog.Logger,
) ExchangeUseCase {
	return &exchangeUseCase{
		codec:    codec,
		keys:     keys,
		registry: registry,
		logger:   logger,
	}
}

// HandleExchange decrypts the envelope, dispatches the request, and encrypts
// the response under the same AES key with the flipped IV.
//
// A key-mismatch failure schedules a cooldown-gated rotation in the
// background and still fails the current request: the sender holds a stale
// public key and must re-fetch it before retrying.
func (u *exchangeUseCase) HandleExchange(
	ctx context.Context,
	envelope domain.FlowEnvelope,
) (string, error) {
	pair, err := u.keys.EnsureKeyPair(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to obtain key pair: %w", err)
	}

	privateKey, err := service.ParsePrivateKey(pair.PrivateKeyPEM)
	if err != nil {
		return "", fmt.Errorf("stored private key is unusable: %w", err)
	}

	exchange, err := u.codec.Decrypt(envelope, privateKey)
	if err != nil {
		if errors.Is(err, domain.ErrKeyMismatch) {
			u.scheduleRotation(err)
		}
		return "", err
	}
	defer exchange.Discard()

	responseBody := u.dispatch(ctx, exchange.Request)

	encrypted, err := u.codec.Encrypt(responseBody, exchange.AESKey, exchange.IV)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt response: %w", err)
	}
	return encrypted, nil
}

// dispatch routes the decrypted request. Ping is answered directly; every
// other action goes through the handler registry. Handler failures and
// missing handlers collapse into the generic encrypted error payload, so the
// wire contract of an encrypted 200 body holds even then.
func (u *exchangeUseCase) dispatch(ctx context.Context, request *domain.ExchangeRequest) any {
	if request.Action == domain.ActionPing {
		return domain.PingResponse()
	}

	handler := u.registry.Resolve(request.Action)
	if handler == nil {
		u.logger.Warn("no handler registered for action",
			slog.String("action", string(request.Action)),
		)
		return domain.ErrorResponse(genericHandlerError)
	}

	result, err := invokeHandler(ctx, handler, request)
	if err != nil {
		u.logger.Error("flow handler failed",
			slog.String("action", string(request.Action)),
			slog.String("screen", request.Screen),
			slog.String("error", err.Error()),
		)
		return domain.ErrorResponse(genericHandlerError)
	}
	return result
}

// invokeHandler shields the pipeline from handler panics; a panicking handler
// degrades to the same encrypted error payload as a failing one.
func invokeHandler(
	ctx context.Context,
	handler FlowHandler,
	request *domain.ExchangeRequest,
) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler.Handle(ctx, request)
}

// scheduleRotation hands the failure to the key lifecycle on a detached
// context so rotation latency never extends the failing request.
func (u *exchangeUseCase) scheduleRotation(cause error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), rotationTimeout)
		defer cancel()

		u.keys.RotateOnFailure(ctx, cause)

		if u.rotateDone != nil {
			u.rotateDone <- struct{}{}
		}
	}()
}
