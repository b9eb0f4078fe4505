package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/rfgrow/vozzysmart1-sub008/internal/database"
	"github.com/rfgrow/vozzysmart1-sub008/internal/errors"
	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/domain"
	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/service"
)

// keyLifecycleUseCase implements KeyLifecycleUseCase on top of a KeyStore.
//
// Two layers defend against rotation storms: singleflight collapses concurrent
// in-process attempts, and the store's TryBeginRotation compare-and-swap
// arbitrates across instances sharing the database.
type keyLifecycleUseCase struct {
	txManager   database.TxManager
	store       KeyStore
	syncer      MetaSyncer
	wrapper     KeyWrapper
	cooldown    time.Duration
	syncTimeout time.Duration
	logger      *slog.Logger
	group       singleflight.Group

	// syncDone is signalled after each asynchronous publish attempt. Nil in
	// production; tests set it to observe the fire-and-forget goroutine.
	syncDone chan<- struct{}
}

// NewKeyLifecycleUseCase creates a new KeyLifecycleUseCase. wrapper may be nil
// when KMS wrapping of the private key at rest is not configured.
func NewKeyLifecycleUseCase(
	txManager database.TxManager,
	store KeyStore,
	syncer MetaSyncer,
	wrapper KeyWrapper,
	cooldown time.Duration,
	syncTimeout time.Duration,
	logger *slog.Logger,
) KeyLifecycleUseCase {
	return &keyLifecycleUseCase{
		txManager:   txManager,
		store:       store,
		syncer:      syncer,
		wrapper:     wrapper,
		cooldown:    cooldown,
		syncTimeout: syncTimeout,
		logger:      logger,
	}
}

// EnsureKeyPair returns the stored key pair, lazily generating one on first
// use. Concurrent first requests collapse into a single generation.
func (u *keyLifecycleUseCase) EnsureKeyPair(ctx context.Context) (*domain.KeyPair, error) {
	pair, err := u.store.Get(ctx)
	if err == nil {
		return u.unwrapPair(ctx, pair)
	}
	if !errors.Is(err, domain.ErrNoKeyPair) {
		return nil, fmt.Errorf("failed to load key pair: %w", err)
	}

	result, err, _ := u.group.Do("bootstrap", func() (any, error) {
		// Re-check under the flight: a concurrent caller may have finished
		// bootstrapping while this one waited. The stored pair may be
		// KMS-wrapped, same as the fast path above.
		if pair, err := u.store.Get(ctx); err == nil {
			return u.unwrapPair(ctx, pair)
		} else if !errors.Is(err, domain.ErrNoKeyPair) {
			return nil, err
		}

		pair, err := service.GenerateKeyPair()
		if err != nil {
			return nil, err
		}

		if err := u.persistPair(ctx, pair); err != nil {
			return nil, err
		}

		u.logger.Info("key pair bootstrapped", slog.String("key_id", pair.ID.String()))
		u.publishAsync(pair.PublicKeyPEM)
		return pair, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to bootstrap key pair: %w", err)
	}

	return result.(*domain.KeyPair), nil
}

// RotateOnFailure replaces the key pair after a key-mismatch decryption
// failure. The cooldown check and the timestamp update are one atomic
// operation in the store, so concurrent failures across instances produce at
// most one rotation per cooldown window.
func (u *keyLifecycleUseCase) RotateOnFailure(ctx context.Context, cause error) {
	if !errors.Is(cause, domain.ErrKeyMismatch) {
		return
	}

	_, _, _ = u.group.Do("rotate", func() (any, error) {
		err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
			acquired, err := u.store.TryBeginRotation(ctx, time.Now().UTC(), u.cooldown)
			if err != nil {
				return fmt.Errorf("failed to acquire rotation slot: %w", err)
			}
			if !acquired {
				u.logger.Info("key rotation suppressed, cooldown active")
				return nil
			}

			pair, err := service.GenerateKeyPair()
			if err != nil {
				return fmt.Errorf("failed to generate replacement key pair: %w", err)
			}

			if err := u.savePair(ctx, pair); err != nil {
				return err
			}

			u.logger.Warn("key pair rotated after decryption failure",
				slog.String("key_id", pair.ID.String()),
			)
			u.publishAsync(pair.PublicKeyPEM)
			return nil
		})
		if err != nil {
			u.logger.Error("key rotation failed", slog.String("error", err.Error()))
		}
		return nil, nil
	})
}

// GenerateKeyPair replaces the stored pair on operator request. Unlike
// failure-driven rotation it ignores and does not stamp the cooldown.
func (u *keyLifecycleUseCase) GenerateKeyPair(ctx context.Context) (*domain.KeyPair, MetaSyncResult, error) {
	pair, err := service.GenerateKeyPair()
	if err != nil {
		return nil, MetaSyncResult{}, fmt.Errorf("failed to generate key pair: %w", err)
	}

	if err := u.persistPair(ctx, pair); err != nil {
		return nil, MetaSyncResult{}, err
	}

	u.logger.Info("key pair replaced by operator", slog.String("key_id", pair.ID.String()))
	return pair, u.publishNow(ctx, pair.PublicKeyPEM), nil
}

// ImportKeyPair stores operator-provided key material after verifying the
// halves belong together.
func (u *keyLifecycleUseCase) ImportKeyPair(
	ctx context.Context,
	privatePEM, publicPEM []byte,
) (*domain.KeyPair, MetaSyncResult, error) {
	if err := service.ValidateKeyPair(privatePEM, publicPEM); err != nil {
		return nil, MetaSyncResult{}, err
	}

	pair := &domain.KeyPair{
		ID:            newKeyID(),
		PublicKeyPEM:  string(publicPEM),
		PrivateKeyPEM: privatePEM,
		GeneratedAt:   time.Now().UTC(),
	}

	if err := u.persistPair(ctx, pair); err != nil {
		return nil, MetaSyncResult{}, err
	}

	u.logger.Info("key pair imported by operator", slog.String("key_id", pair.ID.String()))
	return pair, u.publishNow(ctx, pair.PublicKeyPEM), nil
}

// DeleteKeyPair removes the stored pair. The rotation cooldown is left in
// place so deletion cannot be used to bypass it.
func (u *keyLifecycleUseCase) DeleteKeyPair(ctx context.Context) error {
	if err := u.store.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete key pair: %w", err)
	}
	u.logger.Info("key pair deleted by operator")
	return nil
}

// Status reports the public half of the stored pair, or Configured=false when
// none exists.
func (u *keyLifecycleUseCase) Status(ctx context.Context) (*KeyStatus, error) {
	pair, err := u.store.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoKeyPair) {
			return &KeyStatus{Configured: false}, nil
		}
		return nil, fmt.Errorf("failed to load key pair: %w", err)
	}

	return &KeyStatus{
		Configured:   true,
		PublicKeyPEM: pair.PublicKeyPEM,
		GeneratedAt:  pair.GeneratedAt,
	}, nil
}

// persistPair saves the pair inside a transaction, wrapping the private key
// first when a KMS keeper is configured.
func (u *keyLifecycleUseCase) persistPair(ctx context.Context, pair *domain.KeyPair) error {
	return u.txManager.WithTx(ctx, func(ctx context.Context) error {
		return u.savePair(ctx, pair)
	})
}

func (u *keyLifecycleUseCase) savePair(ctx context.Context, pair *domain.KeyPair) error {
	stored := *pair
	if u.wrapper != nil {
		wrapped, err := u.wrapper.Encrypt(ctx, pair.PrivateKeyPEM)
		if err != nil {
			return fmt.Errorf("failed to wrap private key: %w", err)
		}
		stored.PrivateKeyPEM = wrapped
	}

	if err := u.store.Save(ctx, &stored); err != nil {
		return fmt.Errorf("failed to save key pair: %w", err)
	}
	return nil
}

// unwrapPair reverses the at-rest KMS wrapping on the private key.
func (u *keyLifecycleUseCase) unwrapPair(ctx context.Context, pair *domain.KeyPair) (*domain.KeyPair, error) {
	if u.wrapper == nil {
		return pair, nil
	}

	plain, err := u.wrapper.Decrypt(ctx, pair.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap private key: %w", err)
	}

	unwrapped := *pair
	unwrapped.PrivateKeyPEM = plain
	return &unwrapped, nil
}

func newKeyID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// publishAsync fires a best-effort public key publish on a detached context.
// The caller never waits on or fails with the sync outcome.
func (u *keyLifecycleUseCase) publishAsync(publicKeyPEM string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), u.syncTimeout)
		defer cancel()

		if err := u.syncer.PublishPublicKey(ctx, publicKeyPEM); err != nil {
			u.logger.Warn("public key sync failed", slog.String("error", err.Error()))
		} else {
			u.logger.Info("public key synced to counterpart")
		}

		if u.syncDone != nil {
			u.syncDone <- struct{}{}
		}
	}()
}

// publishNow publishes synchronously for operator-driven flows where the
// caller wants the outcome in the response.
func (u *keyLifecycleUseCase) publishNow(ctx context.Context, publicKeyPEM string) MetaSyncResult {
	ctx, cancel := context.WithTimeout(ctx, u.syncTimeout)
	defer cancel()

	if err := u.syncer.PublishPublicKey(ctx, publicKeyPEM); err != nil {
		u.logger.Warn("public key sync failed", slog.String("error", err.Error()))
		return MetaSyncResult{Success: false, Error: err.Error()}
	}
	return MetaSyncResult{Success: true}
}
