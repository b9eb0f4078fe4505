package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/domain"
)

type mockKeyStore struct {
	mock.Mock
}

func (m *mockKeyStore) Get(ctx context.Context) (*domain.KeyPair, error) {
	args := m.Called(ctx)
	if pair := args.Get(0); pair != nil {
		return pair.(*domain.KeyPair), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockKeyStore) Save(ctx context.Context, pair *domain.KeyPair) error {
	args := m.Called(ctx, pair)
	return args.Error(0)
}

func (m *mockKeyStore) Delete(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockKeyStore) RotationState(ctx context.Context) (*domain.RotationState, error) {
	args := m.Called(ctx)
	if state := args.Get(0); state != nil {
		return state.(*domain.RotationState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockKeyStore) TryBeginRotation(
	ctx context.Context,
	now time.Time,
	cooldown time.Duration,
) (bool, error) {
	args := m.Called(ctx, now, cooldown)
	return args.Bool(0), args.Error(1)
}

type mockMetaSyncer struct {
	mock.Mock
}

func (m *mockMetaSyncer) PublishPublicKey(ctx context.Context, publicKeyPEM string) error {
	args := m.Called(ctx, publicKeyPEM)
	return args.Error(0)
}

type mockKeyWrapper struct {
	mock.Mock
}

func (m *mockKeyWrapper) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	args := m.Called(ctx, plaintext)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockKeyWrapper) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	args := m.Called(ctx, ciphertext)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeTxManager runs the function directly; transactional behavior is covered
// by the repository tests.
type fakeTxManager struct {
	err error
}

func (f *fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}
