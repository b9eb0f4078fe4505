package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rfgrow/vozzysmart1-sub008/internal/database"
	apperrors "github.com/rfgrow/vozzysmart1-sub008/internal/errors"
	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/domain"
)

// MySQLKeyRepository implements key pair persistence for MySQL.
// UUIDs are stored as CHAR(36) strings since MySQL has no native UUID type.
type MySQLKeyRepository struct {
	db *sql.DB
}

// NewMySQLKeyRepository creates a new MySQL key repository.
func NewMySQLKeyRepository(db *sql.DB) *MySQLKeyRepository {
	return &MySQLKeyRepository{db: db}
}

// Get retrieves the active key pair.
func (m *MySQLKeyRepository) Get(ctx context.Context) (*domain.KeyPair, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, public_key_pem, private_key_pem, generated_at
			  FROM flow_key_pairs
			  ORDER BY generated_at DESC
			  LIMIT 1`

	var pair domain.KeyPair
	var idStr string
	err := querier.QueryRowContext(ctx, query).Scan(
		&idStr,
		&pair.PublicKeyPEM,
		&pair.PrivateKeyPEM,
		&pair.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoKeyPair
		}
		return nil, apperrors.Wrap(err, "failed to get key pair")
	}

	pair.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse key pair id")
	}
	return &pair, nil
}

// Save replaces the stored key pair wholesale.
func (m *MySQLKeyRepository) Save(ctx context.Context, pair *domain.KeyPair) error {
	querier := database.GetTx(ctx, m.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM flow_key_pairs`); err != nil {
		return apperrors.Wrap(err, "failed to clear previous key pair")
	}

	query := `INSERT INTO flow_key_pairs (id, public_key_pem, private_key_pem, generated_at)
			  VALUES (?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		pair.ID.String(),
		pair.PublicKeyPEM,
		pair.PrivateKeyPEM,
		pair.GeneratedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to save key pair")
	}
	return nil
}

// Delete removes the stored key pair. The rotation state row is untouched.
func (m *MySQLKeyRepository) Delete(ctx context.Context) error {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM flow_key_pairs`)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete key pair")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return domain.ErrNoKeyPair
	}
	return nil
}

// RotationState retrieves the rotation cooldown bookkeeping from the
// migration-seeded singleton row.
func (m *MySQLKeyRepository) RotationState(ctx context.Context) (*domain.RotationState, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT last_rotation_at FROM flow_rotation_state WHERE id = 1`

	var state domain.RotationState
	err := querier.QueryRowContext(ctx, query).Scan(&state.LastRotationAt)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get rotation state")
	}
	return &state, nil
}

// TryBeginRotation stamps the rotation timestamp if and only if the cooldown
// has elapsed, as a single conditional UPDATE.
func (m *MySQLKeyRepository) TryBeginRotation(
	ctx context.Context,
	now time.Time,
	cooldown time.Duration,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE flow_rotation_state
			  SET last_rotation_at = ?
			  WHERE id = 1
			    AND (last_rotation_at IS NULL OR last_rotation_at <= ?)`

	result, err := querier.ExecContext(ctx, query, now, now.Add(-cooldown))
	if err != nil {
		return false, apperrors.Wrap(err, "failed to begin rotation")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to get rows affected")
	}
	return rowsAffected > 0, nil
}
