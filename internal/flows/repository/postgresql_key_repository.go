// Package repository provides persistence for the flow key material and
// rotation bookkeeping in PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rfgrow/vozzysmart1-sub008/internal/database"
	apperrors "github.com/rfgrow/vozzysmart1-sub008/internal/errors"
	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/domain"
)

// PostgreSQLKeyRepository implements key pair persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLKeyRepository struct {
	db *sql.DB
}

// NewPostgreSQLKeyRepository creates a new PostgreSQL key repository.
func NewPostgreSQLKeyRepository(db *sql.DB) *PostgreSQLKeyRepository {
	return &PostgreSQLKeyRepository{db: db}
}

// Get retrieves the active key pair.
func (p *PostgreSQLKeyRepository) Get(ctx context.Context) (*domain.KeyPair, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, public_key_pem, private_key_pem, generated_at
			  FROM flow_key_pairs
			  ORDER BY generated_at DESC
			  LIMIT 1`

	var pair domain.KeyPair
	err := querier.QueryRowContext(ctx, query).Scan(
		&pair.ID,
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

	return &pair, nil
}

// Save replaces the stored key pair wholesale. Only one pair is active at a
// time, so the previous generation is removed in the same statement batch.
func (p *PostgreSQLKeyRepository) Save(ctx context.Context, pair *domain.KeyPair) error {
	querier := database.GetTx(ctx, p.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM flow_key_pairs`); err != nil {
		return apperrors.Wrap(err, "failed to clear previous key pair")
	}

	query := `INSERT INTO flow_key_pairs (id, public_key_pem, private_key_pem, generated_at)
			  VALUES ($1, $2, $3, $4)`

	_, err := querier.ExecContext(
		ctx,
		query,
		pair.ID,
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
func (p *PostgreSQLKeyRepository) Delete(ctx context.Context) error {
	querier := database.GetTx(ctx, p.db)

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
func (p *PostgreSQLKeyRepository) RotationState(ctx context.Context) (*domain.RotationState, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT last_rotation_at FROM flow_rotation_state WHERE id = 1`

	var state domain.RotationState
	err := querier.QueryRowContext(ctx, query).Scan(&state.LastRotationAt)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get rotation state")
	}
	return &state, nil
}

// TryBeginRotation stamps the rotation timestamp if and only if the cooldown
// has elapsed. The check and the write are one conditional UPDATE, so
// concurrent callers across instances race on the database row and exactly
// one of them wins.
func (p *PostgreSQLKeyRepository) TryBeginRotation(
	ctx context.Context,
	now time.Time,
	cooldown time.Duration,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE flow_rotation_state
			  SET last_rotation_at = $1
			  WHERE id = 1
			    AND (last_rotation_at IS NULL OR last_rotation_at <= $2)`

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
