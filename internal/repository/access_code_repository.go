package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"interactive-maps-server/config"
	"interactive-maps-server/internal/model"
)

const selectActiveCode = `
	SELECT id, code, created_at, expired_at
	FROM access_codes
	WHERE expired_at IS NULL
	ORDER BY created_at DESC
	LIMIT 1
`

type AccessCodeRepository struct {
	*config.Database
}

func NewAccessCodeRepository(database *config.Database) *AccessCodeRepository {
	return &AccessCodeRepository{database}
}

// FindActive : returns the active code, or nil when no row is active
func (r *AccessCodeRepository) FindActive(ctx context.Context) (*model.AccessCode, error) {
	return r.findActive(ctx, r.DB, false)
}

// IsActive : checks whether code is the currently active one
func (r *AccessCodeRepository) IsActive(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM access_codes WHERE code = $1 AND expired_at IS NULL)`

	var exists bool
	err := sqlx.GetContext(ctx, r.DB, &exists, query, code)
	if err != nil {
		return false, fmt.Errorf("active code check failed: %w", err)
	}
	return exists, nil
}

// Reconcile : makes code the active one inside a single transaction.
// The active row is locked, expired and only then replaced, so no reader sees
// two active rows or none. Returns the active row and whether a rotation happened.
func (r *AccessCodeRepository) Reconcile(ctx context.Context, code string, now time.Time) (*model.AccessCode, bool, error) {
	exec, rollback, commit, err := r.BeginTX(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin transaction failed: %w", err)
	}
	defer rollback()

	active, err := r.findActive(ctx, exec, true)
	if err != nil {
		return nil, false, err
	}

	if active != nil && active.Code == code {
		if err := commit(); err != nil {
			return nil, false, fmt.Errorf("commit failed: %w", err)
		}
		return active, false, nil
	}

	if active != nil {
		if err := r.expireActive(ctx, exec, now); err != nil {
			return nil, false, err
		}
	}

	created, err := r.create(ctx, exec, code, now)
	if err != nil {
		return nil, false, err
	}

	if err := commit(); err != nil {
		return nil, false, fmt.Errorf("commit failed: %w", err)
	}

	return created, true, nil
}

// Stats : history size and the activation time of the current code
func (r *AccessCodeRepository) Stats(ctx context.Context) (*model.AccessCodeStats, error) {
	query := `
		SELECT COUNT(*) AS total,
		       MAX(created_at) FILTER (WHERE expired_at IS NULL) AS active_since
		FROM access_codes
	`

	var row struct {
		Total       int        `db:"total"`
		ActiveSince *time.Time `db:"active_since"`
	}
	if err := sqlx.GetContext(ctx, r.DB, &row, query); err != nil {
		return nil, fmt.Errorf("stats query failed: %w", err)
	}

	return &model.AccessCodeStats{
		HasActiveCode:       row.ActiveSince != nil,
		ActiveSince:         row.ActiveSince,
		TotalCodesInHistory: row.Total,
	}, nil
}

func (r *AccessCodeRepository) findActive(ctx context.Context, exec sqlx.ExtContext, forUpdate bool) (*model.AccessCode, error) {
	query := selectActiveCode
	if forUpdate {
		query += " FOR UPDATE"
	}

	var code model.AccessCode
	err := sqlx.GetContext(ctx, exec, &code, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active code query failed: %w", err)
	}
	return &code, nil
}

func (r *AccessCodeRepository) expireActive(ctx context.Context, exec sqlx.ExtContext, now time.Time) error {
	query := `UPDATE access_codes SET expired_at = $1 WHERE expired_at IS NULL`

	if _, err := exec.ExecContext(ctx, query, now); err != nil {
		return fmt.Errorf("expiring active code failed: %w", err)
	}
	return nil
}

func (r *AccessCodeRepository) create(ctx context.Context, exec sqlx.ExtContext, code string, now time.Time) (*model.AccessCode, error) {
	query := `
		INSERT INTO access_codes (code, created_at)
		VALUES ($1, $2)
		RETURNING id, code, created_at, expired_at
	`

	var created model.AccessCode
	if err := sqlx.GetContext(ctx, exec, &created, query, code, now); err != nil {
		return nil, fmt.Errorf("insert failed: %w", err)
	}
	return &created, nil
}
