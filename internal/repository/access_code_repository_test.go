package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interactive-maps-server/config"
)

var (
	activeForUpdate = regexp.QuoteMeta(`FROM access_codes WHERE expired_at IS NULL ORDER BY created_at DESC LIMIT 1 FOR UPDATE`)
	expireActive    = regexp.QuoteMeta(`UPDATE access_codes SET expired_at = $1 WHERE expired_at IS NULL`)
	insertCode      = regexp.QuoteMeta(`INSERT INTO access_codes (code, created_at)`)
	codeColumns     = []string{"id", "code", "created_at", "expired_at"}
)

func newMockRepository(t *testing.T) (*AccessCodeRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewAccessCodeRepository(&config.Database{DB: sqlx.NewDb(db, "postgres")}), mock
}

func TestAccessCodeRepository_ReconcileFirstCode(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(activeForUpdate).WillReturnRows(sqlmock.NewRows(codeColumns))
	mock.ExpectQuery(insertCode).
		WithArgs("ABC123", now).
		WillReturnRows(sqlmock.NewRows(codeColumns).AddRow(1, "ABC123", now, nil))
	mock.ExpectCommit()

	code, rotated, err := repo.Reconcile(context.Background(), "ABC123", now)
	require.NoError(t, err)
	assert.True(t, rotated)
	assert.Equal(t, int64(1), code.ID)
	assert.Equal(t, "ABC123", code.Code)
	assert.Nil(t, code.ExpiredAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessCodeRepository_ReconcileSameCodeIsNoop(t *testing.T) {
	repo, mock := newMockRepository(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(activeForUpdate).
		WillReturnRows(sqlmock.NewRows(codeColumns).AddRow(1, "ABC123", created, nil))
	mock.ExpectCommit()

	code, rotated, err := repo.Reconcile(context.Background(), "ABC123", created.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, rotated)
	assert.Equal(t, created, code.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessCodeRepository_ReconcileRotates(t *testing.T) {
	repo, mock := newMockRepository(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := created.Add(30 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(activeForUpdate).
		WillReturnRows(sqlmock.NewRows(codeColumns).AddRow(1, "ABC123", created, nil))
	mock.ExpectExec(expireActive).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(insertCode).
		WithArgs("XYZ999", now).
		WillReturnRows(sqlmock.NewRows(codeColumns).AddRow(2, "XYZ999", now, nil))
	mock.ExpectCommit()

	code, rotated, err := repo.Reconcile(context.Background(), "XYZ999", now)
	require.NoError(t, err)
	assert.True(t, rotated)
	assert.Equal(t, "XYZ999", code.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessCodeRepository_ReconcileRollsBackOnInsertFailure(t *testing.T) {
	repo, mock := newMockRepository(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := created.Add(30 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(activeForUpdate).
		WillReturnRows(sqlmock.NewRows(codeColumns).AddRow(1, "ABC123", created, nil))
	mock.ExpectExec(expireActive).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(insertCode).
		WithArgs("XYZ999", now).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	code, rotated, err := repo.Reconcile(context.Background(), "XYZ999", now)
	assert.Error(t, err)
	assert.False(t, rotated)
	assert.Nil(t, code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessCodeRepository_ReconcileBeginFails(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, _, err := repo.Reconcile(context.Background(), "ABC123", time.Now())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessCodeRepository_IsActive(t *testing.T) {
	repo, mock := newMockRepository(t)
	query := regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM access_codes WHERE code = $1 AND expired_at IS NULL)`)

	mock.ExpectQuery(query).WithArgs("ABC123").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(query).WithArgs("OLD").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.IsActive(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsActive(context.Background(), "OLD")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessCodeRepository_FindActiveEmpty(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM access_codes WHERE expired_at IS NULL`)).
		WillReturnRows(sqlmock.NewRows(codeColumns))

	code, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	assert.Nil(t, code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessCodeRepository_Stats(t *testing.T) {
	repo, mock := newMockRepository(t)
	since := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) AS total`)).
		WillReturnRows(sqlmock.NewRows([]string{"total", "active_since"}).AddRow(3, since))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.HasActiveCode)
	assert.Equal(t, 3, stats.TotalCodesInHistory)
	require.NotNil(t, stats.ActiveSince)
	assert.Equal(t, since, *stats.ActiveSince)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessCodeRepository_StatsEmptyTable(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) AS total`)).
		WillReturnRows(sqlmock.NewRows([]string{"total", "active_since"}).AddRow(0, nil))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, stats.HasActiveCode)
	assert.Nil(t, stats.ActiveSince)
	assert.Zero(t, stats.TotalCodesInHistory)
}
