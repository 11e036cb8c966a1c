package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

func receivableRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "concept", "total_amount", "pending_balance", "status", "due_date", "created_at", "updated_at",
	})
}

func TestReceivableFindByIDForUpdateLocksRow(t *testing.T) {
	db, mock := newRepoDB(t)
	repo := NewReceivableRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM account_receivables WHERE id = $1 FOR UPDATE")).
		WithArgs("rec-1").
		WillReturnRows(receivableRows().AddRow(
			"rec-1", "stu-1", "Tuition Installment 1 - CODE", "250", "250", "PENDING", now, now, now,
		))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback() //nolint:errcheck

	rec, err := repo.FindByIDForUpdateTx(context.Background(), tx, "rec-1")
	require.NoError(t, err)
	assert.True(t, rec.PendingBalance.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, models.PaymentStatusPending, rec.Status)
}

func TestReceivableApplyBalanceTx(t *testing.T) {
	db, mock := newRepoDB(t)
	repo := NewReceivableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE account_receivables SET pending_balance = $2, status = $3")).
		WithArgs("rec-1", decimal.NewFromInt(150), string(models.PaymentStatusPending), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, repo.ApplyBalanceTx(context.Background(), tx, "rec-1", decimal.NewFromInt(150), models.PaymentStatusPending))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReceivableListDefaultsToOutstanding(t *testing.T) {
	db, mock := newRepoDB(t)
	repo := NewReceivableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("pending_balance > 0")).
		WillReturnRows(receivableRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM account_receivables")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.ReceivableFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReceivableListIncludeSettledSkipsBalanceGuard(t *testing.T) {
	db, mock := newRepoDB(t)
	repo := NewReceivableRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, concept")).
		WithArgs("stu-1").
		WillReturnRows(receivableRows().AddRow(
			"rec-1", "stu-1", "Carnet Fee - CODE", "50", "0", "PAID", now, now, now,
		))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM account_receivables")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	recs, total, err := repo.List(context.Background(), models.ReceivableFilter{
		StudentID:      "stu-1",
		IncludeSettled: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, recs, 1)
	assert.Equal(t, models.PaymentStatusPaid, recs[0].Status)
}

func TestReceivableMarkVoid(t *testing.T) {
	db, mock := newRepoDB(t)
	repo := NewReceivableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE account_receivables SET status = $2")).
		WithArgs("rec-1", string(models.PaymentStatusVoid), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkVoid(context.Background(), "rec-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReceivableFindByConceptContainsTx(t *testing.T) {
	db, mock := newRepoDB(t)
	repo := NewReceivableRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE concept LIKE '%' || $1 || '%'")).
		WithArgs("A-B-XY-001").
		WillReturnRows(receivableRows().
			AddRow("rec-1", "stu-1", "Tuition Installment 1 - A-B-XY-001", "250", "250", "PENDING", now, now, now).
			AddRow("rec-2", "stu-1", "Carnet Fee - A-B-XY-001", "50", "50", "PENDING", now, now, now))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback() //nolint:errcheck

	recs, err := repo.FindByConceptContainsTx(context.Background(), tx, "A-B-XY-001")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}
