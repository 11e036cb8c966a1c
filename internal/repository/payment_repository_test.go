package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

func TestPaymentCreateTxInsertsRow(t *testing.T) {
	db, mock := newRepoDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	payment := &models.Payment{
		AccountReceivableID: "rec-1",
		InvoiceNumber:       "INV-rec-1",
		AmountPaid:          decimal.NewFromInt(100),
		PaymentMethod:       models.PaymentMethodCash,
		Status:              models.PaymentStatusPaid,
		PaymentDate:         time.Now(),
		DueDate:             time.Now(),
	}
	require.NoError(t, repo.CreateTx(context.Background(), tx, payment))
	require.NoError(t, tx.Commit())

	assert.NotEmpty(t, payment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentMarkVoid(t *testing.T) {
	db, mock := newRepoDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments SET status = $2")).
		WithArgs("pay-1", string(models.PaymentStatusVoid)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkVoid(context.Background(), "pay-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentVoidByAccountsTx(t *testing.T) {
	db, mock := newRepoDB(t)
	repo := NewPaymentRepository(db)

	accounts := []string{"rec-1", "rec-2"}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments SET status = $1 WHERE account_receivable_id = ANY($2)")).
		WithArgs(string(models.PaymentStatusVoid), pq.Array(accounts)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, repo.VoidByAccountsTx(context.Background(), tx, accounts))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentVoidByAccountsTxNoAccounts(t *testing.T) {
	db, mock := newRepoDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback() //nolint:errcheck

	// No SQL runs when the cascade has nothing to void.
	require.NoError(t, repo.VoidByAccountsTx(context.Background(), tx, nil))
}

func TestUniqueViolationDetectsConstraint(t *testing.T) {
	err := &pq.Error{Code: "23505", Constraint: ConstraintEnrollmentCode}

	constraint, ok := UniqueViolation(err)
	require.True(t, ok)
	assert.Equal(t, ConstraintEnrollmentCode, constraint)

	_, ok = UniqueViolation(context.DeadlineExceeded)
	assert.False(t, ok)
}

func TestSerializationFailureDetection(t *testing.T) {
	assert.True(t, SerializationFailure(&pq.Error{Code: "40001"}))
	assert.False(t, SerializationFailure(&pq.Error{Code: "23505"}))
	assert.False(t, SerializationFailure(context.Canceled))
}
