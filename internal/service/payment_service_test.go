package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

type stubPaymentRepo struct {
	payments map[string]models.Payment
	created  []models.Payment
	voided   []string
}

func (m *stubPaymentRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = "pay-1"
	}
	m.created = append(m.created, *payment)
	return nil
}

func (m *stubPaymentRepo) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	if p, ok := m.payments[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *stubPaymentRepo) FindByAccount(ctx context.Context, accountID string) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range m.payments {
		if p.AccountReceivableID == accountID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *stubPaymentRepo) FindByStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	return nil, nil
}

func (m *stubPaymentRepo) MarkVoid(ctx context.Context, id string) error {
	m.voided = append(m.voided, id)
	return nil
}

type stubReceivableLocker struct {
	rec *models.AccountReceivable

	appliedBalance *decimal.Decimal
	appliedStatus  models.PaymentStatus
}

func (m *stubReceivableLocker) FindByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.AccountReceivable, error) {
	if m.rec == nil {
		return nil, sql.ErrNoRows
	}
	rec := *m.rec
	return &rec, nil
}

func (m *stubReceivableLocker) ApplyBalanceTx(ctx context.Context, tx *sqlx.Tx, id string, balance decimal.Decimal, status models.PaymentStatus) error {
	m.appliedBalance = &balance
	m.appliedStatus = status
	return nil
}

func pendingReceivable(balance int64) *models.AccountReceivable {
	return &models.AccountReceivable{
		ID:             "rec-1",
		StudentID:      "stu-1",
		Concept:        "Tuition Installment 1 - CODE",
		TotalAmount:    decimal.NewFromInt(250),
		PendingBalance: decimal.NewFromInt(balance),
		Status:         models.PaymentStatusPending,
		DueDate:        time.Date(2026, time.September, 30, 0, 0, 0, 0, time.UTC),
	}
}

func newPaymentService(repo *stubPaymentRepo, locker *stubReceivableLocker, db *sqlx.DB) *PaymentService {
	cacheSvc := NewCacheService(nil, nil, 0, zap.NewNop(), false)
	return NewPaymentService(repo, locker, db, cacheSvc, zap.NewNop())
}

func TestPaymentCreatePartialKeepsPending(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &stubPaymentRepo{}
	locker := &stubReceivableLocker{rec: pendingReceivable(250)}
	svc := newPaymentService(repo, locker, db)

	payment, err := svc.Create(context.Background(), CreatePaymentRequest{
		AccountReceivableID: "rec-1",
		AmountPaid:          decimal.NewFromInt(100),
		PaymentMethod:       models.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	require.NotNil(t, locker.appliedBalance)
	assert.True(t, locker.appliedBalance.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, models.PaymentStatusPending, locker.appliedStatus)
	assert.Equal(t, "INV-rec-1", payment.InvoiceNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentCreateSettlesExactBalance(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &stubPaymentRepo{}
	locker := &stubReceivableLocker{rec: pendingReceivable(250)}
	svc := newPaymentService(repo, locker, db)

	payment, err := svc.Create(context.Background(), CreatePaymentRequest{
		AccountReceivableID: "rec-1",
		AmountPaid:          decimal.NewFromInt(250),
		PaymentMethod:       models.PaymentMethodTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, payment.Status)
	require.NotNil(t, locker.appliedBalance)
	assert.True(t, locker.appliedBalance.IsZero())
	assert.Equal(t, models.PaymentStatusPaid, locker.appliedStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentCreateOverpayRejected(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &stubPaymentRepo{}
	locker := &stubReceivableLocker{rec: pendingReceivable(250)}
	svc := newPaymentService(repo, locker, db)

	_, err := svc.Create(context.Background(), CreatePaymentRequest{
		AccountReceivableID: "rec-1",
		AmountPaid:          decimal.NewFromInt(300),
		PaymentMethod:       models.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInsufficientBalance.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
	assert.Nil(t, locker.appliedBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentCreateVoidedReceivableRejected(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	rec := pendingReceivable(250)
	rec.Status = models.PaymentStatusVoid
	svc := newPaymentService(&stubPaymentRepo{}, &stubReceivableLocker{rec: rec}, db)

	_, err := svc.Create(context.Background(), CreatePaymentRequest{
		AccountReceivableID: "rec-1",
		AmountPaid:          decimal.NewFromInt(100),
		PaymentMethod:       models.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentCreateUnknownReceivable(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	svc := newPaymentService(&stubPaymentRepo{}, &stubReceivableLocker{}, db)

	_, err := svc.Create(context.Background(), CreatePaymentRequest{
		AccountReceivableID: "missing",
		AmountPaid:          decimal.NewFromInt(100),
		PaymentMethod:       models.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentCreateNegativeAmountRejected(t *testing.T) {
	db, _ := newMockDB(t)
	svc := newPaymentService(&stubPaymentRepo{}, &stubReceivableLocker{rec: pendingReceivable(250)}, db)

	_, err := svc.Create(context.Background(), CreatePaymentRequest{
		AccountReceivableID: "rec-1",
		AmountPaid:          decimal.NewFromInt(-10),
		PaymentMethod:       models.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPaymentRemoveVoidsWithoutRestoringBalance(t *testing.T) {
	db, _ := newMockDB(t)
	repo := &stubPaymentRepo{payments: map[string]models.Payment{
		"pay-1": {ID: "pay-1", AccountReceivableID: "rec-1", Status: models.PaymentStatusPaid},
	}}
	locker := &stubReceivableLocker{rec: pendingReceivable(0)}
	svc := newPaymentService(repo, locker, db)

	payment, err := svc.Remove(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusVoid, payment.Status)
	assert.Equal(t, []string{"pay-1"}, repo.voided)
	// The receivable balance is never touched by a payment void.
	assert.Nil(t, locker.appliedBalance)
}

func TestPaymentRemoveUnknownNotFound(t *testing.T) {
	db, _ := newMockDB(t)
	svc := newPaymentService(&stubPaymentRepo{}, &stubReceivableLocker{}, db)

	_, err := svc.Remove(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
