package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

type paymentRepository interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, payment *models.Payment) error
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	FindByAccount(ctx context.Context, accountID string) ([]models.Payment, error)
	FindByStudent(ctx context.Context, studentID string) ([]models.Payment, error)
	MarkVoid(ctx context.Context, id string) error
}

type receivableLocker interface {
	FindByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.AccountReceivable, error)
	ApplyBalanceTx(ctx context.Context, tx *sqlx.Tx, id string, balance decimal.Decimal, status models.PaymentStatus) error
}

// CreatePaymentRequest is the payload for collecting a payment against a
// receivable.
type CreatePaymentRequest struct {
	AccountReceivableID string               `json:"account_receivable_id" validate:"required"`
	AmountPaid          decimal.Decimal      `json:"amount_paid"`
	PaymentMethod       models.PaymentMethod `json:"payment_method" validate:"required,oneof=CASH TRANSFER CARD"`
	InvoiceNumber       string               `json:"invoice_number,omitempty"`
	PaymentDate         *time.Time           `json:"payment_date,omitempty"`
	Notes               *string              `json:"notes,omitempty"`
}

// PaymentService applies collected payments against receivable balances.
type PaymentService struct {
	repo        paymentRepository
	receivables receivableLocker
	tx          txProvider
	cache       *CacheService
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewPaymentService wires the payment dependencies.
func NewPaymentService(repo paymentRepository, receivables receivableLocker, tx txProvider, cache *CacheService, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		repo:        repo,
		receivables: receivables,
		tx:          tx,
		cache:       cache,
		validate:    validator.New(),
		logger:      logger,
	}
}

// Create applies a payment to its receivable under a row lock. The payment,
// the balance decrement and the derived status commit together.
func (s *PaymentService) Create(ctx context.Context, req CreatePaymentRequest) (*models.Payment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if req.AmountPaid.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount paid must not be negative")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin payment transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rec, err := s.receivables.FindByIDForUpdateTx(ctx, tx, req.AccountReceivableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account receivable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lock receivable")
	}
	if rec.Status == models.PaymentStatusVoid {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "cannot collect against a voided receivable")
	}
	if req.AmountPaid.GreaterThan(rec.PendingBalance) {
		return nil, appErrors.Clone(appErrors.ErrInsufficientBalance,
			fmt.Sprintf("amount %s exceeds pending balance %s", req.AmountPaid.String(), rec.PendingBalance.String()))
	}

	newBalance := rec.PendingBalance.Sub(req.AmountPaid)
	status := models.PaymentStatusPending
	if newBalance.IsZero() {
		status = models.PaymentStatusPaid
	}

	paymentDate := time.Now().UTC()
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}
	invoice := req.InvoiceNumber
	if invoice == "" {
		invoice = fmt.Sprintf("INV-%s", rec.ID)
	}
	payment := &models.Payment{
		AccountReceivableID: rec.ID,
		InvoiceNumber:       invoice,
		AmountPaid:          req.AmountPaid,
		PaymentMethod:       req.PaymentMethod,
		Status:              status,
		PaymentDate:         paymentDate,
		DueDate:             rec.DueDate,
		Notes:               req.Notes,
	}
	if err := s.repo.CreateTx(ctx, tx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist payment")
	}
	if err := s.receivables.ApplyBalanceTx(ctx, tx, rec.ID, newBalance, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "apply balance")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit payment")
	}
	committed = true

	s.logger.Info("payment applied",
		zap.String("payment_id", payment.ID),
		zap.String("account_receivable_id", rec.ID),
		zap.String("amount", req.AmountPaid.String()),
		zap.String("new_balance", newBalance.String()))

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, receivablesCachePattern(rec.StudentID))
	}
	return payment, nil
}

// Remove voids a payment record. The receivable's balance is deliberately
// left untouched; corrections are applied by collecting a new payment.
func (s *PaymentService) Remove(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load payment")
	}
	if err := s.repo.MarkVoid(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "void payment")
	}
	payment.Status = models.PaymentStatusVoid
	return payment, nil
}

// FindByAccount lists payments applied against one receivable.
func (s *PaymentService) FindByAccount(ctx context.Context, accountID string) ([]models.Payment, error) {
	payments, err := s.repo.FindByAccount(ctx, accountID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list payments")
	}
	return payments, nil
}

// FindByStudent lists payments across every receivable of a student.
func (s *PaymentService) FindByStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	payments, err := s.repo.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list payments")
	}
	return payments, nil
}
