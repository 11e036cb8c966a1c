package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

const paymentColumns = `id, account_receivable_id, invoice_number, amount_paid, payment_method, status, payment_date, due_date, notes, created_at`

// PaymentRepository handles persistence of payment records.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) insert(ctx context.Context, q sqlx.ExtContext, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	payment.CreatedAt = time.Now().UTC()
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	const query = `INSERT INTO payments (id, account_receivable_id, invoice_number, amount_paid, payment_method, status, payment_date, due_date, notes, created_at)
        VALUES (:id, :account_receivable_id, :invoice_number, :amount_paid, :payment_method, :status, :payment_date, :due_date, :notes, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// Create persists a payment record.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.insert(ctx, r.db, payment)
}

// CreateTx persists a payment record inside a transaction.
func (r *PaymentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, payment *models.Payment) error {
	return r.insert(ctx, tx, payment)
}

// FindByID returns a payment by its ID.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	query := fmt.Sprintf("SELECT %s FROM payments WHERE id = $1", paymentColumns)
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByAccount lists payments applied against one receivable.
func (r *PaymentRepository) FindByAccount(ctx context.Context, accountID string) ([]models.Payment, error) {
	query := fmt.Sprintf("SELECT %s FROM payments WHERE account_receivable_id = $1 ORDER BY payment_date ASC", paymentColumns)
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, accountID); err != nil {
		return nil, fmt.Errorf("find payments by account: %w", err)
	}
	return payments, nil
}

// FindByStudent projects payments across all receivables of a student.
func (r *PaymentRepository) FindByStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	const query = `SELECT p.id, p.account_receivable_id, p.invoice_number, p.amount_paid, p.payment_method, p.status, p.payment_date, p.due_date, p.notes, p.created_at
        FROM payments p
        JOIN account_receivables ar ON ar.id = p.account_receivable_id
        WHERE ar.student_id = $1
        ORDER BY p.payment_date ASC`
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, studentID); err != nil {
		return nil, fmt.Errorf("find payments by student: %w", err)
	}
	return payments, nil
}

// MarkVoid cancels a payment record. The parent receivable's balance is left
// untouched; a voided payment is a record correction, not a reversal.
func (r *PaymentRepository) MarkVoid(ctx context.Context, id string) error {
	const query = `UPDATE payments SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.PaymentStatusVoid); err != nil {
		return fmt.Errorf("void payment: %w", err)
	}
	return nil
}

// VoidByAccountsTx voids every payment tied to the given receivables as part
// of the enrollment removal cascade.
func (r *PaymentRepository) VoidByAccountsTx(ctx context.Context, tx *sqlx.Tx, accountIDs []string) error {
	if len(accountIDs) == 0 {
		return nil
	}
	const query = `UPDATE payments SET status = $1 WHERE account_receivable_id = ANY($2)`
	if _, err := tx.ExecContext(ctx, query, models.PaymentStatusVoid, pq.Array(accountIDs)); err != nil {
		return fmt.Errorf("void payments for accounts: %w", err)
	}
	return nil
}
