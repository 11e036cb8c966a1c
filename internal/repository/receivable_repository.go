package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

const receivableColumns = `id, student_id, concept, total_amount, pending_balance, status, due_date, created_at, updated_at`

// ReceivableRepository handles persistence of accounts receivable.
type ReceivableRepository struct {
	db *sqlx.DB
}

// NewReceivableRepository constructs the repository.
func NewReceivableRepository(db *sqlx.DB) *ReceivableRepository {
	return &ReceivableRepository{db: db}
}

func (r *ReceivableRepository) insert(ctx context.Context, q sqlx.ExtContext, rec *models.AccountReceivable) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = models.PaymentStatusPending
	}
	const query = `INSERT INTO account_receivables (id, student_id, concept, total_amount, pending_balance, status, due_date, created_at, updated_at)
        VALUES (:id, :student_id, :concept, :total_amount, :pending_balance, :status, :due_date, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, rec); err != nil {
		return fmt.Errorf("create receivable: %w", err)
	}
	return nil
}

// Create persists a standalone receivable.
func (r *ReceivableRepository) Create(ctx context.Context, rec *models.AccountReceivable) error {
	return r.insert(ctx, r.db, rec)
}

// CreateTx persists a receivable inside the enrollment transaction.
func (r *ReceivableRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, rec *models.AccountReceivable) error {
	return r.insert(ctx, tx, rec)
}

// FindByID returns a receivable by its ID.
func (r *ReceivableRepository) FindByID(ctx context.Context, id string) (*models.AccountReceivable, error) {
	query := fmt.Sprintf("SELECT %s FROM account_receivables WHERE id = $1", receivableColumns)
	var rec models.AccountReceivable
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindByIDForUpdateTx loads a receivable under a row lock so concurrent
// payment applications serialize on the pending balance.
func (r *ReceivableRepository) FindByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.AccountReceivable, error) {
	query := fmt.Sprintf("SELECT %s FROM account_receivables WHERE id = $1 FOR UPDATE", receivableColumns)
	var rec models.AccountReceivable
	if err := tx.GetContext(ctx, &rec, query, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindByStudent returns every receivable owned by the student, settled or not.
func (r *ReceivableRepository) FindByStudent(ctx context.Context, studentID string) ([]models.AccountReceivable, error) {
	query := fmt.Sprintf("SELECT %s FROM account_receivables WHERE student_id = $1 ORDER BY due_date ASC", receivableColumns)
	var recs []models.AccountReceivable
	if err := r.db.SelectContext(ctx, &recs, query, studentID); err != nil {
		return nil, fmt.Errorf("find receivables by student: %w", err)
	}
	return recs, nil
}

// FindByConceptContainsTx returns, under row locks, every receivable whose
// concept embeds the given fragment. The void cascade matches enrollments to
// their receivables through the student code embedded in the concept.
func (r *ReceivableRepository) FindByConceptContainsTx(ctx context.Context, tx *sqlx.Tx, fragment string) ([]models.AccountReceivable, error) {
	query := fmt.Sprintf("SELECT %s FROM account_receivables WHERE concept LIKE '%%' || $1 || '%%' ORDER BY created_at ASC FOR UPDATE", receivableColumns)
	var recs []models.AccountReceivable
	if err := tx.SelectContext(ctx, &recs, query, fragment); err != nil {
		return nil, fmt.Errorf("find receivables by concept: %w", err)
	}
	return recs, nil
}

// List returns receivables. By default only records that still carry a
// pending balance are surfaced; settled and voided receivables stay
// retrievable by id or student.
func (r *ReceivableRepository) List(ctx context.Context, filter models.ReceivableFilter) ([]models.AccountReceivable, int, error) {
	var conditions []string
	var args []interface{}

	if !filter.IncludeSettled {
		conditions = append(conditions, "pending_balance > 0")
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM account_receivables%s ORDER BY due_date ASC LIMIT %d OFFSET %d",
		receivableColumns, clause, size, offset)
	var recs []models.AccountReceivable
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list receivables: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM account_receivables%s", clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count receivables: %w", err)
	}
	return recs, total, nil
}

// Update persists the full mutable state of a receivable.
func (r *ReceivableRepository) Update(ctx context.Context, rec *models.AccountReceivable) error {
	rec.UpdatedAt = time.Now().UTC()
	const query = `UPDATE account_receivables
        SET concept = :concept, total_amount = :total_amount, pending_balance = :pending_balance,
            status = :status, due_date = :due_date, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("update receivable: %w", err)
	}
	return nil
}

// ApplyBalanceTx sets the post-payment balance and derived status.
func (r *ReceivableRepository) ApplyBalanceTx(ctx context.Context, tx *sqlx.Tx, id string, balance decimal.Decimal, status models.PaymentStatus) error {
	const query = `UPDATE account_receivables SET pending_balance = $2, status = $3, updated_at = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, balance, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("apply receivable balance: %w", err)
	}
	return nil
}

func (r *ReceivableRepository) markVoid(ctx context.Context, q sqlx.ExtContext, id string) error {
	// Setting VOID twice is harmless, which keeps the operation idempotent.
	const query = `UPDATE account_receivables SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := q.ExecContext(ctx, query, id, models.PaymentStatusVoid, time.Now().UTC()); err != nil {
		return fmt.Errorf("void receivable: %w", err)
	}
	return nil
}

// MarkVoid cancels a receivable without deleting it.
func (r *ReceivableRepository) MarkVoid(ctx context.Context, id string) error {
	return r.markVoid(ctx, r.db, id)
}

// MarkVoidTx cancels a receivable inside the cascade transaction.
func (r *ReceivableRepository) MarkVoidTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	return r.markVoid(ctx, tx, id)
}
