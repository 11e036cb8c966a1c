package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the settlement state shared by receivables and payments.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusVoid    PaymentStatus = "VOID"
)

// AccountReceivable is a single monetary obligation owed by a student: one
// tuition installment or the carnet fee. Records are never physically
// deleted; cancellation is the VOID status.
type AccountReceivable struct {
	ID             string          `db:"id" json:"id"`
	StudentID      string          `db:"student_id" json:"student_id"`
	Concept        string          `db:"concept" json:"concept"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	PendingBalance decimal.Decimal `db:"pending_balance" json:"pending_balance"`
	Status         PaymentStatus   `db:"status" json:"status"`
	DueDate        time.Time       `db:"due_date" json:"due_date"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// ReceivableFilter narrows receivable listings.
type ReceivableFilter struct {
	StudentID string
	Status    PaymentStatus
	// IncludeSettled lifts the default pending-balance-only restriction.
	IncludeSettled bool
	Page           int
	PageSize       int
}

// ReceivablePatch carries administrative corrections to a receivable.
type ReceivablePatch struct {
	Concept        *string          `json:"concept,omitempty"`
	TotalAmount    *decimal.Decimal `json:"total_amount,omitempty"`
	PendingBalance *decimal.Decimal `json:"pending_balance,omitempty"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
}
