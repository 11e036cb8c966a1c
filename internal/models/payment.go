package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates accepted collection channels.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodCard     PaymentMethod = "CARD"
)

// Payment records money applied (or scheduled to be applied) against one
// AccountReceivable. Its status mirrors the obligation's settlement state at
// the time the record was written and is not re-derived afterwards.
type Payment struct {
	ID                  string          `db:"id" json:"id"`
	AccountReceivableID string          `db:"account_receivable_id" json:"account_receivable_id"`
	InvoiceNumber       string          `db:"invoice_number" json:"invoice_number"`
	AmountPaid          decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	PaymentMethod       PaymentMethod   `db:"payment_method" json:"payment_method"`
	Status              PaymentStatus   `db:"status" json:"status"`
	PaymentDate         time.Time       `db:"payment_date" json:"payment_date"`
	DueDate             time.Time       `db:"due_date" json:"due_date"`
	Notes               *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}
