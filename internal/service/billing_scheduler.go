package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

// EnrollmentEconomics is the monetary input of the schedule computation.
type EnrollmentEconomics struct {
	TotalCost       decimal.Decimal
	Discounts       decimal.Decimal
	InitialPayment  decimal.Decimal
	CarnetCost      decimal.Decimal
	CarnetPrepaid   bool
	Credit          bool
	NumInstallments int
}

// ReceivableSpec describes one obligation the scheduler wants persisted.
type ReceivableSpec struct {
	Concept        string
	TotalAmount    decimal.Decimal
	PendingBalance decimal.Decimal
	Status         models.PaymentStatus
	DueDate        time.Time
}

// PaymentSpec describes the payment record accompanying a receivable.
type PaymentSpec struct {
	AmountPaid decimal.Decimal
	Status     models.PaymentStatus
	Method     models.PaymentMethod
	// InvoiceSuffix distinguishes the initial-payment invoice label.
	InvoiceSuffix string
	Notes         string
}

// ScheduleItem pairs a receivable with its optional accompanying payment.
type ScheduleItem struct {
	Receivable ReceivableSpec
	Payment    *PaymentSpec
}

// BillingScheduler derives the tuition billing schedule for an enrollment.
// It is a pure computation; persistence belongs to the enrollment workflow.
type BillingScheduler struct {
	defaultInstallments int
	now                 func() time.Time
}

// NewBillingScheduler constructs the scheduler.
func NewBillingScheduler(defaultInstallments int) *BillingScheduler {
	if defaultInstallments < 1 {
		defaultInstallments = 4
	}
	return &BillingScheduler{defaultInstallments: defaultInstallments, now: time.Now}
}

// ValidateEconomics rejects malformed monetary input before anything is
// persisted.
func (s *BillingScheduler) ValidateEconomics(econ EnrollmentEconomics) error {
	for _, amount := range []decimal.Decimal{econ.TotalCost, econ.Discounts, econ.InitialPayment, econ.CarnetCost} {
		if amount.IsNegative() {
			return appErrors.Clone(appErrors.ErrValidation, "monetary amounts must not be negative")
		}
	}
	if econ.Discounts.GreaterThan(econ.TotalCost) {
		return appErrors.Clone(appErrors.ErrValidation, "discounts must not exceed total cost")
	}
	if econ.NumInstallments < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "installment count must be positive")
	}
	return nil
}

// Schedule produces the ordered receivable/payment specifications for the
// given economics. Concepts embed the student code so the removal cascade
// can locate them later.
func (s *BillingScheduler) Schedule(econ EnrollmentEconomics, code string) ([]ScheduleItem, error) {
	if err := s.ValidateEconomics(econ); err != nil {
		return nil, err
	}

	net := econ.TotalCost.Sub(econ.Discounts)
	installments := 1
	if econ.Credit {
		installments = econ.NumInstallments
		if installments < 1 {
			installments = s.defaultInstallments
		}
	}
	perInstallment := net.Div(decimal.NewFromInt(int64(installments)))

	today := s.now()
	items := make([]ScheduleItem, 0, installments+1)

	first := 1
	if econ.InitialPayment.GreaterThanOrEqual(perInstallment) && perInstallment.IsPositive() {
		// The initial payment absorbs the first installment. The receivable
		// keeps the installment amount on record while the settling payment
		// carries the full amount actually collected.
		items = append(items, ScheduleItem{
			Receivable: ReceivableSpec{
				Concept:        installmentConcept(1, code),
				TotalAmount:    perInstallment,
				PendingBalance: perInstallment,
				Status:         models.PaymentStatusPaid,
				DueDate:        today,
			},
			Payment: &PaymentSpec{
				AmountPaid:    econ.InitialPayment,
				Status:        models.PaymentStatusPaid,
				Method:        models.PaymentMethodCash,
				InvoiceSuffix: "-0",
				Notes:         fmt.Sprintf("Initial payment covering installment 1 - %s", code),
			},
		})
		first = 2
	}

	for n := first; n <= installments; n++ {
		item := ScheduleItem{
			Receivable: ReceivableSpec{
				Concept:        installmentConcept(n, code),
				TotalAmount:    perInstallment,
				PendingBalance: perInstallment,
				Status:         models.PaymentStatusPending,
				DueDate:        dueDate(today, n-1),
			},
		}
		if first == 1 {
			item.Payment = &PaymentSpec{
				AmountPaid: decimal.Zero,
				Status:     models.PaymentStatusPending,
				Method:     models.PaymentMethodCash,
				Notes:      fmt.Sprintf("Installment %d pending - %s", n, code),
			}
		}
		items = append(items, item)
	}

	// Carnet handling is independent of the installment plan.
	if econ.CarnetCost.IsPositive() {
		concept := fmt.Sprintf("Carnet Fee - %s", code)
		if econ.CarnetPrepaid {
			items = append(items, ScheduleItem{
				Receivable: ReceivableSpec{
					Concept:        concept,
					TotalAmount:    econ.CarnetCost,
					PendingBalance: decimal.Zero,
					Status:         models.PaymentStatusPaid,
					DueDate:        dueDate(today, 0),
				},
				Payment: &PaymentSpec{
					AmountPaid: econ.CarnetCost,
					Status:     models.PaymentStatusPaid,
					Method:     models.PaymentMethodCash,
					Notes:      fmt.Sprintf("Carnet fee paid at enrollment - %s", code),
				},
			})
		} else {
			items = append(items, ScheduleItem{
				Receivable: ReceivableSpec{
					Concept:        concept,
					TotalAmount:    econ.CarnetCost,
					PendingBalance: econ.CarnetCost,
					Status:         models.PaymentStatusPending,
					DueDate:        dueDate(today, 0),
				},
				Payment: &PaymentSpec{
					AmountPaid: decimal.Zero,
					Status:     models.PaymentStatusPending,
					Method:     models.PaymentMethodCash,
					Notes:      fmt.Sprintf("Carnet fee pending - %s", code),
				},
			})
		}
	}

	return items, nil
}

func installmentConcept(n int, code string) string {
	return fmt.Sprintf("Tuition Installment %d - %s", n, code)
}

// dueDate advances today by the given number of months and fixes the day to
// the 30th, clamped to the last day of months that are shorter.
func dueDate(today time.Time, monthsAhead int) time.Time {
	year, month, _ := today.Date()
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	target := firstOfMonth.AddDate(0, monthsAhead, 0)

	lastDay := target.AddDate(0, 1, -1).Day()
	day := 30
	if lastDay < day {
		day = lastDay
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, time.UTC)
}
