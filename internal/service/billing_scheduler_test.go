package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

func fixedScheduler(t *testing.T, day time.Time) *BillingScheduler {
	t.Helper()
	s := NewBillingScheduler(4)
	s.now = func() time.Time { return day }
	return s
}

func TestScheduleCreditSplitsEvenly(t *testing.T) {
	s := fixedScheduler(t, time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC))

	items, err := s.Schedule(EnrollmentEconomics{
		TotalCost:       decimal.NewFromInt(1000),
		Credit:          true,
		NumInstallments: 4,
	}, "2026-SCI-JODO-001")
	require.NoError(t, err)
	require.Len(t, items, 4)

	for i, item := range items {
		assert.Equal(t, models.PaymentStatusPending, item.Receivable.Status)
		assert.True(t, item.Receivable.TotalAmount.Equal(decimal.NewFromInt(250)), "installment %d amount", i+1)
		assert.True(t, item.Receivable.PendingBalance.Equal(decimal.NewFromInt(250)))
		assert.Contains(t, item.Receivable.Concept, "2026-SCI-JODO-001")
		require.NotNil(t, item.Payment)
		assert.True(t, item.Payment.AmountPaid.IsZero())
		assert.Equal(t, models.PaymentStatusPending, item.Payment.Status)
	}

	assert.Equal(t, time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC), items[0].Receivable.DueDate)
	assert.Equal(t, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), items[1].Receivable.DueDate)
	assert.Equal(t, time.Date(2026, time.March, 30, 0, 0, 0, 0, time.UTC), items[2].Receivable.DueDate)
	assert.Equal(t, time.Date(2026, time.April, 30, 0, 0, 0, 0, time.UTC), items[3].Receivable.DueDate)
}

func TestScheduleInitialPaymentAbsorbsFirstInstallment(t *testing.T) {
	s := fixedScheduler(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC))

	items, err := s.Schedule(EnrollmentEconomics{
		TotalCost:       decimal.NewFromInt(1000),
		InitialPayment:  decimal.NewFromInt(300),
		Credit:          true,
		NumInstallments: 4,
	}, "2026-SCI-JODO-001")
	require.NoError(t, err)
	require.Len(t, items, 4)

	first := items[0]
	assert.Equal(t, models.PaymentStatusPaid, first.Receivable.Status)
	assert.True(t, first.Receivable.PendingBalance.Equal(decimal.NewFromInt(250)))
	require.NotNil(t, first.Payment)
	assert.True(t, first.Payment.AmountPaid.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, models.PaymentStatusPaid, first.Payment.Status)
	assert.Equal(t, "-0", first.Payment.InvoiceSuffix)

	for _, item := range items[1:] {
		assert.Equal(t, models.PaymentStatusPending, item.Receivable.Status)
		assert.Nil(t, item.Payment)
	}
}

func TestScheduleCashSingleInstallment(t *testing.T) {
	s := fixedScheduler(t, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	items, err := s.Schedule(EnrollmentEconomics{
		TotalCost: decimal.NewFromInt(800),
		Discounts: decimal.NewFromInt(100),
	}, "CODE")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Receivable.TotalAmount.Equal(decimal.NewFromInt(700)))
}

func TestScheduleCarnetPrepaid(t *testing.T) {
	s := fixedScheduler(t, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	items, err := s.Schedule(EnrollmentEconomics{
		TotalCost:     decimal.NewFromInt(400),
		CarnetCost:    decimal.NewFromInt(50),
		CarnetPrepaid: true,
	}, "CODE")
	require.NoError(t, err)
	require.Len(t, items, 2)

	carnet := items[1]
	assert.Contains(t, carnet.Receivable.Concept, "Carnet Fee")
	assert.Equal(t, models.PaymentStatusPaid, carnet.Receivable.Status)
	assert.True(t, carnet.Receivable.PendingBalance.IsZero())
	require.NotNil(t, carnet.Payment)
	assert.True(t, carnet.Payment.AmountPaid.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, models.PaymentStatusPaid, carnet.Payment.Status)
}

func TestScheduleCarnetPending(t *testing.T) {
	s := fixedScheduler(t, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	items, err := s.Schedule(EnrollmentEconomics{
		TotalCost:  decimal.NewFromInt(400),
		CarnetCost: decimal.NewFromInt(50),
	}, "CODE")
	require.NoError(t, err)
	require.Len(t, items, 2)

	carnet := items[1]
	assert.Equal(t, models.PaymentStatusPending, carnet.Receivable.Status)
	assert.True(t, carnet.Receivable.PendingBalance.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, carnet.Payment)
	assert.True(t, carnet.Payment.AmountPaid.IsZero())
	assert.Equal(t, models.PaymentStatusPending, carnet.Payment.Status)
}

func TestScheduleZeroCarnetOmitted(t *testing.T) {
	s := fixedScheduler(t, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	items, err := s.Schedule(EnrollmentEconomics{TotalCost: decimal.NewFromInt(400)}, "CODE")
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestScheduleCreditDefaultsInstallments(t *testing.T) {
	s := fixedScheduler(t, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	items, err := s.Schedule(EnrollmentEconomics{
		TotalCost: decimal.NewFromInt(1000),
		Credit:    true,
	}, "CODE")
	require.NoError(t, err)
	assert.Len(t, items, 4)
}

func TestValidateEconomicsRejectsBadInput(t *testing.T) {
	s := NewBillingScheduler(4)

	cases := []struct {
		name string
		econ EnrollmentEconomics
	}{
		{"negative total", EnrollmentEconomics{TotalCost: decimal.NewFromInt(-1)}},
		{"negative carnet", EnrollmentEconomics{CarnetCost: decimal.NewFromInt(-5)}},
		{"discounts exceed total", EnrollmentEconomics{TotalCost: decimal.NewFromInt(100), Discounts: decimal.NewFromInt(200)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Schedule(tc.econ, "CODE")
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		})
	}
}

func TestDueDateClampsToShortMonths(t *testing.T) {
	base := time.Date(2026, time.January, 31, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC), dueDate(base, 0))
	assert.Equal(t, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), dueDate(base, 1))
	assert.Equal(t, time.Date(2026, time.April, 30, 0, 0, 0, 0, time.UTC), dueDate(base, 3))
}

func TestDueDateLeapFebruary(t *testing.T) {
	base := time.Date(2028, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2028, time.February, 29, 0, 0, 0, 0, time.UTC), dueDate(base, 1))
}
