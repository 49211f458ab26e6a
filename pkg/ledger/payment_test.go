package ledger

import (
	"testing"
	"time"

	"github.com/celikhakan41/loan-service/pkg/calendar"
	"github.com/celikhakan41/loan-service/pkg/models"
	"github.com/celikhakan41/loan-service/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func installment(seq int, amount string, due time.Time) *models.LoanInstallment {
	return &models.LoanInstallment{
		ID:         uuid.New(),
		Sequence:   seq,
		Amount:     dec(amount),
		PaidAmount: decimal.Zero,
		DueDate:    due,
	}
}

func TestCheckPayment(t *testing.T) {
	today := calendar.Date(2024, time.March, 15)

	assert.NoError(t, CheckPayment(dec("0.01"), today, today))
	assert.NoError(t, CheckPayment(dec("100"), today.AddDate(0, 0, -30), today))
	assert.ErrorIs(t, CheckPayment(decimal.Zero, today, today), ErrInvalidPaymentAmount)
	assert.ErrorIs(t, CheckPayment(dec("-5"), today, today), ErrInvalidPaymentAmount)
	assert.ErrorIs(t, CheckPayment(dec("100"), today.AddDate(0, 0, 1), today), ErrInvalidPaymentDate)
	// amount is validated before the date
	assert.ErrorIs(t, CheckPayment(decimal.Zero, today.AddDate(0, 0, 1), today), ErrInvalidPaymentAmount)
}

func TestPaymentWindowEnd(t *testing.T) {
	cases := []struct {
		paid time.Time
		want time.Time
	}{
		{calendar.Date(2024, time.March, 15), calendar.Date(2024, time.May, 31)},
		{calendar.Date(2024, time.March, 1), calendar.Date(2024, time.May, 31)},
		{calendar.Date(2023, time.December, 31), calendar.Date(2024, time.February, 29)},
		{calendar.Date(2024, time.December, 15), calendar.Date(2025, time.February, 28)},
		{calendar.Date(2024, time.November, 30), calendar.Date(2025, time.January, 31)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PaymentWindowEnd(tc.paid), "paid on %s", calendar.Format(tc.paid))
	}
}

func TestAdjust(t *testing.T) {
	due := calendar.Date(2024, time.April, 1)

	t.Run("on time", func(t *testing.T) {
		d := Adjust(installment(0, "1000.00", due), due)
		assert.Equal(t, models.PaymentTypeOnTime, d.PaymentType)
		assert.Equal(t, "1000.00", money.Format(d.EffectiveAmount))
		assert.True(t, d.Discount.IsZero())
		assert.True(t, d.Penalty.IsZero())
	})

	t.Run("late", func(t *testing.T) {
		d := Adjust(installment(0, "1000.00", due), due.AddDate(0, 0, 5))
		assert.Equal(t, models.PaymentTypeLate, d.PaymentType)
		assert.Equal(t, "5.00", money.Format(d.Penalty))
		assert.Equal(t, "1005.00", money.Format(d.EffectiveAmount))
		assert.True(t, d.Discount.IsZero())
	})

	t.Run("early", func(t *testing.T) {
		d := Adjust(installment(0, "1000.00", due), due.AddDate(0, 0, -10))
		assert.Equal(t, models.PaymentTypeEarly, d.PaymentType)
		assert.Equal(t, "10.00", money.Format(d.Discount))
		assert.Equal(t, "990.00", money.Format(d.EffectiveAmount))
		assert.True(t, d.Penalty.IsZero())
	})

	t.Run("rounds half up to cents", func(t *testing.T) {
		d := Adjust(installment(0, "183.33", due), due.AddDate(0, 0, 7))
		assert.Equal(t, "1.28", money.Format(d.Penalty))
		assert.Equal(t, "184.61", money.Format(d.EffectiveAmount))
		assert.Equal(t, "183.33", money.Format(d.OriginalAmount))
	})

	t.Run("uses outstanding amount", func(t *testing.T) {
		inst := installment(0, "1000.00", due)
		inst.PaidAmount = dec("400.00")
		d := Adjust(inst, due.AddDate(0, 0, 10))
		assert.Equal(t, "600.00", money.Format(d.OriginalAmount))
		assert.Equal(t, "6.00", money.Format(d.Penalty))
		assert.Equal(t, "606.00", money.Format(d.EffectiveAmount))
	})
}

func TestAllocate_ScenarioB_LatePayment(t *testing.T) {
	today := calendar.Date(2024, time.March, 15)
	inst := installment(0, "1000.00", today.AddDate(0, 0, -5))

	result, paid, err := Allocate([]*models.LoanInstallment{inst}, dec("1005.00"), today)
	require.NoError(t, err)

	assert.Equal(t, 1, result.InstallmentsPaid)
	assert.Equal(t, "1005.00", money.Format(result.TotalAmountSpent))
	require.Len(t, result.Details, 1)
	assert.Equal(t, models.PaymentTypeLate, result.Details[0].PaymentType)
	assert.Equal(t, "5.00", money.Format(result.Details[0].Penalty))

	require.Len(t, paid, 1)
	assert.True(t, inst.IsPaid)
	assert.Equal(t, "1000.00", money.Format(inst.PaidAmount), "paid amount is the nominal amount")
	require.NotNil(t, inst.PaymentDate)
	assert.Equal(t, today, *inst.PaymentDate)
}

func TestAllocate_ScenarioC_EarlyPayment(t *testing.T) {
	today := calendar.Date(2024, time.March, 15)
	inst := installment(0, "1000.00", today.AddDate(0, 0, 10))

	result, _, err := Allocate([]*models.LoanInstallment{inst}, dec("990.00"), today)
	require.NoError(t, err)

	assert.Equal(t, 1, result.InstallmentsPaid)
	assert.Equal(t, models.PaymentTypeEarly, result.Details[0].PaymentType)
	assert.Equal(t, "10.00", money.Format(result.Details[0].Discount))
	assert.Equal(t, "1000.00", money.Format(inst.PaidAmount))
	assert.True(t, inst.IsPaid)
}

func TestAllocate_ScenarioD_InsufficientAmountChangesNothing(t *testing.T) {
	today := calendar.Date(2024, time.March, 15)
	first := installment(0, "1000.00", today)
	second := installment(1, "1000.00", today.AddDate(0, 1, 0))

	result, paid, err := Allocate([]*models.LoanInstallment{first, second}, dec("999.99"), today)
	assert.ErrorIs(t, err, ErrInsufficientPaymentAmount)
	assert.Nil(t, result)
	assert.Nil(t, paid)
	for _, inst := range []*models.LoanInstallment{first, second} {
		assert.False(t, inst.IsPaid)
		assert.True(t, inst.PaidAmount.IsZero())
		assert.Nil(t, inst.PaymentDate)
	}
}

func TestAllocate_StopsAtFirstUnaffordableInstallment(t *testing.T) {
	paidOn := calendar.Date(2024, time.March, 1)
	first := installment(0, "100.00", calendar.Date(2024, time.March, 1))
	second := installment(1, "300.00", calendar.Date(2024, time.April, 1))
	third := installment(2, "50.00", calendar.Date(2024, time.May, 1))

	result, paid, err := Allocate([]*models.LoanInstallment{first, second, third}, dec("200.00"), paidOn)
	require.NoError(t, err)

	assert.Equal(t, 1, result.InstallmentsPaid)
	assert.Equal(t, []*models.LoanInstallment{first}, paid)
	assert.False(t, second.IsPaid)
	assert.False(t, third.IsPaid, "a cheaper later installment must not be paid out of order")
}

func TestAllocate_PaysInDueDateOrder(t *testing.T) {
	paidOn := calendar.Date(2024, time.March, 1)
	march := installment(0, "100.00", calendar.Date(2024, time.March, 1))
	april := installment(1, "100.00", calendar.Date(2024, time.April, 1))
	aprilTwin := installment(2, "100.00", calendar.Date(2024, time.April, 1))

	result, paid, err := Allocate([]*models.LoanInstallment{aprilTwin, april, march}, dec("200.00"), paidOn)
	require.NoError(t, err)

	// march is on time (100.00), april is 31 days early (96.90)
	assert.Equal(t, 2, result.InstallmentsPaid)
	assert.Equal(t, []*models.LoanInstallment{march, april}, paid)
	assert.Equal(t, "196.90", money.Format(result.TotalAmountSpent))
	assert.False(t, aprilTwin.IsPaid)
}

func TestAllocate_IgnoresInstallmentsOutsideWindow(t *testing.T) {
	paidOn := calendar.Date(2024, time.March, 15)
	april := installment(0, "1000.00", calendar.Date(2024, time.April, 1))
	may := installment(1, "1000.00", calendar.Date(2024, time.May, 1))
	june := installment(2, "1000.00", calendar.Date(2024, time.June, 1))

	result, paid, err := Allocate([]*models.LoanInstallment{april, may, june}, dec("5000.00"), paidOn)
	require.NoError(t, err)

	// 17 and 47 days early
	assert.Equal(t, 2, result.InstallmentsPaid)
	assert.Len(t, paid, 2)
	assert.Equal(t, "983.00", money.Format(result.Details[0].EffectiveAmount))
	assert.Equal(t, "953.00", money.Format(result.Details[1].EffectiveAmount))
	assert.Equal(t, "1936.00", money.Format(result.TotalAmountSpent))
	assert.False(t, june.IsPaid)
}

func TestAllocate_NothingEligible(t *testing.T) {
	paidOn := calendar.Date(2024, time.March, 15)
	settled := installment(0, "1000.00", calendar.Date(2024, time.April, 1))
	settled.IsPaid = true
	later := installment(1, "1000.00", calendar.Date(2024, time.July, 1))

	_, _, err := Allocate([]*models.LoanInstallment{settled, later}, dec("5000.00"), paidOn)
	assert.ErrorIs(t, err, ErrNoInstallmentsAvailable)

	_, _, err = Allocate(nil, dec("5000.00"), paidOn)
	assert.ErrorIs(t, err, ErrNoInstallmentsAvailable)
}

func TestCompleteLoan_ReleasesCreditOnce(t *testing.T) {
	customer := &models.Customer{CreditLimit: dec("5000"), UsedCreditLimit: dec("1200")}
	loan := &models.Loan{LoanAmount: dec("1200")}

	assert.True(t, completeLoan(loan, customer))
	assert.True(t, loan.IsPaid)
	assert.True(t, customer.UsedCreditLimit.IsZero())

	assert.False(t, completeLoan(loan, customer))
	assert.True(t, customer.UsedCreditLimit.IsZero())
}
