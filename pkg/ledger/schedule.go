package ledger

import (
	"time"

	"github.com/celikhakan41/loan-service/pkg/calendar"
	"github.com/celikhakan41/loan-service/pkg/models"
	"github.com/celikhakan41/loan-service/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentCounts lists the only schedule lengths a loan may have.
var InstallmentCounts = []int{6, 9, 12, 24}

// ValidInstallmentCount reports whether n is one of InstallmentCounts.
func ValidInstallmentCount(n int) bool {
	for _, c := range InstallmentCounts {
		if c == n {
			return true
		}
	}
	return false
}

// BuildSchedule splits total into count equal installments, the first due
// on the 1st of the month after issueDate and one per month after that.
// Each share is rounded to cents independently; the last one does not
// absorb the rounding residue.
func BuildSchedule(loanID uuid.UUID, total decimal.Decimal, count int, issueDate time.Time) ([]*models.LoanInstallment, error) {
	if !ValidInstallmentCount(count) {
		return nil, &InstallmentCountError{Count: count}
	}

	share := money.Split(total, count)
	first := calendar.FirstOfNextMonth(issueDate)

	installments := make([]*models.LoanInstallment, 0, count)
	for i := 0; i < count; i++ {
		installments = append(installments, &models.LoanInstallment{
			ID:         uuid.New(),
			LoanID:     loanID,
			Sequence:   i,
			Amount:     share,
			PaidAmount: decimal.Zero,
			DueDate:    calendar.AddMonths(first, i),
			IsPaid:     false,
		})
	}
	return installments, nil
}
