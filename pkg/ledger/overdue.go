package ledger

import (
	"context"
	"fmt"

	"github.com/celikhakan41/loan-service/pkg/calendar"
	"github.com/celikhakan41/loan-service/pkg/models"
	"github.com/celikhakan41/loan-service/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// OverdueInstallment is an unpaid installment past its due date, priced as
// if it were paid today.
type OverdueInstallment struct {
	Installment *models.LoanInstallment
	DaysOverdue int
	Penalty     decimal.Decimal
	AmountDue   decimal.Decimal
}

// SweepOverdue reports every unpaid installment whose due date has passed.
// It only reads; penalties are charged when the installment is paid.
func (l *Ledger) SweepOverdue(ctx context.Context) ([]OverdueInstallment, error) {
	today := l.Today()
	installments, err := l.storage.ListOverdueInstallments(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue installments: %w", err)
	}

	overdue := make([]OverdueInstallment, 0, len(installments))
	for _, inst := range installments {
		detail := Adjust(inst, today)
		item := OverdueInstallment{
			Installment: inst,
			DaysOverdue: calendar.DaysBetween(inst.DueDate, today),
			Penalty:     detail.Penalty,
			AmountDue:   detail.EffectiveAmount,
		}
		overdue = append(overdue, item)

		l.log.WithFields(logrus.Fields{
			"loan_id":        inst.LoanID,
			"installment_id": inst.ID,
			"due_date":       calendar.Format(inst.DueDate),
			"days_overdue":   item.DaysOverdue,
			"penalty":        money.Format(item.Penalty),
		}).Warn("Installment overdue")
	}

	l.log.Infof("Overdue sweep for %s found %d installments", calendar.Format(today), len(overdue))
	return overdue, nil
}
