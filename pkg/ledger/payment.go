package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/celikhakan41/loan-service/pkg/calendar"
	"github.com/celikhakan41/loan-service/pkg/models"
	"github.com/celikhakan41/loan-service/pkg/money"
	"github.com/celikhakan41/loan-service/pkg/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const paymentWindowMonths = 2

// dailyAdjustmentRate is the per-day discount for early and penalty for late payment.
var dailyAdjustmentRate = decimal.RequireFromString("0.001")

// CheckPayment validates the amount and date of a payment request.
func CheckPayment(amount decimal.Decimal, paymentDate, today time.Time) error {
	if !amount.IsPositive() {
		return ErrInvalidPaymentAmount
	}
	if calendar.Truncate(paymentDate).After(calendar.Truncate(today)) {
		return ErrInvalidPaymentDate
	}
	return nil
}

// PaymentWindowEnd is the last due date a payment made on paymentDate may
// settle: the end of the month two months after paymentDate's month.
func PaymentWindowEnd(paymentDate time.Time) time.Time {
	return calendar.EndOfMonthAfter(paymentDate, paymentWindowMonths)
}

// Adjust prices an installment for settlement on paymentDate. Discount and
// penalty are 0.1% of the outstanding amount per day early or late.
func Adjust(inst *models.LoanInstallment, paymentDate time.Time) models.InstallmentPaymentDetail {
	original := inst.RemainingAmount()
	days := calendar.DaysBetween(inst.DueDate, paymentDate)

	discount := decimal.Zero
	penalty := decimal.Zero
	paymentType := models.PaymentTypeOnTime
	switch {
	case days < 0:
		discount = original.Mul(decimal.NewFromInt(int64(-days))).Mul(dailyAdjustmentRate)
		paymentType = models.PaymentTypeEarly
	case days > 0:
		penalty = original.Mul(decimal.NewFromInt(int64(days))).Mul(dailyAdjustmentRate)
		paymentType = models.PaymentTypeLate
	}

	return models.InstallmentPaymentDetail{
		InstallmentID:   inst.ID,
		OriginalAmount:  original,
		EffectiveAmount: money.Round(original.Sub(discount).Add(penalty)),
		Discount:        money.Round(discount),
		Penalty:         money.Round(penalty),
		PaymentType:     paymentType,
	}
}

// Allocate settles whole installments in due-date order until the next one
// costs more than what is left of amount. Only unpaid installments due by
// the payment window end are considered. A settled installment records its
// nominal amount as paid, whatever the discount or penalty. The settled
// installments are returned; none are touched when an error is returned.
func Allocate(installments []*models.LoanInstallment, amount decimal.Decimal, paymentDate time.Time) (*models.PaymentResult, []*models.LoanInstallment, error) {
	windowEnd := PaymentWindowEnd(paymentDate)

	eligible := make([]*models.LoanInstallment, 0, len(installments))
	for _, inst := range installments {
		if !inst.IsPaid && !inst.DueDate.After(windowEnd) {
			eligible = append(eligible, inst)
		}
	}
	if len(eligible) == 0 {
		return nil, nil, ErrNoInstallmentsAvailable
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if !eligible[i].DueDate.Equal(eligible[j].DueDate) {
			return eligible[i].DueDate.Before(eligible[j].DueDate)
		}
		return eligible[i].Sequence < eligible[j].Sequence
	})

	remaining := amount
	spent := decimal.Zero
	var details []models.InstallmentPaymentDetail
	var paid []*models.LoanInstallment
	for _, inst := range eligible {
		if !remaining.IsPositive() {
			break
		}
		detail := Adjust(inst, paymentDate)
		if remaining.LessThan(detail.EffectiveAmount) {
			break
		}
		remaining = remaining.Sub(detail.EffectiveAmount)
		spent = spent.Add(detail.EffectiveAmount)
		details = append(details, detail)
		paid = append(paid, inst)
	}
	if len(paid) == 0 {
		return nil, nil, ErrInsufficientPaymentAmount
	}

	settledOn := calendar.Truncate(paymentDate)
	for _, inst := range paid {
		inst.PaidAmount = inst.Amount
		inst.PaymentDate = &settledOn
		inst.IsPaid = true
	}

	return &models.PaymentResult{
		InstallmentsPaid: len(paid),
		TotalAmountSpent: spent,
		Details:          details,
	}, paid, nil
}

// completeLoan marks the loan paid and gives its total back to the
// customer's credit line. A loan already paid is left alone.
func completeLoan(loan *models.Loan, customer *models.Customer) bool {
	if loan.IsPaid {
		return false
	}
	loan.IsPaid = true
	release(customer, loan.LoanAmount)
	return true
}

// PayLoan applies a payment made on paymentDate to a loan.
func (l *Ledger) PayLoan(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal, paymentDate time.Time) (*models.PaymentResult, error) {
	paymentDate = calendar.Truncate(paymentDate)
	if err := CheckPayment(amount, paymentDate, l.Today()); err != nil {
		return nil, err
	}

	var result *models.PaymentResult
	err := l.storage.WithinTx(ctx, func(tx store.Storage) error {
		loan, err := tx.GetLoan(ctx, loanID)
		if err != nil {
			return notFound(err, ErrLoanNotFound)
		}
		if loan.IsPaid {
			return ErrLoanAlreadyPaid
		}

		candidates, err := tx.FindUnpaidInstallmentsDueBy(ctx, loan.ID, PaymentWindowEnd(paymentDate))
		if err != nil {
			return fmt.Errorf("failed to load installments: %w", err)
		}
		res, paid, err := Allocate(candidates, amount, paymentDate)
		if err != nil {
			return err
		}
		if err := tx.UpdateInstallments(ctx, paid); err != nil {
			return fmt.Errorf("failed to update installments: %w", err)
		}

		unpaid, err := tx.CountUnpaidInstallments(ctx, loan.ID)
		if err != nil {
			return fmt.Errorf("failed to count unpaid installments: %w", err)
		}
		if unpaid == 0 {
			customer, err := tx.GetCustomer(ctx, loan.CustomerID)
			if err != nil {
				return notFound(err, ErrCustomerNotFound)
			}
			if completeLoan(loan, customer) {
				if err := tx.UpdateLoan(ctx, loan); err != nil {
					return fmt.Errorf("failed to update loan: %w", err)
				}
				if err := tx.UpdateCustomer(ctx, customer); err != nil {
					return fmt.Errorf("failed to update customer credit: %w", err)
				}
			}
			res.IsLoanComplete = true
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.WithFields(logrus.Fields{
		"loan_id":           loanID,
		"installments_paid": result.InstallmentsPaid,
		"amount_spent":      money.Format(result.TotalAmountSpent),
		"loan_complete":     result.IsLoanComplete,
	}).Info("Payment applied")
	return result, nil
}
