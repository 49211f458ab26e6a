package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/celikhakan41/loan-service/pkg/models"
	"github.com/celikhakan41/loan-service/pkg/money"
	"github.com/celikhakan41/loan-service/pkg/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	MinInterestRate = decimal.RequireFromString("0.1")
	MaxInterestRate = decimal.RequireFromString("0.5")
)

// checkTerms rejects principals and rates the product does not offer.
func checkTerms(principal, rate decimal.Decimal) error {
	if !principal.IsPositive() {
		return fmt.Errorf("%w: principal must be positive", ErrInvalidLoanTerms)
	}
	if rate.LessThan(MinInterestRate) || rate.GreaterThan(MaxInterestRate) {
		return fmt.Errorf("%w: interest rate %s outside [%s, %s]", ErrInvalidLoanTerms,
			money.FormatRate(rate), money.FormatRate(MinInterestRate), money.FormatRate(MaxInterestRate))
	}
	return nil
}

// IssueLoan builds a new loan and its schedule and debits the customer's
// credit by the interest-inclusive total. Nothing is modified on error.
func IssueLoan(customer *models.Customer, principal decimal.Decimal, count int, rate decimal.Decimal, today time.Time) (*models.Loan, error) {
	if !ValidInstallmentCount(count) {
		return nil, &InstallmentCountError{Count: count}
	}
	if err := checkTerms(principal, rate); err != nil {
		return nil, err
	}

	total := money.Round(principal.Mul(decimal.NewFromInt(1).Add(rate)))
	if !CanExtend(customer, total) {
		return nil, &InsufficientCreditError{Available: customer.AvailableCredit(), Requested: total}
	}

	loan := &models.Loan{
		ID:                  uuid.New(),
		CustomerID:          customer.ID,
		LoanAmount:          total,
		NumberOfInstallment: count,
		InterestRate:        rate,
		CreateDate:          today,
		IsPaid:              false,
	}
	installments, err := BuildSchedule(loan.ID, total, count, today)
	if err != nil {
		return nil, err
	}
	loan.Installments = installments

	debit(customer, total)
	return loan, nil
}

// CreateLoan issues a loan to a customer and stores the loan, its
// installments and the customer's new used credit in one transaction.
func (l *Ledger) CreateLoan(ctx context.Context, customerID uuid.UUID, principal decimal.Decimal, count int, rate decimal.Decimal) (*models.Loan, error) {
	if !ValidInstallmentCount(count) {
		return nil, &InstallmentCountError{Count: count}
	}

	var loan *models.Loan
	err := l.storage.WithinTx(ctx, func(tx store.Storage) error {
		customer, err := tx.GetCustomer(ctx, customerID)
		if err != nil {
			return notFound(err, ErrCustomerNotFound)
		}

		issued, err := IssueLoan(customer, principal, count, rate, l.Today())
		if err != nil {
			return err
		}

		if err := tx.CreateLoan(ctx, issued); err != nil {
			return fmt.Errorf("failed to store loan: %w", err)
		}
		if err := tx.CreateInstallments(ctx, issued.Installments); err != nil {
			return fmt.Errorf("failed to store installments: %w", err)
		}
		if err := tx.UpdateCustomer(ctx, customer); err != nil {
			return fmt.Errorf("failed to update customer credit: %w", err)
		}
		loan = issued
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.WithFields(logrus.Fields{
		"loan_id":      loan.ID,
		"customer_id":  loan.CustomerID,
		"loan_amount":  money.Format(loan.LoanAmount),
		"installments": loan.NumberOfInstallment,
	}).Info("Loan created")
	return loan, nil
}
