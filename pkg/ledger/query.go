package ledger

import (
	"context"

	"github.com/celikhakan41/loan-service/pkg/models"
	"github.com/celikhakan41/loan-service/pkg/store"
	"github.com/google/uuid"
)

// CustomerLoans lists a customer's loans, optionally filtered.
func (l *Ledger) CustomerLoans(ctx context.Context, customerID uuid.UUID, filter store.LoanFilter) ([]*models.Loan, error) {
	if _, err := l.storage.GetCustomer(ctx, customerID); err != nil {
		return nil, notFound(err, ErrCustomerNotFound)
	}
	return l.storage.ListLoansByCustomer(ctx, customerID, filter)
}

// GetLoan retrieves a loan with its installments.
func (l *Ledger) GetLoan(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	loan, err := l.storage.GetLoan(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrLoanNotFound)
	}
	installments, err := l.storage.GetInstallmentsForLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	loan.Installments = installments
	return loan, nil
}

// LoanInstallments lists a loan's installments in schedule order.
func (l *Ledger) LoanInstallments(ctx context.Context, loanID uuid.UUID) ([]*models.LoanInstallment, error) {
	if _, err := l.storage.GetLoan(ctx, loanID); err != nil {
		return nil, notFound(err, ErrLoanNotFound)
	}
	return l.storage.GetInstallmentsForLoan(ctx, loanID)
}

// OwnerOf returns the ID of the customer a loan was issued to.
func (l *Ledger) OwnerOf(ctx context.Context, loanID uuid.UUID) (uuid.UUID, error) {
	loan, err := l.storage.GetLoan(ctx, loanID)
	if err != nil {
		return uuid.Nil, notFound(err, ErrLoanNotFound)
	}
	return loan.CustomerID, nil
}
