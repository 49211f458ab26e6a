package store

import (
	"context"
	"errors"
	"time"

	"github.com/celikhakan41/loan-service/pkg/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// LoanFilter narrows ListLoansByCustomer. Nil fields do not filter.
type LoanFilter struct {
	IsPaid              *bool
	NumberOfInstallment *int
}

// Storage defines the persistence operations for customers, loans and installments.
type Storage interface {
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, customer *models.Customer) error
	ListCustomers(ctx context.Context) ([]*models.Customer, error)

	// CreateLoan assigns an ID when the loan has none.
	CreateLoan(ctx context.Context, loan *models.Loan) error
	GetLoan(ctx context.Context, id uuid.UUID) (*models.Loan, error)
	UpdateLoan(ctx context.Context, loan *models.Loan) error
	ListLoansByCustomer(ctx context.Context, customerID uuid.UUID, filter LoanFilter) ([]*models.Loan, error)

	CreateInstallments(ctx context.Context, installments []*models.LoanInstallment) error
	UpdateInstallments(ctx context.Context, installments []*models.LoanInstallment) error
	GetInstallmentsForLoan(ctx context.Context, loanID uuid.UUID) ([]*models.LoanInstallment, error)
	// FindUnpaidInstallmentsDueBy returns unpaid installments with due date <= maxDueDate,
	// ordered by due date then sequence.
	FindUnpaidInstallmentsDueBy(ctx context.Context, loanID uuid.UUID, maxDueDate time.Time) ([]*models.LoanInstallment, error)
	CountUnpaidInstallments(ctx context.Context, loanID uuid.UUID) (int, error)
	// ListOverdueInstallments returns unpaid installments due strictly before asOf.
	ListOverdueInstallments(ctx context.Context, asOf time.Time) ([]*models.LoanInstallment, error)

	// WithinTx runs fn against a Storage bound to a single transaction.
	// Nested calls reuse the outer transaction.
	WithinTx(ctx context.Context, fn func(s Storage) error) error

	Close() error
}
