package ledger

import (
	"errors"
	"fmt"

	"github.com/celikhakan41/loan-service/pkg/money"
	"github.com/shopspring/decimal"
)

// Domain errors. All of them are caused by the request, never retried, and
// returned before anything is written.
var (
	ErrCustomerNotFound          = errors.New("customer not found")
	ErrLoanNotFound              = errors.New("loan not found")
	ErrInvalidInstallmentCount   = errors.New("invalid number of installments")
	ErrInvalidLoanTerms          = errors.New("invalid loan terms")
	ErrInsufficientCredit        = errors.New("insufficient credit limit")
	ErrInvalidPaymentAmount      = errors.New("payment amount must be positive")
	ErrInvalidPaymentDate        = errors.New("payment date cannot be in the future")
	ErrLoanAlreadyPaid           = errors.New("loan is already fully paid")
	ErrNoInstallmentsAvailable   = errors.New("no unpaid installments available within payment window")
	ErrInsufficientPaymentAmount = errors.New("payment amount is insufficient to pay any complete installment")
	ErrInvalidLimit              = errors.New("invalid credit limit")
	ErrInvalidCustomerName       = errors.New("invalid customer name")
)

// InstallmentCountError reports a count outside 6, 9, 12, 24.
type InstallmentCountError struct {
	Count int
}

func (e *InstallmentCountError) Error() string {
	return fmt.Sprintf("invalid number of installments: %d, must be 6, 9, 12 or 24", e.Count)
}

func (e *InstallmentCountError) Unwrap() error { return ErrInvalidInstallmentCount }

// InsufficientCreditError carries the figures behind a rejected issuance.
type InsufficientCreditError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientCreditError) Error() string {
	return fmt.Sprintf("insufficient credit limit: available %s, requested %s",
		money.Format(e.Available), money.Format(e.Requested))
}

func (e *InsufficientCreditError) Unwrap() error { return ErrInsufficientCredit }
