package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer holds a revolving credit line. UsedCreditLimit is changed only by
// the ledger (loan issuance, loan payoff).
type Customer struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Surname         string          `json:"surname"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	UsedCreditLimit decimal.Decimal `json:"used_credit_limit"`
}

// AvailableCredit is the part of the credit line not yet committed to loans.
func (c *Customer) AvailableCredit() decimal.Decimal {
	return c.CreditLimit.Sub(c.UsedCreditLimit)
}

// FullName joins name and surname.
func (c *Customer) FullName() string {
	return c.Name + " " + c.Surname
}

type Loan struct {
	ID                  uuid.UUID          `json:"id"`
	CustomerID          uuid.UUID          `json:"customer_id"`
	LoanAmount          decimal.Decimal    `json:"loan_amount"` // Interest-inclusive total owed
	NumberOfInstallment int                `json:"number_of_installment"`
	InterestRate        decimal.Decimal    `json:"interest_rate"`
	CreateDate          time.Time          `json:"create_date"`
	IsPaid              bool               `json:"is_paid"`
	Installments        []*LoanInstallment `json:"installments,omitempty"`
}

type LoanInstallment struct {
	ID          uuid.UUID       `json:"id"`
	LoanID      uuid.UUID       `json:"loan_id"`
	Sequence    int             `json:"sequence"` // Position in the generated schedule, 0-based
	Amount      decimal.Decimal `json:"amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	DueDate     time.Time       `json:"due_date"`
	PaymentDate *time.Time      `json:"payment_date,omitempty"`
	IsPaid      bool            `json:"is_paid"`
}

// RemainingAmount is what is still owed on the installment.
func (i *LoanInstallment) RemainingAmount() decimal.Decimal {
	return i.Amount.Sub(i.PaidAmount)
}

type InstallmentStatus string

const (
	InstallmentStatusPaid    InstallmentStatus = "PAID"
	InstallmentStatusOverdue InstallmentStatus = "OVERDUE"
	InstallmentStatusUnpaid  InstallmentStatus = "UNPAID"
)

// Status classifies the installment as of the given date.
func (i *LoanInstallment) Status(asOf time.Time) InstallmentStatus {
	if i.IsPaid {
		return InstallmentStatusPaid
	}
	if i.DueDate.Before(asOf) {
		return InstallmentStatusOverdue
	}
	return InstallmentStatusUnpaid
}

type PaymentType string

const (
	PaymentTypeEarly  PaymentType = "EARLY"
	PaymentTypeOnTime PaymentType = "ON_TIME"
	PaymentTypeLate   PaymentType = "LATE"
)

// InstallmentPaymentDetail describes how one installment was settled.
type InstallmentPaymentDetail struct {
	InstallmentID   uuid.UUID       `json:"installment_id"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	EffectiveAmount decimal.Decimal `json:"effective_amount"`
	Discount        decimal.Decimal `json:"discount"`
	Penalty         decimal.Decimal `json:"penalty"`
	PaymentType     PaymentType     `json:"payment_type"`
}

type PaymentResult struct {
	InstallmentsPaid int                        `json:"installments_paid_count"`
	TotalAmountSpent decimal.Decimal            `json:"total_amount_spent"`
	IsLoanComplete   bool                       `json:"is_loan_complete"`
	Details          []InstallmentPaymentDetail `json:"payment_details"`
}
