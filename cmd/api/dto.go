package main

import (
	"reflect"
	"strings"
	"time"

	"github.com/celikhakan41/loan-service/pkg/calendar"
	"github.com/celikhakan41/loan-service/pkg/models"
	"github.com/celikhakan41/loan-service/pkg/money"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type createCustomerRequest struct {
	Name        string          `json:"name" validate:"required,min=2,max=50"`
	Surname     string          `json:"surname" validate:"required,min=2,max=50"`
	CreditLimit decimal.Decimal `json:"creditLimit" validate:"gt=0"`
}

type updateCreditLimitRequest struct {
	CreditLimit decimal.Decimal `json:"creditLimit" validate:"gt=0"`
}

// NumberOfInstallment is left to the ledger so that it reports its own error code.
type createLoanRequest struct {
	CustomerID          string          `json:"customerId" validate:"required,uuid"`
	LoanAmount          decimal.Decimal `json:"loanAmount" validate:"gt=0"`
	NumberOfInstallment int             `json:"numberOfInstallment"`
	InterestRate        decimal.Decimal `json:"interestRate" validate:"gte=0.1,lte=0.5"`
}

// PaymentAmount is checked by the ledger, which reports INVALID_PAYMENT_AMOUNT.
type payLoanRequest struct {
	PaymentAmount decimal.Decimal `json:"paymentAmount"`
	PaymentDate   string          `json:"paymentDate" validate:"omitempty,datetime=2006-01-02"`
}

// newValidator compares decimals as float64 and reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type customerResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	CreditLimit     string `json:"creditLimit"`
	UsedCreditLimit string `json:"usedCreditLimit"`
	AvailableCredit string `json:"availableCredit"`
}

func toCustomerResponse(c *models.Customer) customerResponse {
	return customerResponse{
		ID:              c.ID.String(),
		Name:            c.Name,
		Surname:         c.Surname,
		CreditLimit:     money.Format(c.CreditLimit),
		UsedCreditLimit: money.Format(c.UsedCreditLimit),
		AvailableCredit: money.Format(c.AvailableCredit()),
	}
}

type installmentResponse struct {
	ID          string  `json:"id"`
	LoanID      string  `json:"loanId"`
	Sequence    int     `json:"sequence"`
	Amount      string  `json:"amount"`
	PaidAmount  string  `json:"paidAmount"`
	DueDate     string  `json:"dueDate"`
	PaymentDate *string `json:"paymentDate"`
	IsPaid      bool    `json:"isPaid"`
	Status      string  `json:"status"`
}

func toInstallmentResponse(inst *models.LoanInstallment, asOf time.Time) installmentResponse {
	resp := installmentResponse{
		ID:         inst.ID.String(),
		LoanID:     inst.LoanID.String(),
		Sequence:   inst.Sequence,
		Amount:     money.Format(inst.Amount),
		PaidAmount: money.Format(inst.PaidAmount),
		DueDate:    calendar.Format(inst.DueDate),
		IsPaid:     inst.IsPaid,
		Status:     string(inst.Status(asOf)),
	}
	if inst.PaymentDate != nil {
		paid := calendar.Format(*inst.PaymentDate)
		resp.PaymentDate = &paid
	}
	return resp
}

type loanResponse struct {
	ID                  string                `json:"id"`
	CustomerID          string                `json:"customerId"`
	LoanAmount          string                `json:"loanAmount"`
	NumberOfInstallment int                   `json:"numberOfInstallment"`
	InterestRate        string                `json:"interestRate"`
	CreateDate          string                `json:"createDate"`
	IsPaid              bool                  `json:"isPaid"`
	Installments        []installmentResponse `json:"installments,omitempty"`
}

func toLoanResponse(l *models.Loan, asOf time.Time) loanResponse {
	resp := loanResponse{
		ID:                  l.ID.String(),
		CustomerID:          l.CustomerID.String(),
		LoanAmount:          money.Format(l.LoanAmount),
		NumberOfInstallment: l.NumberOfInstallment,
		InterestRate:        money.FormatRate(l.InterestRate),
		CreateDate:          calendar.Format(l.CreateDate),
		IsPaid:              l.IsPaid,
	}
	for _, inst := range l.Installments {
		resp.Installments = append(resp.Installments, toInstallmentResponse(inst, asOf))
	}
	return resp
}

type paymentDetailResponse struct {
	InstallmentID   string `json:"installmentId"`
	OriginalAmount  string `json:"originalAmount"`
	EffectiveAmount string `json:"effectiveAmount"`
	Discount        string `json:"discount"`
	Penalty         string `json:"penalty"`
	PaymentType     string `json:"paymentType"`
}

type paymentResponse struct {
	InstallmentsPaidCount int                     `json:"installmentsPaidCount"`
	TotalAmountSpent      string                  `json:"totalAmountSpent"`
	IsLoanComplete        bool                    `json:"isLoanComplete"`
	PaymentDetails        []paymentDetailResponse `json:"paymentDetails"`
}

func toPaymentResponse(r *models.PaymentResult) paymentResponse {
	resp := paymentResponse{
		InstallmentsPaidCount: r.InstallmentsPaid,
		TotalAmountSpent:      money.Format(r.TotalAmountSpent),
		IsLoanComplete:        r.IsLoanComplete,
		PaymentDetails:        make([]paymentDetailResponse, 0, len(r.Details)),
	}
	for _, d := range r.Details {
		resp.PaymentDetails = append(resp.PaymentDetails, paymentDetailResponse{
			InstallmentID:   d.InstallmentID.String(),
			OriginalAmount:  money.Format(d.OriginalAmount),
			EffectiveAmount: money.Format(d.EffectiveAmount),
			Discount:        money.Format(d.Discount),
			Penalty:         money.Format(d.Penalty),
			PaymentType:     string(d.PaymentType),
		})
	}
	return resp
}

type ownerResponse struct {
	LoanID     string `json:"loanId"`
	CustomerID string `json:"customerId"`
}
