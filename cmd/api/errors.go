package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/celikhakan41/loan-service/pkg/ledger"
	"github.com/go-playground/validator/v10"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

// errorCodes maps ledger errors to their wire code and status, first match wins.
var errorCodes = []struct {
	err    error
	code   string
	status int
}{
	{ledger.ErrCustomerNotFound, "CUSTOMER_NOT_FOUND", http.StatusNotFound},
	{ledger.ErrLoanNotFound, "LOAN_NOT_FOUND", http.StatusNotFound},
	{ledger.ErrInvalidInstallmentCount, "INVALID_INSTALLMENT_COUNT", http.StatusBadRequest},
	{ledger.ErrInvalidLoanTerms, "INVALID_LOAN_TERMS", http.StatusBadRequest},
	{ledger.ErrInsufficientCredit, "INSUFFICIENT_CREDIT", http.StatusBadRequest},
	{ledger.ErrInvalidPaymentAmount, "INVALID_PAYMENT_AMOUNT", http.StatusBadRequest},
	{ledger.ErrInvalidPaymentDate, "INVALID_PAYMENT_DATE", http.StatusBadRequest},
	{ledger.ErrLoanAlreadyPaid, "LOAN_ALREADY_PAID", http.StatusBadRequest},
	{ledger.ErrNoInstallmentsAvailable, "NO_INSTALLMENTS_AVAILABLE", http.StatusBadRequest},
	{ledger.ErrInsufficientPaymentAmount, "INSUFFICIENT_PAYMENT_AMOUNT", http.StatusBadRequest},
	{ledger.ErrInvalidLimit, "INVALID_LIMIT", http.StatusBadRequest},
	{ledger.ErrInvalidCustomerName, "VALIDATION_FAILED", http.StatusBadRequest},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: message}})
}

func writeValidationError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", message)
}

// handleError writes the envelope for err. Anything that is not a ledger
// error is logged and reported as INTERNAL without its details.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			writeError(w, ec.status, ec.code, err.Error())
			return
		}
	}

	s.log.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
}

// describeValidation turns validator errors into one readable line.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
