package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/celikhakan41/loan-service/pkg/calendar"
	"github.com/celikhakan41/loan-service/pkg/ledger"
	"github.com/celikhakan41/loan-service/pkg/money"
	"github.com/celikhakan41/loan-service/pkg/store"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server holds the ledger instance.
type Server struct {
	ledger   *ledger.Ledger
	log      *logrus.Logger
	validate *validator.Validate
}

func NewServer(s store.Storage, log *logrus.Logger) *Server {
	return &Server{
		ledger:   ledger.NewLedger(s, log),
		log:      log,
		validate: newValidator(),
	}
}

// Router wires every route behind the logging and panic middleware.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLogger(s.log), recoverer(s.log))

	router.HandleFunc("/healthz", s.healthHandler).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/customers", s.createCustomerHandler).Methods("POST")
	api.HandleFunc("/customers", s.listCustomersHandler).Methods("GET")
	api.HandleFunc("/customers/{id}", s.getCustomerHandler).Methods("GET")
	api.HandleFunc("/customers/{id}/credit-limit", s.updateCreditLimitHandler).Methods("PUT")
	api.HandleFunc("/customers/{id}/loans", s.listCustomerLoansHandler).Methods("GET")
	api.HandleFunc("/loans", s.createLoanHandler).Methods("POST")
	api.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	api.HandleFunc("/loans/{id}/installments", s.listInstallmentsHandler).Methods("GET")
	api.HandleFunc("/loans/{id}/payments", s.payLoanHandler).Methods("POST")
	api.HandleFunc("/loans/{id}/owner", s.loanOwnerHandler).Methods("GET")
	return router
}

// pathID parses the {id} route variable, writing a 400 when it is not a UUID.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeValidationError(w, "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeValidationError(w, "malformed JSON body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeValidationError(w, describeValidation(err))
		return false
	}
	return true
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !money.Fits(req.CreditLimit, money.Scale) {
		writeValidationError(w, "creditLimit must have at most 2 decimal places")
		return
	}

	customer, err := s.ledger.CreateCustomer(r.Context(), req.Name, req.Surname, req.CreditLimit)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerResponse(customer))
}

func (s *Server) listCustomersHandler(w http.ResponseWriter, r *http.Request) {
	customers, err := s.ledger.ListCustomers(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	resp := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		resp = append(resp, toCustomerResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	customer, err := s.ledger.GetCustomer(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}

func (s *Server) updateCreditLimitHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateCreditLimitRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !money.Fits(req.CreditLimit, money.Scale) {
		writeValidationError(w, "creditLimit must have at most 2 decimal places")
		return
	}

	customer, err := s.ledger.UpdateCreditLimit(r.Context(), id, req.CreditLimit)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}

func (s *Server) listCustomerLoansHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var filter store.LoanFilter
	query := r.URL.Query()
	if v := query.Get("isPaid"); v != "" {
		isPaid, err := strconv.ParseBool(v)
		if err != nil {
			writeValidationError(w, "isPaid must be true or false")
			return
		}
		filter.IsPaid = &isPaid
	}
	if v := query.Get("numberOfInstallments"); v != "" {
		count, err := strconv.Atoi(v)
		if err != nil {
			writeValidationError(w, "numberOfInstallments must be an integer")
			return
		}
		filter.NumberOfInstallment = &count
	}

	loans, err := s.ledger.CustomerLoans(r.Context(), id, filter)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	today := s.ledger.Today()
	resp := make([]loanResponse, 0, len(loans))
	for _, l := range loans {
		resp = append(resp, toLoanResponse(l, today))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !money.Fits(req.LoanAmount, money.Scale) {
		writeValidationError(w, "loanAmount must have at most 2 decimal places")
		return
	}
	if !money.Fits(req.InterestRate, money.RateScale) {
		writeValidationError(w, "interestRate must have at most 3 decimal places")
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		writeValidationError(w, "customerId must be a UUID")
		return
	}

	loan, err := s.ledger.CreateLoan(r.Context(), customerID, req.LoanAmount, req.NumberOfInstallment, req.InterestRate)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLoanResponse(loan, s.ledger.Today()))
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	loan, err := s.ledger.GetLoan(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanResponse(loan, s.ledger.Today()))
}

func (s *Server) listInstallmentsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	installments, err := s.ledger.LoanInstallments(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	today := s.ledger.Today()
	resp := make([]installmentResponse, 0, len(installments))
	for _, inst := range installments {
		resp = append(resp, toInstallmentResponse(inst, today))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) payLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req payLoanRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !money.Fits(req.PaymentAmount, money.Scale) {
		writeValidationError(w, "paymentAmount must have at most 2 decimal places")
		return
	}

	paymentDate := s.ledger.Today()
	if req.PaymentDate != "" {
		d, err := calendar.Parse(req.PaymentDate)
		if err != nil {
			writeValidationError(w, "paymentDate must be YYYY-MM-DD")
			return
		}
		paymentDate = d
	}

	result, err := s.ledger.PayLoan(r.Context(), id, req.PaymentAmount, paymentDate)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(result))
}

func (s *Server) loanOwnerHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	owner, err := s.ledger.OwnerOf(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ownerResponse{LoanID: id.String(), CustomerID: owner.String()})
}
