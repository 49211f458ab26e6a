package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/celikhakan41/loan-service/pkg/models"
	"github.com/celikhakan41/loan-service/pkg/store"
	"github.com/google/uuid"
)

// MockStore is a simple in-memory implementation of the Storage interface for testing.
// It hands out copies so that callers only change stored state through Update calls,
// and rolls back everything written inside a failed WithinTx.
type MockStore struct {
	customers    map[uuid.UUID]*models.Customer
	loans        map[uuid.UUID]*models.Loan
	installments map[uuid.UUID]*models.LoanInstallment
	writes       int
}

func NewMockStore() *MockStore {
	return &MockStore{
		customers:    make(map[uuid.UUID]*models.Customer),
		loans:        make(map[uuid.UUID]*models.Loan),
		installments: make(map[uuid.UUID]*models.LoanInstallment),
	}
}

func copyCustomer(c *models.Customer) *models.Customer {
	cp := *c
	return &cp
}

func copyLoan(l *models.Loan) *models.Loan {
	cp := *l
	cp.Installments = nil
	return &cp
}

func copyInstallment(i *models.LoanInstallment) *models.LoanInstallment {
	cp := *i
	if i.PaymentDate != nil {
		d := *i.PaymentDate
		cp.PaymentDate = &d
	}
	return &cp
}

func (m *MockStore) CreateCustomer(_ context.Context, customer *models.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	m.writes++
	m.customers[customer.ID] = copyCustomer(customer)
	return nil
}

func (m *MockStore) GetCustomer(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyCustomer(c), nil
}

func (m *MockStore) UpdateCustomer(_ context.Context, customer *models.Customer) error {
	if _, ok := m.customers[customer.ID]; !ok {
		return store.ErrNotFound
	}
	m.writes++
	m.customers[customer.ID] = copyCustomer(customer)
	return nil
}

func (m *MockStore) ListCustomers(_ context.Context) ([]*models.Customer, error) {
	customers := []*models.Customer{}
	for _, c := range m.customers {
		customers = append(customers, copyCustomer(c))
	}
	return customers, nil
}

func (m *MockStore) CreateLoan(_ context.Context, loan *models.Loan) error {
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	m.writes++
	m.loans[loan.ID] = copyLoan(loan)
	return nil
}

func (m *MockStore) GetLoan(_ context.Context, id uuid.UUID) (*models.Loan, error) {
	l, ok := m.loans[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyLoan(l), nil
}

func (m *MockStore) UpdateLoan(_ context.Context, loan *models.Loan) error {
	if _, ok := m.loans[loan.ID]; !ok {
		return store.ErrNotFound
	}
	m.writes++
	m.loans[loan.ID] = copyLoan(loan)
	return nil
}

func (m *MockStore) ListLoansByCustomer(_ context.Context, customerID uuid.UUID, filter store.LoanFilter) ([]*models.Loan, error) {
	loans := []*models.Loan{}
	for _, l := range m.loans {
		if l.CustomerID != customerID {
			continue
		}
		if filter.IsPaid != nil && l.IsPaid != *filter.IsPaid {
			continue
		}
		if filter.NumberOfInstallment != nil && l.NumberOfInstallment != *filter.NumberOfInstallment {
			continue
		}
		loans = append(loans, copyLoan(l))
	}
	return loans, nil
}

func (m *MockStore) CreateInstallments(_ context.Context, installments []*models.LoanInstallment) error {
	for _, inst := range installments {
		if inst.ID == uuid.Nil {
			inst.ID = uuid.New()
		}
		m.writes++
		m.installments[inst.ID] = copyInstallment(inst)
	}
	return nil
}

func (m *MockStore) UpdateInstallments(_ context.Context, installments []*models.LoanInstallment) error {
	for _, inst := range installments {
		if _, ok := m.installments[inst.ID]; !ok {
			return store.ErrNotFound
		}
		m.writes++
		m.installments[inst.ID] = copyInstallment(inst)
	}
	return nil
}

func (m *MockStore) collect(keep func(*models.LoanInstallment) bool) []*models.LoanInstallment {
	out := []*models.LoanInstallment{}
	for _, inst := range m.installments {
		if keep(inst) {
			out = append(out, copyInstallment(inst))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out
}

func (m *MockStore) GetInstallmentsForLoan(_ context.Context, loanID uuid.UUID) ([]*models.LoanInstallment, error) {
	return m.collect(func(i *models.LoanInstallment) bool { return i.LoanID == loanID }), nil
}

func (m *MockStore) FindUnpaidInstallmentsDueBy(_ context.Context, loanID uuid.UUID, maxDueDate time.Time) ([]*models.LoanInstallment, error) {
	return m.collect(func(i *models.LoanInstallment) bool {
		return i.LoanID == loanID && !i.IsPaid && !i.DueDate.After(maxDueDate)
	}), nil
}

func (m *MockStore) CountUnpaidInstallments(_ context.Context, loanID uuid.UUID) (int, error) {
	n := 0
	for _, inst := range m.installments {
		if inst.LoanID == loanID && !inst.IsPaid {
			n++
		}
	}
	return n, nil
}

func (m *MockStore) ListOverdueInstallments(_ context.Context, asOf time.Time) ([]*models.LoanInstallment, error) {
	return m.collect(func(i *models.LoanInstallment) bool {
		return !i.IsPaid && i.DueDate.Before(asOf)
	}), nil
}

func (m *MockStore) WithinTx(_ context.Context, fn func(s store.Storage) error) error {
	customers := make(map[uuid.UUID]*models.Customer, len(m.customers))
	for k, v := range m.customers {
		customers[k] = copyCustomer(v)
	}
	loans := make(map[uuid.UUID]*models.Loan, len(m.loans))
	for k, v := range m.loans {
		loans[k] = copyLoan(v)
	}
	installments := make(map[uuid.UUID]*models.LoanInstallment, len(m.installments))
	for k, v := range m.installments {
		installments[k] = copyInstallment(v)
	}
	writes := m.writes

	if err := fn(m); err != nil {
		m.customers, m.loans, m.installments, m.writes = customers, loans, installments, writes
		return err
	}
	return nil
}

func (m *MockStore) Close() error {
	return nil
}
