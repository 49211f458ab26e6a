package ledger

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/celikhakan41/loan-service/pkg/models"
	"github.com/celikhakan41/loan-service/pkg/money"
	"github.com/celikhakan41/loan-service/pkg/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CanExtend reports whether the customer has at least amount of unused credit.
func CanExtend(c *models.Customer, amount decimal.Decimal) bool {
	return c.AvailableCredit().GreaterThanOrEqual(amount)
}

// debit commits amount of the customer's credit line. Callers check CanExtend first.
func debit(c *models.Customer, amount decimal.Decimal) {
	c.UsedCreditLimit = c.UsedCreditLimit.Add(amount)
}

// release frees amount of the customer's credit line when a loan is paid off.
func release(c *models.Customer, amount decimal.Decimal) {
	c.UsedCreditLimit = c.UsedCreditLimit.Sub(amount)
}

// SetCreditLimit changes the customer's limit. It never drops below what is in use.
func SetCreditLimit(c *models.Customer, newLimit decimal.Decimal) error {
	if !newLimit.IsPositive() {
		return fmt.Errorf("%w: limit must be positive", ErrInvalidLimit)
	}
	if newLimit.LessThan(c.UsedCreditLimit) {
		return fmt.Errorf("%w: new limit %s is below used credit %s",
			ErrInvalidLimit, money.Format(newLimit), money.Format(c.UsedCreditLimit))
	}
	c.CreditLimit = newLimit
	return nil
}

const (
	minNameLength = 2
	maxNameLength = 50
)

// checkName rejects a trimmed name or surname outside 2-50 characters.
func checkName(field, value string) error {
	if n := utf8.RuneCountInString(value); n < minNameLength || n > maxNameLength {
		return fmt.Errorf("%w: %s must be %d-%d characters", ErrInvalidCustomerName, field, minNameLength, maxNameLength)
	}
	return nil
}

// CreateCustomer opens a credit line with nothing used.
func (l *Ledger) CreateCustomer(ctx context.Context, name, surname string, creditLimit decimal.Decimal) (*models.Customer, error) {
	name = strings.TrimSpace(name)
	surname = strings.TrimSpace(surname)
	if err := checkName("name", name); err != nil {
		return nil, err
	}
	if err := checkName("surname", surname); err != nil {
		return nil, err
	}
	if !creditLimit.IsPositive() {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidLimit)
	}
	customer := &models.Customer{
		Name:            name,
		Surname:         surname,
		CreditLimit:     money.Round(creditLimit),
		UsedCreditLimit: decimal.Zero,
	}
	if err := l.storage.CreateCustomer(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to store customer: %w", err)
	}

	l.log.WithFields(logrus.Fields{
		"customer_id":  customer.ID,
		"credit_limit": money.Format(customer.CreditLimit),
	}).Info("Customer created")
	return customer, nil
}

// GetCustomer retrieves a customer by its ID.
func (l *Ledger) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := l.storage.GetCustomer(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrCustomerNotFound)
	}
	return customer, nil
}

// ListCustomers retrieves all customers.
func (l *Ledger) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	return l.storage.ListCustomers(ctx)
}

// UpdateCreditLimit sets a new limit for the customer.
func (l *Ledger) UpdateCreditLimit(ctx context.Context, customerID uuid.UUID, newLimit decimal.Decimal) (*models.Customer, error) {
	var customer *models.Customer
	err := l.storage.WithinTx(ctx, func(tx store.Storage) error {
		c, err := tx.GetCustomer(ctx, customerID)
		if err != nil {
			return notFound(err, ErrCustomerNotFound)
		}
		if err := SetCreditLimit(c, money.Round(newLimit)); err != nil {
			return err
		}
		if err := tx.UpdateCustomer(ctx, c); err != nil {
			return fmt.Errorf("failed to update customer: %w", err)
		}
		customer = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Infof("Updated credit limit for customer %s to %s", customer.ID, money.Format(customer.CreditLimit))
	return customer, nil
}
