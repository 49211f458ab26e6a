package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/celikhakan41/loan-service/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps customers, loans and installments in PostgreSQL.
// Inside a transaction, customer and loan reads take row locks.
type PostgresStore struct {
	pool *pgxpool.Pool
	q    pgQuerier
	inTx bool
}

// NewPostgresStore connects to databaseURL. Schema is managed by MigratePostgres.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pcfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	return &PostgresStore{pool: pool, q: pool}, nil
}

func (s *PostgresStore) lockClause() string {
	if s.inTx {
		return " FOR UPDATE"
	}
	return ""
}

// WithinTx runs fn inside a single database transaction.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(s Storage) error) error {
	return s.withTx(ctx, func(ts *PostgresStore) error { return fn(ts) })
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(ts *PostgresStore) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&PostgresStore{pool: s.pool, q: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	const q = `
INSERT INTO customers (id, name, surname, credit_limit, used_credit_limit)
VALUES ($1, $2, $3, $4, $5)
`
	_, err := s.q.Exec(ctx, q, customer.ID, customer.Name, customer.Surname, customer.CreditLimit.String(), customer.UsedCreditLimit.String())
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

const pgCustomerColumns = `id, name, surname, credit_limit::text, used_credit_limit::text`

func (s *PostgresStore) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	q := `SELECT ` + pgCustomerColumns + ` FROM customers WHERE id = $1` + s.lockClause()
	customer, err := scanPgCustomer(s.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

func (s *PostgresStore) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	const q = `
UPDATE customers
SET name = $2, surname = $3, credit_limit = $4, used_credit_limit = $5
WHERE id = $1
`
	tag, err := s.q.Exec(ctx, q, customer.ID, customer.Name, customer.Surname, customer.CreditLimit.String(), customer.UsedCreditLimit.String())
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	rows, err := s.q.Query(ctx, `SELECT `+pgCustomerColumns+` FROM customers ORDER BY surname, name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var out []*models.Customer
	for rows.Next() {
		customer, err := scanPgCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}
		out = append(out, customer)
	}
	return out, rows.Err()
}

func scanPgCustomer(row pgx.Row) (*models.Customer, error) {
	var customer models.Customer
	var creditLimit, used string
	if err := row.Scan(&customer.ID, &customer.Name, &customer.Surname, &creditLimit, &used); err != nil {
		return nil, err
	}
	var err error
	if customer.CreditLimit, err = decimal.NewFromString(creditLimit); err != nil {
		return nil, err
	}
	if customer.UsedCreditLimit, err = decimal.NewFromString(used); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *PostgresStore) CreateLoan(ctx context.Context, loan *models.Loan) error {
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	const q = `
INSERT INTO loans (id, customer_id, loan_amount, number_of_installment, interest_rate, create_date, is_paid)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := s.q.Exec(ctx, q, loan.ID, loan.CustomerID, loan.LoanAmount.String(), loan.NumberOfInstallment, loan.InterestRate.String(), loan.CreateDate, loan.IsPaid)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

const pgLoanColumns = `id, customer_id, loan_amount::text, number_of_installment, interest_rate::text, create_date, is_paid`

func (s *PostgresStore) GetLoan(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	q := `SELECT ` + pgLoanColumns + ` FROM loans WHERE id = $1` + s.lockClause()
	loan, err := scanPgLoan(s.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

func (s *PostgresStore) UpdateLoan(ctx context.Context, loan *models.Loan) error {
	tag, err := s.q.Exec(ctx, `UPDATE loans SET is_paid = $2 WHERE id = $1`, loan.ID, loan.IsPaid)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListLoansByCustomer(ctx context.Context, customerID uuid.UUID, filter LoanFilter) ([]*models.Loan, error) {
	const q = `
SELECT ` + pgLoanColumns + `
FROM loans
WHERE customer_id = $1
  AND ($2::boolean IS NULL OR is_paid = $2)
  AND ($3::integer IS NULL OR number_of_installment = $3)
ORDER BY create_date ASC, created_at ASC
`
	rows, err := s.q.Query(ctx, q, customerID, filter.IsPaid, filter.NumberOfInstallment)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans for customer %s: %w", customerID, err)
	}
	defer rows.Close()

	var out []*models.Loan
	for rows.Next() {
		loan, err := scanPgLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		out = append(out, loan)
	}
	return out, rows.Err()
}

func scanPgLoan(row pgx.Row) (*models.Loan, error) {
	var loan models.Loan
	var amount, rate string
	if err := row.Scan(&loan.ID, &loan.CustomerID, &amount, &loan.NumberOfInstallment, &rate, &loan.CreateDate, &loan.IsPaid); err != nil {
		return nil, err
	}
	var err error
	if loan.LoanAmount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	if loan.InterestRate, err = decimal.NewFromString(rate); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (s *PostgresStore) CreateInstallments(ctx context.Context, installments []*models.LoanInstallment) error {
	const q = `
INSERT INTO loan_installments (id, loan_id, sequence, amount, paid_amount, due_date, payment_date, is_paid)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	return s.withTx(ctx, func(ts *PostgresStore) error {
		for _, inst := range installments {
			if inst.ID == uuid.Nil {
				inst.ID = uuid.New()
			}
			_, err := ts.q.Exec(ctx, q, inst.ID, inst.LoanID, inst.Sequence, inst.Amount.String(), inst.PaidAmount.String(), inst.DueDate, inst.PaymentDate, inst.IsPaid)
			if err != nil {
				return fmt.Errorf("failed to create installment %d: %w", inst.Sequence, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) UpdateInstallments(ctx context.Context, installments []*models.LoanInstallment) error {
	const q = `
UPDATE loan_installments
SET paid_amount = $2, payment_date = $3, is_paid = $4
WHERE id = $1
`
	return s.withTx(ctx, func(ts *PostgresStore) error {
		for _, inst := range installments {
			tag, err := ts.q.Exec(ctx, q, inst.ID, inst.PaidAmount.String(), inst.PaymentDate, inst.IsPaid)
			if err != nil {
				return fmt.Errorf("failed to update installment %s: %w", inst.ID, err)
			}
			if tag.RowsAffected() == 0 {
				return ErrNotFound
			}
		}
		return nil
	})
}

const pgInstallmentColumns = `id, loan_id, sequence, amount::text, paid_amount::text, due_date, payment_date, is_paid`

func (s *PostgresStore) GetInstallmentsForLoan(ctx context.Context, loanID uuid.UUID) ([]*models.LoanInstallment, error) {
	return s.queryInstallments(ctx,
		`SELECT `+pgInstallmentColumns+` FROM loan_installments WHERE loan_id = $1 ORDER BY sequence ASC`,
		loanID,
	)
}

func (s *PostgresStore) FindUnpaidInstallmentsDueBy(ctx context.Context, loanID uuid.UUID, maxDueDate time.Time) ([]*models.LoanInstallment, error) {
	const q = `
SELECT ` + pgInstallmentColumns + `
FROM loan_installments
WHERE loan_id = $1 AND is_paid = FALSE AND due_date <= $2
ORDER BY due_date ASC, sequence ASC
`
	return s.queryInstallments(ctx, q, loanID, maxDueDate)
}

func (s *PostgresStore) CountUnpaidInstallments(ctx context.Context, loanID uuid.UUID) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM loan_installments WHERE loan_id = $1 AND is_paid = FALSE`, loanID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unpaid installments for loan %s: %w", loanID, err)
	}
	return n, nil
}

func (s *PostgresStore) ListOverdueInstallments(ctx context.Context, asOf time.Time) ([]*models.LoanInstallment, error) {
	const q = `
SELECT ` + pgInstallmentColumns + `
FROM loan_installments
WHERE is_paid = FALSE AND due_date < $1
ORDER BY due_date ASC, loan_id ASC, sequence ASC
`
	return s.queryInstallments(ctx, q, asOf)
}

func (s *PostgresStore) queryInstallments(ctx context.Context, q string, args ...any) ([]*models.LoanInstallment, error) {
	rows, err := s.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query installments: %w", err)
	}
	defer rows.Close()

	var out []*models.LoanInstallment
	for rows.Next() {
		var inst models.LoanInstallment
		var amount, paid string
		if err := rows.Scan(&inst.ID, &inst.LoanID, &inst.Sequence, &amount, &paid, &inst.DueDate, &inst.PaymentDate, &inst.IsPaid); err != nil {
			return nil, fmt.Errorf("failed to scan installment row: %w", err)
		}
		if inst.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if inst.PaidAmount, err = decimal.NewFromString(paid); err != nil {
			return nil, err
		}
		out = append(out, &inst)
	}
	return out, rows.Err()
}

// Close releases the pool. A transaction-bound store leaves it open.
func (s *PostgresStore) Close() error {
	if !s.inTx {
		s.pool.Close()
	}
	return nil
}
