package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/celikhakan41/loan-service/pkg/calendar"
	"github.com/celikhakan41/loan-service/pkg/models"
	"github.com/google/uuid"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteParams enables foreign keys and WAL on every pooled connection and
// makes write transactions take the database lock up front.
const sqliteParams = "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"

// sqlQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db   *sql.DB
	q    sqlQuerier
	inTx bool
}

// NewSQLiteStore opens (or creates) the database file and initializes the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db, q: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	return s, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + sqliteParams
	}
	return path + "?" + sqliteParams
}

// initSchema creates the tables if they don't already exist.
// Decimals are stored as TEXT so no precision is lost; dates as YYYY-MM-DD.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		surname TEXT NOT NULL,
		credit_limit TEXT NOT NULL,
		used_credit_limit TEXT NOT NULL DEFAULT '0'
	);
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		loan_amount TEXT NOT NULL,
		number_of_installment INTEGER NOT NULL CHECK (number_of_installment IN (6, 9, 12, 24)),
		interest_rate TEXT NOT NULL,
		create_date TEXT NOT NULL,
		is_paid INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY(customer_id) REFERENCES customers(id)
	);
	CREATE INDEX IF NOT EXISTS idx_loans_customer ON loans(customer_id);
	CREATE TABLE IF NOT EXISTS loan_installments (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL,
		sequence INTEGER NOT NULL,
		amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL DEFAULT '0',
		due_date TEXT NOT NULL,
		payment_date TEXT,
		is_paid INTEGER NOT NULL DEFAULT 0,
		UNIQUE(loan_id, sequence),
		FOREIGN KEY(loan_id) REFERENCES loans(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_installments_unpaid ON loan_installments(loan_id, is_paid, due_date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// WithinTx runs fn inside a single database transaction.
func (s *SQLiteStore) WithinTx(ctx context.Context, fn func(s Storage) error) error {
	return s.withTx(ctx, func(ts *SQLiteStore) error { return fn(ts) })
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(ts *SQLiteStore) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLiteStore{db: s.db, q: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateCustomer inserts a new customer, assigning an ID when missing.
func (s *SQLiteStore) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO customers (id, name, surname, credit_limit, used_credit_limit) VALUES (?, ?, ?, ?, ?)`,
		customer.ID.String(), customer.Name, customer.Surname, customer.CreditLimit, customer.UsedCreditLimit,
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

const sqliteCustomerColumns = `id, name, surname, credit_limit, used_credit_limit`

// GetCustomer retrieves a customer by its ID.
func (s *SQLiteStore) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+sqliteCustomerColumns+` FROM customers WHERE id = ?`, id.String())
	customer, err := scanSQLiteCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

// UpdateCustomer persists the customer's mutable fields.
func (s *SQLiteStore) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE customers SET name = ?, surname = ?, credit_limit = ?, used_credit_limit = ? WHERE id = ?`,
		customer.Name, customer.Surname, customer.CreditLimit, customer.UsedCreditLimit, customer.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	return expectOneRow(result)
}

// ListCustomers retrieves all customers.
func (s *SQLiteStore) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+sqliteCustomerColumns+` FROM customers ORDER BY surname, name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		customer, err := scanSQLiteCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return customers, nil
}

func scanSQLiteCustomer(row rowScanner) (*models.Customer, error) {
	var customer models.Customer
	var idStr string
	if err := row.Scan(&idStr, &customer.Name, &customer.Surname, &customer.CreditLimit, &customer.UsedCreditLimit); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid customer id %q: %w", idStr, err)
	}
	customer.ID = id
	return &customer, nil
}

// CreateLoan inserts a new loan, assigning an ID when missing.
func (s *SQLiteStore) CreateLoan(ctx context.Context, loan *models.Loan) error {
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO loans (id, customer_id, loan_amount, number_of_installment, interest_rate, create_date, is_paid)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.CustomerID.String(), loan.LoanAmount, loan.NumberOfInstallment, loan.InterestRate, calendar.Format(loan.CreateDate), loan.IsPaid,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

const sqliteLoanColumns = `id, customer_id, loan_amount, number_of_installment, interest_rate, create_date, is_paid`

// GetLoan retrieves a loan by its ID. Installments are not loaded.
func (s *SQLiteStore) GetLoan(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+sqliteLoanColumns+` FROM loans WHERE id = ?`, id.String())
	loan, err := scanSQLiteLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

// UpdateLoan persists the loan's paid flag. Every other loan field is fixed at issuance.
func (s *SQLiteStore) UpdateLoan(ctx context.Context, loan *models.Loan) error {
	result, err := s.q.ExecContext(ctx, `UPDATE loans SET is_paid = ? WHERE id = ?`, loan.IsPaid, loan.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	return expectOneRow(result)
}

// ListLoansByCustomer retrieves a customer's loans, optionally filtered.
func (s *SQLiteStore) ListLoansByCustomer(ctx context.Context, customerID uuid.UUID, filter LoanFilter) ([]*models.Loan, error) {
	query := `SELECT ` + sqliteLoanColumns + ` FROM loans WHERE customer_id = ?`
	args := []any{customerID.String()}
	if filter.IsPaid != nil {
		query += ` AND is_paid = ?`
		args = append(args, *filter.IsPaid)
	}
	if filter.NumberOfInstallment != nil {
		query += ` AND number_of_installment = ?`
		args = append(args, *filter.NumberOfInstallment)
	}
	query += ` ORDER BY create_date, rowid`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans for customer %s: %w", customerID, err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanSQLiteLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return loans, nil
}

func scanSQLiteLoan(row rowScanner) (*models.Loan, error) {
	var loan models.Loan
	var idStr, customerIDStr, createDate string
	if err := row.Scan(&idStr, &customerIDStr, &loan.LoanAmount, &loan.NumberOfInstallment, &loan.InterestRate, &createDate, &loan.IsPaid); err != nil {
		return nil, err
	}
	var err error
	if loan.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("invalid loan id %q: %w", idStr, err)
	}
	if loan.CustomerID, err = uuid.Parse(customerIDStr); err != nil {
		return nil, fmt.Errorf("invalid customer id %q: %w", customerIDStr, err)
	}
	if loan.CreateDate, err = calendar.Parse(createDate); err != nil {
		return nil, fmt.Errorf("invalid create date %q: %w", createDate, err)
	}
	return &loan, nil
}

// CreateInstallments inserts a loan's schedule atomically.
func (s *SQLiteStore) CreateInstallments(ctx context.Context, installments []*models.LoanInstallment) error {
	return s.withTx(ctx, func(ts *SQLiteStore) error {
		for _, inst := range installments {
			if inst.ID == uuid.Nil {
				inst.ID = uuid.New()
			}
			_, err := ts.q.ExecContext(ctx,
				`INSERT INTO loan_installments (id, loan_id, sequence, amount, paid_amount, due_date, payment_date, is_paid)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				inst.ID.String(), inst.LoanID.String(), inst.Sequence, inst.Amount, inst.PaidAmount,
				calendar.Format(inst.DueDate), nullableDate(inst.PaymentDate), inst.IsPaid,
			)
			if err != nil {
				return fmt.Errorf("failed to create installment %d: %w", inst.Sequence, err)
			}
		}
		return nil
	})
}

// UpdateInstallments persists the payment state of each installment.
func (s *SQLiteStore) UpdateInstallments(ctx context.Context, installments []*models.LoanInstallment) error {
	return s.withTx(ctx, func(ts *SQLiteStore) error {
		for _, inst := range installments {
			result, err := ts.q.ExecContext(ctx,
				`UPDATE loan_installments SET paid_amount = ?, payment_date = ?, is_paid = ? WHERE id = ?`,
				inst.PaidAmount, nullableDate(inst.PaymentDate), inst.IsPaid, inst.ID.String(),
			)
			if err != nil {
				return fmt.Errorf("failed to update installment %s: %w", inst.ID, err)
			}
			if err := expectOneRow(result); err != nil {
				return err
			}
		}
		return nil
	})
}

const sqliteInstallmentColumns = `id, loan_id, sequence, amount, paid_amount, due_date, payment_date, is_paid`

// GetInstallmentsForLoan retrieves a loan's full schedule in schedule order.
func (s *SQLiteStore) GetInstallmentsForLoan(ctx context.Context, loanID uuid.UUID) ([]*models.LoanInstallment, error) {
	return s.queryInstallments(ctx,
		`SELECT `+sqliteInstallmentColumns+` FROM loan_installments WHERE loan_id = ? ORDER BY sequence ASC`,
		loanID.String(),
	)
}

// FindUnpaidInstallmentsDueBy retrieves unpaid installments due on or before maxDueDate.
func (s *SQLiteStore) FindUnpaidInstallmentsDueBy(ctx context.Context, loanID uuid.UUID, maxDueDate time.Time) ([]*models.LoanInstallment, error) {
	return s.queryInstallments(ctx,
		`SELECT `+sqliteInstallmentColumns+` FROM loan_installments
		WHERE loan_id = ? AND is_paid = 0 AND due_date <= ?
		ORDER BY due_date ASC, sequence ASC`,
		loanID.String(), calendar.Format(maxDueDate),
	)
}

// CountUnpaidInstallments counts the loan's installments that are still open.
func (s *SQLiteStore) CountUnpaidInstallments(ctx context.Context, loanID uuid.UUID) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM loan_installments WHERE loan_id = ? AND is_paid = 0`, loanID.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unpaid installments for loan %s: %w", loanID, err)
	}
	return n, nil
}

// ListOverdueInstallments retrieves every unpaid installment due before asOf.
func (s *SQLiteStore) ListOverdueInstallments(ctx context.Context, asOf time.Time) ([]*models.LoanInstallment, error) {
	return s.queryInstallments(ctx,
		`SELECT `+sqliteInstallmentColumns+` FROM loan_installments
		WHERE is_paid = 0 AND due_date < ?
		ORDER BY due_date ASC, loan_id ASC, sequence ASC`,
		calendar.Format(asOf),
	)
}

func (s *SQLiteStore) queryInstallments(ctx context.Context, query string, args ...any) ([]*models.LoanInstallment, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query installments: %w", err)
	}
	defer rows.Close()

	var installments []*models.LoanInstallment
	for rows.Next() {
		var inst models.LoanInstallment
		var idStr, loanIDStr, dueDate string
		var paymentDate sql.NullString
		if err := rows.Scan(&idStr, &loanIDStr, &inst.Sequence, &inst.Amount, &inst.PaidAmount, &dueDate, &paymentDate, &inst.IsPaid); err != nil {
			return nil, fmt.Errorf("failed to scan installment row: %w", err)
		}
		if inst.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("invalid installment id %q: %w", idStr, err)
		}
		if inst.LoanID, err = uuid.Parse(loanIDStr); err != nil {
			return nil, fmt.Errorf("invalid loan id %q: %w", loanIDStr, err)
		}
		if inst.DueDate, err = calendar.Parse(dueDate); err != nil {
			return nil, fmt.Errorf("invalid due date %q: %w", dueDate, err)
		}
		if paymentDate.Valid {
			paid, err := calendar.Parse(paymentDate.String)
			if err != nil {
				return nil, fmt.Errorf("invalid payment date %q: %w", paymentDate.String, err)
			}
			inst.PaymentDate = &paid
		}
		installments = append(installments, &inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for installments: %w", err)
	}
	return installments, nil
}

func nullableDate(d *time.Time) any {
	if d == nil {
		return nil
	}
	return calendar.Format(*d)
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection. A transaction-bound store leaves it open.
func (s *SQLiteStore) Close() error {
	if s.inTx {
		return nil
	}
	return s.db.Close()
}
