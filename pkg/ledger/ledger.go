package ledger

import (
	"errors"
	"time"

	"github.com/celikhakan41/loan-service/pkg/calendar"
	"github.com/celikhakan41/loan-service/pkg/store"
	"github.com/sirupsen/logrus"
)

// Ledger handles the business logic for customers, loans and payments.
type Ledger struct {
	storage store.Storage // Use the Storage interface
	log     *logrus.Logger
	now     func() time.Time // Clock used to derive "today"
}

// NewLedger creates a new Ledger with a given Storage implementation.
func NewLedger(s store.Storage, log *logrus.Logger) *Ledger {
	return &Ledger{
		storage: s,
		log:     log,
		now:     time.Now,
	}
}

// WithClock replaces the clock the ledger reads "today" from.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Today returns the current business date.
func (l *Ledger) Today() time.Time {
	return calendar.Today(l.now)
}

// notFound maps a storage miss to the given domain error and passes
// everything else through unchanged.
func notFound(err, domainErr error) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainErr
	}
	return err
}
