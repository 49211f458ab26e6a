package notify

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/celikhakan41/loan-service/pkg/calendar"
	"github.com/celikhakan41/loan-service/pkg/config"
	"github.com/celikhakan41/loan-service/pkg/ledger"
	"github.com/celikhakan41/loan-service/pkg/money"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender mails the overdue digest via SMTP
type Sender struct {
	from   string
	to     string
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new digest sender
func NewSender(cfg config.Config, logger *logrus.Logger) *Sender {
	addr := fmt.Sprintf("%s:%s", cfg.SMTPHost, cfg.SMTPPort)
	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &Sender{
		from:   cfg.SenderEmail,
		to:     cfg.OverdueReportEmail,
		logger: logger,
		send:   func(e *email.Email) error { return e.Send(addr, auth) },
	}
}

// SendOverdueDigest mails one line per overdue installment. Nothing is sent
// for an empty list.
func (s *Sender) SendOverdueDigest(asOf time.Time, items []ledger.OverdueInstallment) error {
	if len(items) == 0 {
		return nil
	}

	e := email.NewEmail()
	e.From = s.from
	e.To = []string{s.to}
	e.Subject = fmt.Sprintf("Overdue installments on %s: %d", calendar.Format(asOf), len(items))
	e.Text = []byte(digestBody(asOf, items))

	if err := s.send(e); err != nil {
		return fmt.Errorf("failed to send overdue digest: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", s.to, e.Subject)
	return nil
}

func digestBody(asOf time.Time, items []ledger.OverdueInstallment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Unpaid installments past their due date as of %s.\n", calendar.Format(asOf))
	b.WriteString("Amounts due include the penalty that applies if paid today.\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "loan %s  installment #%d  due %s  %d days late  penalty %s  due now %s\n",
			item.Installment.LoanID,
			item.Installment.Sequence+1,
			calendar.Format(item.Installment.DueDate),
			item.DaysOverdue,
			money.Format(item.Penalty),
			money.Format(item.AmountDue),
		)
	}
	b.WriteString("\nLoan Service")
	return b.String()
}
