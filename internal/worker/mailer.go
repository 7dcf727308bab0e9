package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flicky/medishop/internal/currency"
	"github.com/flicky/medishop/internal/model"
)

type Mail struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// LogMailer writes mails to the log instead of delivering them.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, mail Mail) error {
	m.log.Info("mail", "to", mail.To, "subject", mail.Subject, "body", mail.Body)
	return nil
}

func NewOrderMail(to string, msg model.OrderMessage) Mail {
	code := currency.Code(msg.Currency)
	if !currency.IsSupported(code) {
		code = currency.USD
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Order %s placed by %s\n", msg.OrderID, msg.UserEmail)
	if !msg.PlacedAt.IsZero() {
		fmt.Fprintf(&b, "Date: %s\n", msg.PlacedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	for _, line := range msg.Items {
		fmt.Fprintf(&b, "- %s x%d @ %s = %s\n",
			line.Name, line.Quantity, currency.Format(line.Price, code), currency.Format(line.Total, code))
	}
	fmt.Fprintf(&b, "Total: %s\n", currency.Format(msg.Total, code))

	return Mail{
		To:      to,
		Subject: fmt.Sprintf("New order %s", msg.OrderID),
		Body:    b.String(),
	}
}
