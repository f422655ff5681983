// Package mail delivers notifications over SMTP. Delivery failures are
// reported to the caller, who decides whether they block anything; the
// order engine logs and moves on.
package mail

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"workshop/internal/core/apperror"
	"workshop/internal/domain/orders"
	"workshop/internal/domain/warehouse"
	"workshop/pkg/logger"
)

// Config carries the SMTP endpoint and the back-office recipient list
// used for stock digests.
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	Recipients []string
}

// Mailer sends customer notifications and stock alert digests.
type Mailer struct {
	cfg    Config
	dialer *gomail.Dialer
}

// New creates a mailer. The dialer connects lazily, per send.
func New(cfg Config) *Mailer {
	return &Mailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

var _ orders.Notifier = (*Mailer)(nil)

// OrderStatusChanged implements orders.Notifier.
func (m *Mailer) OrderStatusChanged(ctx context.Context, n orders.StatusNotification) error {
	subject := fmt.Sprintf("Order %s: %s", n.OrderNumber, n.StatusName)

	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s,\n\n", n.CustomerName)
	fmt.Fprintf(&body, "your order %s has moved to status %q.\n\n", n.OrderNumber, n.StatusName)
	body.WriteString("This message was sent automatically, please do not reply.\n")

	if err := m.send(subject, body.String(), n.Email); err != nil {
		return apperror.NewExternalFailure("smtp", err)
	}

	logger.Info(ctx, "status notification sent",
		"order", n.OrderNumber,
		"status", n.StatusCode,
	)
	return nil
}

// SendAlertDigest mails the result of one alert scan to the configured
// back-office recipients. An empty run sends nothing.
func (m *Mailer) SendAlertDigest(ctx context.Context, run *warehouse.AlertRun) error {
	if len(run.Entries) == 0 || len(m.cfg.Recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Stock alerts: %d critical, %d warning",
		run.Counts[warehouse.SeverityCritical],
		run.Counts[warehouse.SeverityWarning],
	)

	var body strings.Builder
	body.WriteString("Items at or below the alert threshold, most starved first:\n\n")
	for _, e := range run.Entries {
		fmt.Fprintf(&body, "[%s] %s %s: on hand %s %s, minimum %s\n",
			strings.ToUpper(string(e.Severity)),
			e.Item.Code, e.Item.Name,
			e.Item.Quantity.String(), e.Item.Unit,
			e.Item.MinQuantity.String(),
		)
	}

	if err := m.send(subject, body.String(), m.cfg.Recipients...); err != nil {
		return apperror.NewExternalFailure("smtp", err)
	}

	logger.Info(ctx, "alert digest sent",
		"recipients", len(m.cfg.Recipients),
		"entries", len(run.Entries),
	)
	return nil
}

func (m *Mailer) send(subject, body string, to ...string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	return m.dialer.DialAndSend(msg)
}
