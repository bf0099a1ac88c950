// Package notification sends the payment confirmation: an HTML mail with the
// PDF receipt attached.
package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"coffeereg/internal/notification/mailer"
	"coffeereg/internal/notification/metrics"
	"coffeereg/internal/notification/receipt"
	"coffeereg/internal/payment/gateway"
	regmodels "coffeereg/internal/registration/models"
	"coffeereg/pkg/platform/privacy"
	"coffeereg/pkg/validation"
)

const defaultEventName = "National Coffee Championship 2025"

// Mailer delivers one message.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<div style="font-family: Arial, sans-serif; padding: 16px;">
  <h2>Registration Successful</h2>
  <p>Dear {{.Name}},</p>
  <p>Thank you for registering for the <b>{{.CompetitionName}}</b>{{if .City}} at the <b>{{.City}} Chapter</b>{{end}} of {{.EventName}}.</p>
  <p><b>Registration ID:</b> {{.RegistrationID}}</p>
  <p><b>Payment ID:</b> {{.PaymentID}}</p>
  <p><b>Amount Paid:</b> &#8377; {{.Amount}}</p>
  <p>Please find your receipt attached as a PDF. Show its QR code at check-in.</p>
  <p>Coffee Championship Team</p>
</div>
`))

type confirmationView struct {
	EventName       string
	Name            string
	CompetitionName string
	City            string
	RegistrationID  string
	PaymentID       string
	Amount          string
}

// Dispatcher renders and sends confirmations. It is safe for concurrent use.
type Dispatcher struct {
	mailer    Mailer
	eventName string
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(*Dispatcher)

func WithEventName(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.eventName = name
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func New(m Mailer, opts ...Option) *Dispatcher {
	d := &Dispatcher{mailer: m, eventName: defaultEventName, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Send mails the confirmation for a paid registration. A missing or
// malformed address is skipped with a warning and is not an error.
func (d *Dispatcher) Send(ctx context.Context, reg *regmodels.Registration) error {
	if reg == nil {
		return fmt.Errorf("notification: registration is required")
	}
	email := strings.TrimSpace(reg.Email)
	if !validation.IsEmail(email) {
		d.metrics.IncNotification(metrics.OutcomeSkipped)
		d.logger.WarnContext(ctx, "confirmation skipped, no usable email address",
			"registration_id", reg.RegistrationID,
		)
		return nil
	}

	view := confirmationView{
		EventName:       d.eventName,
		Name:            reg.Name,
		CompetitionName: reg.CompetitionName,
		City:            strings.ToUpper(reg.City),
		RegistrationID:  reg.RegistrationID,
		PaymentID:       reg.PaymentID,
		Amount:          gateway.FormatAmount(reg.Amount),
	}
	var html bytes.Buffer
	if err := confirmationTmpl.Execute(&html, view); err != nil {
		d.metrics.IncNotification(metrics.OutcomeFailed)
		return fmt.Errorf("notification: render body: %w", err)
	}
	pdf, err := receipt.Render(receipt.Data{
		EventName:       d.eventName,
		Name:            reg.Name,
		CompetitionName: reg.CompetitionName,
		City:            reg.City,
		RegistrationID:  reg.RegistrationID,
		PaymentID:       reg.PaymentID,
		Amount:          view.Amount,
		Date:            d.now(),
	})
	if err != nil {
		d.metrics.IncNotification(metrics.OutcomeFailed)
		return err
	}

	start := time.Now()
	err = d.mailer.Send(ctx, mailer.Message{
		To:      email,
		ToName:  reg.Name,
		Subject: "Registration Confirmation - " + d.eventName,
		HTML:    html.String(),
		Attachments: []mailer.Attachment{{
			Name:     receipt.FileName(reg.RegistrationID),
			MimeType: "application/pdf",
			Content:  pdf,
		}},
	})
	d.metrics.ObserveMailSend(start)
	if err != nil {
		d.metrics.IncNotification(metrics.OutcomeFailed)
		return fmt.Errorf("notification: send confirmation: %w", err)
	}
	d.metrics.IncNotification(metrics.OutcomeSent)
	d.logger.InfoContext(ctx, "confirmation sent",
		"registration_id", reg.RegistrationID,
		"to", privacy.MaskEmail(email),
	)
	return nil
}
