package notification

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"coffeereg/internal/notification/mailer"
	"coffeereg/internal/notification/metrics"
	regmodels "coffeereg/internal/registration/models"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (c *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

type DispatcherSuite struct {
	suite.Suite
	mailer  *captureMailer
	metrics *metrics.Metrics
	logs    *bytes.Buffer
	d       *Dispatcher
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.mailer = &captureMailer{}
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	s.logs = &bytes.Buffer{}
	s.d = New(s.mailer,
		WithEventName("National Coffee Championship 2025"),
		WithLogger(slog.New(slog.NewJSONHandler(s.logs, nil))),
		WithMetrics(s.metrics),
		WithClock(func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }),
	)
}

func paid() *regmodels.Registration {
	return &regmodels.Registration{
		RegistrationID:  "CFC20251740823200000",
		Name:            "Asha <Rao>",
		Email:           "asha@example.com",
		City:            "Bengaluru",
		CompetitionName: "National Barista Championship",
		Amount:          1180,
		PaymentStatus:   regmodels.StatusSuccess,
		PaymentID:       "pay_000002",
	}
}

func (s *DispatcherSuite) TestSendsMailWithReceipt() {
	s.Require().NoError(s.d.Send(context.Background(), paid()))

	s.Require().Len(s.mailer.sent, 1)
	msg := s.mailer.sent[0]
	s.Equal("asha@example.com", msg.To)
	s.Contains(msg.Subject, "Registration Confirmation")
	s.Contains(msg.HTML, "CFC20251740823200000")
	s.Contains(msg.HTML, "pay_000002")
	s.Contains(msg.HTML, "1180")
	s.Contains(msg.HTML, "BENGALURU Chapter")
	s.Contains(msg.HTML, "Asha &lt;Rao&gt;", "participant input is escaped")

	s.Require().Len(msg.Attachments, 1)
	s.Equal("Receipt-CFC20251740823200000.pdf", msg.Attachments[0].Name)
	s.Equal("application/pdf", msg.Attachments[0].MimeType)
	s.True(bytes.HasPrefix(msg.Attachments[0].Content, []byte("%PDF-")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Notifications.WithLabelValues(metrics.OutcomeSent)))
}

func (s *DispatcherSuite) TestSkipsMissingOrMalformedEmail() {
	for _, email := range []string{"", "   ", "asha-at-example"} {
		reg := paid()
		reg.Email = email
		s.NoError(s.d.Send(context.Background(), reg))
	}
	s.Empty(s.mailer.sent)
	s.Equal(3.0, testutil.ToFloat64(s.metrics.Notifications.WithLabelValues(metrics.OutcomeSkipped)))
	s.Contains(s.logs.String(), "confirmation skipped")
}

func (s *DispatcherSuite) TestMailerFailureIsReturned() {
	s.mailer.err = errors.New("connection refused")
	err := s.d.Send(context.Background(), paid())
	s.Error(err)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Notifications.WithLabelValues(metrics.OutcomeFailed)))
}

func (s *DispatcherSuite) TestLogMailerTransport() {
	d := New(mailer.NewLogMailer(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.NoError(d.Send(context.Background(), paid()))
}
