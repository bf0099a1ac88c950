package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeereg/internal/notification/mailer"
	"coffeereg/internal/payment/gateway"
	"coffeereg/internal/payment/gateway/gatewaytest"
	paymodels "coffeereg/internal/payment/models"
	"coffeereg/internal/platform/config"
	"coffeereg/internal/platform/health"
	regmodels "coffeereg/internal/registration/models"
	"coffeereg/pkg/testutil"
)

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

func testConfig(t *testing.T, gw *gatewaytest.Server) *config.Config {
	return &config.Config{
		Environment: "test",
		Redis:       config.RedisConfig{DeliveryTTL: time.Hour},
		Gateway: config.GatewayConfig{
			BaseURL:          gw.URL,
			KeyID:            gatewaytest.KeyID,
			KeySecret:        gatewaytest.KeySecret,
			Timeout:          2 * time.Second,
			FailureThreshold: 5,
			Cooldown:         time.Minute,
		},
		Mail: config.MailConfig{Timeout: time.Second},
		Registration: config.RegistrationConfig{
			IDPrefix:          "CFC2025",
			EventName:         "National Coffee Championship 2025",
			AttachmentBackend: "fs",
			UploadDir:         t.TempDir(),
		},
	}
}

func newTestApp(t *testing.T) (*App, *gatewaytest.Server, *outbox) {
	t.Helper()
	gw := gatewaytest.NewServer(t)
	mail := &outbox{}
	a, err := New(context.Background(), testConfig(t, gw), slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithRegisterer(prometheus.NewRegistry()),
		WithMailer(mail),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a, gw, mail
}

func TestNewSeedsInMemoryCatalog(t *testing.T) {
	a, _, _ := newTestApp(t)

	list, err := a.Competitions.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 4)
	assert.Nil(t, a.Mongo)
	assert.Nil(t, a.Redis)
	assert.Nil(t, a.Producer)
}

func TestPaidRegistrationSendsOneConfirmation(t *testing.T) {
	a, gw, mail := newTestApp(t)
	ctx := context.Background()

	list, err := a.Competitions.List(ctx)
	require.NoError(t, err)
	var competitionID string
	for _, c := range list {
		if c.Name == "Filter Coffee Championship" {
			competitionID = c.ID
		}
	}
	require.NotEmpty(t, competitionID)

	res, err := a.Registrations.Create(ctx, testutil.Submission(competitionID, 1))
	require.NoError(t, err)
	reg := res.Registration
	assert.Equal(t, 580.0, reg.Amount)

	order, err := a.Payments.CreateOrder(ctx, &paymodels.OrderRequest{Amount: reg.Amount, RegistrationID: reg.RegistrationID})
	require.NoError(t, err)
	pay, sig := gw.Pay(order.ID, gateway.PaymentAuthorized)

	out, err := a.Payments.VerifyAndCapture(ctx, &paymodels.VerifyRequest{
		RegistrationID: reg.RegistrationID,
		Amount:         reg.Amount,
		Currency:       "INR",
		OrderID:        order.ID,
		PaymentID:      pay.ID,
		Signature:      sig,
	})
	require.NoError(t, err)
	assert.Equal(t, regmodels.StatusSuccess, out.Registration.PaymentStatus)
	assert.Equal(t, 1, mail.count())
}

func TestReadinessReportsGatewayCircuit(t *testing.T) {
	a, _, _ := newTestApp(t)
	h := health.New("test")
	a.RegisterHealthChecks(h)

	rec := httptest.NewRecorder()
	h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "razorpay")

	for range 5 {
		a.Breaker.RecordFailure()
	}
	rec = httptest.NewRecorder()
	h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
