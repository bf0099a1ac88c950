package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"coffeereg/internal/app"
	comphandler "coffeereg/internal/competition/handler"
	"coffeereg/internal/notification/mailer"
	"coffeereg/internal/payment/gateway"
	"coffeereg/internal/payment/gateway/gatewaytest"
	payhandler "coffeereg/internal/payment/handler"
	"coffeereg/internal/platform/config"
	"coffeereg/internal/platform/health"
	reghandler "coffeereg/internal/registration/handler"
	httptransport "coffeereg/internal/transport/http"
	"coffeereg/pkg/secrets"
)

const (
	adminToken    = "e2e-admin-token"
	webhookSecret = "e2e-webhook-secret"
)

// Outbox records confirmation mails instead of sending them.
type Outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *Outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

// CountTo returns how many mails went to addr.
func (o *Outbox) CountTo(addr string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, m := range o.sent {
		if strings.EqualFold(m.To, addr) {
			n++
		}
	}
	return n
}

// TestContext holds state between test steps
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte

	Gateway *gatewaytest.Server
	Outbox  *Outbox

	app    *app.App
	server *httptest.Server

	RegistrationID string
	Amount         float64
	Email          string
	OrderID        string
	PaymentID      string
	Signature      string
}

// NewTestContext boots the service in-process against a fake gateway. The
// servers are torn down when t finishes or Close is called.
func NewTestContext(t testing.TB) (*TestContext, error) {
	gw := gatewaytest.NewServer(t)
	hash, err := secrets.Hash(adminToken)
	if err != nil {
		return nil, err
	}

	cfg := &config.Config{
		Environment: "e2e",
		Server: config.Server{
			RequestTimeout: 10 * time.Second,
			MaxBodyBytes:   64 * 1024,
			MaxUploadBytes: 1 << 20,
		},
		Redis: config.RedisConfig{DeliveryTTL: time.Hour},
		Gateway: config.GatewayConfig{
			BaseURL:          gw.URL,
			KeyID:            gatewaytest.KeyID,
			KeySecret:        gatewaytest.KeySecret,
			WebhookSecret:    webhookSecret,
			Timeout:          2 * time.Second,
			FailureThreshold: 5,
			Cooldown:         time.Minute,
		},
		Mail: config.MailConfig{Timeout: 2 * time.Second},
		Registration: config.RegistrationConfig{
			IDPrefix:          "CFC2025",
			EventName:         "National Coffee Championship 2025",
			AttachmentBackend: "fs",
			UploadDir:         t.TempDir(),
		},
		Admin: config.AdminConfig{TokenHash: hash},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	outbox := &Outbox{}
	a, err := app.New(context.Background(), cfg, logger,
		app.WithRegisterer(prometheus.NewRegistry()),
		app.WithMailer(outbox),
	)
	if err != nil {
		return nil, err
	}

	hh := health.New(cfg.Environment)
	a.RegisterHealthChecks(hh)
	router := httptransport.NewRouter(httptransport.Modules{
		Health:        hh,
		Competitions:  comphandler.New(a.Competitions, logger),
		Registrations: reghandler.New(a.Registrations, logger, reghandler.WithStatusUpdater(a.Payments)),
		Payments:      payhandler.New(a.Payments, logger),
	}, httptransport.Options{
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		AdminTokenHash: hash,
	}, logger)

	srv := httptest.NewServer(router)
	return &TestContext{
		BaseURL:    srv.URL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Gateway:    gw,
		Outbox:     outbox,
		app:        a,
		server:     srv,
	}, nil
}

// Close stops the in-process server.
func (tc *TestContext) Close() {
	if tc == nil || tc.server == nil {
		return
	}
	tc.server.Close()
	_ = tc.app.Close(context.Background()) //nolint:errcheck // test teardown
}

// POST makes a POST request and stores the response
func (tc *TestContext) POST(path string, body any) error {
	return tc.POSTWithHeaders(path, body, nil)
}

// POSTWithHeaders makes a POST request with optional headers
func (tc *TestContext) POSTWithHeaders(path string, body any, headers map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	return tc.send(http.MethodPost, path, data, headers)
}

// POSTRaw sends body exactly as given.
func (tc *TestContext) POSTRaw(path string, body []byte, headers map[string]string) error {
	return tc.send(http.MethodPost, path, body, headers)
}

// PATCHWithHeaders makes a PATCH request with optional headers
func (tc *TestContext) PATCHWithHeaders(path string, body any, headers map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	return tc.send(http.MethodPatch, path, data, headers)
}

// GET makes a GET request and stores the response
func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.send(http.MethodGet, path, nil, headers)
}

func (tc *TestContext) send(method, path string, body []byte, headers map[string]string) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// GetResponseField extracts a field from the JSON response. Nested fields
// use dots, e.g. "registration.paymentStatus".
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var data any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	for _, part := range strings.Split(field, ".") {
		obj, ok := data.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %s not found in response", field)
		}
		if data, ok = obj[part]; !ok {
			return nil, fmt.Errorf("field %s not found in response", field)
		}
	}
	return data, nil
}

// ResponseContains checks if the response body contains a field or text
func (tc *TestContext) ResponseContains(text string) bool {
	return strings.Contains(string(tc.LastResponseBody), text)
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetResponseHeader(name string) string {
	if tc.LastResponse == nil {
		return ""
	}
	return tc.LastResponse.Header.Get(name)
}

// FailGateway makes the fake Razorpay answer the next n calls with 503.
func (tc *TestContext) FailGateway(n int) {
	tc.Gateway.FailNext(n)
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}

func (tc *TestContext) GetAdminToken() string {
	return adminToken
}

// Registration state

func (tc *TestContext) GetRegistrationID() string { return tc.RegistrationID }
func (tc *TestContext) GetAmount() float64        { return tc.Amount }

func (tc *TestContext) SetRegistration(id, email string, amount float64) {
	tc.RegistrationID = id
	tc.Email = email
	tc.Amount = amount
}

// Checkout state

func (tc *TestContext) GetOrderID() string   { return tc.OrderID }
func (tc *TestContext) SetOrderID(id string) { tc.OrderID = id }

func (tc *TestContext) GetPayment() (paymentID, signature string) {
	return tc.PaymentID, tc.Signature
}

func (tc *TestContext) SetPayment(paymentID, signature string) {
	tc.PaymentID = paymentID
	tc.Signature = signature
}

// Pay plays the customer's side of checkout for the current order.
func (tc *TestContext) Pay(status string) {
	p, sig := tc.Gateway.Pay(tc.OrderID, status)
	tc.SetPayment(p.ID, sig)
}

// SettlePayment changes the saved payment at the gateway.
func (tc *TestContext) SettlePayment(status string) {
	tc.Gateway.SetPaymentStatus(tc.PaymentID, status)
}

// SignWebhook returns the X-Razorpay-Signature for body.
func (tc *TestContext) SignWebhook(body []byte) string {
	return gateway.WebhookSignature(webhookSecret, body)
}

func (tc *TestContext) MailsTo(addr string) int {
	return tc.Outbox.CountTo(addr)
}
