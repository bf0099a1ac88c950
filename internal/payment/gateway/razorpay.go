package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coffeereg/internal/payment/metrics"
	"coffeereg/internal/platform/tracer"
	"coffeereg/pkg/platform/circuit"
)

const (
	DefaultBaseURL  = "https://api.razorpay.com/v1"
	defaultTimeout  = 10 * time.Second
	maxResponseBody = 1 << 20
)

// Gateway operation names used in metrics, spans and errors.
const (
	OpCreateOrder   = "create_order"
	OpFetchPayment  = "fetch_payment"
	OpCapture       = "capture_payment"
	OpOrderPayments = "order_payments"
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	// Timeout bounds each call. A deadline on the caller's context wins when
	// it is shorter.
	Timeout    time.Duration
	HTTPClient HTTPDoer
	Breaker    *circuit.Breaker
	Metrics    *metrics.Metrics
	Tracer     tracer.Tracer
}

// Client is a Razorpay REST client. It is safe for concurrent use.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	timeout   time.Duration
	http      HTTPDoer
	breaker   *circuit.Breaker
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracer.NewNoop()
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		timeout:   cfg.Timeout,
		http:      cfg.HTTPClient,
		breaker:   cfg.Breaker,
		metrics:   cfg.Metrics,
		tracer:    cfg.Tracer,
	}
}

// KeyID is the public key the checkout widget needs.
func (c *Client) KeyID() string {
	return c.keyID
}

// CircuitOpen reports whether calls are currently short-circuited.
func (c *Client) CircuitOpen() bool {
	return c.breaker != nil && c.breaker.IsOpen()
}

func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.Amount <= 0 {
		return nil, &Error{Category: ErrorBadData, Op: OpCreateOrder, Description: "amount must be positive"}
	}
	if req.Currency == "" {
		req.Currency = "INR"
	}
	body := map[string]any{
		"amount":   ToSubunits(req.Amount),
		"currency": req.Currency,
	}
	if req.Receipt != "" {
		body["receipt"] = req.Receipt
	}
	if len(req.Notes) > 0 {
		body["notes"] = req.Notes
	}
	var order Order
	if err := c.do(ctx, OpCreateOrder, http.MethodPost, "/orders", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var p Payment
	if err := c.do(ctx, OpFetchPayment, http.MethodGet, "/payments/"+url.PathEscape(paymentID), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CapturePayment settles an authorized payment for amount paise.
func (c *Client) CapturePayment(ctx context.Context, paymentID string, amount int64, currency string) (*Payment, error) {
	if currency == "" {
		currency = "INR"
	}
	body := map[string]any{"amount": amount, "currency": currency}
	var p Payment
	if err := c.do(ctx, OpCapture, http.MethodPost, "/payments/"+url.PathEscape(paymentID)+"/capture", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FetchOrderPayments lists every payment attempt made against an order.
func (c *Client) FetchOrderPayments(ctx context.Context, orderID string) ([]Payment, error) {
	var coll collection[Payment]
	if err := c.do(ctx, OpOrderPayments, http.MethodGet, "/orders/"+url.PathEscape(orderID)+"/payments", nil, &coll); err != nil {
		return nil, err
	}
	return coll.Items, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, tracer.SpanGatewayCall, tracer.String(tracer.AttrGatewayOp, op))
	defer func() {
		c.metrics.ObserveGatewayCall(op, start, err)
		span.End(err)
	}()

	if c.breaker != nil && !c.breaker.Allow() {
		return &Error{Category: ErrorCircuitOpen, Op: op, Description: "gateway circuit open"}
	}

	err = c.send(ctx, op, method, path, in, out)
	c.record(err)
	return err
}

func (c *Client) record(err error) {
	if c.breaker == nil {
		return
	}
	var ge *Error
	if err != nil && errors.As(err, &ge) && ge.countsAsFailure() {
		if change := c.breaker.RecordFailure(); change.Opened {
			c.metrics.SetCircuitOpen(true)
		}
		return
	}
	if change := c.breaker.RecordSuccess(); change.Closed {
		c.metrics.SetCircuitOpen(false)
	}
}

func (c *Client) send(ctx context.Context, op, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &Error{Category: ErrorBadData, Op: op, Description: "failed to encode request", Underlying: err}
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Category: ErrorBadData, Op: op, Description: "failed to build request", Underlying: err}
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &Error{Category: ErrorTimeout, Op: op, Description: "request timed out", Underlying: err}
		}
		return &Error{Category: ErrorOutage, Op: op, Description: "request failed", Underlying: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &Error{Category: ErrorOutage, Op: op, StatusCode: resp.StatusCode, Description: "failed to read response", Underlying: err}
	}

	if resp.StatusCode >= 300 {
		return statusError(op, resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Category: ErrorBadData, Op: op, StatusCode: resp.StatusCode, Description: "malformed response", Underlying: err}
	}
	return nil
}

// errorBody is the gateway's error envelope.
type errorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func statusError(op string, status int, data []byte) error {
	var eb errorBody
	_ = json.Unmarshal(data, &eb)
	e := &Error{
		Op:          op,
		StatusCode:  status,
		Code:        eb.Error.Code,
		Description: eb.Error.Description,
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Category = ErrorAuth
	case status == http.StatusNotFound:
		e.Category = ErrorNotFound
	case status == http.StatusTooManyRequests || status >= 500:
		e.Category = ErrorOutage
	default:
		e.Category = ErrorRejected
	}
	if e.Description == "" {
		e.Description = fmt.Sprintf("unexpected status %d", status)
	}
	return e
}
