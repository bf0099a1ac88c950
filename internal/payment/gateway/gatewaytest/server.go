// Package gatewaytest runs an in-process Razorpay look-alike for tests. It
// implements the subset of the REST API the gateway client uses and lets a
// test play the customer's side of checkout.
package gatewaytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"coffeereg/internal/payment/gateway"
)

const (
	KeyID     = "rzp_test_key"
	KeySecret = "rzp_test_secret"
)

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	seq      int
	orders   map[string]*gateway.Order
	payments map[string]*gateway.Payment
	calls    map[string]int
	failNext int
	delay    time.Duration
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		orders:   make(map[string]*gateway.Order),
		payments: make(map[string]*gateway.Payment),
		calls:    make(map[string]int),
	}
	r := chi.NewRouter()
	r.Use(s.auth)
	r.Post("/orders", s.createOrder)
	r.Get("/orders/{id}/payments", s.orderPayments)
	r.Get("/payments/{id}", s.fetchPayment)
	r.Post("/payments/{id}/capture", s.capture)
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Config returns a client configuration pointing at the server.
func (s *Server) Config() gateway.Config {
	return gateway.Config{BaseURL: s.URL, KeyID: KeyID, KeySecret: KeySecret, Timeout: 2 * time.Second}
}

// Pay simulates checkout: it records a payment against orderID with the
// given status and returns it with the callback signature the widget would
// hand back to the browser.
func (s *Server) Pay(orderID, status string) (*gateway.Payment, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	order := s.orders[orderID]
	p := &gateway.Payment{
		ID:       fmt.Sprintf("pay_%06d", s.seq),
		Entity:   "payment",
		Status:   status,
		OrderID:  orderID,
		Method:   "upi",
		Currency: "INR",
		Captured: status == gateway.PaymentCaptured,
		Notes:    gateway.Notes{},
	}
	if order != nil {
		p.Amount = order.Amount
		p.Notes = order.Notes
	}
	s.payments[p.ID] = p
	cp := *p
	return &cp, gateway.CallbackSignature(KeySecret, orderID, p.ID)
}

// SetPaymentStatus changes a payment behind the client's back.
func (s *Server) SetPaymentStatus(paymentID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.payments[paymentID]; ok {
		p.Status = status
		p.Captured = status == gateway.PaymentCaptured
	}
}

// Order returns a copy of a stored order.
func (s *Server) Order(id string) (*gateway.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, false
	}
	cp := *o
	return &cp, true
}

// FailNext answers the next n requests with 503.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	s.failNext = n
	s.mu.Unlock()
}

// SetDelay makes every response wait d.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// Calls reports how many requests reached the handler for route, e.g.
// "POST /payments/{id}/capture".
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		if !ok || id != KeyID || secret != KeySecret {
			writeError(w, http.StatusUnauthorized, "BAD_REQUEST_ERROR", "Authentication failed")
			return
		}
		s.mu.Lock()
		delay := s.delay
		fail := s.failNext > 0
		if fail {
			s.failNext--
		}
		s.mu.Unlock()
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if fail {
			writeError(w, http.StatusServiceUnavailable, "SERVER_ERROR", "The server is temporarily unavailable")
			return
		}
		next.ServeHTTP(w, r)
		rctx := chi.RouteContext(r.Context())
		s.mu.Lock()
		s.calls[r.Method+" "+rctx.RoutePattern()]++
		s.mu.Unlock()
	})
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount   int64         `json:"amount"`
		Currency string        `json:"currency"`
		Receipt  string        `json:"receipt"`
		Notes    gateway.Notes `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount < 100 {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST_ERROR", "The amount must be atleast INR 1.00")
		return
	}
	s.mu.Lock()
	s.seq++
	o := &gateway.Order{
		ID:        fmt.Sprintf("order_%06d", s.seq),
		Entity:    "order",
		Amount:    req.Amount,
		AmountDue: req.Amount,
		Currency:  req.Currency,
		Receipt:   req.Receipt,
		Status:    "created",
		Notes:     req.Notes,
		CreatedAt: time.Now().Unix(),
	}
	s.orders[o.ID] = o
	cp := *o
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, &cp)
}

func (s *Server) fetchPayment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p, ok := s.payments[chi.URLParam(r, "id")]
	var cp gateway.Payment
	if ok {
		cp = *p
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST_ERROR", "The id provided does not exist")
		return
	}
	writeJSON(w, http.StatusOK, &cp)
}

func (s *Server) capture(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int64 `json:"amount"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[chi.URLParam(r, "id")]
	switch {
	case !ok:
		writeError(w, http.StatusBadRequest, "BAD_REQUEST_ERROR", "The id provided does not exist")
	case p.Status == gateway.PaymentCaptured:
		writeError(w, http.StatusBadRequest, "BAD_REQUEST_ERROR", "This payment has already been captured")
	case p.Status != gateway.PaymentAuthorized:
		writeError(w, http.StatusBadRequest, "BAD_REQUEST_ERROR", "Only payments which have been authorized and not yet captured can be captured")
	case req.Amount != p.Amount:
		writeError(w, http.StatusBadRequest, "BAD_REQUEST_ERROR", "Capture amount must be equal to the amount authorized")
	default:
		p.Status = gateway.PaymentCaptured
		p.Captured = true
		cp := *p
		writeJSON(w, http.StatusOK, &cp)
	}
}

func (s *Server) orderPayments(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	s.mu.Lock()
	items := []gateway.Payment{}
	for _, p := range s.payments {
		if p.OrderID == orderID {
			items = append(items, *p)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"entity": "collection", "count": len(items), "items": items})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"code": code, "description": description}})
}
