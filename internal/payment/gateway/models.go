// Package gateway talks to the Razorpay REST API: orders, payment lookup and
// capture. It also verifies the HMAC signatures Razorpay attaches to checkout
// callbacks and webhooks.
package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Payment statuses reported by the gateway.
const (
	PaymentCreated    = "created"
	PaymentAuthorized = "authorized"
	PaymentCaptured   = "captured"
	PaymentRefunded   = "refunded"
	PaymentFailed     = "failed"
)

// NoteRegistrationID is the order note that links an order back to its
// registration.
const NoteRegistrationID = "registrationId"

// Notes are free-form key/value pairs. Razorpay encodes empty notes as an
// array and allows non-string values, so decoding is lenient.
type Notes map[string]string

func (n *Notes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || data[0] == '[' {
		*n = Notes{}
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Notes, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			out[k] = t
		case nil:
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	*n = out
	return nil
}

// OrderRequest creates an order. Amount is in rupees and converted to the
// smallest currency unit on the wire.
type OrderRequest struct {
	Amount   float64
	Currency string
	Receipt  string
	Notes    Notes
}

type Order struct {
	ID         string `json:"id"`
	Entity     string `json:"entity"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	Notes      Notes  `json:"notes"`
	CreatedAt  int64  `json:"created_at"`
}

type Payment struct {
	ID               string `json:"id"`
	Entity           string `json:"entity"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	OrderID          string `json:"order_id"`
	Method           string `json:"method"`
	Captured         bool   `json:"captured"`
	Email            string `json:"email"`
	Contact          string `json:"contact"`
	Notes            Notes  `json:"notes"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
	CreatedAt        int64  `json:"created_at"`
}

// IsCaptured reports a settled payment.
func (p *Payment) IsCaptured() bool {
	return p.Status == PaymentCaptured
}

type collection[T any] struct {
	Entity string `json:"entity"`
	Count  int    `json:"count"`
	Items  []T    `json:"items"`
}

// ToSubunits converts rupees to paise.
func ToSubunits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromSubunits converts paise to rupees.
func FromSubunits(amount int64) float64 {
	return float64(amount) / 100
}

// FormatAmount renders an amount in rupees without trailing zeros.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
