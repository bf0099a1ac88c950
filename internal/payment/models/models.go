package models

import (
	"encoding/json"
	"strings"

	regmodels "coffeereg/internal/registration/models"
	dErrors "coffeereg/pkg/domain-errors"
	"coffeereg/pkg/validation"
)

// OrderRequest asks for a gateway order. RegistrationID is optional for
// compatibility with older clients; when present the amount must match the
// registration's fee and the order is linked to it.
type OrderRequest struct {
	Amount         float64 `json:"amount" validate:"gt=0"`
	Currency       string  `json:"currency" validate:"omitempty,len=3"`
	RegistrationID string  `json:"registrationId,omitempty" validate:"max=64"`
}

func (r *OrderRequest) Normalize() {
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = "INR"
	}
	r.RegistrationID = strings.TrimSpace(r.RegistrationID)
}

func (r *OrderRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

// OrderView is the order as returned to the checkout widget.
type OrderView struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	Status   string `json:"status"`
	KeyID    string `json:"keyId,omitempty"`
}

type OrderResponse struct {
	Success bool       `json:"success"`
	Order   *OrderView `json:"order"`
}

// CustomerInfo is echoed by the client for display purposes only; the
// confirmation always goes to the stored registration's address.
type CustomerInfo struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

// VerifyRequest carries the checkout callback fields.
type VerifyRequest struct {
	RegistrationID string        `json:"registrationId" validate:"notblank"`
	Amount         float64       `json:"amount" validate:"gt=0"`
	Currency       string        `json:"currency" validate:"len=3"`
	PaymentID      string        `json:"paymentId" validate:"notblank"`
	OrderID        string        `json:"orderId" validate:"notblank"`
	Signature      string        `json:"signature" validate:"notblank"`
	CustomerInfo   *CustomerInfo `json:"customerInfo,omitempty"`
}

// UnmarshalJSON also accepts the razorpay_* field names the checkout widget
// produces, so clients can forward its handler response unchanged.
func (r *VerifyRequest) UnmarshalJSON(data []byte) error {
	type plain VerifyRequest
	var aux struct {
		plain
		RazorpayPaymentID string `json:"razorpay_payment_id"`
		RazorpayOrderID   string `json:"razorpay_order_id"`
		RazorpaySignature string `json:"razorpay_signature"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = VerifyRequest(aux.plain)
	if r.PaymentID == "" {
		r.PaymentID = aux.RazorpayPaymentID
	}
	if r.OrderID == "" {
		r.OrderID = aux.RazorpayOrderID
	}
	if r.Signature == "" {
		r.Signature = aux.RazorpaySignature
	}
	return nil
}

func (r *VerifyRequest) Normalize() {
	r.RegistrationID = strings.TrimSpace(r.RegistrationID)
	r.PaymentID = strings.TrimSpace(r.PaymentID)
	r.OrderID = strings.TrimSpace(r.OrderID)
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
}

func (r *VerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

// VerifyResponse tells the client which of three situations it is in:
// paid, payment failed with retry available, or already registered.
type VerifyResponse struct {
	Success       bool                    `json:"success"`
	PaymentStatus regmodels.PaymentStatus `json:"paymentStatus"`
	Registration  *regmodels.Registration `json:"registration"`
	RetryAllowed  bool                    `json:"retryAllowed"`
}

// WebhookResponse acknowledges a delivery.
type WebhookResponse struct {
	Status string `json:"status"`
}

// Webhook processing results.
const (
	WebhookProcessed = "processed"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
)
