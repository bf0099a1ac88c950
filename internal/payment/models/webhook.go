package models

import (
	"encoding/json"

	"coffeereg/internal/payment/gateway"
	dErrors "coffeereg/pkg/domain-errors"
)

// WebhookEvent is the part of a gateway webhook the service acts on.
type WebhookEvent struct {
	Event     string
	PaymentID string
	OrderID   string
	Status    string
	Amount    int64
	Notes     gateway.Notes
}

// paymentEntity tolerates the razorpay_* key names some senders put inside
// the entity instead of id/order_id.
type paymentEntity struct {
	gateway.Payment
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity paymentEntity `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity gateway.Order `json:"entity"`
		} `json:"order"`
	} `json:"payload"`

	// Flat fields sent by some integrations and manual replays.
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	Status            string `json:"status"`
}

// ParseWebhook decodes the native envelope
// payload.payment.entity{id, order_id, status, notes}, falling back to flat
// razorpay_payment_id / razorpay_order_id keys.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed webhook payload")
	}
	p := env.Payload.Payment.Entity
	ev := &WebhookEvent{
		Event:     env.Event,
		PaymentID: p.ID,
		OrderID:   p.OrderID,
		Status:    p.Status,
		Amount:    p.Amount,
		Notes:     p.Notes,
	}
	ev.PaymentID = firstNonEmpty(ev.PaymentID, p.RazorpayPaymentID, env.RazorpayPaymentID)
	ev.OrderID = firstNonEmpty(ev.OrderID, p.RazorpayOrderID, env.RazorpayOrderID)
	if ev.OrderID == "" {
		ev.OrderID = env.Payload.Order.Entity.ID
	}
	if ev.Status == "" {
		ev.Status = env.Status
	}
	if len(ev.Notes) == 0 {
		ev.Notes = env.Payload.Order.Entity.Notes
	}
	if ev.PaymentID == "" && ev.OrderID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "webhook carries no payment or order id")
	}
	return ev, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
