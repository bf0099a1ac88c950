package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

const (
	signatureHeader = "X-Razorpay-Signature"
	eventIDHeader   = "X-Razorpay-Event-Id"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	POSTRaw(path string, body []byte, headers map[string]string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetRegistrationID() string
	GetAmount() float64
	GetOrderID() string
	SetOrderID(id string)
	GetPayment() (paymentID, signature string)
	Pay(status string)
	SettlePayment(status string)
	SignWebhook(body []byte) string
	FailGateway(n int)
}

// RegisterSteps registers payment step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &paymentSteps{tc: tc}

	// Orders
	ctx.Step(`^I create a payment order for the registration$`, steps.createOrderForRegistration)
	ctx.Step(`^I create a payment order for the registration for (\d+) rupees$`, steps.createOrderForRegistrationWithAmount)
	ctx.Step(`^I create a payment order for (\d+) rupees$`, steps.createStandaloneOrder)

	ctx.Step(`^the payment gateway fails the next (\d+) requests?$`, steps.gatewayFails)

	// Checkout
	ctx.Step(`^the customer completes checkout$`, steps.customerCompletesCheckout)
	ctx.Step(`^the customer's payment fails$`, steps.customerPaymentFails)

	// Client callback
	ctx.Step(`^the browser confirms the payment$`, steps.browserConfirms)
	ctx.Step(`^the browser confirms the payment with a forged signature$`, steps.browserConfirmsForged)
	ctx.Step(`^the browser confirms the payment using checkout field names$`, steps.browserConfirmsCheckoutNames)

	// Webhooks
	ctx.Step(`^the gateway sends the "([^"]*)" webhook$`, steps.sendWebhook)
	ctx.Step(`^the gateway sends the "([^"]*)" webhook with event id "([^"]*)"$`, steps.sendWebhookWithEventID)
	ctx.Step(`^the gateway sends the "([^"]*)" webhook for an unknown order$`, steps.sendWebhookForUnknownOrder)
	ctx.Step(`^the gateway sends a webhook with an invalid signature$`, steps.sendForgedWebhook)
}

type paymentSteps struct {
	tc TestContext
}

func (s *paymentSteps) createOrderForRegistration(ctx context.Context) error {
	return s.createOrder(s.tc.GetAmount(), s.tc.GetRegistrationID())
}

func (s *paymentSteps) createOrderForRegistrationWithAmount(ctx context.Context, amount int) error {
	return s.createOrder(float64(amount), s.tc.GetRegistrationID())
}

func (s *paymentSteps) createStandaloneOrder(ctx context.Context, amount int) error {
	return s.createOrder(float64(amount), "")
}

func (s *paymentSteps) createOrder(amount float64, registrationID string) error {
	body := map[string]any{"amount": amount, "currency": "INR"}
	if registrationID != "" {
		body["registrationId"] = registrationID
	}
	if err := s.tc.POST("/api/payment/order", body); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != 200 {
		return nil
	}
	id, err := s.tc.GetResponseField("order.id")
	if err != nil {
		return err
	}
	s.tc.SetOrderID(fmt.Sprint(id))
	return nil
}

func (s *paymentSteps) gatewayFails(ctx context.Context, n int) error {
	s.tc.FailGateway(n)
	return nil
}

func (s *paymentSteps) customerCompletesCheckout(ctx context.Context) error {
	if s.tc.GetOrderID() == "" {
		return fmt.Errorf("no order has been created")
	}
	s.tc.Pay("authorized")
	return nil
}

func (s *paymentSteps) customerPaymentFails(ctx context.Context) error {
	if s.tc.GetOrderID() == "" {
		return fmt.Errorf("no order has been created")
	}
	s.tc.Pay("failed")
	return nil
}

func (s *paymentSteps) browserConfirms(ctx context.Context) error {
	paymentID, signature := s.tc.GetPayment()
	return s.confirm(map[string]any{
		"registrationId": s.tc.GetRegistrationID(),
		"amount":         s.tc.GetAmount(),
		"currency":       "INR",
		"paymentId":      paymentID,
		"orderId":        s.tc.GetOrderID(),
		"signature":      signature,
	})
}

func (s *paymentSteps) browserConfirmsForged(ctx context.Context) error {
	paymentID, _ := s.tc.GetPayment()
	return s.confirm(map[string]any{
		"registrationId": s.tc.GetRegistrationID(),
		"amount":         s.tc.GetAmount(),
		"currency":       "INR",
		"paymentId":      paymentID,
		"orderId":        s.tc.GetOrderID(),
		"signature":      strings.Repeat("0", 64),
	})
}

func (s *paymentSteps) browserConfirmsCheckoutNames(ctx context.Context) error {
	paymentID, signature := s.tc.GetPayment()
	return s.confirm(map[string]any{
		"registrationId":      s.tc.GetRegistrationID(),
		"amount":              s.tc.GetAmount(),
		"currency":            "INR",
		"razorpay_payment_id": paymentID,
		"razorpay_order_id":   s.tc.GetOrderID(),
		"razorpay_signature":  signature,
	})
}

func (s *paymentSteps) confirm(body map[string]any) error {
	return s.tc.POST("/api/payment", body)
}

func (s *paymentSteps) sendWebhook(ctx context.Context, event string) error {
	paymentID, _ := s.tc.GetPayment()
	return s.sendWebhookWithEventID(ctx, event, "evt_"+paymentID+"_"+event)
}

func (s *paymentSteps) sendWebhookWithEventID(ctx context.Context, event, eventID string) error {
	paymentID, _ := s.tc.GetPayment()
	status, err := statusForEvent(event)
	if err != nil {
		return err
	}
	if status == "captured" || status == "failed" {
		s.tc.SettlePayment(status)
	}
	body, err := webhookBody(event, paymentID, s.tc.GetOrderID(), status, s.tc.GetAmount(), s.tc.GetRegistrationID())
	if err != nil {
		return err
	}
	return s.post(body, s.tc.SignWebhook(body), eventID)
}

func (s *paymentSteps) sendWebhookForUnknownOrder(ctx context.Context, event string) error {
	status, err := statusForEvent(event)
	if err != nil {
		return err
	}
	body, err := webhookBody(event, "pay_unknown", "order_unknown", status, 1180, "")
	if err != nil {
		return err
	}
	return s.post(body, s.tc.SignWebhook(body), "evt_unknown")
}

func (s *paymentSteps) sendForgedWebhook(ctx context.Context) error {
	paymentID, _ := s.tc.GetPayment()
	body, err := webhookBody("payment.captured", paymentID, s.tc.GetOrderID(), "captured", s.tc.GetAmount(), s.tc.GetRegistrationID())
	if err != nil {
		return err
	}
	return s.post(body, strings.Repeat("f", 64), "evt_forged")
}

func (s *paymentSteps) post(body []byte, signature, eventID string) error {
	return s.tc.POSTRaw("/api/payment/webhook", body, map[string]string{
		signatureHeader: signature,
		eventIDHeader:   eventID,
	})
}

func statusForEvent(event string) (string, error) {
	switch event {
	case "payment.captured":
		return "captured", nil
	case "payment.failed":
		return "failed", nil
	case "payment.authorized":
		return "authorized", nil
	}
	return "", fmt.Errorf("unsupported webhook event %q", event)
}

// webhookBody builds the envelope Razorpay posts for payment events.
func webhookBody(event, paymentID, orderID, status string, amount float64, registrationID string) ([]byte, error) {
	notes := map[string]string{}
	if registrationID != "" {
		notes["registrationId"] = registrationID
	}
	return json.Marshal(map[string]any{
		"entity":     "event",
		"event":      event,
		"contains":   []string{"payment"},
		"created_at": time.Now().Unix(),
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{
					"id":       paymentID,
					"entity":   "payment",
					"amount":   int64(math.Round(amount * 100)),
					"currency": "INR",
					"status":   status,
					"order_id": orderID,
					"method":   "upi",
					"notes":    notes,
				},
			},
		},
	})
}
