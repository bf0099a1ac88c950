package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"coffeereg/internal/payment/handler/mocks"
	"coffeereg/internal/payment/models"
	regmodels "coffeereg/internal/registration/models"
	dErrors "coffeereg/pkg/domain-errors"
)

type HandlerSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	svc    *mocks.MockService
	router http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.svc = mocks.NewMockService(s.ctrl)
	r := chi.NewRouter()
	New(s.svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	s.router = r
}

func (s *HandlerSuite) do(method, target, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (s *HandlerSuite) TestCreateOrder() {
	s.svc.EXPECT().CreateOrder(gomock.Any(), &models.OrderRequest{Amount: 1180, Currency: "INR", RegistrationID: "CFC1"}).
		Return(&models.OrderView{ID: "order_1", Amount: 118000, Currency: "INR", Status: "created", KeyID: "rzp_test"}, nil)

	rec, body := s.do(http.MethodPost, "/api/payment/order", `{"amount":1180,"registrationId":"CFC1"}`, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(true, body["success"])
	order := body["order"].(map[string]any)
	s.Equal("order_1", order["id"])
	s.Equal(118000.0, order["amount"])
	s.Equal("rzp_test", order["keyId"])
}

func (s *HandlerSuite) TestCreateOrderValidation() {
	rec, body := s.do(http.MethodPost, "/api/payment/order", `{"amount":0}`, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("validation_error", body["error"])
}

func (s *HandlerSuite) TestCreateOrderGatewayFailure() {
	s.svc.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeGateway, "failed to create order"))

	rec, body := s.do(http.MethodPost, "/api/payment/order", `{"amount":1180}`, nil)
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("gateway_error", body["error"])
	s.Equal("5", rec.Header().Get("Retry-After"))
}

const verifyBody = `{"registrationId":"CFC1","amount":1180,"currency":"INR","paymentId":"pay_1","orderId":"order_1",
"signature":"abc","customerInfo":{"name":"Asha","email":"asha@example.com","mobile":"9876543210"}}`

func (s *HandlerSuite) TestVerifySuccess() {
	s.svc.EXPECT().VerifyAndCapture(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, req *models.VerifyRequest) (*regmodels.Outcome, error) {
			s.Equal("pay_1", req.PaymentID)
			s.Equal("order_1", req.OrderID)
			return &regmodels.Outcome{
				Registration: &regmodels.Registration{RegistrationID: "CFC1", PaymentStatus: regmodels.StatusSuccess, PaymentID: "pay_1"},
				Applied:      true,
			}, nil
		})

	rec, body := s.do(http.MethodPost, "/api/payment", verifyBody, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(true, body["success"])
	s.Equal("success", body["paymentStatus"])
	s.Equal(false, body["retryAllowed"])
	s.Equal("CFC1", body["registration"].(map[string]any)["registrationId"])
}

func (s *HandlerSuite) TestVerifyFailedPaymentAllowsRetry() {
	s.svc.EXPECT().VerifyAndCapture(gomock.Any(), gomock.Any()).Return(&regmodels.Outcome{
		Registration: &regmodels.Registration{RegistrationID: "CFC1", PaymentStatus: regmodels.StatusFailed},
		Applied:      true,
	}, nil)

	rec, body := s.do(http.MethodPost, "/api/payment", verifyBody, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(false, body["success"])
	s.Equal("failed", body["paymentStatus"])
	s.Equal(true, body["retryAllowed"])
}

func (s *HandlerSuite) TestVerifyErrors() {
	cases := map[string]struct {
		err    error
		status int
		code   string
	}{
		"bad signature": {dErrors.New(dErrors.CodeInvalidSignature, "payment signature is invalid"), http.StatusBadRequest, "invalid_signature"},
		"unknown":       {dErrors.New(dErrors.CodeNotFound, "registration not found"), http.StatusNotFound, "not_found"},
		"gateway":       {dErrors.New(dErrors.CodeGateway, "failed to capture payment"), http.StatusInternalServerError, "gateway_error"},
	}
	for name, tc := range cases {
		s.Run(name, func() {
			s.svc.EXPECT().VerifyAndCapture(gomock.Any(), gomock.Any()).Return(nil, tc.err)
			rec, body := s.do(http.MethodPost, "/api/payment", verifyBody, nil)
			s.Equal(tc.status, rec.Code)
			s.Equal(tc.code, body["error"])
		})
	}
}

func (s *HandlerSuite) TestVerifyMissingFields() {
	rec, body := s.do(http.MethodPost, "/api/payment", `{"registrationId":"CFC1","orderId":"order_1"}`, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("validation_error", body["error"])
}

func (s *HandlerSuite) TestWebhookPassesRawBodyAndHeaders() {
	payload := `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","status":"captured"}}}}`
	s.svc.EXPECT().HandleWebhook(gomock.Any(), []byte(payload), "sig", "evt_1").Return(models.WebhookProcessed, nil)

	rec, body := s.do(http.MethodPost, "/api/payment/webhook", payload, map[string]string{
		"X-Razorpay-Signature": "sig",
		"X-Razorpay-Event-Id":  "evt_1",
	})
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("processed", body["status"])
}

func (s *HandlerSuite) TestWebhookDuplicate() {
	s.svc.EXPECT().HandleWebhook(gomock.Any(), gomock.Any(), "", "evt_1").Return(models.WebhookDuplicate, nil)

	rec, body := s.do(http.MethodPost, "/api/payment/webhook", `{}`, map[string]string{"X-Razorpay-Event-Id": "evt_1"})
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("duplicate", body["status"])
}

func (s *HandlerSuite) TestWebhookErrors() {
	cases := map[string]struct {
		err    error
		status int
	}{
		"malformed":     {dErrors.New(dErrors.CodeBadRequest, "malformed webhook payload"), http.StatusBadRequest},
		"bad signature": {dErrors.New(dErrors.CodeInvalidSignature, "webhook signature is invalid"), http.StatusBadRequest},
		"unknown":       {dErrors.New(dErrors.CodeNotFound, "registration not found"), http.StatusNotFound},
		"internal":      {dErrors.New(dErrors.CodeInternal, "failed to update payment status"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		s.Run(name, func() {
			s.svc.EXPECT().HandleWebhook(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", tc.err)
			rec, _ := s.do(http.MethodPost, "/api/payment/webhook", `{}`, nil)
			s.Equal(tc.status, rec.Code)
		})
	}
}

func (s *HandlerSuite) TestWebhookTooLarge() {
	big := `{"pad":"` + strings.Repeat("x", defaultMaxWebhookBytes) + `"}`
	rec, body := s.do(http.MethodPost, "/api/payment/webhook", big, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("bad_request", body["error"])
}
