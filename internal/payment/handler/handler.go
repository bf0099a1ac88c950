package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coffeereg/internal/payment/models"
	regmodels "coffeereg/internal/registration/models"
	dErrors "coffeereg/pkg/domain-errors"
	"coffeereg/pkg/platform/httputil"
	"coffeereg/pkg/requestcontext"
)

const (
	signatureHeader = "X-Razorpay-Signature"
	eventIDHeader   = "X-Razorpay-Event-Id"

	defaultMaxWebhookBytes = 256 << 10
)

// Service is the payment orchestration surface the routes need.
type Service interface {
	CreateOrder(ctx context.Context, req *models.OrderRequest) (*models.OrderView, error)
	VerifyAndCapture(ctx context.Context, req *models.VerifyRequest) (*regmodels.Outcome, error)
	HandleWebhook(ctx context.Context, body []byte, signature, eventID string) (string, error)
}

type Handler struct {
	svc             Service
	logger          *slog.Logger
	maxWebhookBytes int64
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger, maxWebhookBytes: defaultMaxWebhookBytes}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/payment/order", h.HandleCreateOrder)
	r.Post("/api/payment", h.HandleVerify)
	r.Post("/api/payment/webhook", h.HandleWebhook)
}

func (h *Handler) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.OrderRequest](w, r, h.logger)
	if !ok {
		return
	}

	order, err := h.svc.CreateOrder(ctx, req)
	if err != nil {
		h.logError(ctx, "order creation failed", err, "registration_id", req.RegistrationID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.OrderResponse{Success: true, Order: order})
}

// HandleVerify answers with the registration's resulting state. A failed
// payment is not an HTTP error: the body says failed and that a retry is
// allowed.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.VerifyRequest](w, r, h.logger)
	if !ok {
		return
	}

	outcome, err := h.svc.VerifyAndCapture(ctx, req)
	if err != nil {
		h.logError(ctx, "payment verification failed", err,
			"registration_id", req.RegistrationID,
			"payment_id", req.PaymentID,
		)
		httputil.WriteError(w, err)
		return
	}

	reg := outcome.Registration
	httputil.WriteJSON(w, http.StatusOK, &models.VerifyResponse{
		Success:       reg.PaymentStatus == regmodels.StatusSuccess,
		PaymentStatus: reg.PaymentStatus,
		Registration:  reg,
		RetryAllowed:  reg.PaymentStatus == regmodels.StatusFailed,
	})
}

// HandleWebhook reads the raw body, since the signature covers the exact
// bytes sent.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "webhook payload too large"))
			return
		}
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unreadable webhook payload"))
		return
	}

	eventID := r.Header.Get(eventIDHeader)
	result, err := h.svc.HandleWebhook(ctx, body, r.Header.Get(signatureHeader), eventID)
	if err != nil {
		h.logError(ctx, "webhook not processed", err, "event_id", eventID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.WebhookResponse{Status: result})
}

// logError logs client mistakes at warn and everything else at error.
func (h *Handler) logError(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err, "request_id", requestcontext.RequestID(ctx))
	switch {
	case dErrors.HasCode(err, dErrors.CodeValidation),
		dErrors.HasCode(err, dErrors.CodeBadRequest),
		dErrors.HasCode(err, dErrors.CodeNotFound),
		dErrors.HasCode(err, dErrors.CodeConflict),
		dErrors.HasCode(err, dErrors.CodeInvalidSignature):
		h.logger.WarnContext(ctx, msg, attrs...)
	default:
		h.logger.ErrorContext(ctx, msg, attrs...)
	}
}
