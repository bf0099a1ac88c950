package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"coffeereg/internal/audit"
	"coffeereg/internal/registration/models"
	"coffeereg/internal/registration/service"
	dErrors "coffeereg/pkg/domain-errors"
	"coffeereg/pkg/platform/httputil"
	"coffeereg/pkg/platform/middleware/admin"
	"coffeereg/pkg/requestcontext"
)

const (
	defaultMaxUploadBytes = 5 << 20
	// multipartMemory bounds the upload bytes held in memory; the rest spills
	// to temp files removed once the request is handled.
	multipartMemory   = 256 << 10
	passportFileField = "passportFile"
)

// Service is the registration service surface used by the public routes.
type Service interface {
	Create(ctx context.Context, sub *models.Submission) (*service.CreateResult, error)
	FindByUniquenessKey(ctx context.Context, key models.UniquenessKey) (*models.Registration, error)
	UpdateStatus(ctx context.Context, upd models.StatusUpdate) (*models.Outcome, error)
}

// StatusUpdater applies operator status changes. The payment service
// implements it so a manual success also sends the confirmation.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, upd models.StatusUpdate) (*models.Outcome, error)
}

type Handler struct {
	svc            Service
	updater        StatusUpdater
	logger         *slog.Logger
	maxUploadBytes int64
}

type Option func(*Handler)

func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

func WithStatusUpdater(u StatusUpdater) Option {
	return func(h *Handler) {
		h.updater = u
	}
}

func New(svc Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{svc: svc, logger: logger, maxUploadBytes: defaultMaxUploadBytes}
	for _, opt := range opts {
		opt(h)
	}
	if h.updater == nil {
		h.updater = svc
	}
	return h
}

// Register mounts the public routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/registration", h.HandleCreate)
	r.Get("/api/registration", h.HandleLookup)
}

// RegisterAdmin mounts operator routes. The caller wraps r with the admin
// token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Patch("/api/registration", h.HandleUpdateStatus)
}

// HandleCreate accepts JSON or multipart/form-data. New registrations answer
// 201; an unpaid registration returned for retry answers 200.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sub, err := h.decodeSubmission(w, r)
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll() //nolint:errcheck // temp files only
	}
	if err != nil {
		h.logger.WarnContext(ctx, "failed to decode registration",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	if sub.Passport != nil {
		if c, ok := sub.Passport.Content.(io.Closer); ok {
			defer c.Close()
		}
	}

	res, err := h.svc.Create(ctx, sub)
	if err != nil {
		h.logCreateError(ctx, err)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if res.RetryAllowed {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, &models.RegistrationResponse{
		Success:      true,
		Registration: res.Registration,
		RetryAllowed: res.RetryAllowed,
	})
}

func (h *Handler) decodeSubmission(w http.ResponseWriter, r *http.Request) (*models.Submission, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req models.RegistrationRequest
		if err := httputil.DecodeInto(r, &req); err != nil {
			return nil, err
		}
		return req.ToSubmission(), nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(min(h.maxUploadBytes, multipartMemory)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, dErrors.New(dErrors.CodeValidation, "passport upload is too large")
		}
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form")
	}

	form := r.MultipartForm
	field := func(name string) string {
		if v := form.Value[name]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	req := models.RegistrationRequest{
		Name:           field("name"),
		Email:          field("email"),
		Mobile:         field("mobile"),
		Address:        field("address"),
		City:           field("city"),
		State:          field("state"),
		Pin:            field("pin"),
		AadhaarNumber:  field("aadhaarNumber"),
		Competition:    field("competition"),
		PassportNumber: field("passportNumber"),
	}
	req.AcceptedTerms, _ = strconv.ParseBool(field("acceptedTerms"))
	if v := field("amount"); v != "" {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "amount must be a number")
		}
		req.Amount = &amount
	}
	sub := req.ToSubmission()

	if files := form.File[passportFileField]; len(files) > 0 {
		fh := files[0]
		f, err := fh.Open()
		if err != nil {
			return nil, dErrors.New(dErrors.CodeBadRequest, "unreadable passport upload")
		}
		sub.Passport = &models.Upload{
			Filename:    fh.Filename,
			ContentType: strings.ToLower(fh.Header.Get("Content-Type")),
			Size:        fh.Size,
			Content:     f,
		}
	}
	return sub, nil
}

func (h *Handler) logCreateError(ctx context.Context, err error) {
	attrs := []any{"error", err, "request_id", requestcontext.RequestID(ctx)}
	switch {
	case dErrors.HasCode(err, dErrors.CodeValidation), dErrors.HasCode(err, dErrors.CodeConflict):
		h.logger.WarnContext(ctx, "registration rejected", attrs...)
	default:
		h.logger.ErrorContext(ctx, "failed to create registration", attrs...)
	}
}

// HandleLookup reports whether a registration exists for any of the given
// identifiers.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	key := models.UniquenessKey{
		Email:      q.Get("email"),
		Mobile:     q.Get("mobile"),
		NationalID: q.Get("aadhaar"),
	}
	reg, err := h.svc.FindByUniquenessKey(ctx, key)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) {
			h.logger.ErrorContext(ctx, "failed to look up registration",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.LookupResponse{Exists: reg != nil, Registration: reg})
}

// HandleUpdateStatus applies an operator status change.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.StatusUpdateRequest](w, r, h.logger)
	if !ok {
		return
	}

	out, err := h.updater.UpdateStatus(ctx, models.StatusUpdate{
		RegistrationID: req.RegistrationID,
		Status:         models.PaymentStatus(req.PaymentStatus),
		PaymentID:      req.PaymentID,
		Source:         audit.SourceAdmin,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "manual status update failed",
			"error", err,
			"registration_id", req.RegistrationID,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "manual status update",
		"registration_id", req.RegistrationID,
		"status", req.PaymentStatus,
		"applied", out.Applied,
		"actor", admin.GetAdminActorID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, &models.StatusUpdateResponse{
		Success:      true,
		Applied:      out.Applied,
		Registration: out.Registration,
	})
}
