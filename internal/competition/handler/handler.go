package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coffeereg/internal/competition/models"
	"coffeereg/pkg/platform/httputil"
	"coffeereg/pkg/requestcontext"
)

// Service is the subset of the catalog service the handler needs.
type Service interface {
	List(ctx context.Context) ([]*models.Competition, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/competitions", h.HandleList)
}

// HandleList returns the catalog as a bare JSON array.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.svc.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list competitions",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	if list == nil {
		list = []*models.Competition{}
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}
