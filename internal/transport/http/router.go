package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	comphandler "coffeereg/internal/competition/handler"
	payhandler "coffeereg/internal/payment/handler"
	"coffeereg/internal/platform/health"
	reghandler "coffeereg/internal/registration/handler"
	"coffeereg/pkg/platform/middleware/admin"
	"coffeereg/pkg/platform/middleware/request"
)

const defaultRequestTimeout = 30 * time.Second

// Modules groups the per-module handlers. A nil handler leaves its routes
// unmounted.
type Modules struct {
	Health        *health.Handler
	Competitions  *comphandler.Handler
	Registrations *reghandler.Handler
	Payments      *payhandler.Handler
}

// Options configures the shared middleware stack.
type Options struct {
	RequestTimeout time.Duration
	// MaxBodyBytes caps JSON bodies. Registration uploads are bounded by the
	// registration handler itself.
	MaxBodyBytes   int64
	AdminTokenHash string
	Metrics        *request.Metrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(m Modules, opts Options, logger *slog.Logger) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.ClientIP)
	r.Use(request.RequestTime)
	r.Use(request.Logger(logger))
	r.Use(request.LatencyMiddleware(opts.Metrics, routePattern))

	if m.Health != nil {
		m.Health.Register(r)
	}
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Group(func(api chi.Router) {
		api.Use(request.Timeout(opts.RequestTimeout))

		if m.Competitions != nil {
			m.Competitions.Register(api)
		}

		if m.Registrations != nil {
			api.Group(func(pub chi.Router) {
				pub.Use(request.ContentType("application/json", "multipart/form-data"))
				m.Registrations.Register(pub)
			})
			api.Group(func(ops chi.Router) {
				ops.Use(admin.RequireAdminToken(opts.AdminTokenHash, logger))
				ops.Use(jsonBody(opts.MaxBodyBytes)...)
				m.Registrations.RegisterAdmin(ops)
			})
		}

		if m.Payments != nil {
			api.Group(func(pay chi.Router) {
				pay.Use(jsonBody(opts.MaxBodyBytes)...)
				m.Payments.Register(pay)
			})
		}
	})

	return r
}

func jsonBody(maxBytes int64) []func(http.Handler) http.Handler {
	mw := []func(http.Handler) http.Handler{request.ContentTypeJSON}
	if maxBytes > 0 {
		mw = append(mw, request.BodyLimit(maxBytes))
	}
	return mw
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}
