package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/suite"

	comphandler "coffeereg/internal/competition/handler"
	compmodels "coffeereg/internal/competition/models"
	compservice "coffeereg/internal/competition/service"
	compstore "coffeereg/internal/competition/store"
	"coffeereg/internal/platform/health"
	reghandler "coffeereg/internal/registration/handler"
	regservice "coffeereg/internal/registration/service"
	regstore "coffeereg/internal/registration/store"
	"coffeereg/pkg/platform/middleware/admin"
	"coffeereg/pkg/platform/middleware/request"
	"coffeereg/pkg/secrets"
)

type RouterSuite struct {
	suite.Suite
	router http.Handler
	token  string
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalog := compservice.New(compstore.NewInMemory(), logger)
	_, err := catalog.Seed(context.Background(), []compmodels.Competition{
		{Name: "National Barista Championship", Price: 1180},
	})
	s.Require().NoError(err)

	registrations := regservice.New(regstore.NewInMemory(), catalog, regservice.WithLogger(logger))

	s.token = "operator-token"
	hash, err := secrets.Hash(s.token)
	s.Require().NoError(err)

	reg := prometheus.NewRegistry()
	s.router = NewRouter(Modules{
		Health:        health.New("test"),
		Competitions:  comphandler.New(catalog, logger),
		Registrations: reghandler.New(registrations, logger),
	}, Options{
		MaxBodyBytes:   1024,
		AdminTokenHash: hash,
		Metrics:        request.NewMetricsWithRegistry(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, logger)
}

func (s *RouterSuite) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) TestLivenessAndRequestID() {
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "probe-1")

	rec := s.do(req)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("probe-1", rec.Header().Get("X-Request-ID"))
	s.Contains(rec.Body.String(), "alive")
}

func (s *RouterSuite) TestCompetitionsAreListed() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/competitions", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "National Barista Championship")
}

func (s *RouterSuite) TestMetricsEndpoint() {
	s.do(httptest.NewRequest(http.MethodGet, "/api/competitions", nil))

	rec := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `coffeereg_http_request_duration_seconds_count{method="GET",route="/api/competitions",status="2xx"} 1`)
}

func (s *RouterSuite) TestStatusOverrideRequiresAdminToken() {
	body := `{"registrationId":"CFC2025000","paymentStatus":"success"}`

	req := httptest.NewRequest(http.MethodPatch, "/api/registration", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Equal(http.StatusUnauthorized, s.do(req).Code)

	req = httptest.NewRequest(http.MethodPatch, "/api/registration", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(admin.TokenHeader, "wrong")
	s.Equal(http.StatusUnauthorized, s.do(req).Code)

	req = httptest.NewRequest(http.MethodPatch, "/api/registration", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(admin.TokenHeader, s.token)
	rec := s.do(req)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Contains(rec.Body.String(), "not_found")
}

func (s *RouterSuite) TestRegistrationRejectsUnsupportedContentType() {
	req := httptest.NewRequest(http.MethodPost, "/api/registration", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "text/plain")

	rec := s.do(req)

	s.Equal(http.StatusUnsupportedMediaType, rec.Code)
}

func (s *RouterSuite) TestPaymentRoutesAreOptional() {
	req := httptest.NewRequest(http.MethodPost, "/api/payment/order", strings.NewReader(`{"amount":1}`))
	req.Header.Set("Content-Type", "application/json")

	s.Equal(http.StatusNotFound, s.do(req).Code)
}
