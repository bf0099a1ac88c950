package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

// AdminMiddlewareSuite covers the guard on status override routes: a wrong
// token must never reach the handler.
type AdminMiddlewareSuite struct {
	suite.Suite
	logger *slog.Logger
	hash   string
}

func TestAdminMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AdminMiddlewareSuite))
}

func (s *AdminMiddlewareSuite) SetupSuite() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	hashed, err := bcrypt.GenerateFromPassword([]byte("barista-ops"), bcrypt.MinCost)
	s.Require().NoError(err)
	s.hash = string(hashed)
}

func (s *AdminMiddlewareSuite) serve(hash string, headers map[string]string) (*httptest.ResponseRecorder, bool, string) {
	called := false
	actor := ""
	handler := RequireAdminToken(hash, s.logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		actor = GetAdminActorID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPatch, "/api/registration", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, called, actor
}

func (s *AdminMiddlewareSuite) TestTokenValidation() {
	s.Run("matching token reaches handler with actor", func() {
		w, called, actor := s.serve(s.hash, map[string]string{TokenHeader: "barista-ops", ActorIDHeader: "ops-priya"})
		s.True(called)
		s.Equal("ops-priya", actor)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("actor defaults when header absent", func() {
		_, called, actor := s.serve(s.hash, map[string]string{TokenHeader: "barista-ops"})
		s.True(called)
		s.Equal("admin", actor)
	})

	s.Run("wrong token is rejected", func() {
		w, called, _ := s.serve(s.hash, map[string]string{TokenHeader: "latte"})
		s.False(called)
		s.Equal(http.StatusUnauthorized, w.Code)
		s.Contains(w.Body.String(), "unauthorized")
	})

	s.Run("missing token is rejected", func() {
		w, called, _ := s.serve(s.hash, nil)
		s.False(called)
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("unconfigured hash locks the route", func() {
		w, called, _ := s.serve("", map[string]string{TokenHeader: "barista-ops"})
		s.False(called)
		s.Equal(http.StatusUnauthorized, w.Code)
	})
}
