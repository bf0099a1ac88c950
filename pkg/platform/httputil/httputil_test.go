package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "coffeereg/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		status     int
		code       string
		retryAfter bool
	}{
		{"validation", dErrors.New(dErrors.CodeValidation, "email is invalid"), http.StatusBadRequest, "validation_error", false},
		{"conflict", dErrors.New(dErrors.CodeConflict, "already registered"), http.StatusConflict, "conflict", false},
		{"not found", dErrors.New(dErrors.CodeNotFound, "registration not found"), http.StatusNotFound, "not_found", false},
		{"bad signature", dErrors.New(dErrors.CodeInvalidSignature, "signature mismatch"), http.StatusBadRequest, "invalid_signature", false},
		{"gateway", dErrors.Wrap(errors.New("timeout"), dErrors.CodeGateway, "gateway unavailable"), http.StatusInternalServerError, "gateway_error", true},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "internal_error", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)

			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), `"error":"`+tc.code+`"`)
			assert.Equal(t, tc.retryAfter, w.Header().Get("Retry-After") != "")
		})
	}
}

func TestWriteErrorHidesInternalMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("mongo: connection refused on 10.0.0.3"))
	assert.NotContains(t, w.Body.String(), "10.0.0.3")
}

func TestStatusForUnknownCodeIsInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor(dErrors.Code("teapot")))
	assert.Equal(t, http.StatusConflict, StatusFor(dErrors.CodeConflict))
}

func TestWriteErrorKeepsDescription(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, dErrors.New(dErrors.CodeValidation, "terms and conditions must be accepted"))
	assert.JSONEq(t, `{"error":"validation_error","error_description":"terms and conditions must be accepted"}`, w.Body.String())
}
