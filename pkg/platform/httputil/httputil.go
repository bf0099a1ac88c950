package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "coffeereg/pkg/domain-errors"
)

// retryAfterSeconds is advertised on gateway failures.
const retryAfterSeconds = "5"

type errorMapping struct {
	status int
	wire   string
}

// errorMappings is the single place domain codes become HTTP. Codes missing
// here are answered as internal errors.
var errorMappings = map[dErrors.Code]errorMapping{
	dErrors.CodeNotFound:         {http.StatusNotFound, "not_found"},
	dErrors.CodeBadRequest:       {http.StatusBadRequest, "bad_request"},
	dErrors.CodeValidation:       {http.StatusBadRequest, "validation_error"},
	dErrors.CodeInvalidSignature: {http.StatusBadRequest, "invalid_signature"},
	dErrors.CodeConflict:         {http.StatusConflict, "conflict"},
	dErrors.CodeGateway:          {http.StatusInternalServerError, "gateway_error"},
	dErrors.CodeInternal:         {http.StatusInternalServerError, "internal_error"},
}

func mappingFor(code dErrors.Code) errorMapping {
	if m, ok := errorMappings[code]; ok {
		return m
	}
	return errorMappings[dErrors.CodeInternal]
}

// StatusFor returns the HTTP status a domain code is answered with.
func StatusFor(code dErrors.Code) int {
	return mappingFor(code).status
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encode failure cannot change the status.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError answers err as {"error": ..., "error_description": ...}. Errors
// without a domain code become a bare internal_error so driver messages never
// reach clients.
func WriteError(w http.ResponseWriter, err error) {
	m := mappingFor(dErrors.CodeOf(err))
	body := map[string]string{"error": m.wire}

	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		body["error_description"] = domainErr.Message
	}
	if dErrors.IsRetryable(err) {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	WriteJSON(w, m.status, body)
}
