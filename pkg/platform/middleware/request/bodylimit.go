package request

import (
	"fmt"
	"net/http"
)

// BodyLimit caps request bodies at maxBytes. Requests that declare a larger
// Content-Length are refused with 413 before the handler runs; chunked
// bodies fail on read once the cap is crossed.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	tooLarge := fmt.Sprintf(`{"error":"payload_too_large","error_description":"request body exceeds %d bytes"}`, maxBytes)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_, _ = w.Write([]byte(tooLarge)) //nolint:errcheck // headers already sent
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
