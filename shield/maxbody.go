package shield

import "net/http"

// MaxBody returns middleware that caps every request body at maxBytes, so
// a single /upload or /ingest call can't exhaust memory regardless of
// content type (multipart file, inline text, or base64 blob).
func MaxBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
