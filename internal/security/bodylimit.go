package security

import (
	"net/http"

	"github.com/noah-isme/cartd/internal/common"
)

// BodyLimit caps request payload size before the cart handlers read the
// body. Oversized requests are rejected with the API's JSON error envelope.
type BodyLimit struct {
	Max int64
}

// Middleware rejects declared-oversize requests outright and caps unknown
// lengths with http.MaxBytesReader so a handler read cannot exceed Max.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body exceeds limit", nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}
