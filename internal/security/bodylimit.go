package security

import (
	"net/http"

	"github.com/noah-isme/ntak-rms/internal/common"
)

// BodyLimit caps request bodies at Max bytes. A declared Content-Length over
// the cap is refused up front; otherwise the body is wrapped so the decoder
// fails with *http.MaxBytesError once the cap is passed, which
// common.DecodeAndValidate reports as 413.
type BodyLimit struct {
	Max int64
}

func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	if b.Max <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > b.Max {
			common.WriteError(w, common.PayloadTooLarge(b.Max, nil))
			return
		}
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		}
		next.ServeHTTP(w, r)
	})
}
