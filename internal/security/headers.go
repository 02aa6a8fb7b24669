package security

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// apiHeaders are set on every response. The API serves JSON only, so nothing
// may be framed, sniffed or cached.
var apiHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Cache-Control", "no-store"},
}

// Headers sets the API's security headers. HSTS is sent only when HSTS is
// positive and the request arrived over TLS, or over a proxy that reported
// https in X-Forwarded-Proto when TrustForwardedProto is set.
type Headers struct {
	Enable                bool
	HSTS                  time.Duration
	HSTSIncludeSubdomains bool
	TrustForwardedProto   bool
}

func (h Headers) Middleware(next http.Handler) http.Handler {
	if !h.Enable {
		return next
	}
	hsts := h.hstsValue()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		for _, kv := range apiHeaders {
			header.Set(kv[0], kv[1])
		}
		if hsts != "" && h.secure(r) {
			header.Set("Strict-Transport-Security", hsts)
		}
		next.ServeHTTP(w, r)
	})
}

func (h Headers) hstsValue() string {
	secs := int64(h.HSTS / time.Second)
	if secs <= 0 {
		return ""
	}
	value := "max-age=" + strconv.FormatInt(secs, 10)
	if h.HSTSIncludeSubdomains {
		value += "; includeSubDomains"
	}
	return value
}

func (h Headers) secure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return h.TrustForwardedProto && strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}
