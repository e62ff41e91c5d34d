package middle

import (
	"net/http"
	"strings"

	"github.com/paybridge/paybridge/infra/response"
)

// SecurityHeadersMiddleware adds security headers to responses
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// RequestValidationMiddleware validates common request properties
func RequestValidationMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
				contentType := r.Header.Get("Content-Type")

				// Webhook endpoints receive raw provider payloads and are
				// validated by the pipeline instead
				isWebhookEndpoint := strings.Contains(r.URL.Path, "/webhooks/")

				if contentType != "" && !isWebhookEndpoint {
					if !strings.Contains(contentType, "application/json") {
						response.Error(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
						return
					}
				} else if contentType == "" && !isWebhookEndpoint {
					response.Error(w, http.StatusBadRequest, "Content-Type header is required")
					return
				}
			}

			// Max request size 10MB
			if r.ContentLength > 10*1024*1024 {
				response.Error(w, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
