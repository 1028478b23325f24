package middleware

import (
	"crypto/subtle"
	"net/http"
	"sync"

	"github.com/aicostguardian/guardian-backend-go/internal/handler/http/response"
	"golang.org/x/crypto/bcrypt"
)

// ServiceKeyHeader carries the shared key of upstream monitors
const ServiceKeyHeader = "X-Service-Key"

// ServiceKeyRequired guards the internal ingest endpoints. The configured
// value is a bcrypt hash; once a key verifies it is kept in memory so later
// requests skip the bcrypt cost.
func ServiceKeyRequired(keyHash string) func(http.Handler) http.Handler {
	var (
		mu       sync.RWMutex
		accepted []byte
	)

	verify := func(key string) bool {
		mu.RLock()
		known := accepted
		mu.RUnlock()
		if known != nil {
			return subtle.ConstantTimeCompare(known, []byte(key)) == 1
		}

		if bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)) != nil {
			return false
		}
		mu.Lock()
		accepted = []byte(key)
		mu.Unlock()
		return true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyHash == "" {
				response.Forbidden(w, "Ingest is disabled")
				return
			}

			key := r.Header.Get(ServiceKeyHeader)
			if key == "" || !verify(key) {
				response.Unauthorized(w, "Invalid service key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
