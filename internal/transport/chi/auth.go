package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyHeader is accepted as an alternative to the Bearer scheme.
const APIKeyHeader = "X-API-Key"

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// APIKeyMiddleware returns a middleware that validates API keys sent as
// "Authorization: Bearer <key>" or in the X-API-Key header.
// If apiKeys is empty, authentication is disabled (pass-through).
func APIKeyMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	var validKeys [][]byte
	for _, k := range apiKeys {
		if k != "" {
			validKeys = append(validKeys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, msg := requestKey(r)
			if msg != "" {
				writeFailure(w, http.StatusUnauthorized, msg)
				return
			}
			if !knownKey(validKeys, token) {
				writeFailure(w, http.StatusUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requestKey extracts the presented key, or a client-facing message when there is none.
func requestKey(r *http.Request) (string, string) {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key, ""
	}

	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", "missing authorization header"
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(auth, bearerPrefix) {
		return "", "authorization header must use Bearer scheme"
	}
	return auth[len(bearerPrefix):], ""
}

func knownKey(keys [][]byte, token string) bool {
	t := []byte(token)
	for _, k := range keys {
		if subtle.ConstantTimeCompare(k, t) == 1 {
			return true
		}
	}
	return false
}
