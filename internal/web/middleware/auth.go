package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JonMunkholm/servicepulse/internal/config"
	"github.com/JonMunkholm/servicepulse/internal/logging"
)

// authFailure describes a rejected request.
type authFailure struct {
	status int
	reason string
	code   string
}

var (
	errMissingKey = authFailure{http.StatusUnauthorized, "missing API key", "AUTH_MISSING_KEY"}
	errInvalidKey = authFailure{http.StatusForbidden, "invalid API key", "AUTH_INVALID_KEY"}
)

// APIKeyAuth returns middleware that checks the X-API-Key header, or a
// Bearer token, against the configured keys. When RequireAPIKey is false all
// requests pass. With no keys configured every request is rejected.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			switch key := requestKey(r); {
			case key == "":
				reject(w, r, errMissingKey)
			case !isValidAPIKey(key, cfg.APIKeys):
				reject(w, r, errInvalidKey)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// requestKey reads X-API-Key, falling back to an Authorization Bearer token.
func requestKey(r *http.Request) string {
	if k := r.Header.Get("X-API-Key"); k != "" {
		return k
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// isValidAPIKey compares against every key in constant time, so timing does
// not reveal which key matched or how much of it.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, k := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return valid == 1
}

func reject(w http.ResponseWriter, r *http.Request, f authFailure) {
	logging.FromContext(r.Context()).Warn("auth: "+f.reason,
		"path", r.URL.Path,
		"method", r.Method,
		"remote_addr", r.RemoteAddr,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   f.reason,
		"message": f.reason,
		"action":  "Send a valid key in the X-API-Key header",
		"code":    f.code,
	})
}
