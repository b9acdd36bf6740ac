package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/http/httputil"
	"strings"

	log "github.com/sirupsen/logrus"
)

func LoggingMiddleware(prefix string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Tracef("[%s] %s %s", prefix, r.Method, r.URL.Path)
		log.Tracef("[%s]\n%s", prefix, dump(r))
		next.ServeHTTP(w, r)
	}
}

// AuthorizationMiddleware requires "Authorization: Bearer <token>". An empty token disables the check.
func AuthorizationMiddleware(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		if auth == "" {
			log.Warn("[api] no auth")
			WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		given, ok := parseAuth("Bearer", auth)
		if !ok || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			log.Warnf("[api] invalid token for %s %s", r.Method, r.URL.Path)
			WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// parseAuth returns the credentials of an authorization header of the given type.
// ("Bearer", "bearer abc") returns ("abc", true).
func parseAuth(authType string, auth string) (credentials string, ok bool) {
	prefix := fmt.Sprintf("%s ", authType)
	// Case insensitive prefix match. See Issue 22736.
	if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(auth[len(prefix):]), true
}

func dump(r *http.Request) string {
	x, err := httputil.DumpRequest(r, true)
	if err != nil {
		return ""
	}
	return string(x)
}
