package server

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/service"
)

// callerIdentity reads the identity the authentication layer resolved
// upstream. The store itself never inspects credentials.
func callerIdentity(r *http.Request) service.Identity {
	return service.Identity{
		UserID: r.Header.Get("X-User-Id"),
		Role:   r.Header.Get("X-User-Role"),
	}
}

// requireIdentity rejects requests that reach a mutation without a resolved
// user.
func requireIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-User-Id") == "" {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "caller identity is missing")
			return
		}
		next(w, r)
	}
}

// requestTime logs the handling duration of every request.
func requestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.Infof("request time: %s %s: %v", r.Method, r.URL.Path, time.Since(start))
	})
}
