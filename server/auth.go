package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"room-availability/config"

	"github.com/sirupsen/logrus"
)

// metricsAuth guards the metrics handler with basic or bearer credentials.
type metricsAuth struct {
	cfg    config.MetricsAuth
	logger logrus.FieldLogger
}

func (a metricsAuth) wrap(next http.Handler) http.Handler {
	if a.cfg.Type == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		switch a.cfg.Type {
		case config.MetricsAuthBasic:
			ok = a.checkBasic(r)
		case config.MetricsAuthBearer:
			ok = a.checkBearer(r)
		default:
			a.logger.WithField("type", a.cfg.Type).Error("Invalid metrics auth type")
			http.Error(w, "Invalid authentication configuration", http.StatusUnauthorized)
			return
		}

		if !ok {
			a.logger.WithFields(logrus.Fields{
				"path":   r.URL.Path,
				"remote": r.RemoteAddr,
			}).Debug("Metrics authentication failed")
			a.challenge(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a metricsAuth) checkBasic(r *http.Request) bool {
	username, password, ok := r.BasicAuth()
	if !ok {
		return false
	}
	return equal(username, a.cfg.Username) && equal(password, a.cfg.Password)
}

func (a metricsAuth) checkBearer(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return equal(token, a.cfg.Token)
}

func (a metricsAuth) challenge(w http.ResponseWriter) {
	scheme := "Basic"
	if a.cfg.Type == config.MetricsAuthBearer {
		scheme = "Bearer"
	}
	w.Header().Set("WWW-Authenticate", scheme+` realm="Metrics"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

func equal(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
