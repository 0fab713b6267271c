package httpserver

import (
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// NewRouter mounts the public API. Only GET /users sits behind the gate.
func NewRouter(h *Handlers, gate Gatekeeper, m *metrics.Metrics, registry *prometheus.Registry) *mux.Router {
	r := mux.NewRouter()
	r.Use(recoverMiddleware(h.logger), requestIDMiddleware, loggingMiddleware(h.logger), metrics.HTTPMiddleware(m))

	r.HandleFunc("/ping", h.ping).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler(registry)).Methods(http.MethodGet)

	a := r.PathPrefix("/auth").Subrouter()
	a.HandleFunc("/register", h.register).Methods(http.MethodPost)
	a.HandleFunc("/verify-email", h.verifyEmail).Methods(http.MethodPost)
	a.HandleFunc("/login", h.login).Methods(http.MethodPost)
	a.HandleFunc("/refresh", h.refresh).Methods(http.MethodPost)
	a.HandleFunc("/logout", h.logout).Methods(http.MethodPost)

	protected := r.NewRoute().Subrouter()
	protected.Use(AuthMiddleware(gate, h.logger, m))
	protected.HandleFunc("/users", h.listUsers).Methods(http.MethodGet)

	return r
}
