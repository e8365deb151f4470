package httpserver

import (
	"net/http"
	"time"
)

// New builds the platform's HTTP server. Write timeout stays above the
// router's per-request timeout so the middleware answers first.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
