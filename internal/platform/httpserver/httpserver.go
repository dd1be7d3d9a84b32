// Package httpserver builds the process HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

const (
	defaultWriteTimeout = 30 * time.Second
	// writeMargin is added on top of the slowest verification so the response
	// is never cut off while a sensor delay is still running.
	writeMargin = 10 * time.Second
)

type Option func(*http.Server)

// WithSlowestHandler sizes WriteTimeout for a handler that can hold the
// response open for d.
func WithSlowestHandler(d time.Duration) Option {
	return func(s *http.Server) {
		s.WriteTimeout = max(d+writeMargin, defaultWriteTimeout)
	}
}

// New builds an HTTP server with conservative read timeouts.
func New(addr string, handler http.Handler, opts ...Option) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       120 * time.Second,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}
