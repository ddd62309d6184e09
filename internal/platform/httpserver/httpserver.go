package httpserver

import (
	"net/http"
	"time"
)

// New builds the console's HTTP server. The write timeout leaves room for a
// slow backend call behind a forwarded request.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
