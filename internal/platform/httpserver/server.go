// Package httpserver builds the coordinator's http.Server.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server for the coordinator API. Slow-header clients are cut
// off; per-request deadlines live in the router's timeout middleware.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
