// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
//   • ReadHeaderTimeout – abort slow-loris headers (5 s)
//   • ReadTimeout       – cap request body reads (30 s)
//   • WriteTimeout      – cap total response time (caller supplied)
//   • IdleTimeout       – close keep-alives on idle clients (60 s)
//
// The write limit is configurable because a course install or a gather
// run answers only after every remote call finishes.

package server

import (
	"net/http"
	"time"
)

// DefaultWriteTimeout applies when New is given zero.
const DefaultWriteTimeout = 15 * time.Second

// New constructs an *http.Server with sensible defaults.
func New(addr string, handler http.Handler, writeTimeout time.Duration) *http.Server {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
}
