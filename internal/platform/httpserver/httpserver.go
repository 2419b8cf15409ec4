package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"kycdesk/internal/platform/config"
)

// writeGrace is added on top of the route timeout so a handler that hits its
// deadline can still write its error response.
const writeGrace = 5 * time.Second

// New returns a server whose write deadline follows the configured request
// timeout. Submit calls the face comparison provider inline, so that timeout
// bounds the slowest route.
func New(cfg config.Server, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + writeGrace,
		IdleTimeout:       2 * time.Minute,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}
