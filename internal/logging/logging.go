// Package logging provides structured logging setup for biens.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Setup initializes the default slog logger.
// Dev mode uses colored human-readable text; prod uses JSON.
func Setup(devMode bool) {
	slog.SetDefault(slog.New(NewHandler(os.Stdout, devMode)))
}

// NewHandler returns the handler Setup installs, writing to w.
func NewHandler(w io.Writer, devMode bool) slog.Handler {
	if devMode {
		return tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.DateTime,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}
