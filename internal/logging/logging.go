// Package logging builds the zerolog logger used across shelfdesk.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/blackwell-systems/shelfdesk/internal/config"
	"github.com/rs/zerolog"
)

// New returns a logger writing to w at the configured level. Format "json"
// emits one JSON object per line; anything else uses the console writer.
// A nil w means stderr.
func New(w io.Writer, cfg config.LoggingConfig) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	level := zerolog.WarnLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), err
		}
		level = l
	}

	out := w
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: true}
	}
	return zerolog.New(out).Level(level).With().
		Str("service", "shelfdesk").
		Timestamp().
		Logger(), nil
}
