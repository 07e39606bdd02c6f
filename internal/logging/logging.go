package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New creates the service logger. Level falls back to info when the
// configured value does not parse.
func New(level string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "adgate-api").
		Logger()

	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}

	return logger.Level(parsed)
}
