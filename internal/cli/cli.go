// Package cli holds the setup shared by the shimmer commands: logging and
// scene selection.
package cli

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/gonewx/shimmer/pkg/config"
	"github.com/gonewx/shimmer/pkg/embedded"
)

// NewLogger returns a console logger on stderr: debug level when verbose,
// warnings and above otherwise.
func NewLogger(verbose bool) zerolog.Logger {
	return newLogger(os.Stderr, verbose)
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// LoadScene loads the scene at path. An empty path selects the embedded
// default scene, or the built-in one when no embedded data was registered.
func LoadScene(path string) (*config.Scene, error) {
	if path != "" {
		return config.Load(path)
	}
	if embedded.IsInitialized() {
		return config.LoadEmbedded("default")
	}
	return config.Default(), nil
}
