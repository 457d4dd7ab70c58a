package handlers

import (
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// logOutput is where console logs go; tests replace it.
var logOutput io.Writer = os.Stderr

// newLogger returns a console logger at level writing to out, exposed
// through logr so the instance package stays independent of the logging
// backend.
func newLogger(level string, out io.Writer) logr.Logger {
	zl := zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.Kitchen,
	}).With().Timestamp().Logger()

	switch level {
	case "debug":
		zl = zl.Level(zerolog.DebugLevel)
	case "warn":
		zl = zl.Level(zerolog.WarnLevel)
	case "error":
		zl = zl.Level(zerolog.ErrorLevel)
	default:
		zl = zl.Level(zerolog.InfoLevel)
	}

	// logr V(1) maps to zerolog debug.
	return zerologr.New(&zl)
}

// isTerminal reports whether stdout is an interactive terminal; tests
// replace it.
var isTerminal = func() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func useTUI(opts Options) bool {
	return opts.Interactive && isTerminal()
}
