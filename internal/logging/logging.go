// Package logging sets up the structured logger shared by every
// component, matching the style of the command-line tools this engine
// was adapted from: logrus with level controlled by a flag, and a
// timestamp-free text formatter when stderr isn't a terminal.
package logging

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// New returns a logger at the given level ("trace", "debug", "info",
// "warn", "error", "fatal", "panic"). An invalid level falls back to
// "info".
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.Out = os.Stderr
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		log.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// Sample returns a logger with the sample name and stage attached as
// fields, so concurrent workers' output stays attributable. A nil log
// (as tests pass when they don't care about log output) yields a
// discarding logger rather than panicking.
func Sample(log logrus.FieldLogger, sample, stage string) *logrus.Entry {
	if log == nil {
		discard := logrus.New()
		discard.Out = io.Discard
		log = discard
	}
	return log.WithFields(logrus.Fields{"sample": sample, "stage": stage})
}
