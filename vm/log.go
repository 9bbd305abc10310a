package vm

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the structured logger the command-line front ends use:
// text output to stderr, level driven by Config.LogLevel. It returns a new
// logger, separate from logrus's standard logger that Debugger writes its
// per-session lines through, so its level does not apply to those lines.
func NewLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.Out = os.Stderr
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
