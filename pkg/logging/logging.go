package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the service logger: JSON in production, text otherwise.
// Unknown levels fall back to info.
func New(level string, prod bool) *logrus.Logger {
	return NewWithOutput(os.Stdout, level, prod)
}

func NewWithOutput(out io.Writer, level string, prod bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	if prod {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// Discard returns a logger that drops everything; used by tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
