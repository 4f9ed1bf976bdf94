// Package logging constructs the application logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Fields represents structured logging fields.
type Fields = logrus.Fields

// NewLogger creates a configured logger instance. LOG_LEVEL selects the
// level (debug, info, warn, error; default info) and LOG_FORMAT=json
// switches to JSON output for scheduler-captured logs.
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(levelFromEnv())

	if os.Getenv("LOG_FORMAT") == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func levelFromEnv() logrus.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
