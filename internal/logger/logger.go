// Package logger configures the process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var std *logrus.Logger

// Init builds the structured logger. format is "json" or "text"; an empty
// format picks text in development and JSON elsewhere.
func Init(level, format string, isDevelopment bool) *logrus.Logger {
	return initWithOutput(level, format, isDevelopment, os.Stdout)
}

func initWithOutput(level, format string, isDevelopment bool, out io.Writer) *logrus.Logger {
	log := logrus.New()

	if level == "" {
		if isDevelopment {
			level = "debug"
		} else {
			level = "info"
		}
	}

	if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", level).Warn("Invalid log level, using INFO")
	}

	useJSON := !isDevelopment
	switch strings.ToLower(format) {
	case "json":
		useJSON = true
	case "text":
		useJSON = false
	}

	if useJSON {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	log.SetOutput(out)
	std = log
	return log
}

// Get returns the global logger, initialising a JSON info logger on first use.
func Get() *logrus.Logger {
	if std == nil {
		return Init("info", "json", false)
	}
	return std
}

// WithComponent returns an entry tagged with the component name.
func WithComponent(name string) *logrus.Entry {
	return Get().WithField("component", name)
}

// Discard returns a logger that writes nothing. Used by tests and one-shot CLI commands.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
