package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"linkmart/internal/config"
)

// Init configures the process-wide logrus logger.
func Init(cfg *config.LogConfig) {
	logrus.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
		logrus.WithField("level", cfg.Level).Warn("unknown log level, falling back to info")
	}
	logrus.SetLevel(level)
}

// Component returns an entry tagged with the emitting component.
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
