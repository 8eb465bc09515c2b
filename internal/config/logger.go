package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// InitLogger returns a text logger with full timestamps at the given level.
// An unknown level falls back to info.
func InitLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger
}
