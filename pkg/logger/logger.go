package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a logrus logger at the given level. Unknown levels fall back
// to info.
func New(level string) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   isTerminal(),
	})
	logger.SetOutput(os.Stdout)

	return logger
}

// ForChat returns an entry tagged with the chat and Telegram user ids
func ForChat(logger *logrus.Logger, chatID, userID int64) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"user_id": userID,
	})
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
