package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogrusLogger implements the ports.Logger interface on top of logrus.
type LogrusLogger struct {
	logger *logrus.Logger
}

// New creates a logrus-backed logger. Unknown level strings fall back to info.
func New(level string) *LogrusLogger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	return &LogrusLogger{logger: l}
}

func (l *LogrusLogger) entry(fields ...map[string]interface{}) *logrus.Entry {
	if len(fields) > 0 && fields[0] != nil {
		return l.logger.WithFields(logrus.Fields(fields[0]))
	}
	return logrus.NewEntry(l.logger)
}

// Debug logs a message at Debug level.
func (l *LogrusLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.entry(fields...).Debug(msg)
}

// Info logs a message at Info level.
func (l *LogrusLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.entry(fields...).Info(msg)
}

// Warn logs a message at Warning level.
func (l *LogrusLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.entry(fields...).Warn(msg)
}

// Error logs an error message at Error level.
func (l *LogrusLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	l.entry(fields...).WithError(err).Error(msg)
}
