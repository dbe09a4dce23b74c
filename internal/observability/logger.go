package observability

import "github.com/sirupsen/logrus"

// Logger is the narrow logging interface used across the service.  It
// wraps logrus so the rest of the code never depends on a concrete
// logging library.  Lock contention is steady-state traffic and is
// logged at debug; only defects (invalid transitions, storage failures)
// deserve the error level.
type Logger interface {
    Info(args ...interface{})
    Error(args ...interface{})
    Debug(args ...interface{})
    Warn(args ...interface{})
    WithField(key string, value interface{}) Logger
}

type logrusLogger struct {
    logger *logrus.Logger
    entry  *logrus.Entry
}

// NewLogger returns a JSON-formatted logrus logger.  The level defaults
// to info; pass debug=true to surface per-request contention logs.
func NewLogger(debug bool) Logger {
    log := logrus.New()
    log.SetFormatter(&logrus.JSONFormatter{})
    if debug {
        log.SetLevel(logrus.DebugLevel)
    }
    return &logrusLogger{logger: log, entry: logrus.NewEntry(log)}
}

func (l *logrusLogger) Info(args ...interface{})  { l.entry.Info(args...) }
func (l *logrusLogger) Error(args ...interface{}) { l.entry.Error(args...) }
func (l *logrusLogger) Debug(args ...interface{}) { l.entry.Debug(args...) }
func (l *logrusLogger) Warn(args ...interface{})  { l.entry.Warn(args...) }

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
    return &logrusLogger{logger: l.logger, entry: l.entry.WithField(key, value)}
}
