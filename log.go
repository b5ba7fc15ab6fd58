package looksee

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// envLogLevel is read once so every Scanner created in this process
// shares the same default verbosity. Override per instance with
// WithLogger.
var envLogLevel = os.Getenv("LOOKSEE_LOG_LEVEL")

// Logger is the scanner's telemetry surface. Exception carries the
// structured data attached to contained failures.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Exception(msg string, fields map[string]any)
}

// NewLogrusLogger builds the default logrus-backed Logger writing to out.
// An empty level falls back to LOOKSEE_LOG_LEVEL, then to info.
func NewLogrusLogger(level string, out io.Writer) Logger {
	l := logrus.New()
	if level == "" {
		level = envLogLevel
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)
	l.SetOutput(out)
	return &logrusLogger{l: l}
}

func defaultLogger() Logger {
	return NewLogrusLogger("", os.Stderr)
}

type logrusLogger struct {
	l *logrus.Logger
}

func (x *logrusLogger) Debug(msg string) {
	x.l.Debug(msg)
}

func (x *logrusLogger) Info(msg string) {
	x.l.Info(msg)
}

func (x *logrusLogger) Exception(msg string, fields map[string]any) {
	x.l.WithFields(logrus.Fields(fields)).Error(msg)
}
