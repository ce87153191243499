// Package logging adapts logrus to the middleware.Logger interface.
//
// Output always goes to a writer the caller picks, normally stderr: on the
// stdio transport stdout carries the protocol stream.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/felixgeelhaar/mcp-toolbox/middleware"
)

// Format selects the log line encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Logger is a middleware.Logger backed by a logrus entry.
type Logger struct {
	entry *logrus.Entry
}

var _ middleware.Logger = (*Logger)(nil)

// Option configures a Logger.
type Option func(*logrus.Logger)

// WithFormat sets the output format. Unknown formats fall back to text.
func WithFormat(f Format) Option {
	return func(l *logrus.Logger) {
		if f == FormatJSON {
			l.SetFormatter(&logrus.JSONFormatter{})
			return
		}
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	}
}

// New creates a logger at the given level writing to out.
// A nil out writes to stderr.
func New(level string, out io.Writer, opts ...Option) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(lvl)
	WithFormat(FormatText)(l)
	for _, opt := range opts {
		opt(l)
	}

	return &Logger{entry: logrus.NewEntry(l)}, nil
}

// ParseLevel maps debug, info, warn and error to logrus levels.
func ParseLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel, nil
	case "", "info":
		return logrus.InfoLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// With returns a logger that adds fields to every line.
func (l *Logger) With(fields ...middleware.Field) *Logger {
	return &Logger{entry: l.entry.WithFields(toFields(fields))}
}

func (l *Logger) Debug(msg string, fields ...middleware.Field) {
	l.entry.WithFields(toFields(fields)).Debug(msg)
}

func (l *Logger) Info(msg string, fields ...middleware.Field) {
	l.entry.WithFields(toFields(fields)).Info(msg)
}

func (l *Logger) Warn(msg string, fields ...middleware.Field) {
	l.entry.WithFields(toFields(fields)).Warn(msg)
}

func (l *Logger) Error(msg string, fields ...middleware.Field) {
	l.entry.WithFields(toFields(fields)).Error(msg)
}

func toFields(fields []middleware.Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			out[f.Key] = err.Error()
			continue
		}
		out[f.Key] = f.Value
	}
	return out
}
