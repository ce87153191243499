package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

// Logger is the interface for structured logging.
type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logging returns middleware that logs one line per request.
// Client-correctable failures (not found, invalid params) are logged at
// warn level, everything else that fails at error level.
func Logging(logger Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			start := time.Now()

			resp, err := next(ctx, req)

			fields := []Field{
				F("method", req.Method),
				F("duration", time.Since(start)),
			}
			if target := Target(req); target != "" {
				fields = append(fields, F("target", target))
			}
			if requestID := RequestIDFromContext(ctx); requestID != "" {
				fields = append(fields, F("request_id", requestID))
			}

			switch {
			case err == nil:
				logger.Info("request completed", fields...)
			case isClientError(err):
				logger.Warn("request rejected", append(fields, F("error", err.Error()))...)
			default:
				logger.Error("request failed", append(fields, F("error", err.Error()))...)
			}

			return resp, err
		}
	}
}

func isClientError(err error) bool {
	var mcpErr *protocol.Error
	if !errors.As(err, &mcpErr) {
		return false
	}
	switch mcpErr.Code {
	case protocol.CodeNotFound, protocol.CodeInvalidParams, protocol.CodeMethodNotFound,
		protocol.CodeInvalidRequest, protocol.CodeRateLimited:
		return true
	}
	return false
}

// NopLogger is a logger that discards all log entries.
type NopLogger struct{}

func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Warn(string, ...Field)  {}
