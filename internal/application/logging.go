package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/appointment-manager/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// serviceLogger resolves the logger for one service call. A request scoped
// logger placed on the context by the transport layer takes precedence over
// the service's own logger, and both fall back to slog.Default. The service
// and operation names are attached so every line can be traced to its call
// site.
func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = defaultLogger(base)
	}

	pairs := make([]any, 0, 4+len(attrs))
	pairs = append(pairs, "service", serviceName)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	pairs = append(pairs, attrs...)
	return logger.With(pairs...)
}

var errorKinds = []struct {
	sentinel error
	kind     string
}{
	{ErrUnauthorized, "unauthorized"},
	{ErrNotFound, "not_found"},
	{ErrAlreadyExists, "already_exists"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrSessionExpired, "session_expired"},
	{ErrSessionRevoked, "session_revoked"},
}

// ErrorKind maps sentinel and validation errors to a stable label for log
// lines. Unknown errors report "unexpected".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	for _, entry := range errorKinds {
		if errors.Is(err, entry.sentinel) {
			return entry.kind
		}
	}
	return "unexpected"
}
