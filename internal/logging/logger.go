// Package logging provides the logger handed to every POS component.
// Handlers, services and binaries tag their lines with "component" and log
// emails and user ids as key-value pairs; LOG_LEVEL and LOG_FORMAT pick the
// level and the JSON or text encoding.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "otp sent", "email", email)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}
