// Package logging provides structured logging for authcore.
//
// It wraps log/slog with configuration-driven level and format selection
// and stamps every record with the service name and version. Handlers are
// safe for concurrent use.
package logging
