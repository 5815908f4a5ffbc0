// Package logging configures structured logging for the process.
//
// Logging is built on log/slog. Setup builds a handler from configuration
// (level, format, destination), installs it as the slog default, and returns
// it; packages then derive component-scoped child loggers with
// slog.Default().With("component", ...).
//
// Formats:
//
//   - "json": machine-readable JSON records
//   - "text": logfmt-style key=value records
package logging
