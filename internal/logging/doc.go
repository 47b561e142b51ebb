// Package logging builds the application's slog loggers and provides
// typed attribute helpers so call sites stay terse.
package logging
