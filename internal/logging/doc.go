// Package logging constructs slog loggers and provides the attribute
// helpers used across the codebase.
//
// Loggers are built explicitly and injected per job; no package keeps a
// global logger, so two jobs configured differently never share output
// state. The console format colorizes levels only when stdout is a
// terminal.
package logging
