// Package job owns batch execution: one worker goroutine per job that
// feeds rows through the identity resolver, checkpoints periodically, and
// reconciles resolved records into the output spreadsheet. The caller and
// the worker communicate only through an immutable settings snapshot,
// cooperative pause/stop signals, and the status and completion callbacks.
package job
