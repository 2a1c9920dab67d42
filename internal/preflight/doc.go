// Package preflight provides readiness checks run before a job starts:
// input and output paths, capability credentials, LLM reachability, and
// the budget estimate. A failed check stops the job before any worker
// exists, so hours of paid calls are never wasted on a doomed run.
//
// The CLI "check" command reuses the individual check functions to
// display service health without starting a job.
package preflight
