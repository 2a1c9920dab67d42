// Package resilience wraps calls to external capability ports with
// retry-and-backoff semantics.
//
// Errors are classified at the port boundary: a RetriableError (rate limit,
// transient unavailability) earns a backoff sleep and another attempt up to
// the configured budget, a MalformedPayloadError earns exactly one retry,
// and everything else, including explicit quota exhaustion, propagates
// immediately. Retrying a permanently exhausted quota only wastes wall
// clock time and stalls the whole batch behind it.
package resilience
