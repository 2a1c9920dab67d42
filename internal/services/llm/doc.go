// Package llm implements the language-model port against an
// OpenRouter-compatible chat-completions API.
//
// Each of the three call shapes (RemoveAggregator, Extract, VerifyWebsite)
// issues a single JSON-only completion request; the resilience layer at
// the call site owns retries. Responses are decoded defensively (code
// fences stripped, the first JSON object extracted) and then validated
// against a strict schema per call shape. A payload that fails decoding or
// validation is classified as malformed, which the resilience layer
// retries exactly once before surfacing a row-level failure.
package llm
