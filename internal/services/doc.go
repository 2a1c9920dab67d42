// Package services defines the capability port contracts the resolver
// depends on: web search, the three language-model call shapes, website
// fetching, and the optional paid place lookup.
//
// Every port call is cost-bearing and must be wrapped by the resilience
// layer at the call site. Implementations classify their failures with the
// resilience error types so the wrapper can tell a rate limit from a dead
// quota. Ports are stateless beyond instance-scoped HTTP clients, which
// keeps the resolver trivially testable with fakes.
package services
