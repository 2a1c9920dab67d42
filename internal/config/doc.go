// Package config loads and validates the TOML configuration for the
// batch engine: capability credentials, retry policy, pricing, and job
// defaults. Secrets fall back to environment variables so config files
// can be committed without keys.
package config
