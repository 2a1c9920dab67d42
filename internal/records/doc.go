// Package records defines the data model shared across the batch engine:
// raw input rows, resolved identity records, job settings, and the
// column-mapping and output-projection contracts.
//
// RawRecord and ResolvedRecord are value types. A RawRecord is built once
// per sheet row and never mutated; a ResolvedRecord is produced once by the
// resolver and then only read. JobSettings is copied before it is handed to
// the worker goroutine so the caller can never race the job.
//
// The JSON field names on ResolvedRecord and JobSettings are a stable
// contract: they are what the checkpoint file stores, so renaming a tag
// breaks resume for in-flight jobs.
package records
