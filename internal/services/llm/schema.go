package llm

import "github.com/santhosh-tekuri/jsonschema/v5"

// Strict schemas for the three call shapes. Validation runs after the
// defensive decode, so a structurally valid but contractually wrong
// payload (missing key, wrong type) is still classified malformed.

const cleanedNameSchema = `{
	"type": "object",
	"required": ["cleaned_name"],
	"properties": {
		"cleaned_name": {"type": "string"},
		"reason": {"type": "string"}
	}
}`

const extractionSchema = `{
	"type": "object",
	"required": ["cleaned_name", "website_candidates", "social_candidates", "business_status"],
	"properties": {
		"cleaned_name": {"type": "string"},
		"website_candidates": {"type": "array", "items": {"type": "string"}},
		"social_candidates": {"type": "array", "items": {"type": "string"}},
		"business_status": {"type": "string"},
		"summary": {"type": "string"}
	}
}`

const verificationSchema = `{
	"type": "object",
	"required": ["is_valid"],
	"properties": {
		"is_valid": {"type": "boolean"},
		"reasoning": {"type": "string"}
	}
}`

var (
	compiledCleanedName  = jsonschema.MustCompileString("cleaned_name.json", cleanedNameSchema)
	compiledExtraction   = jsonschema.MustCompileString("extraction.json", extractionSchema)
	compiledVerification = jsonschema.MustCompileString("verification.json", verificationSchema)
)

// validatePayload checks a decoded generic payload against a compiled
// schema.
func validatePayload(schema *jsonschema.Schema, payload any) error {
	return schema.Validate(payload)
}
