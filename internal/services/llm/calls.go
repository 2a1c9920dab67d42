package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"merchlens/internal/resilience"
	"merchlens/internal/services"
)

var _ services.LanguageModel = (*Client)(nil)

// RemoveAggregator strips payment-aggregator noise from a raw merchant
// string.
func (c *Client) RemoveAggregator(ctx context.Context, rawName string) (services.CleanedName, error) {
	var out services.CleanedName
	rawName = strings.TrimSpace(rawName)
	if rawName == "" {
		return out, errors.New("llm clean: raw name required")
	}
	if err := c.callShape(ctx, "llm clean", removeAggregatorPrompt, fmt.Sprintf("%q", rawName), compiledCleanedName, &out); err != nil {
		return services.CleanedName{}, err
	}
	out.CleanedName = strings.TrimSpace(out.CleanedName)
	out.Reason = strings.TrimSpace(out.Reason)
	return out, nil
}

// Extract asks the model to propose candidates from search results. The
// final accept/reject decision stays with the resolver.
func (c *Client) Extract(ctx context.Context, results []services.SearchResult, originalName, query string) (services.Extraction, error) {
	var out services.Extraction
	if len(results) == 0 {
		return out, errors.New("llm extract: search results required")
	}

	encoded, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return out, fmt.Errorf("llm extract: encode results: %w", err)
	}
	userPrompt := fmt.Sprintf("Merchant: %q\nQuery used: %q\nSearch results:\n%s", originalName, query, encoded)

	if err := c.callShape(ctx, "llm extract", extractPrompt, userPrompt, compiledExtraction, &out); err != nil {
		return services.Extraction{}, err
	}
	out.CleanedName = strings.TrimSpace(out.CleanedName)
	out.BusinessStatus = services.NormalizeBusinessStatus(out.BusinessStatus)
	out.WebsiteCandidates = trimNonEmpty(out.WebsiteCandidates)
	out.SocialCandidates = trimNonEmpty(out.SocialCandidates)
	return out, nil
}

// VerifyWebsite asks whether fetched page text is a genuinely operational
// site for the merchant.
func (c *Client) VerifyWebsite(ctx context.Context, pageText, merchantName string) (services.Verification, error) {
	var out services.Verification
	pageText = strings.TrimSpace(pageText)
	if pageText == "" {
		// Nothing fetched means nothing to verify; not a model error.
		return services.Verification{IsValid: false, Reasoning: "no page content to verify"}, nil
	}
	userPrompt := fmt.Sprintf("Merchant: %q\nPage content:\n%s", merchantName, truncateForPrompt(pageText))
	if err := c.callShape(ctx, "llm verify", verifyWebsitePrompt, userPrompt, compiledVerification, &out); err != nil {
		return services.Verification{}, err
	}
	out.Reasoning = strings.TrimSpace(out.Reasoning)
	return out, nil
}

// callShape runs one completion and decodes + validates its payload into
// target. Schema violations are malformed-payload errors so the resilience
// layer grants them a single retry.
func (c *Client) callShape(ctx context.Context, op, systemPrompt, userPrompt string, schema *jsonschema.Schema, target any) error {
	content, err := c.completeJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		return err
	}

	var generic any
	if err := decodeModelJSON(content, &generic); err != nil {
		return &resilience.MalformedPayloadError{Op: op, Err: err}
	}
	if err := validatePayload(schema, generic); err != nil {
		return &resilience.MalformedPayloadError{Op: op, Err: err}
	}
	if err := decodeModelJSON(content, target); err != nil {
		return &resilience.MalformedPayloadError{Op: op, Err: err}
	}
	return nil
}

func trimNonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

const maxPromptPageBytes = 12_000

func truncateForPrompt(pageText string) string {
	if len(pageText) <= maxPromptPageBytes {
		return pageText
	}
	return pageText[:maxPromptPageBytes]
}
