package services

import (
	"context"
	"strings"

	"merchlens/internal/records"
)

// SearchResult is one entry returned by the search port, in ranking order.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Search issues web searches. Implementations are idempotent and
// side-effect free; an empty result slice with a nil error means the query
// matched nothing.
type Search interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// CleanedName is the payload of the aggregator-removal call.
type CleanedName struct {
	CleanedName string `json:"cleaned_name"`
	Reason      string `json:"reason"`
}

// Extraction is the payload of the extraction call. The model only
// proposes candidates and a status; accept/reject decisions stay in
// deterministic resolver code.
type Extraction struct {
	CleanedName       string   `json:"cleaned_name"`
	WebsiteCandidates []string `json:"website_candidates"`
	SocialCandidates  []string `json:"social_candidates"`
	BusinessStatus    string   `json:"business_status"`
	Summary           string   `json:"summary"`
}

// Closed reports whether the extraction declared the business permanently
// closed or historical.
func (e Extraction) Closed() bool {
	return e.BusinessStatus == records.StatusClosed
}

// Verification is the payload of the website-verification call.
type Verification struct {
	IsValid   bool   `json:"is_valid"`
	Reasoning string `json:"reasoning"`
}

// LanguageModel exposes the three call shapes the resolver needs.
type LanguageModel interface {
	RemoveAggregator(ctx context.Context, rawName string) (CleanedName, error)
	Extract(ctx context.Context, results []SearchResult, originalName, query string) (Extraction, error)
	VerifyWebsite(ctx context.Context, pageText, merchantName string) (Verification, error)
}

// Fetch retrieves the text content of a web page.
type Fetch interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Place is one result from the paid place-lookup service.
type Place struct {
	Name             string `json:"name"`
	Website          string `json:"website"`
	FormattedAddress string `json:"formatted_address"`
}

// PlaceLookup is the optional enhanced-mode port. An empty slice with a
// nil error means no place matched.
type PlaceLookup interface {
	FindPlace(ctx context.Context, query string) ([]Place, error)
}

// NormalizeBusinessStatus folds the model's free-form status text onto the
// fixed token set. Anything mentioning closure or historical operation
// maps to closed; affirmatively operational text maps to operational.
func NormalizeBusinessStatus(status string) string {
	lowered := strings.ToLower(strings.TrimSpace(status))
	switch {
	case lowered == "":
		return records.StatusUnknown
	case strings.Contains(lowered, "closed") || strings.Contains(lowered, "historical") || strings.Contains(lowered, "defunct"):
		return records.StatusClosed
	case strings.Contains(lowered, "operational") || strings.Contains(lowered, "open") || strings.Contains(lowered, "active"):
		return records.StatusOperational
	default:
		return records.StatusUnknown
	}
}
