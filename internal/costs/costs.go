// Package costs tracks the unit price of every paid capability call and
// estimates whole-job spend against the per-row budget ceiling.
package costs

import "strings"

// Default unit costs in USD. Search and place lookups bill per query; the
// model bills per call with a per-model override table.
const (
	DefaultSearchQuery      = 0.005
	DefaultPlaceLookup      = 0.017
	DefaultModelCall        = 0.002
	DefaultWebsiteFetch     = 0.0
	DefaultBudgetPerRow     = 3.0
	estimatedSearchesPerRow = 2
	estimatedModelCallsRow  = 4
)

// Table holds the unit cost of each call kind.
type Table struct {
	SearchQuery  float64
	PlaceLookup  float64
	ModelCall    float64
	WebsiteFetch float64
	// ModelOverrides maps a model identifier to its per-call cost.
	ModelOverrides map[string]float64
}

// DefaultTable returns the stock pricing.
func DefaultTable() Table {
	return Table{
		SearchQuery:  DefaultSearchQuery,
		PlaceLookup:  DefaultPlaceLookup,
		ModelCall:    DefaultModelCall,
		WebsiteFetch: DefaultWebsiteFetch,
	}
}

// ModelCost returns the per-call cost for the given model identifier,
// falling back to the generic model price.
func (t Table) ModelCost(model string) float64 {
	model = strings.TrimSpace(model)
	if model != "" {
		if cost, ok := t.ModelOverrides[model]; ok {
			return cost
		}
	}
	return t.ModelCall
}

// EstimateJob approximates the total cost of processing rows in the given
// mode. It deliberately overestimates: every row is assumed to need
// multiple searches and model calls, because a row whose first query
// misses keeps spending.
func (t Table) EstimateJob(rows int, mode, model string) float64 {
	if rows <= 0 {
		return 0
	}
	perRow := float64(estimatedSearchesPerRow)*t.SearchQuery +
		float64(estimatedModelCallsRow)*t.ModelCost(model)
	if strings.EqualFold(mode, "enhanced") {
		perRow += t.PlaceLookup
	}
	return float64(rows) * perRow
}

// WithinBudget reports whether an estimate stays under the per-row budget
// ceiling.
func WithinBudget(estimate float64, rows int, budgetPerRow float64) bool {
	if rows <= 0 {
		return true
	}
	if budgetPerRow <= 0 {
		budgetPerRow = DefaultBudgetPerRow
	}
	return estimate/float64(rows) <= budgetPerRow
}
