package costs

import "testing"

func TestModelCostOverride(t *testing.T) {
	table := DefaultTable()
	table.ModelOverrides = map[string]float64{"big-model": 0.01}

	if got := table.ModelCost("big-model"); got != 0.01 {
		t.Fatalf("override not applied: %v", got)
	}
	if got := table.ModelCost("unknown-model"); got != DefaultModelCall {
		t.Fatalf("unknown model should use default: %v", got)
	}
	if got := table.ModelCost(""); got != DefaultModelCall {
		t.Fatalf("empty model should use default: %v", got)
	}
}

func TestEstimateJobEnhancedAddsPlaceLookup(t *testing.T) {
	table := DefaultTable()
	basic := table.EstimateJob(10, "basic", "")
	enhanced := table.EstimateJob(10, "enhanced", "")

	want := basic + 10*table.PlaceLookup
	if diff := enhanced - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("enhanced estimate %v, want %v", enhanced, want)
	}
}

func TestEstimateJobZeroRows(t *testing.T) {
	if got := DefaultTable().EstimateJob(0, "basic", ""); got != 0 {
		t.Fatalf("zero rows should cost nothing: %v", got)
	}
}

func TestWithinBudget(t *testing.T) {
	if !WithinBudget(10, 10, 3.0) {
		t.Fatal("1.0 per row should be within a 3.0 budget")
	}
	if WithinBudget(50, 10, 3.0) {
		t.Fatal("5.0 per row should exceed a 3.0 budget")
	}
	if !WithinBudget(0, 0, 3.0) {
		t.Fatal("empty job is trivially within budget")
	}
}
