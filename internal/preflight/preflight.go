package preflight

import (
	"context"
	"fmt"
	"strings"

	"merchlens/internal/config"
	"merchlens/internal/records"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Error reports the failed checks that prevented a job from starting.
type Error struct {
	Failures []Result
}

func (e *Error) Error() string {
	details := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		details = append(details, fmt.Sprintf("%s: %s", f.Name, f.Detail))
	}
	return "preflight failed: " + strings.Join(details, "; ")
}

// Err converts a result set into an error when any check failed, nil
// otherwise.
func Err(results []Result) error {
	var failures []Result
	for _, r := range results {
		if !r.Passed {
			failures = append(failures, r)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &Error{Failures: failures}
}

// RunAll executes every preflight check for a job. The place-lookup check
// only runs in enhanced mode; the LLM check issues a real health-check
// request.
func RunAll(ctx context.Context, cfg *config.Config, settings records.JobSettings) []Result {
	if cfg == nil {
		return []Result{{Name: "Configuration", Detail: "missing configuration"}}
	}

	results := []Result{
		CheckInputFile(settings.InputPath),
		CheckOutputDirectory(settings.OutputPath),
		CheckSearchCredentials(cfg.Search),
		CheckLLM(ctx, cfg.LLM),
	}
	if settings.Mode == records.ModeEnhanced {
		results = append(results, CheckPlaceCredentials(cfg.Place))
	}
	results = append(results, CheckBudget(cfg, settings))
	return results
}
