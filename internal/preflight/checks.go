package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"merchlens/internal/config"
	"merchlens/internal/costs"
	"merchlens/internal/records"
	"merchlens/internal/services/llm"
)

// CheckInputFile verifies that the input spreadsheet exists and is
// readable.
func CheckInputFile(path string) Result {
	const name = "Input file"
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "no input file configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckOutputDirectory verifies that the output file's directory exists
// and is writable. The checkpoint lives next to the input, so writability
// there matters too, but the input check already proves that directory
// exists.
func CheckOutputDirectory(outputPath string) Result {
	const name = "Output directory"
	if strings.TrimSpace(outputPath) == "" {
		return Result{Name: name, Detail: "no output file configured"}
	}
	dir := filepath.Dir(outputPath)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", dir)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", dir, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", dir)}
	}
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", dir, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (write ok)", dir)}
}

// CheckSearchCredentials verifies the search key and engine ID are
// present.
func CheckSearchCredentials(cfg config.Search) Result {
	const name = "Search credentials"
	switch {
	case strings.TrimSpace(cfg.APIKey) == "":
		return Result{Name: name, Detail: "API key missing (set search.api_key or SEARCH_API_KEY)"}
	case strings.TrimSpace(cfg.EngineID) == "":
		return Result{Name: name, Detail: "engine ID missing (set search.engine_id or SEARCH_ENGINE_ID)"}
	}
	return Result{Name: name, Passed: true, Detail: "present"}
}

// CheckPlaceCredentials verifies the place-lookup key needed by enhanced
// mode.
func CheckPlaceCredentials(cfg config.Place) Result {
	const name = "Place lookup credentials"
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing (set place.api_key or PLACES_API_KEY)"}
	}
	return Result{Name: name, Passed: true, Detail: "present"}
}

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt.
func CheckLLM(ctx context.Context, cfg config.LLM) Result {
	const name = "Language model"
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing (set llm.api_key or OPENROUTER_API_KEY)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		Referer:        cfg.Referer,
		Title:          cfg.Title,
		TimeoutSeconds: cfg.TimeoutSeconds,
	})
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckBudget estimates the job cost and fails when the per-row estimate
// exceeds the configured ceiling.
func CheckBudget(cfg *config.Config, settings records.JobSettings) Result {
	const name = "Budget"
	rows := settings.EndRow - settings.StartRow + 1
	if rows <= 0 {
		return Result{Name: name, Passed: true, Detail: "no rows in range"}
	}
	budget := settings.BudgetPerRow
	if budget <= 0 {
		budget = cfg.Costs.BudgetPerRow
	}
	estimate := cfg.CostTable().EstimateJob(rows, settings.Mode, settings.ModelName)
	if !costs.WithinBudget(estimate, rows, budget) {
		return Result{Name: name, Detail: fmt.Sprintf(
			"estimated $%.4f/row exceeds budget $%.4f/row ($%.2f total for %d rows)",
			estimate/float64(rows), budget, estimate, rows)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf(
		"estimated $%.2f for %d rows (budget $%.4f/row)", estimate, rows, budget)}
}

// summarizeLLMError produces a readable summary for LLM health check
// failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
