package config

import (
	"time"

	"merchlens/internal/costs"
	"merchlens/internal/resilience"
	"merchlens/internal/resolver"
)

const (
	defaultSearchBaseURL      = "https://www.googleapis.com/customsearch/v1"
	defaultSearchNumResults   = 10
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-3-flash-preview"
	defaultLLMReferer         = "https://github.com/merchlens/merchlens"
	defaultLLMTitle           = "MerchLens Identity Resolver"
	defaultLLMTimeoutSeconds  = 60
	defaultPlaceBaseURL       = "https://maps.googleapis.com/maps/api/place/textsearch/json"
	defaultFetchTimeout       = 10
	defaultRetryMaxRetries    = 3
	defaultRetryInitialDelay  = 2
	defaultRetryBackoffFactor = 2.0
	defaultCheckpointInterval = 50
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultNotifyTimeout      = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Search: Search{
			BaseURL:    defaultSearchBaseURL,
			NumResults: defaultSearchNumResults,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Place: Place{
			BaseURL: defaultPlaceBaseURL,
		},
		Fetch: Fetch{
			TimeoutSeconds: defaultFetchTimeout,
		},
		Retry: Retry{
			MaxRetries:          defaultRetryMaxRetries,
			InitialDelaySeconds: defaultRetryInitialDelay,
			BackoffFactor:       defaultRetryBackoffFactor,
			Jitter:              true,
		},
		Resolver: Resolver{
			SocialPriority: append([]string(nil), resolver.DefaultSocialPriority...),
		},
		Workflow: Workflow{
			CheckpointInterval: defaultCheckpointInterval,
		},
		Costs: Costs{
			SearchQuery:  costs.DefaultSearchQuery,
			PlaceLookup:  costs.DefaultPlaceLookup,
			ModelCall:    costs.DefaultModelCall,
			BudgetPerRow: costs.DefaultBudgetPerRow,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
	}
}

// RetryPolicy converts the retry section into the resilience policy used
// to wrap every capability call.
func (c *Config) RetryPolicy() resilience.Policy {
	return resilience.Policy{
		MaxRetries:    c.Retry.MaxRetries,
		InitialDelay:  time.Duration(c.Retry.InitialDelaySeconds) * time.Second,
		BackoffFactor: c.Retry.BackoffFactor,
		Jitter:        c.Retry.Jitter,
	}
}

// CostTable converts the costs section into the pricing table used for
// accounting and estimates.
func (c *Config) CostTable() costs.Table {
	table := costs.Table{
		SearchQuery: c.Costs.SearchQuery,
		PlaceLookup: c.Costs.PlaceLookup,
		ModelCall:   c.Costs.ModelCall,
	}
	if len(c.Costs.ModelOverrides) > 0 {
		table.ModelOverrides = make(map[string]float64, len(c.Costs.ModelOverrides))
		for model, cost := range c.Costs.ModelOverrides {
			table.ModelOverrides[model] = cost
		}
	}
	return table
}
