package config

import (
	"os"
	"strings"
)

func (c *Config) normalize() {
	c.normalizeSearch()
	c.normalizeLLM()
	c.normalizePlace()
	c.normalizeRetry()
	c.normalizeWorkflow()
	c.normalizeCosts()
	c.normalizeLogging()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeSearch() {
	c.Search.APIKey = strings.TrimSpace(c.Search.APIKey)
	if c.Search.APIKey == "" {
		c.Search.APIKey = strings.TrimSpace(os.Getenv("SEARCH_API_KEY"))
	}
	c.Search.EngineID = strings.TrimSpace(c.Search.EngineID)
	if c.Search.EngineID == "" {
		c.Search.EngineID = strings.TrimSpace(os.Getenv("SEARCH_ENGINE_ID"))
	}
	c.Search.BaseURL = strings.TrimSpace(c.Search.BaseURL)
	if c.Search.BaseURL == "" {
		c.Search.BaseURL = defaultSearchBaseURL
	}
	if c.Search.NumResults <= 0 {
		c.Search.NumResults = defaultSearchNumResults
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizePlace() {
	c.Place.APIKey = strings.TrimSpace(c.Place.APIKey)
	if c.Place.APIKey == "" {
		c.Place.APIKey = strings.TrimSpace(os.Getenv("PLACES_API_KEY"))
	}
	c.Place.BaseURL = strings.TrimSpace(c.Place.BaseURL)
	if c.Place.BaseURL == "" {
		c.Place.BaseURL = defaultPlaceBaseURL
	}
}

func (c *Config) normalizeRetry() {
	if c.Retry.MaxRetries < 0 {
		c.Retry.MaxRetries = 0
	}
	if c.Retry.InitialDelaySeconds <= 0 {
		c.Retry.InitialDelaySeconds = defaultRetryInitialDelay
	}
	if c.Retry.BackoffFactor < 1 {
		c.Retry.BackoffFactor = defaultRetryBackoffFactor
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.CheckpointInterval <= 0 {
		c.Workflow.CheckpointInterval = defaultCheckpointInterval
	}
}

func (c *Config) normalizeCosts() {
	defaults := Default().Costs
	if c.Costs.SearchQuery <= 0 {
		c.Costs.SearchQuery = defaults.SearchQuery
	}
	if c.Costs.PlaceLookup <= 0 {
		c.Costs.PlaceLookup = defaults.PlaceLookup
	}
	if c.Costs.ModelCall <= 0 {
		c.Costs.ModelCall = defaults.ModelCall
	}
	if c.Costs.BudgetPerRow <= 0 {
		c.Costs.BudgetPerRow = defaults.BudgetPerRow
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
