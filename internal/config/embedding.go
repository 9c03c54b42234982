package config

import "fmt"

// EmbeddingConfig configures the remote dense-embedding vectorizer.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`   // "jina" or "openai-compatible"
	Model      string `mapstructure:"model"`      // Model name/ID
	APIKey     string `mapstructure:"api_key"`    // API key (direct or via JINA_API_KEY / OPENAI_API_KEY)
	BaseURL    string `mapstructure:"base_url"`   // Base URL for OpenAI-compatible APIs
	Dimensions int    `mapstructure:"dimensions"` // Embedding vector dimensions
	BatchSize  int    `mapstructure:"batch_size"` // Texts per request
}

// Validate checks that the embedding configuration has all required fields.
// Returns an error describing the first validation failure, or nil if valid.
func (c *EmbeddingConfig) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("embedding: provider is required")
	}
	switch c.Provider {
	case "jina", "openai-compatible":
	default:
		return fmt.Errorf("embedding: unknown provider %q", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("embedding %q: model is required", c.Provider)
	}
	if c.Dimensions <= 0 {
		return fmt.Errorf("embedding %q: dimensions must be positive", c.Provider)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("embedding %q: batch_size must be positive", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("embedding %q: api_key is required (set directly or via JINA_API_KEY / OPENAI_API_KEY)", c.Provider)
	}
	return nil
}
