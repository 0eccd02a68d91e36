// Package llm provides the language model client used by the document
// writer. Model selection goes through tiers so callers ask for a
// capability level rather than a concrete model name.
package llm

// ModelTier represents the capability level of a model.
type ModelTier string

const (
	// TierLite is for cheap structured tasks such as classification.
	TierLite ModelTier = "lite"
	// TierStandard is for general document drafting.
	TierStandard ModelTier = "standard"
	// TierAdvanced is for the heaviest rewriting work.
	TierAdvanced ModelTier = "advanced"
)

// Config maps tiers to concrete Gemini model names.
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the tier mapping used in production.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// GetModel returns the model name for a tier, falling back through
// standard and lite when the tier is not configured.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}
