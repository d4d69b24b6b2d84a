package ai

// ModelConfig describes one provider model.
type ModelConfig struct {
	Name              string
	MaxTokens         int
	Temperature       float64
	SupportsStreaming bool
}

// Catalog is the per-provider model allow-list with defaults. Session
// updates validate against it before persisting a model change.
type Catalog struct {
	defaults map[string]string
	models   map[string]map[string]ModelConfig
}

// DefaultCatalog returns the supported models per provider.
func DefaultCatalog() *Catalog {
	return &Catalog{
		defaults: map[string]string{
			"gemini": "gemini-2.0-flash-exp",
			"groq":   "openai/gpt-oss-120b",
		},
		models: map[string]map[string]ModelConfig{
			"gemini": {
				"gemini-2.0-flash-exp": {Name: "gemini-2.0-flash-exp", MaxTokens: 8192, Temperature: 0.7, SupportsStreaming: true},
				"gemini-1.5-pro":       {Name: "gemini-1.5-pro", MaxTokens: 32768, Temperature: 0.7, SupportsStreaming: true},
			},
			"groq": {
				"openai/gpt-oss-120b": {Name: "openai/gpt-oss-120b", MaxTokens: 4096, Temperature: 0.7},
				"llama3-70b-8192":     {Name: "llama3-70b-8192", MaxTokens: 8192, Temperature: 0.7},
			},
		},
	}
}

// DefaultModel returns the default model for a provider, or "" if unknown.
func (c *Catalog) DefaultModel(provider string) string {
	return c.defaults[provider]
}

// Model returns the configuration for a provider model.
func (c *Catalog) Model(provider, model string) (ModelConfig, bool) {
	cfg, ok := c.models[provider][model]
	return cfg, ok
}

// ValidateModel reports whether the model is allowed for the provider.
func (c *Catalog) ValidateModel(provider, model string) bool {
	models, ok := c.models[provider]
	if !ok {
		return false
	}
	_, ok = models[model]
	return ok
}

// SupportedModels lists the allowed model names for a provider.
func (c *Catalog) SupportedModels(provider string) []string {
	models := c.models[provider]
	out := make([]string, 0, len(models))
	for name := range models {
		out = append(out, name)
	}
	return out
}
