package ai

import "testing"

func TestCatalogDefaults(t *testing.T) {
	c := DefaultCatalog()

	if got := c.DefaultModel("gemini"); got == "" {
		t.Fatal("gemini has no default model")
	}
	if got := c.DefaultModel("groq"); got == "" {
		t.Fatal("groq has no default model")
	}
	if got := c.DefaultModel("unknown"); got != "" {
		t.Fatalf("DefaultModel(unknown) = %q, want empty", got)
	}

	// Each default must be in its own allow-list.
	for _, provider := range []string{"gemini", "groq"} {
		if !c.ValidateModel(provider, c.DefaultModel(provider)) {
			t.Fatalf("default model for %s not in allow-list", provider)
		}
	}
}

func TestCatalogValidateModel(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		name     string
		provider string
		model    string
		want     bool
	}{
		{name: "known gemini", provider: "gemini", model: "gemini-1.5-pro", want: true},
		{name: "unknown gemini model", provider: "gemini", model: "gemini-9000", want: false},
		{name: "model from other provider", provider: "gemini", model: "llama3-70b-8192", want: false},
		{name: "unknown provider", provider: "mistral", model: "mistral-large", want: false},
		{name: "empty model", provider: "groq", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := c.ValidateModel(tt.provider, tt.model); got != tt.want {
				t.Fatalf("ValidateModel(%q, %q) = %v, want %v", tt.provider, tt.model, got, tt.want)
			}
		})
	}
}

func TestCatalogModelLookup(t *testing.T) {
	c := DefaultCatalog()

	cfg, ok := c.Model("gemini", c.DefaultModel("gemini"))
	if !ok {
		t.Fatal("default gemini model not found")
	}
	if cfg.Temperature != 0.7 {
		t.Fatalf("Temperature = %v, want 0.7", cfg.Temperature)
	}
	if cfg.MaxTokens <= 0 {
		t.Fatalf("MaxTokens = %d", cfg.MaxTokens)
	}

	if _, ok := c.Model("groq", "nope"); ok {
		t.Fatal("unknown model reported as found")
	}
}

func TestSupportedModels(t *testing.T) {
	c := DefaultCatalog()
	models := c.SupportedModels("gemini")
	if len(models) == 0 {
		t.Fatal("no gemini models listed")
	}
	for _, m := range models {
		if !c.ValidateModel("gemini", m) {
			t.Fatalf("listed model %q fails validation", m)
		}
	}
	if got := c.SupportedModels("unknown"); len(got) != 0 {
		t.Fatalf("SupportedModels(unknown) = %v, want empty", got)
	}
}
