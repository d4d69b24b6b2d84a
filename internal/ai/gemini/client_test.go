package gemini

import (
	"testing"

	"intervie-backend/internal/ai"
)

func TestGenerateConfigFromCatalog(t *testing.T) {
	catalog := ai.DefaultCatalog()
	model := catalog.DefaultModel("gemini")
	cfg, ok := catalog.Model("gemini", model)
	if !ok {
		t.Fatalf("default model %q missing from catalog", model)
	}

	genCfg := generateConfig(cfg)
	if genCfg.Temperature == nil || *genCfg.Temperature != cfg.Temperature {
		t.Errorf("Temperature = %v, want %v", genCfg.Temperature, cfg.Temperature)
	}
	if genCfg.MaxOutputTokens == nil || *genCfg.MaxOutputTokens != int64(cfg.MaxTokens) {
		t.Errorf("MaxOutputTokens = %v, want %d", genCfg.MaxOutputTokens, cfg.MaxTokens)
	}
}
