package llm

import "testing"

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ASTRA_LLM_PROVIDER",
		"ASTRA_ANTHROPIC_API_KEY", "ASTRA_OPENAI_API_KEY", "ASTRA_GEMINI_API_KEY",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestConfigFromEnvOverrides(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("ASTRA_LLM_PROVIDER", "openai")
	t.Setenv("ASTRA_OPENAI_API_KEY", "sk-test")
	t.Setenv("ASTRA_OPENAI_BASE_URL", "http://localhost:11434/v1")

	cfg := ConfigFromEnv()
	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", cfg.Provider)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("OpenAI.APIKey = %q, want sk-test", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("OpenAI.BaseURL = %q", cfg.OpenAI.BaseURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestConfigFromEnvDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg := ConfigFromEnv()
	if cfg.Provider != "gemini" {
		t.Errorf("Provider = %q, want gemini", cfg.Provider)
	}
	if cfg.Gemini.Model != "gemini-flash" {
		t.Errorf("Gemini.Model = %q, want gemini-flash", cfg.Gemini.Model)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for missing key")
	}
}

func TestDiscoverConfigOrder(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		provider string
		found    bool
	}{
		{
			name:     "gemini wins over openai and anthropic",
			env:      map[string]string{"GEMINI_API_KEY": "g", "OPENAI_API_KEY": "o", "ANTHROPIC_API_KEY": "a"},
			provider: "gemini",
			found:    true,
		},
		{
			name:     "openai wins over anthropic",
			env:      map[string]string{"OPENAI_API_KEY": "o", "ANTHROPIC_API_KEY": "a"},
			provider: "openai",
			found:    true,
		},
		{
			name:     "anthropic alone",
			env:      map[string]string{"ANTHROPIC_API_KEY": "a"},
			provider: "anthropic",
			found:    true,
		},
		{
			name:  "no keys",
			env:   map[string]string{},
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearProviderEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, ok := DiscoverConfig()
			if ok != tt.found {
				t.Fatalf("found = %v, want %v", ok, tt.found)
			}
			if ok && cfg.Provider != tt.provider {
				t.Errorf("Provider = %q, want %q", cfg.Provider, tt.provider)
			}
		})
	}
}

func TestValidateUnknownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "oracle"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for unknown provider")
	}
}
