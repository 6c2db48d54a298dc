package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearLLMEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SALIENCE_OBJECTIVE", "")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 0.7, cfg.Salience.MinFrustration)
	assert.Equal(t, 1.0, cfg.Salience.MaxFrustration)
	assert.Equal(t, "agentforge", cfg.Bootstrap.Package)
	assert.NotEmpty(t, cfg.Persona.Tasks)
}

func TestLoad(t *testing.T) {
	clearLLMEnv(t)

	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default().Persona.Objective, cfg.Persona.Objective)
	})

	t.Run("file values layer over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "salience.yaml")
		data := `
persona:
  objective: Ship the release
llm:
  provider: openai
  model: gpt-4o
bootstrap:
  extra_index_url: https://example.test/simple/
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "Ship the release", cfg.Persona.Objective)
		assert.Equal(t, "openai", cfg.LLM.Provider)
		assert.Equal(t, "gpt-4o", cfg.LLM.Model)
		assert.Equal(t, "https://example.test/simple/", cfg.Bootstrap.ExtraIndexURL)
		// untouched defaults survive
		assert.Equal(t, 0.1, cfg.Salience.FrustrationStep)
	})

	t.Run("unparseable file errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "salience.yaml")
		require.NoError(t, os.WriteFile(path, []byte("persona: ["), 0644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Run("GEMINI_API_KEY sets key and provider if empty", func(t *testing.T) {
		clearLLMEnv(t)
		t.Setenv("GEMINI_API_KEY", "g-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()
		assert.Equal(t, "g-key", cfg.LLM.APIKey)
		assert.Equal(t, "gemini", cfg.LLM.Provider)
	})

	t.Run("GEMINI_API_KEY does not override existing provider", func(t *testing.T) {
		clearLLMEnv(t)
		t.Setenv("GEMINI_API_KEY", "g-key")

		cfg := &Config{LLM: LLMConfig{Provider: "openai"}}
		cfg.applyEnvOverrides()
		assert.Equal(t, "openai", cfg.LLM.Provider)
		assert.Empty(t, cfg.LLM.APIKey, "a mismatched key must not be applied")
	})

	t.Run("configured provider keeps its own key when both are set", func(t *testing.T) {
		clearLLMEnv(t)
		t.Setenv("GEMINI_API_KEY", "g-key")
		t.Setenv("OPENAI_API_KEY", "o-key")

		cfg := &Config{LLM: LLMConfig{Provider: "gemini"}}
		cfg.applyEnvOverrides()
		assert.Equal(t, "gemini", cfg.LLM.Provider)
		assert.Equal(t, "g-key", cfg.LLM.APIKey)
	})

	t.Run("OPENAI_API_KEY takes precedence", func(t *testing.T) {
		clearLLMEnv(t)
		t.Setenv("GEMINI_API_KEY", "g-key")
		t.Setenv("OPENAI_API_KEY", "o-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()
		assert.Equal(t, "o-key", cfg.LLM.APIKey)
		assert.Equal(t, "openai", cfg.LLM.Provider)
	})

	t.Run("SALIENCE_OBJECTIVE overrides the persona objective", func(t *testing.T) {
		clearLLMEnv(t)
		t.Setenv("SALIENCE_OBJECTIVE", "Refactor the importer")

		cfg := Default()
		cfg.applyEnvOverrides()
		assert.Equal(t, "Refactor the importer", cfg.Persona.Objective)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config { return Default() }

	t.Run("unknown provider", func(t *testing.T) {
		cfg := base()
		cfg.LLM.Provider = "oracle"
		assert.Error(t, cfg.Validate())
	})

	t.Run("inverted frustration bounds", func(t *testing.T) {
		cfg := base()
		cfg.Salience.MinFrustration = 1.5
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive step", func(t *testing.T) {
		cfg := base()
		cfg.Salience.FrustrationStep = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad llm timeout", func(t *testing.T) {
		cfg := base()
		cfg.LLM.Timeout = "soon"
		assert.Error(t, cfg.Validate())
	})
}

func TestTimeouts(t *testing.T) {
	cfg := Default()

	cfg.LLM.Timeout = ""
	d, err := cfg.LLMTimeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, d)

	cfg.Bootstrap.StepTimeout = "90s"
	d, err = cfg.StepTimeout()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)
}
