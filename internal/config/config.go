// Package config loads and validates Salience configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Salience configuration.
type Config struct {
	// Persona defines who the agent is and what it works toward.
	Persona PersonaConfig `yaml:"persona"`

	// LLM configures the completion provider.
	LLM LLMConfig `yaml:"llm"`

	// Storage configures the collection store.
	Storage StorageConfig `yaml:"storage"`

	// Salience configures the loop itself.
	Salience SalienceConfig `yaml:"salience"`

	// Bootstrap configures the environment setup runner.
	Bootstrap BootstrapConfig `yaml:"bootstrap"`

	// Logging configures the process logger.
	Logging LoggingConfig `yaml:"logging"`
}

// PersonaConfig is the agent's identity, objective and seed task list.
type PersonaConfig struct {
	Name      string   `yaml:"name"`
	Objective string   `yaml:"objective"`
	Tasks     []string `yaml:"tasks"`
}

// LLMConfig configures the completion provider.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // gemini, openai
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Timeout     string  `yaml:"timeout"`
	Temperature float64 `yaml:"temperature"`
}

// StorageConfig configures the SQLite collection store.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// SalienceConfig tunes the loop.
type SalienceConfig struct {
	MinFrustration  float64 `yaml:"min_frustration"`
	MaxFrustration  float64 `yaml:"max_frustration"`
	FrustrationStep float64 `yaml:"frustration_step"`
	MaxResults      int     `yaml:"max_results"`
	NoInput         bool    `yaml:"no_input"`
	ResultsLog      string  `yaml:"results_log"`
}

// BootstrapConfig configures the environment setup runner.
type BootstrapConfig struct {
	VenvPath      string `yaml:"venv_path"`
	Package       string `yaml:"package"`
	TestsDir      string `yaml:"tests_dir"`
	ExtraIndexURL string `yaml:"extra_index_url"`
	StepTimeout   string `yaml:"step_timeout"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns a configuration that works out of the box
// (aside from the API key, which must come from the environment).
func Default() *Config {
	return &Config{
		Persona: PersonaConfig{
			Name:      "Salience",
			Objective: "Become a machine learning expert",
			Tasks: []string{
				"Research the fundamentals of machine learning",
				"Summarize the most promising learning resources",
				"Draft a study plan from the gathered material",
			},
		},
		LLM: LLMConfig{
			Provider:    "gemini",
			Model:       "gemini-2.0-flash",
			Timeout:     "2m",
			Temperature: 0.7,
		},
		Storage: StorageConfig{
			Path: ".salience/salience.db",
		},
		Salience: SalienceConfig{
			MinFrustration:  0.7,
			MaxFrustration:  1.0,
			FrustrationStep: 0.1,
			MaxResults:      5,
			ResultsLog:      "results/task_results.txt",
		},
		Bootstrap: BootstrapConfig{
			VenvPath:    "venv",
			Package:     "agentforge",
			TestsDir:    "tests",
			StepTimeout: "5m",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path, layers it over defaults, applies
// environment overrides and validates the result. A missing file is not an
// error; defaults plus environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to env overrides
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides maps well-known environment variables onto the config.
// A key from the environment never flips a configured provider; it only
// applies when it matches the effective provider. With no provider
// configured, OPENAI_API_KEY wins over GEMINI_API_KEY.
func (c *Config) applyEnvOverrides() {
	geminiKey := os.Getenv("GEMINI_API_KEY")
	openaiKey := os.Getenv("OPENAI_API_KEY")

	if c.LLM.Provider == "" {
		switch {
		case openaiKey != "":
			c.LLM.Provider = "openai"
		case geminiKey != "":
			c.LLM.Provider = "gemini"
		}
	}
	switch {
	case c.LLM.Provider == "gemini" && geminiKey != "":
		c.LLM.APIKey = geminiKey
	case c.LLM.Provider == "openai" && openaiKey != "":
		c.LLM.APIKey = openaiKey
	}
	if obj := os.Getenv("SALIENCE_OBJECTIVE"); obj != "" {
		c.Persona.Objective = obj
	}
}

// Validate checks invariants that later layers assume.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unknown llm provider: %q", c.LLM.Provider)
	}
	if c.Salience.MinFrustration > c.Salience.MaxFrustration {
		return fmt.Errorf("min_frustration %.2f exceeds max_frustration %.2f",
			c.Salience.MinFrustration, c.Salience.MaxFrustration)
	}
	if c.Salience.FrustrationStep <= 0 {
		return fmt.Errorf("frustration_step must be positive, got %.2f", c.Salience.FrustrationStep)
	}
	if c.Salience.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive, got %d", c.Salience.MaxResults)
	}
	if _, err := c.LLMTimeout(); err != nil {
		return err
	}
	if _, err := c.StepTimeout(); err != nil {
		return err
	}
	return nil
}

// LLMTimeout parses the LLM request timeout.
func (c *Config) LLMTimeout() (time.Duration, error) {
	if c.LLM.Timeout == "" {
		return 2 * time.Minute, nil
	}
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid llm timeout %q: %w", c.LLM.Timeout, err)
	}
	return d, nil
}

// StepTimeout parses the per-step timeout for the setup runner.
func (c *Config) StepTimeout() (time.Duration, error) {
	if c.Bootstrap.StepTimeout == "" {
		return 5 * time.Minute, nil
	}
	d, err := time.ParseDuration(c.Bootstrap.StepTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid step timeout %q: %w", c.Bootstrap.StepTimeout, err)
	}
	return d, nil
}
