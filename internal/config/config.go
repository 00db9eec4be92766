// Package config builds the process configuration once at startup. Secrets
// come from the environment (a .env file is honored if present); everything
// tunable lives in a YAML file with defaults for anything omitted. The
// resulting Config is passed by value into the components that need it, so
// tests can substitute their own.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLM holds the recommendation-model settings.
type LLM struct {
	Model             string  `yaml:"model"`
	Temperature       float64 `yaml:"temperature"`
	BaseURL           string  `yaml:"base_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerMinute int     `yaml:"requests_per_minute"`
}

// Execution holds the trade-execution service settings.
type Execution struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Files holds the persisted document paths.
type Files struct {
	Positions string `yaml:"positions"`
	History   string `yaml:"history"`
}

// Logging holds the log file rotation settings.
type Logging struct {
	File       string `yaml:"file"`
	MaxSizeMB  int64  `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Config is the full static configuration for one process.
type Config struct {
	ListenAddr   string    `yaml:"listen_addr"`
	LLM          LLM       `yaml:"llm"`
	Execution    Execution `yaml:"execution"`
	Files        Files     `yaml:"files"`
	Logging      Logging   `yaml:"logging"`
	RiskStrategy string    `yaml:"risk_strategy"`

	// Secrets, environment only. Never read from YAML.
	APIKey           string `yaml:"-"`
	OpenAIAPIKey     string `yaml:"-"`
	MothershipAPIKey string `yaml:"-"`
}

// DefaultRiskStrategy is the operator-editable posture block spliced into the
// system instruction. Override it via risk_strategy in the YAML file.
const DefaultRiskStrategy = `Risk Strategy (editable):
- Default posture: Balanced (medium risk).
- If user later specifies "high risk": favor buying high-category stocks when momentum (recent market_history) is positive.
- If user later specifies "low risk": prioritize staying/holding; only buy low-category stocks if strong positive trend; avoid selling at small dips.
- You may assume exactly 3 stocks per category (high, medium, low) in Market_Summary.`

// Load reads the YAML file at path (skipped when path is empty), applies
// defaults, then pulls the required secrets from the environment. A missing
// required variable is a startup error, not a warning.
func Load(path string) (Config, error) {
	var c Config

	// Load .env variables into the process environment first so the
	// required-variable check below sees them. No .env file is fine; the
	// real environment may carry everything.
	_ = godotenv.Load()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("parse config: %w", err)
		}
	}

	applyDefaults(&c)

	c.APIKey = os.Getenv("API_KEY")
	c.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	c.MothershipAPIKey = os.Getenv("MOTHERSHIP_API_KEY")

	var missing []string
	for name, val := range map[string]string{
		"API_KEY":            c.APIKey,
		"OPENAI_API_KEY":     c.OpenAIAPIKey,
		"MOTHERSHIP_API_KEY": c.MothershipAPIKey,
	} {
		if val == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return c, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return c, nil
}

func applyDefaults(c *Config) {
	if c.ListenAddr == "" {
		c.ListenAddr = ":5000"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-5-nano"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 1
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 30
	}
	if c.LLM.RequestsPerMinute == 0 {
		c.LLM.RequestsPerMinute = 20
	}
	if c.Execution.BaseURL == "" {
		c.Execution.BaseURL = "https://mothership-crg7hzedd6ckfegv.eastus-01.azurewebsites.net"
	}
	if c.Execution.TimeoutSeconds == 0 {
		c.Execution.TimeoutSeconds = 15
	}
	if c.Files.Positions == "" {
		c.Files.Positions = "current_positions.txt"
	}
	if c.Files.History == "" {
		c.Files.History = "trading_log.txt"
	}
	if c.Logging.File == "" {
		c.Logging.File = "tick_server.log"
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 10
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 5
	}
	if c.RiskStrategy == "" {
		c.RiskStrategy = DefaultRiskStrategy
	}
}

// Mask hides a secret for logging, keeping only the last 4 characters.
func Mask(s string) string {
	if len(s) <= 4 {
		return "***"
	}
	return "***" + s[len(s)-4:]
}
