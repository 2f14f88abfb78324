// Package config loads gpt-bot configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Default values that are not expressed as struct tags
const (
	DefaultGitHubAPI    = "https://api.github.com/"
	DefaultOpenAIModel  = "gpt-4o"
	DefaultTokenCeiling = 128000
)

// Config holds application configuration from environment variables
type Config struct {
	Port           string        `env:"PORT" envDefault:"10080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5m"`

	WebhookSecret string `env:"GITHUB_WEBHOOK_SECRET"`

	GitHubAPI           string `env:"GITHUB_API" envDefault:"https://api.github.com/"`
	GitHubToken         string `env:"GITHUB_TOKEN"`
	GitHubAppID         int64  `env:"GITHUB_APP_ID"`
	GitHubAppPrivateKey string `env:"GITHUB_APP_PRIVATE_KEY"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o"`

	TokenCeiling        int    `env:"TOKEN_CEILING" envDefault:"128000"`
	OutputLanguage      string `env:"OUTPUT_LANGUAGE" envDefault:"Japanese"`
	SkipEditedRetrigger bool   `env:"SKIP_EDITED_RETRIGGER" envDefault:"true"`
	TriggersFile        string `env:"TRIGGERS_FILE"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	DatabaseURL       string        `env:"DATABASE_URL"`
	DBSecretName      string        `env:"DB_SECRET_NAME"`
	DeliveryRetention time.Duration `env:"DELIVERY_RETENTION" envDefault:"720h"`
}

// Load reads an optional .env file and then parses the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Parse()
}

// Parse parses the process environment without touching .env files
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// UseGitHubApp reports whether installation tokens should be used instead
// of a personal token. Both the app ID and the private key must be set.
func (c *Config) UseGitHubApp() bool {
	return c.GitHubAppID != 0 && strings.TrimSpace(c.GitHubAppPrivateKey) != ""
}

// GitHubBaseURL returns the GitHub API base URL without a trailing slash
func (c *Config) GitHubBaseURL() string {
	if c.GitHubAPI == "" {
		return strings.TrimRight(DefaultGitHubAPI, "/")
	}
	return strings.TrimRight(c.GitHubAPI, "/")
}

// DatabaseEnabled reports whether the delivery log should be used
func (c *Config) DatabaseEnabled() bool {
	return c.DatabaseURL != "" || c.DBSecretName != ""
}

// Validate checks the settings the webhook endpoint cannot run without
func (c *Config) Validate() error {
	if c.WebhookSecret == "" {
		return fmt.Errorf("GITHUB_WEBHOOK_SECRET is required")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if !c.UseGitHubApp() && c.GitHubToken == "" {
		return fmt.Errorf("either GITHUB_TOKEN or GITHUB_APP_ID and GITHUB_APP_PRIVATE_KEY are required")
	}
	if c.TokenCeiling <= 0 {
		return fmt.Errorf("TOKEN_CEILING must be positive, got %d", c.TokenCeiling)
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = DefaultOpenAIModel
	}
	return nil
}
