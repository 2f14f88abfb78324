package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("GITHUB_WEBHOOK_SECRET", "secret")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "10080", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.RequestTimeout)
	assert.Equal(t, DefaultTokenCeiling, cfg.TokenCeiling)
	assert.Equal(t, DefaultOpenAIModel, cfg.OpenAIModel)
	assert.Equal(t, "Japanese", cfg.OutputLanguage)
	assert.True(t, cfg.SkipEditedRetrigger)
	assert.Equal(t, 30*24*time.Hour, cfg.DeliveryRetention)
	assert.Equal(t, "secret", cfg.WebhookSecret)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("TOKEN_CEILING", "42")
	t.Setenv("SKIP_EDITED_RETRIGGER", "false")
	t.Setenv("GITHUB_APP_ID", "123")
	t.Setenv("REQUEST_TIMEOUT", "30s")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 42, cfg.TokenCeiling)
	assert.False(t, cfg.SkipEditedRetrigger)
	assert.Equal(t, int64(123), cfg.GitHubAppID)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestParse_InvalidInteger(t *testing.T) {
	t.Setenv("TOKEN_CEILING", "lots")

	_, err := Parse()
	assert.Error(t, err)
}

func TestConfig_UseGitHubApp(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"token only", Config{GitHubToken: "t"}, false},
		{"app id without key", Config{GitHubAppID: 1}, false},
		{"key without app id", Config{GitHubAppPrivateKey: "pem"}, false},
		{"app id and key", Config{GitHubAppID: 1, GitHubAppPrivateKey: "pem"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.UseGitHubApp())
		})
	}
}

func TestConfig_GitHubBaseURL(t *testing.T) {
	assert.Equal(t, "https://api.github.com", (&Config{}).GitHubBaseURL())
	assert.Equal(t, "https://ghe.example.com/api/v3", (&Config{GitHubAPI: "https://ghe.example.com/api/v3/"}).GitHubBaseURL())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			WebhookSecret: "s",
			OpenAIAPIKey:  "k",
			GitHubToken:   "t",
			TokenCeiling:  10,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.WebhookSecret = "" }, "GITHUB_WEBHOOK_SECRET"},
		{"missing openai key", func(c *Config) { c.OpenAIAPIKey = "" }, "OPENAI_API_KEY"},
		{"missing github credentials", func(c *Config) { c.GitHubToken = "" }, "GITHUB_TOKEN"},
		{"app credentials instead of token", func(c *Config) {
			c.GitHubToken = ""
			c.GitHubAppID = 7
			c.GitHubAppPrivateKey = "pem"
		}, ""},
		{"zero ceiling", func(c *Config) { c.TokenCeiling = 0 }, "TOKEN_CEILING"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_DatabaseEnabled(t *testing.T) {
	assert.False(t, (&Config{}).DatabaseEnabled())
	assert.True(t, (&Config{DatabaseURL: "postgres://x"}).DatabaseEnabled())
	assert.True(t, (&Config{DBSecretName: "secret"}).DatabaseEnabled())
}

func TestLoadTriggers_Defaults(t *testing.T) {
	triggers, err := LoadTriggers("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTriggers(), triggers)
}

func TestLoadTriggers_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triggers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mention: \"@bot\"\nsummary: summary\n"), 0o600))

	triggers, err := LoadTriggers(path)
	require.NoError(t, err)
	assert.Equal(t, "@bot", triggers.Mention)
	assert.Equal(t, "summary", triggers.Summary)
	assert.Equal(t, "/comment", triggers.Comment)
	assert.Equal(t, "/unittest", triggers.UnitTest)
}

func TestLoadTriggers_InvalidMention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triggers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mention: \"@my bot\"\n"), 0o600))

	_, err := LoadTriggers(path)
	assert.Error(t, err)
}

func TestLoadTriggers_MissingFile(t *testing.T) {
	_, err := LoadTriggers(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
