package database

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_URL(t *testing.T) {
	cfg := Config{
		Host:     "db.example.com",
		Port:     "5433",
		User:     "admin",
		Password: "p@ss/word!123",
		Database: "gptbot",
		SSLMode:  "disable",
	}

	u, err := url.Parse(cfg.URL())
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.example.com:5433", u.Host)
	assert.Equal(t, "/gptbot", u.Path)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))

	password, _ := u.User.Password()
	assert.Equal(t, "p@ss/word!123", password)
	assert.Equal(t, "admin", u.User.Username())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{Host: "h", Port: "5432", User: "u", Password: "p", Database: "d"}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing host", func(c *Config) { c.Host = "" }, "host"},
		{"missing port", func(c *Config) { c.Port = "" }, "port"},
		{"missing user", func(c *Config) { c.User = "" }, "user"},
		{"missing password", func(c *Config) { c.Password = "" }, "password"},
		{"missing database", func(c *Config) { c.Database = "" }, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "require", cfg.SSLMode)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
