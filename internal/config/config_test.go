package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with disable SSL mode", "prod", "disable", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Env:        tt.env,
				DBSSLMode:  tt.sslMode,
				JWTSecret:  "secure-secret-at-least-32-chars-long",
				DBPassword: "secure-password",
				Port:       "8080",
				RedisURL:   "redis://localhost:6379",
			}

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecrets(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:        "production",
			Port:       "8080",
			JWTSecret:  "secure-secret-at-least-32-chars-long",
			DBPassword: "secure-password",
			DBSSLMode:  "require",
		}
	}

	c := base()
	c.JWTSecret = defaultJWTSecret
	assert.Error(t, c.Validate())

	c = base()
	c.JWTSecret = "short"
	assert.Error(t, c.Validate())

	c = base()
	c.DBPassword = "password"
	assert.Error(t, c.Validate())

	c = base()
	c.DBDriver = "sqlite"
	c.DBPassword = ""
	c.DBSSLMode = ""
	assert.NoError(t, c.Validate())

	c = base()
	c.DBDriver = "mysql"
	assert.Error(t, c.Validate())
}

func TestLoadConfig_Normalization(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("DB_DRIVER", " SQLite ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 24, c.JWTTTLHours)
	assert.Equal(t, 25, c.DBMaxOpenConns)
	assert.Equal(t, "http://localhost:8375", c.PublicBaseURL)
}

func TestLoadConfig_DevBootstrap(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "development")
	t.Setenv("DEV_BOOTSTRAP_ROOT", "true")
	t.Setenv("DEV_ROOT_PASSWORD", "Sup3rSecret")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, c.DevBootstrapRoot)
	assert.Equal(t, "usof_root", c.DevRootUsername)
	assert.Equal(t, "root@usof.local", c.DevRootEmail)
	assert.Equal(t, "Sup3rSecret", c.DevRootPassword)
	assert.False(t, c.DevRootForceCredentials)
	assert.True(t, c.SeedCategories)
}
