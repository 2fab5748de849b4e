package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:       "5000",
		Env:        "development",
		JWTSecret:  "secure-secret-at-least-32-chars-long",
		DBDriver:   "postgres",
		DBPassword: "secure-password",
		DBSSLMode:  "require",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"unknown schema mode", func(c *Config) { c.DBSchemaMode = "magic" }, true},
		{"production default secret", func(c *Config) { c.Env = "production"; c.JWTSecret = defaultJWTSecret }, true},
		{"production short secret", func(c *Config) { c.Env = "prod"; c.JWTSecret = "short" }, true},
		{"production weak db password", func(c *Config) { c.Env = "production"; c.DBPassword = "password" }, true},
		{"production sqlite ignores db password", func(c *Config) { c.Env = "production"; c.DBDriver = "sqlite"; c.DBPassword = "" }, false},
		{"production strong settings", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	c := &Config{}
	assert.Equal(t, time.Hour, c.TokenTTL())
	assert.Equal(t, 60*time.Second, c.AITimeout())
	assert.Equal(t, int64(20<<20), c.MaxUploadBytes())

	c.JWTTTLMinutes = 15
	c.AITimeoutSeconds = 5
	c.MediaMaxUploadMB = 2
	assert.Equal(t, 15*time.Minute, c.TokenTTL())
	assert.Equal(t, 5*time.Second, c.AITimeout())
	assert.Equal(t, int64(2<<20), c.MaxUploadBytes())
}

func TestConfig_RateLimitsDisabled(t *testing.T) {
	for env, want := range map[string]bool{"test": true, "stress": true, "development": false, "production": false, "": false} {
		assert.Equal(t, want, (&Config{Env: env}).RateLimitsDisabled(), env)
	}
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer os.Unsetenv("PORT")
	defer os.Unsetenv("UPLOAD_URL_PREFIX")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("PORT", "6000")
	os.Setenv("UPLOAD_URL_PREFIX", "media/")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "6000", c.Port)
	assert.Equal(t, "/media", c.UploadURLPrefix)
	assert.Equal(t, "gemini-2.5-flash", c.AITextModel)
	assert.Equal(t, "gemini-2.5-pro", c.AIAnalysisModel)
	assert.Equal(t, 20, c.MediaMaxUploadMB)
}
