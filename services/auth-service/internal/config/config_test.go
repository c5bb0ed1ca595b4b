package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSecret = "0123456789abcdef0123456789abcdef"

func TestNewAuthServiceConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", validSecret)

	cfg, err := NewAuthServiceConfig()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, time.Hour, cfg.Token.TTL)
	assert.Equal(t, "vivah-auth", cfg.Token.Issuer)
	assert.Equal(t, "vivah-booking", cfg.Token.Audience)
	assert.Equal(t, 15*time.Minute, cfg.SessionSweepInterval)
	assert.Equal(t, 5, cfg.RateLimit.AuthMax)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.AuthWindow)
	assert.Equal(t, 60, cfg.RateLimit.APIMax)
	assert.Equal(t, time.Minute, cfg.RateLimit.APIWindow)
	assert.Equal(t, StoreDriverFile, cfg.Store.Driver)
	assert.Equal(t, "./data", cfg.Store.DataDir)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173", "http://127.0.0.1:5173"}, cfg.CORSOrigins)
	assert.True(t, cfg.IsDevelopment())
}

func TestNewAuthServiceConfig_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := NewAuthServiceConfig()
	require.Error(t, err)
}

func TestNewAuthServiceConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", validSecret)
	t.Setenv("APP_ENV", "production")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("CORS_ORIGINS", "https://vivah.example,https://admin.vivah.example")
	t.Setenv("AUTH_RATE_LIMIT_MAX", "3")

	cfg, err := NewAuthServiceConfig()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Token.TTL)
	assert.Equal(t, []string{"https://vivah.example", "https://admin.vivah.example"}, cfg.CORSOrigins)
	assert.Equal(t, 3, cfg.RateLimit.AuthMax)
	assert.False(t, cfg.IsDevelopment())
}

func validConfig() AuthServiceConfig {
	return AuthServiceConfig{
		Environment: EnvDevelopment,
		Port:        5000,
		Token:       TokenConfig{Secret: validSecret, Issuer: "vivah-auth", Audience: "vivah-booking", TTL: time.Hour},
		RateLimit:   RateLimitConfig{AuthMax: 5, AuthWindow: 15 * time.Minute, APIMax: 60, APIWindow: time.Minute},
		Store:       StoreConfig{Driver: StoreDriverFile, DataDir: "./data"},
		Payment:     PaymentConfig{Delay: time.Second},

		SessionSweepInterval: 15 * time.Minute,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AuthServiceConfig)
		wantErr string
	}{
		{"valid", func(*AuthServiceConfig) {}, ""},
		{"short secret", func(c *AuthServiceConfig) { c.Token.Secret = "short" }, "at least 32 characters"},
		{
			"default secret in production",
			func(c *AuthServiceConfig) {
				c.Environment = EnvProduction
				c.Token.Secret = "change-me-to-a-long-random-secret-value"
			},
			"default value in production",
		},
		{"unknown environment", func(c *AuthServiceConfig) { c.Environment = "qa" }, "APP_ENV"},
		{"zero ttl", func(c *AuthServiceConfig) { c.Token.TTL = 0 }, "TOKEN_TTL"},
		{"empty audience", func(c *AuthServiceConfig) { c.Token.Audience = "" }, "JWT_AUDIENCE"},
		{"zero sweep interval", func(c *AuthServiceConfig) { c.SessionSweepInterval = 0 }, "SESSION_SWEEP_INTERVAL"},
		{"negative sweep interval", func(c *AuthServiceConfig) { c.SessionSweepInterval = -time.Second }, "SESSION_SWEEP_INTERVAL"},
		{"negative payment delay", func(c *AuthServiceConfig) { c.Payment.Delay = -time.Second }, "PAYMENT_DELAY"},
		{"zero payment delay", func(c *AuthServiceConfig) { c.Payment.Delay = 0 }, ""},
		{"zero auth limit", func(c *AuthServiceConfig) { c.RateLimit.AuthMax = 0 }, "AUTH_RATE_LIMIT_MAX"},
		{"mongo without uri", func(c *AuthServiceConfig) { c.Store.Driver = StoreDriverMongo }, "MONGO_URI"},
		{"unknown driver", func(c *AuthServiceConfig) { c.Store.Driver = "redis" }, "STORE_DRIVER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
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

func TestValidate_DefaultSecretAllowedOutsideProduction(t *testing.T) {
	cfg := validConfig()
	cfg.Token.Secret = "change-me-to-a-long-random-secret-value"

	assert.NoError(t, cfg.Validate())
}
