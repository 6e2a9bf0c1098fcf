package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROCUREMENT_AUTH_JWT_SECRET", "secret")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8080", cfg.Server.Address)
	require.Equal(t, "allow", cfg.Validation.OnValidatorError)
	require.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, 720*time.Hour, cfg.Auth.VendorTokenTTL)
	require.Equal(t, 48*time.Hour, cfg.Reminders.Window)
	require.False(t, cfg.Email.SMTP.Enabled)
}

func TestLoadLegacyEnvNames(t *testing.T) {
	t.Setenv("PROCUREMENT_AUTH_JWT_SECRET", "secret")
	t.Setenv("POSTGRES_CONN", "postgres://u:p@db/procurement")
	t.Setenv("SERVER_ADDRESS", ":9090")
	t.Setenv("PROCUREMENT_VALIDATION_ON_VALIDATOR_ERROR", "reject")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "postgres://u:p@db/procurement", cfg.Database.DSN)
	require.Equal(t, ":9090", cfg.Server.Address)
	require.Equal(t, "reject", cfg.Validation.OnValidatorError)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Auth:       AuthConfig{JWTSecret: "s"},
		Validation: ValidationConfig{OnValidatorError: "maybe"},
	}
	require.ErrorContains(t, cfg.Validate(), "on_validator_error")

	cfg.Validation.OnValidatorError = "allow"
	require.NoError(t, cfg.Validate())

	cfg.Email.SMTP.Enabled = true
	require.ErrorContains(t, cfg.Validate(), "smtp.host")

	cfg.Email.SMTP.Host = "smtp.example.com"
	cfg.Auth.JWTSecret = " "
	require.ErrorContains(t, cfg.Validate(), "jwt_secret")
}
