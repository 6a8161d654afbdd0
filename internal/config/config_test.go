package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, devSecret, cfg.SocketSecret)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SOCKET_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadProductionRejectsDefaultSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SOCKET_JWT_SECRET", devSecret)

	_, err := Load()
	require.Error(t, err, "the development fallback must not pass as a production secret")
}

func TestLoadProductionWithSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SOCKET_JWT_SECRET", "super-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "super-secret", cfg.SocketSecret)
}

func TestSplitOrigins(t *testing.T) {
	origins := splitOrigins("https://app.example.com, https://staging.example.com ,")
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, origins)
}
