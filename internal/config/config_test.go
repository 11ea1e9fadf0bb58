package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "plexus", cfg.ServerName)
	assert.Equal(t, 30*time.Second, cfg.BidirDefaultTimeout)
	assert.Greater(t, cfg.SubscriptionWorkers, 0)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	os.Setenv("PLEXUS_SERVER_NAME", "custom-hub")
	os.Setenv("PLEXUS_LOG_LEVEL", "debug")
	defer os.Unsetenv("PLEXUS_SERVER_NAME")
	defer os.Unsetenv("PLEXUS_LOG_LEVEL")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "custom-hub", cfg.ServerName)
	assert.Equal(t, "debug", cfg.LogLevel)
}
