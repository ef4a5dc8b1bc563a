package config

import (
	"os"
	"path/filepath"
	"testing"

	"teambridge/internal/constants"
	"teambridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"game_api": {"base_url": "http://localhost:8080"},
		"queue": {"file_path": "queued-team-changes.json"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultListenAddr, cfg.Server.ListenAddr)
	assert.Equal(t, constants.DefaultListenPort, cfg.Server.ListenPort)
	assert.Equal(t, constants.DefaultGameAPITimeoutSec, cfg.GameAPI.TimeoutSec)
	assert.Equal(t, constants.DefaultGameAPIRetries, cfg.GameAPI.RetryCount)
	assert.Equal(t, constants.DefaultSweepIntervalSec, cfg.Queue.SweepIntervalSec)
	assert.Equal(t, constants.DefaultPendingIntervalSec, cfg.Queue.PendingIntervalSec)
	assert.Equal(t, "teamadmin add %player_name% %team%", cfg.Teams.AddCommand)
	assert.Equal(t, "teamadmin remove %player_name% %team%", cfg.Teams.RemoveCommand)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "missing game API URL",
			content: `{"queue": {"file_path": "queue.json"}}`,
			wantErr: ErrMissingGameAPIURL,
		},
		{
			name:    "missing queue file",
			content: `{"game_api": {"base_url": "http://localhost:8080"}}`,
			wantErr: ErrMissingQueueFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := LoadConfig(path)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	path := writeConfig(t, `{not json`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("TEAMBRIDGE_AUTH_TOKEN", "env-secret")
	t.Setenv("TEAMBRIDGE_GAME_API_URL", "http://override:9090")
	t.Setenv("TEAMBRIDGE_LISTEN_PORT", "9999")
	t.Setenv("TEAMBRIDGE_LOG_LEVEL", "DEBUG")

	path := writeConfig(t, `{
		"server": {"auth_token": "file-secret"},
		"game_api": {"base_url": "http://localhost:8080"},
		"queue": {"file_path": "queue.json"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Server.AuthToken)
	assert.Equal(t, "http://override:9090", cfg.GameAPI.BaseURL)
	assert.Equal(t, 9999, cfg.Server.ListenPort)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigRemovalPolicyConflict(t *testing.T) {
	path := writeConfig(t, `{
		"game_api": {"base_url": "http://localhost:8080"},
		"queue": {"file_path": "queue.json"},
		"dispatch": {
			"kick_and_unwhitelist_on_remove": true,
			"unwhitelist_on_remove": true
		}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Dispatch.KickAndUnwhitelistOnRemove)
	assert.False(t, cfg.Dispatch.UnwhitelistOnRemove)
}

func TestTeamForStreamer(t *testing.T) {
	cfg := &models.Config{
		Teams: models.TeamsConfig{
			StreamerTeams: map[string]string{
				"Ninja":  "blue",
				"pokime": "red",
			},
		},
	}

	assert.Equal(t, "blue", TeamForStreamer(cfg, "Ninja"))
	assert.Equal(t, "blue", TeamForStreamer(cfg, "ninja"))
	assert.Equal(t, "red", TeamForStreamer(cfg, "Pokime"))
	assert.Equal(t, "", TeamForStreamer(cfg, "unknown"))
	assert.Equal(t, "", TeamForStreamer(cfg, ""))
}

func TestTeamForStreamerNoMappings(t *testing.T) {
	cfg := &models.Config{}
	assert.Equal(t, "", TeamForStreamer(cfg, "Ninja"))
}
