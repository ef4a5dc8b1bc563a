package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"teambridge/internal/constants"
	"teambridge/internal/models"

	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingGameAPIURL = models.ConfigError{Message: "missing game API base URL"}
	ErrMissingQueueFile  = models.ConfigError{Message: "missing queue file path"}
)

// envOverrides is processed with the TEAMBRIDGE prefix after the config file
// is loaded, so that deployment secrets never need to live in the file.
type envOverrides struct {
	ListenAddr    string `envconfig:"LISTEN_ADDR"`
	ListenPort    int    `envconfig:"LISTEN_PORT"`
	AuthToken     string `envconfig:"AUTH_TOKEN"`
	GameAPIURL    string `envconfig:"GAME_API_URL"`
	GameAPIKey    string `envconfig:"GAME_API_KEY"`
	QueueFile     string `envconfig:"QUEUE_FILE"`
	HistoryDBPath string `envconfig:"HISTORY_DB_PATH"`
	LogLevel      string `envconfig:"LOG_LEVEL"`
}

// LoadConfig reads, validates and defaults the configuration file, then
// applies TEAMBRIDGE_* environment overrides on top.
func LoadConfig(path string) (*models.Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnvironmentOverrides(&config); err != nil {
		return nil, err
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.GameAPI.BaseURL == "" {
		return ErrMissingGameAPIURL
	}
	if c.Queue.FilePath == "" {
		return ErrMissingQueueFile
	}

	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = constants.DefaultListenAddr
	}
	if c.Server.ListenPort <= 0 {
		c.Server.ListenPort = constants.DefaultListenPort
	}

	if c.GameAPI.TimeoutSec <= 0 {
		c.GameAPI.TimeoutSec = constants.DefaultGameAPITimeoutSec
	}
	if c.GameAPI.RetryCount <= 0 {
		c.GameAPI.RetryCount = constants.DefaultGameAPIRetries
	}

	if c.Queue.SweepIntervalSec <= 0 {
		c.Queue.SweepIntervalSec = constants.DefaultSweepIntervalSec
	}
	if c.Queue.PendingIntervalSec <= 0 {
		c.Queue.PendingIntervalSec = constants.DefaultPendingIntervalSec
	}

	if c.Teams.AddCommand == "" {
		c.Teams.AddCommand = "teamadmin add %player_name% %team%"
	}
	if c.Teams.RemoveCommand == "" {
		c.Teams.RemoveCommand = "teamadmin remove %player_name% %team%"
	}

	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultBackoffInitialMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultBackoffMaxMs
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = constants.DefaultGameAPIRetries
	}

	// Both removal policies set is ambiguous; the stronger one wins.
	if c.Dispatch.KickAndUnwhitelistOnRemove && c.Dispatch.UnwhitelistOnRemove {
		c.Dispatch.UnwhitelistOnRemove = false
	}

	return nil
}

func applyEnvironmentOverrides(c *models.Config) error {
	var env envOverrides
	if err := envconfig.Process("TEAMBRIDGE", &env); err != nil {
		return fmt.Errorf("failed to process environment overrides: %w", err)
	}

	if env.ListenAddr != "" {
		c.Server.ListenAddr = env.ListenAddr
	}
	if env.ListenPort > 0 {
		c.Server.ListenPort = env.ListenPort
	}
	if env.AuthToken != "" {
		c.Server.AuthToken = env.AuthToken
	}
	if env.GameAPIURL != "" {
		c.GameAPI.BaseURL = env.GameAPIURL
	}
	if env.GameAPIKey != "" {
		c.GameAPI.APIKey = env.GameAPIKey
	}
	if env.QueueFile != "" {
		c.Queue.FilePath = env.QueueFile
	}
	if env.HistoryDBPath != "" {
		c.History.Path = env.HistoryDBPath
	}
	if env.LogLevel != "" {
		c.LogLevel = strings.ToLower(env.LogLevel)
	}

	return nil
}

// TeamForStreamer resolves the destination team for a streamer, trying an
// exact key first and then a case-insensitive scan. An empty return means no
// mapping exists.
func TeamForStreamer(c *models.Config, streamer string) string {
	if streamer == "" || len(c.Teams.StreamerTeams) == 0 {
		return ""
	}

	if team, ok := c.Teams.StreamerTeams[streamer]; ok && team != "" {
		return team
	}

	for key, team := range c.Teams.StreamerTeams {
		if strings.EqualFold(key, streamer) && team != "" {
			return team
		}
	}
	return ""
}
