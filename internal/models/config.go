package models

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	GameAPI  GameAPIConfig  `json:"game_api"`
	Queue    QueueConfig    `json:"queue"`
	Teams    TeamsConfig    `json:"teams"`
	Dispatch DispatchConfig `json:"dispatch"`
	History  HistoryConfig  `json:"history"`
	Retry    RetryConfig    `json:"retry"`
	Tracing  TracingConfig  `json:"tracing"`
	LogLevel string         `json:"log_level"`
}

// ServerConfig holds the webhook listener configuration. AuthToken is the
// shared secret the web platform sends with each action request; an empty
// value disables the check.
type ServerConfig struct {
	ListenAddr string `json:"listen_addr" envconfig:"LISTEN_ADDR"`
	ListenPort int    `json:"listen_port" envconfig:"LISTEN_PORT"`
	AuthToken  string `json:"auth_token" envconfig:"AUTH_TOKEN"`
}

// GameAPIConfig holds the connection settings for the game server's remote
// management API.
type GameAPIConfig struct {
	BaseURL    string `json:"base_url" envconfig:"GAME_API_URL"`
	APIKey     string `json:"api_key" envconfig:"GAME_API_KEY"`
	TimeoutSec int    `json:"timeout_sec"`
	RetryCount int    `json:"retry_count"`
}

// QueueConfig holds the durable offline queue configuration.
type QueueConfig struct {
	FilePath           string `json:"file_path" envconfig:"QUEUE_FILE"`
	SweepIntervalSec   int    `json:"sweep_interval_sec"`
	PendingIntervalSec int    `json:"pending_interval_sec"`
}

// TeamsConfig maps streamers to destination teams and controls how team
// membership is applied.
type TeamsConfig struct {
	StreamerTeams      map[string]string `json:"streamer_teams"`
	AddCommand         string            `json:"add_command"`
	RemoveCommand      string            `json:"remove_command"`
	DisableAPI         bool              `json:"disable_api"`
	AlwaysAssumeExists bool              `json:"always_assume_exists"`
}

// DispatchConfig holds the command templates and removal policies.
type DispatchConfig struct {
	Commands                   []string `json:"commands"`
	KickAndUnwhitelistOnRemove bool     `json:"kick_and_unwhitelist_on_remove"`
	UnwhitelistOnRemove        bool     `json:"unwhitelist_on_remove"`
	WhitelistOnlyMode          bool     `json:"whitelist_only_mode"`
}

// HistoryConfig holds the dispatch history store configuration.
type HistoryConfig struct {
	Path string `json:"path" envconfig:"HISTORY_DB_PATH"`
}

// RetryConfig holds retry related configurations
type RetryConfig struct {
	InitialBackoffMs int `json:"initialBackoffMs"`
	MaxBackoffMs     int `json:"maxBackoffMs"`
	MaxAttempts      int `json:"maxAttempts"`
}

// TracingConfig holds the OpenTelemetry exporter configuration.
type TracingConfig struct {
	Enabled        bool    `json:"enabled"`
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	UseStdout      bool    `json:"use_stdout"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
