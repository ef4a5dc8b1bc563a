package gameserv

import "time"

// ClientConfig holds the connection settings for the game server's remote
// management API.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
}

// Player is the server's view of a (possibly offline) player.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Online bool   `json:"online"`
}

// Team is the server's view of a team as reported by the teams plugin.
type Team struct {
	Name    string   `json:"name"`
	Members []string `json:"members,omitempty"`
}

// Capabilities lists the optional integrations the server reports as active.
type Capabilities struct {
	Plugins []string `json:"plugins"`
}

// PluginTeams is the plugin name the capability probe looks for.
const PluginTeams = "teams"

type commandRequest struct {
	Command string `json:"command"`
}

type broadcastRequest struct {
	Message string `json:"message"`
}

type memberRequest struct {
	Player   string `json:"player"`
	PlayerID string `json:"playerId,omitempty"`
}

type apiError struct {
	Error string `json:"error"`
}
