package gameserv

import (
	"context"
	"errors"
)

// ErrNotHandled is returned by the absent team capability; callers fall back
// to templated console commands.
var ErrNotHandled = errors.New("gameserv: capability not handled")

// ErrTeamNotFound is returned when the teams plugin does not know the team.
var ErrTeamNotFound = errors.New("gameserv: team not found")

// ErrPlayerNotFound is returned when a player name cannot be resolved.
var ErrPlayerNotFound = errors.New("gameserv: player not found")

// Client is the remote management surface of the game server.
type Client interface {
	// PlayerOnline reports whether the named player is currently connected.
	PlayerOnline(ctx context.Context, name string) (bool, error)
	// ResolvePlayer resolves a player name to the server's opaque identity.
	ResolvePlayer(ctx context.Context, name string) (*Player, error)
	// RunCommand executes a console command string on the server.
	RunCommand(ctx context.Context, command string) error
	// Broadcast sends a chat notice to all connected players.
	Broadcast(ctx context.Context, message string) error
	// Capabilities lists the optional plugins the server reports as active.
	Capabilities(ctx context.Context) (*Capabilities, error)
}

// TeamService is the optional native team-membership capability. It is probed
// once at startup/reload; when the teams plugin is absent every call returns
// ErrNotHandled.
type TeamService interface {
	TeamExists(ctx context.Context, team string) (bool, error)
	AddMember(ctx context.Context, team, player, playerID string) error
	RemoveMember(ctx context.Context, team, player, playerID string) error
}
