package gameserv

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
)

// teamClient is the live TeamService backed by the teams plugin endpoints.
type teamClient struct {
	*httpClient
}

// NewTeamService creates the live team capability client.
func NewTeamService(cfg ClientConfig) TeamService {
	return &teamClient{httpClient: NewClient(cfg).(*httpClient)}
}

func (t *teamClient) TeamExists(ctx context.Context, team string) (bool, error) {
	var result Team
	err := t.doJSON(ctx, http.MethodGet, "/api/teams/"+url.PathEscape(team), nil, &result)
	if err != nil {
		if errors.Is(err, ErrTeamNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (t *teamClient) AddMember(ctx context.Context, team, player, playerID string) error {
	path := "/api/teams/" + url.PathEscape(team) + "/members"
	return t.doJSON(ctx, http.MethodPost, path, memberRequest{Player: player, PlayerID: playerID}, nil)
}

func (t *teamClient) RemoveMember(ctx context.Context, team, player, playerID string) error {
	path := "/api/teams/" + url.PathEscape(team) + "/members/" + url.PathEscape(player)
	return t.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// absentTeamService is the no-op variant used when the teams plugin is not
// installed. Every call reports "not handled" so callers take the command
// fallback path.
type absentTeamService struct{}

// AbsentTeamService returns the no-op team capability.
func AbsentTeamService() TeamService {
	return absentTeamService{}
}

func (absentTeamService) TeamExists(ctx context.Context, team string) (bool, error) {
	return false, ErrNotHandled
}

func (absentTeamService) AddMember(ctx context.Context, team, player, playerID string) error {
	return ErrNotHandled
}

func (absentTeamService) RemoveMember(ctx context.Context, team, player, playerID string) error {
	return ErrNotHandled
}

// ProbeTeamService selects the TeamService variant once by asking the server
// which plugins are active. Probe failures degrade to the absent variant.
func ProbeTeamService(ctx context.Context, client Client, cfg ClientConfig, logger *logrus.Logger) TeamService {
	caps, err := client.Capabilities(ctx)
	if err != nil {
		logger.WithError(err).Warn("Failed to probe game server capabilities, team API disabled")
		return AbsentTeamService()
	}

	for _, plugin := range caps.Plugins {
		if plugin == PluginTeams {
			logger.Info("Teams plugin detected, native team API enabled")
			return NewTeamService(cfg)
		}
	}

	logger.Info("Teams plugin not present, falling back to team commands")
	return AbsentTeamService()
}
