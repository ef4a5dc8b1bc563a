package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"teambridge/internal/config"
	"teambridge/internal/metrics"
	"teambridge/internal/models"
	"teambridge/pkg/gameserv"

	"github.com/sirupsen/logrus"
)

// HistoryRecorder persists dispatched actions for the admin history surface.
// Recording is best effort; failures never affect a dispatch.
type HistoryRecorder interface {
	RecordDispatch(ctx context.Context, record models.HistoryRecord) error
}

// Dispatcher turns resolved actions into game-server side effects: whitelist
// management, configured command templates and the native team capability
// with command fallback. All side effects run on the tick scheduler; nothing
// escapes the dispatcher's boundary, every failure degrades to a fallback or
// a logged warning.
type Dispatcher struct {
	game     gameserv.Client
	settings *Settings
	ticks    *TickScheduler
	pending  *PendingTeams
	history  HistoryRecorder
	logger   *logrus.Logger

	teamsMu sync.RWMutex
	teams   gameserv.TeamService
}

// NewDispatcher wires the dispatcher and its pending-team queue.
func NewDispatcher(game gameserv.Client, teams gameserv.TeamService, settings *Settings, ticks *TickScheduler, history HistoryRecorder, logger *logrus.Logger, pendingInterval time.Duration) *Dispatcher {
	d := &Dispatcher{
		game:     game,
		teams:    teams,
		settings: settings,
		ticks:    ticks,
		history:  history,
		logger:   logger,
	}
	d.pending = NewPendingTeams(pendingInterval, d.probeTeam, d.applyPending, logger)
	return d
}

// Start binds the pending queue's lazy ticker to the process context.
func (d *Dispatcher) Start(ctx context.Context) {
	d.pending.Bind(ctx)
}

// Stop halts the pending-team retry ticker.
func (d *Dispatcher) Stop() {
	d.pending.Stop()
}

// ReplaceTeamService swaps the team capability after a reload re-probe.
func (d *Dispatcher) ReplaceTeamService(teams gameserv.TeamService) {
	d.teamsMu.Lock()
	defer d.teamsMu.Unlock()
	d.teams = teams
}

// PendingCount reports the number of actions waiting on team creation.
func (d *Dispatcher) PendingCount() int {
	return d.pending.Count()
}

// Online reports current presence for the named player. Lookup failures
// degrade to offline, which at worst defers the action to the queue.
func (d *Dispatcher) Online(name string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	online, err := d.game.PlayerOnline(ctx, name)
	if err != nil {
		d.logger.WithError(err).WithField("player", name).Debug("Presence lookup failed, treating player as offline")
		return false
	}
	return online
}

// Apply schedules the full side-effect sequence for an action. It returns
// before any effect happens; callers get eventual, not immediate, consistency.
func (d *Dispatcher) Apply(playerName, streamer string, action models.ActionType) {
	d.ticks.Submit(func() {
		d.apply(playerName, streamer, action)
	})
}

// ApplyQueued adapts Apply to the offline queue's dispatch signature.
func (d *Dispatcher) ApplyQueued(action models.QueuedAction) {
	d.Apply(action.PlayerName, action.Streamer, action.Action)
}

// Broadcast schedules a chat notice, best effort.
func (d *Dispatcher) Broadcast(message string) {
	d.ticks.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.game.Broadcast(ctx, message); err != nil {
			d.logger.WithError(err).Warn("Failed to broadcast notice")
		}
	})
}

func (d *Dispatcher) apply(playerName, streamer string, action models.ActionType) {
	cfg := d.settings.Get()
	ctx := context.Background()

	log := d.logger.WithFields(logrus.Fields{
		"player":   playerName,
		"streamer": streamer,
		"action":   action,
	})

	// Resolve the opaque identity for template substitution. Failure is fine,
	// everything downstream works on names.
	playerID := ""
	online := false
	if player, err := d.game.ResolvePlayer(ctx, playerName); err == nil {
		playerID = player.ID
		online = player.Online
	} else {
		log.WithError(err).Debug("Could not resolve player identity")
	}

	// Whitelisting comes before any team logic.
	if action == models.ActionAdd {
		d.runCommand(ctx, "whitelist add "+playerName, "Ensuring player is whitelisted")
	}

	if action == models.ActionRemove {
		switch {
		case cfg.Dispatch.KickAndUnwhitelistOnRemove:
			if online {
				d.runCommand(ctx, "kick "+playerName+" Removed from team", "Kicking player on removal")
			}
			d.runCommand(ctx, "whitelist remove "+playerName, "Removing player from whitelist")
		case cfg.Dispatch.UnwhitelistOnRemove:
			d.runCommand(ctx, "whitelist remove "+playerName, "Removing player from whitelist (no kick)")
		}
	}

	outcome := models.OutcomeApplied
	if !cfg.Dispatch.WhitelistOnlyMode {
		d.runTemplates(ctx, cfg, playerName, streamer, playerID)

		if !cfg.Teams.DisableAPI {
			team := config.TeamForStreamer(cfg, streamer)
			if team != "" {
				if action == models.ActionRemove {
					outcome = d.applyTeamRemove(ctx, cfg, playerName, playerID, team)
				} else {
					outcome = d.applyTeamAdd(ctx, cfg, playerName, playerID, streamer, team)
				}
			}
		}
	}

	metrics.IncrementCounter("actions_dispatched_total", map[string]string{
		"action":  string(action),
		"outcome": outcome,
	}, "Dispatched actions by outcome")
	d.recordHistory(ctx, playerName, streamer, action, outcome)
}

// runTemplates executes the configured command templates with placeholder
// substitution.
func (d *Dispatcher) runTemplates(ctx context.Context, cfg *models.Config, playerName, streamer, playerID string) {
	if len(cfg.Dispatch.Commands) == 0 {
		d.logger.Warn("No commands configured to run for incoming actions")
		return
	}

	for _, raw := range cfg.Dispatch.Commands {
		if strings.TrimSpace(raw) == "" {
			continue
		}

		cmd := strings.ReplaceAll(raw, "%player_name%", playerName)
		cmd = strings.ReplaceAll(cmd, "%streamer%", streamer)
		if strings.Contains(cmd, "%player_uuid%") {
			id := playerID
			if id == "" {
				id = "unknown"
			}
			cmd = strings.ReplaceAll(cmd, "%player_uuid%", id)
		}

		d.runCommand(ctx, cmd, "Dispatching command from web request")
	}
}

func (d *Dispatcher) applyTeamAdd(ctx context.Context, cfg *models.Config, playerName, playerID, streamer, team string) string {
	exists, err := d.teamExists(ctx, cfg, team)
	if err != nil {
		// Capability absent or unreachable: fall back to the add command.
		d.runTeamCommand(ctx, cfg.Teams.AddCommand, playerName, team, "Dispatching team ADD command")
		return models.OutcomeFallback
	}

	if !exists {
		d.pending.Queue(models.PendingTeamAction{
			PlayerName: playerName,
			PlayerID:   playerID,
			Streamer:   streamer,
			Team:       team,
			CreatedAt:  time.Now().UTC(),
		})
		return models.OutcomePending
	}

	if err := d.teamService().AddMember(ctx, team, playerName, playerID); err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			"player": playerName,
			"team":   team,
		}).Warn("Team API add failed, falling back to command")
		d.runTeamCommand(ctx, cfg.Teams.AddCommand, playerName, team, "Dispatching team ADD command")
		return models.OutcomeFallback
	}

	d.logger.WithFields(logrus.Fields{
		"player": playerName,
		"team":   team,
	}).Info("Added player to team via team API")
	return models.OutcomeApplied
}

func (d *Dispatcher) applyTeamRemove(ctx context.Context, cfg *models.Config, playerName, playerID, team string) string {
	exists, err := d.teamExists(ctx, cfg, team)
	if err != nil {
		d.runTeamCommand(ctx, cfg.Teams.RemoveCommand, playerName, team, "Dispatching team REMOVE command")
		return models.OutcomeFallback
	}

	if !exists {
		// Nothing to remove from; removals are never queued.
		d.logger.WithFields(logrus.Fields{
			"player": playerName,
			"team":   team,
		}).Info("Team does not exist, skipping team removal")
		return models.OutcomeDropped
	}

	if err := d.teamService().RemoveMember(ctx, team, playerName, playerID); err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			"player": playerName,
			"team":   team,
		}).Warn("Team API remove failed, falling back to command")
		d.runTeamCommand(ctx, cfg.Teams.RemoveCommand, playerName, team, "Dispatching team REMOVE command")
		return models.OutcomeFallback
	}

	d.logger.WithFields(logrus.Fields{
		"player": playerName,
		"team":   team,
	}).Info("Removed player from team via team API")
	return models.OutcomeApplied
}

// applyPending is the pending queue's dispatch callback: by the time it runs
// the team has been observed to exist.
func (d *Dispatcher) applyPending(action models.PendingTeamAction) {
	d.ticks.Submit(func() {
		ctx := context.Background()
		cfg := d.settings.Get()

		if err := d.teamService().AddMember(ctx, action.Team, action.PlayerName, action.PlayerID); err != nil {
			d.logger.WithError(err).WithFields(logrus.Fields{
				"player": action.PlayerName,
				"team":   action.Team,
			}).Warn("Team API add failed for pending action, falling back to command")
			d.runTeamCommand(ctx, cfg.Teams.AddCommand, action.PlayerName, action.Team, "Dispatching team ADD command")
			d.recordHistory(ctx, action.PlayerName, action.Streamer, models.ActionAdd, models.OutcomeFallback)
			return
		}

		d.recordHistory(ctx, action.PlayerName, action.Streamer, models.ActionAdd, models.OutcomeApplied)
	})
}

// probeTeam is the pending queue's existence probe.
func (d *Dispatcher) probeTeam(ctx context.Context, team string) (bool, error) {
	return d.teamExists(ctx, d.settings.Get(), team)
}

// teamExists honors the always-assume-exists override before consulting the
// capability.
func (d *Dispatcher) teamExists(ctx context.Context, cfg *models.Config, team string) (bool, error) {
	if team == "" {
		return false, nil
	}
	if cfg.Teams.AlwaysAssumeExists {
		return true, nil
	}
	return d.teamService().TeamExists(ctx, team)
}

func (d *Dispatcher) teamService() gameserv.TeamService {
	d.teamsMu.RLock()
	defer d.teamsMu.RUnlock()
	return d.teams
}

func (d *Dispatcher) runCommand(ctx context.Context, cmd, reason string) {
	d.logger.WithField("command", cmd).Info(reason)
	if err := d.game.RunCommand(ctx, cmd); err != nil {
		d.logger.WithError(err).WithField("command", cmd).Warn("Console command failed")
	}
}

func (d *Dispatcher) runTeamCommand(ctx context.Context, template, playerName, team, reason string) {
	cmd := strings.ReplaceAll(template, "%player_name%", playerName)
	cmd = strings.ReplaceAll(cmd, "%team%", team)
	d.runCommand(ctx, cmd, reason)
}

func (d *Dispatcher) recordHistory(ctx context.Context, playerName, streamer string, action models.ActionType, outcome string) {
	if d.history == nil {
		return
	}

	record := models.HistoryRecord{
		PlayerName: playerName,
		Streamer:   streamer,
		Action:     action,
		Outcome:    outcome,
		CreatedAt:  time.Now().UTC(),
	}
	if err := d.history.RecordDispatch(ctx, record); err != nil {
		d.logger.WithError(err).Warn("Failed to record dispatch history")
	}
}
