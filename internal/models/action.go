package models

import (
	"strings"
	"time"
)

// ActionType identifies the direction of a membership change.
type ActionType string

const (
	ActionAdd    ActionType = "add"
	ActionRemove ActionType = "remove"
)

// ParseActionType normalizes a wire value to an ActionType. Anything that is
// not an explicit remove is treated as an add, matching the webhook contract.
func ParseActionType(s string) ActionType {
	if strings.EqualFold(strings.TrimSpace(s), string(ActionRemove)) {
		return ActionRemove
	}
	return ActionAdd
}

// ActionRequest is a single membership change as delivered by the web
// platform. PlayerName and Streamer are mandatory; Token is only checked when
// a shared secret is configured.
type ActionRequest struct {
	PlayerName string
	Streamer   string
	Action     ActionType
	Token      string
}

// QueuedAction is an action deferred because the player was offline at
// ingestion time. Records are persisted as a full-file snapshot and survive
// restarts. Applied records are retained for idempotence; replay matches on
// PlayerName case-insensitively.
type QueuedAction struct {
	ID         string     `json:"id"`
	PlayerName string     `json:"playerName"`
	Streamer   string     `json:"streamer"`
	Action     ActionType `json:"action"`
	CreatedAt  time.Time  `json:"createdAt"`
	Applied    bool       `json:"applied"`
}

// MatchesPlayer reports whether the record belongs to the named player.
func (q *QueuedAction) MatchesPlayer(name string) bool {
	return strings.EqualFold(q.PlayerName, name)
}

// PendingTeamAction is an add that could not be applied because the
// destination team did not exist yet. These live only in memory and are lost
// on restart.
type PendingTeamAction struct {
	PlayerName string
	PlayerID   string
	Streamer   string
	Team       string
	CreatedAt  time.Time
}

// HistoryRecord is one dispatched action as recorded in the history store.
type HistoryRecord struct {
	ID         int64      `db:"id"`
	PlayerName string     `db:"player_name"`
	Streamer   string     `db:"streamer"`
	Action     ActionType `db:"action"`
	Outcome    string     `db:"outcome"`
	CreatedAt  time.Time  `db:"created_at"`
}

// Dispatch outcomes recorded in the history store.
const (
	OutcomeApplied  = "applied"
	OutcomePending  = "pending_team"
	OutcomeFallback = "command_fallback"
	OutcomeDropped  = "dropped"
)
