package queue

import (
	"context"
	"sync"
	"time"

	"teambridge/internal/metrics"
	"teambridge/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DispatchFunc applies a queued action against the game server. It is invoked
// with a copy of the record; dispatch failures are the dispatcher's problem,
// the queue only tracks that the action was handed over.
type DispatchFunc func(action models.QueuedAction)

// OfflineQueue accumulates actions for players who were offline at ingestion
// time and replays them on presence. The in-memory collection is guarded by a
// single mutex; persistence runs on a background writer so that enqueues never
// block on disk. Back-to-back mutations coalesce into one physical write.
type OfflineQueue struct {
	mu      sync.Mutex
	actions []*models.QueuedAction

	store  *Store
	logger *logrus.Logger

	saveCh chan struct{}
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New creates an offline queue backed by the given snapshot store.
func New(store *Store, logger *logrus.Logger) *OfflineQueue {
	return &OfflineQueue{
		store:  store,
		logger: logger,
		saveCh: make(chan struct{}, 1),
	}
}

// Load restores the queue from its snapshot. A missing or corrupt snapshot
// degrades to an empty queue with a warning; startup never fails here.
func (q *OfflineQueue) Load() {
	actions, err := q.store.Load()
	if err != nil {
		q.logger.WithError(err).Warn("Failed to load queued actions, starting with an empty queue")
		return
	}

	q.mu.Lock()
	q.actions = actions
	q.mu.Unlock()

	if len(actions) > 0 {
		q.logger.WithField("count", len(actions)).Info("Restored queued actions from disk")
	}
}

// Start launches the background snapshot writer.
func (q *OfflineQueue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	q.wg.Add(1)
	go q.writeLoop(ctx)
}

// Stop cancels the writer and performs a final synchronous snapshot.
func (q *OfflineQueue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
	q.save()
}

// Enqueue appends an action for an offline player and schedules a persist.
// Never blocks on disk.
func (q *OfflineQueue) Enqueue(playerName, streamer string, action models.ActionType) *models.QueuedAction {
	queued := &models.QueuedAction{
		ID:         uuid.NewString(),
		PlayerName: playerName,
		Streamer:   streamer,
		Action:     action,
		CreatedAt:  time.Now().UTC(),
	}

	q.mu.Lock()
	q.actions = append(q.actions, queued)
	size := len(q.actions)
	q.mu.Unlock()

	q.logger.WithFields(logrus.Fields{
		"player":   playerName,
		"streamer": streamer,
		"action":   action,
	}).Debug("Queued action for offline player")
	metrics.SetGauge("queue_size", float64(size), nil, "Offline queue size including applied records")

	q.requestSave()
	return queued
}

// ReplayForPlayer dispatches every non-applied action matching the player
// name case-insensitively, in original order, marks them applied and persists
// the updated collection. Returns the number of dispatched actions.
func (q *OfflineQueue) ReplayForPlayer(name string, dispatch DispatchFunc) int {
	if name == "" {
		return 0
	}

	var toApply []models.QueuedAction
	q.mu.Lock()
	for _, action := range q.actions {
		if action.Applied || !action.MatchesPlayer(name) {
			continue
		}
		action.Applied = true
		toApply = append(toApply, *action)
	}
	q.mu.Unlock()

	if len(toApply) == 0 {
		return 0
	}

	for _, action := range toApply {
		q.logger.WithFields(logrus.Fields{
			"player":   action.PlayerName,
			"streamer": action.Streamer,
			"action":   action.Action,
		}).Debug("Applying queued action on player join")
		dispatch(action)
	}

	metrics.AddToCounter("queue_replayed_total", float64(len(toApply)), nil, "Queued actions replayed on presence")
	q.requestSave()
	return len(toApply)
}

// Sweep checks presence for every non-applied entry and dispatches the ones
// whose player is online. Safety net for missed join events; redundant sweeps
// are no-ops for applied records.
func (q *OfflineQueue) Sweep(online func(name string) bool, dispatch DispatchFunc) int {
	q.mu.Lock()
	pending := make([]*models.QueuedAction, 0, len(q.actions))
	for _, action := range q.actions {
		if !action.Applied {
			pending = append(pending, action)
		}
	}
	q.mu.Unlock()

	if len(pending) == 0 {
		return 0
	}

	applied := 0
	for _, action := range pending {
		if !online(action.PlayerName) {
			continue
		}

		q.mu.Lock()
		already := action.Applied
		action.Applied = true
		q.mu.Unlock()
		if already {
			continue
		}

		q.logger.WithFields(logrus.Fields{
			"player":   action.PlayerName,
			"streamer": action.Streamer,
			"action":   action.Action,
		}).Debug("Applying queued action in periodic sweep")
		dispatch(*action)
		applied++
	}

	if applied > 0 {
		metrics.AddToCounter("queue_swept_total", float64(applied), nil, "Queued actions applied by the reconciliation sweep")
		q.requestSave()
	}
	return applied
}

// Snapshot returns a copy of every record, for inspection.
func (q *OfflineQueue) Snapshot() []models.QueuedAction {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.QueuedAction, 0, len(q.actions))
	for _, action := range q.actions {
		out = append(out, *action)
	}
	return out
}

// Len returns the number of records, applied included.
func (q *OfflineQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// requestSave schedules a snapshot write without blocking. A signal already
// in flight covers this mutation too, which is what coalesces bursts.
func (q *OfflineQueue) requestSave() {
	select {
	case q.saveCh <- struct{}{}:
	default:
	}
}

func (q *OfflineQueue) writeLoop(ctx context.Context) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.saveCh:
			q.save()
		}
	}
}

// save snapshots the collection under the lock and writes it out. Failures
// are logged and implicitly retried on the next mutation.
func (q *OfflineQueue) save() {
	q.mu.Lock()
	snapshot := make([]*models.QueuedAction, len(q.actions))
	for i, action := range q.actions {
		copied := *action
		snapshot[i] = &copied
	}
	q.mu.Unlock()

	if err := q.store.Save(snapshot); err != nil {
		q.logger.WithError(err).Warn("Failed to save queued actions")
	}
}
