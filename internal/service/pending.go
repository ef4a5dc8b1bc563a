package service

import (
	"context"
	"sync"
	"time"

	"teambridge/internal/metrics"
	"teambridge/internal/models"

	"github.com/sirupsen/logrus"
)

// TeamProbe reports whether a destination team exists. A non-nil error means
// the answer is unknown (capability absent or unreachable) and the team is
// retried on the next tick.
type TeamProbe func(ctx context.Context, team string) (bool, error)

// PendingDispatch applies a pending action once its team exists.
type PendingDispatch func(action models.PendingTeamAction)

// PendingTeams defers add actions whose destination team does not exist yet,
// keyed by team. The retry ticker starts lazily with the first entry and
// stops once the map drains, so an idle bridge runs no background work.
// Entries are retried forever; there is no cap or expiry.
type PendingTeams struct {
	mu      sync.Mutex
	actions map[string][]models.PendingTeamAction
	running bool
	cancel  context.CancelFunc

	baseCtx  context.Context
	interval time.Duration
	probe    TeamProbe
	dispatch PendingDispatch
	logger   *logrus.Logger
	wg       sync.WaitGroup
}

// NewPendingTeams creates the pending queue. Bind must be called before the
// first Queue.
func NewPendingTeams(interval time.Duration, probe TeamProbe, dispatch PendingDispatch, logger *logrus.Logger) *PendingTeams {
	return &PendingTeams{
		actions:  make(map[string][]models.PendingTeamAction),
		interval: interval,
		probe:    probe,
		dispatch: dispatch,
		logger:   logger,
	}
}

// Bind sets the base context the lazy ticker goroutine inherits.
func (p *PendingTeams) Bind(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.baseCtx = ctx
}

// Queue appends an action under its destination team and starts the retry
// ticker if this is the first pending entry system-wide.
func (p *PendingTeams) Queue(action models.PendingTeamAction) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.actions[action.Team] = append(p.actions[action.Team], action)
	metrics.IncrementCounter("pending_team_queued_total", nil, "Actions deferred because the team did not exist")

	p.logger.WithFields(logrus.Fields{
		"player": action.PlayerName,
		"team":   action.Team,
	}).Info("Team does not exist yet, queuing add")

	if !p.running {
		ctx := p.baseCtx
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, p.cancel = context.WithCancel(ctx)
		p.running = true
		p.wg.Add(1)
		go p.retryLoop(ctx)
	}
}

// Stop cancels the retry ticker if it is running. Pending entries are lost,
// which matches their in-memory-only lifetime.
func (p *PendingTeams) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}

// Count returns the number of pending actions across all teams.
func (p *PendingTeams) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := 0
	for _, list := range p.actions {
		total += len(list)
	}
	return total
}

func (p *PendingTeams) retryLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.drain(ctx) {
				// Map is empty, stop until the next Queue.
				return
			}
		}
	}
}

// drain re-probes each distinct team and dispatches every entry for teams
// that now exist, removing the team's list atomically with respect to
// concurrent Queue calls. Returns true when the map emptied and the ticker
// should stop.
func (p *PendingTeams) drain(ctx context.Context) bool {
	p.mu.Lock()
	teams := make([]string, 0, len(p.actions))
	for team := range p.actions {
		teams = append(teams, team)
	}
	p.mu.Unlock()

	for _, team := range teams {
		exists, err := p.probe(ctx, team)
		if err != nil {
			p.logger.WithError(err).WithField("team", team).Debug("Team existence probe failed, will retry")
			continue
		}
		if !exists {
			continue
		}

		p.mu.Lock()
		ready := p.actions[team]
		delete(p.actions, team)
		p.mu.Unlock()

		for _, action := range ready {
			p.dispatch(action)
		}
		if len(ready) > 0 {
			metrics.AddToCounter("pending_team_drained_total", float64(len(ready)), nil, "Pending actions applied after their team appeared")
			p.logger.WithFields(logrus.Fields{
				"team":  team,
				"count": len(ready),
			}).Info("Team appeared, applied pending adds")
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.actions) == 0 {
		p.running = false
		p.cancel()
		return true
	}
	return false
}
