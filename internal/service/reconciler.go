package service

import (
	"context"
	"time"

	"teambridge/internal/metrics"
	"teambridge/internal/models"
	"teambridge/internal/queue"

	"github.com/sirupsen/logrus"
)

// Reconciler periodically sweeps the offline queue, dispatching any queued
// action whose player has since come online. It is the safety net under the
// per-request replay path: even if a join is never observed, a queued action
// is applied within one sweep interval of the player connecting.
type Reconciler struct {
	queue      *queue.OfflineQueue
	dispatcher *Dispatcher
	interval   time.Duration
	logger     *logrus.Logger
	stopCh     chan struct{}
}

func NewReconciler(q *queue.OfflineQueue, dispatcher *Dispatcher, interval time.Duration, logger *logrus.Logger) *Reconciler {
	return &Reconciler{
		queue:      q,
		dispatcher: dispatcher,
		interval:   interval,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

// Start runs the sweep loop until the context is cancelled or Stop is called.
// The first sweep happens one full interval after start.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.WithField("interval", r.interval).Info("Starting queue reconciler")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reconciler context cancelled, stopping")
			return
		case <-r.stopCh:
			r.logger.Info("Reconciler stop signal received, stopping")
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Reconciler) Stop() {
	close(r.stopCh)
}

func (r *Reconciler) sweep() {
	dispatched := r.queue.Sweep(r.dispatcher.Online, func(action models.QueuedAction) {
		r.dispatcher.ApplyQueued(action)
	})
	if dispatched > 0 {
		r.logger.WithField("count", dispatched).Info("Reconciliation sweep dispatched queued actions")
		metrics.IncrementCounter("queue_sweep_dispatched_total", nil, "Queued actions dispatched by reconciliation sweeps")
	}
}
