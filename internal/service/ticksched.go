package service

import (
	"context"
	"sync"

	"teambridge/internal/metrics"

	"github.com/sirupsen/logrus"
)

// TickScheduler executes submitted tasks one at a time on a single goroutine,
// serializing every game-server mutation the way the server's own tick loop
// would. A slow command stalls the whole loop; that is the inherited model.
type TickScheduler struct {
	tasks  chan func()
	logger *logrus.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewTickScheduler creates a scheduler with the given task buffer size.
func NewTickScheduler(size int, logger *logrus.Logger) *TickScheduler {
	return &TickScheduler{
		tasks:  make(chan func(), size),
		logger: logger,
	}
}

// Start launches the tick loop.
func (t *TickScheduler) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return
	}

	ctx, t.cancel = context.WithCancel(ctx)
	t.running = true

	t.wg.Add(1)
	go t.loop(ctx)
}

// Stop drains nothing: queued tasks that have not run yet are abandoned,
// matching shutdown semantics where in-flight work is best effort.
func (t *TickScheduler) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}

	t.cancel()
	t.wg.Wait()
	t.running = false
}

// Submit enqueues a task for serialized execution. Blocks when the buffer is
// full, applying backpressure to submitters.
func (t *TickScheduler) Submit(task func()) {
	t.tasks <- task
	metrics.SetGauge("tick_queue_depth", float64(len(t.tasks)), nil, "Pending tasks on the tick scheduler")
}

func (t *TickScheduler) loop(ctx context.Context) {
	defer t.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-t.tasks:
			t.run(task)
		}
	}
}

// run isolates task panics so that one bad dispatch cannot kill the loop.
func (t *TickScheduler) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.WithField("panic", r).Error("Recovered from panic in scheduled task")
		}
	}()
	task()
}
