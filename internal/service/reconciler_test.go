package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"teambridge/internal/models"
	"teambridge/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestReconcilerSweepsQueue(t *testing.T) {
	q := queue.New(queue.NewStore(filepath.Join(t.TempDir(), "queue.json")), testLogger())
	q.Enqueue("Steve", "ninja", models.ActionAdd)

	game := &mockGameClient{}
	teams := &mockTeamService{}
	d := newTestDispatcher(testDispatchConfig(), game, teams, nil)

	game.On("PlayerOnline", mock.Anything, "Steve").Return(true, nil)

	r := NewReconciler(q, d, 10*time.Millisecond, testLogger())
	r.sweep()

	game.AssertCalled(t, "PlayerOnline", mock.Anything, "Steve")
	assert.Equal(t, 0, countPending(q))
}

func countPending(q *queue.OfflineQueue) int {
	n := 0
	for _, action := range q.Snapshot() {
		if !action.Applied {
			n++
		}
	}
	return n
}

func TestReconcilerStartStop(t *testing.T) {
	q := queue.New(queue.NewStore(filepath.Join(t.TempDir(), "queue.json")), testLogger())
	game := &mockGameClient{}
	teams := &mockTeamService{}
	d := newTestDispatcher(testDispatchConfig(), game, teams, nil)

	r := NewReconciler(q, d, 10*time.Millisecond, testLogger())

	done := make(chan struct{})
	go func() {
		r.Start(context.Background())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	r.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not stop")
	}
}

func TestReconcilerStopsOnContextCancel(t *testing.T) {
	q := queue.New(queue.NewStore(filepath.Join(t.TempDir(), "queue.json")), testLogger())
	game := &mockGameClient{}
	teams := &mockTeamService{}
	d := newTestDispatcher(testDispatchConfig(), game, teams, nil)

	r := NewReconciler(q, d, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not stop on context cancel")
	}
}
