package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lysyi3m/rss-pulse/app/aggregator"
)

type mockRefresher struct {
	calls    atomic.Int32
	failures int32
	delay    time.Duration
}

func (m *mockRefresher) Refresh(ctx context.Context) (*aggregator.Result, error) {
	n := m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if n <= m.failures {
		return nil, errors.New("sources unavailable")
	}
	return &aggregator.Result{CycleID: "cycle", Count: 3}, nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Condition not met before timeout")
}

func TestNewTask(t *testing.T) {
	task1 := NewTask(TaskTypeRefreshCache, "startup")
	task2 := NewTask(TaskTypeRefreshCache, "startup")

	if task1.ID == "" || task1.ID == task2.ID {
		t.Errorf("Expected unique task IDs, got %q and %q", task1.ID, task2.ID)
	}
	if task1.MaxRetries != DefaultMaxRetries {
		t.Errorf("Expected max retries %d, got %d", DefaultMaxRetries, task1.MaxRetries)
	}
	if task1.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}

	task1.Start()
	if task1.StartedAt == nil {
		t.Error("Expected start time to be set")
	}

	for task1.CanRetry() {
		task1.IncrementRetryCount()
	}
	if task1.GetRetryCount() != DefaultMaxRetries {
		t.Errorf("Expected %d retries, got %d", DefaultMaxRetries, task1.GetRetryCount())
	}
}

func TestRefreshCacheTask(t *testing.T) {
	refresher := &mockRefresher{}
	task := NewRefreshCacheTask(TriggerSchedule, refresher)

	if task.GetType() != TaskTypeRefreshCache || task.GetName() != TriggerSchedule {
		t.Errorf("Unexpected task metadata: %s %s", task.GetType(), task.GetName())
	}
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if refresher.calls.Load() != 1 {
		t.Errorf("Expected 1 refresh, got %d", refresher.calls.Load())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := task.Execute(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context canceled, got: %v", err)
	}
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	if _, err := NewScheduler(&mockRefresher{}, "not a schedule", 1); err == nil {
		t.Error("Expected error for invalid cron spec")
	}
}

func TestScheduler_RefreshesAtStartup(t *testing.T) {
	refresher := &mockRefresher{}
	scheduler, err := NewScheduler(refresher, "@every 1h", 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	scheduler.Start()
	defer scheduler.Stop()

	waitFor(t, time.Second, func() bool { return refresher.calls.Load() == 1 })
}

func TestScheduler_RetriesFailedRefresh(t *testing.T) {
	refresher := &mockRefresher{failures: 2}
	scheduler, err := NewScheduler(refresher, "@every 1h", 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	scheduler.retryBase = 10 * time.Millisecond

	scheduler.Start()
	defer scheduler.Stop()

	waitFor(t, 2*time.Second, func() bool { return refresher.calls.Load() == 3 })
}

func TestScheduler_DropsRefreshWhenQueueFull(t *testing.T) {
	refresher := &mockRefresher{delay: 200 * time.Millisecond}
	scheduler, err := NewScheduler(refresher, "@every 1h", 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	scheduler.Start()
	defer scheduler.Stop()

	// The startup refresh is running; one more fits in the queue.
	waitFor(t, time.Second, func() bool { return refresher.calls.Load() == 1 })
	if err := scheduler.EnqueueTask(NewRefreshCacheTask("manual", refresher)); err != nil {
		t.Fatalf("Expected queued refresh, got: %v", err)
	}
	if err := scheduler.EnqueueTask(NewRefreshCacheTask("manual", refresher)); err == nil {
		t.Error("Expected full queue error")
	}
}

func TestScheduler_StopRejectsTasks(t *testing.T) {
	scheduler, err := NewScheduler(&mockRefresher{}, "@every 1h", 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	scheduler.Start()
	scheduler.Stop()

	if err := scheduler.EnqueueTask(NewRefreshCacheTask("manual", &mockRefresher{})); err == nil {
		t.Error("Expected error after stop")
	}
}
