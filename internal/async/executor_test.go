package async_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kotlinls/internal/async"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSubmitDoesNotBlockCaller(t *testing.T) {
	exec := async.NewExecutor(2, nil)
	defer exec.Stop()

	release := make(chan struct{})
	future := async.Submit(exec, "blocking", func() (string, error) {
		<-release
		return "done", nil
	})

	select {
	case <-future.Done():
		t.Fatal("Future completed before the task was released")
	default:
	}

	close(release)
	got, err := future.Wait(waitCtx(t))
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got != "done" {
		t.Errorf("Wait() = %q, want %q", got, "done")
	}
}

func TestSubmitErrors(t *testing.T) {
	exec := async.NewExecutor(1, nil)
	defer exec.Stop()

	t.Run("ReturnedError", func(t *testing.T) {
		sentinel := errors.New("collaborator failure")
		future := async.Submit(exec, "failing", func() (int, error) {
			return 0, sentinel
		})
		if _, err := future.Wait(waitCtx(t)); !errors.Is(err, sentinel) {
			t.Errorf("Wait() error = %v, want %v", err, sentinel)
		}
	})

	t.Run("Panic", func(t *testing.T) {
		future := async.Submit(exec, "panicking", func() (int, error) {
			panic("boom")
		})
		if _, err := future.Wait(waitCtx(t)); !errors.Is(err, async.ErrTaskPanicked) {
			t.Errorf("Wait() error = %v, want %v", err, async.ErrTaskPanicked)
		}
	})
}

func TestWaitGivesUpWithoutCancellingWork(t *testing.T) {
	exec := async.NewExecutor(1, nil)

	release := make(chan struct{})
	var finished atomic.Bool
	future := async.Submit(exec, "slow", func() (struct{}, error) {
		<-release
		finished.Store(true)
		return struct{}{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := future.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait() error = %v, want %v", err, context.Canceled)
	}

	close(release)
	exec.Stop()
	if !finished.Load() {
		t.Error("Expected the task to run to completion after the waiter gave up")
	}
}

func TestExecutorBoundsParallelism(t *testing.T) {
	const workers = 2
	exec := async.NewExecutor(workers, nil)

	var running, peak atomic.Int32
	futures := make([]*async.Future[int], 10)
	for i := range futures {
		futures[i] = async.Submit(exec, "bounded", func() (int, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return i, nil
		})
	}

	for i, f := range futures {
		got, err := f.Wait(waitCtx(t))
		if err != nil {
			t.Fatalf("task %d failed: %v", i, err)
		}
		if got != i {
			t.Errorf("task %d returned %d", i, got)
		}
	}
	exec.Stop()

	if peak.Load() > workers {
		t.Errorf("Expected at most %d tasks in parallel, saw %d", workers, peak.Load())
	}
}

func TestStop(t *testing.T) {
	exec := async.NewExecutor(4, nil)

	var executed atomic.Int32
	for i := 0; i < 5; i++ {
		async.Submit(exec, "TestTask", func() (bool, error) {
			time.Sleep(20 * time.Millisecond)
			executed.Add(1)
			return true, nil
		})
	}

	exec.Stop()
	if executed.Load() != 5 {
		t.Fatalf("Expected all tasks to execute before Stop returned, but only %d completed", executed.Load())
	}

	future := async.Submit(exec, "late", func() (bool, error) { return true, nil })
	select {
	case <-future.Done():
	default:
		t.Fatal("Expected a rejected submission to return an already failed future")
	}
	if _, err := future.Wait(waitCtx(t)); !errors.Is(err, async.ErrExecutorStopped) {
		t.Errorf("Wait() error = %v, want %v", err, async.ErrExecutorStopped)
	}

	// Stopping twice is harmless.
	exec.Stop()
}

func TestConcurrentSubmitters(t *testing.T) {
	exec := async.NewExecutor(3, nil)
	defer exec.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			want := fmt.Sprintf("result-%d", i)
			got, err := async.Submit(exec, "echo", func() (string, error) {
				return want, nil
			}).Wait(waitCtx(t))
			if err != nil || got != want {
				t.Errorf("task %d: got (%q, %v), want %q", i, got, err, want)
			}
		}(i)
	}
	wg.Wait()
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	exec := async.NewExecutor(1, async.NewMetrics(reg))

	async.Submit(exec, "ok", func() (int, error) { return 1, nil })
	async.Submit(exec, "bad", func() (int, error) { return 0, errors.New("nope") })
	exec.Stop()

	count, err := testutil.GatherAndCount(reg, "kotlinls_executor_tasks_submitted_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 submitted series, got %d", count)
	}
	count, err = testutil.GatherAndCount(reg, "kotlinls_executor_tasks_completed_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 completed series (one per outcome), got %d", count)
	}
}

func TestFailedFuture(t *testing.T) {
	sentinel := errors.New("failed")
	f := async.Failed[string](sentinel)

	select {
	case <-f.Done():
	default:
		t.Fatal("Failed() future should already be completed")
	}
	if _, err := f.Wait(context.Background()); !errors.Is(err, sentinel) {
		t.Errorf("Failed().Wait() error = %v, want %v", err, sentinel)
	}
}
