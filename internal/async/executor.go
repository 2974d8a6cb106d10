package async

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/semaphore"
)

var log = commonlog.GetLogger("kotlinls.async")

type Task struct {
	ID      string
	Name    string
	Execute func() error
}

// Executor runs tasks on their own goroutines, never on the goroutine that
// scheduled them. At most `workers` task bodies run at the same time; there is
// no ordering between tasks.
type Executor struct {
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
	metrics *Metrics
}

// NewExecutor creates an Executor running at most workers tasks in parallel
func NewExecutor(workers int, metrics *Metrics) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{
		sem:     semaphore.NewWeighted(int64(workers)),
		metrics: metrics,
	}
}

// Schedule queues a task and returns immediately
func (e *Executor) Schedule(task Task) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.stopped {
		return ErrExecutorStopped
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	e.wg.Add(1)
	e.metrics.taskSubmitted(task.Name)
	go e.run(task)
	return nil
}

func (e *Executor) run(task Task) {
	defer e.wg.Done()

	// Scheduled work is never cancelled, so this cannot fail.
	_ = e.sem.Acquire(context.Background(), 1)
	defer e.sem.Release(1)

	log.Debugf("executing %s task %s", task.Name, task.ID)
	start := time.Now()
	err := task.Execute()
	elapsed := time.Since(start)
	e.metrics.taskCompleted(task.Name, elapsed, err)

	if err != nil {
		log.Debugf("%s task %s failed after %s: %v", task.Name, task.ID, elapsed, err)
		return
	}
	log.Debugf("%s task %s done after %s", task.Name, task.ID, elapsed)
}

// Stop rejects further tasks and waits for the ones already scheduled.
func (e *Executor) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.mu.Unlock()

	log.Info("stopping executor")
	e.wg.Wait()
	log.Info("executor stopped")
}

// Submit runs work on e and returns a future for its result. Errors returned
// by work, and panics inside it, fail the future instead of reaching the
// caller.
func Submit[T any](e *Executor, name string, work func() (T, error)) *Future[T] {
	f := newFuture[T]()
	task := Task{
		ID:   uuid.NewString(),
		Name: name,
		Execute: func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %s: %v", ErrTaskPanicked, name, r)
					var zero T
					f.complete(zero, err)
				}
			}()
			value, err := work()
			f.complete(value, err)
			return err
		},
	}

	if err := e.Schedule(task); err != nil {
		return Failed[T](err)
	}
	return f
}
