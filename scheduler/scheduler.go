package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownTask is returned by RunNow for a name that was never registered.
var ErrUnknownTask = errors.New("scheduler: unknown task")

// TaskFn is a periodic job. A returned error is logged and counted.
type TaskFn func(ctx context.Context) error

// TaskInfo describes a registered task for inspection.
type TaskInfo struct {
	Name      string        `json:"name"`
	Interval  time.Duration `json:"interval"`
	Runs      int           `json:"runs"`
	Failures  int           `json:"failures"`
	LastRun   time.Time     `json:"last_run,omitempty"`
	LastError string        `json:"last_error,omitempty"`
}

// Scheduler runs named tasks on fixed intervals, one goroutine per task.
// A task never overlaps with itself, including manual RunNow calls.
type Scheduler struct {
	mu     sync.Mutex
	tasks  map[string]*task
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type task struct {
	name     string
	interval time.Duration
	fn       TaskFn
	stopCh   chan struct{}

	runMu sync.Mutex // serializes runs of this task
	stat  TaskInfo   // guarded by Scheduler.mu
}

// New creates a Scheduler.
func New(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:  make(map[string]*task),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Every registers fn to run every interval. A task with the same name is
// replaced. Non-positive intervals are rejected.
func (s *Scheduler) Every(name string, interval time.Duration, fn TaskFn) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler: task %q: interval must be positive", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return fmt.Errorf("scheduler: stopped")
	}

	if old, ok := s.tasks[name]; ok {
		close(old.stopCh)
	}
	t := &task{
		name:     name,
		interval: interval,
		fn:       fn,
		stopCh:   make(chan struct{}),
		stat:     TaskInfo{Name: name, Interval: interval},
	}
	s.tasks[name] = t

	s.wg.Add(1)
	go s.loop(t)
	s.logger.Info("scheduler task registered", zap.String("name", name), zap.Duration("interval", interval))
	return nil
}

func (s *Scheduler) loop(t *task) {
	defer s.wg.Done()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.run(s.ctx, t)
		case <-t.stopCh:
			return
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) run(ctx context.Context, t *task) (err error) {
	t.runMu.Lock()
	defer t.runMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", t.name), zap.Any("recover", r))
			err = fmt.Errorf("scheduler: task %q panicked: %v", t.name, r)
		}
		s.record(t, err)
	}()
	return t.fn(ctx)
}

func (s *Scheduler) record(t *task, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.stat.Runs++
	t.stat.LastRun = time.Now()
	t.stat.LastError = ""
	if err != nil {
		t.stat.Failures++
		t.stat.LastError = err.Error()
		s.logger.Warn("scheduler task failed", zap.String("task", t.name), zap.Error(err))
	}
}

// RunNow runs the named task synchronously, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	t, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return s.run(ctx, t)
}

// Remove stops and forgets a task.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[name]; ok {
		close(t.stopCh)
		delete(s.tasks, name)
	}
}

// Stop stops every task and waits for in-flight runs to finish. Safe to
// call more than once.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Tasks returns the registered tasks sorted by name.
func (s *Scheduler) Tasks() []TaskInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskInfo, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
