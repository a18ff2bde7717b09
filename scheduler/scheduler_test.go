package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func count(n *int32) TaskFn {
	return func(context.Context) error {
		atomic.AddInt32(n, 1)
		return nil
	}
}

func TestEvery_Fires(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var n int32
	require.NoError(t, s.Every("tick", 20*time.Millisecond, count(&n)))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&n) >= 3 },
		time.Second, 5*time.Millisecond)
}

func TestEvery_RejectsNonPositiveInterval(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()
	assert.Error(t, s.Every("bad", 0, count(new(int32))))
	assert.Empty(t, s.Tasks())
}

func TestEvery_Replaces(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var n1, n2 int32
	require.NoError(t, s.Every("task", 20*time.Millisecond, count(&n1)))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, s.Every("task", 20*time.Millisecond, count(&n2)))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&n2) > 0 },
		time.Second, 5*time.Millisecond)

	snap := atomic.LoadInt32(&n1)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&n1), "old task must stop after replacement")
	assert.Len(t, s.Tasks(), 1)
}

func TestRemove(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var n int32
	require.NoError(t, s.Every("task", 20*time.Millisecond, count(&n)))
	time.Sleep(50 * time.Millisecond)
	s.Remove("task")
	time.Sleep(30 * time.Millisecond)
	snap := atomic.LoadInt32(&n)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&n), "task must stop after Remove")

	s.Remove("nope") // must not panic
}

func TestStop_StopsAllAndIsIdempotent(t *testing.T) {
	s := New(zap.NewNop())

	var c1, c2 int32
	require.NoError(t, s.Every("a", 20*time.Millisecond, count(&c1)))
	require.NoError(t, s.Every("b", 20*time.Millisecond, count(&c2)))
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	snap1, snap2 := atomic.LoadInt32(&c1), atomic.LoadInt32(&c2)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap1, atomic.LoadInt32(&c1))
	assert.Equal(t, snap2, atomic.LoadInt32(&c2))

	s.Stop()
	assert.Error(t, s.Every("late", time.Hour, count(new(int32))))
}

func TestRunNow(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var n int32
	require.NoError(t, s.Every("flush", time.Hour, count(&n)))
	require.NoError(t, s.RunNow(context.Background(), "flush"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&n))

	err := s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestTasks_Stats(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	boom := errors.New("boom")
	require.NoError(t, s.Every("beta", time.Hour, func(context.Context) error { return boom }))
	require.NoError(t, s.Every("alpha", time.Hour, count(new(int32))))

	require.NoError(t, s.RunNow(context.Background(), "alpha"))
	assert.ErrorIs(t, s.RunNow(context.Background(), "beta"), boom)

	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "alpha", tasks[0].Name)
	assert.Equal(t, 1, tasks[0].Runs)
	assert.Zero(t, tasks[0].Failures)
	assert.False(t, tasks[0].LastRun.IsZero())

	assert.Equal(t, "beta", tasks[1].Name)
	assert.Equal(t, time.Hour, tasks[1].Interval)
	assert.Equal(t, 1, tasks[1].Failures)
	assert.Equal(t, "boom", tasks[1].LastError)
}

func TestPanicRecovery(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	require.NoError(t, s.Every("panic", time.Hour, func(context.Context) error {
		panic("oops")
	}))
	err := s.RunNow(context.Background(), "panic")
	assert.Error(t, err)
	assert.Equal(t, 1, s.Tasks()[0].Failures)
}
