package runner

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joeycumines/go-btcore/internal/btcore"
	"github.com/joeycumines/go-btcore/internal/leaf"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// counting returns an action that is Running for the first n ticks, then
// Success, counting halts.
func counting(name string, n int, halts *atomic.Int32) *leaf.FuncAction {
	var ticks atomic.Int32
	return leaf.NewFuncAction(name, func() btcore.NodeStatus {
		if int(ticks.Add(1)) <= n {
			return btcore.Running
		}
		return btcore.Success
	}, func() {
		if halts != nil {
			halts.Add(1)
		}
	})
}

func forever(name string, halts *atomic.Int32) *leaf.FuncAction {
	return counting(name, int(^uint(0)>>1), halts)
}

func fastOptions() Options {
	return Options{Interval: time.Millisecond}
}

func waitDone(t *testing.T, e *Execution) {
	t.Helper()
	select {
	case <-e.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("execution never finished")
	}
}

func TestRunOnce_Concludes(t *testing.T) {
	t.Parallel()

	root := btcore.NewSequence("root",
		leaf.NewFuncCondition("ready", func() bool { return true }),
		counting("work", 2, nil),
	)
	status, err := RunOnce(context.Background(), root, fastOptions())
	require.NoError(t, err)
	assert.Equal(t, btcore.Success, status)
	assert.Equal(t, btcore.Success, root.Status())
}

func TestRunOnce_Failure(t *testing.T) {
	t.Parallel()

	root := btcore.NewFallback("root", leaf.NewFuncCondition("never", func() bool { return false }))
	status, err := RunOnce(context.Background(), root, fastOptions())
	require.NoError(t, err)
	assert.Equal(t, btcore.Failure, status)
}

func TestRunOnce_MaxTicks(t *testing.T) {
	t.Parallel()

	var halts atomic.Int32
	work := forever("work", &halts)
	opts := fastOptions()
	opts.MaxTicks = 5

	status, err := RunOnce(context.Background(), btcore.NewSequence("root", work), opts)
	assert.ErrorIs(t, err, ErrMaxTicks)
	assert.Equal(t, btcore.Idle, status, "the root is halted")
	assert.Equal(t, btcore.Idle, work.Status())
	assert.Equal(t, int32(1), halts.Load())
}

func TestRunOnce_Timeout(t *testing.T) {
	t.Parallel()

	opts := fastOptions()
	opts.Timeout = 20 * time.Millisecond
	status, err := RunOnce(context.Background(), forever("work", nil), opts)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, btcore.Idle, status)
}

func TestRunOnce_NilRoot(t *testing.T) {
	t.Parallel()
	_, err := RunOnce(context.Background(), nil, fastOptions())
	assert.Error(t, err)
}

func TestExecution_Stop(t *testing.T) {
	t.Parallel()

	r := New(fastOptions())
	defer r.Stop()

	var halts atomic.Int32
	work := forever("work", &halts)
	e, err := r.Start(context.Background(), work)
	require.NoError(t, err)

	_, err = ulid.Parse(e.ID())
	require.NoError(t, err)
	assert.Same(t, work, e.Root())

	require.Eventually(t, func() bool { return e.Ticks() >= 3 }, 5*time.Second, time.Millisecond)
	assert.Equal(t, btcore.Running, e.Status())

	e.Stop()
	e.Stop()
	assert.Equal(t, btcore.Idle, e.Status())
	assert.Equal(t, btcore.Idle, work.Status())
	assert.Equal(t, int32(1), halts.Load())

	ticks := e.Ticks()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, ticks, e.Ticks(), "no ticks after stop")
}

func TestExecution_ContextCancel(t *testing.T) {
	t.Parallel()

	r := New(fastOptions())
	defer r.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	work := forever("work", nil)
	e, err := r.Start(ctx, work)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return e.Ticks() > 0 }, 5*time.Second, time.Millisecond)

	cancel()
	waitDone(t, e)
	assert.ErrorIs(t, e.Err(), context.Canceled)
	assert.Equal(t, btcore.Idle, work.Status())
}

func TestExecution_IDsAreOrdered(t *testing.T) {
	t.Parallel()

	r := New(fastOptions())
	defer r.Stop()

	a, err := r.Start(context.Background(), forever("a", nil))
	require.NoError(t, err)
	b, err := r.Start(context.Background(), forever("b", nil))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.LessOrEqual(t, a.ID()[:10], b.ID()[:10], "ULID time prefixes sort by start")
}

func TestRunner_StopHaltsEverything(t *testing.T) {
	t.Parallel()

	r := New(fastOptions())
	var halts atomic.Int32
	var executions []*Execution
	for _, name := range []string{"a", "b", "c"} {
		e, err := r.Start(context.Background(), forever(name, &halts))
		require.NoError(t, err)
		executions = append(executions, e)
	}
	assert.Len(t, r.Executions(), 3)

	for _, e := range executions {
		require.Eventually(t, func() bool { return e.Ticks() > 0 }, 5*time.Second, time.Millisecond)
	}
	r.Stop()
	r.Stop()

	for _, e := range executions {
		waitDone(t, e)
		assert.Equal(t, btcore.Idle, e.Root().Status())
	}
	assert.Equal(t, int32(3), halts.Load())

	_, err := r.Start(context.Background(), forever("late", nil))
	assert.ErrorIs(t, err, ErrStopped)
}

func TestExecution_ContractViolation(t *testing.T) {
	t.Parallel()

	r := New(fastOptions())
	defer r.Stop()

	e, err := r.Start(context.Background(), btcore.NewSequence("empty"))
	require.NoError(t, err)
	waitDone(t, e)

	var cerr *btcore.ContractError
	require.ErrorAs(t, e.Err(), &cerr)
	assert.Equal(t, "empty", cerr.Node)
}

func TestExecution_Logging(t *testing.T) {
	t.Parallel()

	var buf syncBuffer
	opts := fastOptions()
	opts.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	status, err := RunOnce(context.Background(), btcore.NewInverter("not", counting("work", 1, nil)), opts)
	require.NoError(t, err)
	assert.Equal(t, btcore.Failure, status)

	out := buf.String()
	assert.Contains(t, out, "execution started")
	assert.Contains(t, out, "execution finished")
	assert.Contains(t, out, "status change")
	assert.Contains(t, out, "node=work")
	assert.Contains(t, out, "to=SUCCESS")
}
