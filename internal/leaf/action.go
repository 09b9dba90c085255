package leaf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/joeycumines/go-btcore/internal/btcore"
)

// FuncAction is a synchronous action: every tick calls fn on the ticking
// goroutine. fn may return Running to be ticked again.
type FuncAction struct {
	*btcore.Node
	fn     func() btcore.NodeStatus
	onHalt func()
}

// NewFuncAction returns an action ticking fn. onHalt may be nil.
func NewFuncAction(name string, fn func() btcore.NodeStatus, onHalt func()) *FuncAction {
	if fn == nil {
		panic("leaf: nil action func")
	}
	a := &FuncAction{fn: fn, onHalt: onHalt}
	a.Node = btcore.NewNode(name, btcore.ActionNode, a)
	return a
}

func (a *FuncAction) Tick() btcore.NodeStatus { return a.fn() }

func (a *FuncAction) OnHalt() {
	if a.onHalt != nil {
		a.onHalt()
	}
}

// AsyncState is the lifecycle of the work behind an AsyncAction.
type AsyncState int

const (
	StateIdle AsyncState = iota
	StateRunning
	StateCompleted
)

func (s AsyncState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("AsyncState(%d)", int(s))
	}
}

// ErrCancelled is reported by an AsyncAction ticked after its parent
// context was cancelled.
var ErrCancelled = errors.New("leaf: execution cancelled")

// AsyncAction runs fn on its own goroutine. The first tick starts it and
// returns Running; ticks while it is in progress return Running; the first
// tick after it returned reports Success for a nil error and Failure
// otherwise.
//
// Halt cancels the context passed to fn and waits for fn to return, so fn
// must honour cancellation.
type AsyncAction struct {
	*btcore.Node
	ctx context.Context
	fn  func(ctx context.Context) error

	mu         sync.Mutex
	state      AsyncState
	generation uint64 // invalidates completions of halted runs
	cancel     context.CancelFunc
	done       chan struct{}
	lastErr    error
	result     error
}

func NewAsyncAction(ctx context.Context, name string, fn func(ctx context.Context) error) *AsyncAction {
	if fn == nil {
		panic("leaf: nil async func")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	a := &AsyncAction{ctx: ctx, fn: fn}
	a.Node = btcore.NewNode(name, btcore.ActionNode, a)
	return a
}

// State returns the lifecycle state of the underlying work.
func (a *AsyncAction) State() AsyncState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// LastError returns the error of the most recent concluded run, or nil.
func (a *AsyncAction) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

func (a *AsyncAction) Tick() btcore.NodeStatus {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case StateIdle:
		if err := a.ctx.Err(); err != nil {
			a.lastErr = fmt.Errorf("%w: %w", ErrCancelled, err)
			return btcore.Failure
		}
		a.start()
		return btcore.Running

	case StateRunning:
		return btcore.Running

	default:
		err := a.result
		a.state = StateIdle
		a.result = nil
		a.lastErr = err
		if err != nil {
			slog.Debug("leaf: async action failed", "node", a.Name(), "error", err)
			return btcore.Failure
		}
		return btcore.Success
	}
}

// start must be called with mu held.
func (a *AsyncAction) start() {
	a.generation++
	gen := a.generation
	ctx, cancel := context.WithCancel(a.ctx)
	done := make(chan struct{})
	a.state = StateRunning
	a.cancel = cancel
	a.done = done

	go func() {
		defer close(done)
		defer cancel()
		var err error
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("leaf: panic in async action: %v", r)
				}
			}()
			err = a.fn(ctx)
		}()
		a.finalize(gen, err)
	}()
}

func (a *AsyncAction) finalize(gen uint64, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.generation {
		return
	}
	a.result = err
	a.state = StateCompleted
}

func (a *AsyncAction) OnHalt() {
	a.mu.Lock()
	a.generation++
	cancel, done := a.cancel, a.done
	a.state = StateIdle
	a.result = nil
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
