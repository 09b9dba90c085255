package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/go-btcore/internal/btcore"
	"github.com/oklog/ulid/v2"
)

// Execution is one root being ticked by a Runner.
type Execution struct {
	id     string
	root   btcore.TreeNode
	opts   Options
	logger *slog.Logger

	ticks  atomic.Int64
	status atomic.Int32

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}

	mu  sync.Mutex
	err error
}

func newExecution(root btcore.TreeNode, opts Options) *Execution {
	id := ulid.Make().String()
	return &Execution{
		id:     id,
		root:   root,
		opts:   opts,
		logger: opts.logger().With("execution", id, "root", root.Name()),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// ID is a ULID, so executions sort by start time.
func (e *Execution) ID() string { return e.id }

func (e *Execution) Root() btcore.TreeNode { return e.root }

// Done is closed once ticking has ended and the root is no longer Running.
func (e *Execution) Done() <-chan struct{} { return e.done }

// Status returns the status of the latest tick or, once done, the final
// status of the root.
func (e *Execution) Status() btcore.NodeStatus {
	return btcore.NodeStatus(e.status.Load())
}

// Ticks returns the number of ticks performed.
func (e *Execution) Ticks() int { return int(e.ticks.Load()) }

// Err returns why the execution ended without concluding, or nil.
func (e *Execution) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Stop ends the execution, halting the root if it is Running, and waits
// for it to be done.
func (e *Execution) Stop() {
	e.stop(nil)
	<-e.done
}

// stop records cause, unless an earlier cause was recorded, and requests
// the ticker to stop.
func (e *Execution) stop(cause error) {
	if cause != nil {
		e.mu.Lock()
		if e.err == nil {
			e.err = cause
		}
		e.mu.Unlock()
	}
	e.stopOnce.Do(func() { close(e.stopCh) })
}

func (e *Execution) run(ctx context.Context, ticker bt.Ticker) {
	if ctx == nil {
		ctx = context.Background()
	}
	var cancel context.CancelFunc = func() {}
	if e.opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
	}
	stopAfter := context.AfterFunc(ctx, func() {
		e.stop(context.Cause(ctx))
	})

	var group btcore.SubscriptionGroup
	if e.logger.Enabled(context.Background(), slog.LevelDebug) {
		group = btcore.SubscribeTree(e.root, func(n btcore.TreeNode, prev, cur btcore.NodeStatus) {
			e.logger.Debug("status change",
				"node", n.Name(),
				"type", n.Type(),
				"from", prev,
				"to", cur)
		})
	}

	e.logger.Info("execution started", "interval", e.opts.interval())

	go func() {
		select {
		case <-e.stopCh:
			ticker.Stop()
		case <-ticker.Done():
		}
	}()

	go func() {
		defer close(e.done)
		defer cancel()
		defer stopAfter()
		defer group.Unsubscribe()

		<-ticker.Done()
		if err := ticker.Err(); err != nil {
			e.stop(err)
		}
		e.stop(nil)
		if e.root.Status() == btcore.Running {
			e.logger.Debug("halting root")
			e.root.Halt()
		}
		e.status.Store(int32(e.root.Status()))
		e.logger.Info("execution finished",
			"status", e.Status(),
			"ticks", e.Ticks(),
			"error", e.Err())
	}()
}

// tick is the bt.Tick driven by the ticker.
func (e *Execution) tick([]bt.Node) (_ bt.Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			cerr, ok := r.(*btcore.ContractError)
			if !ok {
				panic(r)
			}
			err = cerr
		}
	}()

	select {
	case <-e.stopCh:
		return bt.Running, nil
	default:
	}

	n := e.ticks.Add(1)
	status := e.root.ExecuteTick()
	e.status.Store(int32(status))

	switch {
	case status.IsTerminal():
		e.stop(nil)
		if status == btcore.Success {
			return bt.Success, nil
		}
		return bt.Failure, nil
	case e.opts.MaxTicks > 0 && n >= int64(e.opts.MaxTicks):
		e.stop(fmt.Errorf("%w (%d)", ErrMaxTicks, e.opts.MaxTicks))
	}
	return bt.Running, nil
}
