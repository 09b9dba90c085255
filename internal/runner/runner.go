// Package runner drives btcore trees. Each started root is ticked
// periodically by a go-behaviortree Ticker until it concludes, is stopped,
// or its context ends; a root left Running is halted before its Execution
// reports done. All tickers of a Runner are aggregated by a bt.Manager.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/go-btcore/internal/btcore"
)

// DefaultInterval is used when Options.Interval is not positive.
const DefaultInterval = 10 * time.Millisecond

var (
	// ErrStopped is returned by Start once the Runner has been stopped.
	ErrStopped = errors.New("runner: stopped")
	// ErrMaxTicks is the error of an Execution that reached its tick limit
	// without concluding.
	ErrMaxTicks = errors.New("runner: tick limit reached")
)

// Options configure how roots are ticked.
type Options struct {
	// Interval between ticks.
	Interval time.Duration
	// MaxTicks stops an execution after this many ticks. Zero is unlimited.
	MaxTicks int
	// Timeout stops an execution after this long. Zero is unlimited.
	Timeout time.Duration
	// Logger receives lifecycle records at Info and status transitions at
	// Debug. Nil uses slog.Default().
	Logger *slog.Logger
}

func (o Options) interval() time.Duration {
	if o.Interval > 0 {
		return o.Interval
	}
	return DefaultInterval
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Runner ticks any number of roots concurrently, one goroutine each.
type Runner struct {
	opts    Options
	manager bt.Manager
	ctx     context.Context
	cancel  context.CancelFunc

	mu         sync.Mutex
	stopped    bool
	executions []*Execution
}

func New(opts Options) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		opts:    opts,
		manager: bt.NewManager(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins ticking root. Cancelling ctx stops the execution gracefully,
// recording the context's cause as its error.
func (r *Runner) Start(ctx context.Context, root btcore.TreeNode) (*Execution, error) {
	if root == nil {
		return nil, errors.New("runner: nil root")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return nil, ErrStopped
	}

	e := newExecution(root, r.opts)
	ticker := bt.NewTicker(r.ctx, r.opts.interval(), bt.New(e.tick))
	if err := r.manager.Add(ticker); err != nil {
		ticker.Stop()
		return nil, fmt.Errorf("runner: add execution: %w", err)
	}
	e.run(ctx, ticker)
	r.executions = append(r.executions, e)
	return e, nil
}

// Executions returns every execution started, in start order.
func (r *Runner) Executions() []*Execution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.executions)
}

// Stop stops every execution and waits for their roots to be halted. It is
// safe to call more than once.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.stopped = true
	executions := slices.Clone(r.executions)
	r.mu.Unlock()

	r.manager.Stop()
	r.cancel()
	for _, e := range executions {
		<-e.Done()
	}
}

// Done is closed once the underlying manager has stopped, either through
// Stop or because an execution failed with an error.
func (r *Runner) Done() <-chan struct{} { return r.manager.Done() }

// Err returns the manager's aggregated error, if any.
func (r *Runner) Err() error { return r.manager.Err() }

// RunOnce ticks root until it concludes and returns the final status. A
// root that does not conclude (ctx done, tick limit, timeout) is halted and
// the cause returned alongside its status.
func RunOnce(ctx context.Context, root btcore.TreeNode, opts Options) (btcore.NodeStatus, error) {
	r := New(opts)
	defer r.Stop()
	e, err := r.Start(ctx, root)
	if err != nil {
		return btcore.Idle, err
	}
	<-e.Done()
	return e.Status(), e.Err()
}
