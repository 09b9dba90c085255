package btcore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/joeycumines/go-btcore/internal/goroutineid"
	"github.com/joeycumines/go-btcore/internal/signal"
)

// TreeNode is the contract shared by every node in a tree. Parents drive
// children exclusively through ExecuteTick and Halt.
type TreeNode interface {
	Name() string
	SetName(name string)
	// UID is unique per instance, for log correlation. Names are not unique.
	UID() uuid.UUID
	Type() NodeType

	Status() NodeStatus
	// SetStatus is privileged: it is meant for the node itself and for test
	// harnesses. Everything else should go through ExecuteTick and Halt.
	SetStatus(status NodeStatus)
	IsHalted() bool

	// ExecuteTick runs one tick and returns the resulting status. Calling it
	// again while Running resumes the work, it does not restart it.
	ExecuteTick() NodeStatus
	// Halt stops in-progress work so that the next ExecuteTick starts fresh.
	// It returns once every Running descendant has been halted.
	Halt()

	// WaitValidStatus blocks while the status is Idle.
	WaitValidStatus() NodeStatus
	WaitValidStatusContext(ctx context.Context) (NodeStatus, error)

	SubscribeToStatusChange(fn StatusChangeCallback) *StatusChangeSubscriber
}

// Behavior is the node-kind specific part of a TreeNode, supplied to
// NewNode.
type Behavior interface {
	// Tick performs one unit of work. It must return Running, Success or
	// Failure.
	Tick() NodeStatus
	// OnHalt stops any asynchronous work and clears internal memory.
	// Composites halt their Running children here.
	OnHalt()
}

// StatusChange is delivered to subscribers on every status transition.
type StatusChange struct {
	Node     TreeNode
	Previous NodeStatus
	Current  NodeStatus
}

// StatusChangeCallback receives status transitions, synchronously, on the
// goroutine that performed them.
type StatusChangeCallback func(node TreeNode, previous, current NodeStatus)

// StatusChangeSubscriber keeps a StatusChangeCallback registered. Calling
// Unsubscribe, or dropping every reference to it, revokes the callback.
type StatusChangeSubscriber = signal.Subscription[StatusChange]

// Node implements the status machine, tick dispatch and halt protocol of
// TreeNode. Concrete kinds embed *Node and pass themselves as the Behavior.
//
// The status guard is held only across a read-modify-write. It is never held
// while Tick runs, nor while subscribers are notified.
type Node struct {
	self TreeNode
	impl Behavior
	kind NodeType
	uid  uuid.UUID

	nameMu sync.RWMutex
	name   string

	mu      sync.Mutex
	status  NodeStatus
	changed chan struct{}

	// tickMu serialises Tick and OnHalt
	tickMu       sync.Mutex
	ticking      goroutineid.Owner
	haltPending  atomic.Int32
	haltedInTick bool

	statusSignal signal.Signal[StatusChange]
}

// NewNode wires impl into a status machine. If impl embeds the returned
// *Node (the usual pattern), notifications and errors refer to impl.
func NewNode(name string, kind NodeType, impl Behavior) *Node {
	if impl == nil {
		panic("btcore: nil behavior")
	}
	n := &Node{
		impl:    impl,
		kind:    kind,
		uid:     uuid.New(),
		name:    name,
		status:  Idle,
		changed: make(chan struct{}),
	}
	if self, ok := impl.(TreeNode); ok {
		n.self = self
	} else {
		n.self = n
	}
	return n
}

func (n *Node) Name() string {
	n.nameMu.RLock()
	defer n.nameMu.RUnlock()
	return n.name
}

func (n *Node) SetName(name string) {
	n.nameMu.Lock()
	n.name = name
	n.nameMu.Unlock()
}

func (n *Node) UID() uuid.UUID { return n.uid }

func (n *Node) Type() NodeType { return n.kind }

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.kind, n.Name())
}

func (n *Node) Status() NodeStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.status
}

func (n *Node) SetStatus(status NodeStatus) {
	if prev, ok := n.swap(status); ok {
		n.emit(prev, status)
	}
}

// IsHalted reports whether the status is Idle.
func (n *Node) IsHalted() bool {
	return n.Status() == Idle
}

func (n *Node) ExecuteTick() NodeStatus {
	prev, next, changed := n.tick()
	if changed {
		n.emit(prev, next)
	}
	return next
}

func (n *Node) tick() (prev, next NodeStatus, changed bool) {
	n.tickMu.Lock()
	defer n.tickMu.Unlock()

	n.haltedInTick = false
	defer n.ticking.Exit(n.ticking.Enter())
	next = n.impl.Tick()

	switch next {
	case Running, Success, Failure:
	default:
		contractViolation(n.self, "tick returned %s", next)
	}

	if next == Running && (n.haltedInTick || n.haltPending.Load() > 0) {
		slog.Debug("btcore: halted during tick, forcing idle", "node", n.Name(), "uid", n.uid)
		next = Idle
	}
	n.haltedInTick = false

	prev, changed = n.swap(next)
	return prev, next, changed
}

// Halt waits for an in-flight tick on another goroutine to finish, then
// halts. Called from within the node's own Tick it proceeds immediately, and
// a Running result of that tick is recorded as Idle.
func (n *Node) Halt() {
	prev, changed := n.halt()
	if changed {
		n.emit(prev, Idle)
	}
}

func (n *Node) halt() (NodeStatus, bool) {
	if n.ticking.IsCurrent() {
		n.haltedInTick = true
		n.impl.OnHalt()
		return n.swapIf(Running, Idle)
	}

	n.haltPending.Add(1)
	defer n.haltPending.Add(-1)

	n.tickMu.Lock()
	defer n.tickMu.Unlock()
	n.impl.OnHalt()
	return n.swapIf(Running, Idle)
}

func (n *Node) WaitValidStatus() NodeStatus {
	status, _ := n.WaitValidStatusContext(context.Background())
	return status
}

// WaitValidStatusContext blocks until the status is anything but Idle, or
// ctx is done. Running satisfies the wait: callers needing a terminal
// result must loop.
func (n *Node) WaitValidStatusContext(ctx context.Context) (NodeStatus, error) {
	for {
		n.mu.Lock()
		status, changed := n.status, n.changed
		n.mu.Unlock()
		if status != Idle {
			return status, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return status, ctx.Err()
		}
	}
}

func (n *Node) SubscribeToStatusChange(fn StatusChangeCallback) *StatusChangeSubscriber {
	if fn == nil {
		panic("btcore: nil status change callback")
	}
	return n.statusSignal.Subscribe(func(c StatusChange) {
		fn(c.Node, c.Previous, c.Current)
	})
}

// swap stores status, waking waiters if it changed.
func (n *Node) swap(status NodeStatus) (prev NodeStatus, changed bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.swapLocked(status)
}

func (n *Node) swapIf(from, to NodeStatus) (prev NodeStatus, changed bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.status != from {
		return n.status, false
	}
	return n.swapLocked(to)
}

func (n *Node) swapLocked(status NodeStatus) (NodeStatus, bool) {
	prev := n.status
	if prev == status {
		return prev, false
	}
	n.status = status
	close(n.changed)
	n.changed = make(chan struct{})
	return prev, true
}

func (n *Node) emit(prev, next NodeStatus) {
	n.statusSignal.Emit(StatusChange{Node: n.self, Previous: prev, Current: next})
}

var (
	_ TreeNode = (*Node)(nil)
	_ TreeNode = (*Sequence)(nil)
	_ TreeNode = (*Fallback)(nil)
	_ TreeNode = (*Parallel)(nil)
	_ TreeNode = (*Inverter)(nil)
	_ TreeNode = (*ForceSuccess)(nil)
	_ TreeNode = (*ForceFailure)(nil)
	_ TreeNode = (*Retry)(nil)
	_ TreeNode = (*Repeat)(nil)
	_ TreeNode = (*SubTree)(nil)
)
