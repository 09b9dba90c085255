package btcore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_InitialState(t *testing.T) {
	t.Parallel()

	a := newScripted("a")
	b := newScripted("a")
	assert.Equal(t, "a", a.Name())
	assert.Equal(t, ActionNode, a.Type())
	assert.Equal(t, Idle, a.Status())
	assert.True(t, a.IsHalted())
	assert.NotEqual(t, a.UID(), b.UID())
	assert.Equal(t, "Action(a)", a.String())

	a.SetName("renamed")
	assert.Equal(t, "renamed", a.Name())
}

func TestNode_ExecuteTickNotifies(t *testing.T) {
	t.Parallel()

	leaf := newScripted("leaf", Running, Running, Success)
	var (
		mu      sync.Mutex
		changes []StatusChange
	)
	sub := leaf.SubscribeToStatusChange(func(n TreeNode, prev, cur NodeStatus) {
		mu.Lock()
		changes = append(changes, StatusChange{Node: n, Previous: prev, Current: cur})
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	require.Equal(t, Running, leaf.ExecuteTick())
	require.Equal(t, Running, leaf.ExecuteTick())
	require.Equal(t, Success, leaf.ExecuteTick())
	require.Equal(t, Success, leaf.Status())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 2, "unchanged status must not notify")
	assert.Equal(t, Idle, changes[0].Previous)
	assert.Equal(t, Running, changes[0].Current)
	assert.Equal(t, Running, changes[1].Previous)
	assert.Equal(t, Success, changes[1].Current)
	assert.Same(t, leaf, changes[0].Node, "notifications carry the concrete node")
}

func TestNode_SetStatus(t *testing.T) {
	t.Parallel()

	leaf := newScripted("leaf")
	var calls int
	sub := leaf.SubscribeToStatusChange(func(TreeNode, NodeStatus, NodeStatus) { calls++ })
	defer sub.Unsubscribe()

	leaf.SetStatus(Failure)
	leaf.SetStatus(Failure)
	assert.Equal(t, Failure, leaf.Status())
	assert.Equal(t, 1, calls)
	assert.False(t, leaf.IsHalted())
}

func TestNode_TickContractViolation(t *testing.T) {
	t.Parallel()

	for _, bad := range []NodeStatus{Idle, Exit} {
		leaf := newScripted("bad", bad)
		func() {
			defer func() {
				r := recover()
				require.NotNil(t, r)
				cerr, ok := r.(*ContractError)
				require.True(t, ok, "%T", r)
				assert.Equal(t, "bad", cerr.Node)
				assert.Equal(t, ActionNode, cerr.Type)
				assert.Contains(t, cerr.Error(), bad.String())
			}()
			leaf.ExecuteTick()
		}()
		assert.Equal(t, Idle, leaf.Status())
	}
}

func TestNode_SubscribeNilPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { newScripted("x").SubscribeToStatusChange(nil) })
}

func TestNode_Unsubscribe(t *testing.T) {
	t.Parallel()

	leaf := newScripted("leaf", Running, Success, Failure)
	var first, second int
	sub1 := leaf.SubscribeToStatusChange(func(TreeNode, NodeStatus, NodeStatus) { first++ })

	leaf.ExecuteTick()
	sub1.Unsubscribe()
	sub1.Unsubscribe()
	leaf.ExecuteTick()

	sub2 := leaf.SubscribeToStatusChange(func(TreeNode, NodeStatus, NodeStatus) { second++ })
	defer sub2.Unsubscribe()
	leaf.ExecuteTick()

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second, "a new subscription only sees later changes")
}

func TestNode_HaltRunning(t *testing.T) {
	t.Parallel()

	leaf := newScripted("leaf", Running)
	require.Equal(t, Running, leaf.ExecuteTick())

	leaf.Halt()
	assert.Equal(t, Idle, leaf.Status())
	assert.Equal(t, 1, leaf.haltCount())
}

func TestNode_HaltTerminalLeavesStatus(t *testing.T) {
	t.Parallel()

	leaf := newScripted("leaf", Failure)
	leaf.ExecuteTick()

	var calls int
	sub := leaf.SubscribeToStatusChange(func(TreeNode, NodeStatus, NodeStatus) { calls++ })
	defer sub.Unsubscribe()

	leaf.Halt()
	assert.Equal(t, Failure, leaf.Status())
	assert.Equal(t, 1, leaf.haltCount(), "halt still clears internal memory")
	assert.Zero(t, calls)
}

func TestNode_WaitValidStatus(t *testing.T) {
	t.Parallel()

	leaf := newScripted("leaf", Success)
	done := make(chan NodeStatus, 1)
	go func() { done <- leaf.WaitValidStatus() }()

	select {
	case <-done:
		t.Fatal("wait returned while idle")
	case <-time.After(20 * time.Millisecond):
	}

	go leaf.ExecuteTick()

	select {
	case status := <-done:
		assert.Equal(t, Success, status)
	case <-time.After(5 * time.Second):
		t.Fatal("wait never returned")
	}
}

func TestNode_WaitValidStatusRunningSatisfies(t *testing.T) {
	t.Parallel()

	leaf := newScripted("leaf", Running)
	leaf.ExecuteTick()
	assert.Equal(t, Running, leaf.WaitValidStatus())
}

func TestNode_WaitValidStatusContext(t *testing.T) {
	t.Parallel()

	leaf := newScripted("leaf")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	status, err := leaf.WaitValidStatusContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Idle, status)
}

func TestNode_HaltDuringTickForcesIdle(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	var halts int
	leaf := newFuncLeaf("slow", func() NodeStatus {
		close(entered)
		<-release
		return Running
	}, func() { halts++ })

	ticked := make(chan NodeStatus, 1)
	go func() { ticked <- leaf.ExecuteTick() }()
	<-entered

	halted := make(chan struct{})
	go func() {
		leaf.Halt()
		close(halted)
	}()

	select {
	case <-halted:
		t.Fatal("halt returned before the in-flight tick finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)

	select {
	case status := <-ticked:
		assert.Equal(t, Idle, status)
	case <-time.After(5 * time.Second):
		t.Fatal("tick never returned")
	}
	select {
	case <-halted:
	case <-time.After(5 * time.Second):
		t.Fatal("halt never returned")
	}

	assert.Equal(t, Idle, leaf.Status())
	assert.Equal(t, 1, halts)
}

func TestNode_HaltFromOwnTick(t *testing.T) {
	t.Parallel()

	var (
		leaf  *funcLeaf
		halts int
	)
	leaf = newFuncLeaf("self", func() NodeStatus {
		leaf.Halt()
		return Running
	}, func() { halts++ })

	done := make(chan NodeStatus, 1)
	go func() { done <- leaf.ExecuteTick() }()
	select {
	case status := <-done:
		assert.Equal(t, Idle, status)
	case <-time.After(5 * time.Second):
		t.Fatal("self halt deadlocked")
	}
	assert.Equal(t, 1, halts)

	// the flag does not leak into the next tick
	leaf.tick = func() NodeStatus { return Running }
	assert.Equal(t, Running, leaf.ExecuteTick())
}

func TestNode_CallbackMayReenter(t *testing.T) {
	t.Parallel()

	leaf := newScripted("leaf", Running, Success)
	other := newScripted("other", Failure)

	done := make(chan struct{})
	sub := leaf.SubscribeToStatusChange(func(n TreeNode, _, cur NodeStatus) {
		if cur == Running {
			other.ExecuteTick()
			n.Halt()
		}
	})
	defer sub.Unsubscribe()

	go func() {
		leaf.ExecuteTick()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("re-entrant callback deadlocked")
	}

	assert.Equal(t, Idle, leaf.Status())
	assert.Equal(t, Failure, other.Status())
}

func TestNode_ConcurrentReadersAndTicks(t *testing.T) {
	t.Parallel()

	leaf := newScripted("leaf", Running)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				leaf.ExecuteTick()
				leaf.Halt()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = leaf.Status()
				_ = leaf.Name()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, leaf.tickCount())
}
