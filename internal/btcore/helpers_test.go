package btcore

import (
	"sync"
	"sync/atomic"
	"testing"
)

// scripted is a leaf returning a fixed sequence of statuses, repeating the
// last one once the script is exhausted.
type scripted struct {
	*Node
	mu     sync.Mutex
	script []NodeStatus
	pos    int
	ticks  atomic.Int32
	halts  atomic.Int32
}

func newScripted(name string, script ...NodeStatus) *scripted {
	if len(script) == 0 {
		script = []NodeStatus{Success}
	}
	s := &scripted{script: script}
	s.Node = NewNode(name, ActionNode, s)
	return s
}

func (s *scripted) Tick() NodeStatus {
	s.ticks.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	status := s.script[s.pos]
	if s.pos < len(s.script)-1 {
		s.pos++
	}
	return status
}

func (s *scripted) OnHalt() {
	s.halts.Add(1)
}

func (s *scripted) tickCount() int { return int(s.ticks.Load()) }

func (s *scripted) haltCount() int { return int(s.halts.Load()) }

// funcLeaf adapts a closure, for tests that need to block or re-enter.
type funcLeaf struct {
	*Node
	tick   func() NodeStatus
	onHalt func()
}

func newFuncLeaf(name string, tick func() NodeStatus, onHalt func()) *funcLeaf {
	f := &funcLeaf{tick: tick, onHalt: onHalt}
	f.Node = NewNode(name, ActionNode, f)
	return f
}

func (f *funcLeaf) Tick() NodeStatus { return f.tick() }

func (f *funcLeaf) OnHalt() {
	if f.onHalt != nil {
		f.onHalt()
	}
}

type transition struct {
	node     string
	previous NodeStatus
	current  NodeStatus
}

// recorder collects status changes from every node of a tree.
type recorder struct {
	mu    sync.Mutex
	seen  []transition
	group SubscriptionGroup
}

func record(t *testing.T, root TreeNode) *recorder {
	t.Helper()
	r := &recorder{}
	r.group = SubscribeTree(root, func(n TreeNode, prev, cur NodeStatus) {
		r.mu.Lock()
		r.seen = append(r.seen, transition{n.Name(), prev, cur})
		r.mu.Unlock()
	})
	t.Cleanup(r.group.Unsubscribe)
	return r
}

func (r *recorder) transitions() []transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]transition(nil), r.seen...)
}

func (r *recorder) of(name string) []transition {
	var out []transition
	for _, tr := range r.transitions() {
		if tr.node == name {
			out = append(out, tr)
		}
	}
	return out
}
