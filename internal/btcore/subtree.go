package btcore

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Tree is a shared tree fragment. SubTree nodes referencing it hold a
// reference each; when the last reference is released the fragment's root
// is halted.
type Tree struct {
	root TreeNode
	refs atomic.Int64
}

// NewTree returns a fragment with no references held.
func NewTree(root TreeNode) *Tree {
	if root == nil {
		panic("btcore: nil tree root")
	}
	return &Tree{root: root}
}

func (t *Tree) Root() TreeNode { return t.root }

// Refs returns the number of references currently held.
func (t *Tree) Refs() int { return int(t.refs.Load()) }

// Acquire adds a reference.
func (t *Tree) Acquire() *Tree {
	t.refs.Add(1)
	return t
}

// Release drops a reference, reporting whether it was the last one.
func (t *Tree) Release() bool {
	switch n := t.refs.Add(-1); {
	case n > 0:
		return false
	case n < 0:
		panic("btcore: tree released more often than acquired")
	}
	if t.root.Status() == Running {
		slog.Debug("btcore: halting released tree", "root", t.root.Name())
		t.root.Halt()
	}
	return true
}

// SubTree delegates to the root of a shared Tree. Unlike the children of
// control and decorator nodes, the fragment is not owned exclusively: the
// same Tree may back several SubTree nodes, which must then not be ticked
// within the same cycle.
type SubTree struct {
	*Node
	tree      *Tree
	closeOnce sync.Once
}

// NewSubTree acquires a reference to tree; Close releases it.
func NewSubTree(name string, tree *Tree) *SubTree {
	if tree == nil {
		panic("btcore: nil tree")
	}
	s := &SubTree{tree: tree.Acquire()}
	s.Node = NewNode(name, SubTreeNode, s)
	return s
}

func (s *SubTree) Tree() *Tree { return s.tree }

func (s *SubTree) Tick() NodeStatus {
	switch status := s.tree.root.ExecuteTick(); status {
	case Success, Failure:
		return status
	default:
		return Running
	}
}

func (s *SubTree) OnHalt() {
	if s.tree.root.Status() == Running {
		s.tree.root.Halt()
	}
}

// Close releases the reference to the shared tree. It is idempotent.
func (s *SubTree) Close() error {
	s.closeOnce.Do(func() {
		s.tree.Release()
	})
	return nil
}
