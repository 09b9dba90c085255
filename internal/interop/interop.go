// Package interop adapts between btcore trees and go-behaviortree nodes, so
// that leaves written against either engine can be used in the other.
//
// go-behaviortree has no halt: a bt.Node wrapped by FromNode keeps whatever
// state its closures hold across a btcore halt. Nodes built from stateless
// ticks (the common case) are unaffected.
package interop

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/go-btcore/internal/btcore"
)

// ErrUnknownStatus is returned for statuses with no counterpart in the other
// engine.
var ErrUnknownStatus = errors.New("interop: unknown status")

// FromStatus maps a go-behaviortree status.
func FromStatus(s bt.Status) (btcore.NodeStatus, error) {
	switch s {
	case bt.Running:
		return btcore.Running, nil
	case bt.Success:
		return btcore.Success, nil
	case bt.Failure:
		return btcore.Failure, nil
	default:
		return btcore.Failure, fmt.Errorf("%w: %v", ErrUnknownStatus, s)
	}
}

// ToStatus maps a btcore status. Idle, reported by a node halted during its
// tick, maps to bt.Running: the node must be ticked again. Exit has no
// counterpart.
func ToStatus(s btcore.NodeStatus) (bt.Status, error) {
	switch s {
	case btcore.Running, btcore.Idle:
		return bt.Running, nil
	case btcore.Success:
		return bt.Success, nil
	case btcore.Failure:
		return bt.Failure, nil
	default:
		return bt.Failure, fmt.Errorf("%w: %v", ErrUnknownStatus, s)
	}
}

// Leaf is a btcore leaf ticking a go-behaviortree node. A tick error is a
// Failure, kept for LastError.
type Leaf struct {
	*btcore.Node
	node bt.Node

	mu      sync.Mutex
	lastErr error
}

// FromNode wraps node as a leaf of the given kind, normally ActionNode or
// ConditionNode.
func FromNode(name string, kind btcore.NodeType, node bt.Node) *Leaf {
	if node == nil {
		panic("interop: nil bt.Node")
	}
	l := &Leaf{node: node}
	l.Node = btcore.NewNode(name, kind, l)
	return l
}

// Source returns the wrapped node.
func (l *Leaf) Source() bt.Node { return l.node }

func (l *Leaf) LastError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

func (l *Leaf) Tick() btcore.NodeStatus {
	status, err := l.node.Tick()
	if err == nil {
		var mapped btcore.NodeStatus
		if mapped, err = FromStatus(status); err == nil {
			l.setErr(nil)
			return mapped
		}
	}
	l.setErr(err)
	slog.Warn("interop: bt node tick failed", "node", l.Name(), "error", err)
	return btcore.Failure
}

func (l *Leaf) OnHalt() {}

func (l *Leaf) setErr(err error) {
	l.mu.Lock()
	l.lastErr = err
	l.mu.Unlock()
}

// ToNode exposes n as a go-behaviortree node. Each bt tick is one
// ExecuteTick of n.
func ToNode(n btcore.TreeNode) bt.Node {
	if n == nil {
		panic("interop: nil TreeNode")
	}
	return bt.New(func([]bt.Node) (bt.Status, error) {
		return ToStatus(n.ExecuteTick())
	})
}
