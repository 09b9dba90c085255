// Package testutil provides polling helpers for tests that drive trees whose
// leaves complete asynchronously.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/joeycumines/go-btcore/internal/btcore"
)

// WaitForState calls getter every interval until predicate accepts its
// result, timeout elapses, or ctx is done. The zero value is returned on
// failure.
func WaitForState[T any](ctx context.Context, getter func() T, predicate func(T) bool, timeout time.Duration, interval time.Duration) (T, error) {
	start := time.Now()
	for {
		state := getter()
		if predicate(state) {
			return state, nil
		}

		if time.Since(start) >= timeout {
			var zero T
			return zero, fmt.Errorf("timeout waiting for target state (type %T, threshold: %v)", *new(T), timeout)
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// TickUntil ticks n every interval until it returns one of want, which
// defaults to the terminal statuses.
func TickUntil(ctx context.Context, n btcore.TreeNode, timeout, interval time.Duration, want ...btcore.NodeStatus) (btcore.NodeStatus, error) {
	accept := func(s btcore.NodeStatus) bool {
		if len(want) == 0 {
			return s.IsTerminal()
		}
		return slices.Contains(want, s)
	}
	status, err := WaitForState(ctx, n.ExecuteTick, accept, timeout, interval)
	if err != nil {
		return status, fmt.Errorf("ticking %s: %w", n.Name(), err)
	}
	return status, nil
}

// WaitForStatus waits, without ticking, until n reports one of want.
func WaitForStatus(ctx context.Context, n btcore.TreeNode, timeout, interval time.Duration, want ...btcore.NodeStatus) (btcore.NodeStatus, error) {
	status, err := WaitForState(ctx, n.Status, func(s btcore.NodeStatus) bool {
		return slices.Contains(want, s)
	}, timeout, interval)
	if err != nil {
		return status, fmt.Errorf("waiting for %s to reach %v: %w", n.Name(), want, err)
	}
	return status, nil
}
