package btcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInverter(t *testing.T) {
	t.Parallel()

	child := newScripted("c", Success, Failure, Running)
	d := NewInverter("inv", child)
	assert.Equal(t, DecoratorNode, d.Type())
	assert.Same(t, child, d.Child())

	assert.Equal(t, Failure, d.ExecuteTick())
	assert.Equal(t, Success, d.ExecuteTick())
	assert.Equal(t, Running, d.ExecuteTick())

	d.Halt()
	assert.Equal(t, Idle, child.Status())
	assert.Equal(t, Idle, d.Status())
}

func TestForceSuccessAndFailure(t *testing.T) {
	t.Parallel()

	fs := NewForceSuccess("fs", newScripted("c", Failure, Running))
	assert.Equal(t, Success, fs.ExecuteTick())
	assert.Equal(t, Running, fs.ExecuteTick())

	ff := NewForceFailure("ff", newScripted("c", Success, Running))
	assert.Equal(t, Failure, ff.ExecuteTick())
	assert.Equal(t, Running, ff.ExecuteTick())
}

func TestRetry_SucceedsWithinAttempts(t *testing.T) {
	t.Parallel()

	child := newScripted("c", Failure, Failure, Success)
	d := NewRetry("retry", 3, OnSuccessOrFailure, child)
	assert.Equal(t, 3, d.Attempts())

	require.Equal(t, Success, d.ExecuteTick())
	assert.Equal(t, 3, child.tickCount(), "failed attempts retry within the same tick")
	assert.Zero(t, d.Count())
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	child := newScripted("c", Failure)
	d := NewRetry("retry", 2, OnSuccessOrFailure, child)
	require.Equal(t, Failure, d.ExecuteTick())
	assert.Equal(t, 2, child.tickCount())
	assert.Zero(t, d.Count())
}

func TestRetry_RunningPausesAttempts(t *testing.T) {
	t.Parallel()

	child := newScripted("c", Failure, Running, Failure, Success)
	d := NewRetry("retry", 3, OnSuccessOrFailure, child)

	require.Equal(t, Running, d.ExecuteTick())
	assert.Equal(t, 1, d.Count())
	require.Equal(t, Success, d.ExecuteTick())
	assert.Equal(t, 4, child.tickCount())
}

func TestRetry_OnFailureKeepsCountAcrossSuccess(t *testing.T) {
	t.Parallel()

	child := newScripted("c", Failure, Success, Failure, Failure)
	d := NewRetry("retry", 3, OnFailure, child)
	assert.Equal(t, OnFailure, d.ResetPolicy())

	require.Equal(t, Success, d.ExecuteTick())
	assert.Equal(t, 1, d.Count(), "success does not clear the counter under OnFailure")

	require.Equal(t, Failure, d.ExecuteTick())
	assert.Equal(t, 4, child.tickCount(), "only two attempts were left")
	assert.Zero(t, d.Count(), "the concluding failure clears it")
}

func TestRetry_OnSuccessKeepsCountAcrossFailure(t *testing.T) {
	t.Parallel()

	child := newScripted("c", Failure, Failure, Failure)
	d := NewRetry("retry", 2, OnSuccess, child)

	require.Equal(t, Failure, d.ExecuteTick())
	assert.Equal(t, 2, d.Count())
	require.Equal(t, Failure, d.ExecuteTick())
	assert.Equal(t, 3, d.Count())
	assert.Equal(t, 3, child.tickCount())
}

func TestRetry_HaltClearsCounter(t *testing.T) {
	t.Parallel()

	child := newScripted("c", Failure, Running)
	d := NewRetry("retry", 5, OnSuccess, child)

	require.Equal(t, Running, d.ExecuteTick())
	require.Equal(t, 1, d.Count())
	d.Halt()
	assert.Zero(t, d.Count())
	assert.Equal(t, 1, child.haltCount())
	assert.Equal(t, Idle, d.Status())
}

func TestRetry_InvalidAttemptsPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewRetry("r", 0, OnSuccessOrFailure, newScripted("c")) })
	assert.Panics(t, func() { NewRepeat("r", -1, OnSuccessOrFailure, newScripted("c")) })
}

func TestRepeat(t *testing.T) {
	t.Parallel()

	child := newScripted("c", Success)
	d := NewRepeat("repeat", 3, OnSuccessOrFailure, child)
	assert.Equal(t, 3, d.Cycles())

	require.Equal(t, Success, d.ExecuteTick())
	assert.Equal(t, 3, child.tickCount())
	assert.Zero(t, d.Count())
}

func TestRepeat_FailureStops(t *testing.T) {
	t.Parallel()

	child := newScripted("c", Success, Failure)
	d := NewRepeat("repeat", 5, OnSuccessOrFailure, child)
	require.Equal(t, Failure, d.ExecuteTick())
	assert.Equal(t, 2, child.tickCount())
	assert.Zero(t, d.Count())
}

func TestRepeat_OnFailureKeepsCountAcrossSuccess(t *testing.T) {
	t.Parallel()

	child := newScripted("c", Success, Success, Success, Success)
	d := NewRepeat("repeat", 2, OnFailure, child)

	require.Equal(t, Success, d.ExecuteTick())
	assert.Equal(t, 2, d.Count())
	// the counter already meets the cycle count, one more success concludes
	require.Equal(t, Success, d.ExecuteTick())
	assert.Equal(t, 3, d.Count())
	assert.Equal(t, 3, child.tickCount())
}

func TestRepeat_RunningAndHalt(t *testing.T) {
	t.Parallel()

	child := newScripted("c", Success, Running)
	d := NewRepeat("repeat", 3, OnSuccessOrFailure, child)

	require.Equal(t, Running, d.ExecuteTick())
	assert.Equal(t, 1, d.Count())
	d.Halt()
	assert.Zero(t, d.Count())
	assert.Equal(t, Idle, child.Status())
}
