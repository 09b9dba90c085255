package leaf

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlackboard_ZeroValue(t *testing.T) {
	t.Parallel()

	var bb Blackboard
	assert.Nil(t, bb.Get("missing"))
	assert.False(t, bb.Has("missing"))
	assert.Zero(t, bb.Len())
	assert.Empty(t, bb.Keys())
	assert.Empty(t, bb.Snapshot())
	bb.Delete("missing")
	bb.Clear()
}

func TestBlackboard_Operations(t *testing.T) {
	t.Parallel()

	var bb Blackboard
	bb.Set("b", 2)
	bb.Set("a", "one")
	bb.Set("nil", nil)

	v, ok := bb.Lookup("nil")
	require.True(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, 2, bb.Get("b"))
	assert.Equal(t, []string{"a", "b", "nil"}, bb.Keys())
	assert.Equal(t, 3, bb.Len())

	snap := bb.Snapshot()
	snap["a"] = "changed"
	assert.Equal(t, "one", bb.Get("a"))

	bb.Delete("a")
	assert.False(t, bb.Has("a"))
	bb.Clear()
	assert.Zero(t, bb.Len())
}

func TestBlackboard_Concurrent(t *testing.T) {
	t.Parallel()

	var bb Blackboard
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", j%10)
				bb.Set(key, j)
				_ = bb.Get(key)
				_ = bb.Snapshot()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, bb.Len())
}
