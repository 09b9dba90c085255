// Package goroutineid identifies the calling goroutine, so that code holding a
// logical lock can tell whether a second acquisition comes from itself.
package goroutineid

import (
	"bytes"
	"runtime"
	"sync"
	"sync/atomic"
)

var stackBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 64)
		return &b
	},
}

var goroutinePrefix = []byte("goroutine ")

// Get returns the id of the calling goroutine, or 0 if it cannot be determined.
func Get() int64 {
	bp := stackBufPool.Get().(*[]byte)
	defer stackBufPool.Put(bp)
	// only the header line is needed, runtime.Stack truncates to len(buf)
	n := runtime.Stack(*bp, false)
	return parse((*bp)[:n])
}

// parse reads the id from a "goroutine N [status]:" stack header.
func parse(stack []byte) int64 {
	rest, ok := bytes.CutPrefix(stack, goroutinePrefix)
	if !ok {
		return 0
	}
	var id int64
	for _, b := range rest {
		if b < '0' || b > '9' {
			break
		}
		id = id*10 + int64(b-'0')
	}
	return id
}

// Owner records which goroutine currently runs a guarded section. The zero
// value is ready to use and owned by nobody.
type Owner struct {
	id atomic.Int64
}

// Enter marks the calling goroutine as owner, returning its id for Exit.
func (o *Owner) Enter() int64 {
	id := Get()
	o.id.Store(id)
	return id
}

// Exit clears ownership if it is still held by id.
func (o *Owner) Exit(id int64) {
	o.id.CompareAndSwap(id, 0)
}

// IsCurrent reports whether the calling goroutine is the owner.
func (o *Owner) IsCurrent() bool {
	id := o.id.Load()
	return id != 0 && id == Get()
}
