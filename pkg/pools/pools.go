// Package pools recycles the scratch buffers the panel's hot paths burn
// through: transcript rendering on every dashboard poll and per-entry
// encoding on the event stream.
package pools

import (
	"bytes"
	"sync"
)

// maxRetainedCap bounds what goes back into the pool so one oversized
// transcript does not pin memory for the rest of the process.
const maxRetainedCap = 1 << 20

var buffers = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// GetBuffer returns an empty scratch buffer.
func GetBuffer() *bytes.Buffer {
	buf := buffers.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns buf to the pool. Callers must not touch the buffer
// afterwards; anything handed out of the pool scope has to be copied
// first. Oversized buffers are dropped rather than retained.
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxRetainedCap {
		return
	}
	buffers.Put(buf)
}
