// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package bufferpool offers a pool of growable scratch buffers.
package bufferpool

import (
	"bytes"
	"sync"
)

// Pool maintains a pool of buffers. It offers a new buffer when one is
// unavailable.
//
// The zero value is an empty Pool, ready for use.
type Pool struct {
	// Size is the initial capacity of buffers allocated by this pool.
	Size int

	// MaxRetained is the largest capacity that a released buffer may have and
	// still be returned to the pool. If <= 0, every buffer is retained.
	MaxRetained int

	base sync.Pool
}

// Get returns an empty buffer, allocating one if one is not available.
//
// The caller should return the buffer to the pool by calling its Release
// method when done with it.
func (bp *Pool) Get() *Buffer {
	b, ok := bp.base.Get().(*Buffer)
	if !ok {
		b = &Buffer{}
		b.Grow(bp.Size)
	}
	b.pool = bp
	return b
}

func (bp *Pool) release(b *Buffer) {
	if bp.MaxRetained > 0 && b.Cap() > bp.MaxRetained {
		return
	}
	b.Reset()
	bp.base.Put(b)
}

// Buffer is a bytes.Buffer that can be released into a Pool for reuse.
//
// Failure to release Buffer will not cause a memory leak, but will prevent the
// reuse of the Buffer.
type Buffer struct {
	bytes.Buffer

	pool *Pool
}

// Detach returns a copy of the buffer's contents, which remains valid after
// the Buffer is released.
func (b *Buffer) Detach() []byte {
	out := make([]byte, b.Len())
	copy(out, b.Bytes())
	return out
}

// Release returns the buffer to its buffer pool. The buffer, and any slice
// obtained from its Bytes method, must not be used afterwards.
//
// A Buffer must only be released once.
func (b *Buffer) Release() {
	var pool *Pool
	pool, b.pool = b.pool, nil
	if pool != nil {
		pool.release(b)
	}
}
