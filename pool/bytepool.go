// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

import "io"

// DefaultBufferSize is the copy buffer size used by Default.
const DefaultBufferSize = 32 * 1024

// BytePool hands out fixed size copy buffers.
type BytePool struct {
	p    *SyncPool[*[]byte]
	size int
}

// NewBytePool creates a pool of size byte buffers. size <= 0 uses
// DefaultBufferSize.
func NewBytePool(size int) *BytePool {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &BytePool{
		p: NewSyncPool(func() *[]byte {
			b := make([]byte, size)
			return &b
		}),
		size: size,
	}
}

// Default is the pool shared by the stream services.
var Default = NewBytePool(DefaultBufferSize)

// Size returns the buffer length.
func (b *BytePool) Size() int { return b.size }

// GetBuffer returns a buffer of Size() bytes.
func (b *BytePool) GetBuffer() *[]byte {
	return b.p.Get()
}

// PutBuffer returns buf. Buffers of a foreign size are dropped.
func (b *BytePool) PutBuffer(buf *[]byte) {
	if buf == nil || len(*buf) != b.size {
		return
	}
	b.p.Put(buf)
}

// Copy is io.CopyBuffer with a pooled buffer.
func (b *BytePool) Copy(dst io.Writer, src io.Reader) (int64, error) {
	buf := b.GetBuffer()
	defer b.PutBuffer(buf)
	return io.CopyBuffer(dst, src, *buf)
}
