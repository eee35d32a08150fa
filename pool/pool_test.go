package pool_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/momentics/hioload-mw/pool"
)

func TestBytePoolSize(t *testing.T) {
	bp := pool.NewBytePool(0)
	if bp.Size() != pool.DefaultBufferSize {
		t.Fatalf("Size = %d", bp.Size())
	}
	buf := bp.GetBuffer()
	if len(*buf) != pool.DefaultBufferSize {
		t.Errorf("len = %d", len(*buf))
	}
	bp.PutBuffer(buf)

	small := make([]byte, 3)
	bp.PutBuffer(&small) // dropped
	bp.PutBuffer(nil)
	if got := bp.GetBuffer(); len(*got) != pool.DefaultBufferSize {
		t.Errorf("foreign buffer handed out: len %d", len(*got))
	}
}

func TestBytePoolCopy(t *testing.T) {
	bp := pool.NewBytePool(7)
	src := strings.Repeat("abcdefghij", 100)
	var dst bytes.Buffer
	n, err := bp.Copy(&dst, strings.NewReader(src))
	if err != nil || n != int64(len(src)) || dst.String() != src {
		t.Fatalf("Copy = %d, %v", n, err)
	}
}

func TestSyncPool(t *testing.T) {
	created := 0
	p := pool.NewSyncPool(func() []int {
		created++
		return make([]int, 0, 4)
	})
	var op pool.ObjectPool[[]int] = p
	s := op.Get()
	if cap(s) != 4 || created != 1 {
		t.Fatalf("cap %d created %d", cap(s), created)
	}
	op.Put(s)
}
