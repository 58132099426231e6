package shm

import (
	"encoding/binary"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func alignedBuffer(n int) []byte {
	words := make([]uint32, (n+WordSize-1)/WordSize)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*WordSize)[:n]
}

func TestLoadStoreUint32(t *testing.T) {
	mem := alignedBuffer(16)
	assert.True(t, Aligned(mem))
	StoreUint32(mem, 4, 0x01020304)
	assert.Equal(t, uint32(0x01020304), LoadUint32(mem, 4))
	assert.Equal(t, uint32(0x01020304), binary.NativeEndian.Uint32(mem[4:]))
	assert.Equal(t, uint32(0), LoadUint32(mem, 0))
	assert.Panics(t, func() { LoadUint32(mem, 16) })
}

func TestLoadStoreWords(t *testing.T) {
	mem := alignedBuffer(32)
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	StoreWords(mem, 8, src)
	assert.Equal(t, src, mem[8:16])

	dst := make([]byte, 8)
	LoadWords(dst, mem, 8)
	assert.Equal(t, src, dst)

	LoadWords(nil, mem, 0)
	StoreWords(mem, 0, nil)
}

func TestAligned(t *testing.T) {
	mem := alignedBuffer(16)
	assert.False(t, Aligned(mem[1:]))
	assert.False(t, Aligned(nil))
}

func TestWordsNeverTear(t *testing.T) {
	mem := alignedBuffer(64)
	patterns := []uint32{0, 0xffffffff, 0x0f0f0f0f, 0xf0f0f0f0}
	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			for off := 0; off < len(mem); off += WordSize {
				StoreUint32(mem, off, patterns[i%len(patterns)])
			}
		}
	}()
	for i := 0; i < 10000; i++ {
		v := LoadUint32(mem, (i%16)*WordSize)
		assert.Contains(t, patterns, v)
	}
	close(stop)
	wg.Wait()
}
