package shm

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"
)

// WordSize is the access granularity of every shared memory load and store.
const WordSize = 4

// LoadUint32 loads the 32-bit word at off in mem atomically.
// off must be a multiple of WordSize and mem must start on a word boundary.
func LoadUint32(mem []byte, off int) uint32 {
	_ = mem[off+WordSize-1]
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&mem[off])))
}

// StoreUint32 stores a 32-bit word at off in mem atomically.
func StoreUint32(mem []byte, off int, val uint32) {
	_ = mem[off+WordSize-1]
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&mem[off])), val)
}

// LoadWords copies len(dst) bytes starting at off into dst, one atomic word load at a time.
// len(dst) must be a multiple of WordSize.
func LoadWords(dst, mem []byte, off int) {
	if len(dst) == 0 {
		return
	}
	_ = mem[off+len(dst)-1]
	for i := 0; i+WordSize <= len(dst); i += WordSize {
		binary.NativeEndian.PutUint32(dst[i:], atomic.LoadUint32((*uint32)(unsafe.Pointer(&mem[off+i]))))
	}
}

// StoreWords copies src into mem at off, one atomic word store at a time.
// len(src) must be a multiple of WordSize.
func StoreWords(mem []byte, off int, src []byte) {
	if len(src) == 0 {
		return
	}
	_ = mem[off+len(src)-1]
	for i := 0; i+WordSize <= len(src); i += WordSize {
		atomic.StoreUint32((*uint32)(unsafe.Pointer(&mem[off+i])), binary.NativeEndian.Uint32(src[i:]))
	}
}

// Aligned reports whether mem starts on a word boundary.
func Aligned(mem []byte) bool {
	return len(mem) > 0 && uintptr(unsafe.Pointer(&mem[0]))%WordSize == 0
}
