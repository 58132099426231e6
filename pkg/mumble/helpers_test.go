package mumble

import (
	"unicode/utf16"
	"unsafe"

	internalshm "github.com/srediag/mumblelink/internal/shm"
	"github.com/srediag/mumblelink/pkg/shm"
)

// newRegion returns a zeroed, word aligned region image.
func newRegion() []byte {
	return alignedBytes(Size)
}

func alignedBytes(n int) []byte {
	words := make([]uint32, (n+internalshm.WordSize-1)/internalshm.WordSize)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*internalshm.WordSize)[:n]
}

// publish plays the writer: it stores snap into mem one atomic word at a time.
func publish(mem []byte, snap *Snapshot) {
	b, _ := snap.MarshalBinary()
	internalshm.StoreWords(mem, 0, b)
}

func wide(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

const scenarioIdentity = `{"name":"Test","profession":1,"spec":0,"race":2,"map_id":15,` +
	`"world_id":268435458,"team_color_id":0,"commander":false,"fov":0.873,"uisz":1}`

func scenarioSnapshot() *Snapshot {
	snap := &Snapshot{
		UIVersion:  7,
		UITick:     42,
		Avatar:     Pose{Position: [3]float32{1, 2, 3}},
		ContextLen: DefaultContextLen,
		Context: Context{
			MapID: 15,
			Mount: MountSkyscale,
		},
	}
	copy(snap.Name[:], wide("Test"))
	copy(snap.Identity[:], wide(scenarioIdentity))
	return snap
}

// memSystem hands out an in-process aligned region and counts every call.
type memSystem struct {
	mem    []byte
	mapErr error
	calls  int
	closes int
}

func (m *memSystem) Open(name string, size int) (shm.Handle, error) {
	m.calls++
	return 1, nil
}

func (m *memSystem) Map(h shm.Handle, size int, writable bool) ([]byte, error) {
	m.calls++
	if m.mapErr != nil {
		return nil, m.mapErr
	}
	if m.mem == nil {
		m.mem = newRegion()
	}
	return m.mem[:size], nil
}

func (m *memSystem) Unmap(view []byte) error {
	m.calls++
	return nil
}

func (m *memSystem) Close(h shm.Handle) error {
	m.calls++
	m.closes++
	return nil
}
