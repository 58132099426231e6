package mumble

import (
	"encoding/binary"
	"math"

	"github.com/srediag/mumblelink/internal/shm"
)

// source yields the aligned 32-bit word at a byte offset of the region.
//
// Every field of the layout lives inside aligned words, so each primitive is read with
// exactly one word load. 16-bit and 8-bit fields are cut out of their containing word.
type source interface {
	word(off int) uint32
}

// liveSource reads the mapped region with atomic loads. The writer never synchronizes
// with us: a composite value read through it may mix writer generations.
type liveSource []byte

func (m liveSource) word(off int) uint32 {
	return shm.LoadUint32(m, off)
}

// imageSource reads an owned copy of the region.
type imageSource []byte

func (b imageSource) word(off int) uint32 {
	return binary.NativeEndian.Uint32(b[off:])
}

func readU32(s source, off int) uint32 {
	return s.word(off)
}

func readF32(s source, off int) float32 {
	return math.Float32frombits(s.word(off))
}

func wordBytes(s source, off int) [shm.WordSize]byte {
	var b [shm.WordSize]byte
	binary.NativeEndian.PutUint32(b[:], s.word(off&^(shm.WordSize-1)))
	return b
}

func readU16(s source, off int) uint16 {
	b := wordBytes(s, off)
	return binary.NativeEndian.Uint16(b[off&2:])
}

func readU8(s source, off int) uint8 {
	b := wordBytes(s, off)
	return b[off&(shm.WordSize-1)]
}

func readVec3(s source, off int) [3]float32 {
	return [3]float32{readF32(s, off), readF32(s, off+4), readF32(s, off+8)}
}

func readPose(s source, off int) Pose {
	return Pose{
		Position: readVec3(s, off),
		Front:    readVec3(s, off+12),
		Top:      readVec3(s, off+24),
	}
}

func readBytes(s source, off int, dst []byte) {
	for i := 0; i < len(dst); i += shm.WordSize {
		b := wordBytes(s, off+i)
		copy(dst[i:], b[:])
	}
}

// readUnits fills dst with the n = len(dst) code units at off, two per word.
func readUnits(s source, off int, dst []uint16) {
	for i := 0; i < len(dst); i += 2 {
		b := wordBytes(s, off+i*2)
		dst[i] = binary.NativeEndian.Uint16(b[0:])
		if i+1 < len(dst) {
			dst[i+1] = binary.NativeEndian.Uint16(b[2:])
		}
	}
}

// readUntilNul scans up to n code units at off and returns those before the first zero.
func readUntilNul(s source, off, n int) []uint16 {
	out := make([]uint16, 0, 32)
	for i := 0; i < n; i += 2 {
		b := wordBytes(s, off+i*2)
		lo := binary.NativeEndian.Uint16(b[0:])
		if lo == 0 {
			return out
		}
		out = append(out, lo)
		if i+1 >= n {
			break
		}
		hi := binary.NativeEndian.Uint16(b[2:])
		if hi == 0 {
			return out
		}
		out = append(out, hi)
	}
	return out
}

func readServerAddress(s source) [ServerAddressLen]byte {
	var a [ServerAddressLen]byte
	readBytes(s, contextOffset+serverAddressOffset, a[:])
	return a
}

func readContext(s source) Context {
	const base = contextOffset
	return Context{
		ServerAddress:   readServerAddress(s),
		MapID:           readU32(s, base+mapIDOffset),
		MapType:         readU32(s, base+mapTypeOffset),
		ShardID:         readU32(s, base+shardIDOffset),
		Instance:        readU32(s, base+instanceOffset),
		BuildID:         readU32(s, base+buildIDOffset),
		UIState:         UIState(readU32(s, base+uiStateOffset)),
		CompassWidth:    readU16(s, base+compassWidthOffset),
		CompassHeight:   readU16(s, base+compassHeightOffset),
		CompassRotation: readF32(s, base+compassRotationOffset),
		PlayerX:         readF32(s, base+playerXOffset),
		PlayerY:         readF32(s, base+playerYOffset),
		MapCenterX:      readF32(s, base+mapCenterXOffset),
		MapCenterY:      readF32(s, base+mapCenterYOffset),
		MapScale:        readF32(s, base+mapScaleOffset),
		ProcessID:       readU32(s, base+processIDOffset),
		Mount:           Mount(readU8(s, base+mountOffset)),
	}
}

func readSnapshot(s source) *Snapshot {
	snap := &Snapshot{
		UIVersion:  readU32(s, uiVersionOffset),
		UITick:     readU32(s, uiTickOffset),
		Avatar:     readPose(s, avatarOffset),
		Camera:     readPose(s, cameraOffset),
		ContextLen: readU32(s, contextLenOffset),
		Context:    readContext(s),
	}
	readUnits(s, nameOffset, snap.Name[:])
	readUnits(s, identityOffset, snap.Identity[:])
	readUnits(s, descriptionOffset, snap.Description[:])
	return snap
}
