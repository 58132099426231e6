package mumble

import (
	"context"
	"fmt"
	"net/netip"
	"sync"

	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/mumblelink/internal/logging"
	internalshm "github.com/srediag/mumblelink/internal/shm"
	"github.com/srediag/mumblelink/pkg/shm"
)

// Link reads a live link region. It is safe for concurrent use.
//
// Every Read method re-reads the mapped memory; nothing is cached. Reads never fail
// because of writer activity, but a composite value (a Pose, a Context, the whole
// Snapshot) may mix fields from consecutive writer updates.
type Link struct {
	mu     sync.RWMutex
	name   string
	region *shm.Region
	mem    []byte
	closed bool
}

// OpenOptions configures OpenWithOptions.
type OpenOptions struct {
	// Name is the resolved shared memory name, see LinkName.
	Name string
	// System overrides the OS mapping primitives.
	System shm.System
	Meter  metric.Meter
	Tracer trace.Tracer
}

// Open maps the named link region.
func Open(ctx context.Context, name string) (*Link, error) {
	return OpenWithOptions(ctx, OpenOptions{Name: name})
}

// OpenWithOptions maps the link region described by opts.
//
// DisabledName fails with ErrDisabled before any OS call. Names the platform cannot
// represent fail with ErrNameEncoding; OS refusals match ErrPlatform.
func OpenWithOptions(ctx context.Context, opts OpenOptions) (*Link, error) {
	if opts.Name == DisabledName {
		return nil, ErrDisabled
	}
	region, err := shm.Open(ctx, shm.OpenOptions{
		Name:   opts.Name,
		Size:   Size,
		System: opts.System,
		Meter:  opts.Meter,
		Tracer: opts.Tracer,
	})
	if err != nil {
		return nil, fmt.Errorf("mumble: open %q: %w", opts.Name, err)
	}
	mem := region.Bytes()
	if !internalshm.Aligned(mem) {
		if cerr := region.Close(); cerr != nil {
			logging.Internal.Warnf("mumble: close misaligned region %q: %v", opts.Name, cerr)
		}
		return nil, fmt.Errorf("mumble: open %q: %w", opts.Name, ErrMisaligned)
	}
	logging.Internal.Infof("mumble: link %q open", opts.Name)
	return &Link{name: opts.Name, region: region, mem: mem}, nil
}

// NewLink reads a region image held in caller-owned memory, for example a mapping made
// elsewhere. mem must hold at least Size bytes and start on a 4-byte boundary.
func NewLink(mem []byte) (*Link, error) {
	if len(mem) < Size {
		return nil, &DecodeError{Field: "region", Err: ErrShortImage}
	}
	if !internalshm.Aligned(mem) {
		return nil, ErrMisaligned
	}
	return &Link{mem: mem[:Size]}, nil
}

// Name returns the shared memory name, empty for a NewLink link.
func (l *Link) Name() string {
	return l.name
}

// Close releases the mapping. Reads after Close see a zeroed region, the same state as a
// region no writer has touched. Calling Close again is a no-op.
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.mem = make([]byte, Size)
	if l.region == nil {
		return nil
	}
	err := l.region.Close()
	l.region = nil
	logging.Internal.Infof("mumble: link %q closed", l.name)
	return err
}

// Closed reports whether Close was called.
func (l *Link) Closed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}

func (l *Link) rlock() source {
	l.mu.RLock()
	return liveSource(l.mem)
}

// Read copies the whole region into an owned Snapshot. Each word is read
// atomically; the Snapshot as a whole is not.
func (l *Link) Read() *Snapshot {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if cap(buf.B) < Size {
		buf.B = make([]byte, Size)
	}
	image := buf.B[:Size]

	l.mu.RLock()
	internalshm.LoadWords(image, l.mem, 0)
	l.mu.RUnlock()

	return readSnapshot(imageSource(image))
}

// ReadSettled reads a Snapshot bracketed by tick reads, retrying up to attempts times
// until the tick did not move during the copy. The last Snapshot is returned either way;
// ok reports whether it settled.
func (l *Link) ReadSettled(attempts int) (snap *Snapshot, ok bool) {
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		before := l.ReadUITick()
		snap = l.Read()
		if snap.UITick == before && l.ReadUITick() == before {
			return snap, true
		}
	}
	return snap, false
}

// ReadUIVersion reads the layout version.
func (l *Link) ReadUIVersion() uint32 {
	s := l.rlock()
	defer l.mu.RUnlock()
	return readU32(s, uiVersionOffset)
}

// ReadUITick reads the counter the writer bumps once per update.
func (l *Link) ReadUITick() uint32 {
	s := l.rlock()
	defer l.mu.RUnlock()
	return readU32(s, uiTickOffset)
}

// ReadAvatar reads the player pose. Updated every frame.
func (l *Link) ReadAvatar() Pose {
	s := l.rlock()
	defer l.mu.RUnlock()
	return readPose(s, avatarOffset)
}

// ReadName reads the game name up to its terminator.
func (l *Link) ReadName() []uint16 {
	s := l.rlock()
	defer l.mu.RUnlock()
	return readUntilNul(s, nameOffset, NameLen)
}

// ReadNameString reads the game name as a string.
func (l *Link) ReadNameString() string {
	return WideString(l.ReadName())
}

// ReadCamera reads the camera pose. Updated every frame.
func (l *Link) ReadCamera() Pose {
	s := l.rlock()
	defer l.mu.RUnlock()
	return readPose(s, cameraOffset)
}

// ReadIdentity reads the raw identity buffer up to its terminator.
func (l *Link) ReadIdentity() []uint16 {
	s := l.rlock()
	defer l.mu.RUnlock()
	return readUntilNul(s, identityOffset, IdentityLen)
}

// ReadIdentityString reads the identity buffer as a string.
func (l *Link) ReadIdentityString() string {
	return WideString(l.ReadIdentity())
}

// ParseIdentity reads and decodes the identity buffer. A *DecodeError is local to this
// call; the writer may publish valid contents by the next one.
func (l *Link) ParseIdentity() (Identity, error) {
	return ParseIdentity(l.ReadIdentity())
}

// ReadContextLen reads the declared context length as stored by the writer.
func (l *Link) ReadContextLen() uint32 {
	s := l.rlock()
	defer l.mu.RUnlock()
	return readU32(s, contextLenOffset)
}

// ReadContext reads the whole context block.
func (l *Link) ReadContext() Context {
	s := l.rlock()
	defer l.mu.RUnlock()
	return readContext(s)
}

// ReadServerAddress reads the raw server address blob.
func (l *Link) ReadServerAddress() [ServerAddressLen]byte {
	s := l.rlock()
	defer l.mu.RUnlock()
	return readServerAddress(s)
}

// ReadServerAddrPort reads and decodes the server address.
func (l *Link) ReadServerAddrPort() (netip.AddrPort, error) {
	return ServerAddrPort(l.ReadServerAddress())
}

// ReadMapID reads the current map id.
func (l *Link) ReadMapID() uint32 {
	return l.readContextU32(mapIDOffset)
}

// ReadMapType reads the current map type.
func (l *Link) ReadMapType() uint32 {
	return l.readContextU32(mapTypeOffset)
}

// ReadShardID reads the current shard id.
func (l *Link) ReadShardID() uint32 {
	return l.readContextU32(shardIDOffset)
}

// ReadInstance reads the current instance id.
func (l *Link) ReadInstance() uint32 {
	return l.readContextU32(instanceOffset)
}

// ReadBuildID reads the game build id.
func (l *Link) ReadBuildID() uint32 {
	return l.readContextU32(buildIDOffset)
}

// ReadUIState reads the UI state flags. Unknown bits are kept.
func (l *Link) ReadUIState() UIState {
	return UIState(l.readContextU32(uiStateOffset))
}

// ReadCompassWidth reads the compass width in pixels.
func (l *Link) ReadCompassWidth() uint16 {
	s := l.rlock()
	defer l.mu.RUnlock()
	return readU16(s, contextOffset+compassWidthOffset)
}

// ReadCompassHeight reads the compass height in pixels.
func (l *Link) ReadCompassHeight() uint16 {
	s := l.rlock()
	defer l.mu.RUnlock()
	return readU16(s, contextOffset+compassHeightOffset)
}

// ReadCompassDimensions reads width and height in pixels, from one word.
func (l *Link) ReadCompassDimensions() [2]uint16 {
	s := l.rlock()
	defer l.mu.RUnlock()
	b := wordBytes(s, contextOffset+compassWidthOffset)
	c := imageSource(b[:])
	return [2]uint16{readU16(c, 0), readU16(c, 2)}
}

// ReadCompassRotation reads the compass rotation in radians.
func (l *Link) ReadCompassRotation() float32 {
	return l.readContextF32(compassRotationOffset)
}

// ReadPlayerX reads the player x in continent coordinates. Not updated in competitive modes.
func (l *Link) ReadPlayerX() float32 {
	return l.readContextF32(playerXOffset)
}

// ReadPlayerY reads the player y in continent coordinates. Not updated in competitive modes.
func (l *Link) ReadPlayerY() float32 {
	return l.readContextF32(playerYOffset)
}

// ReadPlayerPosition reads the player position in continent coordinates.
func (l *Link) ReadPlayerPosition() [2]float32 {
	return [2]float32{l.ReadPlayerX(), l.ReadPlayerY()}
}

// ReadMapCenterX reads the map center x in continent coordinates.
func (l *Link) ReadMapCenterX() float32 {
	return l.readContextF32(mapCenterXOffset)
}

// ReadMapCenterY reads the map center y in continent coordinates.
func (l *Link) ReadMapCenterY() float32 {
	return l.readContextF32(mapCenterYOffset)
}

// ReadMapCenter reads the map center in continent coordinates.
func (l *Link) ReadMapCenter() [2]float32 {
	return [2]float32{l.ReadMapCenterX(), l.ReadMapCenterY()}
}

// ReadMapScale reads the map scale.
func (l *Link) ReadMapScale() float32 {
	return l.readContextF32(mapScaleOffset)
}

// ReadProcessID reads the writer's process id.
func (l *Link) ReadProcessID() uint32 {
	return l.readContextU32(processIDOffset)
}

// ReadMount reads the mount in use. Codes newer than the known set are returned as is.
func (l *Link) ReadMount() Mount {
	s := l.rlock()
	defer l.mu.RUnlock()
	return Mount(readU8(s, contextOffset+mountOffset))
}

// ReadDescription reads the game description up to its terminator.
func (l *Link) ReadDescription() []uint16 {
	s := l.rlock()
	defer l.mu.RUnlock()
	return readUntilNul(s, descriptionOffset, DescriptionLen)
}

// ReadDescriptionString reads the game description as a string.
func (l *Link) ReadDescriptionString() string {
	return WideString(l.ReadDescription())
}

func (l *Link) readContextU32(off int) uint32 {
	s := l.rlock()
	defer l.mu.RUnlock()
	return readU32(s, contextOffset+off)
}

func (l *Link) readContextF32(off int) float32 {
	s := l.rlock()
	defer l.mu.RUnlock()
	return readF32(s, contextOffset+off)
}
