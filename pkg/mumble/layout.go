package mumble

import (
	"encoding/binary"
	"math"
)

// Capacities of the fixed UTF-16 buffers, in code units.
const (
	NameLen          = 256
	IdentityLen      = 256
	DescriptionLen   = 2048
	ServerAddressLen = 28
)

// Root layout. Every offset is in bytes from the start of the region.
const (
	poseSize = 3 * 3 * 4

	uiVersionOffset   = 0
	uiTickOffset      = uiVersionOffset + 4
	avatarOffset      = uiTickOffset + 4
	nameOffset        = avatarOffset + poseSize
	cameraOffset      = nameOffset + NameLen*2
	identityOffset    = cameraOffset + poseSize
	contextLenOffset  = identityOffset + IdentityLen*2
	contextOffset     = contextLenOffset + 4
	descriptionOffset = contextOffset + ContextSize

	// Size is the exact byte size of the region.
	Size = descriptionOffset + DescriptionLen*2
)

// Context layout, relative to contextOffset.
const (
	serverAddressOffset   = 0
	mapIDOffset           = serverAddressOffset + ServerAddressLen
	mapTypeOffset         = mapIDOffset + 4
	shardIDOffset         = mapTypeOffset + 4
	instanceOffset        = shardIDOffset + 4
	buildIDOffset         = instanceOffset + 4
	uiStateOffset         = buildIDOffset + 4
	compassWidthOffset    = uiStateOffset + 4
	compassHeightOffset   = compassWidthOffset + 2
	compassRotationOffset = compassHeightOffset + 2
	playerXOffset         = compassRotationOffset + 4
	playerYOffset         = playerXOffset + 4
	mapCenterXOffset      = playerYOffset + 4
	mapCenterYOffset      = mapCenterXOffset + 4
	mapScaleOffset        = mapCenterYOffset + 4
	processIDOffset       = mapScaleOffset + 4
	mountOffset           = processIDOffset + 4

	// ContextSize is the size of the context block including trailing padding.
	ContextSize = (mountOffset + 1 + 3) &^ 3
)

// DefaultContextLen is the context length the game stores, smaller than ContextSize.
const DefaultContextLen = 48

// Snapshot is an owned copy of the whole region at one instant.
//
// Each primitive was read without tearing, but fields may come from different writer
// generations; compare UITick against a later ReadUITick to detect that.
type Snapshot struct {
	UIVersion uint32
	UITick    uint32
	Avatar    Pose
	Name      [NameLen]uint16
	Camera    Pose
	Identity  [IdentityLen]uint16
	// ContextLen is stored as found; it is not derived from ContextSize.
	ContextLen  uint32
	Context     Context
	Description [DescriptionLen]uint16
}

// NameUnits returns the name up to its terminator.
func (s *Snapshot) NameUnits() []uint16 {
	return UntilNul(s.Name[:])
}

// NameString returns the name as a string.
func (s *Snapshot) NameString() string {
	return WideString(s.NameUnits())
}

// IdentityUnits returns the identity buffer up to its terminator.
func (s *Snapshot) IdentityUnits() []uint16 {
	return UntilNul(s.Identity[:])
}

// IdentityString returns the identity buffer as a string.
func (s *Snapshot) IdentityString() string {
	return WideString(s.IdentityUnits())
}

// ParseIdentity decodes the identity buffer.
func (s *Snapshot) ParseIdentity() (Identity, error) {
	return ParseIdentity(s.Identity[:])
}

// DescriptionUnits returns the description up to its terminator.
func (s *Snapshot) DescriptionUnits() []uint16 {
	return UntilNul(s.Description[:])
}

// DescriptionString returns the description as a string.
func (s *Snapshot) DescriptionString() string {
	return WideString(s.DescriptionUnits())
}

// Decode decodes a region image of at least Size bytes in native byte order.
func Decode(b []byte) (*Snapshot, error) {
	if len(b) < Size {
		return nil, &DecodeError{Field: "region", Err: ErrShortImage}
	}
	return readSnapshot(imageSource(b[:Size])), nil
}

// UnmarshalBinary decodes a region image.
func (s *Snapshot) UnmarshalBinary(b []byte) error {
	d, err := Decode(b)
	if err != nil {
		return err
	}
	*s = *d
	return nil
}

// MarshalBinary encodes s as a region image of Size bytes. Padding is zero.
func (s *Snapshot) MarshalBinary() ([]byte, error) {
	b := make([]byte, Size)
	s.encode(b)
	return b, nil
}

func (s *Snapshot) encode(b []byte) {
	ne := binary.NativeEndian
	ne.PutUint32(b[uiVersionOffset:], s.UIVersion)
	ne.PutUint32(b[uiTickOffset:], s.UITick)
	putPose(b[avatarOffset:], s.Avatar)
	putUnits(b[nameOffset:], s.Name[:])
	putPose(b[cameraOffset:], s.Camera)
	putUnits(b[identityOffset:], s.Identity[:])
	ne.PutUint32(b[contextLenOffset:], s.ContextLen)
	s.Context.encode(b[contextOffset : contextOffset+ContextSize])
	putUnits(b[descriptionOffset:], s.Description[:])
}

func (c *Context) encode(b []byte) {
	ne := binary.NativeEndian
	copy(b[serverAddressOffset:], c.ServerAddress[:])
	ne.PutUint32(b[mapIDOffset:], c.MapID)
	ne.PutUint32(b[mapTypeOffset:], c.MapType)
	ne.PutUint32(b[shardIDOffset:], c.ShardID)
	ne.PutUint32(b[instanceOffset:], c.Instance)
	ne.PutUint32(b[buildIDOffset:], c.BuildID)
	ne.PutUint32(b[uiStateOffset:], uint32(c.UIState))
	ne.PutUint16(b[compassWidthOffset:], c.CompassWidth)
	ne.PutUint16(b[compassHeightOffset:], c.CompassHeight)
	ne.PutUint32(b[compassRotationOffset:], math.Float32bits(c.CompassRotation))
	ne.PutUint32(b[playerXOffset:], math.Float32bits(c.PlayerX))
	ne.PutUint32(b[playerYOffset:], math.Float32bits(c.PlayerY))
	ne.PutUint32(b[mapCenterXOffset:], math.Float32bits(c.MapCenterX))
	ne.PutUint32(b[mapCenterYOffset:], math.Float32bits(c.MapCenterY))
	ne.PutUint32(b[mapScaleOffset:], math.Float32bits(c.MapScale))
	ne.PutUint32(b[processIDOffset:], c.ProcessID)
	b[mountOffset] = byte(c.Mount)
	for i := mountOffset + 1; i < ContextSize; i++ {
		b[i] = 0
	}
}

func putVec3(b []byte, v [3]float32) {
	for i, f := range v {
		binary.NativeEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
}

func putPose(b []byte, p Pose) {
	putVec3(b, p.Position)
	putVec3(b[12:], p.Front)
	putVec3(b[24:], p.Top)
}

func putUnits(b []byte, units []uint16) {
	for i, u := range units {
		binary.NativeEndian.PutUint16(b[i*2:], u)
	}
}
