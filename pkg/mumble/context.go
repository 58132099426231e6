package mumble

import "net/netip"

// Context is the game-specific block embedded in the region.
type Context struct {
	// ServerAddress holds a sockaddr_in or sockaddr_in6; see ServerAddrPort.
	ServerAddress [ServerAddressLen]byte
	MapID         uint32
	MapType       uint32
	ShardID       uint32
	Instance      uint32
	BuildID       uint32
	UIState       UIState
	// Compass size in pixels.
	CompassWidth  uint16
	CompassHeight uint16
	// CompassRotation is in radians.
	CompassRotation float32
	// Player and map center positions are in continent coordinates and are not
	// updated in competitive modes.
	PlayerX    float32
	PlayerY    float32
	MapCenterX float32
	MapCenterY float32
	MapScale   float32
	ProcessID  uint32
	Mount      Mount
}

// ServerAddrPort decodes ServerAddress.
func (c *Context) ServerAddrPort() (netip.AddrPort, error) {
	return ServerAddrPort(c.ServerAddress)
}

// CompassDimensions returns width and height in pixels.
func (c *Context) CompassDimensions() [2]uint16 {
	return [2]uint16{c.CompassWidth, c.CompassHeight}
}

// PlayerPosition returns the player position in continent coordinates.
func (c *Context) PlayerPosition() [2]float32 {
	return [2]float32{c.PlayerX, c.PlayerY}
}

// MapCenter returns the map center in continent coordinates.
func (c *Context) MapCenter() [2]float32 {
	return [2]float32{c.MapCenterX, c.MapCenterY}
}
