package mumble

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"strconv"
)

// Windows address family codes.
const (
	afInet  = 2
	afInet6 = 23
)

// ServerAddrPort interprets a raw server address blob. The family and IPv6 scope id are in
// native byte order, the port is in network byte order.
func ServerAddrPort(b [ServerAddressLen]byte) (netip.AddrPort, error) {
	family := binary.NativeEndian.Uint16(b[0:2])
	port := binary.BigEndian.Uint16(b[2:4])
	switch family {
	case afInet:
		return netip.AddrPortFrom(netip.AddrFrom4([4]byte(b[4:8])), port), nil
	case afInet6:
		addr := netip.AddrFrom16([16]byte(b[8:24]))
		if scope := binary.NativeEndian.Uint32(b[24:28]); scope != 0 {
			addr = addr.WithZone(strconv.FormatUint(uint64(scope), 10))
		}
		return netip.AddrPortFrom(addr, port), nil
	default:
		return netip.AddrPort{}, &DecodeError{
			Field: "context.server_address",
			Err:   fmt.Errorf("%w %d", ErrAddrFamily, family),
		}
	}
}
