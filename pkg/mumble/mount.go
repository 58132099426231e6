package mumble

import (
	"fmt"
	"strconv"
)

// Mount is the mount currently in use. The game may report codes newer than this list;
// they stay representable and report Valid() == false.
type Mount uint8

const (
	MountNone Mount = iota
	MountJackal
	MountGriffon
	MountSpringer
	MountSkimmer
	MountRaptor
	MountRollerBeetle
	MountWarclaw
	MountSkyscale
	MountSkiff
	MountSiegeTurtle
)

var mountNames = [...]string{
	MountNone:         "None",
	MountJackal:       "Jackal",
	MountGriffon:      "Griffon",
	MountSpringer:     "Springer",
	MountSkimmer:      "Skimmer",
	MountRaptor:       "Raptor",
	MountRollerBeetle: "RollerBeetle",
	MountWarclaw:      "Warclaw",
	MountSkyscale:     "Skyscale",
	MountSkiff:        "Skiff",
	MountSiegeTurtle:  "SiegeTurtle",
}

// MountFromIndex converts a raw mount index, failing for codes outside the known set.
func MountFromIndex(v uint8) (Mount, error) {
	m := Mount(v)
	if !m.Valid() {
		return m, &DecodeError{Field: "context.mount_index", Err: fmt.Errorf("%w: mount %d", ErrUnknownCode, v)}
	}
	return m, nil
}

// Valid reports whether m is one of the named mounts.
func (m Mount) Valid() bool {
	return int(m) < len(mountNames)
}

func (m Mount) String() string {
	if m.Valid() {
		return mountNames[m]
	}
	return "Mount(" + strconv.Itoa(int(m)) + ")"
}
