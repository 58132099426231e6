package mumble

import (
	"fmt"
	"strings"
)

// UIState is the bit set of UI conditions reported by the game.
type UIState uint32

const (
	UIStateMapOpen UIState = 1 << iota
	UIStateCompassTopRight
	UIStateCompassRotation
	UIStateGameFocus
	UIStateCompetitiveMode
	UIStateTextboxFocus
	UIStateInCombat

	// UIStateAll is the union of every known flag.
	UIStateAll = UIStateMapOpen | UIStateCompassTopRight | UIStateCompassRotation |
		UIStateGameFocus | UIStateCompetitiveMode | UIStateTextboxFocus | UIStateInCombat
)

var uiStateNames = []struct {
	flag UIState
	name string
}{
	{UIStateMapOpen, "MapOpen"},
	{UIStateCompassTopRight, "CompassTopRight"},
	{UIStateCompassRotation, "CompassRotation"},
	{UIStateGameFocus, "GameFocus"},
	{UIStateCompetitiveMode, "CompetitiveMode"},
	{UIStateTextboxFocus, "TextboxFocus"},
	{UIStateInCombat, "InCombat"},
}

// UIStateFromBits converts a raw word, rejecting bits outside UIStateAll.
func UIStateFromBits(v uint32) (UIState, error) {
	s := UIState(v)
	if s&^UIStateAll != 0 {
		return s & UIStateAll, &DecodeError{
			Field: "context.ui_state",
			Err:   fmt.Errorf("%w 0x%x", ErrUnknownBits, uint32(s&^UIStateAll)),
		}
	}
	return s, nil
}

// Bits returns the raw word.
func (s UIState) Bits() uint32 {
	return uint32(s)
}

// Has reports whether every flag in f is set.
func (s UIState) Has(f UIState) bool {
	return s&f == f
}

// Union returns the flags set in either s or o.
func (s UIState) Union(o UIState) UIState {
	return s | o
}

// Intersect returns the flags set in both s and o.
func (s UIState) Intersect(o UIState) UIState {
	return s & o
}

// Known drops bits outside UIStateAll.
func (s UIState) Known() UIState {
	return s & UIStateAll
}

func (s UIState) String() string {
	if s == 0 {
		return "0"
	}
	var parts []string
	for _, n := range uiStateNames {
		if s.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	if rest := s &^ UIStateAll; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}
