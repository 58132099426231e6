package mumble

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var errNullValue = errors.New("null value")

// Identity is the player identity the game publishes as JSON in the identity buffer.
type Identity struct {
	// Name is the character name.
	Name       string     `json:"name"`
	Profession Profession `json:"profession"`
	// Spec is the third specialization id, 0 when none is equipped.
	Spec uint32 `json:"spec"`
	Race Race   `json:"race"`
	// MapID matches Context.MapID.
	MapID uint32 `json:"map_id"`
	// WorldID carries the shard id since the megaserver switch.
	WorldID     uint32 `json:"world_id"`
	TeamColorID uint32 `json:"team_color_id"`
	// Commander is set while a commander tag is active.
	Commander bool `json:"commander"`
	// FOV is the vertical field of view.
	FOV     float32 `json:"fov"`
	UIScale UIScale `json:"uisz"`
}

// ParseIdentity decodes identity JSON from a UTF-16 buffer, stopping at the first zero unit.
//
// Keys are matched case-sensitively and all fields are required; unknown keys are ignored.
// Invalid UTF-16, malformed JSON, wrong types and out-of-set enum codes fail with *DecodeError.
func ParseIdentity(units []uint16) (Identity, error) {
	text, err := strictWideString(UntilNul(units))
	if err != nil {
		return Identity{}, decodeErr("identity", err)
	}
	return parseIdentityJSON([]byte(text))
}

func parseIdentityJSON(data []byte) (Identity, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Identity{}, decodeErr("identity", err)
	}
	var id Identity
	fields := []struct {
		key string
		dst interface{}
	}{
		{"name", &id.Name},
		{"profession", &id.Profession},
		{"spec", &id.Spec},
		{"race", &id.Race},
		{"map_id", &id.MapID},
		{"world_id", &id.WorldID},
		{"team_color_id", &id.TeamColorID},
		{"commander", &id.Commander},
		{"fov", &id.FOV},
		{"uisz", &id.UIScale},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			return Identity{}, decodeErr("identity."+f.key, ErrMissingField)
		}
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return Identity{}, decodeErr("identity."+f.key, errNullValue)
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return Identity{}, decodeErr("identity."+f.key, err)
		}
	}
	return id, nil
}

// Profession is the character profession. ProfessionUnknown is reported while no
// character is loaded.
type Profession uint8

const (
	ProfessionUnknown Profession = iota
	ProfessionGuardian
	ProfessionWarrior
	ProfessionEngineer
	ProfessionRanger
	ProfessionThief
	ProfessionElementalist
	ProfessionMesmer
	ProfessionNecromancer
	ProfessionRevenant
)

var professionNames = [...]string{
	ProfessionUnknown:      "Unknown",
	ProfessionGuardian:     "Guardian",
	ProfessionWarrior:      "Warrior",
	ProfessionEngineer:     "Engineer",
	ProfessionRanger:       "Ranger",
	ProfessionThief:        "Thief",
	ProfessionElementalist: "Elementalist",
	ProfessionMesmer:       "Mesmer",
	ProfessionNecromancer:  "Necromancer",
	ProfessionRevenant:     "Revenant",
}

// ProfessionFromCode converts a raw code, failing outside the known set.
func ProfessionFromCode(v uint8) (Profession, error) {
	p := Profession(v)
	if !p.Valid() {
		return p, &DecodeError{Field: "profession", Err: fmt.Errorf("%w: profession %d", ErrUnknownCode, v)}
	}
	return p, nil
}

func (p Profession) Valid() bool {
	return int(p) < len(professionNames)
}

func (p Profession) String() string {
	if p.Valid() {
		return professionNames[p]
	}
	return "Profession(" + strconv.Itoa(int(p)) + ")"
}

func (p *Profession) UnmarshalJSON(b []byte) error {
	v, err := unmarshalCode(b)
	if err != nil {
		return err
	}
	*p, err = ProfessionFromCode(v)
	return err
}

// Race is the character race.
type Race uint8

const (
	RaceAsura Race = iota
	RaceCharr
	RaceHuman
	RaceNorn
	RaceSylvari
)

var raceNames = [...]string{
	RaceAsura:   "Asura",
	RaceCharr:   "Charr",
	RaceHuman:   "Human",
	RaceNorn:    "Norn",
	RaceSylvari: "Sylvari",
}

// RaceFromCode converts a raw code, failing outside the known set.
func RaceFromCode(v uint8) (Race, error) {
	r := Race(v)
	if !r.Valid() {
		return r, &DecodeError{Field: "race", Err: fmt.Errorf("%w: race %d", ErrUnknownCode, v)}
	}
	return r, nil
}

func (r Race) Valid() bool {
	return int(r) < len(raceNames)
}

func (r Race) String() string {
	if r.Valid() {
		return raceNames[r]
	}
	return "Race(" + strconv.Itoa(int(r)) + ")"
}

func (r *Race) UnmarshalJSON(b []byte) error {
	v, err := unmarshalCode(b)
	if err != nil {
		return err
	}
	*r, err = RaceFromCode(v)
	return err
}

// UIScale is the user interface size setting.
type UIScale uint8

const (
	UIScaleSmall UIScale = iota
	UIScaleNormal
	UIScaleLarge
	UIScaleLarger
)

var uiScaleNames = [...]string{
	UIScaleSmall:  "Small",
	UIScaleNormal: "Normal",
	UIScaleLarge:  "Large",
	UIScaleLarger: "Larger",
}

// UIScaleFromCode converts a raw code, failing outside the known set.
func UIScaleFromCode(v uint8) (UIScale, error) {
	s := UIScale(v)
	if !s.Valid() {
		return s, &DecodeError{Field: "uisz", Err: fmt.Errorf("%w: ui scale %d", ErrUnknownCode, v)}
	}
	return s, nil
}

func (s UIScale) Valid() bool {
	return int(s) < len(uiScaleNames)
}

func (s UIScale) String() string {
	if s.Valid() {
		return uiScaleNames[s]
	}
	return "UIScale(" + strconv.Itoa(int(s)) + ")"
}

func (s *UIScale) UnmarshalJSON(b []byte) error {
	v, err := unmarshalCode(b)
	if err != nil {
		return err
	}
	*s, err = UIScaleFromCode(v)
	return err
}

// unmarshalCode reads a JSON number that fits an unsigned byte.
func unmarshalCode(b []byte) (uint8, error) {
	var v uint8
	if err := json.Unmarshal(b, &v); err != nil {
		return 0, err
	}
	return v, nil
}
