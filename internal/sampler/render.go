package sampler

import (
	"io"
	"math"
	"strconv"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/srediag/mumblelink/pkg/mumble"
)

// WriteEvent writes one line describing e.
func WriteEvent(w io.Writer, e Event) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.B = e.At.UTC().AppendFormat(buf.B, time.RFC3339Nano)
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(e.Link)
	_, _ = buf.WriteString(" tick:")
	buf.B = strconv.AppendUint(buf.B, uint64(e.PrevTick), 10)
	_, _ = buf.WriteString("->")
	buf.B = strconv.AppendUint(buf.B, uint64(e.Tick), 10)
	_, _ = buf.WriteString(" map:")
	buf.B = strconv.AppendUint(buf.B, uint64(e.MapID), 10)
	_, _ = buf.WriteString(" mount:")
	_, _ = buf.WriteString(e.Mount.String())
	_, _ = buf.WriteString(" ui:")
	_, _ = buf.WriteString(e.UIState.String())
	_ = buf.WriteByte('\n')

	_, err := buf.WriteTo(w)
	return err
}

// View is the JSON form of a Sample served on /snapshot.
type View struct {
	Link        string           `json:"link"`
	At          time.Time        `json:"at"`
	LastChange  time.Time        `json:"last_change"`
	Settled     bool             `json:"settled"`
	UIVersion   uint32           `json:"ui_version"`
	UITick      uint32           `json:"ui_tick"`
	Name        string           `json:"name"`
	Avatar      PoseView         `json:"avatar"`
	Camera      PoseView         `json:"camera"`
	Identity    *mumble.Identity `json:"identity,omitempty"`
	IdentityErr string           `json:"identity_error,omitempty"`
	Server      string           `json:"server,omitempty"`
	MapID       uint32           `json:"map_id"`
	MapType     uint32           `json:"map_type"`
	ShardID     uint32           `json:"shard_id"`
	BuildID     uint32           `json:"build_id"`
	UIState     []string         `json:"ui_state"`
	Mount       string           `json:"mount"`
	Player      [2]Float         `json:"player"`
	MapCenter   [2]Float         `json:"map_center"`
	MapScale    Float            `json:"map_scale"`
	ProcessID   uint32           `json:"process_id"`
}

// Float is a writer-supplied float32. NaN and infinities encode as the JSON strings
// "NaN", "+Inf" and "-Inf".
type Float float32

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.AppendQuote(nil, strconv.FormatFloat(v, 'g', -1, 32)), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 32), nil
}

func (f *Float) UnmarshalJSON(b []byte) error {
	text := string(b)
	if text == "null" {
		return nil
	}
	if len(text) > 0 && text[0] == '"' {
		unq, err := strconv.Unquote(text)
		if err != nil {
			return err
		}
		text = unq
	}
	v, err := strconv.ParseFloat(text, 32)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// PoseView is the JSON form of a mumble.Pose.
type PoseView struct {
	Position [3]Float `json:"position"`
	Front    [3]Float `json:"front"`
	Top      [3]Float `json:"top"`
}

func newPoseView(p mumble.Pose) PoseView {
	return PoseView{Position: vec3(p.Position), Front: vec3(p.Front), Top: vec3(p.Top)}
}

func vec3(v [3]float32) [3]Float {
	return [3]Float{Float(v[0]), Float(v[1]), Float(v[2])}
}

// NewView builds the JSON form of s.
func NewView(s Sample) View {
	v := View{
		Link:       s.Link,
		At:         s.At,
		LastChange: s.LastChange,
		Settled:    s.Settled,
		Identity:   s.Identity,
		UIState:    []string{},
	}
	if s.IdentityErr != nil {
		v.IdentityErr = s.IdentityErr.Error()
	}
	snap := s.Snapshot
	if snap == nil {
		return v
	}
	ctx := snap.Context
	v.UIVersion = snap.UIVersion
	v.UITick = snap.UITick
	v.Name = snap.NameString()
	v.Avatar = newPoseView(snap.Avatar)
	v.Camera = newPoseView(snap.Camera)
	if addr, err := ctx.ServerAddrPort(); err == nil {
		v.Server = addr.String()
	}
	v.MapID = ctx.MapID
	v.MapType = ctx.MapType
	v.ShardID = ctx.ShardID
	v.BuildID = ctx.BuildID
	for _, f := range []mumble.UIState{
		mumble.UIStateMapOpen, mumble.UIStateCompassTopRight, mumble.UIStateCompassRotation,
		mumble.UIStateGameFocus, mumble.UIStateCompetitiveMode, mumble.UIStateTextboxFocus,
		mumble.UIStateInCombat,
	} {
		if ctx.UIState.Has(f) {
			v.UIState = append(v.UIState, f.String())
		}
	}
	v.Mount = ctx.Mount.String()
	v.Player = [2]Float{Float(ctx.PlayerX), Float(ctx.PlayerY)}
	v.MapCenter = [2]Float{Float(ctx.MapCenterX), Float(ctx.MapCenterY)}
	v.MapScale = Float(ctx.MapScale)
	v.ProcessID = ctx.ProcessID
	return v
}
