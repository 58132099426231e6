package mumble

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutOffsets(t *testing.T) {
	assert.Equal(t, 5292, Size)
	assert.Equal(t, 88, ContextSize)
	for name, got := range map[string][2]int{
		"avatar":        {avatarOffset, 8},
		"name":          {nameOffset, 44},
		"camera":        {cameraOffset, 556},
		"identity":      {identityOffset, 592},
		"context_len":   {contextLenOffset, 1104},
		"context":       {contextOffset, 1108},
		"description":   {descriptionOffset, 1196},
		"map_id":        {mapIDOffset, 28},
		"ui_state":      {uiStateOffset, 48},
		"compass_h":     {compassHeightOffset, 54},
		"process_id":    {processIDOffset, 80},
		"mount_index":   {mountOffset, 84},
		"map_scale":     {mapScaleOffset, 76},
		"player_y":      {playerYOffset, 64},
		"compass_rot":   {compassRotationOffset, 56},
		"server_family": {serverAddressOffset, 0},
	} {
		assert.Equal(t, got[1], got[0], name)
	}
}

func TestUntilNul(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		s := make([]uint16, rng.Intn(64))
		for j := range s {
			s[j] = uint16(rng.Intn(4))
		}
		got := UntilNul(s)
		require.NotContains(t, got, uint16(0))
		require.Equal(t, s[:len(got)], got)
		if len(got) < len(s) {
			require.Equal(t, uint16(0), s[len(got)])
		}
	}
	assert.Empty(t, UntilNul(nil))
	assert.Empty(t, UntilNul([]uint16{0, 'a'}))
	assert.Equal(t, wide("ab"), UntilNul(wide("ab")))
}

func randomSnapshot(rng *rand.Rand) *Snapshot {
	f := func() float32 { return float32(rng.NormFloat64()) }
	v := func() [3]float32 { return [3]float32{f(), f(), f()} }
	snap := &Snapshot{
		UIVersion:  rng.Uint32(),
		UITick:     rng.Uint32(),
		Avatar:     Pose{v(), v(), v()},
		Camera:     Pose{v(), v(), v()},
		ContextLen: rng.Uint32(),
		Context: Context{
			MapID:           rng.Uint32(),
			MapType:         rng.Uint32(),
			ShardID:         rng.Uint32(),
			Instance:        rng.Uint32(),
			BuildID:         rng.Uint32(),
			UIState:         UIState(rng.Uint32()),
			CompassWidth:    uint16(rng.Uint32()),
			CompassHeight:   uint16(rng.Uint32()),
			CompassRotation: f(),
			PlayerX:         f(),
			PlayerY:         f(),
			MapCenterX:      f(),
			MapCenterY:      f(),
			MapScale:        f(),
			ProcessID:       rng.Uint32(),
			Mount:           Mount(rng.Intn(256)),
		},
	}
	rng.Read(snap.Context.ServerAddress[:])
	for i := range snap.Name {
		snap.Name[i] = uint16(rng.Uint32())
	}
	for i := range snap.Identity {
		snap.Identity[i] = uint16(rng.Uint32())
	}
	for i := range snap.Description {
		snap.Description[i] = uint16(rng.Uint32())
	}
	return snap
}

func TestSnapshotBinaryRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		snap := randomSnapshot(rng)
		b, err := snap.MarshalBinary()
		require.NoError(t, err)
		require.Len(t, b, Size)

		var got Snapshot
		require.NoError(t, got.UnmarshalBinary(b))
		require.Equal(t, snap, &got)

		again, err := got.MarshalBinary()
		require.NoError(t, err)
		require.Equal(t, b, again)
	}
}

func TestMarshalZeroesPadding(t *testing.T) {
	b, err := (&Snapshot{Context: Context{Mount: MountSkiff}}).MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, byte(MountSkiff), b[contextOffset+mountOffset])
	assert.Equal(t, []byte{0, 0, 0}, b[contextOffset+mountOffset+1:contextOffset+ContextSize])
}

func TestDecodeShortImage(t *testing.T) {
	_, err := Decode(make([]byte, Size-1))
	assert.ErrorIs(t, err, ErrDecode)
	assert.ErrorIs(t, err, ErrShortImage)

	snap, err := Decode(make([]byte, Size+16))
	require.NoError(t, err)
	assert.Equal(t, &Snapshot{}, snap)
}

func TestSnapshotStrings(t *testing.T) {
	snap := scenarioSnapshot()
	copy(snap.Description[:], wide("desc"))
	assert.Equal(t, "Test", snap.NameString())
	assert.Equal(t, scenarioIdentity, snap.IdentityString())
	assert.Equal(t, "desc", snap.DescriptionString())
	id, err := snap.ParseIdentity()
	require.NoError(t, err)
	assert.Equal(t, RaceHuman, id.Race)
}
