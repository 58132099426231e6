package sampler

import (
	"sort"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/srediag/mumblelink/pkg/mumble"
)

// Sample is the latest observation of one link.
type Sample struct {
	Link     string
	Snapshot *mumble.Snapshot
	// Settled reports whether the tick held still while the snapshot was copied.
	Settled bool
	// Identity is nil when IdentityErr is set or no writer has published yet.
	Identity    *mumble.Identity
	IdentityErr error
	At          time.Time
	// LastChange is when the tick was last seen moving, zero until it first does.
	LastChange time.Time
}

// Tick returns the sampled ui tick.
func (s Sample) Tick() uint32 {
	if s.Snapshot == nil {
		return 0
	}
	return s.Snapshot.UITick
}

// Store holds the latest Sample per link name.
type Store struct {
	m cmap.ConcurrentMap[string, Sample]
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{m: cmap.New[Sample]()}
}

// Latest returns the latest sample of the named link.
func (s *Store) Latest(link string) (Sample, bool) {
	return s.m.Get(link)
}

// All returns the latest samples ordered by link name.
func (s *Store) All() []Sample {
	items := s.m.Items()
	out := make([]Sample, 0, len(items))
	for _, v := range items {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Link < out[j].Link })
	return out
}

// Len returns the number of links with a sample.
func (s *Store) Len() int {
	return s.m.Count()
}

// update stores next and reports the tick it replaced and whether the tick moved.
// A first sample with a non-zero tick counts as a move from zero.
func (s *Store) update(next Sample) (prevTick uint32, changed bool) {
	s.m.Upsert(next.Link, next, func(exist bool, old, newer Sample) Sample {
		if exist {
			prevTick = old.Tick()
			newer.LastChange = old.LastChange
		}
		if newer.Tick() != prevTick {
			changed = true
			newer.LastChange = newer.At
		}
		return newer
	})
	return prevTick, changed
}
