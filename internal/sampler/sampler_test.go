package sampler

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/suite"

	"github.com/srediag/mumblelink/internal/logging"
	"github.com/srediag/mumblelink/pkg/mumble"
)

const identityJSON = `{"name":"Test","profession":1,"spec":0,"race":2,"map_id":15,` +
	`"world_id":0,"team_color_id":0,"commander":false,"fov":0.873,"uisz":1}`

// fakeSource returns a fixed snapshot whose tick the test moves.
type fakeSource struct {
	mu       sync.Mutex
	snap     mumble.Snapshot
	unsettle bool
	reads    int
}

func newFakeSource(tick uint32, identity string) *fakeSource {
	f := &fakeSource{}
	f.snap.UITick = tick
	f.snap.Context.MapID = 15
	f.snap.Context.ProcessID = 4242
	f.snap.Context.Mount = mumble.MountSkyscale
	copy(f.snap.Identity[:], utf16.Encode([]rune(identity)))
	return f
}

func (f *fakeSource) ReadSettled(attempts int) (*mumble.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	snap := f.snap
	return &snap, !f.unsettle
}

func (f *fakeSource) setTick(t uint32) {
	f.mu.Lock()
	f.snap.UITick = t
	f.mu.Unlock()
}

type SamplerTestSuite struct {
	suite.Suite
	reg     *prometheus.Registry
	metrics *Metrics
	events  *EventQueue
	now     time.Time
	a, b    *fakeSource
	sampler *Sampler
}

func (s *SamplerTestSuite) SetupTest() {
	s.reg = prometheus.NewRegistry()
	m, err := NewMetrics(s.reg)
	s.Require().NoError(err)
	s.metrics = m
	s.events = NewEventQueue(0)
	s.now = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s.a = newFakeSource(1, identityJSON)
	s.b = newFakeSource(0, "")

	sampler, err := New(map[string]Source{"A": s.a, "B": s.b}, Options{
		Workers: 2,
		Metrics: s.metrics,
		Events:  s.events,
		Logger:  logging.New("test", io.Discard),
		Now:     func() time.Time { return s.now },
	})
	s.Require().NoError(err)
	s.sampler = sampler
}

func (s *SamplerTestSuite) TearDownTest() {
	s.sampler.Close()
}

func (s *SamplerTestSuite) TestSampleOnce() {
	s.Require().NoError(s.sampler.SampleOnce(context.Background()))
	s.Equal([]string{"A", "B"}, s.sampler.Names())
	s.Equal(2, s.sampler.Store().Len())

	a, ok := s.sampler.Store().Latest("A")
	s.Require().True(ok)
	s.Equal(uint32(1), a.Tick())
	s.True(a.Settled)
	s.Require().NotNil(a.Identity)
	s.Equal(mumble.ProfessionGuardian, a.Identity.Profession)
	s.Equal(s.now, a.LastChange)

	b, ok := s.sampler.Store().Latest("B")
	s.Require().True(ok)
	s.Nil(b.Identity)
	s.NoError(b.IdentityErr)
	s.True(b.LastChange.IsZero())

	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Samples.WithLabelValues("A")))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.TickChanges.WithLabelValues("A")))
	s.Equal(float64(0), testutil.ToFloat64(s.metrics.TickChanges.WithLabelValues("B")))
	s.Equal(float64(4242), testutil.ToFloat64(s.metrics.WriterPID.WithLabelValues("A")))
	s.Equal(float64(15), testutil.ToFloat64(s.metrics.MapID.WithLabelValues("A")))

	events, err := s.events.Poll(10, time.Second)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(Event{
		Link:     "A",
		PrevTick: 0,
		Tick:     1,
		MapID:    15,
		Mount:    mumble.MountSkyscale,
		At:       s.now,
	}, events[0])
}

func (s *SamplerTestSuite) TestTickChanges() {
	ctx := context.Background()
	s.Require().NoError(s.sampler.SampleOnce(ctx))
	_, err := s.events.Poll(10, time.Second)
	s.Require().NoError(err)

	first := s.now
	s.now = s.now.Add(time.Second)
	s.Require().NoError(s.sampler.SampleOnce(ctx))
	a, _ := s.sampler.Store().Latest("A")
	s.Equal(first, a.LastChange)
	s.Equal(int64(0), s.events.Len())

	s.a.setTick(2)
	s.Require().NoError(s.sampler.SampleOnce(ctx))
	a, _ = s.sampler.Store().Latest("A")
	s.Equal(s.now, a.LastChange)
	events, err := s.events.Poll(10, time.Second)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(uint32(1), events[0].PrevTick)
	s.Equal(uint32(2), events[0].Tick)
	s.Equal(float64(2), testutil.ToFloat64(s.metrics.TickChanges.WithLabelValues("A")))
	s.Equal(float64(2), testutil.ToFloat64(s.metrics.Tick.WithLabelValues("A")))
}

func (s *SamplerTestSuite) TestDecodeErrorsAndSettleFailures() {
	bad := newFakeSource(9, `{"name":"x"}`)
	bad.unsettle = true
	sampler, err := New(map[string]Source{"bad": bad}, Options{
		Metrics: s.metrics,
		Logger:  logging.New("test", io.Discard),
	})
	s.Require().NoError(err)
	defer sampler.Close()

	s.Require().NoError(sampler.SampleOnce(context.Background()))
	got, _ := sampler.Store().Latest("bad")
	s.False(got.Settled)
	s.ErrorIs(got.IdentityErr, mumble.ErrDecode)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.SettleFailures.WithLabelValues("bad")))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.DecodeErrors.WithLabelValues("bad", "identity.profession")))
}

func (s *SamplerTestSuite) TestMetricsExposition() {
	s.Require().NoError(s.sampler.SampleOnce(context.Background()))
	families, err := s.reg.Gather()
	s.Require().NoError(err)
	byName := map[string]*dto.MetricFamily{}
	for _, f := range families {
		byName[f.GetName()] = f
	}
	f, ok := byName["mumblelink_samples_total"]
	s.Require().True(ok)
	s.Equal(dto.MetricType_COUNTER, f.GetType())
	s.Len(f.GetMetric(), 2)

	s.NoError(testutil.GatherAndCompare(s.reg, strings.NewReader(`
# HELP mumblelink_ui_tick Last observed ui tick.
# TYPE mumblelink_ui_tick gauge
mumblelink_ui_tick{link="A"} 1
mumblelink_ui_tick{link="B"} 0
`), "mumblelink_ui_tick"))
}

func (s *SamplerTestSuite) TestNewMetricsReusesRegistered() {
	again, err := NewMetrics(s.reg)
	s.Require().NoError(err)
	s.Same(s.metrics.Samples, again.Samples)
}

func (s *SamplerTestSuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.sampler.Run(ctx) }()
	s.Eventually(func() bool {
		s.a.mu.Lock()
		defer s.a.mu.Unlock()
		return s.a.reads >= 2
	}, 5*time.Second, 10*time.Millisecond)
	cancel()
	s.NoError(<-done)
}

func TestSamplerTestSuite(t *testing.T) {
	suite.Run(t, new(SamplerTestSuite))
}
