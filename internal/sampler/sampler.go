// Package sampler polls link regions, tracks their latest state and reports tick changes.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/srediag/mumblelink/internal/logging"
	"github.com/srediag/mumblelink/pkg/mumble"
)

const instrumentationName = "github.com/srediag/mumblelink/internal/sampler"

// Source is a readable link region.
type Source interface {
	ReadSettled(attempts int) (*mumble.Snapshot, bool)
}

// Options configures a Sampler.
type Options struct {
	// Workers bounds concurrent link reads.
	Workers int
	// Interval is the Run period.
	Interval time.Duration
	// SettleAttempts is passed to ReadSettled.
	SettleAttempts int
	// Metrics receives prometheus updates, nil disables them.
	Metrics *Metrics
	// Events receives tick changes, nil drops them.
	Events *EventQueue
	Meter  metric.Meter
	Tracer trace.Tracer
	Logger *logging.Logger
	// Now overrides time.Now.
	Now func() time.Time
}

// DefaultOptions samples ten times a second with four workers.
func DefaultOptions() Options {
	return Options{
		Workers:        4,
		Interval:       100 * time.Millisecond,
		SettleAttempts: 3,
	}
}

// Sampler reads a fixed set of links on a worker pool.
type Sampler struct {
	opts     Options
	names    []string
	sources  map[string]Source
	pool     *ants.Pool
	store    *Store
	duration metric.Float64Histogram
	tracer   trace.Tracer
	logger   *logging.Logger
}

type antsLogger struct {
	l *logging.Logger
}

func (a antsLogger) Printf(format string, args ...interface{}) {
	a.l.Warnf(format, args...)
}

// New returns a Sampler over sources, keyed by link name.
func New(sources map[string]Source, opts Options) (*Sampler, error) {
	def := DefaultOptions()
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.Interval <= 0 {
		opts.Interval = def.Interval
	}
	if opts.SettleAttempts <= 0 {
		opts.SettleAttempts = def.SettleAttempts
	}
	if opts.Logger == nil {
		opts.Logger = logging.New("sampler", nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	meter := opts.Meter
	if meter == nil {
		meter = metricnoop.NewMeterProvider().Meter(instrumentationName)
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(instrumentationName)
	}
	duration, err := meter.Float64Histogram("mumblelink.sample.duration",
		metric.WithDescription("Time to read and decode one link region"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(opts.Workers,
		ants.WithLogger(antsLogger{opts.Logger}),
		ants.WithPanicHandler(func(p interface{}) {
			opts.Logger.Errorf("sample worker panic: %v", p)
		}))
	if err != nil {
		return nil, fmt.Errorf("sampler pool: %w", err)
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Sampler{
		opts:     opts,
		names:    names,
		sources:  sources,
		pool:     pool,
		store:    NewStore(),
		duration: duration,
		tracer:   tracer,
		logger:   opts.Logger,
	}, nil
}

// Store returns the latest samples.
func (s *Sampler) Store() *Store {
	return s.store
}

// Names returns the sampled link names in order.
func (s *Sampler) Names() []string {
	return append([]string(nil), s.names...)
}

// SampleOnce reads every link once and waits for all reads to finish.
func (s *Sampler) SampleOnce(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, name := range s.names {
		name, src := name, s.sources[name]
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			if err := s.sample(ctx, name, src); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		})
		if err != nil {
			wg.Done()
			errs = append(errs, fmt.Errorf("submit %q: %w", name, err))
		}
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Run samples every Interval until ctx is done.
func (s *Sampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	for {
		if err := s.SampleOnce(ctx); err != nil {
			s.logger.Warnf("sample: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Close stops the worker pool and the event queue.
func (s *Sampler) Close() {
	s.pool.Release()
	if s.opts.Events != nil {
		if left := s.opts.Events.Close(); len(left) > 0 {
			s.logger.Debugf("dropped %d queued events", len(left))
		}
	}
}

func (s *Sampler) sample(ctx context.Context, name string, src Source) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "sampler.Sample", trace.WithAttributes(attribute.String("mumble.link", name)))
	defer span.End()

	snap, settled := src.ReadSettled(s.opts.SettleAttempts)
	next := Sample{
		Link:     name,
		Snapshot: snap,
		Settled:  settled,
		At:       s.opts.Now(),
	}
	var decodeErr error
	if snap.UITick != 0 {
		id, err := snap.ParseIdentity()
		if err != nil {
			next.IdentityErr = err
			decodeErr = err
		} else {
			next.Identity = &id
		}
	}
	prevTick, changed := s.store.update(next)

	if m := s.opts.Metrics; m != nil {
		m.Samples.WithLabelValues(name).Inc()
		m.Tick.WithLabelValues(name).Set(float64(snap.UITick))
		m.MapID.WithLabelValues(name).Set(float64(snap.Context.MapID))
		m.WriterPID.WithLabelValues(name).Set(float64(snap.Context.ProcessID))
		if !settled {
			m.SettleFailures.WithLabelValues(name).Inc()
		}
		if changed {
			m.TickChanges.WithLabelValues(name).Inc()
		}
		if decodeErr != nil {
			m.DecodeErrors.WithLabelValues(name, decodeField(decodeErr)).Inc()
		}
	}

	var err error
	if changed && s.opts.Events != nil {
		err = s.opts.Events.put(Event{
			Link:     name,
			PrevTick: prevTick,
			Tick:     snap.UITick,
			MapID:    snap.Context.MapID,
			Mount:    snap.Context.Mount,
			UIState:  snap.Context.UIState,
			At:       next.At,
		})
		if err != nil {
			err = fmt.Errorf("queue event for %q: %w", name, err)
		}
	}

	span.SetAttributes(
		attribute.Int64("mumble.tick", int64(snap.UITick)),
		attribute.Bool("mumble.settled", settled),
		attribute.Bool("mumble.changed", changed),
	)
	if decodeErr != nil {
		span.RecordError(decodeErr)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	s.duration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("mumble.link", name)))
	s.logger.Tracef("sampled %q tick:%d settled:%t changed:%t", name, snap.UITick, settled, changed)
	return err
}

func decodeField(err error) string {
	var de *mumble.DecodeError
	if errors.As(err, &de) {
		return de.Field
	}
	return "unknown"
}
