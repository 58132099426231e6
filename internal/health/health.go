// Package health builds the liveness and readiness checks of the mumblelink command.
package health

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/srediag/mumblelink/internal/sampler"
)

const (
	maxGoroutines = 1000
	pidTimeout    = time.Second
)

var (
	ErrNoSample = errors.New("no sample yet")
	ErrNoWriter = errors.New("no writer has published")
	ErrStale    = errors.New("tick not moving")
	ErrWriter   = errors.New("writer process gone")
)

// Latest is the part of sampler.Store the checks read.
type Latest interface {
	Latest(link string) (sampler.Sample, bool)
}

// Options configures NewHandler.
type Options struct {
	Links      []string
	Store      Latest
	StaleAfter time.Duration
	// Registerer exports check results as prometheus gauges when set.
	Registerer prometheus.Registerer
	// PidExists overrides the process table lookup.
	PidExists func(pid int32) (bool, error)
	// Now overrides time.Now.
	Now func() time.Time
}

// NewHandler returns an http.Handler serving /live and /ready.
//
// Liveness only checks the process itself. Readiness requires every link to have a
// writer that ticked within StaleAfter and whose process still exists.
func NewHandler(opts Options) healthcheck.Handler {
	var h healthcheck.Handler
	if opts.Registerer != nil {
		h = healthcheck.NewMetricsHandler(opts.Registerer, "mumblelink")
	} else {
		h = healthcheck.NewHandler()
	}
	h.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(maxGoroutines))
	for _, link := range opts.Links {
		h.AddReadinessCheck(link+"-fresh", FreshCheck(opts.Store, link, opts.StaleAfter, opts.Now))
		h.AddReadinessCheck(link+"-writer", healthcheck.Timeout(WriterCheck(opts.Store, link, opts.PidExists), pidTimeout))
	}
	return h
}

// FreshCheck fails until the link's tick moved within staleAfter.
func FreshCheck(store Latest, link string, staleAfter time.Duration, now func() time.Time) healthcheck.Check {
	if now == nil {
		now = time.Now
	}
	return func() error {
		s, ok := store.Latest(link)
		if !ok {
			return ErrNoSample
		}
		if s.Tick() == 0 || s.LastChange.IsZero() {
			return ErrNoWriter
		}
		if age := now().Sub(s.LastChange); age > staleAfter {
			return fmt.Errorf("%w for %s", ErrStale, age.Truncate(time.Millisecond))
		}
		return nil
	}
}

// WriterCheck fails when the process id published by the writer is not running.
func WriterCheck(store Latest, link string, exists func(pid int32) (bool, error)) healthcheck.Check {
	if exists == nil {
		exists = process.PidExists
	}
	return func() error {
		s, ok := store.Latest(link)
		if !ok {
			return ErrNoSample
		}
		pid := s.Snapshot.Context.ProcessID
		if pid == 0 {
			return ErrNoWriter
		}
		if pid > math.MaxInt32 {
			return fmt.Errorf("%w: pid %d out of range", ErrWriter, pid)
		}
		alive, err := exists(int32(pid))
		if err != nil {
			return fmt.Errorf("lookup pid %d: %w", pid, err)
		}
		if !alive {
			return fmt.Errorf("%w: pid %d", ErrWriter, pid)
		}
		return nil
	}
}
