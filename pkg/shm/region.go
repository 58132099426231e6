package shm

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/srediag/mumblelink/internal/logging"
	internalshm "github.com/srediag/mumblelink/internal/shm"
)

const instrumentationName = "github.com/srediag/mumblelink/pkg/shm"

// System is the set of OS primitives a Region is built from. Tests substitute their own.
type System = internalshm.System

// Handle is the platform mapping object.
type Handle = internalshm.Handle

// PlatformError reports an OS refusal while creating, mapping or releasing a region.
type PlatformError = internalshm.PlatformError

var (
	// ErrNameEncoding is returned for names that cannot be used as a shared memory object name.
	ErrNameEncoding = internalshm.ErrNameEncoding
	// ErrPlatform matches every *PlatformError.
	ErrPlatform = internalshm.ErrPlatform
	// ErrInvalidSize is returned for non-positive sizes.
	ErrInvalidSize = internalshm.ErrInvalidSize
)

// DefaultSystem returns the mapping primitives of the running OS.
func DefaultSystem() System {
	return internalshm.DefaultSystem
}

// Region is an open, mapped shared memory region.
type Region struct {
	region *internalshm.MappedRegion
	size   int
}

// OpenOptions defines options for creating or opening a shared memory region.
type OpenOptions struct {
	// Name is the identifier for the shared memory region.
	Name string
	// Size is the exact region size in bytes.
	Size int
	// Writable maps the view read-write. Readers leave it false.
	Writable bool
	// System overrides the OS primitives.
	System System
	Meter  metric.Meter
	Tracer trace.Tracer
}

// Open creates or opens a shared memory region with the given options.
func Open(ctx context.Context, opts OpenOptions) (*Region, error) {
	meter := opts.Meter
	if meter == nil {
		meter = metricnoop.NewMeterProvider().Meter(instrumentationName)
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(instrumentationName)
	}
	opens, err := meter.Int64Counter("shm.region.opens",
		metric.WithDescription("Shared memory regions opened"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("shm.region.open_failures",
		metric.WithDescription("Shared memory region opens that failed"))
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "shm.Open", trace.WithAttributes(
		attribute.String("shm.name", opts.Name),
		attribute.Int("shm.size", opts.Size),
		attribute.Bool("shm.writable", opts.Writable),
	))
	defer span.End()

	region, err := internalshm.MapRegion(ctx, internalshm.MapOptions{
		Name:     opts.Name,
		Size:     opts.Size,
		Writable: opts.Writable,
		System:   opts.System,
	})
	attrs := metric.WithAttributes(attribute.String("shm.name", opts.Name))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		failures.Add(ctx, 1, attrs)
		return nil, err
	}
	opens.Add(ctx, 1, attrs)
	logging.Internal.Infof("shm region %q mapped, size:%d writable:%t", opts.Name, opts.Size, opts.Writable)
	return &Region{region: region, size: opts.Size}, nil
}

// Name returns the name the region was opened with.
func (r *Region) Name() string {
	return r.region.Name()
}

// Size returns the mapped size in bytes.
func (r *Region) Size() int {
	return r.size
}

// Bytes returns the live view. It must not be used after Close.
func (r *Region) Bytes() []byte {
	return r.region.Addr
}

// Close unmaps the view and releases the mapping object. Calling it again is a no-op.
func (r *Region) Close() error {
	if r == nil || r.region == nil {
		return errors.New("shm: nil region")
	}
	name := r.region.Name()
	if err := internalshm.UnmapRegion(r.region); err != nil {
		logging.Internal.Warnf("shm region %q release failed: %v", name, err)
		return err
	}
	logging.Internal.Debugf("shm region %q released", name)
	return nil
}
