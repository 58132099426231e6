// Package shm contains platform-specific helpers for mapping named shared memory regions.
package shm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/srediag/mumblelink/internal/logging"
)

// Handle is the platform mapping object: a file descriptor on Linux, a HANDLE on Windows.
type Handle uintptr

// System is the set of OS primitives a mapping is built from.
//
// Open must create the named object if it is absent and leave an existing one intact.
// Map establishes a process-local view of exactly size bytes.
type System interface {
	Open(name string, size int) (Handle, error)
	Map(h Handle, size int, writable bool) ([]byte, error)
	Unmap(view []byte) error
	Close(h Handle) error
}

// DefaultSystem maps regions with the primitives of the running OS.
var DefaultSystem System = platformSystem{}

// MappedRegion represents a memory-mapped shared region.
type MappedRegion struct {
	Addr []byte

	name      string
	handle    Handle
	sys       System
	closeOnce sync.Once
	closeErr  error
}

// MapOptions defines options for mapping shared memory.
type MapOptions struct {
	Name     string
	Size     int
	Writable bool
	// System overrides DefaultSystem.
	System System
}

// Name returns the name the region was opened with.
func (r *MappedRegion) Name() string {
	return r.name
}

// Close releases the view and then the mapping object. Only the first call does work.
func (r *MappedRegion) Close() error {
	r.closeOnce.Do(func() {
		var errs []error
		if err := r.sys.Unmap(r.Addr); err != nil {
			errs = append(errs, fmt.Errorf("unmap: %w", err))
		}
		if err := r.sys.Close(r.handle); err != nil {
			errs = append(errs, fmt.Errorf("close: %w", err))
		}
		r.Addr = nil
		if len(errs) > 0 {
			r.closeErr = &PlatformError{Op: "release", Err: errors.Join(errs...)}
		}
	})
	return r.closeErr
}

// MapRegion opens or creates the named region and maps a view of it.
func MapRegion(ctx context.Context, opts MapOptions) (*MappedRegion, error) {
	if opts.Size <= 0 {
		return nil, ErrInvalidSize
	}
	if err := validateName(opts.Name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("shm: open %q: %w", opts.Name, err)
	}
	sys := opts.System
	if sys == nil {
		sys = DefaultSystem
	}
	h, err := sys.Open(opts.Name, opts.Size)
	if err != nil {
		return nil, asPlatformError("open", err)
	}
	addr, err := sys.Map(h, opts.Size, opts.Writable)
	if err == nil && len(addr) < opts.Size {
		if uerr := sys.Unmap(addr); uerr != nil {
			logging.Internal.Warnf("shm unmap %q after short view: %v", opts.Name, uerr)
		}
		err = fmt.Errorf("view of %d bytes shorter than %d", len(addr), opts.Size)
	}
	if err != nil {
		if cerr := sys.Close(h); cerr != nil {
			logging.Internal.Warnf("shm close %q after failed map: %v", opts.Name, cerr)
		}
		return nil, asPlatformError("map", err)
	}
	return &MappedRegion{
		Addr:   addr[:opts.Size],
		name:   opts.Name,
		handle: h,
		sys:    sys,
	}, nil
}

// UnmapRegion unmaps and closes the shared memory region.
func UnmapRegion(region *MappedRegion) error {
	if region == nil {
		return nil
	}
	return region.Close()
}

func validateName(name string) error {
	if strings.IndexByte(name, 0) >= 0 {
		return fmt.Errorf("%w: %q contains a NUL byte", ErrNameEncoding, name)
	}
	return validatePlatformName(name)
}
