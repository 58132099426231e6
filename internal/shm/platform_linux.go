//go:build linux

package shm

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

type platformSystem struct{}

// Open opens /dev/shm/<name>, creating it and growing it to size when needed (Linux implementation).
func (platformSystem) Open(name string, size int) (Handle, error) {
	path := devShmPath(name)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		_ = unix.Close(fd)
		return 0, fmt.Errorf("fstat %s: %w", path, err)
	}
	if st.Size < int64(size) {
		if !canCreateOnDevShm(uint64(int64(size)-st.Size), path) {
			_ = unix.Close(fd)
			return 0, fmt.Errorf("%s: not enough space left for %d bytes", path, size)
		}
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			_ = unix.Close(fd)
			return 0, fmt.Errorf("ftruncate %s: %w", path, err)
		}
	}
	return Handle(fd), nil
}

// Map maps a shared view of the object (Linux implementation).
func (platformSystem) Map(h Handle, size int, writable bool) ([]byte, error) {
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}
	addr, err := unix.Mmap(int(h), 0, size, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return addr, nil
}

// Unmap unmaps a view returned by Map (Linux implementation).
func (platformSystem) Unmap(view []byte) error {
	if view == nil {
		return nil
	}
	if err := unix.Munmap(view); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}

// Close closes the object's file descriptor (Linux implementation).
func (platformSystem) Close(h Handle) error {
	if err := unix.Close(int(h)); err != nil {
		return fmt.Errorf("close fd %d: %w", int(h), err)
	}
	return nil
}

func validatePlatformName(name string) error {
	if name == "" || name == "." || name == ".." || strings.IndexByte(name, '/') >= 0 {
		return fmt.Errorf("%w: %q is not a valid /dev/shm object name", ErrNameEncoding, name)
	}
	return nil
}
