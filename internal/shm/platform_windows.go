//go:build windows

package shm

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

type platformSystem struct{}

// Open creates or opens a pagefile-backed named mapping (Windows implementation).
func (platformSystem) Open(name string, size int) (Handle, error) {
	p, err := mappingName(name)
	if err != nil {
		return 0, err
	}
	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, 0, uint32(size), p)
	if h == 0 {
		return 0, fmt.Errorf("CreateFileMapping: %w", err)
	}
	// ERROR_ALREADY_EXISTS comes back with a valid handle to the existing mapping.
	if err != nil && !errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
		_ = windows.CloseHandle(h)
		return 0, fmt.Errorf("CreateFileMapping: %w", err)
	}
	return Handle(h), nil
}

// Map maps a view of the mapping (Windows implementation).
func (platformSystem) Map(h Handle, size int, writable bool) ([]byte, error) {
	access := uint32(windows.FILE_MAP_READ)
	if writable {
		access |= windows.FILE_MAP_WRITE
	}
	addr, err := windows.MapViewOfFile(windows.Handle(h), access, 0, 0, uintptr(size))
	if addr == 0 {
		return nil, fmt.Errorf("MapViewOfFile: %w", err)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

// Unmap unmaps a view returned by Map (Windows implementation).
func (platformSystem) Unmap(view []byte) error {
	if len(view) == 0 {
		return nil
	}
	if err := windows.UnmapViewOfFile(uintptr(unsafe.Pointer(&view[0]))); err != nil {
		return fmt.Errorf("UnmapViewOfFile: %w", err)
	}
	return nil
}

// Close closes the mapping handle (Windows implementation).
func (platformSystem) Close(h Handle) error {
	if err := windows.CloseHandle(windows.Handle(h)); err != nil {
		return fmt.Errorf("CloseHandle: %w", err)
	}
	return nil
}
