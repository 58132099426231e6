//go:build windows

package shm

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// RemoveObject is a no-op on Windows: a named mapping is destroyed with its last handle.
func RemoveObject(name string) error {
	return validateName(name)
}

func mappingName(name string) (*uint16, error) {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrNameEncoding, name, err)
	}
	return p, nil
}

func validatePlatformName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrNameEncoding)
	}
	return nil
}
