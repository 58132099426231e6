package shm

import (
	"errors"
	"fmt"
)

var (
	// ErrNameEncoding is returned for names that cannot be used as a shared memory object name.
	ErrNameEncoding = errors.New("shm: name not representable")
	// ErrPlatform matches every *PlatformError.
	ErrPlatform = errors.New("shm: platform error")
	// ErrInvalidSize is returned for non-positive region sizes.
	ErrInvalidSize = errors.New("shm: invalid region size")
	// ErrUnsupported is returned on platforms without a mapping implementation.
	ErrUnsupported = errors.New("shm: unsupported platform")
)

// PlatformError reports an OS refusal while creating, mapping or releasing a region.
type PlatformError struct {
	Op  string
	Err error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("shm: %s: %v", e.Op, e.Err)
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrPlatform) match any PlatformError.
func (e *PlatformError) Is(target error) bool {
	return target == ErrPlatform
}

func asPlatformError(op string, err error) error {
	var pe *PlatformError
	if errors.As(err, &pe) || errors.Is(err, ErrNameEncoding) {
		return err
	}
	return &PlatformError{Op: op, Err: err}
}
