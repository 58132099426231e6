//go:build !linux && !windows

package shm

type platformSystem struct{}

func (platformSystem) Open(name string, size int) (Handle, error) {
	return 0, ErrUnsupported
}

func (platformSystem) Map(h Handle, size int, writable bool) ([]byte, error) {
	return nil, ErrUnsupported
}

func (platformSystem) Unmap(view []byte) error {
	return nil
}

func (platformSystem) Close(h Handle) error {
	return nil
}

// RemoveObject is a no-op where no mapping implementation exists.
func RemoveObject(name string) error {
	return validateName(name)
}

func validatePlatformName(name string) error {
	return nil
}
