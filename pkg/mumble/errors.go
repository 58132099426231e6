package mumble

import (
	"errors"
	"fmt"

	"github.com/srediag/mumblelink/pkg/shm"
)

var (
	// ErrDisabled is returned by Open for the DisabledName sentinel. No OS call is made.
	ErrDisabled = errors.New("mumble: link disabled")
	// ErrNameEncoding is returned for names that cannot name a shared memory object.
	ErrNameEncoding = shm.ErrNameEncoding
	// ErrPlatform matches every OS refusal while mapping the region.
	ErrPlatform = shm.ErrPlatform
	// ErrDecode matches every *DecodeError.
	ErrDecode = errors.New("mumble: decode error")

	ErrUnknownCode  = errors.New("code outside closed set")
	ErrUnknownBits  = errors.New("unknown flag bits")
	ErrInvalidUTF16 = errors.New("unpaired UTF-16 surrogate")
	ErrMissingField = errors.New("missing field")
	ErrShortImage   = errors.New("region image too short")
	ErrAddrFamily   = errors.New("unsupported address family")
	ErrMisaligned   = errors.New("region not word aligned")
)

// DecodeError reports a field whose current contents could not be interpreted.
// It never invalidates the Link; a later read may succeed.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("mumble: decode %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrDecode) match any DecodeError.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// decodeErr attaches field to err, replacing the field of an inner DecodeError.
func decodeErr(field string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return &DecodeError{Field: field, Err: de.Err}
	}
	return &DecodeError{Field: field, Err: err}
}
