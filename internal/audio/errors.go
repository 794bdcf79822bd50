package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrRender indicates a clip could not be synthesized
	ErrRender = errors.New("tone rendering failed")

	// ErrDevice indicates the output device failed or is unavailable
	ErrDevice = errors.New("audio device failure")

	// ErrInvalidHandle is returned when a handle was not produced by the renderer it is passed to
	ErrInvalidHandle = errors.New("handle does not belong to this renderer")

	// ErrClosed is returned by operations on a closed device or renderer
	ErrClosed = errors.New("audio device is closed")
)

// DeviceError carries the device operation that failed.
type DeviceError struct {
	Op    string
	Cause error
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	}
	return e.Op
}

// Unwrap lets errors.Is match both ErrDevice and the cause.
func (e *DeviceError) Unwrap() []error {
	return []error{ErrDevice, e.Cause}
}
