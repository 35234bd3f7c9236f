// Package memory provides the memory contexts an Injector operates through: the
// process performing the injection itself, or an external process reached through an
// open process handle.
package memory

import "errors"

type (
	// Context is a scoped view of one process's memory, local or external. A Context
	// is created by the caller and shared with an Injector by reference; closing it is
	// the caller's job.
	Context interface {
		External() bool                        // true when the context crosses a process boundary
		Valid() bool                           // false once the underlying handle is unusable
		Process() uintptr                      // target process handle, 0 for the local context
		Allocate(size int) (Allocation, error) // commit size bytes inside the target
		Close() error
	}
	// Allocation is one committed region inside a Context's process. Release is
	// idempotent and safe to defer, so a region is returned on every exit path of the
	// operation that acquired it.
	Allocation interface {
		Address() uintptr
		Size() int
		Write(offset int, data []byte) error
		Release() error
	}
)

var (
	// ErrInvalidHandle occurs when an external context is built around a null or
	// invalid process handle.
	ErrInvalidHandle = errors.New("invalid process handle")
	// ErrBadAllocation occurs on a non-positive allocation size.
	ErrBadAllocation = errors.New("allocation size must be positive")
	// ErrReleased occurs when writing through an allocation after its release.
	ErrReleased = errors.New("allocation already released")
	// ErrOutOfBounds occurs when a write does not fit inside an allocation.
	ErrOutOfBounds = errors.New("write exceeds allocation bounds")
	// ErrUnsupported occurs when external contexts are requested on a platform
	// without remote process memory support.
	ErrUnsupported = errors.New("external process memory requires windows")
)
