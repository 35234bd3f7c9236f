package memory

import "unsafe"

type (
	localContext    struct{}
	localAllocation struct {
		buf []byte
	}
)

// Local is the memory context of the calling process. It is always valid and carries
// no process handle; injections through it load into the current process.
func Local() Context {
	return localContext{}
}

func (localContext) External() bool   { return false }
func (localContext) Valid() bool      { return true }
func (localContext) Process() uintptr { return 0 }
func (localContext) Close() error     { return nil }

func (localContext) Allocate(size int) (Allocation, error) {
	if size <= 0 {
		return nil, ErrBadAllocation
	}
	return &localAllocation{buf: make([]byte, size)}, nil
}

func (a *localAllocation) Address() uintptr {
	if a.buf == nil {
		return 0
	}
	return uintptr(unsafe.Pointer(&a.buf[0]))
}

func (a *localAllocation) Size() int {
	return len(a.buf)
}

func (a *localAllocation) Write(offset int, data []byte) error {
	if a.buf == nil {
		return ErrReleased
	}
	if offset < 0 || offset+len(data) > len(a.buf) {
		return ErrOutOfBounds
	}
	copy(a.buf[offset:], data)
	return nil
}

func (a *localAllocation) Release() error {
	a.buf = nil
	return nil
}
