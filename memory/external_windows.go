//go:build windows

package memory

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// Access rights an injection needs on the target: spawn a thread in it, operate on and
// write its memory, and query it.
const injectAccess = windows.PROCESS_CREATE_THREAD |
	windows.PROCESS_QUERY_INFORMATION |
	windows.PROCESS_VM_OPERATION |
	windows.PROCESS_VM_WRITE |
	windows.PROCESS_VM_READ

var (
	modKernel32        = windows.NewLazySystemDLL("kernel32.dll")
	procVirtualAllocEx = modKernel32.NewProc("VirtualAllocEx")
	procVirtualFreeEx  = modKernel32.NewProc("VirtualFreeEx")
)

type (
	externalContext struct {
		handle windows.Handle
		owned  bool
	}
	externalAllocation struct {
		process  windows.Handle
		addr     uintptr
		size     int
		released bool
	}
)

// Open acquires an external memory context on the process identified by pid, with just
// the access rights injection requires.
func Open(pid uint32) (Context, error) {
	h, err := windows.OpenProcess(injectAccess, false, pid)
	if err != nil {
		return nil, errors.Wrapf(err, "open process %d", pid)
	}
	return &externalContext{handle: h, owned: true}, nil
}

// FromHandle wraps an already opened process handle in an external context. The handle
// stays owned by the caller and is not closed by Close.
func FromHandle(h uintptr) (Context, error) {
	if h == 0 || windows.Handle(h) == windows.InvalidHandle {
		return nil, ErrInvalidHandle
	}
	return &externalContext{handle: windows.Handle(h)}, nil
}

func (c *externalContext) External() bool { return true }

func (c *externalContext) Valid() bool {
	return c.handle != 0 && c.handle != windows.InvalidHandle
}

func (c *externalContext) Process() uintptr { return uintptr(c.handle) }

func (c *externalContext) Close() error {
	if !c.owned || c.handle == 0 {
		c.handle = 0
		return nil
	}
	h := c.handle
	c.handle = 0
	return windows.CloseHandle(h)
}

func (c *externalContext) Allocate(size int) (Allocation, error) {
	if size <= 0 {
		return nil, ErrBadAllocation
	}
	if !c.Valid() {
		return nil, ErrInvalidHandle
	}
	addr, _, err := procVirtualAllocEx.Call(
		uintptr(c.handle),
		0,
		uintptr(size),
		windows.MEM_COMMIT|windows.MEM_RESERVE,
		windows.PAGE_READWRITE)
	if addr == 0 {
		return nil, errors.Wrap(err, "allocate in target process")
	}
	return &externalAllocation{process: c.handle, addr: addr, size: size}, nil
}

func (a *externalAllocation) Address() uintptr { return a.addr }
func (a *externalAllocation) Size() int        { return a.size }

func (a *externalAllocation) Write(offset int, data []byte) error {
	if a.released {
		return ErrReleased
	}
	if offset < 0 || offset+len(data) > a.size {
		return ErrOutOfBounds
	}
	if len(data) == 0 {
		return nil
	}
	var written uintptr
	err := windows.WriteProcessMemory(a.process, a.addr+uintptr(offset), &data[0], uintptr(len(data)), &written)
	if err != nil {
		return errors.Wrap(err, "write target process memory")
	}
	if written != uintptr(len(data)) {
		return errors.Errorf("short write into target process: %d of %d bytes", written, len(data))
	}
	return nil
}

func (a *externalAllocation) Release() error {
	if a.released {
		return nil
	}
	a.released = true
	r, _, err := procVirtualFreeEx.Call(uintptr(a.process), a.addr, 0, windows.MEM_RELEASE)
	if r == 0 {
		return errors.Wrap(err, "release target process memory")
	}
	return nil
}
