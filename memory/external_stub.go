//go:build !windows

package memory

// Open is unavailable off windows; remote process memory is driven through the win32
// virtual memory APIs.
func Open(pid uint32) (Context, error) {
	return nil, ErrUnsupported
}

// FromHandle is unavailable off windows.
func FromHandle(h uintptr) (Context, error) {
	return nil, ErrUnsupported
}
