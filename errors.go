package bluerain

import "errors"

var (
	// ErrInvalidContext occurs when an Injector is constructed without a memory
	// context, or with an external context whose process handle is invalid.
	ErrInvalidContext = errors.New("invalid memory context")
	// ErrLibraryNotFound occurs when the requested library path does not exist on disk.
	ErrLibraryNotFound = errors.New("library file not found")
	// ErrInvalidState occurs when an Injector is used without a memory context, or the
	// context became invalid between construction and use.
	ErrInvalidState = errors.New("injector in invalid state")
	// ErrInjectionFailed occurs when loader entry-point resolution, the remote memory
	// write, the remote thread, or the remote loader itself fails.
	ErrInjectionFailed = errors.New("injection failed")
	// ErrLoadFailed occurs when the local library load yields no usable handle.
	ErrLoadFailed = errors.New("library load failed")
	// ErrModuleNotFound occurs when a nominally successful local load cannot be found
	// in the process module list.
	ErrModuleNotFound = errors.New("module not found in process")
	// ErrNoHandle occurs when ejecting a module whose record holds no handle, which is
	// the case for remote injections performed without waiting.
	ErrNoHandle = errors.New("no module handle recorded")
)

// join folds per-module eject failures into one error, nil when there are none.
func join(errs ...error) error {
	return errors.Join(errs...)
}
