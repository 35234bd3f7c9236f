//go:build !windows

package bluerain

import (
	"time"

	"github.com/pkg/errors"
)

// errUnsupported is what every native operation reports off windows; injection rides
// on the win32 loader and thread APIs.
var errUnsupported = errors.New("library injection requires windows")

type nativeLoader struct{}

func newNativeLoader() loader {
	return nativeLoader{}
}

func (nativeLoader) LoaderProc() (uintptr, error)      { return 0, errUnsupported }
func (nativeLoader) FreeProc() (uintptr, error)        { return 0, errUnsupported }
func (nativeLoader) LoadLocal(string) (uintptr, error) { return 0, errUnsupported }
func (nativeLoader) UnloadLocal(uintptr) error         { return errUnsupported }
func (nativeLoader) Modules() ([]ModuleInfo, error)    { return nil, errUnsupported }
func (nativeLoader) CloseHandle(uintptr) error         { return nil }

func (nativeLoader) SpawnRemote(_, _, _ uintptr) (uintptr, error) {
	return 0, errUnsupported
}

func (nativeLoader) WaitExit(uintptr, time.Duration) (uint32, error) {
	return 0, errUnsupported
}
