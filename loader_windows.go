//go:build windows

package bluerain

import (
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

var (
	modKernel32 = windows.NewLazySystemDLL("kernel32.dll")

	// Not wrapped by x/sys/windows.
	procCreateRemoteThread = modKernel32.NewProc("CreateRemoteThread")
	procGetExitCodeThread  = modKernel32.NewProc("GetExitCodeThread")
	procLoadLibraryW       = modKernel32.NewProc("LoadLibraryW")
	procFreeLibrary        = modKernel32.NewProc("FreeLibrary")
)

type nativeLoader struct{}

func newNativeLoader() loader {
	return nativeLoader{}
}

// LoaderProc resolves LoadLibraryW in the local kernel32. The system loader library is
// mapped at the same base in every process, so the local address is valid in the
// target too.
func (nativeLoader) LoaderProc() (uintptr, error) {
	if err := procLoadLibraryW.Find(); err != nil {
		return 0, err
	}
	return procLoadLibraryW.Addr(), nil
}

func (nativeLoader) FreeProc() (uintptr, error) {
	if err := procFreeLibrary.Find(); err != nil {
		return 0, err
	}
	return procFreeLibrary.Addr(), nil
}

func (nativeLoader) LoadLocal(path string) (uintptr, error) {
	h, err := windows.LoadLibrary(path)
	if err != nil {
		return 0, err
	}
	return uintptr(h), nil
}

func (nativeLoader) UnloadLocal(handle uintptr) error {
	return windows.FreeLibrary(windows.Handle(handle))
}

func (nativeLoader) Modules() (mods []ModuleInfo, err error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, windows.GetCurrentProcessId())
	if err != nil {
		return nil, errors.Wrap(err, "snapshot process modules")
	}
	defer windows.CloseHandle(snap)
	var me windows.ModuleEntry32
	me.Size = uint32(unsafe.Sizeof(me))
	for err = windows.Module32First(snap, &me); err == nil; err = windows.Module32Next(snap, &me) {
		mods = append(mods, ModuleInfo{
			Name:   windows.UTF16ToString(me.Module[:]),
			Path:   windows.UTF16ToString(me.ExePath[:]),
			Handle: uintptr(me.ModBaseAddr),
		})
	}
	if err == windows.ERROR_NO_MORE_FILES {
		err = nil
	}
	return mods, err
}

func (nativeLoader) SpawnRemote(process, entry, arg uintptr) (uintptr, error) {
	thread, _, err := procCreateRemoteThread.Call(process, 0, 0, entry, arg, 0, 0)
	if thread == 0 {
		return 0, errors.Wrap(err, "create remote thread")
	}
	return thread, nil
}

func (nativeLoader) WaitExit(thread uintptr, timeout time.Duration) (uint32, error) {
	event, err := windows.WaitForSingleObject(windows.Handle(thread), uint32(timeout.Milliseconds()))
	if err != nil {
		return 0, errors.Wrap(err, "wait for remote thread")
	}
	if event != windows.WAIT_OBJECT_0 {
		return 0, errors.Errorf("remote thread still running after %s (wait state %#x)", timeout, event)
	}
	var code uint32
	r, _, err := procGetExitCodeThread.Call(thread, uintptr(unsafe.Pointer(&code)))
	if r == 0 {
		return 0, errors.Wrap(err, "retrieve remote thread exit code")
	}
	return code, nil
}

func (nativeLoader) CloseHandle(handle uintptr) error {
	return windows.CloseHandle(windows.Handle(handle))
}
