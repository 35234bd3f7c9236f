package bluerain

import "time"

// loader is the native facility an Injector drives: entry-point resolution and remote
// thread handling for the cross-process path, library load/unload and the module-list
// snapshot for the in-process path. Split out so the dispatch and registry logic can
// run against a fake on any platform.
type loader interface {
	LoaderProc() (uintptr, error) // address of the system library-load entry point
	FreeProc() (uintptr, error)   // address of the system library-free entry point
	LoadLocal(path string) (uintptr, error)
	UnloadLocal(handle uintptr) error
	Modules() ([]ModuleInfo, error) // snapshot of the current process's loaded modules
	SpawnRemote(process, entry, arg uintptr) (uintptr, error)
	WaitExit(thread uintptr, timeout time.Duration) (uint32, error)
	CloseHandle(handle uintptr) error
}
