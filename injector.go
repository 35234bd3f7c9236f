package bluerain

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZenLiuCN/fn"
	"github.com/pkg/errors"

	"github.com/IgorYunusov/bluerain/memory"
)

// DefaultWaitTimeout bounds the wait on remote loader threads unless overridden with
// WithWaitTimeout.
const DefaultWaitTimeout = 5 * time.Second

type (
	/*Injector loads shared libraries into the process behind its memory context and
	tracks every confirmed load in a registry keyed by module name.

	Use Steps:

	 1. New with a [memory.Context], local or external.
	 2. Inject each library; re-injecting a name replaces its record.
	 3. Close to dispose; with WithEjectOnClose the registered modules are unloaded
	    from their process first.

	Note:

	 1. An Injector references its context but never owns it; the caller closes the
	    context after the Injector.
	 2. Inject, Eject and Close are synchronous and not safe for concurrent use.
	*/
	Injector struct {
		ctx     memory.Context
		native  loader
		modules map[string]Module
		eject   bool
		wait    time.Duration
		closed  bool
	}
	// Option configures an Injector at construction.
	Option func(*Injector)
)

// WithEjectOnClose makes Close unload every still-registered module from its process.
func WithEjectOnClose() Option {
	return func(i *Injector) { i.eject = true }
}

// WithWaitTimeout bounds the wait on remote loader and free threads. Zero disables
// waiting entirely: injection returns once the remote thread is created, the record
// carries no module handle and the module cannot be ejected later.
func WithWaitTimeout(d time.Duration) Option {
	return func(i *Injector) { i.wait = d }
}

// New creates an Injector over ctx. It fails with ErrInvalidContext when ctx is nil or
// is an external context whose process handle is already invalid.
func New(ctx memory.Context, opts ...Option) (*Injector, error) {
	if ctx == nil {
		return nil, errors.Wrap(ErrInvalidContext, "an injector needs a memory context")
	}
	if ctx.External() && !ctx.Valid() {
		return nil, errors.Wrap(ErrInvalidContext, "external context holds an invalid process handle")
	}
	i := &Injector{
		ctx:     ctx,
		native:  newNativeLoader(),
		modules: make(map[string]Module),
		wait:    DefaultWaitTimeout,
	}
	for _, o := range opts {
		o(i)
	}
	return i, nil
}

// Inject loads the library at path into the context's process and registers the
// resulting module record, replacing any previous record with the same name. On any
// failure the registry is left untouched.
func (i *Injector) Inject(path string) (m Module, err error) {
	if _, err = os.Stat(path); err != nil {
		return m, errors.Wrapf(ErrLibraryNotFound, "%s", path)
	}
	if i.closed || i.ctx == nil {
		return m, errors.Wrap(ErrInvalidState, "no usable memory context")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return m, errors.Wrapf(ErrLibraryNotFound, "resolve %s: %v", path, err)
	}
	name := filepath.Base(abs)
	if i.ctx.External() {
		m, err = i.injectExternal(abs, name)
	} else {
		m, err = i.injectInternal(abs, name)
	}
	if err != nil {
		return Module{}, err
	}
	i.modules[m.Name] = m
	return m, nil
}

// injectExternal loads the library into the target process: the absolute path is
// written into memory owned by the target and a remote thread runs the target's own
// loader entry point on it. The remote allocation only lives for this call.
func (i *Injector) injectExternal(abs, name string) (m Module, err error) {
	if !i.ctx.Valid() {
		return m, errors.Wrap(ErrInvalidState, "target process handle is no longer valid")
	}
	entry, err := i.native.LoaderProc()
	if err != nil {
		return m, errors.Wrapf(ErrInjectionFailed, "resolve loader entry point: %v", err)
	}
	wide := encodeWidePath(abs)
	alloc, err := i.ctx.Allocate(len(wide))
	if err != nil {
		return m, errors.Wrapf(ErrInjectionFailed, "allocate %d bytes in target: %v", len(wide), err)
	}
	defer alloc.Release()
	if err = alloc.Write(0, wide); err != nil {
		return m, errors.Wrapf(ErrInjectionFailed, "write library path into target: %v", err)
	}
	thread, err := i.native.SpawnRemote(i.ctx.Process(), entry, alloc.Address())
	if err != nil {
		return m, errors.Wrapf(ErrInjectionFailed, "spawn loader thread in target: %v", err)
	}
	defer i.native.CloseHandle(thread)
	var handle uintptr
	if i.wait > 0 {
		code, werr := i.native.WaitExit(thread, i.wait)
		if werr != nil {
			return m, errors.Wrapf(ErrInjectionFailed, "await target loader: %v", werr)
		}
		// The remote loader's return value, the module handle, comes back as the
		// thread exit code. Zero means the target's loader rejected the library.
		if code == 0 {
			return m, errors.Wrapf(ErrInjectionFailed, "target loader returned no handle for %s", name)
		}
		handle = uintptr(code)
	}
	return Module{Name: name, Handle: handle}, nil
}

// injectInternal loads the library into the calling process and confirms the load by
// re-scanning the process module list for the resolved path.
func (i *Injector) injectInternal(abs, name string) (m Module, err error) {
	handle, err := i.native.LoadLocal(abs)
	if err != nil {
		return m, errors.Wrapf(ErrLoadFailed, "%s: %v", name, err)
	}
	if handle == 0 {
		return m, errors.Wrapf(ErrLoadFailed, "%s: loader returned no handle", name)
	}
	mods, err := i.native.Modules()
	if err != nil {
		return m, errors.Wrapf(ErrModuleNotFound, "snapshot modules: %v", err)
	}
	for _, mod := range mods {
		if strings.EqualFold(mod.Path, abs) {
			return Module{Name: name, Path: mod.Path, Handle: mod.Handle}, nil
		}
	}
	return m, errors.Wrapf(ErrModuleNotFound, "%s absent from module list after load", name)
}

// Eject unloads a registered module from its process and drops its record. External
// modules are ejected by running the target's free-library routine on the recorded
// handle through a remote thread, the same technique injection uses.
func (i *Injector) Eject(name string) error {
	m, ok := i.modules[name]
	if !ok {
		return errors.Wrapf(ErrModuleNotFound, "%s is not registered", name)
	}
	if err := i.ejectModule(m); err != nil {
		return err
	}
	delete(i.modules, name)
	return nil
}

func (i *Injector) ejectModule(m Module) error {
	if m.Handle == 0 {
		return errors.Wrapf(ErrNoHandle, "cannot eject %s", m.Name)
	}
	if !i.ctx.External() {
		return errors.Wrapf(i.native.UnloadLocal(m.Handle), "unload %s", m.Name)
	}
	if !i.ctx.Valid() {
		return errors.Wrapf(ErrInvalidState, "eject %s: target process handle is no longer valid", m.Name)
	}
	entry, err := i.native.FreeProc()
	if err != nil {
		return errors.Wrapf(err, "resolve free entry point for %s", m.Name)
	}
	thread, err := i.native.SpawnRemote(i.ctx.Process(), entry, m.Handle)
	if err != nil {
		return errors.Wrapf(err, "spawn free thread for %s", m.Name)
	}
	defer i.native.CloseHandle(thread)
	if i.wait > 0 {
		code, err := i.native.WaitExit(thread, i.wait)
		if err != nil {
			return errors.Wrapf(err, "await free of %s", m.Name)
		}
		if code == 0 {
			return errors.Errorf("target refused to unload %s", m.Name)
		}
	}
	return nil
}

// Modules lists the names of the currently registered modules.
func (i *Injector) Modules() []string {
	return fn.MapKeys(i.modules)
}

// Lookup returns the record registered under name.
func (i *Injector) Lookup(name string) (Module, bool) {
	m, ok := i.modules[name]
	return m, ok
}

// Close disposes the Injector. With eject-on-close enabled every registered module is
// unloaded from its process first; per-module failures are collected so one failed
// eject never stops the rest. The registry is cleared either way, the memory context
// stays open for its owner, and closing twice is a no-op.
func (i *Injector) Close() (err error) {
	if i.closed {
		return nil
	}
	i.closed = true
	if i.eject {
		var errs []error
		for _, m := range i.modules {
			if e := i.ejectModule(m); e != nil {
				errs = append(errs, e)
			}
		}
		err = join(errs...)
	}
	i.modules = nil
	return err
}
