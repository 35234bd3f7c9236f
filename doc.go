/*
Package bluerain loads shared libraries into a local or a remote process behind one
injection API.

# Underwater

 1. Cross-process injection writes the library path into memory owned by the target,
    then starts a remote thread at the system loader entry point (LoadLibraryW), so the
    target loads the library with its own loader.
 2. In-process injection is a plain OS library load, kept under the same vocabulary so
    callers dispatch on the memory context instead of branching themselves.
 3. Every confirmed load is tracked in a registry keyed by module name; an Injector can
    eject everything it loaded when it is closed.

# Notes

 1. A memory context ([memory.Context]) is supplied by the caller and outlives the
    Injector; the Injector never closes it.
 2. Remote loads are awaited with a bounded timeout and the loaded module handle is
    taken from the remote thread's exit code. A zero timeout skips the wait; the record
    then carries no handle and the module cannot be ejected later.
 3. The native load paths require windows. Everything above the loader backend is
    portable and exercised by the package tests on any OS.

# Inject tool

The repository ships a small command to drive injections from a shell:

	go install github.com/IgorYunusov/bluerain/cmd/inject@latest

See `inject -h` for flags and the TOML profile format.
*/
package bluerain
