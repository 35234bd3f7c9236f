package bluerain

import (
	"encoding/binary"
	"unicode/utf16"
)

type (
	// Module describes one confirmed library load. It is an immutable value; the
	// Injector registry keeps the authoritative copy keyed by Name.
	Module struct {
		Name   string // canonical module name, the library file name
		Path   string // full resolved path, populated by in-process loads only
		Handle uintptr
	}
	// ModuleInfo is one entry of a process module-list snapshot.
	ModuleInfo struct {
		Name   string
		Path   string
		Handle uintptr
	}
)

// encodeWidePath renders a path as the NUL-terminated UTF-16LE byte sequence the
// system loader entry point expects.
func encodeWidePath(path string) []byte {
	u := utf16.Encode([]rune(path))
	b := make([]byte, (len(u)+1)*2)
	for i, c := range u {
		binary.LittleEndian.PutUint16(b[i*2:], c)
	}
	return b
}
