//go:build linux

// Shared helpers for the purego-backed loader code.

package vatrace

import "unsafe"

// maxCStringLen bounds goStringFromPtr. dlerror text is an object path
// followed by the loader's message, so it can run well past PATH_MAX.
const maxCStringLen = 64 << 10

// goStringFromPtr converts a C string pointer to a Go string.
// Used for dlerror() messages and dladdr() object paths. Strings longer
// than maxCStringLen are cut at that length.
func goStringFromPtr(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	p := unsafe.Pointer(ptr)
	var length int
	for length < maxCStringLen {
		if *(*byte)(unsafe.Add(p, length)) == 0 {
			break
		}
		length++
	}
	if length == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(p), length))
}
