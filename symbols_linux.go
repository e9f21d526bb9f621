//go:build linux

package vatrace

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

// rtldNext is glibc's RTLD_NEXT, ((void *) -1l). purego only exports
// RTLD_DEFAULT.
const rtldNext = ^uintptr(0)

var (
	dlOnce    sync.Once
	dlInitErr error
)

// libdl entry points purego does not wrap.
var (
	dlvsym  func(handle uintptr, symbol, version string) uintptr
	dladdr  func(addr uintptr, info *dlInfo) int32
	dlerror func() uintptr
)

// dlInfo mirrors Dl_info from <dlfcn.h>.
type dlInfo struct {
	Fname uintptr
	Fbase uintptr
	Sname uintptr
	Saddr uintptr
}

func loadDL() error {
	dlOnce.Do(func() {
		dlInitErr = loadDLSymbols()
	})
	return dlInitErr
}

func loadDLSymbols() error {
	for _, sym := range []struct {
		fptr any
		name string
	}{
		{&dlvsym, "dlvsym"},
		{&dladdr, "dladdr"},
		{&dlerror, "dlerror"},
	} {
		addr, err := purego.Dlsym(purego.RTLD_DEFAULT, sym.name)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", sym.name, err)
		}
		purego.RegisterFunc(sym.fptr, addr)
	}
	return nil
}

// DynamicSymbols is a SymbolTable backed by the process's dynamic loader.
type DynamicSymbols struct {
	handle uintptr
	// owned is set for handles returned by dlopen.
	owned bool
	path  string
}

// NextSymbols returns a table over RTLD_NEXT: only objects that come after
// the one containing this package in the loader's search order are
// searched. Inside the preload library this skips the library itself.
func NextSymbols() (*DynamicSymbols, error) {
	if err := loadDL(); err != nil {
		return nil, err
	}
	return &DynamicSymbols{handle: rtldNext}, nil
}

// OpenSymbols dlopens path and returns a table over that object and its
// dependencies. Close releases it.
func OpenSymbols(path string) (*DynamicSymbols, error) {
	if err := loadDL(); err != nil {
		return nil, err
	}
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return &DynamicSymbols{handle: handle, owned: true, path: path}, nil
}

// Path returns the dlopened path, empty for RTLD_NEXT tables.
func (s *DynamicSymbols) Path() string { return s.path }

// Lookup finds name, using dlvsym when version is set so that only that
// exact symbol version matches.
func (s *DynamicSymbols) Lookup(name, version string) (uintptr, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	if version == "" {
		runtime.LockOSThread()
		addr, err := purego.Dlsym(s.handle, name)
		runtime.UnlockOSThread()
		if err != nil {
			return 0, err
		}
		if addr == 0 {
			return 0, ErrSymbolNotFound
		}
		return addr, nil
	}

	return versionedLookup(s.vsym, name, version)
}

// vsym calls dlvsym and reports the loader's error text. dlerror state is
// per thread, so the three calls must run on the same one.
func (s *DynamicSymbols) vsym(name, version string) (uintptr, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// clear stale dlerror
	_ = dlerror()
	addr := dlvsym(s.handle, name, version)
	if msg := goStringFromPtr(dlerror()); msg != "" {
		return 0, errors.New(msg)
	}
	return addr, nil
}

// noSuchVersion is a version no real object defines. glibc's dlvsym
// answers any version with the plain definition from an object that has no
// version information at all, so a hit on it exposes that case.
const noSuchVersion = "VATRACE_NO_SUCH_VERSION"

// versionedLookup resolves name@version through vsym and rejects matches
// that only exist because the defining object is unversioned.
func versionedLookup(vsym func(name, version string) (uintptr, error), name, version string) (uintptr, error) {
	addr, err := vsym(name, version)
	if err != nil {
		return 0, err
	}
	if addr == 0 {
		return 0, ErrSymbolNotFound
	}
	if other, _ := vsym(name, noSuchVersion); other == addr {
		return 0, fmt.Errorf("%w: %s is defined without symbol versions", ErrVersionNotFound, name)
	}
	return addr, nil
}

// ObjectOf reports the loaded object containing addr.
func (s *DynamicSymbols) ObjectOf(addr uintptr) (ObjectInfo, bool) {
	if addr == 0 {
		return ObjectInfo{}, false
	}
	info := new(dlInfo)
	if dladdr(addr, info) == 0 {
		return ObjectInfo{}, false
	}
	return ObjectInfo{Path: goStringFromPtr(info.Fname), Base: info.Fbase}, true
}

// Close releases a handle obtained from OpenSymbols. It is a no-op for
// RTLD_NEXT tables.
func (s *DynamicSymbols) Close() error {
	if !s.owned || s.handle == 0 {
		return nil
	}
	err := purego.Dlclose(s.handle)
	s.handle = 0
	return err
}
