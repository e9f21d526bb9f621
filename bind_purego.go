//go:build darwin || linux

package vatrace

import (
	"fmt"
	"reflect"

	"github.com/ebitengine/purego"
)

// bindSymbol turns addr into a Go func of ep.Signature. purego panics on
// signatures it cannot call; that is reported as ErrSignatureMismatch.
func bindSymbol(ep EntryPoint, addr uintptr) (fn any, err error) {
	if err := ep.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}
	if addr == 0 {
		return nil, ErrSymbolNotFound
	}

	ptr := reflect.New(ep.Signature)
	defer func() {
		if r := recover(); r != nil {
			fn, err = nil, fmt.Errorf("%w: %v", ErrSignatureMismatch, r)
		}
	}()
	purego.RegisterFunc(ptr.Interface(), addr)
	return ptr.Elem().Interface(), nil
}
