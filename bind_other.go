//go:build !darwin && !linux

package vatrace

import "errors"

var errBindUnsupported = errors.New("vatrace: binding native symbols is not supported on this platform")

func bindSymbol(ep EntryPoint, addr uintptr) (any, error) {
	return nil, errBindUnsupported
}
