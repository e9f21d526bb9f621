package vatrace

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyName is returned for a descriptor without a symbol name.
	ErrEmptyName = errors.New("vatrace: empty symbol name")
	// ErrSymbolNotFound is returned when the loader has no matching symbol
	// and reports no diagnostic of its own.
	ErrSymbolNotFound = errors.New("vatrace: symbol not found")
	// ErrVersionNotFound is returned when name exists but not under the
	// required symbol version.
	ErrVersionNotFound = errors.New("vatrace: symbol version not found")
	// ErrSelfResolution is returned when a lookup lands inside the
	// interposing module, which would recurse forever if called.
	ErrSelfResolution = errors.New("vatrace: symbol resolves to the interposing module")
	// ErrSignatureMismatch is returned when a resolved callable cannot be
	// bound to, or does not have, the declared call signature.
	ErrSignatureMismatch = errors.New("vatrace: callable does not match declared signature")
	// ErrNotInitialized is returned by resolvers whose symbol table could
	// not be opened.
	ErrNotInitialized = errors.New("vatrace: symbol table not available")
)

// ResolutionError reports a failed lookup of one entry point.
type ResolutionError struct {
	Name    string
	Version string
	Err     error
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("can't load symbol '")
	b.WriteString(e.Name)
	b.WriteString("'")
	if e.Version != "" {
		b.WriteString(" version '")
		b.WriteString(e.Version)
		b.WriteString("'")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// UnresolvedCallError reports a call that reached an entry point whose
// resolution failed. The shim answers it with StatusGenericFailure.
type UnresolvedCallError struct {
	Name string
	// Cause is the resolution failure recorded for the entry, if any.
	Cause error
}

func (e *UnresolvedCallError) Error() string {
	msg := "vatrace: call to unresolved entry point " + e.Name
	if e.Cause != nil {
		msg += " (" + e.Cause.Error() + ")"
	}
	return msg
}

func (e *UnresolvedCallError) Unwrap() error { return e.Cause }
