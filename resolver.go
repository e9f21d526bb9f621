package vatrace

import (
	"reflect"
)

// Resolver turns an entry point descriptor into a callable whose dynamic
// type is exactly the descriptor's Signature.
type Resolver interface {
	Resolve(ep EntryPoint) (any, error)
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(ep EntryPoint) (any, error)

// Resolve calls f(ep).
func (f ResolverFunc) Resolve(ep EntryPoint) (any, error) { return f(ep) }

// ObjectInfo identifies the loaded object that contains an address.
type ObjectInfo struct {
	Path string
	Base uintptr
}

// SymbolTable is the narrow view of the dynamic loader the resolver needs.
//
// Lookup with a non-empty version must match that exact symbol version and
// must not fall back to the default version of name.
type SymbolTable interface {
	Lookup(name, version string) (uintptr, error)
	ObjectOf(addr uintptr) (ObjectInfo, bool)
}

// SymbolResolver resolves entry points through a SymbolTable and binds the
// located addresses to their declared signatures.
type SymbolResolver struct {
	table   SymbolTable
	self    ObjectInfo
	hasSelf bool
	bind    func(ep EntryPoint, addr uintptr) (any, error)
}

// NewResolver returns a resolver over table. self is any code address
// inside the interposing module (see SelfAddress); symbols found in the
// same object are rejected. A zero self disables the check.
func NewResolver(table SymbolTable, self uintptr) *SymbolResolver {
	r := &SymbolResolver{table: table, bind: bindSymbol}
	if self != 0 {
		r.self, r.hasSelf = table.ObjectOf(self)
	}
	return r
}

// Resolve looks up ep and binds it. Errors are always *ResolutionError.
func (r *SymbolResolver) Resolve(ep EntryPoint) (any, error) {
	fail := func(err error) (any, error) {
		return nil, &ResolutionError{Name: ep.Name, Version: ep.Version, Err: err}
	}
	if ep.Name == "" {
		return fail(ErrEmptyName)
	}

	addr, err := r.table.Lookup(ep.Name, ep.Version)
	if err != nil {
		return fail(err)
	}
	if addr == 0 {
		return fail(ErrSymbolNotFound)
	}

	if r.hasSelf {
		if obj, ok := r.table.ObjectOf(addr); ok && obj.Base == r.self.Base {
			return fail(ErrSelfResolution)
		}
	}

	fn, err := r.bind(ep, addr)
	if err != nil {
		return fail(err)
	}
	return fn, nil
}

// SelfAddress returns a code address inside the module this package is
// linked into. In the preload library that is libvatrace.so itself.
func SelfAddress() uintptr {
	return reflect.ValueOf(SelfAddress).Pointer()
}
