package vatrace

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/pion/logging"
)

// State is the resolution state of one entry point.
type State uint8

const (
	StateUnresolved State = iota
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ResolvedEntry is the outcome of resolving one entry point. Once the
// registry is initialized entries never change.
type ResolvedEntry struct {
	EntryPoint EntryPoint
	State      State
	// Callable has dynamic type EntryPoint.Signature when State is
	// StateResolved, nil otherwise.
	Callable any
	// Err holds the *ResolutionError when State is StateFailed.
	Err error
}

// ResolutionObserver is told about every entry once, right after it reaches
// a terminal state.
type ResolutionObserver interface {
	ObserveResolution(e ResolvedEntry)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(log logging.LeveledLogger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithObserver registers an observer for resolution outcomes.
func WithObserver(o ResolutionObserver) RegistryOption {
	return func(r *Registry) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// Registry maps entry point names to their resolved callables. It is built
// lazily, exactly once, on first use and is read-only afterwards.
type Registry struct {
	resolver  Resolver
	declared  []EntryPoint
	log       logging.LeveledLogger
	observers []ResolutionObserver

	once    sync.Once
	entries []ResolvedEntry
	byName  map[string]int
}

// NewRegistry returns an uninitialized registry for eps. Nothing is
// resolved until the first Get or EnsureInitialized.
func NewRegistry(resolver Resolver, eps []EntryPoint, opts ...RegistryOption) *Registry {
	r := &Registry{
		resolver: resolver,
		declared: append([]EntryPoint(nil), eps...),
		log:      logging.NewDefaultLoggerFactory().NewLogger("vatrace"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureInitialized resolves every declared entry point on the first call.
// Concurrent callers block until that single run completes.
func (r *Registry) EnsureInitialized() {
	r.once.Do(r.initialize)
}

func (r *Registry) initialize() {
	entries := make([]ResolvedEntry, len(r.declared))
	byName := make(map[string]int, len(r.declared))

	for i, ep := range r.declared {
		e := r.resolve(ep)
		entries[i] = e
		if _, dup := byName[ep.Name]; !dup {
			byName[ep.Name] = i
		}

		if e.State == StateFailed {
			r.log.Errorf("%v", e.Err)
		} else {
			r.log.Debugf("resolved %s", ep)
		}
		for _, o := range r.observers {
			o.ObserveResolution(e)
		}
	}

	r.entries = entries
	r.byName = byName
}

// resolve runs the resolver for a single entry and checks what it returns
// against the declared signature. It never panics.
func (r *Registry) resolve(ep EntryPoint) (e ResolvedEntry) {
	e = ResolvedEntry{EntryPoint: ep, State: StateFailed}
	defer func() {
		if p := recover(); p != nil {
			e.Callable = nil
			e.State = StateFailed
			e.Err = &ResolutionError{Name: ep.Name, Version: ep.Version, Err: fmt.Errorf("resolver panic: %v", p)}
		}
	}()

	if r.resolver == nil {
		e.Err = &ResolutionError{Name: ep.Name, Version: ep.Version, Err: ErrNotInitialized}
		return e
	}

	fn, err := r.resolver.Resolve(ep)
	if err != nil {
		e.Err = asResolutionError(ep, err)
		return e
	}
	if err := checkCallable(ep, fn); err != nil {
		e.Err = &ResolutionError{Name: ep.Name, Version: ep.Version, Err: err}
		return e
	}

	e.State = StateResolved
	e.Callable = fn
	return e
}

func asResolutionError(ep EntryPoint, err error) error {
	if re, ok := err.(*ResolutionError); ok {
		return re
	}
	return &ResolutionError{Name: ep.Name, Version: ep.Version, Err: err}
}

func checkCallable(ep EntryPoint, fn any) error {
	if fn == nil {
		return fmt.Errorf("%w: nil callable", ErrSignatureMismatch)
	}
	v := reflect.ValueOf(fn)
	if v.Kind() == reflect.Func && v.IsNil() {
		return fmt.Errorf("%w: nil callable", ErrSignatureMismatch)
	}
	if ep.Signature == nil || v.Type() != ep.Signature {
		return fmt.Errorf("%w: got %s, want %v", ErrSignatureMismatch, v.Type(), ep.Signature)
	}
	return nil
}

// Get returns the entry for name, initializing the registry first if
// needed. After initialization it takes no locks.
func (r *Registry) Get(name string) (ResolvedEntry, bool) {
	r.EnsureInitialized()
	i, ok := r.byName[name]
	if !ok {
		return ResolvedEntry{}, false
	}
	return r.entries[i], true
}

// Entries returns every entry in declaration order, initializing the
// registry first if needed.
func (r *Registry) Entries() []ResolvedEntry {
	r.EnsureInitialized()
	out := make([]ResolvedEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
