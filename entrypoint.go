package vatrace

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unsafe"
)

// Call signatures of the intercepted libva entry points. Each mirrors the C
// prototype in va.h argument for argument.
type (
	CreateConfigFunc    func(dpy Display, profile Profile, entrypoint Entrypoint, attribs *ConfigAttrib, numAttribs int32, id *ConfigID) Status
	DestroyConfigFunc   func(dpy Display, id ConfigID) Status
	CreateContextFunc   func(dpy Display, config ConfigID, width, height, flag int32, renderTargets *SurfaceID, numRenderTargets int32, id *ContextID) Status
	DestroyContextFunc  func(dpy Display, ctx ContextID) Status
	CreateSurfacesFunc  func(dpy Display, format, width, height uint32, surfaces *SurfaceID, numSurfaces uint32, attribs *SurfaceAttrib, numAttribs uint32) Status
	DestroySurfacesFunc func(dpy Display, surfaces *SurfaceID, numSurfaces int32) Status
	CreateBufferFunc    func(dpy Display, ctx ContextID, typ BufferType, size, numElements uint32, data unsafe.Pointer, id *BufferID) Status
	DestroyBufferFunc   func(dpy Display, id BufferID) Status
	MapBufferFunc       func(dpy Display, id BufferID, pbuf *unsafe.Pointer) Status
	UnmapBufferFunc     func(dpy Display, id BufferID) Status
	BeginPictureFunc    func(dpy Display, ctx ContextID, target SurfaceID) Status
	RenderPictureFunc   func(dpy Display, ctx ContextID, buffers *BufferID, numBuffers int32) Status
	EndPictureFunc      func(dpy Display, ctx ContextID) Status
)

// EntryPoint describes one intercepted libva function.
type EntryPoint struct {
	Name string
	// Version is the required ELF symbol version, empty for unversioned
	// lookups.
	Version string
	// Signature is the Go func type the resolved address is bound to.
	Signature reflect.Type
}

func (ep EntryPoint) String() string {
	if ep.Version == "" {
		return ep.Name
	}
	return ep.Name + "@" + ep.Version
}

// Prototype renders the C-side shape of the signature, e.g.
// "vaDestroyConfig(Display, ConfigID) Status".
func (ep EntryPoint) Prototype() string {
	if ep.Signature == nil || ep.Signature.Kind() != reflect.Func {
		return ep.Name + "(?)"
	}
	var b strings.Builder
	b.WriteString(ep.Name)
	b.WriteByte('(')
	for i := 0; i < ep.Signature.NumIn(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(typeName(ep.Signature.In(i)))
	}
	b.WriteByte(')')
	if ep.Signature.NumOut() == 1 {
		b.WriteByte(' ')
		b.WriteString(typeName(ep.Signature.Out(0)))
	}
	return b.String()
}

func typeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Ptr:
		return "*" + typeName(t.Elem())
	case reflect.UnsafePointer:
		return "unsafe.Pointer"
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

var (
	errNotFunc       = errors.New("signature is not a func type")
	errStatusReturn  = errors.New("signature must return exactly one Status")
	errVariadicEntry = errors.New("variadic signatures are not supported")

	statusType = reflect.TypeOf(Status(0))
)

// Validate checks that the descriptor can be bound to a C function: a named
// symbol and a non-variadic func returning Status whose parameters are all
// passed in integer registers.
func (ep EntryPoint) Validate() error {
	if ep.Name == "" {
		return fmt.Errorf("entry point: %w", ErrEmptyName)
	}
	sig := ep.Signature
	if sig == nil || sig.Kind() != reflect.Func {
		return fmt.Errorf("entry point %s: %w", ep, errNotFunc)
	}
	if sig.IsVariadic() {
		return fmt.Errorf("entry point %s: %w", ep, errVariadicEntry)
	}
	if sig.NumOut() != 1 || sig.Out(0) != statusType {
		return fmt.Errorf("entry point %s: %w", ep, errStatusReturn)
	}
	for i := 0; i < sig.NumIn(); i++ {
		switch sig.In(i).Kind() {
		case reflect.Int32, reflect.Uint32, reflect.Int64, reflect.Uint64,
			reflect.Uintptr, reflect.Ptr, reflect.UnsafePointer:
		default:
			return fmt.Errorf("entry point %s: argument %d has unsupported kind %s", ep, i, sig.In(i).Kind())
		}
	}
	return nil
}

// EntryPointID indexes the declared entry point table.
type EntryPointID uint8

const (
	EntryCreateConfig EntryPointID = iota
	EntryDestroyConfig
	EntryCreateContext
	EntryDestroyContext
	EntryCreateSurfaces
	EntryDestroySurfaces
	EntryCreateBuffer
	EntryDestroyBuffer
	EntryMapBuffer
	EntryUnmapBuffer
	EntryBeginPicture
	EntryRenderPicture
	EntryEndPicture
	entryPointCount
)

func sigOf[F any]() reflect.Type { return reflect.TypeOf((*F)(nil)).Elem() }

// Static descriptor table, indexed by EntryPointID.
var entryPoints = [entryPointCount]EntryPoint{
	EntryCreateConfig:    {"vaCreateConfig", "", sigOf[CreateConfigFunc]()},
	EntryDestroyConfig:   {"vaDestroyConfig", "", sigOf[DestroyConfigFunc]()},
	EntryCreateContext:   {"vaCreateContext", "", sigOf[CreateContextFunc]()},
	EntryDestroyContext:  {"vaDestroyContext", "", sigOf[DestroyContextFunc]()},
	EntryCreateSurfaces:  {"vaCreateSurfaces", "VA_API_0.33.0", sigOf[CreateSurfacesFunc]()},
	EntryDestroySurfaces: {"vaDestroySurfaces", "", sigOf[DestroySurfacesFunc]()},
	EntryCreateBuffer:    {"vaCreateBuffer", "", sigOf[CreateBufferFunc]()},
	EntryDestroyBuffer:   {"vaDestroyBuffer", "", sigOf[DestroyBufferFunc]()},
	EntryMapBuffer:       {"vaMapBuffer", "", sigOf[MapBufferFunc]()},
	EntryUnmapBuffer:     {"vaUnmapBuffer", "", sigOf[UnmapBufferFunc]()},
	EntryBeginPicture:    {"vaBeginPicture", "", sigOf[BeginPictureFunc]()},
	EntryRenderPicture:   {"vaRenderPicture", "", sigOf[RenderPictureFunc]()},
	EntryEndPicture:      {"vaEndPicture", "", sigOf[EndPictureFunc]()},
}

// Descriptor returns the entry point declared for id.
func (id EntryPointID) Descriptor() EntryPoint {
	if id >= entryPointCount {
		return EntryPoint{}
	}
	return entryPoints[id]
}

func (id EntryPointID) String() string {
	if id >= entryPointCount {
		return "unknown"
	}
	return entryPoints[id].Name
}

// EntryPoints returns a copy of the declared entry point table in
// declaration order.
func EntryPoints() []EntryPoint {
	out := make([]EntryPoint, entryPointCount)
	copy(out, entryPoints[:])
	return out
}
