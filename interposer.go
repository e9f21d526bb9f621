package vatrace

import (
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/pion/logging"
)

// InterposerConfig holds the optional collaborators of an Interposer.
type InterposerConfig struct {
	// Sink receives one CallEvent per call. Defaults to DiscardSink.
	Sink Sink
	// Metrics, when set, counts calls that hit unresolved entries.
	Metrics *Metrics
	Logger  logging.LeveledLogger
}

// Interposer implements one shim per intercepted libva entry point. Each
// shim emits a CallEvent, looks its entry up in the Registry and forwards
// the call unchanged, or returns StatusGenericFailure when the entry could
// not be resolved.
type Interposer struct {
	registry *Registry
	sink     Sink
	metrics  *Metrics
	log      logging.LeveledLogger
	seq      atomic.Uint64
	now      func() time.Time
}

// NewInterposer returns shims backed by reg.
func NewInterposer(reg *Registry, cfg InterposerConfig) *Interposer {
	ip := &Interposer{
		registry: reg,
		sink:     cfg.Sink,
		metrics:  cfg.Metrics,
		log:      cfg.Logger,
		now:      time.Now,
	}
	if ip.sink == nil {
		ip.sink = DiscardSink
	}
	if ip.log == nil {
		ip.log = logging.NewDefaultLoggerFactory().NewLogger("vatrace")
	}
	return ip
}

// Registry returns the registry the shims forward through.
func (ip *Interposer) Registry() *Registry { return ip.registry }

// Calls returns the number of intercepted calls so far.
func (ip *Interposer) Calls() uint64 { return ip.seq.Load() }

// enter is the shim prologue: trace, then fetch the callable. It returns
// nil for entries that are not resolved.
func (ip *Interposer) enter(id EntryPointID) any {
	name := id.String()
	ip.sink.Emit(CallEvent{Seq: ip.seq.Add(1), EntryPoint: name, Time: ip.now()})

	e, ok := ip.registry.Get(name)
	if ok && e.State == StateResolved {
		return e.Callable
	}
	ip.metrics.observeUnresolvedCall(name)
	ip.log.Debugf("%v", &UnresolvedCallError{Name: name, Cause: e.Err})
	return nil
}

// CreateConfig intercepts vaCreateConfig.
func (ip *Interposer) CreateConfig(dpy Display, profile Profile, entrypoint Entrypoint, attribs *ConfigAttrib, numAttribs int32, id *ConfigID) Status {
	fn, ok := ip.enter(EntryCreateConfig).(CreateConfigFunc)
	if !ok {
		return StatusGenericFailure
	}
	return fn(dpy, profile, entrypoint, attribs, numAttribs, id)
}

// DestroyConfig intercepts vaDestroyConfig.
func (ip *Interposer) DestroyConfig(dpy Display, id ConfigID) Status {
	fn, ok := ip.enter(EntryDestroyConfig).(DestroyConfigFunc)
	if !ok {
		return StatusGenericFailure
	}
	return fn(dpy, id)
}

// CreateContext intercepts vaCreateContext.
func (ip *Interposer) CreateContext(dpy Display, config ConfigID, width, height, flag int32, renderTargets *SurfaceID, numRenderTargets int32, id *ContextID) Status {
	fn, ok := ip.enter(EntryCreateContext).(CreateContextFunc)
	if !ok {
		return StatusGenericFailure
	}
	return fn(dpy, config, width, height, flag, renderTargets, numRenderTargets, id)
}

// DestroyContext intercepts vaDestroyContext.
func (ip *Interposer) DestroyContext(dpy Display, ctx ContextID) Status {
	fn, ok := ip.enter(EntryDestroyContext).(DestroyContextFunc)
	if !ok {
		return StatusGenericFailure
	}
	return fn(dpy, ctx)
}

// CreateSurfaces intercepts vaCreateSurfaces (VA_API_0.33.0 ABI).
func (ip *Interposer) CreateSurfaces(dpy Display, format, width, height uint32, surfaces *SurfaceID, numSurfaces uint32, attribs *SurfaceAttrib, numAttribs uint32) Status {
	fn, ok := ip.enter(EntryCreateSurfaces).(CreateSurfacesFunc)
	if !ok {
		return StatusGenericFailure
	}
	return fn(dpy, format, width, height, surfaces, numSurfaces, attribs, numAttribs)
}

// DestroySurfaces intercepts vaDestroySurfaces.
func (ip *Interposer) DestroySurfaces(dpy Display, surfaces *SurfaceID, numSurfaces int32) Status {
	fn, ok := ip.enter(EntryDestroySurfaces).(DestroySurfacesFunc)
	if !ok {
		return StatusGenericFailure
	}
	return fn(dpy, surfaces, numSurfaces)
}

// CreateBuffer intercepts vaCreateBuffer.
func (ip *Interposer) CreateBuffer(dpy Display, ctx ContextID, typ BufferType, size, numElements uint32, data unsafe.Pointer, id *BufferID) Status {
	fn, ok := ip.enter(EntryCreateBuffer).(CreateBufferFunc)
	if !ok {
		return StatusGenericFailure
	}
	return fn(dpy, ctx, typ, size, numElements, data, id)
}

// DestroyBuffer intercepts vaDestroyBuffer.
func (ip *Interposer) DestroyBuffer(dpy Display, id BufferID) Status {
	fn, ok := ip.enter(EntryDestroyBuffer).(DestroyBufferFunc)
	if !ok {
		return StatusGenericFailure
	}
	return fn(dpy, id)
}

// MapBuffer intercepts vaMapBuffer.
func (ip *Interposer) MapBuffer(dpy Display, id BufferID, pbuf *unsafe.Pointer) Status {
	fn, ok := ip.enter(EntryMapBuffer).(MapBufferFunc)
	if !ok {
		return StatusGenericFailure
	}
	return fn(dpy, id, pbuf)
}

// UnmapBuffer intercepts vaUnmapBuffer.
func (ip *Interposer) UnmapBuffer(dpy Display, id BufferID) Status {
	fn, ok := ip.enter(EntryUnmapBuffer).(UnmapBufferFunc)
	if !ok {
		return StatusGenericFailure
	}
	return fn(dpy, id)
}

// BeginPicture intercepts vaBeginPicture.
func (ip *Interposer) BeginPicture(dpy Display, ctx ContextID, target SurfaceID) Status {
	fn, ok := ip.enter(EntryBeginPicture).(BeginPictureFunc)
	if !ok {
		return StatusGenericFailure
	}
	return fn(dpy, ctx, target)
}

// RenderPicture intercepts vaRenderPicture.
func (ip *Interposer) RenderPicture(dpy Display, ctx ContextID, buffers *BufferID, numBuffers int32) Status {
	fn, ok := ip.enter(EntryRenderPicture).(RenderPictureFunc)
	if !ok {
		return StatusGenericFailure
	}
	return fn(dpy, ctx, buffers, numBuffers)
}

// EndPicture intercepts vaEndPicture.
func (ip *Interposer) EndPicture(dpy Display, ctx ContextID) Status {
	fn, ok := ip.enter(EntryEndPicture).(EndPictureFunc)
	if !ok {
		return StatusGenericFailure
	}
	return fn(dpy, ctx)
}
