//go:build linux && cgo

// Command libvatrace is the LD_PRELOAD library. Build it with
//
//	go build -buildmode=c-shared -o build/libvatrace.so ./cmd/libvatrace
//
// and run a libva client with LD_PRELOAD=build/libvatrace.so (or use
// `vatrace run`). Every exported va* function below shadows the one in
// libva.so; the real implementation is found through RTLD_NEXT on the first
// intercepted call.
package main

/*
#include <stdint.h>

typedef int VAStatus;
typedef void *VADisplay;
typedef unsigned int VAGenericID;
typedef VAGenericID VAConfigID;
typedef VAGenericID VAContextID;
typedef VAGenericID VASurfaceID;
typedef VAGenericID VABufferID;
typedef int VAProfile;
typedef int VAEntrypoint;
typedef int VABufferType;
typedef struct _VAConfigAttrib VAConfigAttrib;
typedef struct _VASurfaceAttrib VASurfaceAttrib;
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/thesyncim/vatrace"
)

var (
	setupOnce sync.Once
	shims     *vatrace.Interposer
)

func interposer() *vatrace.Interposer {
	setupOnce.Do(func() {
		cfg, cfgErr := vatrace.ConfigFromEnv()
		ip, err := vatrace.Setup(cfg)
		if err := errors.Join(cfgErr, err); err != nil {
			factory, _ := cfg.LoggerFactory()
			factory.NewLogger("vatrace").Errorf("setup degraded: %v", err)
		}
		shims = ip
	})
	return shims
}

func display(dpy C.VADisplay) vatrace.Display { return vatrace.Display(uintptr(dpy)) }

//export vaCreateConfig
func vaCreateConfig(dpy C.VADisplay, profile C.VAProfile, entrypoint C.VAEntrypoint, attribs *C.VAConfigAttrib, numAttribs C.int, id *C.VAConfigID) C.VAStatus {
	return C.VAStatus(interposer().CreateConfig(display(dpy), vatrace.Profile(profile), vatrace.Entrypoint(entrypoint),
		(*vatrace.ConfigAttrib)(unsafe.Pointer(attribs)), int32(numAttribs), (*vatrace.ConfigID)(unsafe.Pointer(id))))
}

//export vaDestroyConfig
func vaDestroyConfig(dpy C.VADisplay, id C.VAConfigID) C.VAStatus {
	return C.VAStatus(interposer().DestroyConfig(display(dpy), vatrace.ConfigID(id)))
}

//export vaCreateContext
func vaCreateContext(dpy C.VADisplay, config C.VAConfigID, width, height, flag C.int, renderTargets *C.VASurfaceID, numRenderTargets C.int, id *C.VAContextID) C.VAStatus {
	return C.VAStatus(interposer().CreateContext(display(dpy), vatrace.ConfigID(config), int32(width), int32(height), int32(flag),
		(*vatrace.SurfaceID)(unsafe.Pointer(renderTargets)), int32(numRenderTargets), (*vatrace.ContextID)(unsafe.Pointer(id))))
}

//export vaDestroyContext
func vaDestroyContext(dpy C.VADisplay, ctx C.VAContextID) C.VAStatus {
	return C.VAStatus(interposer().DestroyContext(display(dpy), vatrace.ContextID(ctx)))
}

//export vaCreateSurfaces
func vaCreateSurfaces(dpy C.VADisplay, format, width, height C.uint, surfaces *C.VASurfaceID, numSurfaces C.uint, attribs *C.VASurfaceAttrib, numAttribs C.uint) C.VAStatus {
	return C.VAStatus(interposer().CreateSurfaces(display(dpy), uint32(format), uint32(width), uint32(height),
		(*vatrace.SurfaceID)(unsafe.Pointer(surfaces)), uint32(numSurfaces), (*vatrace.SurfaceAttrib)(unsafe.Pointer(attribs)), uint32(numAttribs)))
}

//export vaDestroySurfaces
func vaDestroySurfaces(dpy C.VADisplay, surfaces *C.VASurfaceID, numSurfaces C.int) C.VAStatus {
	return C.VAStatus(interposer().DestroySurfaces(display(dpy), (*vatrace.SurfaceID)(unsafe.Pointer(surfaces)), int32(numSurfaces)))
}

//export vaCreateBuffer
func vaCreateBuffer(dpy C.VADisplay, ctx C.VAContextID, typ C.VABufferType, size, numElements C.uint, data unsafe.Pointer, id *C.VABufferID) C.VAStatus {
	return C.VAStatus(interposer().CreateBuffer(display(dpy), vatrace.ContextID(ctx), vatrace.BufferType(typ), uint32(size), uint32(numElements),
		data, (*vatrace.BufferID)(unsafe.Pointer(id))))
}

//export vaDestroyBuffer
func vaDestroyBuffer(dpy C.VADisplay, id C.VABufferID) C.VAStatus {
	return C.VAStatus(interposer().DestroyBuffer(display(dpy), vatrace.BufferID(id)))
}

//export vaMapBuffer
func vaMapBuffer(dpy C.VADisplay, id C.VABufferID, pbuf *unsafe.Pointer) C.VAStatus {
	return C.VAStatus(interposer().MapBuffer(display(dpy), vatrace.BufferID(id), pbuf))
}

//export vaUnmapBuffer
func vaUnmapBuffer(dpy C.VADisplay, id C.VABufferID) C.VAStatus {
	return C.VAStatus(interposer().UnmapBuffer(display(dpy), vatrace.BufferID(id)))
}

//export vaBeginPicture
func vaBeginPicture(dpy C.VADisplay, ctx C.VAContextID, target C.VASurfaceID) C.VAStatus {
	return C.VAStatus(interposer().BeginPicture(display(dpy), vatrace.ContextID(ctx), vatrace.SurfaceID(target)))
}

//export vaRenderPicture
func vaRenderPicture(dpy C.VADisplay, ctx C.VAContextID, buffers *C.VABufferID, numBuffers C.int) C.VAStatus {
	return C.VAStatus(interposer().RenderPicture(display(dpy), vatrace.ContextID(ctx), (*vatrace.BufferID)(unsafe.Pointer(buffers)), int32(numBuffers)))
}

//export vaEndPicture
func vaEndPicture(dpy C.VADisplay, ctx C.VAContextID) C.VAStatus {
	return C.VAStatus(interposer().EndPicture(display(dpy), vatrace.ContextID(ctx)))
}

func main() {}
