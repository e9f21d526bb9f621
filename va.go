package vatrace

import "fmt"

// Types mirroring va.h. Only their size and kind matter here; the
// interposer never interprets the values it forwards.

// Display is an opaque VADisplay handle.
type Display uintptr

// Generic VA object identifiers (VAGenericID).
type (
	ConfigID  uint32
	ContextID uint32
	SurfaceID uint32
	BufferID  uint32
)

// Profile is a VAProfile.
type Profile int32

// Entrypoint is a VAEntrypoint (the codec operation, not an entry point of
// the library).
type Entrypoint int32

// BufferType is a VABufferType.
type BufferType int32

// ConfigAttrib mirrors VAConfigAttrib.
type ConfigAttrib struct {
	Type  int32
	Value uint32
}

// SurfaceAttrib mirrors VASurfaceAttrib on 64-bit targets.
type SurfaceAttrib struct {
	Type      int32
	Flags     uint32
	ValueType int32
	_         uint32
	Value     uint64
}

// Status is a VAStatus.
type Status int32

// Status codes from va.h.
const (
	StatusSuccess                     Status = 0x00
	StatusErrorOperationFailed        Status = 0x01
	StatusErrorAllocationFailed       Status = 0x02
	StatusErrorInvalidDisplay         Status = 0x03
	StatusErrorInvalidConfig          Status = 0x04
	StatusErrorInvalidContext         Status = 0x05
	StatusErrorInvalidSurface         Status = 0x06
	StatusErrorInvalidBuffer          Status = 0x07
	StatusErrorInvalidImage           Status = 0x08
	StatusErrorInvalidSubpicture      Status = 0x09
	StatusErrorAttrNotSupported       Status = 0x0a
	StatusErrorMaxNumExceeded         Status = 0x0b
	StatusErrorUnsupportedProfile     Status = 0x0c
	StatusErrorUnsupportedEntrypoint  Status = 0x0d
	StatusErrorUnsupportedRTFormat    Status = 0x0e
	StatusErrorUnsupportedBufferType  Status = 0x0f
	StatusErrorSurfaceBusy            Status = 0x10
	StatusErrorFlagNotSupported       Status = 0x11
	StatusErrorInvalidParameter       Status = 0x12
	StatusErrorResolutionNotSupported Status = 0x13
	StatusErrorUnimplemented          Status = 0x14
	StatusErrorSurfaceInDisplaying    Status = 0x15
	StatusErrorInvalidImageFormat     Status = 0x16
	StatusErrorDecodingError          Status = 0x17
	StatusErrorEncodingError          Status = 0x18
	StatusErrorInvalidValue           Status = 0x19
	StatusErrorUnsupportedFilter      Status = 0x20
	StatusErrorInvalidFilterChain     Status = 0x21
	StatusErrorHWBusy                 Status = 0x22
	StatusErrorUnsupportedMemoryType  Status = 0x24
	StatusErrorNotEnoughBuffer        Status = 0x25
	StatusErrorTimedOut               Status = 0x26
	StatusErrorUnknown                Status = -1 // 0xFFFFFFFF
)

// StatusGenericFailure is returned by a shim whose real implementation
// could not be resolved.
const StatusGenericFailure = StatusErrorOperationFailed

var statusNames = map[Status]string{
	StatusSuccess:                     "VA_STATUS_SUCCESS",
	StatusErrorOperationFailed:        "VA_STATUS_ERROR_OPERATION_FAILED",
	StatusErrorAllocationFailed:       "VA_STATUS_ERROR_ALLOCATION_FAILED",
	StatusErrorInvalidDisplay:         "VA_STATUS_ERROR_INVALID_DISPLAY",
	StatusErrorInvalidConfig:          "VA_STATUS_ERROR_INVALID_CONFIG",
	StatusErrorInvalidContext:         "VA_STATUS_ERROR_INVALID_CONTEXT",
	StatusErrorInvalidSurface:         "VA_STATUS_ERROR_INVALID_SURFACE",
	StatusErrorInvalidBuffer:          "VA_STATUS_ERROR_INVALID_BUFFER",
	StatusErrorInvalidImage:           "VA_STATUS_ERROR_INVALID_IMAGE",
	StatusErrorInvalidSubpicture:      "VA_STATUS_ERROR_INVALID_SUBPICTURE",
	StatusErrorAttrNotSupported:       "VA_STATUS_ERROR_ATTR_NOT_SUPPORTED",
	StatusErrorMaxNumExceeded:         "VA_STATUS_ERROR_MAX_NUM_EXCEEDED",
	StatusErrorUnsupportedProfile:     "VA_STATUS_ERROR_UNSUPPORTED_PROFILE",
	StatusErrorUnsupportedEntrypoint:  "VA_STATUS_ERROR_UNSUPPORTED_ENTRYPOINT",
	StatusErrorUnsupportedRTFormat:    "VA_STATUS_ERROR_UNSUPPORTED_RT_FORMAT",
	StatusErrorUnsupportedBufferType:  "VA_STATUS_ERROR_UNSUPPORTED_BUFFERTYPE",
	StatusErrorSurfaceBusy:            "VA_STATUS_ERROR_SURFACE_BUSY",
	StatusErrorFlagNotSupported:       "VA_STATUS_ERROR_FLAG_NOT_SUPPORTED",
	StatusErrorInvalidParameter:       "VA_STATUS_ERROR_INVALID_PARAMETER",
	StatusErrorResolutionNotSupported: "VA_STATUS_ERROR_RESOLUTION_NOT_SUPPORTED",
	StatusErrorUnimplemented:          "VA_STATUS_ERROR_UNIMPLEMENTED",
	StatusErrorSurfaceInDisplaying:    "VA_STATUS_ERROR_SURFACE_IN_DISPLAYING",
	StatusErrorInvalidImageFormat:     "VA_STATUS_ERROR_INVALID_IMAGE_FORMAT",
	StatusErrorDecodingError:          "VA_STATUS_ERROR_DECODING_ERROR",
	StatusErrorEncodingError:          "VA_STATUS_ERROR_ENCODING_ERROR",
	StatusErrorInvalidValue:           "VA_STATUS_ERROR_INVALID_VALUE",
	StatusErrorUnsupportedFilter:      "VA_STATUS_ERROR_UNSUPPORTED_FILTER",
	StatusErrorInvalidFilterChain:     "VA_STATUS_ERROR_INVALID_FILTER_CHAIN",
	StatusErrorHWBusy:                 "VA_STATUS_ERROR_HW_BUSY",
	StatusErrorUnsupportedMemoryType:  "VA_STATUS_ERROR_UNSUPPORTED_MEMORY_TYPE",
	StatusErrorNotEnoughBuffer:        "VA_STATUS_ERROR_NOT_ENOUGH_BUFFER",
	StatusErrorTimedOut:               "VA_STATUS_ERROR_TIMEDOUT",
	StatusErrorUnknown:                "VA_STATUS_ERROR_UNKNOWN",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("VA_STATUS(0x%08x)", uint32(s))
}

// OK reports whether s is VA_STATUS_SUCCESS.
func (s Status) OK() bool { return s == StatusSuccess }
