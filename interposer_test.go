package vatrace

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// eventLog is a Sink that records events and the order they arrived in
// relative to forwarded calls.
type eventLog struct {
	mu     sync.Mutex
	events []CallEvent
	trail  []string
}

func (l *eventLog) Emit(ev CallEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	l.trail = append(l.trail, "event:"+ev.EntryPoint)
}

func (l *eventLog) forwarded(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trail = append(l.trail, "call:"+name)
}

func newTestInterposer(t *testing.T, impls map[string]any, sink Sink, m *Metrics) *Interposer {
	t.Helper()
	reg := NewRegistry(newDoubles(impls), EntryPoints(), WithLogger(quietLogger()), WithObserver(m))
	ip := NewInterposer(reg, InterposerConfig{Sink: sink, Metrics: m, Logger: quietLogger()})
	ip.now = func() time.Time { return time.Unix(1700000000, 0) }
	return ip
}

func TestInterposer_ForwardsTransparently(t *testing.T) {
	log := &eventLog{}
	var gotCtx ContextID
	var gotType BufferType
	var gotSize, gotNum uint32
	var gotData unsafe.Pointer

	payload := []byte("slice data")
	impls := map[string]any{
		"vaCreateBuffer": CreateBufferFunc(func(dpy Display, ctx ContextID, typ BufferType, size, num uint32, data unsafe.Pointer, id *BufferID) Status {
			log.forwarded("vaCreateBuffer")
			gotCtx, gotType, gotSize, gotNum, gotData = ctx, typ, size, num, data
			*id = 7
			return StatusSuccess
		}),
	}
	ip := newTestInterposer(t, impls, log, nil)

	var id BufferID
	status := ip.CreateBuffer(0xd15, 3, 2, uint32(len(payload)), 1, unsafe.Pointer(&payload[0]), &id)

	if status != StatusSuccess {
		t.Errorf("status = %v, want %v", status, StatusSuccess)
	}
	if id != 7 {
		t.Errorf("buffer id = %d, want 7", id)
	}
	if gotCtx != 3 || gotType != 2 || gotSize != uint32(len(payload)) || gotNum != 1 || gotData != unsafe.Pointer(&payload[0]) {
		t.Errorf("forwarded args = (%d, %d, %d, %d, %p)", gotCtx, gotType, gotSize, gotNum, gotData)
	}

	want := []string{"event:vaCreateBuffer", "call:vaCreateBuffer"}
	if !reflect.DeepEqual(log.trail, want) {
		t.Errorf("trail = %v, want %v", log.trail, want)
	}
}

func TestInterposer_PassesFailureStatusThrough(t *testing.T) {
	statuses := []Status{
		StatusErrorInvalidContext,
		StatusErrorAllocationFailed,
		StatusErrorUnknown,
		Status(0x7f),
	}
	for _, want := range statuses {
		t.Run(want.String(), func(t *testing.T) {
			ip := newTestInterposer(t, map[string]any{
				"vaEndPicture": EndPictureFunc(func(Display, ContextID) Status { return want }),
			}, nil, nil)
			if got := ip.EndPicture(1, 2); got != want {
				t.Errorf("EndPicture() = %v, want %v", got, want)
			}
		})
	}
}

func TestInterposer_UnresolvedReturnsGenericFailure(t *testing.T) {
	log := &eventLog{}
	m := NewMetrics()
	ip := newTestInterposer(t, nil, log, m)

	var id ConfigID = 99
	for i := 0; i < 3; i++ {
		if got := ip.CreateConfig(1, 0, 0, nil, 0, &id); got != StatusGenericFailure {
			t.Fatalf("call %d: CreateConfig() = %v, want %v", i, got, StatusGenericFailure)
		}
	}
	if id != 99 {
		t.Errorf("out-parameter written by unresolved shim: %d", id)
	}
	if len(log.events) != 3 {
		t.Errorf("events = %d, want 3", len(log.events))
	}
	if got := testutil.ToFloat64(m.unresolved.WithLabelValues("vaCreateConfig")); got != 3 {
		t.Errorf("unresolved calls = %v, want 3", got)
	}
}

func TestInterposer_OneEventPerCall(t *testing.T) {
	log := &eventLog{}
	ip := newTestInterposer(t, map[string]any{
		"vaBeginPicture":  BeginPictureFunc(func(Display, ContextID, SurfaceID) Status { return StatusSuccess }),
		"vaDestroyBuffer": DestroyBufferFunc(func(Display, BufferID) Status { return StatusErrorInvalidBuffer }),
	}, log, nil)

	ip.BeginPicture(1, 1, 1) // resolved, succeeds
	ip.DestroyBuffer(1, 5)   // resolved, real failure
	ip.UnmapBuffer(1, 5)     // unresolved
	ip.BeginPicture(1, 1, 2) // resolved again

	want := []string{"vaBeginPicture", "vaDestroyBuffer", "vaUnmapBuffer", "vaBeginPicture"}
	if len(log.events) != len(want) {
		t.Fatalf("events = %d, want %d", len(log.events), len(want))
	}
	for i, ev := range log.events {
		if ev.EntryPoint != want[i] {
			t.Errorf("event %d = %s, want %s", i, ev.EntryPoint, want[i])
		}
		if ev.Seq != uint64(i+1) {
			t.Errorf("event %d seq = %d, want %d", i, ev.Seq, i+1)
		}
	}
	if ip.Calls() != uint64(len(want)) {
		t.Errorf("Calls() = %d, want %d", ip.Calls(), len(want))
	}
}

func TestInterposer_ConcurrentCalls(t *testing.T) {
	var mu sync.Mutex
	count := 0
	var log eventLog
	ip := newTestInterposer(t, map[string]any{
		"vaEndPicture": EndPictureFunc(func(Display, ContextID) Status {
			mu.Lock()
			count++
			mu.Unlock()
			return StatusSuccess
		}),
	}, &log, nil)

	const workers, calls = 16, 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < calls; i++ {
				if s := ip.EndPicture(1, 1); s != StatusSuccess {
					t.Errorf("EndPicture() = %v", s)
					return
				}
			}
		}()
	}
	wg.Wait()

	if count != workers*calls {
		t.Errorf("forwarded %d calls, want %d", count, workers*calls)
	}
	if len(log.events) != workers*calls {
		t.Errorf("events = %d, want %d", len(log.events), workers*calls)
	}
	seen := make(map[uint64]bool, len(log.events))
	for _, ev := range log.events {
		if seen[ev.Seq] {
			t.Fatalf("duplicate sequence number %d", ev.Seq)
		}
		seen[ev.Seq] = true
	}
}

// TestInterposer_AllShimsForward calls every shim against doubles that
// record their arguments.
func TestInterposer_AllShimsForward(t *testing.T) {
	var got []any
	var mappedData [16]byte
	rec := func(args ...any) Status {
		got = args
		return Status(len(args))
	}

	impls := map[string]any{
		"vaCreateConfig": CreateConfigFunc(func(d Display, p Profile, e Entrypoint, a *ConfigAttrib, n int32, id *ConfigID) Status {
			*id = 11
			return rec(d, p, e, a, n)
		}),
		"vaDestroyConfig": DestroyConfigFunc(func(d Display, id ConfigID) Status { return rec(d, id) }),
		"vaCreateContext": CreateContextFunc(func(d Display, c ConfigID, w, h, f int32, rt *SurfaceID, n int32, id *ContextID) Status {
			*id = 12
			return rec(d, c, w, h, f, rt, n)
		}),
		"vaDestroyContext": DestroyContextFunc(func(d Display, c ContextID) Status { return rec(d, c) }),
		"vaCreateSurfaces": CreateSurfacesFunc(func(d Display, f, w, h uint32, s *SurfaceID, n uint32, a *SurfaceAttrib, na uint32) Status {
			*s = 13
			return rec(d, f, w, h, n, a, na)
		}),
		"vaDestroySurfaces": DestroySurfacesFunc(func(d Display, s *SurfaceID, n int32) Status { return rec(d, *s, n) }),
		"vaCreateBuffer": CreateBufferFunc(func(d Display, c ContextID, t BufferType, s, n uint32, data unsafe.Pointer, id *BufferID) Status {
			*id = 14
			return rec(d, c, t, s, n, data)
		}),
		"vaDestroyBuffer": DestroyBufferFunc(func(d Display, id BufferID) Status { return rec(d, id) }),
		"vaMapBuffer": MapBufferFunc(func(d Display, id BufferID, p *unsafe.Pointer) Status {
			*p = unsafe.Pointer(&mappedData[0])
			return rec(d, id)
		}),
		"vaUnmapBuffer":   UnmapBufferFunc(func(d Display, id BufferID) Status { return rec(d, id) }),
		"vaBeginPicture":  BeginPictureFunc(func(d Display, c ContextID, s SurfaceID) Status { return rec(d, c, s) }),
		"vaRenderPicture": RenderPictureFunc(func(d Display, c ContextID, b *BufferID, n int32) Status { return rec(d, c, *b, n) }),
		"vaEndPicture":    EndPictureFunc(func(d Display, c ContextID) Status { return rec(d, c) }),
	}
	log := &eventLog{}
	ip := newTestInterposer(t, impls, log, nil)

	const dpy = Display(0xd15)
	attrib := &ConfigAttrib{Type: 1, Value: 2}
	sattrib := &SurfaceAttrib{Type: 3}
	target := SurfaceID(21)
	buf := BufferID(22)

	var (
		cfgID  ConfigID
		ctxID  ContextID
		surfID SurfaceID
		bufID  BufferID
		mapped unsafe.Pointer
	)

	tests := []struct {
		name     string
		call     func() Status
		wantArgs []any
	}{
		{"vaCreateConfig", func() Status { return ip.CreateConfig(dpy, 7, 1, attrib, 1, &cfgID) },
			[]any{dpy, Profile(7), Entrypoint(1), attrib, int32(1)}},
		{"vaDestroyConfig", func() Status { return ip.DestroyConfig(dpy, 11) },
			[]any{dpy, ConfigID(11)}},
		{"vaCreateContext", func() Status { return ip.CreateContext(dpy, 11, 1920, 1080, 1, &target, 1, &ctxID) },
			[]any{dpy, ConfigID(11), int32(1920), int32(1080), int32(1), &target, int32(1)}},
		{"vaDestroyContext", func() Status { return ip.DestroyContext(dpy, 12) },
			[]any{dpy, ContextID(12)}},
		{"vaCreateSurfaces", func() Status { return ip.CreateSurfaces(dpy, 1, 640, 480, &surfID, 1, sattrib, 1) },
			[]any{dpy, uint32(1), uint32(640), uint32(480), uint32(1), sattrib, uint32(1)}},
		{"vaDestroySurfaces", func() Status { return ip.DestroySurfaces(dpy, &target, 1) },
			[]any{dpy, target, int32(1)}},
		{"vaCreateBuffer", func() Status { return ip.CreateBuffer(dpy, 12, 5, 64, 1, nil, &bufID) },
			[]any{dpy, ContextID(12), BufferType(5), uint32(64), uint32(1), unsafe.Pointer(nil)}},
		{"vaDestroyBuffer", func() Status { return ip.DestroyBuffer(dpy, 14) },
			[]any{dpy, BufferID(14)}},
		{"vaMapBuffer", func() Status { return ip.MapBuffer(dpy, 14, &mapped) },
			[]any{dpy, BufferID(14)}},
		{"vaUnmapBuffer", func() Status { return ip.UnmapBuffer(dpy, 14) },
			[]any{dpy, BufferID(14)}},
		{"vaBeginPicture", func() Status { return ip.BeginPicture(dpy, 12, target) },
			[]any{dpy, ContextID(12), target}},
		{"vaRenderPicture", func() Status { return ip.RenderPicture(dpy, 12, &buf, 1) },
			[]any{dpy, ContextID(12), buf, int32(1)}},
		{"vaEndPicture", func() Status { return ip.EndPicture(dpy, 12) },
			[]any{dpy, ContextID(12)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			status := tt.call()
			if status != Status(len(tt.wantArgs)) {
				t.Errorf("status = %v, want %v", status, Status(len(tt.wantArgs)))
			}
			if !reflect.DeepEqual(got, tt.wantArgs) {
				t.Errorf("forwarded %v, want %v", got, tt.wantArgs)
			}
			last := log.events[len(log.events)-1]
			if last.EntryPoint != tt.name {
				t.Errorf("event = %s, want %s", last.EntryPoint, tt.name)
			}
		})
	}

	if cfgID != 11 || ctxID != 12 || surfID != 13 || bufID != 14 || mapped != unsafe.Pointer(&mappedData[0]) {
		t.Errorf("out-parameters = (%d, %d, %d, %d, %p)", cfgID, ctxID, surfID, bufID, mapped)
	}
	if len(log.events) != int(entryPointCount) {
		t.Errorf("events = %d, want %d", len(log.events), entryPointCount)
	}
}

func TestInterposer_NilRegistryResolverFailsEveryCall(t *testing.T) {
	reg := NewRegistry(nil, EntryPoints(), WithLogger(quietLogger()))
	ip := NewInterposer(reg, InterposerConfig{Logger: quietLogger()})

	if got := ip.DestroyContext(1, 1); got != StatusGenericFailure {
		t.Errorf("DestroyContext() = %v, want %v", got, StatusGenericFailure)
	}
	e, _ := ip.Registry().Get("vaDestroyContext")
	if !errors.Is(e.Err, ErrNotInitialized) {
		t.Errorf("entry err = %v, want ErrNotInitialized", e.Err)
	}
}
