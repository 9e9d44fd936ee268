package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ajkula/GoGRT/domain/model"
	"github.com/ajkula/GoGRT/domain/port/outbound"
)

// Mock implementations shared by the service tests.
type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
func (m *mockLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{})  {}

// fakeGraphics is a scriptable in-memory graphics context. Loss and
// restore notifications are delivered synchronously so tests stay
// deterministic.
type fakeGraphics struct {
	mu        sync.Mutex
	nextID    model.ResourceID
	lost      bool
	caps      model.ContextCapabilities
	failNext  int
	created   map[model.ResourceID]model.ResourceKind
	destroyed map[model.ResourceID]int
	writes    map[model.ResourceID]int
	listeners map[int]outbound.ContextStateListener
	subSeq    int
}

func newFakeGraphics() *fakeGraphics {
	return &fakeGraphics{
		caps: model.ContextCapabilities{
			Tier:           model.TierAdvanced,
			MaxTextureSize: 8192,
			MaxBufferBytes: 256 << 20,
		},
		created:   make(map[model.ResourceID]model.ResourceKind),
		destroyed: make(map[model.ResourceID]int),
		writes:    make(map[model.ResourceID]int),
		listeners: make(map[int]outbound.ContextStateListener),
	}
}

func (f *fakeGraphics) Capabilities() model.ContextCapabilities { return f.caps }

func (f *fakeGraphics) allocate(kind model.ResourceKind) (model.ResourceID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lost {
		return 0, model.ErrContextLost
	}
	if f.failNext > 0 {
		f.failNext--
		return 0, errors.New("simulated allocation failure")
	}
	f.nextID++
	f.created[f.nextID] = kind
	return f.nextID, nil
}

func (f *fakeGraphics) destroy(id model.ResourceID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.created[id]; ok {
		delete(f.created, id)
		f.destroyed[id]++
	}
}

func (f *fakeGraphics) CreateBuffer(label string) (model.ResourceID, error) {
	return f.allocate(model.KindBuffer)
}

func (f *fakeGraphics) CreateTexture(label string) (model.ResourceID, error) {
	return f.allocate(model.KindTexture)
}

func (f *fakeGraphics) CreateFramebuffer(label string) (model.ResourceID, error) {
	return f.allocate(model.KindFramebuffer)
}

func (f *fakeGraphics) CreateShader(stage model.ShaderStage) (model.ResourceID, error) {
	return f.allocate(model.KindShader)
}

func (f *fakeGraphics) CreateProgram() (model.ResourceID, error) {
	return f.allocate(model.KindProgram)
}

func (f *fakeGraphics) DestroyBuffer(id model.ResourceID)      { f.destroy(id) }
func (f *fakeGraphics) DestroyTexture(id model.ResourceID)     { f.destroy(id) }
func (f *fakeGraphics) DestroyFramebuffer(id model.ResourceID) { f.destroy(id) }
func (f *fakeGraphics) DestroyShader(id model.ResourceID)      { f.destroy(id) }
func (f *fakeGraphics) DestroyProgram(id model.ResourceID)     { f.destroy(id) }

// CompileShader accepts any source containing "void main" and rejects
// everything else with a compiler-style log line.
func (f *fakeGraphics) CompileShader(id model.ResourceID, source string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lost {
		return "", model.ErrContextLost
	}
	if _, ok := f.created[id]; !ok {
		return "no shader object", errors.New("unknown shader")
	}
	if !strings.Contains(source, "void main") {
		return "ERROR: 0:1: entry point 'main' not found", errors.New("compilation failed")
	}
	return "", nil
}

func (f *fakeGraphics) LinkProgram(program, vertex, fragment model.ResourceID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lost {
		return "", model.ErrContextLost
	}
	for _, id := range []model.ResourceID{program, vertex, fragment} {
		if _, ok := f.created[id]; !ok {
			return fmt.Sprintf("object %d is not attached", id), errors.New("link failed")
		}
	}
	return "", nil
}

func (f *fakeGraphics) WriteBuffer(id model.ResourceID, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lost {
		return model.ErrContextLost
	}
	if _, ok := f.created[id]; !ok {
		return errors.New("unknown buffer")
	}
	f.writes[id]++
	return nil
}

func (f *fakeGraphics) IsLost() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lost
}

func (f *fakeGraphics) Subscribe(l outbound.ContextStateListener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subSeq++
	key := f.subSeq
	f.listeners[key] = l
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, key)
	}
}

func (f *fakeGraphics) LoseContext() {
	f.mu.Lock()
	if f.lost {
		f.mu.Unlock()
		return
	}
	f.lost = true
	f.created = make(map[model.ResourceID]model.ResourceKind)
	listeners := f.snapshotListeners()
	f.mu.Unlock()

	for _, l := range listeners {
		l.ContextLost()
	}
}

func (f *fakeGraphics) RestoreContext() {
	f.mu.Lock()
	if !f.lost {
		f.mu.Unlock()
		return
	}
	f.lost = false
	listeners := f.snapshotListeners()
	f.mu.Unlock()

	for _, l := range listeners {
		l.ContextRestored()
	}
}

func (f *fakeGraphics) snapshotListeners() []outbound.ContextStateListener {
	out := make([]outbound.ContextStateListener, 0, len(f.listeners))
	for _, l := range f.listeners {
		out = append(out, l)
	}
	return out
}

func (f *fakeGraphics) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// fakeProbe folds the context report into a fixed host profile.
type fakeProbe struct {
	lowEnd bool
	mobile bool
}

func (f fakeProbe) Detect(caps model.ContextCapabilities) model.DeviceCapabilities {
	return model.DeviceCapabilities{
		HostID:         "test-host",
		GraphicsTier:   caps.Tier,
		MaxTextureSize: caps.MaxTextureSize,
		DeviceMemoryMB: 8192,
		LogicalCPUs:    8,
		Mobile:         f.mobile,
		LowEnd:         f.lowEnd,
		Network:        model.NetworkUnknown,
	}
}

// fakeHeapProbe returns a scripted sequence of heap readings, then
// repeats the last one.
type fakeHeapProbe struct {
	mu       sync.Mutex
	limit    uint64
	readings []uint64
	pos      int
}

func newFakeHeapProbe(limit uint64, readings ...uint64) *fakeHeapProbe {
	return &fakeHeapProbe{limit: limit, readings: readings}
}

func (f *fakeHeapProbe) HeapUsage() outbound.HeapStats {
	f.mu.Lock()
	defer f.mu.Unlock()

	used := uint64(0)
	if len(f.readings) > 0 {
		if f.pos >= len(f.readings) {
			used = f.readings[len(f.readings)-1]
		} else {
			used = f.readings[f.pos]
			f.pos++
		}
	}
	return outbound.HeapStats{UsedBytes: used, LimitBytes: f.limit}
}

func (f *fakeHeapProbe) set(used uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readings = []uint64{used}
	f.pos = 0
}
