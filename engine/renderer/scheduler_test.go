package renderer

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drawCall struct {
	objectType    metadata.ObjectType
	indexCount    uint32
	instanceCount uint32
	firstIndex    uint32
	firstInstance uint32
}

// trace is shared by every fake so tests can assert on call order.
type trace struct {
	mutex  sync.Mutex
	events []string
	draws  []drawCall
	models [][]mgl32.Mat4
	slots  []int
}

func (t *trace) add(event string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.events = append(t.events, event)
}

func (t *trace) snapshot() []string {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return append([]string(nil), t.events...)
}

func (t *trace) reset() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.events = nil
	t.draws = nil
	t.models = nil
	t.slots = nil
}

type fakeWindow struct {
	mutex      sync.Mutex
	width      uint32
	height     uint32
	generation uint64
	closing    bool
	wake       chan struct{}
}

func newFakeWindow(width, height uint32) *fakeWindow {
	return &fakeWindow{width: width, height: height, wake: make(chan struct{})}
}

func (w *fakeWindow) FramebufferSize() (uint32, uint32) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.width, w.height
}

func (w *fakeWindow) WaitEvents() { <-w.wake }

func (w *fakeWindow) ResizeGeneration() uint64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.generation
}

func (w *fakeWindow) ShouldClose() bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.closing
}

func (w *fakeWindow) resize(width, height uint32) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.width, w.height = width, height
	w.generation++
}

type fakeBackend struct {
	trace      *trace
	frameCount int
	built      []*fakeSwapchain
	// Results handed out by the next swapchains, consumed in order.
	acquire []metadata.FrameResult
	present []metadata.FrameResult
	// Set on the first frame of the next swapchain.
	fenceGate chan struct{}
	// Name of the next frame step to fail, cleared once it fails.
	failAt    string
	destroyed bool
}

func newFakeBackend(frameCount int) *fakeBackend {
	return &fakeBackend{trace: &trace{}, frameCount: frameCount}
}

func (b *fakeBackend) BuildSwapchain(width, height uint32) (Swapchain, error) {
	s := &fakeSwapchain{backend: b, width: width, height: height}
	for i := 0; i < b.frameCount; i++ {
		s.frames = append(s.frames, &fakeFrame{trace: b.trace, backend: b, slot: i})
	}
	if b.fenceGate != nil {
		s.frames[0].gate = b.fenceGate
		b.fenceGate = nil
	}
	b.built = append(b.built, s)
	b.trace.add("build")
	return s, nil
}

func (b *fakeBackend) WaitIdle() error {
	b.trace.add("idle")
	return nil
}

func (b *fakeBackend) Meshes() *metadata.MeshTable {
	return metadata.BuiltinMeshes()
}

func (b *fakeBackend) Destroy() {
	b.destroyed = true
}

func (b *fakeBackend) current() *fakeSwapchain {
	return b.built[len(b.built)-1]
}

type fakeSwapchain struct {
	backend   *fakeBackend
	width     uint32
	height    uint32
	frames    []*fakeFrame
	destroyed bool
}

func (s *fakeSwapchain) FrameCount() int          { return len(s.frames) }
func (s *fakeSwapchain) Frame(slot int) Frame     { return s.frames[slot] }
func (s *fakeSwapchain) Extent() (uint32, uint32) { return s.width, s.height }

func (s *fakeSwapchain) Acquire(slot int) (uint32, metadata.FrameResult) {
	t := s.backend.trace
	t.add("acquire")
	t.mutex.Lock()
	t.slots = append(t.slots, slot)
	t.mutex.Unlock()
	return uint32(slot), pop(&s.backend.acquire)
}

func (s *fakeSwapchain) Present(slot int, imageIndex uint32) metadata.FrameResult {
	s.backend.trace.add("present")
	return pop(&s.backend.present)
}

func (s *fakeSwapchain) Destroy() {
	s.destroyed = true
	s.backend.trace.add("destroy")
}

func pop(results *[]metadata.FrameResult) metadata.FrameResult {
	if len(*results) == 0 {
		return metadata.FrameResultSuccess
	}
	r := (*results)[0]
	*results = (*results)[1:]
	return r
}

type fakeFrame struct {
	trace   *trace
	backend *fakeBackend
	slot    int
	// When set, WaitFence blocks until it is closed.
	gate chan struct{}
}

func (f *fakeFrame) WaitFence() error {
	if f.gate != nil {
		<-f.gate
	}
	f.trace.add("wait")
	return nil
}

func (f *fakeFrame) ResetFence() error {
	f.trace.add("reset-fence")
	return nil
}

// step records name, or fails it once when it is the backend's failAt.
func step(b *fakeBackend, name string) error {
	if b.failAt == name {
		b.failAt = ""
		b.trace.add(name + "-fail")
		return errors.New(name + " failed")
	}
	b.trace.add(name)
	return nil
}

func (f *fakeFrame) ResetCommands() error {
	return step(f.backend, "reset-commands")
}

func (f *fakeFrame) Write(camera metadata.CameraData, models []mgl32.Mat4) error {
	if err := step(f.backend, "write"); err != nil {
		return err
	}
	f.trace.mutex.Lock()
	f.trace.models = append(f.trace.models, append([]mgl32.Mat4(nil), models...))
	f.trace.mutex.Unlock()
	return nil
}

func (f *fakeFrame) Begin(imageIndex uint32) (CommandRecorder, error) {
	if err := step(f.backend, "begin"); err != nil {
		return nil, err
	}
	return &fakeRecorder{trace: f.trace, backend: f.backend}, nil
}

func (f *fakeFrame) Submit() error {
	return step(f.backend, "submit")
}

type fakeRecorder struct {
	trace   *trace
	backend *fakeBackend
	bound   metadata.ObjectType
}

func (r *fakeRecorder) BindMaterial(objectType metadata.ObjectType) {
	r.bound = objectType
}

func (r *fakeRecorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	r.trace.mutex.Lock()
	defer r.trace.mutex.Unlock()
	r.trace.draws = append(r.trace.draws, drawCall{
		objectType:    r.bound,
		indexCount:    indexCount,
		instanceCount: instanceCount,
		firstIndex:    firstIndex,
		firstInstance: firstInstance,
	})
}

func (r *fakeRecorder) End() error {
	return step(r.backend, "end")
}

func newTestEngine(t *testing.T, backend *fakeBackend, window *fakeWindow) *Engine {
	t.Helper()
	e, err := NewEngine(backend, window, core.NewDiscardLogger())
	require.NoError(t, err)
	backend.trace.reset()
	return e
}

func sceneWithCounts(a, b, c int) *metadata.Scene {
	scene := &metadata.Scene{}
	counts := [metadata.ObjectTypeCount]int{a, b, c}
	for _, t := range metadata.ObjectTypes {
		for i := 0; i < counts[t]; i++ {
			scene.Positions[t] = append(scene.Positions[t], mgl32.Vec3{float32(i), float32(t), 0})
		}
	}
	return scene
}

func TestRenderFrameOrder(t *testing.T) {
	backend := newFakeBackend(3)
	e := newTestEngine(t, backend, newFakeWindow(800, 600))

	require.NoError(t, e.Render(sceneWithCounts(1, 1, 1)))
	assert.Equal(t, []string{
		"wait", "reset-fence", "reset-commands", "acquire", "write", "begin", "end", "submit", "present",
	}, backend.trace.snapshot())
}

func TestRenderWaitsOnFenceBeforeReset(t *testing.T) {
	backend := newFakeBackend(2)
	gate := make(chan struct{})
	backend.fenceGate = gate
	e := newTestEngine(t, backend, newFakeWindow(800, 600))

	done := make(chan error)
	go func() { done <- e.Render(sceneWithCounts(1, 0, 0)) }()

	select {
	case <-done:
		t.Fatal("Render returned while the fence was still pending")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Empty(t, backend.trace.snapshot())

	close(gate)
	require.NoError(t, <-done)
	events := backend.trace.snapshot()
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, "wait", events[0])
	assert.Equal(t, "reset-fence", events[1])
}

func TestRenderDrawsEveryObjectType(t *testing.T) {
	backend := newFakeBackend(2)
	e := newTestEngine(t, backend, newFakeWindow(800, 600))

	require.NoError(t, e.Render(sceneWithCounts(2, 0, 1)))

	meshes := metadata.BuiltinMeshes()
	require.Len(t, backend.trace.draws, 3)
	expected := []drawCall{
		{metadata.ObjectTypeTriangle, 3, 2, 0, 0},
		{metadata.ObjectTypeSquare, 6, 0, 3, 2},
		{metadata.ObjectTypeStar, 24, 1, 9, 2},
	}
	for i, want := range expected {
		assert.Equal(t, want, backend.trace.draws[i])
		assert.Equal(t, meshes.Ranges[want.objectType].FirstIndex, backend.trace.draws[i].firstIndex)
	}

	require.Len(t, backend.trace.models, 1)
	models := backend.trace.models[0]
	require.Len(t, models, 3)
	assert.Equal(t, mgl32.Translate3D(0, 0, 0), models[0])
	assert.Equal(t, mgl32.Translate3D(1, 0, 0), models[1])
	assert.Equal(t, mgl32.Translate3D(0, 2, 0), models[2])
}

func TestRenderRejectsTooManyInstances(t *testing.T) {
	backend := newFakeBackend(2)
	e := newTestEngine(t, backend, newFakeWindow(800, 600))

	err := e.Render(sceneWithCounts(metadata.MaxModelInstances, 0, 1))
	assert.ErrorIs(t, err, core.ErrTooManyInstances)
	assert.Empty(t, backend.trace.snapshot())

	require.NoError(t, e.Render(sceneWithCounts(metadata.MaxModelInstances, 0, 0)))
}

func TestRenderCyclesThroughSlots(t *testing.T) {
	backend := newFakeBackend(3)
	e := newTestEngine(t, backend, newFakeWindow(800, 600))
	assert.Equal(t, 3, e.FrameCount())

	for i := 0; i < 7; i++ {
		require.NoError(t, e.Render(sceneWithCounts(1, 1, 1)))
	}
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2, 0}, backend.trace.slots)
}

func TestRenderRebuildsWhenAcquireNeedsRecreate(t *testing.T) {
	backend := newFakeBackend(2)
	e := newTestEngine(t, backend, newFakeWindow(800, 600))

	require.NoError(t, e.Render(sceneWithCounts(1, 1, 1)))
	backend.acquire = []metadata.FrameResult{metadata.FrameResultRecreate}
	backend.trace.reset()

	require.NoError(t, e.Render(sceneWithCounts(1, 1, 1)))
	events := backend.trace.snapshot()
	assert.NotContains(t, events, "submit")
	assert.NotContains(t, events, "present")
	assert.Contains(t, events, "build")
	require.Len(t, backend.built, 2)
	assert.True(t, backend.built[0].destroyed)

	// The new swapchain starts again from the first slot.
	backend.trace.reset()
	require.NoError(t, e.Render(sceneWithCounts(1, 1, 1)))
	assert.Equal(t, []int{0}, backend.trace.slots)
}

func TestRenderRebuildsWhenPresentNeedsRecreate(t *testing.T) {
	backend := newFakeBackend(2)
	e := newTestEngine(t, backend, newFakeWindow(800, 600))

	backend.present = []metadata.FrameResult{metadata.FrameResultRecreate}
	require.NoError(t, e.Render(sceneWithCounts(1, 1, 1)))
	assert.Equal(t, []string{
		"wait", "reset-fence", "reset-commands", "acquire", "write", "begin", "end", "submit", "present",
		"idle", "destroy", "build",
	}, backend.trace.snapshot())
	assert.Equal(t, 0, e.frameNumber)
}

func TestRenderContinuesAfterAcquireError(t *testing.T) {
	backend := newFakeBackend(2)
	e := newTestEngine(t, backend, newFakeWindow(800, 600))

	backend.acquire = []metadata.FrameResult{metadata.FrameResultError}
	require.NoError(t, e.Render(sceneWithCounts(1, 1, 1)))
	assert.Contains(t, backend.trace.snapshot(), "submit")
	assert.Len(t, backend.built, 1)
	assert.Equal(t, 1, e.frameNumber)
}

func TestRenderRebuildsOnResize(t *testing.T) {
	backend := newFakeBackend(2)
	window := newFakeWindow(800, 600)
	e := newTestEngine(t, backend, window)

	window.resize(1024, 768)
	require.NoError(t, e.Render(sceneWithCounts(1, 1, 1)))
	require.Len(t, backend.built, 2)
	w, h := backend.current().Extent()
	assert.Equal(t, uint32(1024), w)
	assert.Equal(t, uint32(768), h)

	// The generation is consumed, so the next frame does not rebuild.
	require.NoError(t, e.Render(sceneWithCounts(1, 1, 1)))
	assert.Len(t, backend.built, 2)
}

func TestRebuildBlocksWhileMinimized(t *testing.T) {
	backend := newFakeBackend(2)
	window := newFakeWindow(800, 600)
	e := newTestEngine(t, backend, window)

	window.resize(0, 0)
	done := make(chan error)
	go func() { done <- e.Render(sceneWithCounts(1, 1, 1)) }()

	select {
	case <-done:
		t.Fatal("Render returned while the window had no area")
	case <-time.After(50 * time.Millisecond):
	}

	window.resize(640, 480)
	select {
	case window.wake <- struct{}{}:
	case <-time.After(time.Second):
	}
	require.NoError(t, <-done)

	w, h := backend.current().Extent()
	assert.Equal(t, uint32(640), w)
	assert.Equal(t, uint32(480), h)
}

func TestRebuildGivesUpWhenWindowCloses(t *testing.T) {
	backend := newFakeBackend(2)
	window := newFakeWindow(800, 600)
	e := newTestEngine(t, backend, window)

	window.mutex.Lock()
	window.width, window.height, window.closing = 0, 0, true
	window.mutex.Unlock()

	assert.ErrorIs(t, e.rebuild(), core.ErrSwapchainBooting)
}

func TestRebuildIsIdempotent(t *testing.T) {
	backend := newFakeBackend(2)
	e := newTestEngine(t, backend, newFakeWindow(800, 600))
	scene := sceneWithCounts(2, 3, 1)

	require.NoError(t, e.Render(scene))
	first := append([]drawCall(nil), backend.trace.draws...)

	require.NoError(t, e.rebuild())
	require.NoError(t, e.rebuild())
	assert.Len(t, backend.built, 3)
	assert.Equal(t, 2, e.FrameCount())

	backend.trace.reset()
	require.NoError(t, e.Render(scene))
	assert.Equal(t, first, backend.trace.draws)
	assert.Equal(t, []int{0}, backend.trace.slots)
}

func TestDestroyReleasesSwapchainBeforeBackend(t *testing.T) {
	backend := newFakeBackend(2)
	e := newTestEngine(t, backend, newFakeWindow(800, 600))

	e.Destroy()
	assert.Equal(t, []string{"idle", "destroy"}, backend.trace.snapshot())
	assert.True(t, backend.current().destroyed)
	assert.True(t, backend.destroyed)
}

func TestRenderRebuildsAfterFrameStepFailure(t *testing.T) {
	for _, failAt := range []string{"reset-commands", "write", "begin", "end", "submit"} {
		t.Run(failAt, func(t *testing.T) {
			backend := newFakeBackend(3)
			e := newTestEngine(t, backend, newFakeWindow(800, 600))

			// Move off the first slot so the reset is visible.
			require.NoError(t, e.Render(sceneWithCounts(1, 1, 1)))
			require.Equal(t, 1, e.frameNumber)
			backend.trace.reset()

			backend.failAt = failAt
			err := e.Render(sceneWithCounts(1, 1, 1))
			require.Error(t, err)
			assert.Contains(t, err.Error(), failAt+" failed")

			events := backend.trace.snapshot()
			require.GreaterOrEqual(t, len(events), 4)
			assert.Equal(t, []string{failAt + "-fail", "idle", "destroy", "build"}, events[len(events)-4:])
			assert.NotContains(t, events, "present")
			require.Len(t, backend.built, 2)
			assert.True(t, backend.built[0].destroyed)

			// The fresh swapchain starts signaled, so the next frame completes on slot 0.
			backend.trace.reset()
			require.NoError(t, e.Render(sceneWithCounts(1, 1, 1)))
			assert.Equal(t, []int{0}, backend.trace.slots)
			assert.Contains(t, backend.trace.snapshot(), "present")
		})
	}
}

func TestRenderAdvancesAfterPresentError(t *testing.T) {
	backend := newFakeBackend(3)
	e := newTestEngine(t, backend, newFakeWindow(800, 600))

	backend.present = []metadata.FrameResult{metadata.FrameResultError}
	require.NoError(t, e.Render(sceneWithCounts(1, 1, 1)))
	assert.NotContains(t, backend.trace.snapshot(), "build")
	assert.Len(t, backend.built, 1)
	assert.Equal(t, 1, e.frameNumber)

	require.NoError(t, e.Render(sceneWithCounts(1, 1, 1)))
	assert.Equal(t, []int{0, 1}, backend.trace.slots)
}
