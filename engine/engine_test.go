package engine

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/vkscene/engine/config"
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer"
	"github.com/spaghettifunk/vkscene/engine/renderer/components"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, g *Game) *Engine {
	t.Helper()
	if g == nil {
		g = &Game{FnRender: func(*metadata.Scene, float64) error { return nil }}
	}
	e, err := New(config.Default(), g, core.NewDiscardLogger())
	require.NoError(t, err)
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)
	return e
}

func keyEvent(key core.Key) core.EventContext {
	ctx := core.EventContext{Code: core.EVENT_CODE_KEY_PRESSED}
	ctx.Data.I32[0] = int32(key)
	return ctx
}

func resizeEvent(width, height uint32) core.EventContext {
	ctx := core.EventContext{Code: core.EVENT_CODE_RESIZED}
	ctx.Data.U32[0] = width
	ctx.Data.U32[1] = height
	return ctx
}

func TestNewRequiresRenderCallback(t *testing.T) {
	_, err := New(config.Default(), &Game{}, core.NewDiscardLogger())
	assert.Error(t, err)
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Window.Width = 0
	_, err := New(cfg, &Game{FnRender: func(*metadata.Scene, float64) error { return nil }}, core.NewDiscardLogger())
	assert.Error(t, err)
}

func TestEscapeStopsTheEngine(t *testing.T) {
	var keys []core.Key
	e := newTestEngine(t, &Game{
		FnRender: func(*metadata.Scene, float64) error { return nil },
		FnOnKey:  func(key core.Key, pressed bool) { keys = append(keys, key) },
	})
	assert.Equal(t, EngineStageUninitialized, e.Stage())

	e.events.Fire(nil, keyEvent(core.KEY_P))
	assert.True(t, e.isRunning.Load())

	assert.True(t, e.events.Fire(nil, keyEvent(core.KEY_ESCAPE)))
	assert.False(t, e.isRunning.Load())
	// Escape is consumed by the engine.
	assert.Equal(t, []core.Key{core.KEY_P}, keys)
}

func TestStop(t *testing.T) {
	e := newTestEngine(t, nil)
	e.Stop()
	assert.False(t, e.isRunning.Load())
}

func TestResizeSuspendsWhileMinimized(t *testing.T) {
	var sizes [][2]uint32
	e := newTestEngine(t, &Game{
		FnRender: func(*metadata.Scene, float64) error { return nil },
		FnOnResize: func(width, height uint32) error {
			sizes = append(sizes, [2]uint32{width, height})
			return nil
		},
	})

	e.events.Fire(nil, resizeEvent(0, 0))
	assert.True(t, e.isSuspended)
	assert.Empty(t, sizes)

	e.events.Fire(nil, resizeEvent(800, 600))
	assert.False(t, e.isSuspended)
	assert.Equal(t, [][2]uint32{{800, 600}}, sizes)

	// Same size again is ignored.
	e.events.Fire(nil, resizeEvent(800, 600))
	assert.Len(t, sizes, 1)
}

func TestRunRequiresInitialize(t *testing.T) {
	e := newTestEngine(t, nil)
	assert.Error(t, e.Run())
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "running", EngineStageRunning.String())
	assert.Equal(t, "unknown", Stage(200).String())
}

type stubWindow struct{}

func (stubWindow) FramebufferSize() (uint32, uint32) { return 640, 480 }
func (stubWindow) WaitEvents()                       {}
func (stubWindow) ResizeGeneration() uint64          { return 0 }
func (stubWindow) ShouldClose() bool                 { return false }

type stubSwapchain struct {
	destroyed bool
}

func (s *stubSwapchain) FrameCount() int               { return 1 }
func (s *stubSwapchain) Frame(slot int) renderer.Frame { return nil }
func (s *stubSwapchain) Extent() (uint32, uint32)      { return 640, 480 }
func (s *stubSwapchain) Destroy()                      { s.destroyed = true }
func (s *stubSwapchain) Acquire(slot int) (uint32, metadata.FrameResult) {
	return 0, metadata.FrameResultSuccess
}
func (s *stubSwapchain) Present(slot int, imageIndex uint32) metadata.FrameResult {
	return metadata.FrameResultSuccess
}

type stubBackend struct {
	swapchain *stubSwapchain
	destroyed bool
}

func (b *stubBackend) BuildSwapchain(width, height uint32) (renderer.Swapchain, error) {
	b.swapchain = &stubSwapchain{}
	return b.swapchain, nil
}
func (b *stubBackend) WaitIdle() error             { return nil }
func (b *stubBackend) Meshes() *metadata.MeshTable { return metadata.BuiltinMeshes() }
func (b *stubBackend) Destroy()                    { b.destroyed = true }

func TestGameInitializeFailureReleasesRenderer(t *testing.T) {
	errGame := errors.New("game failed")
	e := newTestEngine(t, &Game{
		FnRender:     func(*metadata.Scene, float64) error { return nil },
		FnInitialize: func(*components.Camera) error { return errGame },
	})

	backend := &stubBackend{}
	r, err := renderer.NewEngine(backend, stubWindow{}, core.NewDiscardLogger())
	require.NoError(t, err)
	e.renderer = r
	e.currentStage = EngineStageInitializing

	assert.ErrorIs(t, e.initializeGame(), errGame)
	e.releaseInitialized()

	assert.Nil(t, e.renderer)
	assert.True(t, backend.swapchain.destroyed)
	assert.True(t, backend.destroyed)
	assert.Equal(t, EngineStageUninitialized, e.Stage())
}
