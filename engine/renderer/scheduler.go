package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/components"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

/**
 * @brief Drives one frame per Render call over a ring of frame slots.
 * Owns the swapchain and rebuilds it whenever the surface changes.
 * Not safe for concurrent use; every call happens on the main thread.
 */
type Engine struct {
	backend Backend
	window  Window
	logger  *core.Logger

	swapchain Swapchain
	camera    *components.Camera
	meshes    *metadata.MeshTable

	/** @brief The slot used by the next Render call. */
	frameNumber int
	/** @brief Window resize generation the current swapchain was built for. */
	resizeGeneration uint64
	/** @brief Reused every frame to avoid reallocating transforms. */
	models []mgl32.Mat4
}

// NewEngine builds the first swapchain on top of an already created backend.
func NewEngine(backend Backend, window Window, logger *core.Logger) (*Engine, error) {
	e := &Engine{
		backend: backend,
		window:  window,
		logger:  logger,
		camera:  components.NewCamera(),
		meshes:  backend.Meshes(),
		models:  make([]mgl32.Mat4, 0, metadata.MaxModelInstances),
	}
	if err := e.rebuild(); err != nil {
		backend.Destroy()
		return nil, err
	}
	return e, nil
}

func (e *Engine) Camera() *components.Camera {
	return e.camera
}

func (e *Engine) FrameCount() int {
	if e.swapchain == nil {
		return 0
	}
	return e.swapchain.FrameCount()
}

// Render draws the scene into the next swapchain image. A frame lost to a
// surface change is not an error: the swapchain is rebuilt and the scene is
// simply drawn by the next call.
func (e *Engine) Render(scene *metadata.Scene) error {
	if total := scene.TotalInstances(); total > metadata.MaxModelInstances {
		return fmt.Errorf("%w: %d > %d", core.ErrTooManyInstances, total, metadata.MaxModelInstances)
	}

	if e.swapchain == nil {
		// The previous rebuild did not complete.
		if err := e.rebuild(); err != nil {
			return err
		}
	}

	slot := e.frameNumber
	frame := e.swapchain.Frame(slot)

	if err := frame.WaitFence(); err != nil {
		return err
	}
	if err := frame.ResetFence(); err != nil {
		return err
	}

	// From here on the slot fence is unsignaled until Submit succeeds.
	if err := frame.ResetCommands(); err != nil {
		return e.abandon(err)
	}

	imageIndex, result := e.swapchain.Acquire(slot)
	switch result {
	case metadata.FrameResultRecreate:
		return e.rebuild()
	case metadata.FrameResultError:
		e.logger.Error("Failed to acquire swapchain image on slot %d, continuing", slot)
	}

	width, height := e.swapchain.Extent()
	e.models = scene.ModelTransforms(e.models)
	if err := frame.Write(e.camera.Data(width, height), e.models); err != nil {
		return e.abandon(err)
	}

	if err := e.recordDrawCommands(frame, imageIndex, scene); err != nil {
		return e.abandon(err)
	}

	if err := frame.Submit(); err != nil {
		return e.abandon(err)
	}

	result = e.swapchain.Present(slot, imageIndex)
	if result == metadata.FrameResultRecreate || e.window.ResizeGeneration() != e.resizeGeneration {
		return e.rebuild()
	}
	if result == metadata.FrameResultError {
		e.logger.Error("Failed to present swapchain image %d", imageIndex)
	}

	e.frameNumber = (e.frameNumber + 1) % e.swapchain.FrameCount()
	return nil
}

// recordDrawCommands issues one indexed instanced draw per object type, in
// the same order the model transforms were packed.
func (e *Engine) recordDrawCommands(frame Frame, imageIndex uint32, scene *metadata.Scene) error {
	recorder, err := frame.Begin(imageIndex)
	if err != nil {
		return err
	}

	instances := scene.PartitionInstances()
	for _, t := range metadata.ObjectTypes {
		mesh := e.meshes.Ranges[t]
		recorder.BindMaterial(t)
		// Empty types are drawn too, with zero instances.
		recorder.DrawIndexed(mesh.IndexCount, instances[t].Count, mesh.FirstIndex, 0, instances[t].First)
	}

	return recorder.End()
}

// abandon rebuilds the swapchain after a failure that left the current slot
// fence unsignaled. Fresh frames start with signaled fences, so the next
// Render call cannot block forever on this slot.
func (e *Engine) abandon(cause error) error {
	if err := e.rebuild(); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// rebuild waits for a drawable window, idles the device and replaces the
// swapchain with its frames. Calling it twice in a row is harmless.
func (e *Engine) rebuild() error {
	width, height, ok := e.waitForNonZeroSize()
	if !ok {
		return core.ErrSwapchainBooting
	}

	if err := e.backend.WaitIdle(); err != nil {
		return err
	}

	if e.swapchain != nil {
		e.swapchain.Destroy()
		e.swapchain = nil
	}

	generation := e.window.ResizeGeneration()
	swapchain, err := e.backend.BuildSwapchain(width, height)
	if err != nil {
		e.logger.Error("Failed to rebuild the swapchain: %s", err)
		return err
	}

	e.swapchain = swapchain
	e.resizeGeneration = generation
	e.frameNumber = 0

	w, h := swapchain.Extent()
	e.logger.Debug("Swapchain rebuilt (%dx%d, %d frames)", w, h, swapchain.FrameCount())
	return nil
}

// waitForNonZeroSize blocks while the window is minimized. Returns false if
// the window is closed in the meantime.
func (e *Engine) waitForNonZeroSize() (uint32, uint32, bool) {
	for {
		width, height := e.window.FramebufferSize()
		if width > 0 && height > 0 {
			return width, height, true
		}
		if e.window.ShouldClose() {
			return 0, 0, false
		}
		e.window.WaitEvents()
	}
}

// Destroy idles the device and releases the swapchain before the backend.
func (e *Engine) Destroy() {
	if err := e.backend.WaitIdle(); err != nil {
		e.logger.Warn("Device did not idle before shutdown: %s", err)
	}
	if e.swapchain != nil {
		e.swapchain.Destroy()
		e.swapchain = nil
	}
	e.backend.Destroy()
}
