package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
	"github.com/spaghettifunk/vkscene/engine/renderer/vulkan"
)

// Window is what the scheduler needs from the windowing layer.
type Window interface {
	// Size in pixels. Zero while the window is minimized.
	FramebufferSize() (uint32, uint32)
	// Blocks until at least one window event arrives.
	WaitEvents()
	// Increases every time the framebuffer changes size.
	ResizeGeneration() uint64
	ShouldClose() bool
}

// SurfaceWindow is a Window that Vulkan can present to.
type SurfaceWindow interface {
	Window
	vulkan.Window
}

// Backend owns the device objects that survive swapchain rebuilds.
type Backend interface {
	BuildSwapchain(width, height uint32) (Swapchain, error)
	WaitIdle() error
	Meshes() *metadata.MeshTable
	Destroy()
}

type Swapchain interface {
	FrameCount() int
	Frame(slot int) Frame
	Extent() (uint32, uint32)
	Acquire(slot int) (uint32, metadata.FrameResult)
	Present(slot int, imageIndex uint32) metadata.FrameResult
	Destroy()
}

// Frame is the set of per slot resources used by one iteration of Render.
type Frame interface {
	WaitFence() error
	ResetFence() error
	ResetCommands() error
	Write(camera metadata.CameraData, models []mgl32.Mat4) error
	Begin(imageIndex uint32) (CommandRecorder, error)
	Submit() error
}

type CommandRecorder interface {
	BindMaterial(objectType metadata.ObjectType)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
	End() error
}

type vulkanBackend struct {
	renderer *vulkan.VulkanRenderer
}

func (b *vulkanBackend) BuildSwapchain(width, height uint32) (Swapchain, error) {
	swapchain, err := b.renderer.BuildSwapchain(width, height)
	if err != nil {
		return nil, err
	}
	s := &vulkanSwapchain{renderer: b.renderer, swapchain: swapchain}
	s.frames = make([]*vulkanFrame, len(swapchain.Frames))
	for i := range swapchain.Frames {
		s.frames[i] = &vulkanFrame{owner: s, slot: i, frame: swapchain.Frames[i]}
	}
	return s, nil
}

func (b *vulkanBackend) WaitIdle() error {
	return b.renderer.WaitIdle()
}

func (b *vulkanBackend) Meshes() *metadata.MeshTable {
	return b.renderer.Meshes()
}

func (b *vulkanBackend) Destroy() {
	b.renderer.Destroy()
}

type vulkanSwapchain struct {
	renderer  *vulkan.VulkanRenderer
	swapchain *vulkan.VulkanSwapchain
	frames    []*vulkanFrame
}

func (s *vulkanSwapchain) FrameCount() int {
	return s.swapchain.MaxFramesInFlight
}

func (s *vulkanSwapchain) Frame(slot int) Frame {
	return s.frames[slot]
}

func (s *vulkanSwapchain) Extent() (uint32, uint32) {
	return s.swapchain.Extent.Width, s.swapchain.Extent.Height
}

func (s *vulkanSwapchain) Acquire(slot int) (uint32, metadata.FrameResult) {
	return s.swapchain.Acquire(slot)
}

func (s *vulkanSwapchain) Present(slot int, imageIndex uint32) metadata.FrameResult {
	return s.swapchain.Present(slot, imageIndex)
}

func (s *vulkanSwapchain) Destroy() {
	s.swapchain.Destroy()
	s.frames = nil
}

type vulkanFrame struct {
	owner *vulkanSwapchain
	slot  int
	frame *vulkan.VulkanFrame
}

func (f *vulkanFrame) WaitFence() error     { return f.frame.WaitFence() }
func (f *vulkanFrame) ResetFence() error    { return f.frame.ResetFence() }
func (f *vulkanFrame) ResetCommands() error { return f.frame.ResetCommands() }
func (f *vulkanFrame) Submit() error        { return f.frame.Submit() }

func (f *vulkanFrame) Write(camera metadata.CameraData, models []mgl32.Mat4) error {
	return f.frame.Write(camera, models)
}

func (f *vulkanFrame) Begin(imageIndex uint32) (CommandRecorder, error) {
	recorder, err := f.owner.renderer.Record(f.owner.swapchain, f.slot, imageIndex)
	if err != nil {
		return nil, err
	}
	return recorder, nil
}
