package platform

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/vkscene/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Platform owns the glfw window and translates its callbacks into engine
// events. Every method must be called from the main thread.
type Platform struct {
	Window *glfw.Window

	logger    *core.Logger
	events    *core.EventBus
	startTime float64
	// Set once glfw is initialized.
	started bool

	// Bumped by the framebuffer size callback.
	resizeGeneration atomic.Uint64
}

func New(logger *core.Logger, events *core.EventBus) *Platform {
	return &Platform{
		logger: logger,
		events: events,
	}
}

func (p *Platform) Startup(applicationName string, x uint32, y uint32, width uint32, height uint32) error {
	if err := glfw.Init(); err != nil {
		err = fmt.Errorf("failed to initialize glfw: %w", err)
		p.logger.Error(err.Error())
		return err
	}
	p.started = true

	if !glfw.VulkanSupported() {
		glfw.Terminate()
		p.started = false
		err := fmt.Errorf("glfw reports no Vulkan loader on this system")
		p.logger.Error(err.Error())
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		glfw.Terminate()
		p.started = false
		err = fmt.Errorf("failed to create window: %w", err)
		p.logger.Error(err.Error())
		return err
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetCloseCallback(p.closeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	p.startTime = glfw.GetTime()

	p.logger.Info("Window `%s` created (%dx%d).", applicationName, width, height)
	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	if p.started {
		glfw.Terminate()
		p.started = false
	}
	return nil
}

// PumpMessages processes pending window events. Returns false once the
// window was asked to close.
func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	return !p.Window.ShouldClose()
}

func (p *Platform) ShouldClose() bool {
	return p.Window == nil || p.Window.ShouldClose()
}

// WaitEvents blocks until at least one window event arrives.
func (p *Platform) WaitEvents() {
	glfw.WaitEvents()
}

// FramebufferSize returns the size in pixels, which differs from the window
// size on high-dpi displays.
func (p *Platform) FramebufferSize() (uint32, uint32) {
	w, h := p.Window.GetFramebufferSize()
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return uint32(w), uint32(h)
}

// ResizeGeneration increases every time the framebuffer changes size.
func (p *Platform) ResizeGeneration() uint64 {
	return p.resizeGeneration.Load()
}

func (p *Platform) RequiredInstanceExtensions() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

func (p *Platform) GetInstanceProcAddress() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// CreateSurface returns the raw VkSurfaceKHR for the window.
func (p *Platform) CreateSurface(instance interface{}) (uintptr, error) {
	surface, err := p.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", core.ErrSurfaceCreation, err)
	}
	return surface, nil
}

// GetAbsoluteTime returns the seconds since glfw was initialized.
func (p *Platform) GetAbsoluteTime() float64 {
	return glfw.GetTime() - p.startTime
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	ctx := core.EventContext{}
	ctx.Data.I32[0] = int32(key)
	switch action {
	case glfw.Press:
		ctx.Code = core.EVENT_CODE_KEY_PRESSED
	case glfw.Release:
		ctx.Code = core.EVENT_CODE_KEY_RELEASED
	default:
		return
	}
	p.events.Fire(p, ctx)
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	p.resizeGeneration.Add(1)

	ctx := core.EventContext{Code: core.EVENT_CODE_RESIZED}
	ctx.Data.U32[0] = uint32(max(width, 0))
	ctx.Data.U32[1] = uint32(max(height, 0))
	p.events.Fire(p, ctx)
}

func (p *Platform) closeCallback(w *glfw.Window) {
	p.events.Fire(p, core.EventContext{Code: core.EVENT_CODE_APPLICATION_QUIT})
}
