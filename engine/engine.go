package engine

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/vkscene/engine/config"
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/platform"
	"github.com/spaghettifunk/vkscene/engine/renderer"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *config.Config
	logger       *core.Logger
	events       *core.EventBus
	platform     *platform.Platform
	renderer     *renderer.Engine
	clock        *core.Clock
	metrics      *core.Metrics

	// Written by the signal handler goroutine, read by the run loop.
	isRunning   atomic.Bool
	isSuspended bool
	width       uint32
	height      uint32
	lastTime    float64
	// Time of the last metrics log line.
	lastReport float64

	scene metadata.Scene
}

func New(cfg *config.Config, g *Game, logger *core.Logger) (*Engine, error) {
	if g == nil || g.FnRender == nil {
		return nil, fmt.Errorf("game must provide a render callback")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	events := core.NewEventBus()
	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       cfg,
		logger:       logger,
		events:       events,
		platform:     platform.New(logger.With("platform"), events),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		width:        cfg.Window.Width,
		height:       cfg.Window.Height,
	}
	e.isRunning.Store(true)
	return e, nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageBooting

	// register some events
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	e.events.Register(core.EVENT_CODE_KEY_RELEASED, e, e.onKey)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)

	if err := e.platform.Startup(e.config.Application.Name,
		e.config.Window.X,
		e.config.Window.Y,
		e.config.Window.Width,
		e.config.Window.Height); err != nil {
		return err
	}

	e.currentStage = EngineStageInitializing

	r, err := renderer.New(e.config, e.platform, e.logger.With("renderer"))
	if err != nil {
		e.logger.Error("Failed to initialize the renderer: %s", err)
		_ = e.platform.Shutdown()
		return err
	}
	e.renderer = r

	if err := e.initializeGame(); err != nil {
		e.logger.Error("Failed to initialize the game: %s", err)
		e.releaseInitialized()
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) initializeGame() error {
	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e.renderer.Camera()); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		e.width, e.height = e.platform.FramebufferSize()
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}
	return nil
}

// releaseInitialized undoes a partial Initialize: the renderer first, then
// the window.
func (e *Engine) releaseInitialized() {
	if e.renderer != nil {
		e.renderer.Destroy()
		e.renderer = nil
	}
	_ = e.platform.Shutdown()
	e.currentStage = EngineStageUninitialized
}

// Run drives the frame loop until the window closes, Stop is called or a
// game callback fails. Everything is released before it returns.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine cannot run in stage `%s`", e.currentStage)
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	var runErr error
	for e.isRunning.Load() {
		if !e.platform.PumpMessages() {
			e.isRunning.Store(false)
			break
		}

		if e.isSuspended {
			// Nothing to draw into, sleep until the window changes.
			e.platform.WaitEvents()
			continue
		}

		if err := e.frame(); err != nil {
			runErr = err
			break
		}
	}

	if err := e.Shutdown(); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func (e *Engine) frame() error {
	e.clock.Update()
	currentTime := e.clock.Elapsed()
	delta := currentTime - e.lastTime
	frameStartTime := e.platform.GetAbsoluteTime()

	if e.gameInstance.FnUpdate != nil {
		if err := e.gameInstance.FnUpdate(delta); err != nil {
			e.logger.Error("Game update failed, shutting down: %s", err)
			return err
		}
	}

	for i := range e.scene.Positions {
		e.scene.Positions[i] = e.scene.Positions[i][:0]
	}
	if err := e.gameInstance.FnRender(&e.scene, delta); err != nil {
		e.logger.Error("Game render failed, shutting down: %s", err)
		return err
	}

	if err := e.renderer.Render(&e.scene); err != nil {
		if errors.Is(err, core.ErrSwapchainBooting) {
			// No swapchain right now. The next frame retries, or the pump stops the loop.
			e.logger.Debug("Frame skipped: %s", err)
		} else {
			e.logger.Error("Failed to render frame: %s", err)
		}
	}

	frameEndTime := e.platform.GetAbsoluteTime()
	e.metrics.Update(frameEndTime - frameStartTime)
	if currentTime-e.lastReport >= 1.0 {
		fps, frameTime := e.metrics.Frame()
		e.logger.Debug("FPS: %5.1f (%4.1fms)", fps, frameTime)
		e.lastReport = currentTime
	}

	e.lastTime = currentTime
	return nil
}

// Stop asks the run loop to exit after the current frame. Safe to call from
// any goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	var err error
	if e.gameInstance.FnShutdown != nil {
		err = e.gameInstance.FnShutdown()
	}
	if e.renderer != nil {
		e.renderer.Destroy()
		e.renderer = nil
	}
	e.events.Shutdown()
	if perr := e.platform.Shutdown(); perr != nil {
		err = errors.Join(err, perr)
	}

	e.currentStage = EngineStageShutdown
	return err
}

func (e *Engine) onEvent(sender interface{}, listener interface{}, context core.EventContext) bool {
	if context.Code == core.EVENT_CODE_APPLICATION_QUIT {
		e.logger.Info("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.Stop()
		return true
	}
	return false
}

func (e *Engine) onKey(sender interface{}, listener interface{}, context core.EventContext) bool {
	key := core.Key(context.Data.I32[0])
	pressed := context.Code == core.EVENT_CODE_KEY_PRESSED

	if pressed && key == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.events.Fire(e, core.EventContext{Code: core.EVENT_CODE_APPLICATION_QUIT})
		// Block anything else from processing this.
		return true
	}
	if e.gameInstance.FnOnKey != nil {
		e.gameInstance.FnOnKey(key, pressed)
	}
	return false
}

func (e *Engine) onResized(sender interface{}, listener interface{}, context core.EventContext) bool {
	width := context.Data.U32[0]
	height := context.Data.U32[1]

	// Check if different. If so, trigger a resize event.
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height
	e.logger.Debug("Window resize: %d, %d", width, height)

	// Handle minimization. The swapchain is rebuilt by the renderer once
	// it observes the new size.
	if width == 0 || height == 0 {
		e.logger.Info("Window minimized, suspending application.")
		e.isSuspended = true
		return false
	}
	if e.isSuspended {
		e.logger.Info("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			e.logger.Error(err.Error())
		}
	}
	return false
}
