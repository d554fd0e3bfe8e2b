package engine

import (
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/components"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

// Game is the application plugged into the engine. Only FnRender is
// required; every other callback may be nil.
type Game struct {
	State        interface{}
	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnOnResize   OnResize
	FnOnKey      OnKey
	FnShutdown   Shutdown
}

type Initialize func(camera *components.Camera) error
type Update func(deltaTime float64) error

// Render fills scene with the instances to draw this frame. The scene is
// cleared by the engine before every call.
type Render func(scene *metadata.Scene, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type OnKey func(key core.Key, pressed bool)
type Shutdown func() error
