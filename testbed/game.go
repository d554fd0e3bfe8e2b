package testbed

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/vkscene/engine"
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/components"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

// Rows of the grid, one column per object type.
const gridRows = 11

var columns = [metadata.ObjectTypeCount]float32{-0.3, 0.0, 0.3}

type TestGame struct {
	*engine.Game
	logger *core.Logger
}

type gameState struct {
	camera *components.Camera

	width  uint32
	height uint32

	// Grid positions, laid out once.
	positions [metadata.ObjectTypeCount][]mgl32.Vec3
	// Accumulated time driving the sway of the grid.
	elapsed float64
	paused  bool
}

func NewTestGame(logger *core.Logger) *TestGame {
	tg := &TestGame{
		Game:   &engine.Game{State: &gameState{}},
		logger: logger,
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnOnKey = tg.OnKey

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize(camera *components.Camera) error {
	g.logger.Debug("TestGame Initialize fn....")

	state := g.state()
	state.camera = camera
	state.positions = gridPositions(gridRows)
	return nil
}

// gridPositions lays out triangles, squares and stars in three columns
// along the Y axis, spaced 0.2 apart and centered on the origin.
func gridPositions(rows int) [metadata.ObjectTypeCount][]mgl32.Vec3 {
	var positions [metadata.ObjectTypeCount][]mgl32.Vec3
	for _, t := range metadata.ObjectTypes {
		positions[t] = make([]mgl32.Vec3, 0, rows)
		for i := 0; i < rows; i++ {
			y := float32(i)*0.2 - float32(rows-1)*0.1
			positions[t] = append(positions[t], mgl32.Vec3{columns[t], y, 0})
		}
	}
	return positions
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.state()
	if !state.paused {
		state.elapsed += deltaTime
	}
	return nil
}

func (g *TestGame) Render(scene *metadata.Scene, deltaTime float64) error {
	state := g.state()

	// Each column drifts up and down, out of phase with its neighbours.
	for _, t := range metadata.ObjectTypes {
		offset := float32(0.05 * math.Sin(state.elapsed+float64(t)))
		for _, p := range state.positions[t] {
			scene.Positions[t] = append(scene.Positions[t], mgl32.Vec3{p.X(), p.Y() + offset, p.Z()})
		}
	}
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.state()
	state.width = width
	state.height = height
	return nil
}

func (g *TestGame) OnKey(key core.Key, pressed bool) {
	if !pressed {
		return
	}
	state := g.state()
	switch key {
	case core.KEY_P, core.KEY_SPACE:
		state.paused = !state.paused
		g.logger.Debug("Animation paused: %t", state.paused)
	case core.KEY_R:
		state.elapsed = 0
		if state.camera != nil {
			state.camera.Reset()
		}
	}
}
