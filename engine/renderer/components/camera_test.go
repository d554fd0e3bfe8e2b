package components

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCameraProjectionFlipsY(t *testing.T) {
	c := NewCamera()
	gl := mgl32.Perspective(mgl32.DegToRad(45), 640.0/480.0, 0.1, 10)
	vk := c.Projection(640, 480)

	assert.InDelta(t, -gl[5], vk[5], 1e-6)
	assert.InDelta(t, gl[0], vk[0], 1e-6)
	assert.InDelta(t, gl[10], vk[10], 1e-6)
}

func TestCameraDataViewProjection(t *testing.T) {
	c := NewCamera()
	data := c.Data(800, 600)

	assert.True(t, data.ViewProjection.ApproxEqual(data.Projection.Mul4(data.View)))

	// The look-at target maps to the center of the screen.
	clip := data.ViewProjection.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, clip.X()/clip.W(), 1e-5)
	assert.InDelta(t, 0, clip.Y()/clip.W(), 1e-5)
}

func TestCameraViewIsCached(t *testing.T) {
	c := NewCamera()
	first := c.View()
	assert.False(t, c.IsDirty)

	c.SetPosition(mgl32.Vec3{2, 0, 2})
	assert.True(t, c.IsDirty)
	assert.False(t, first.ApproxEqual(c.View()))
}

func TestCameraZeroHeightAspect(t *testing.T) {
	c := NewCamera()
	assert.NotPanics(t, func() { c.Projection(100, 0) })
}
