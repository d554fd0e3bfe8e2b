package components

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

/**
 * @brief Represents a fixed look-at camera with a perspective projection.
 */
type Camera struct {
	/** @brief The position of this camera. */
	Position mgl32.Vec3
	/** @brief The point the camera looks at. */
	Center mgl32.Vec3
	/** @brief World up. The scene is laid out on the XY plane, so Z is up. */
	Up mgl32.Vec3
	/** @brief Vertical field of view in degrees. */
	FovY float32
	Near float32
	Far  float32
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/**
	 * @brief The view matrix of this camera.
	 * NOTE: Do not get this directly, use View() instead
	 * so the view matrix is recalculated when needed.
	 */
	ViewMatrix mgl32.Mat4
}

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.Position = mgl32.Vec3{1.0, 0.0, 1.0}
	c.Center = mgl32.Vec3{0.0, 0.0, 0.0}
	c.Up = mgl32.Vec3{0.0, 0.0, 1.0}
	c.FovY = 45.0
	c.Near = 0.1
	c.Far = 10.0
	c.IsDirty = true
	c.ViewMatrix = mgl32.Ident4()
}

func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) View() mgl32.Mat4 {
	if c.IsDirty {
		c.ViewMatrix = mgl32.LookAtV(c.Position, c.Center, c.Up)
		c.IsDirty = false
	}
	return c.ViewMatrix
}

// Projection builds a perspective matrix for Vulkan clip space, where Y
// points down.
func (c *Camera) Projection(width, height uint32) mgl32.Mat4 {
	aspect := float32(1.0)
	if height != 0 {
		aspect = float32(width) / float32(height)
	}
	projection := mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
	projection[5] *= -1
	return projection
}

// Data returns the uniform buffer contents for a framebuffer of the given size.
func (c *Camera) Data(width, height uint32) metadata.CameraData {
	view := c.View()
	projection := c.Projection(width, height)
	return metadata.CameraData{
		View:           view,
		Projection:     projection,
		ViewProjection: projection.Mul4(view),
	}
}
