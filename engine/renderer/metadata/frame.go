package metadata

import "github.com/go-gl/mathgl/mgl32"

/**
 * @brief Outcome of an acquire or present call. Presentation errors that
 * require a new swapchain are not errors, they are a Recreate result.
 */
type FrameResult uint8

const (
	FrameResultSuccess FrameResult = iota
	/** @brief The surface changed, the swapchain must be rebuilt. */
	FrameResultRecreate
	/** @brief Unexpected driver error. The frame continues best-effort. */
	FrameResultError
)

func (r FrameResult) String() string {
	switch r {
	case FrameResultSuccess:
		return "success"
	case FrameResultRecreate:
		return "recreate"
	case FrameResultError:
		return "error"
	}
	return "unknown"
}

/** @brief Layout of the per-frame uniform buffer (binding 0, set 0). */
type CameraData struct {
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	ViewProjection mgl32.Mat4
}
