package vulkan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameReleaseOrder(t *testing.T) {
	f := &VulkanFrame{}

	var names []string
	for _, step := range f.releaseSteps() {
		names = append(names, step.name)
	}

	// Creation order is color view, depth, framebuffer, command buffer,
	// semaphores, fence, then the camera and model buffers.
	assert.Equal(t, []string{
		"model-buffer",
		"camera-buffer",
		"in-flight",
		"render-finished",
		"image-available",
		"command-buffer",
		"framebuffer",
		"depth",
		"color-view",
	}, names)
}
