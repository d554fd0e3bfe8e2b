package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestTransitionLayoutRejectsUnknownTransitions(t *testing.T) {
	image := &VulkanImage{Format: textureFormat}
	cmd := &VulkanCommandBuffer{}

	// Depth attachments are moved out of the undefined layout by the render pass.
	assert.Error(t, image.TransitionLayout(cmd, vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal))
	assert.Error(t, image.TransitionLayout(cmd, vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutTransferDstOptimal))
}
