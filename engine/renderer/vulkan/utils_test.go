package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestVulkanResultString(t *testing.T) {
	assert.Equal(t, "VK_SUCCESS", VulkanResultString(vk.Success))
	assert.Equal(t, "VK_ERROR_OUT_OF_DATE_KHR", VulkanResultString(vk.ErrorOutOfDate))
	assert.Equal(t, "VkResult(-12345)", VulkanResultString(vk.Result(-12345)))

	assert.True(t, VulkanResultIsSuccess(vk.Suboptimal))
	assert.False(t, VulkanResultIsSuccess(vk.ErrorDeviceLost))
}

func TestVulkanSafeStrings(t *testing.T) {
	in := []string{"VK_KHR_surface", "done\x00", ""}
	out := VulkanSafeStrings(in)
	assert.Equal(t, []string{"VK_KHR_surface\x00", "done\x00", "\x00"}, out)
	// The input is left untouched.
	assert.Equal(t, "VK_KHR_surface", in[0])
}

func TestCString(t *testing.T) {
	name := make([]byte, 16)
	copy(name, "VK_LAYER_x")
	assert.Equal(t, "VK_LAYER_x", cString(name))
	assert.Equal(t, "full", cString([]byte("full")))
}

func TestSliceBytes(t *testing.T) {
	assert.Nil(t, sliceBytes([]float32{}))
	assert.Len(t, sliceBytes([]float32{1, 2, 3}), 12)
	assert.Len(t, sliceBytes([]uint32{1, 2}), 8)
	assert.Equal(t, []byte{1, 0, 0, 0}, sliceBytes([]uint32{1}))
}
