package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestPoolSizesForFrameSets(t *testing.T) {
	sizes := poolSizes(frameSetBindings(), 3)
	assert.Equal(t, []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: 3},
		{Type: vk.DescriptorTypeStorageBuffer, DescriptorCount: 3},
	}, sizes)
}

func TestPoolSizesMergesSameType(t *testing.T) {
	bindings := append(materialSetBindings(), vk.DescriptorSetLayoutBinding{
		Binding:         1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 2,
	})
	sizes := poolSizes(bindings, MaterialCount)
	assert.Equal(t, []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: 9},
	}, sizes)
}
