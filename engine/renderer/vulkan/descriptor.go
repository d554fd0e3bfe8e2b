package vulkan

import (
	vk "github.com/goki/vulkan"
)

// frameSetBindings describes set 0: the camera uniform buffer and the model
// matrix storage buffer, both read by the vertex shader.
func frameSetBindings() []vk.DescriptorSetLayoutBinding {
	return []vk.DescriptorSetLayoutBinding{
		{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		},
		{
			Binding:         1,
			DescriptorType:  vk.DescriptorTypeStorageBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		},
	}
}

// materialSetBindings describes set 1: one combined image sampler for the
// fragment shader.
func materialSetBindings() []vk.DescriptorSetLayoutBinding {
	return []vk.DescriptorSetLayoutBinding{
		{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
}

// poolSizes returns enough descriptors of each binding type for setCount
// sets of the given layout.
func poolSizes(bindings []vk.DescriptorSetLayoutBinding, setCount uint32) []vk.DescriptorPoolSize {
	counts := map[vk.DescriptorType]uint32{}
	order := []vk.DescriptorType{}
	for _, b := range bindings {
		if _, ok := counts[b.DescriptorType]; !ok {
			order = append(order, b.DescriptorType)
		}
		counts[b.DescriptorType] += b.DescriptorCount * setCount
	}
	sizes := make([]vk.DescriptorPoolSize, 0, len(order))
	for _, t := range order {
		sizes = append(sizes, vk.DescriptorPoolSize{
			Type:            t,
			DescriptorCount: counts[t],
		})
	}
	return sizes
}

func DescriptorSetLayoutCreate(context *VulkanContext, bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error) {
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutInfo, context.Allocator, &layout); res != vk.Success {
		err := vulkanError("vkCreateDescriptorSetLayout", res)
		context.logger.Error(err.Error())
		return vk.DescriptorSetLayout(vk.NullHandle), err
	}
	return layout, nil
}

// DescriptorPoolCreate creates a pool holding exactly maxSets sets of the
// given bindings.
func DescriptorPoolCreate(context *VulkanContext, bindings []vk.DescriptorSetLayoutBinding, maxSets uint32) (vk.DescriptorPool, error) {
	sizes := poolSizes(bindings, maxSets)
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &pool); res != vk.Success {
		err := vulkanError("vkCreateDescriptorPool", res)
		context.logger.Error(err.Error())
		return vk.DescriptorPool(vk.NullHandle), err
	}
	return pool, nil
}

// DescriptorSetsAllocate returns count sets of layout from pool.
func DescriptorSetsAllocate(context *VulkanContext, pool vk.DescriptorPool, layout vk.DescriptorSetLayout, count uint32) ([]vk.DescriptorSet, error) {
	layouts := make([]vk.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = layout
	}
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: count,
		PSetLayouts:        layouts,
	}
	sets := make([]vk.DescriptorSet, count)
	if res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocInfo, &(sets[0])); res != vk.Success {
		err := vulkanError("vkAllocateDescriptorSets", res)
		context.logger.Error(err.Error())
		return nil, err
	}
	return sets, nil
}

// DescriptorPoolDestroy also frees every set allocated from the pool.
func DescriptorPoolDestroy(context *VulkanContext, pool *vk.DescriptorPool) {
	if *pool != vk.DescriptorPool(vk.NullHandle) {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, *pool, context.Allocator)
		*pool = vk.DescriptorPool(vk.NullHandle)
	}
}

func DescriptorSetLayoutDestroy(context *VulkanContext, layout *vk.DescriptorSetLayout) {
	if *layout != vk.DescriptorSetLayout(vk.NullHandle) {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, *layout, context.Allocator)
		*layout = vk.DescriptorSetLayout(vk.NullHandle)
	}
}

func bufferWrite(set vk.DescriptorSet, binding uint32, descriptorType vk.DescriptorType, buffer *VulkanBuffer) vk.WriteDescriptorSet {
	return vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      binding,
		DstArrayElement: 0,
		DescriptorCount: 1,
		DescriptorType:  descriptorType,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: buffer.Handle,
			Offset: 0,
			Range:  buffer.Size,
		}},
	}
}

func imageWrite(set vk.DescriptorSet, binding uint32, sampler vk.Sampler, view vk.ImageView) vk.WriteDescriptorSet {
	return vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      binding,
		DstArrayElement: 0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo: []vk.DescriptorImageInfo{{
			Sampler:     sampler,
			ImageView:   view,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}},
	}
}

func updateDescriptorSets(context *VulkanContext, writes []vk.WriteDescriptorSet) {
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
}
