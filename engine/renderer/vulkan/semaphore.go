package vulkan

import (
	vk "github.com/goki/vulkan"
)

func NewSemaphore(context *VulkanContext) (vk.Semaphore, error) {
	createInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(context.Device.LogicalDevice, &createInfo, context.Allocator, &semaphore); res != vk.Success {
		err := vulkanError("vkCreateSemaphore", res)
		context.logger.Error(err.Error())
		return vk.NullSemaphore, err
	}
	return semaphore, nil
}

func DestroySemaphore(context *VulkanContext, semaphore *vk.Semaphore) {
	if *semaphore != vk.NullSemaphore {
		vk.DestroySemaphore(context.Device.LogicalDevice, *semaphore, context.Allocator)
		*semaphore = vk.NullSemaphore
	}
}
