package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkscene/engine/core"
)

// Window is the part of the windowing collaborator the Vulkan layer needs
// to create an instance and a surface.
type Window interface {
	RequiredInstanceExtensions() []string
	GetInstanceProcAddress() unsafe.Pointer
	CreateSurface(instance interface{}) (uintptr, error)
}

// VulkanContext is passed to every Vulkan object constructor. It owns the
// instance, the surface and the device; it outlives everything else.
type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugCallback vk.DebugReportCallback

	Device *VulkanDevice

	logger *core.Logger
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, error) {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (memoryProperties.MemoryTypes[i].PropertyFlags&propertyFlags) == propertyFlags {
			return i, nil
		}
	}
	err := fmt.Errorf("%w: filter 0x%x flags 0x%x", core.ErrNoMemoryType, typeFilter, propertyFlags)
	vc.logger.Warn(err.Error())
	return 0, err
}
