package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkscene/engine/core"
)

const portabilitySubsetExtension = "VK_KHR_portability_subset"

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	SwapchainSupport   VulkanSwapchainSupportInfo
	GraphicsQueueIndex int32
	PresentQueueIndex  int32

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures
	Memory     vk.PhysicalDeviceMemoryProperties

	// Enabled only when the device supports it.
	SamplerAnisotropy bool

	DepthFormat vk.Format
}

type VulkanPhysicalDeviceRequirements struct {
	Graphics             bool
	Present              bool
	DeviceExtensionNames []string
}

type VulkanPhysicalDeviceQueueFamilyInfo struct {
	// -1 when the family was not found.
	GraphicsFamilyIndex int32
	PresentFamilyIndex  int32
}

func (q VulkanPhysicalDeviceQueueFamilyInfo) Complete() bool {
	return q.GraphicsFamilyIndex >= 0 && q.PresentFamilyIndex >= 0
}

// findQueueFamilies picks the first graphics capable family and the first
// family able to present. A family doing both is preferred so the two
// queues are shared.
func findQueueFamilies(flags []vk.QueueFlags, supportsPresent []bool) VulkanPhysicalDeviceQueueFamilyInfo {
	info := VulkanPhysicalDeviceQueueFamilyInfo{GraphicsFamilyIndex: -1, PresentFamilyIndex: -1}
	for i := range flags {
		graphics := flags[i]&vk.QueueFlags(vk.QueueGraphicsBit) != 0
		present := i < len(supportsPresent) && supportsPresent[i]
		if graphics && present {
			info.GraphicsFamilyIndex = int32(i)
			info.PresentFamilyIndex = int32(i)
			return info
		}
		if graphics && info.GraphicsFamilyIndex < 0 {
			info.GraphicsFamilyIndex = int32(i)
		}
		if present && info.PresentFamilyIndex < 0 {
			info.PresentFamilyIndex = int32(i)
		}
	}
	return info
}

func DeviceCreate(context *VulkanContext) error {
	context.Device = &VulkanDevice{
		GraphicsQueueIndex: -1,
		PresentQueueIndex:  -1,
	}
	if err := SelectPhysicalDevice(context); err != nil {
		return err
	}

	context.logger.Info("Creating logical device...")

	// NOTE: Do not create additional queues for shared indices.
	indices := []uint32{uint32(context.Device.GraphicsQueueIndex)}
	if context.Device.PresentQueueIndex != context.Device.GraphicsQueueIndex {
		indices = append(indices, uint32(context.Device.PresentQueueIndex))
	}

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i, index := range indices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: index,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	deviceFeatures := vk.PhysicalDeviceFeatures{}
	if context.Device.SamplerAnisotropy {
		deviceFeatures.SamplerAnisotropy = vk.True
	}

	extensionNames := []string{vk.KhrSwapchainExtensionName}
	available, err := deviceExtensions(context.Device.PhysicalDevice)
	if err != nil {
		context.logger.Error(err.Error())
		return err
	}
	if containsString(available, portabilitySubsetExtension) {
		context.logger.Info("Adding required extension '%s'.", portabilitySubsetExtension)
		extensionNames = append(extensionNames, portabilitySubsetExtension)
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{deviceFeatures},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	var device vk.Device
	if res := vk.CreateDevice(context.Device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &device); res != vk.Success {
		err := vulkanError("vkCreateDevice", res)
		context.logger.Error(err.Error())
		return err
	}
	context.Device.LogicalDevice = device
	context.logger.Info("Logical device created.")

	var graphicsQueue, presentQueue vk.Queue
	vk.GetDeviceQueue(device, uint32(context.Device.GraphicsQueueIndex), 0, &graphicsQueue)
	vk.GetDeviceQueue(device, uint32(context.Device.PresentQueueIndex), 0, &presentQueue)
	context.Device.GraphicsQueue = graphicsQueue
	context.Device.PresentQueue = presentQueue
	context.logger.Info("Queues obtained.")

	// Command buffers are reset individually every frame.
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(context.Device.GraphicsQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(device, &poolCreateInfo, context.Allocator, &pool); res != vk.Success {
		err := vulkanError("vkCreateCommandPool", res)
		context.logger.Error(err.Error())
		return err
	}
	context.Device.GraphicsCommandPool = pool
	context.logger.Info("Graphics command pool created.")

	if !DeviceDetectDepthFormat(context.Device) {
		err := fmt.Errorf("%w: no depth format", core.ErrUnsupportedFormat)
		context.logger.Error(err.Error())
		return err
	}

	return nil
}

func DeviceDestroy(context *VulkanContext) {
	if context.Device == nil {
		return
	}
	// Unset queues
	context.Device.GraphicsQueue = nil
	context.Device.PresentQueue = nil

	if context.Device.GraphicsCommandPool != vk.NullCommandPool {
		context.logger.Info("Destroying command pools...")
		vk.DestroyCommandPool(context.Device.LogicalDevice, context.Device.GraphicsCommandPool, context.Allocator)
		context.Device.GraphicsCommandPool = vk.NullCommandPool
	}

	// Destroy logical device
	if context.Device.LogicalDevice != nil {
		context.logger.Info("Destroying logical device...")
		vk.DestroyDevice(context.Device.LogicalDevice, context.Allocator)
		context.Device.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	context.Device.PhysicalDevice = nil
	context.Device.SwapchainSupport = VulkanSwapchainSupportInfo{}
	context.Device.GraphicsQueueIndex = -1
	context.Device.PresentQueueIndex = -1
}

// DeviceQuerySwapchainSupport fills supportInfo with the current surface
// capabilities, formats and present modes. It is called again on every
// swapchain rebuild since the capabilities follow the window size.
func DeviceQuerySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface, supportInfo *VulkanSwapchainSupportInfo) error {
	var capabilities vk.SurfaceCapabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &capabilities); res != vk.Success {
		return vulkanError("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", res)
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()
	supportInfo.Capabilities = capabilities

	var formatCount uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil); res != vk.Success {
		return vulkanError("vkGetPhysicalDeviceSurfaceFormatsKHR", res)
	}
	supportInfo.Formats = make([]vk.SurfaceFormat, formatCount)
	if formatCount != 0 {
		if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, supportInfo.Formats); res != vk.Success {
			return vulkanError("vkGetPhysicalDeviceSurfaceFormatsKHR", res)
		}
		for i := range supportInfo.Formats {
			supportInfo.Formats[i].Deref()
		}
	}

	var presentModeCount uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, nil); res != vk.Success {
		return vulkanError("vkGetPhysicalDeviceSurfacePresentModesKHR", res)
	}
	supportInfo.PresentModes = make([]vk.PresentMode, presentModeCount)
	if presentModeCount != 0 {
		if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, supportInfo.PresentModes); res != vk.Success {
			return vulkanError("vkGetPhysicalDeviceSurfacePresentModesKHR", res)
		}
	}
	return nil
}

func DeviceDetectDepthFormat(device *VulkanDevice) bool {
	// Format candidates
	candidates := []vk.Format{
		vk.FormatD32Sfloat,
		vk.FormatD32SfloatS8Uint,
		vk.FormatD24UnormS8Uint,
	}
	format, err := FindSupportedFormat(device.PhysicalDevice, candidates, vk.ImageTilingOptimal, vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit))
	if err != nil {
		return false
	}
	device.DepthFormat = format
	return true
}

// FindSupportedFormat returns the first candidate whose tiling supports all
// of the requested features.
func FindSupportedFormat(physicalDevice vk.PhysicalDevice, candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error) {
	for _, candidate := range candidates {
		var properties vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(physicalDevice, candidate, &properties)
		properties.Deref()
		switch {
		case tiling == vk.ImageTilingLinear && properties.LinearTilingFeatures&features == features:
			return candidate, nil
		case tiling == vk.ImageTilingOptimal && properties.OptimalTilingFeatures&features == features:
			return candidate, nil
		}
	}
	return vk.FormatUndefined, fmt.Errorf("%w: none of %v", core.ErrUnsupportedFormat, candidates)
}

func SelectPhysicalDevice(context *VulkanContext) error {
	var physicalDeviceCount uint32
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, nil); res != vk.Success {
		return vulkanError("vkEnumeratePhysicalDevices", res)
	}

	if physicalDeviceCount == 0 {
		err := fmt.Errorf("%w: no devices which support Vulkan were found", core.ErrNoSuitableDevice)
		context.logger.Error(err.Error())
		return err
	}

	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		return vulkanError("vkEnumeratePhysicalDevices", res)
	}

	requirements := VulkanPhysicalDeviceRequirements{
		Graphics:             true,
		Present:              true,
		DeviceExtensionNames: []string{vk.KhrSwapchainExtensionName},
	}

	for _, physicalDevice := range physicalDevices {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(physicalDevice, &properties)
		properties.Deref()
		properties.Limits.Deref()

		var features vk.PhysicalDeviceFeatures
		vk.GetPhysicalDeviceFeatures(physicalDevice, &features)
		features.Deref()

		var memory vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(physicalDevice, &memory)
		memory.Deref()

		queueInfo, support, ok := PhysicalDeviceMeetsRequirements(context, physicalDevice, &properties, &requirements)
		if !ok {
			continue
		}

		deviceName := cString(properties.DeviceName[:])
		context.logger.Info("Selected device: '%s'.", deviceName)
		switch properties.DeviceType {
		case vk.PhysicalDeviceTypeIntegratedGpu:
			context.logger.Info("GPU type is Integrated.")
		case vk.PhysicalDeviceTypeDiscreteGpu:
			context.logger.Info("GPU type is Discrete.")
		case vk.PhysicalDeviceTypeVirtualGpu:
			context.logger.Info("GPU type is Virtual.")
		case vk.PhysicalDeviceTypeCpu:
			context.logger.Info("GPU type is CPU.")
		default:
			context.logger.Info("GPU type is Unknown.")
		}
		context.logger.Info("GPU Driver version: %d.%d.%d",
			vk.Version(properties.DriverVersion).Major(),
			vk.Version(properties.DriverVersion).Minor(),
			vk.Version(properties.DriverVersion).Patch())
		context.logger.Info("Vulkan API version: %d.%d.%d",
			vk.Version(properties.ApiVersion).Major(),
			vk.Version(properties.ApiVersion).Minor(),
			vk.Version(properties.ApiVersion).Patch())

		for j := uint32(0); j < memory.MemoryHeapCount; j++ {
			memory.MemoryHeaps[j].Deref()
			memorySizeGib := float64(memory.MemoryHeaps[j].Size) / 1024.0 / 1024.0 / 1024.0
			if memory.MemoryHeaps[j].Flags&vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit) != 0 {
				context.logger.Info("Local GPU memory: %.2f GiB", memorySizeGib)
			} else {
				context.logger.Info("Shared System memory: %.2f GiB", memorySizeGib)
			}
		}

		context.Device.PhysicalDevice = physicalDevice
		context.Device.GraphicsQueueIndex = queueInfo.GraphicsFamilyIndex
		context.Device.PresentQueueIndex = queueInfo.PresentFamilyIndex
		context.Device.SwapchainSupport = support
		context.Device.Properties = properties
		context.Device.Features = features
		context.Device.Memory = memory
		context.Device.SamplerAnisotropy = features.SamplerAnisotropy == vk.True
		break
	}

	// Ensure a device was selected
	if context.Device.PhysicalDevice == nil {
		err := fmt.Errorf("%w: no physical devices were found which meet the requirements", core.ErrNoSuitableDevice)
		context.logger.Error(err.Error())
		return err
	}

	context.logger.Info("Physical device selected.")
	return nil
}

// PhysicalDeviceMeetsRequirements checks queue families, swapchain support
// and device extensions. Discrete and integrated GPUs are both accepted.
func PhysicalDeviceMeetsRequirements(context *VulkanContext, device vk.PhysicalDevice, properties *vk.PhysicalDeviceProperties, requirements *VulkanPhysicalDeviceRequirements) (VulkanPhysicalDeviceQueueFamilyInfo, VulkanSwapchainSupportInfo, bool) {
	support := VulkanSwapchainSupportInfo{}
	deviceName := cString(properties.DeviceName[:])

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	flags := make([]vk.QueueFlags, queueFamilyCount)
	supportsPresent := make([]bool, queueFamilyCount)
	for i := range queueFamilies {
		queueFamilies[i].Deref()
		flags[i] = queueFamilies[i].QueueFlags

		var present vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), context.Surface, &present); res != vk.Success {
			context.logger.Warn("%s: %s", deviceName, vulkanError("vkGetPhysicalDeviceSurfaceSupportKHR", res))
			return VulkanPhysicalDeviceQueueFamilyInfo{}, support, false
		}
		supportsPresent[i] = present == vk.True
	}
	queueInfo := findQueueFamilies(flags, supportsPresent)

	context.logger.Debug("%s: graphics family %d, present family %d", deviceName, queueInfo.GraphicsFamilyIndex, queueInfo.PresentFamilyIndex)

	if (requirements.Graphics && queueInfo.GraphicsFamilyIndex < 0) || (requirements.Present && queueInfo.PresentFamilyIndex < 0) {
		context.logger.Info("Device '%s' does not meet queue requirements, skipping.", deviceName)
		return queueInfo, support, false
	}

	if err := DeviceQuerySwapchainSupport(device, context.Surface, &support); err != nil {
		context.logger.Warn("%s: %s", deviceName, err)
		return queueInfo, support, false
	}
	if len(support.Formats) < 1 || len(support.PresentModes) < 1 {
		context.logger.Info("Required swapchain support not present, skipping device.")
		return queueInfo, support, false
	}

	if len(requirements.DeviceExtensionNames) > 0 {
		available, err := deviceExtensions(device)
		if err != nil {
			context.logger.Warn("%s: %s", deviceName, err)
			return queueInfo, support, false
		}
		for _, required := range requirements.DeviceExtensionNames {
			if !containsString(available, required) {
				context.logger.Info("Required extension not found: '%s', skipping device.", required)
				return queueInfo, support, false
			}
		}
	}

	return queueInfo, support, true
}

func deviceExtensions(device vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, nil); res != vk.Success {
		return nil, vulkanError("vkEnumerateDeviceExtensionProperties", res)
	}
	properties := make([]vk.ExtensionProperties, count)
	if count != 0 {
		if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, properties); res != vk.Success {
			return nil, vulkanError("vkEnumerateDeviceExtensionProperties", res)
		}
	}
	names := make([]string, 0, count)
	for i := range properties {
		properties[i].Deref()
		names = append(names, cString(properties[i].ExtensionName[:]))
	}
	return names, nil
}
