package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/math"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

// undefinedExtent is reported by surfaces whose size follows the swapchain.
const undefinedExtent = ^uint32(0)

type VulkanSwapchain struct {
	// Short identifier used in logs to tell rebuilds apart.
	ID string

	Handle      vk.Swapchain
	ImageFormat vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	Images      []vk.Image

	// One per swapchain image. Indexed by slot for synchronization and
	// buffers, and by image index for the framebuffer.
	Frames            []*VulkanFrame
	MaxFramesInFlight int

	// Per frame descriptor sets are allocated here. Sized to len(Frames).
	framePool vk.DescriptorPool

	context *VulkanContext
}

func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range formats {
		// Preferred formats
		if format.Format == vk.FormatB8g8r8a8Unorm && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	return formats[0]
}

func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	// FIFO is the only mode every device must support.
	return vk.PresentModeFifo
}

func chooseExtent(capabilities vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if capabilities.CurrentExtent.Width != undefinedExtent {
		return capabilities.CurrentExtent
	}
	return vk.Extent2D{
		Width:  math.Clamp(width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: math.Clamp(height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

// chooseImageCount asks for one image more than the minimum. A maximum of
// zero means there is no limit.
func chooseImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	count := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}

// SwapchainCreate builds the swapchain, one image view and one depth
// attachment per image. Frame resources are added by CreateFrameResources
// once the render pass exists.
func SwapchainCreate(context *VulkanContext, width uint32, height uint32) (*VulkanSwapchain, error) {
	support := &context.Device.SwapchainSupport
	if err := DeviceQuerySwapchainSupport(context.Device.PhysicalDevice, context.Surface, support); err != nil {
		context.logger.Error(err.Error())
		return nil, err
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		err := fmt.Errorf("%w: surface reports no formats or present modes", core.ErrSwapchainBooting)
		context.logger.Error(err.Error())
		return nil, err
	}

	swapchain := &VulkanSwapchain{
		ID:          core.ShortIdentifier(),
		ImageFormat: chooseSurfaceFormat(support.Formats),
		PresentMode: choosePresentMode(support.PresentModes),
		Extent:      chooseExtent(support.Capabilities, width, height),
		context:     context,
	}
	imageCount := chooseImageCount(support.Capabilities)

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchain.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      swapchain.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	// Setup the queue family indices
	if context.Device.GraphicsQueueIndex != context.Device.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{
			uint32(context.Device.GraphicsQueueIndex),
			uint32(context.Device.PresentQueueIndex),
		}
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var handle vk.Swapchain
	if res := vk.CreateSwapchain(context.Device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("%w: %s", core.ErrSwapchainBooting, VulkanResultString(res))
		context.logger.Error(err.Error())
		return nil, err
	}
	swapchain.Handle = handle

	// Images are owned by the swapchain.
	var count uint32
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &count, nil); res != vk.Success {
		err := vulkanError("vkGetSwapchainImagesKHR", res)
		context.logger.Error(err.Error())
		swapchain.Destroy()
		return nil, err
	}
	swapchain.Images = make([]vk.Image, count)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &count, swapchain.Images); res != vk.Success {
		err := vulkanError("vkGetSwapchainImagesKHR", res)
		context.logger.Error(err.Error())
		swapchain.Destroy()
		return nil, err
	}

	swapchain.Frames = make([]*VulkanFrame, 0, count)
	for _, image := range swapchain.Images {
		frame := &VulkanFrame{context: context}
		swapchain.Frames = append(swapchain.Frames, frame)
		if err := frame.makeDepthResources(image, swapchain.ImageFormat.Format, swapchain.Extent); err != nil {
			swapchain.Destroy()
			return nil, err
		}
	}
	swapchain.MaxFramesInFlight = len(swapchain.Frames)

	context.logger.Info("Swapchain %s created: %dx%d, %d images, present mode %d.",
		swapchain.ID, swapchain.Extent.Width, swapchain.Extent.Height, count, swapchain.PresentMode)
	return swapchain, nil
}

// CreateFrameResources performs the second allocation phase: framebuffers,
// command buffers, synchronization objects, mapped buffers and descriptor
// sets of every frame.
func (vs *VulkanSwapchain) CreateFrameResources(renderpass *VulkanRenderpass, frameLayout vk.DescriptorSetLayout) error {
	pool, err := DescriptorPoolCreate(vs.context, frameSetBindings(), uint32(len(vs.Frames)))
	if err != nil {
		return err
	}
	vs.framePool = pool

	sets, err := DescriptorSetsAllocate(vs.context, vs.framePool, frameLayout, uint32(len(vs.Frames)))
	if err != nil {
		return err
	}
	for i, frame := range vs.Frames {
		if err := frame.makeFrameResources(renderpass, vs.Extent, sets[i]); err != nil {
			return err
		}
	}
	return nil
}

// Acquire asks for the next image, signaling the image available semaphore
// of slot. A suboptimal swapchain still returns a usable image.
func (vs *VulkanSwapchain) Acquire(slot int) (uint32, metadata.FrameResult) {
	var imageIndex uint32
	result := vk.AcquireNextImage(vs.context.Device.LogicalDevice, vs.Handle, vk.MaxUint64, vs.Frames[slot].ImageAvailable, vk.NullFence, &imageIndex)
	switch result {
	case vk.Success, vk.Suboptimal:
		return imageIndex, metadata.FrameResultSuccess
	case vk.ErrorOutOfDate, vk.ErrorIncompatibleDisplay:
		return 0, metadata.FrameResultRecreate
	default:
		vs.context.logger.Error("Failed to acquire swapchain image: %s", VulkanResultString(result))
		return imageIndex, metadata.FrameResultError
	}
}

// Present returns the image to the swapchain once the render finished
// semaphore of slot is signaled.
func (vs *VulkanSwapchain) Present(slot int, imageIndex uint32) metadata.FrameResult {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{vs.Frames[slot].RenderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{imageIndex},
	}

	result := vk.QueuePresent(vs.context.Device.PresentQueue, &presentInfo)
	switch result {
	case vk.Success:
		return metadata.FrameResultSuccess
	case vk.ErrorOutOfDate, vk.Suboptimal:
		// Swapchain is out of date, suboptimal or a framebuffer resize has occurred.
		return metadata.FrameResultRecreate
	default:
		vs.context.logger.Error("Failed to present swap chain image: %s", VulkanResultString(result))
		return metadata.FrameResultError
	}
}

// Destroy releases every frame, the frame descriptor pool and the
// swapchain. The device must be idle.
func (vs *VulkanSwapchain) Destroy() {
	for i := len(vs.Frames) - 1; i >= 0; i-- {
		vs.Frames[i].Destroy()
	}
	vs.Frames = nil
	DescriptorPoolDestroy(vs.context, &vs.framePool)

	if vs.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(vs.context.Device.LogicalDevice, vs.Handle, vs.context.Allocator)
		vs.Handle = vk.NullSwapchain
		vs.context.logger.Debug("Swapchain %s destroyed.", vs.ID)
	}
	vs.Images = nil
	vs.MaxFramesInFlight = 0
}
