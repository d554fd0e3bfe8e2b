package vulkan

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

// VulkanFrame holds everything that exists once per swapchain image.
type VulkanFrame struct {
	// Created at swapchain build.
	ColorView vk.ImageView
	Depth     *VulkanImage

	// Created at frame resource build.
	Framebuffer    *VulkanFramebuffer
	CommandBuffer  *VulkanCommandBuffer
	ImageAvailable vk.Semaphore
	RenderFinished vk.Semaphore
	InFlight       *VulkanFence

	CameraBuffer  *VulkanBuffer
	ModelBuffer   *VulkanBuffer
	DescriptorSet vk.DescriptorSet

	cameraData unsafe.Pointer
	modelData  unsafe.Pointer

	context *VulkanContext
}

func (f *VulkanFrame) makeDepthResources(image vk.Image, colorFormat vk.Format, extent vk.Extent2D) error {
	view, err := ImageViewCreate(f.context, image, colorFormat, vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return err
	}
	f.ColorView = view

	depth, err := ImageCreate(f.context, ImageConfig{
		Width:          extent.Width,
		Height:         extent.Height,
		Format:         f.context.Device.DepthFormat,
		Tiling:         vk.ImageTilingOptimal,
		Usage:          vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		MemoryFlags:    vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		ViewAspectMask: vk.ImageAspectFlags(vk.ImageAspectDepthBit),
	})
	if err != nil {
		return err
	}
	f.Depth = depth
	return nil
}

func (f *VulkanFrame) makeFrameResources(renderpass *VulkanRenderpass, extent vk.Extent2D, set vk.DescriptorSet) error {
	var err error
	context := f.context

	f.Framebuffer, err = FramebufferCreate(context, renderpass, extent.Width, extent.Height, []vk.ImageView{f.ColorView, f.Depth.View})
	if err != nil {
		return err
	}

	f.CommandBuffer, err = NewVulkanCommandBuffer(context, context.Device.GraphicsCommandPool, true)
	if err != nil {
		return err
	}

	if f.ImageAvailable, err = NewSemaphore(context); err != nil {
		return err
	}
	if f.RenderFinished, err = NewSemaphore(context); err != nil {
		return err
	}
	// Signaled, so the first wait on this slot returns immediately.
	if f.InFlight, err = NewFence(context, true); err != nil {
		return err
	}

	hostVisible := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	f.CameraBuffer, err = BufferCreate(context, CameraDataSize, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), hostVisible)
	if err != nil {
		return err
	}
	if f.cameraData, err = f.CameraBuffer.Map(context); err != nil {
		return err
	}

	f.ModelBuffer, err = BufferCreate(context, ModelBufferSize, vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit), hostVisible)
	if err != nil {
		return err
	}
	if f.modelData, err = f.ModelBuffer.Map(context); err != nil {
		return err
	}

	f.DescriptorSet = set
	f.WriteDescriptorSet()
	return nil
}

// Write copies the camera and the model matrices into the mapped buffers and
// refreshes the descriptor set. The fence of this frame must have been waited on.
func (f *VulkanFrame) Write(camera metadata.CameraData, models []mgl32.Mat4) error {
	if len(models) > metadata.MaxModelInstances {
		return fmt.Errorf("%w: %d model matrices", core.ErrTooManyInstances, len(models))
	}
	vk.Memcopy(f.cameraData, unsafe.Slice((*byte)(unsafe.Pointer(&camera)), CameraDataSize))
	if len(models) > 0 {
		vk.Memcopy(f.modelData, unsafe.Slice((*byte)(unsafe.Pointer(&models[0])), len(models)*mat4Size))
	}
	f.WriteDescriptorSet()
	return nil
}

// WriteDescriptorSet points binding 0 at the camera buffer and binding 1 at
// the model buffer.
func (f *VulkanFrame) WriteDescriptorSet() {
	updateDescriptorSets(f.context, []vk.WriteDescriptorSet{
		bufferWrite(f.DescriptorSet, 0, vk.DescriptorTypeUniformBuffer, f.CameraBuffer),
		bufferWrite(f.DescriptorSet, 1, vk.DescriptorTypeStorageBuffer, f.ModelBuffer),
	})
}

func (f *VulkanFrame) WaitFence() error {
	return f.InFlight.Wait(f.context, vk.MaxUint64)
}

func (f *VulkanFrame) ResetFence() error {
	return f.InFlight.Reset(f.context)
}

func (f *VulkanFrame) ResetCommands() error {
	return f.CommandBuffer.Reset()
}

// Submit waits on image available at the color output stage and signals
// render finished and the in flight fence.
func (f *VulkanFrame) Submit() error {
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{f.ImageAvailable},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{f.CommandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{f.RenderFinished},
	}
	if res := vk.QueueSubmit(f.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, f.InFlight.Handle); res != vk.Success {
		err := vulkanError("vkQueueSubmit", res)
		f.context.logger.Error(err.Error())
		return err
	}
	f.CommandBuffer.UpdateSubmitted()
	return nil
}

type frameRelease struct {
	name    string
	release func(context *VulkanContext)
}

// releaseSteps lists the frame resources in reverse order of creation. The
// framebuffer is released before the views it references.
func (f *VulkanFrame) releaseSteps() []frameRelease {
	return []frameRelease{
		{"model-buffer", func(context *VulkanContext) {
			if f.ModelBuffer != nil {
				f.ModelBuffer.Destroy(context)
				f.ModelBuffer = nil
				f.modelData = nil
			}
		}},
		{"camera-buffer", func(context *VulkanContext) {
			if f.CameraBuffer != nil {
				f.CameraBuffer.Destroy(context)
				f.CameraBuffer = nil
				f.cameraData = nil
			}
		}},
		{"in-flight", func(context *VulkanContext) {
			if f.InFlight != nil {
				f.InFlight.Destroy(context)
				f.InFlight = nil
			}
		}},
		{"render-finished", func(context *VulkanContext) { DestroySemaphore(context, &f.RenderFinished) }},
		{"image-available", func(context *VulkanContext) { DestroySemaphore(context, &f.ImageAvailable) }},
		{"command-buffer", func(context *VulkanContext) {
			if f.CommandBuffer != nil {
				f.CommandBuffer.Free(context, context.Device.GraphicsCommandPool)
				f.CommandBuffer = nil
			}
		}},
		{"framebuffer", func(context *VulkanContext) {
			if f.Framebuffer != nil {
				f.Framebuffer.Destroy(context)
				f.Framebuffer = nil
			}
		}},
		{"depth", func(context *VulkanContext) {
			if f.Depth != nil {
				f.Depth.Destroy(context)
				f.Depth = nil
			}
		}},
		{"color-view", func(context *VulkanContext) {
			if f.ColorView != vk.NullImageView {
				vk.DestroyImageView(context.Device.LogicalDevice, f.ColorView, context.Allocator)
				f.ColorView = vk.NullImageView
			}
		}},
	}
}

// Destroy releases in reverse order of creation. Descriptor sets go away
// with the pool owned by the swapchain.
func (f *VulkanFrame) Destroy() {
	for _, step := range f.releaseSteps() {
		step.release(f.context)
	}
	f.DescriptorSet = vk.DescriptorSet(vk.NullHandle)
}
