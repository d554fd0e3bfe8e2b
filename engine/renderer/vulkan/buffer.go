package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
	Usage  vk.BufferUsageFlags

	MemoryPropertyFlags vk.MemoryPropertyFlags

	// Set while the memory is mapped.
	mapped unsafe.Pointer
}

func BufferCreate(context *VulkanContext, size vk.DeviceSize, usage vk.BufferUsageFlags, memoryPropertyFlags vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	buffer := &VulkanBuffer{
		Size:                size,
		Usage:               usage,
		MemoryPropertyFlags: memoryPropertyFlags,
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive, // NOTE: Only used in one queue.
	}

	var handle vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &handle); res != vk.Success {
		err := vulkanError("vkCreateBuffer", res)
		context.logger.Error(err.Error())
		return nil, err
	}
	buffer.Handle = handle

	// Gather memory requirements.
	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &requirements)
	requirements.Deref()

	memoryIndex, err := context.FindMemoryIndex(requirements.MemoryTypeBits, memoryPropertyFlags)
	if err != nil {
		buffer.Destroy(context)
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryIndex,
	}

	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		err := vulkanError("vkAllocateMemory", res)
		context.logger.Error("Unable to create vulkan buffer because the required memory allocation failed: %s", err)
		buffer.Destroy(context)
		return nil, err
	}
	buffer.Memory = memory

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0); res != vk.Success {
		err := vulkanError("vkBindBufferMemory", res)
		context.logger.Error(err.Error())
		buffer.Destroy(context)
		return nil, err
	}

	return buffer, nil
}

func (b *VulkanBuffer) Destroy(context *VulkanContext) {
	if b.mapped != nil {
		b.Unmap(context)
	}
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, b.Memory, context.Allocator)
		b.Memory = vk.NullDeviceMemory
	}
	if b.Handle != vk.NullBuffer {
		vk.DestroyBuffer(context.Device.LogicalDevice, b.Handle, context.Allocator)
		b.Handle = vk.NullBuffer
	}
	b.Size = 0
}

// Map keeps the whole buffer mapped until Unmap or Destroy. The memory must
// be host visible.
func (b *VulkanBuffer) Map(context *VulkanContext) (unsafe.Pointer, error) {
	if b.mapped != nil {
		return b.mapped, nil
	}
	var data unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, b.Memory, 0, b.Size, 0, &data); res != vk.Success {
		err := vulkanError("vkMapMemory", res)
		context.logger.Error(err.Error())
		return nil, err
	}
	b.mapped = data
	return data, nil
}

func (b *VulkanBuffer) Unmap(context *VulkanContext) {
	if b.mapped == nil {
		return
	}
	vk.UnmapMemory(context.Device.LogicalDevice, b.Memory)
	b.mapped = nil
}

// LoadData copies data at offset into the buffer, mapping it if needed.
func (b *VulkanBuffer) LoadData(context *VulkanContext, offset vk.DeviceSize, data []byte) error {
	if offset+vk.DeviceSize(len(data)) > b.Size {
		return fmt.Errorf("buffer write of %d bytes at offset %d overflows buffer of %d bytes", len(data), offset, b.Size)
	}
	if len(data) == 0 {
		return nil
	}
	ptr, err := b.Map(context)
	if err != nil {
		return err
	}
	vk.Memcopy(unsafe.Add(ptr, offset), data)
	return nil
}

// CopyTo records a copy into a single use command buffer, submits it and
// waits for the queue to go idle before returning.
func (b *VulkanBuffer) CopyTo(context *VulkanContext, pool vk.CommandPool, queue vk.Queue, dst *VulkanBuffer, size vk.DeviceSize) error {
	cmd, err := AllocateAndBeginSingleUse(context, pool)
	if err != nil {
		return err
	}

	region := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      size,
	}
	vk.CmdCopyBuffer(cmd.Handle, b.Handle, dst.Handle, 1, []vk.BufferCopy{region})

	return cmd.EndSingleUse(context, pool, queue)
}
