package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

// VulkanMesh holds every object type's geometry in one vertex buffer and
// one index buffer, both device local.
type VulkanMesh struct {
	Table        *metadata.MeshTable
	VertexBuffer *VulkanBuffer
	IndexBuffer  *VulkanBuffer
}

func MeshUpload(context *VulkanContext, table *metadata.MeshTable) (*VulkanMesh, error) {
	mesh := &VulkanMesh{Table: table}

	var err error
	mesh.VertexBuffer, err = uploadDeviceLocal(context, sliceBytes(table.Vertices), vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return nil, err
	}
	mesh.IndexBuffer, err = uploadDeviceLocal(context, sliceBytes(table.Indices), vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
	if err != nil {
		mesh.Destroy(context)
		return nil, err
	}

	context.logger.Debug("Uploaded %d vertices and %d indices.", len(table.Vertices)/metadata.VertexFloatCount, len(table.Indices))
	return mesh, nil
}

// uploadDeviceLocal copies data into a new device local buffer through a
// host visible staging buffer, which is gone by the time this returns.
func uploadDeviceLocal(context *VulkanContext, data []byte, usage vk.BufferUsageFlags) (*VulkanBuffer, error) {
	size := vk.DeviceSize(len(data))

	staging, err := BufferCreate(context, size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	if err := staging.LoadData(context, 0, data); err != nil {
		context.logger.Error(err.Error())
		return nil, err
	}
	staging.Unmap(context)

	buffer, err := BufferCreate(context, size,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}

	if err := staging.CopyTo(context, context.Device.GraphicsCommandPool, context.Device.GraphicsQueue, buffer, size); err != nil {
		buffer.Destroy(context)
		return nil, err
	}
	return buffer, nil
}

// Bind binds both buffers once per frame. Draws select their range through
// the first index.
func (m *VulkanMesh) Bind(commandBuffer *VulkanCommandBuffer) {
	vk.CmdBindVertexBuffers(commandBuffer.Handle, 0, 1, []vk.Buffer{m.VertexBuffer.Handle}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(commandBuffer.Handle, m.IndexBuffer.Handle, 0, vk.IndexTypeUint32)
}

func (m *VulkanMesh) Destroy(context *VulkanContext) {
	if m.IndexBuffer != nil {
		m.IndexBuffer.Destroy(context)
		m.IndexBuffer = nil
	}
	if m.VertexBuffer != nil {
		m.VertexBuffer.Destroy(context)
		m.VertexBuffer = nil
	}
}
