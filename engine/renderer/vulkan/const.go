package vulkan

import (
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

const (
	/** @brief Size in bytes of one mat4. */
	mat4Size = 16 * 4

	/** @brief Size of the per frame uniform buffer: view, projection and their product. */
	CameraDataSize = 3 * mat4Size

	/** @brief Size of the per frame storage buffer holding one model matrix per instance. */
	ModelBufferSize = metadata.MaxModelInstances * mat4Size

	/** @brief Number of textured materials, one per object type. */
	MaterialCount = uint32(metadata.ObjectTypeCount)
)

// Descriptor set indices as declared by the shaders.
const (
	frameDescriptorSet    uint32 = 0
	materialDescriptorSet uint32 = 1
)
