package metadata

type ResourceType int

/** @brief Resource types the asset manager has loaders for. */
const (
	/** @brief Binary resource type. Loaded as SPIR-V words. */
	ResourceTypeBinary ResourceType = iota
	/** @brief Image resource type. Decoded to RGBA8 pixels. */
	ResourceTypeImage
)

func (r ResourceType) String() string {
	switch r {
	case ResourceTypeBinary:
		return "binary"
	case ResourceTypeImage:
		return "image"
	}
	return "unknown"
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data. []uint32 for binaries, *ImageResourceData for images. */
	Data interface{}
}
