package metadata

/**
 * @brief Decoded pixels of an image file. Always tightly packed RGBA8.
 */
type ImageResourceData struct {
	/** @brief The number of channels in the source file. */
	ChannelCount uint8
	/** @brief The width of the image. */
	Width uint32
	/** @brief The height of the image. */
	Height uint32
	/** @brief Width * Height * 4 bytes. */
	Pixels []uint8
}

/** @brief Parameters used when loading an image. */
type ImageResourceParams struct {
	/** @brief Indicates if the image should be flipped on the y-axis when loaded. */
	FlipY bool
}
