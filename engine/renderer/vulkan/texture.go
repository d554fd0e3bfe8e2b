package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

const textureFormat = vk.FormatR8g8b8a8Srgb

// VulkanTexture is a sampled image together with the descriptor set that
// exposes it to the fragment shader as set 1.
type VulkanTexture struct {
	Name          string
	Image         *VulkanImage
	Sampler       vk.Sampler
	DescriptorSet vk.DescriptorSet
}

// textureUploadOps are the steps of a staged texture upload. They are
// driven by uploadTexture, which owns their order.
type textureUploadOps interface {
	CreateStaging(pixels []byte) error
	DestroyStaging()
	CreateImage(width, height uint32) error
	BeginCommands() error
	ReleaseCommands()
	TransitionToTransferDst() error
	CopyStagingToImage()
	TransitionToShaderRead() error
	SubmitAndWait() error
}

// uploadTexture records the copy of pixels into a fresh image and waits for
// the queue to finish it before the staging buffer is released.
func uploadTexture(ops textureUploadOps, pixels []byte, width, height uint32) error {
	if uint64(len(pixels)) != uint64(width)*uint64(height)*4 {
		return fmt.Errorf("%w: %d bytes for a %dx%d RGBA image", core.ErrUnsupportedFormat, len(pixels), width, height)
	}
	// DestroyStaging also covers a partially created staging buffer.
	defer ops.DestroyStaging()
	if err := ops.CreateStaging(pixels); err != nil {
		return err
	}

	if err := ops.CreateImage(width, height); err != nil {
		return err
	}
	if err := ops.BeginCommands(); err != nil {
		return err
	}
	defer ops.ReleaseCommands()

	if err := ops.TransitionToTransferDst(); err != nil {
		return err
	}
	ops.CopyStagingToImage()
	if err := ops.TransitionToShaderRead(); err != nil {
		return err
	}
	return ops.SubmitAndWait()
}

// deviceTextureUpload runs the upload steps against the device.
type deviceTextureUpload struct {
	context *VulkanContext
	staging *VulkanBuffer
	image   *VulkanImage
	cmd     *VulkanCommandBuffer
}

func (u *deviceTextureUpload) CreateStaging(pixels []byte) error {
	staging, err := BufferCreate(u.context, vk.DeviceSize(len(pixels)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return err
	}
	if err := staging.LoadData(u.context, 0, pixels); err != nil {
		staging.Destroy(u.context)
		return err
	}
	u.staging = staging
	staging.Unmap(u.context)
	return nil
}

func (u *deviceTextureUpload) DestroyStaging() {
	if u.staging != nil {
		u.staging.Destroy(u.context)
		u.staging = nil
	}
}

func (u *deviceTextureUpload) CreateImage(width, height uint32) error {
	image, err := ImageCreate(u.context, ImageConfig{
		Width:          width,
		Height:         height,
		Format:         textureFormat,
		Tiling:         vk.ImageTilingOptimal,
		Usage:          vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		MemoryFlags:    vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		ViewAspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
	})
	if err != nil {
		return err
	}
	u.image = image
	return nil
}

func (u *deviceTextureUpload) BeginCommands() error {
	cmd, err := AllocateAndBeginSingleUse(u.context, u.context.Device.GraphicsCommandPool)
	if err != nil {
		return err
	}
	u.cmd = cmd
	return nil
}

// ReleaseCommands frees the command buffer if SubmitAndWait did not.
func (u *deviceTextureUpload) ReleaseCommands() {
	if u.cmd != nil {
		u.cmd.Free(u.context, u.context.Device.GraphicsCommandPool)
		u.cmd = nil
	}
}

func (u *deviceTextureUpload) TransitionToTransferDst() error {
	return u.image.TransitionLayout(u.cmd, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
}

func (u *deviceTextureUpload) CopyStagingToImage() {
	u.image.CopyFromBuffer(u.staging.Handle, u.cmd)
}

func (u *deviceTextureUpload) TransitionToShaderRead() error {
	return u.image.TransitionLayout(u.cmd, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
}

func (u *deviceTextureUpload) SubmitAndWait() error {
	err := u.cmd.EndSingleUse(u.context, u.context.Device.GraphicsCommandPool, u.context.Device.GraphicsQueue)
	u.cmd = nil
	return err
}

// TextureCreate uploads the decoded image, creates its sampler and writes
// the material descriptor set allocated from pool.
func TextureCreate(context *VulkanContext, name string, data *metadata.ImageResourceData, layout vk.DescriptorSetLayout, pool vk.DescriptorPool) (*VulkanTexture, error) {
	upload := &deviceTextureUpload{context: context}
	if err := uploadTexture(upload, data.Pixels, data.Width, data.Height); err != nil {
		if upload.image != nil {
			upload.image.Destroy(context)
		}
		err = fmt.Errorf("failed to upload texture `%s`: %w", name, err)
		context.logger.Error(err.Error())
		return nil, err
	}

	texture := &VulkanTexture{
		Name:  name,
		Image: upload.image,
	}

	sampler, err := samplerCreate(context)
	if err != nil {
		texture.Destroy(context)
		return nil, err
	}
	texture.Sampler = sampler

	sets, err := DescriptorSetsAllocate(context, pool, layout, 1)
	if err != nil {
		texture.Destroy(context)
		return nil, err
	}
	texture.DescriptorSet = sets[0]
	updateDescriptorSets(context, []vk.WriteDescriptorSet{
		imageWrite(texture.DescriptorSet, 0, texture.Sampler, texture.Image.View),
	})

	context.logger.Debug("Texture `%s` created (%dx%d).", name, data.Width, data.Height)
	return texture, nil
}

func samplerCreate(context *VulkanContext) (vk.Sampler, error) {
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1.0,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		MipLodBias:              0.0,
		MinLod:                  0.0,
		MaxLod:                  0.0,
	}
	if context.Device.SamplerAnisotropy {
		samplerInfo.AnisotropyEnable = vk.True
		samplerInfo.MaxAnisotropy = context.Device.Properties.Limits.MaxSamplerAnisotropy
	}

	var sampler vk.Sampler
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &sampler); res != vk.Success {
		err := vulkanError("vkCreateSampler", res)
		context.logger.Error(err.Error())
		return vk.NullSampler, err
	}
	return sampler, nil
}

// Use binds the material descriptor set as set 1.
func (t *VulkanTexture) Use(commandBuffer *VulkanCommandBuffer, layout vk.PipelineLayout) {
	vk.CmdBindDescriptorSets(commandBuffer.Handle, vk.PipelineBindPointGraphics, layout, materialDescriptorSet, 1, []vk.DescriptorSet{t.DescriptorSet}, 0, nil)
}

// Destroy leaves the descriptor set to the material pool.
func (t *VulkanTexture) Destroy(context *VulkanContext) {
	if t.Sampler != vk.NullSampler {
		vk.DestroySampler(context.Device.LogicalDevice, t.Sampler, context.Allocator)
		t.Sampler = vk.NullSampler
	}
	if t.Image != nil {
		t.Image.Destroy(context)
		t.Image = nil
	}
}
