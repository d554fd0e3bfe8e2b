package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

// AssetSource provides the shader bytecode and the decoded material images.
type AssetSource interface {
	LoadShader(name string) ([]uint32, error)
	LoadImage(name string) (*metadata.ImageResourceData, error)
}

type RendererConfig struct {
	ApplicationName string
	Validation      bool
	Layers          []string
	VertexShader    string
	FragmentShader  string
	ClearColor      [4]float32
	// Indexed by metadata.ObjectType.
	TexturePaths [metadata.ObjectTypeCount]string
}

// VulkanRenderer owns every device object that survives a swapchain
// rebuild: the device, the render pass, the pipeline, the meshes and the
// materials.
type VulkanRenderer struct {
	context *VulkanContext
	logger  *core.Logger

	renderpass     *VulkanRenderpass
	frameLayout    vk.DescriptorSetLayout
	materialLayout vk.DescriptorSetLayout
	materialPool   vk.DescriptorPool
	pipeline       *VulkanPipeline

	mesh     *VulkanMesh
	textures [metadata.ObjectTypeCount]*VulkanTexture
}

// New performs the whole one time initialization. On failure everything
// created so far is released before the error is returned.
func New(logger *core.Logger, window Window, config RendererConfig, assets AssetSource) (*VulkanRenderer, error) {
	vr := &VulkanRenderer{logger: logger}

	context, err := NewContext(logger, window, InstanceConfig{
		ApplicationName: config.ApplicationName,
		Validation:      config.Validation,
		Layers:          config.Layers,
	})
	if err != nil {
		return nil, err
	}
	vr.context = context

	if err := vr.initialize(config, assets); err != nil {
		vr.Destroy()
		return nil, err
	}
	logger.Info("Vulkan renderer initialized successfully.")
	return vr, nil
}

func (vr *VulkanRenderer) initialize(config RendererConfig, assets AssetSource) error {
	context := vr.context
	if err := DeviceCreate(context); err != nil {
		return err
	}

	// The color format is fixed for the lifetime of the render pass.
	colorFormat := chooseSurfaceFormat(context.Device.SwapchainSupport.Formats).Format
	renderpass, err := RenderpassCreate(context, colorFormat, config.ClearColor, 1.0, 0)
	if err != nil {
		return err
	}
	vr.renderpass = renderpass

	if vr.frameLayout, err = DescriptorSetLayoutCreate(context, frameSetBindings()); err != nil {
		return err
	}
	if vr.materialLayout, err = DescriptorSetLayoutCreate(context, materialSetBindings()); err != nil {
		return err
	}
	if vr.materialPool, err = DescriptorPoolCreate(context, materialSetBindings(), MaterialCount); err != nil {
		return err
	}

	if err := vr.createPipeline(config, assets); err != nil {
		return err
	}

	if vr.mesh, err = MeshUpload(context, metadata.BuiltinMeshes()); err != nil {
		return err
	}

	for _, objectType := range metadata.ObjectTypes {
		path := config.TexturePaths[objectType]
		data, err := assets.LoadImage(path)
		if err != nil {
			err = fmt.Errorf("failed to load material for %s: %w", objectType, err)
			vr.logger.Error(err.Error())
			return err
		}
		texture, err := TextureCreate(context, path, data, vr.materialLayout, vr.materialPool)
		if err != nil {
			return err
		}
		vr.textures[objectType] = texture
	}
	return nil
}

func (vr *VulkanRenderer) createPipeline(config RendererConfig, assets AssetSource) error {
	context := vr.context

	stages := make([]*VulkanShaderStage, 0, 2)
	defer func() {
		// Modules are only needed while the pipeline is created.
		for _, s := range stages {
			s.Destroy(context)
		}
	}()

	for _, shader := range []struct {
		path  string
		stage vk.ShaderStageFlagBits
	}{
		{config.VertexShader, vk.ShaderStageVertexBit},
		{config.FragmentShader, vk.ShaderStageFragmentBit},
	} {
		code, err := assets.LoadShader(shader.path)
		if err != nil {
			err = fmt.Errorf("%w: %s", core.ErrShaderLoad, err)
			vr.logger.Error(err.Error())
			return err
		}
		stage, err := NewShaderStage(context, shader.path, code, shader.stage)
		if err != nil {
			return err
		}
		stages = append(stages, stage)
	}

	layouts := []vk.DescriptorSetLayout{vr.frameLayout, vr.materialLayout}
	pipeline, err := NewGraphicsPipeline(context, pipelineConfig(vr.renderpass, layouts, stages))
	if err != nil {
		return err
	}
	vr.pipeline = pipeline
	return nil
}

// BuildSwapchain runs both allocation phases of a new swapchain.
func (vr *VulkanRenderer) BuildSwapchain(width, height uint32) (*VulkanSwapchain, error) {
	swapchain, err := SwapchainCreate(vr.context, width, height)
	if err != nil {
		return nil, err
	}
	if err := swapchain.CreateFrameResources(vr.renderpass, vr.frameLayout); err != nil {
		swapchain.Destroy()
		return nil, err
	}
	return swapchain, nil
}

func (vr *VulkanRenderer) WaitIdle() error {
	if res := vk.DeviceWaitIdle(vr.context.Device.LogicalDevice); res != vk.Success {
		err := vulkanError("vkDeviceWaitIdle", res)
		vr.logger.Error(err.Error())
		return err
	}
	return nil
}

func (vr *VulkanRenderer) Meshes() *metadata.MeshTable {
	return vr.mesh.Table
}

// Record begins the command buffer of slot and the render pass on the
// framebuffer of imageIndex, then binds everything shared by the draws.
func (vr *VulkanRenderer) Record(swapchain *VulkanSwapchain, slot int, imageIndex uint32) (*VulkanRecorder, error) {
	frame := swapchain.Frames[slot]
	cmd := frame.CommandBuffer
	if err := cmd.Begin(false, false, false); err != nil {
		vr.logger.Error(err.Error())
		return nil, err
	}

	vr.renderpass.Begin(cmd, swapchain.Frames[imageIndex].Framebuffer.Handle, swapchain.Extent)

	// Dynamic state
	viewport := vk.Viewport{
		X:        0.0,
		Y:        0.0,
		Width:    float32(swapchain.Extent.Width),
		Height:   float32(swapchain.Extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: swapchain.Extent,
	}
	vk.CmdSetViewport(cmd.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cmd.Handle, 0, 1, []vk.Rect2D{scissor})

	vr.pipeline.Bind(cmd, vk.PipelineBindPointGraphics)
	vk.CmdBindDescriptorSets(cmd.Handle, vk.PipelineBindPointGraphics, vr.pipeline.PipelineLayout, frameDescriptorSet, 1, []vk.DescriptorSet{frame.DescriptorSet}, 0, nil)
	vr.mesh.Bind(cmd)

	return &VulkanRecorder{renderer: vr, cmd: cmd}, nil
}

// Destroy releases everything in reverse order of creation. Swapchains must
// already be destroyed.
func (vr *VulkanRenderer) Destroy() {
	context := vr.context
	if context == nil {
		return
	}
	if context.Device != nil && context.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(context.Device.LogicalDevice)

		DescriptorPoolDestroy(context, &vr.materialPool)
		DescriptorSetLayoutDestroy(context, &vr.materialLayout)
		DescriptorSetLayoutDestroy(context, &vr.frameLayout)

		for i := len(vr.textures) - 1; i >= 0; i-- {
			if vr.textures[i] != nil {
				vr.textures[i].Destroy(context)
				vr.textures[i] = nil
			}
		}
		if vr.mesh != nil {
			vr.mesh.Destroy(context)
			vr.mesh = nil
		}
		if vr.pipeline != nil {
			vr.pipeline.Destroy(context)
			vr.pipeline = nil
		}
		if vr.renderpass != nil {
			vr.renderpass.Destroy(context)
			vr.renderpass = nil
		}
	}
	DeviceDestroy(context)
	context.Destroy()
	vr.context = nil
	vr.logger.Info("Vulkan renderer destroyed.")
}

// VulkanRecorder records the per type draws of one frame.
type VulkanRecorder struct {
	renderer *VulkanRenderer
	cmd      *VulkanCommandBuffer
}

// BindMaterial binds the texture of objectType as set 1.
func (r *VulkanRecorder) BindMaterial(objectType metadata.ObjectType) {
	r.renderer.textures[objectType].Use(r.cmd, r.renderer.pipeline.PipelineLayout)
}

func (r *VulkanRecorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(r.cmd.Handle, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func (r *VulkanRecorder) End() error {
	r.renderer.renderpass.End(r.cmd)
	if err := r.cmd.End(); err != nil {
		r.renderer.logger.Error(err.Error())
		return err
	}
	return nil
}
