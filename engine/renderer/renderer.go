package renderer

import (
	"github.com/spaghettifunk/vkscene/engine/assets"
	"github.com/spaghettifunk/vkscene/engine/config"
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/vulkan"
)

// New creates the Vulkan backend described by cfg and builds the first
// swapchain for the window.
func New(cfg *config.Config, window SurfaceWindow, logger *core.Logger) (*Engine, error) {
	assetManager := assets.NewAssetManager("", logger)

	var clearColor [4]float32
	copy(clearColor[:], cfg.Renderer.ClearColor)

	backend, err := vulkan.New(logger, window, vulkan.RendererConfig{
		ApplicationName: cfg.Application.Name,
		Validation:      cfg.Renderer.Validation,
		Layers:          cfg.Renderer.Layers,
		VertexShader:    cfg.Renderer.VertexShader,
		FragmentShader:  cfg.Renderer.FragmentShader,
		ClearColor:      clearColor,
		TexturePaths:    cfg.Materials.TexturePaths(),
	}, assetManager)
	if err != nil {
		return nil, err
	}

	for _, a := range assetManager.Loaded() {
		logger.Debug("Loaded asset %s (type %v)", a.Path, a.Type)
	}

	return NewEngine(&vulkanBackend{renderer: backend}, window, logger)
}
