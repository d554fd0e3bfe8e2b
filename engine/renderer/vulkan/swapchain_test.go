package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	other := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	assert.Equal(t, preferred, chooseSurfaceFormat([]vk.SurfaceFormat{other, preferred}))
	// Falls back to the first one reported.
	assert.Equal(t, other, chooseSurfaceFormat([]vk.SurfaceFormat{other}))
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, vk.PresentModeMailbox, choosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode([]vk.PresentMode{vk.PresentModeImmediate}))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode(nil))
}

func TestChooseExtent(t *testing.T) {
	fixed := vk.SurfaceCapabilities{
		CurrentExtent: vk.Extent2D{Width: 800, Height: 600},
	}
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, chooseExtent(fixed, 1024, 768))

	free := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: undefinedExtent, Height: undefinedExtent},
		MinImageExtent: vk.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: vk.Extent2D{Width: 1920, Height: 1080},
	}
	assert.Equal(t, vk.Extent2D{Width: 640, Height: 480}, chooseExtent(free, 640, 480))
	assert.Equal(t, vk.Extent2D{Width: 1920, Height: 100}, chooseExtent(free, 4000, 10))
}

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		name     string
		min, max uint32
		expected uint32
	}{
		{"no maximum", 2, 0, 3},
		{"below maximum", 2, 8, 3},
		{"clamped to maximum", 3, 3, 3},
		{"single image surface", 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capabilities := vk.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
			assert.Equal(t, tt.expected, chooseImageCount(capabilities))
		})
	}
}
