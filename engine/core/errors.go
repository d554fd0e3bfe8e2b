package core

import (
	"errors"
)

var (
	ErrSwapchainBooting  = errors.New("swapchain resized or recreated, booting")
	ErrNoSuitableDevice  = errors.New("no physical device meets the requirements")
	ErrSurfaceCreation   = errors.New("vulkan surface creation failed")
	ErrShaderLoad        = errors.New("failed to load shader module")
	ErrValidationLayer   = errors.New("required validation layer is missing")
	ErrTooManyInstances  = errors.New("scene exceeds the per-frame instance capacity")
	ErrUnsupportedFormat = errors.New("no supported format among candidates")
	ErrNoMemoryType      = errors.New("no suitable memory type")
)
