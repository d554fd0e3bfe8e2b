package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkscene/engine/core"
)

type InstanceConfig struct {
	ApplicationName string
	// Validation enables the debug report callback and requires Layers.
	Validation bool
	Layers     []string
}

// NewContext creates the instance, the optional debug callback and the
// window surface. The device is created separately by DeviceCreate.
func NewContext(logger *core.Logger, window Window, config InstanceConfig) (*VulkanContext, error) {
	context := &VulkanContext{
		Allocator: nil,
		logger:    logger,
	}

	procAddr := window.GetInstanceProcAddress()
	if procAddr == nil {
		err := fmt.Errorf("GetInstanceProcAddress is nil")
		logger.Error(err.Error())
		return nil, err
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		logger.Error("failed to initialize vk: %s", err)
		return nil, err
	}

	// Setup Vulkan instance.
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(config.ApplicationName),
		PEngineName:        VulkanSafeString("vkscene"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// Obtain a list of required extensions
	requiredExtensions := window.RequiredInstanceExtensions()

	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	if config.Validation {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
	}
	logger.Debug("Required extensions: %v", requiredExtensions)

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	// Validation layers.
	requiredLayers := []string{}
	if config.Validation {
		logger.Info("Validation layers enabled. Enumerating...")
		requiredLayers = append(requiredLayers, config.Layers...)
		if err := checkValidationLayers(logger, requiredLayers); err != nil {
			return nil, err
		}
		logger.Info("All required validation layers are present.")
	}

	createInfo.EnabledLayerCount = uint32(len(requiredLayers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredLayers)

	if res := vk.CreateInstance(&createInfo, context.Allocator, &context.Instance); res != vk.Success {
		err := fmt.Errorf("failed in creating the Vulkan Instance with error `%s`", VulkanResultString(res))
		logger.Error(err.Error())
		return nil, err
	}
	if err := vk.InitInstance(context.Instance); err != nil {
		logger.Error(err.Error())
		context.Destroy()
		return nil, err
	}
	logger.Info("Vulkan Instance created.")

	// Debugger
	if config.Validation {
		logger.Debug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: context.debugReport,
		}

		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(context.Instance, &debugCreateInfo, context.Allocator, &dbg)); err != nil {
			logger.Error("vk.CreateDebugReportCallback failed with %s", err)
			context.Destroy()
			return nil, err
		}
		context.debugCallback = dbg
		logger.Debug("Vulkan debugger created.")
	}

	// Surface
	logger.Debug("Creating Vulkan surface...")
	surface, err := window.CreateSurface(context.Instance)
	if err != nil {
		logger.Error(err.Error())
		context.Destroy()
		return nil, err
	}
	context.Surface = vk.SurfaceFromPointer(surface)
	logger.Debug("Vulkan surface created.")

	return context, nil
}

func checkValidationLayers(logger *core.Logger, required []string) error {
	// Obtain a list of available validation layers
	var availableLayerCount uint32
	if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, nil); res != vk.Success {
		return fmt.Errorf("failed to enumerate instance layers: %s", VulkanResultString(res))
	}
	availableLayers := make([]vk.LayerProperties, availableLayerCount)
	if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, availableLayers); res != vk.Success {
		return fmt.Errorf("failed to enumerate instance layers: %s", VulkanResultString(res))
	}

	available := make([]string, 0, len(availableLayers))
	for i := range availableLayers {
		availableLayers[i].Deref()
		available = append(available, cString(availableLayers[i].LayerName[:]))
	}

	// Verify all required layers are available.
	for _, layer := range required {
		logger.Debug("Searching for layer: %s...", layer)
		if !containsString(available, layer) {
			err := fmt.Errorf("%w: %s", core.ErrValidationLayer, layer)
			logger.Error(err.Error())
			return err
		}
	}
	return nil
}

// Destroy releases the surface, the debug callback and the instance, in
// this order. The device must already be gone.
func (vc *VulkanContext) Destroy() {
	if vc.Surface != vk.NullSurface {
		vc.logger.Debug("Destroying Vulkan surface...")
		vk.DestroySurface(vc.Instance, vc.Surface, vc.Allocator)
		vc.Surface = vk.NullSurface
	}

	if vc.debugCallback != vk.NullDebugReportCallback {
		vc.logger.Debug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vc.Instance, vc.debugCallback, vc.Allocator)
		vc.debugCallback = vk.NullDebugReportCallback
	}

	if vc.Instance != nil {
		vc.logger.Debug("Destroying Vulkan instance...")
		vk.DestroyInstance(vc.Instance, vc.Allocator)
		vc.Instance = nil
	}
}

func (vc *VulkanContext) debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		vc.logger.Error("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		vc.logger.Warn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		vc.logger.Warn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		vc.logger.Debug("DEBUG: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		vc.logger.Info("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
