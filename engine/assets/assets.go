package assets

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spaghettifunk/vkscene/engine/assets/loaders"
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// AssetManager resolves asset paths against a base directory and hands them
// to the loader registered for the resource type.
type AssetManager struct {
	baseDir string
	logger  *core.Logger

	mutex   sync.RWMutex
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader
}

func NewAssetManager(baseDir string, logger *core.Logger) *AssetManager {
	am := &AssetManager{
		baseDir: baseDir,
		logger:  logger,
		assets:  make(map[string]AssetInfo),
		loaders: make(map[metadata.ResourceType]Loader),
	}

	// Register loaders
	am.RegisterLoader(metadata.ResourceTypeBinary, &loaders.BinaryLoader{})
	am.RegisterLoader(metadata.ResourceTypeImage, &loaders.ImageLoader{})

	return am
}

// Register loaders for each asset type
func (am *AssetManager) RegisterLoader(assetType metadata.ResourceType, loader Loader) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.loaders[assetType] = loader
}

func (am *AssetManager) resolve(name string) string {
	if filepath.IsAbs(name) || am.baseDir == "" {
		return name
	}
	return filepath.Join(am.baseDir, name)
}

// Load an asset using the appropriate loader
func (am *AssetManager) LoadAsset(name string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	am.mutex.RLock()
	loader, loaderExists := am.loaders[resourceType]
	am.mutex.RUnlock()
	if !loaderExists {
		err := fmt.Errorf("no loader registered for asset type: %s", resourceType)
		am.logger.Error(err.Error())
		return nil, err
	}

	path := am.resolve(name)
	res, err := loader.Load(path, params)
	if err != nil {
		am.logger.Error("failed to load %s asset `%s`: %s", resourceType, path, err)
		return nil, err
	}

	am.mutex.Lock()
	am.assets[path] = AssetInfo{
		Path:       path,
		Type:       resourceType,
		LastLoaded: time.Now(),
	}
	am.mutex.Unlock()

	am.logger.Debug("Loaded %s asset `%s` (%d bytes).", resourceType, path, res.DataSize)
	return res, nil
}

// LoadShader returns the SPIR-V words of a compiled shader stage.
func (am *AssetManager) LoadShader(name string) ([]uint32, error) {
	res, err := am.LoadAsset(name, metadata.ResourceTypeBinary, nil)
	if err != nil {
		return nil, err
	}
	code, ok := res.Data.([]uint32)
	if !ok {
		return nil, fmt.Errorf("asset `%s` is not a shader binary", name)
	}
	return code, nil
}

// LoadImage returns the RGBA8 pixels of an image file.
func (am *AssetManager) LoadImage(name string) (*metadata.ImageResourceData, error) {
	res, err := am.LoadAsset(name, metadata.ResourceTypeImage, nil)
	if err != nil {
		return nil, err
	}
	img, ok := res.Data.(*metadata.ImageResourceData)
	if !ok {
		return nil, fmt.Errorf("asset `%s` is not an image", name)
	}
	return img, nil
}

// Loaded reports every asset loaded so far.
func (am *AssetManager) Loaded() []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	out := make([]AssetInfo, 0, len(am.assets))
	for _, a := range am.assets {
		out = append(out, a)
	}
	return out
}
