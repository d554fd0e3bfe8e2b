package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	paths []string
	data  interface{}
	err   error
}

func (f *fakeLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	f.paths = append(f.paths, path)
	if f.err != nil {
		return nil, f.err
	}
	return &metadata.Resource{FullPath: path, Data: f.data}, nil
}

func TestLoadShaderResolvesAgainstBaseDir(t *testing.T) {
	am := NewAssetManager("/srv/game", core.NewDiscardLogger())
	fl := &fakeLoader{data: []uint32{0x07230203}}
	am.RegisterLoader(metadata.ResourceTypeBinary, fl)

	code, err := am.LoadShader("shaders/vertex.spv")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x07230203}, code)
	assert.Equal(t, []string{filepath.Join("/srv/game", "shaders/vertex.spv")}, fl.paths)

	_, err = am.LoadShader("/abs/fragment.spv")
	require.NoError(t, err)
	assert.Equal(t, "/abs/fragment.spv", fl.paths[1])
	assert.Len(t, am.Loaded(), 2)
}

func TestLoadImageWrongType(t *testing.T) {
	am := NewAssetManager("", core.NewDiscardLogger())
	am.RegisterLoader(metadata.ResourceTypeImage, &fakeLoader{data: []uint32{1}})

	_, err := am.LoadImage("brick.jpg")
	assert.ErrorContains(t, err, "is not an image")
}

func TestLoadAssetPropagatesLoaderError(t *testing.T) {
	am := NewAssetManager("", core.NewDiscardLogger())
	boom := errors.New("boom")
	am.RegisterLoader(metadata.ResourceTypeImage, &fakeLoader{err: boom})

	_, err := am.LoadImage("brick.jpg")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, am.Loaded())
}

func TestLoadAssetUnknownType(t *testing.T) {
	am := NewAssetManager("", core.NewDiscardLogger())
	_, err := am.LoadAsset("x", metadata.ResourceType(99), nil)
	assert.Error(t, err)
}

func TestLoadShaderFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frag.spv"), []byte{0x03, 0x02, 0x23, 0x07}, 0o644))

	am := NewAssetManager(dir, core.NewDiscardLogger())
	code, err := am.LoadShader("frag.spv")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x07230203}, code)
}
