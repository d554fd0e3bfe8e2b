package loaders

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSPIRV(t *testing.T, words ...uint32) string {
	t.Helper()
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	path := filepath.Join(t.TempDir(), "vertex.spv")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func TestBinaryLoader(t *testing.T) {
	path := writeSPIRV(t, spirvMagic, 0x00010000, 42)

	res, err := (&BinaryLoader{}).Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "vertex.spv", res.Name)
	assert.Equal(t, uint64(12), res.DataSize)
	assert.Equal(t, []uint32{spirvMagic, 0x00010000, 42}, res.Data)
}

func TestBinaryLoaderRejectsGarbage(t *testing.T) {
	_, err := (&BinaryLoader{}).Load(writeSPIRV(t, 0xdeadbeef), nil)
	assert.ErrorContains(t, err, "bad magic number")

	odd := filepath.Join(t.TempDir(), "odd.spv")
	require.NoError(t, os.WriteFile(odd, []byte{1, 2, 3}, 0o644))
	_, err = (&BinaryLoader{}).Load(odd, nil)
	assert.Error(t, err)

	_, err = (&BinaryLoader{}).Load(filepath.Join(t.TempDir(), "missing.spv"), nil)
	assert.Error(t, err)
}

func writePNG(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(y * 100), G: uint8(x * 200), B: 7, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "tex.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestImageLoaderDecodesToRGBA(t *testing.T) {
	path := writePNG(t)

	res, err := (&ImageLoader{}).Load(path, nil)
	require.NoError(t, err)
	data := res.Data.(*metadata.ImageResourceData)

	assert.Equal(t, uint32(2), data.Width)
	assert.Equal(t, uint32(3), data.Height)
	assert.Len(t, data.Pixels, 2*3*4)
	// Pixel (1, 2).
	px := data.Pixels[(2*2+1)*4:]
	assert.Equal(t, []uint8{200, 200, 7, 255}, px[:4])
}

func TestImageLoaderFlipY(t *testing.T) {
	path := writePNG(t)

	res, err := (&ImageLoader{}).Load(path, &metadata.ImageResourceParams{FlipY: true})
	require.NoError(t, err)
	data := res.Data.(*metadata.ImageResourceData)

	// The last row is now first.
	assert.Equal(t, uint8(200), data.Pixels[0])
	assert.Equal(t, uint8(0), data.Pixels[len(data.Pixels)-4])
}

func TestImageLoaderMissingFile(t *testing.T) {
	_, err := (&ImageLoader{}).Load(filepath.Join(t.TempDir(), "nope.jpg"), nil)
	assert.Error(t, err)
}
