package loaders

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

type ImageLoader struct{}

func (il *ImageLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	flipY := false
	if p, ok := params.(*metadata.ImageResourceParams); ok && p != nil {
		flipY = p.FlipY
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image `%s`: %w", path, err)
	}

	data := toRGBA(img, flipY)
	data.ChannelCount = channelCount(img)

	return &metadata.Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(data.Pixels)),
		Data:     data,
	}, nil
}

// toRGBA converts any decoded image into tightly packed RGBA8 rows.
func toRGBA(img image.Image, flipY bool) *metadata.ImageResourceData {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	pixels := rgba.Pix
	if flipY {
		row := rgba.Stride
		h := b.Dy()
		flipped := make([]uint8, len(pixels))
		for y := 0; y < h; y++ {
			copy(flipped[y*row:(y+1)*row], pixels[(h-1-y)*row:(h-y)*row])
		}
		pixels = flipped
	}

	return &metadata.ImageResourceData{
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
		Pixels: pixels,
	}
}

func channelCount(img image.Image) uint8 {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.YCbCr:
		return 3
	}
	return 4
}
