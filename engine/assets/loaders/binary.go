package loaders

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

// SPIR-V magic number, first word of every module.
const spirvMagic uint32 = 0x07230203

type BinaryLoader struct{}

func (bl *BinaryLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	res, err := bytesToBytecode(buf)
	if err != nil {
		return nil, fmt.Errorf("invalid shader binary `%s`: %w", path, err)
	}

	return &metadata.Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(buf)),
		Data:     res,
	}, nil
}

func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("size %d is not a multiple of 4", len(b))
	}
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	if byteCode[0] != spirvMagic {
		return nil, fmt.Errorf("bad magic number 0x%08x", byteCode[0])
	}
	return byteCode, nil
}
