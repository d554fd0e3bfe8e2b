package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestFindQueueFamilies(t *testing.T) {
	graphics := vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueTransferBit)
	compute := vk.QueueFlags(vk.QueueComputeBit)

	tests := []struct {
		name             string
		flags            []vk.QueueFlags
		present          []bool
		graphics, expect int32
	}{
		{"shared family at index zero", []vk.QueueFlags{graphics}, []bool{true}, 0, 0},
		{"prefers a family doing both", []vk.QueueFlags{graphics, graphics}, []bool{false, true}, 1, 1},
		{"separate families", []vk.QueueFlags{graphics, compute}, []bool{false, true}, 0, 1},
		{"no present support", []vk.QueueFlags{graphics}, []bool{false}, 0, -1},
		{"no graphics support", []vk.QueueFlags{compute}, []bool{true}, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := findQueueFamilies(tt.flags, tt.present)
			assert.Equal(t, tt.graphics, info.GraphicsFamilyIndex)
			assert.Equal(t, tt.expect, info.PresentFamilyIndex)
			assert.Equal(t, tt.graphics >= 0 && tt.expect >= 0, info.Complete())
		})
	}
}
