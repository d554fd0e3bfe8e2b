package metadata

import (
	"github.com/go-gl/mathgl/mgl32"
)

/** @brief Capacity of the per-frame model transform storage buffer. */
const MaxModelInstances = 1024

/**
 * @brief Per-frame input of the renderer: world positions of every
 * instance, grouped by object type. The renderer never keeps a reference.
 */
type Scene struct {
	Positions [ObjectTypeCount][]mgl32.Vec3
}

/** @brief A contiguous range of the model transform buffer. */
type InstanceRange struct {
	First uint32
	Count uint32
}

func (s *Scene) Count(objectType ObjectType) uint32 {
	return uint32(len(s.Positions[objectType]))
}

func (s *Scene) TotalInstances() uint32 {
	var total uint32
	for _, t := range ObjectTypes {
		total += s.Count(t)
	}
	return total
}

// PartitionInstances splits [0, total) into one contiguous range per object
// type, in draw order.
func (s *Scene) PartitionInstances() [ObjectTypeCount]InstanceRange {
	var ranges [ObjectTypeCount]InstanceRange
	var startInstance uint32
	for _, t := range ObjectTypes {
		count := s.Count(t)
		ranges[t] = InstanceRange{First: startInstance, Count: count}
		startInstance += count
	}
	return ranges
}

// ModelTransforms appends one translation matrix per instance to dst, in the
// same order as PartitionInstances.
func (s *Scene) ModelTransforms(dst []mgl32.Mat4) []mgl32.Mat4 {
	dst = dst[:0]
	for _, t := range ObjectTypes {
		for _, p := range s.Positions[t] {
			dst = append(dst, mgl32.Translate3D(p.X(), p.Y(), p.Z()))
		}
	}
	return dst
}
