package metadata

/** @brief Number of float32 per vertex: position xy, color rgb, texcoord uv. */
const VertexFloatCount = 7

/** @brief Size in bytes of one vertex. */
const VertexStride = VertexFloatCount * 4

/** @brief Where a mesh lives inside the shared index buffer. */
type MeshRange struct {
	FirstIndex uint32
	IndexCount uint32
}

/**
 * @brief One shared vertex and index array for all object types.
 * Built once at startup and read-only afterwards.
 */
type MeshTable struct {
	Vertices []float32
	Indices  []uint32
	Ranges   [ObjectTypeCount]MeshRange
}

// MeshBuilder concatenates meshes, rebasing each mesh's indices onto the
// vertices consumed before it.
type MeshBuilder struct {
	table       MeshTable
	vertexCount uint32
}

func NewMeshBuilder() *MeshBuilder {
	return &MeshBuilder{}
}

func (b *MeshBuilder) Consume(objectType ObjectType, vertices []float32, indices []uint32) {
	b.table.Ranges[objectType] = MeshRange{
		FirstIndex: uint32(len(b.table.Indices)),
		IndexCount: uint32(len(indices)),
	}
	b.table.Vertices = append(b.table.Vertices, vertices...)
	for _, i := range indices {
		b.table.Indices = append(b.table.Indices, i+b.vertexCount)
	}
	b.vertexCount += uint32(len(vertices) / VertexFloatCount)
}

func (b *MeshBuilder) Build() *MeshTable {
	t := b.table
	return &t
}

// BuiltinMeshes returns the triangle, square and star geometry.
func BuiltinMeshes() *MeshTable {
	b := NewMeshBuilder()
	b.Consume(ObjectTypeTriangle, []float32{
		0.0, -0.1, 0.0, 1.0, 0.0, 0.5, 0.0,
		0.1, 0.1, 0.0, 1.0, 0.0, 1.0, 1.0,
		-0.1, 0.1, 0.0, 1.0, 0.0, 0.0, 1.0,
	}, []uint32{0, 1, 2})
	b.Consume(ObjectTypeSquare, []float32{
		-0.1, 0.1, 1.0, 0.0, 0.0, 0.0, 1.0,
		-0.1, -0.1, 1.0, 0.0, 0.0, 0.0, 0.0,
		0.1, -0.1, 1.0, 0.0, 0.0, 1.0, 0.0,
		0.1, 0.1, 1.0, 0.0, 0.0, 1.0, 1.0,
	}, []uint32{0, 1, 2, 2, 3, 0})
	b.Consume(ObjectTypeStar, []float32{
		-0.1, -0.05, 1.0, 1.0, 1.0, 0.0, 0.25,
		-0.04, -0.05, 1.0, 1.0, 1.0, 0.3, 0.25,
		-0.06, 0.0, 1.0, 1.0, 1.0, 0.2, 0.5,
		0.0, -0.1, 1.0, 1.0, 1.0, 0.5, 0.0,
		0.04, -0.05, 1.0, 1.0, 1.0, 0.7, 0.25,
		0.1, -0.05, 1.0, 1.0, 1.0, 1.0, 0.25,
		0.06, 0.0, 1.0, 1.0, 1.0, 0.8, 0.5,
		0.08, 0.1, 1.0, 1.0, 1.0, 0.9, 1.0,
		0.0, 0.02, 1.0, 1.0, 1.0, 0.5, 0.6,
		-0.08, 0.1, 1.0, 1.0, 1.0, 0.1, 1.0,
	}, []uint32{
		0, 1, 2,
		1, 3, 4,
		2, 1, 4,
		4, 5, 6,
		2, 4, 6,
		6, 7, 8,
		2, 6, 8,
		2, 8, 9,
	})
	return b.Build()
}
