package metadata

/** @brief The closed set of shapes the renderer knows how to draw. */
type ObjectType uint8

const (
	ObjectTypeTriangle ObjectType = iota
	ObjectTypeSquare
	ObjectTypeStar
	/** @brief Number of object types. Used to size every per-type table. */
	ObjectTypeCount
)

/** @brief Draw order. Instance data is packed in the same order. */
var ObjectTypes = [ObjectTypeCount]ObjectType{
	ObjectTypeTriangle,
	ObjectTypeSquare,
	ObjectTypeStar,
}

func (o ObjectType) String() string {
	switch o {
	case ObjectTypeTriangle:
		return "triangle"
	case ObjectTypeSquare:
		return "square"
	case ObjectTypeStar:
		return "star"
	}
	return "unknown"
}
