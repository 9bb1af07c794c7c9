package core

import (
	"deferred-renderer/math"
)

type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
	ColorGrey  = Color{0.8, 0.8, 0.8, 1}
)

// RGB drops the alpha channel.
func (c Color) RGB() math.Vec3 {
	return math.Vec3{X: c.R, Y: c.G, Z: c.B}
}

// Vertex is the interleaved layout uploaded by every mesh. Attribute
// locations follow field order: 0 position, 1 normal, 2 uv, 3 color.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	UV       math.Vec2
	Color    Color
}

type MeshData struct {
	Vertices []Vertex
	Indices  []uint32
}
