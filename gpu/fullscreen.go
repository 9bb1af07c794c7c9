package gpu

import (
	"deferred-renderer/core"
	"deferred-renderer/math"
)

// FullScreenTriangle is one counter-clockwise triangle that covers the whole
// viewport. Every viewport corner lies strictly inside it, half a unit away
// from the nearest edge, and its UVs map the visible part to [0,1].
func FullScreenTriangle() core.MeshData {
	v := func(x, y, u, w float32) core.Vertex {
		return core.Vertex{
			Position: math.Vec3{X: x, Y: y},
			Normal:   math.Vec3Front,
			UV:       math.Vec2{X: u, Y: w},
			Color:    core.ColorWhite,
		}
	}
	return core.MeshData{
		Vertices: []core.Vertex{
			v(-1.5, -1.5, -0.25, -0.25),
			v(4.5, -1.5, 2.75, -0.25),
			v(-1.5, 4.5, -0.25, 2.75),
		},
	}
}

// ScreenQuad is a unit quad with corners at (0,0) and (1,1), used for
// screen-anchored overlays that position it in the vertex shader.
func ScreenQuad() core.MeshData {
	v := func(x, y float32) core.Vertex {
		return core.Vertex{
			Position: math.Vec3{X: x, Y: y},
			Normal:   math.Vec3Front,
			UV:       math.Vec2{X: x, Y: y},
			Color:    core.ColorWhite,
		}
	}
	return core.MeshData{
		Vertices: []core.Vertex{v(0, 0), v(1, 0), v(1, 1), v(0, 1)},
		Indices:  []uint32{0, 1, 2, 2, 3, 0},
	}
}
