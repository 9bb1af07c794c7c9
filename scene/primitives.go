package scene

import (
	stdmath "math"

	"deferred-renderer/core"
	"deferred-renderer/math"
)

// All primitives wind counter-clockwise seen from outside and carry white
// vertex colors, so a Material alone decides their albedo.

// Triangle is a single triangle in the XY plane facing +Z, centered on the
// origin with unit width and height.
func Triangle() *Mesh {
	n := math.Vec3Front
	vertices := []core.Vertex{
		{Position: math.Vec3{X: -0.5, Y: -0.5}, Normal: n, UV: math.Vec2{X: 0, Y: 0}, Color: core.ColorWhite},
		{Position: math.Vec3{X: 0.5, Y: -0.5}, Normal: n, UV: math.Vec2{X: 1, Y: 0}, Color: core.ColorWhite},
		{Position: math.Vec3{X: 0, Y: 0.5}, Normal: n, UV: math.Vec2{X: 0.5, Y: 1}, Color: core.ColorWhite},
	}
	return NewMesh("Triangle", vertices, []uint32{0, 1, 2})
}

// Quad is a unit square in the XY plane facing +Z.
func Quad() *Mesh {
	var b meshBuilder
	b.face(math.Vec3Zero, math.Vec3Front, math.Vec3Right, 0.5)
	return b.mesh("Quad")
}

// PlaneMesh is a size x size square in the XZ plane facing +Y.
func PlaneMesh(size float32) *Mesh {
	var b meshBuilder
	b.face(math.Vec3Zero, math.Vec3Up, math.Vec3Right, size/2)
	return b.mesh("Plane")
}

// Cube is an axis-aligned cube with edge length size and flat normals.
func Cube(size float32) *Mesh {
	s := size / 2
	faces := []struct{ n, u math.Vec3 }{
		{math.Vec3{Z: 1}, math.Vec3{X: 1}},
		{math.Vec3{Z: -1}, math.Vec3{X: -1}},
		{math.Vec3{X: 1}, math.Vec3{Z: -1}},
		{math.Vec3{X: -1}, math.Vec3{Z: 1}},
		{math.Vec3{Y: 1}, math.Vec3{X: 1}},
		{math.Vec3{Y: -1}, math.Vec3{X: 1}},
	}
	var b meshBuilder
	for _, f := range faces {
		b.face(f.n.Mul(s), f.n, f.u, s)
	}
	return b.mesh("Cube")
}

// Sphere is a UV sphere. segments is clamped to at least 3 and rings to at
// least 2.
func Sphere(radius float32, segments, rings int) *Mesh {
	segments = max(segments, 3)
	rings = max(rings, 2)

	var vertices []core.Vertex
	var indices []uint32
	for ring := 0; ring <= rings; ring++ {
		phi := float64(ring) * stdmath.Pi / float64(rings)
		sinPhi, cosPhi := float32(stdmath.Sin(phi)), float32(stdmath.Cos(phi))
		for seg := 0; seg <= segments; seg++ {
			theta := float64(seg) * 2 * stdmath.Pi / float64(segments)
			normal := math.Vec3{
				X: sinPhi * float32(stdmath.Cos(theta)),
				Y: cosPhi,
				Z: sinPhi * float32(stdmath.Sin(theta)),
			}
			vertices = append(vertices, core.Vertex{
				Position: normal.Mul(radius),
				Normal:   normal,
				UV:       math.Vec2{X: float32(seg) / float32(segments), Y: float32(ring) / float32(rings)},
				Color:    core.ColorWhite,
			})
		}
	}
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			cur := uint32(ring*(segments+1) + seg)
			next := cur + uint32(segments+1)
			indices = append(indices, cur, cur+1, next, cur+1, next+1, next)
		}
	}
	return NewMesh("Sphere", vertices, indices)
}

type meshBuilder struct {
	vertices []core.Vertex
	indices  []uint32
}

// face appends a square centered on c facing n, spanning half units along
// u and n×u.
func (b *meshBuilder) face(c, n, u math.Vec3, half float32) {
	v := n.Cross(u)
	base := uint32(len(b.vertices))
	corners := [4]struct{ su, sv float32 }{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, k := range corners {
		p := c.Add(u.Mul(k.su * half)).Add(v.Mul(k.sv * half))
		b.vertices = append(b.vertices, core.Vertex{
			Position: p,
			Normal:   n,
			UV:       math.Vec2{X: (k.su + 1) / 2, Y: (k.sv + 1) / 2},
			Color:    core.ColorWhite,
		})
	}
	b.indices = append(b.indices, base, base+1, base+2, base+2, base+3, base)
}

func (b *meshBuilder) mesh(name string) *Mesh {
	return NewMesh(name, b.vertices, b.indices)
}
