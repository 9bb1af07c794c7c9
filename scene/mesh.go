package scene

import (
	"deferred-renderer/core"
	"deferred-renderer/math"
)

// Mesh holds CPU-side vertex and index data. Upload happens through a
// Model; the Mesh itself never touches the GPU.
type Mesh struct {
	Name     string
	Vertices []core.Vertex
	Indices  []uint32

	// Bounds is the local-space box around Vertices.
	Bounds AABB
}

// NewMesh builds a Mesh and computes its bounds.
func NewMesh(name string, vertices []core.Vertex, indices []uint32) *Mesh {
	m := &Mesh{Name: name, Vertices: vertices, Indices: indices}
	m.Bounds = computeBounds(vertices)
	return m
}

// Data returns the mesh in the form gpu.Context uploads.
func (m *Mesh) Data() core.MeshData {
	return core.MeshData{Vertices: m.Vertices, Indices: m.Indices}
}

// TriangleCount is the number of triangles the mesh draws.
func (m *Mesh) TriangleCount() int {
	if len(m.Indices) > 0 {
		return len(m.Indices) / 3
	}
	return len(m.Vertices) / 3
}

// SetColor overwrites every vertex color.
func (m *Mesh) SetColor(c core.Color) {
	for i := range m.Vertices {
		m.Vertices[i].Color = c
	}
}

func computeBounds(vertices []core.Vertex) AABB {
	if len(vertices) == 0 {
		return AABB{}
	}
	b := AABB{Min: vertices[0].Position, Max: vertices[0].Position}
	for _, v := range vertices[1:] {
		b = b.extend(v.Position)
	}
	return b
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max math.Vec3
}

func (b AABB) extend(p math.Vec3) AABB {
	b.Min = math.Vec3{X: min(b.Min.X, p.X), Y: min(b.Min.Y, p.Y), Z: min(b.Min.Z, p.Z)}
	b.Max = math.Vec3{X: max(b.Max.X, p.X), Y: max(b.Max.Y, p.Y), Z: max(b.Max.Z, p.Z)}
	return b
}

func (b AABB) Center() math.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Transform returns the box around all eight corners of b moved by m.
func (b AABB) Transform(m math.Mat4) AABB {
	mn, mx := b.Min, b.Max
	corners := [8]math.Vec3{
		{X: mn.X, Y: mn.Y, Z: mn.Z},
		{X: mx.X, Y: mn.Y, Z: mn.Z},
		{X: mn.X, Y: mx.Y, Z: mn.Z},
		{X: mx.X, Y: mx.Y, Z: mn.Z},
		{X: mn.X, Y: mn.Y, Z: mx.Z},
		{X: mx.X, Y: mn.Y, Z: mx.Z},
		{X: mn.X, Y: mx.Y, Z: mx.Z},
		{X: mx.X, Y: mx.Y, Z: mx.Z},
	}
	first := m.TransformPoint(corners[0])
	out := AABB{Min: first, Max: first}
	for _, c := range corners[1:] {
		out = out.extend(m.TransformPoint(c))
	}
	return out
}
