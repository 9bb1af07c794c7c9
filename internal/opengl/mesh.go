package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"deferred-renderer/core"
	"deferred-renderer/gpu"
)

// Mesh holds the buffer objects of uploaded core.MeshData.
type Mesh struct {
	vao, vbo, ebo uint32
	vertexCount   int32
	indexCount    int32
}

func (m *Mesh) VertexCount() int { return int(m.vertexCount) }

// NewMesh uploads data with the core.Vertex attribute layout.
func (c *Context) NewMesh(data core.MeshData) (gpu.Mesh, error) {
	if len(data.Vertices) == 0 {
		return nil, fmt.Errorf("%w: mesh has no vertices", gpu.ErrResourceAllocation)
	}
	for _, i := range data.Indices {
		if int(i) >= len(data.Vertices) {
			return nil, fmt.Errorf("%w: index %d out of range (%d vertices)", gpu.ErrResourceAllocation, i, len(data.Vertices))
		}
	}

	stride := int32(unsafe.Sizeof(core.Vertex{}))
	m := &Mesh{
		vertexCount: int32(len(data.Vertices)),
		indexCount:  int32(len(data.Indices)),
	}

	drainErrors()
	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.BindVertexArray(m.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data.Vertices)*int(stride), gl.Ptr(data.Vertices), gl.STATIC_DRAW)

	var v core.Vertex
	attribs := []struct {
		size   int32
		offset uintptr
	}{
		{3, unsafe.Offsetof(v.Position)},
		{3, unsafe.Offsetof(v.Normal)},
		{2, unsafe.Offsetof(v.UV)},
		{4, unsafe.Offsetof(v.Color)},
	}
	for loc, a := range attribs {
		gl.EnableVertexAttribArray(uint32(loc))
		gl.VertexAttribPointer(uint32(loc), a.size, gl.FLOAT, false, stride, gl.PtrOffset(int(a.offset)))
	}

	if m.indexCount > 0 {
		gl.GenBuffers(1, &m.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data.Indices)*4, gl.Ptr(data.Indices), gl.STATIC_DRAW)
	}
	gl.BindVertexArray(0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		m.Delete()
		return nil, fmt.Errorf("%w: mesh upload: GL error 0x%X", gpu.ErrResourceAllocation, code)
	}
	return m, nil
}

func (m *Mesh) Delete() {
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
		m.ebo = 0
	}
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
		m.vbo = 0
	}
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		m.vao = 0
	}
}
