// Package gpu describes the graphics capability the renderer draws with.
//
// A Context is created once per GL context and shared by reference between
// the pipeline, effects and models. All methods must be called from the
// thread that owns the context.
package gpu

import (
	"image"

	"deferred-renderer/core"
	"deferred-renderer/math"
)

// Format is the storage format of a render target attachment.
type Format int

const (
	FormatRGBA8 Format = iota
	FormatRGBA16F
	FormatRGBA32F
)

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGBA16F:
		return "RGBA16F"
	case FormatRGBA32F:
		return "RGBA32F"
	}
	return "unknown"
}

// Texture is an opaque GPU texture.
type Texture interface {
	ID() uint32
	Width() int
	Height() int
}

// Mesh is uploaded vertex (and optional index) data.
type Mesh interface {
	VertexCount() int
	Delete()
}

// Framebuffer is a bindable draw destination.
type Framebuffer interface {
	// Bind makes the framebuffer the draw target and sets the viewport to
	// cover it.
	Bind()
	// Clear binds the framebuffer, then fills every color attachment with c
	// and depth with 1.
	Clear(c core.Color)
	Size() (width, height int)
}

// RenderTargetSet is a framebuffer with several color attachments and a
// sampleable depth attachment, all sharing one size.
type RenderTargetSet interface {
	Framebuffer
	ColorCount() int
	Color(i int) Texture
	Depth() Texture
	Delete()
}

// Program is a linked vertex + fragment shader pair. Setters return an
// error wrapping ErrBinding when the uniform does not exist in the program.
type Program interface {
	Name() string
	Use()
	SetInt(name string, v int32) error
	SetFloat(name string, v float32) error
	SetVec3(name string, v math.Vec3) error
	SetVec4(name string, v math.Vec4) error
	SetVec3Array(name string, v []math.Vec3) error
	SetMat4(name string, m math.Mat4) error
	// UseTexture binds t to texture unit and points the sampler name at it.
	UseTexture(name string, unit int, t Texture) error
	// Draw submits mesh with the program's current uniforms. Failures wrap
	// ErrDraw.
	Draw(m Mesh) error
	Delete()
}

// Context creates resources and controls fixed-function state.
type Context interface {
	// NewProgram builds the program registered under name from its vertex
	// and fragment shader sources. Failures wrap ErrShaderCompile.
	NewProgram(name string) (Program, error)
	NewMesh(data core.MeshData) (Mesh, error)
	NewTexture(img *image.RGBA) (Texture, error)
	DeleteTexture(t Texture)
	// NewRenderTargetSet allocates every attachment or none. Failures wrap
	// ErrResourceAllocation.
	NewRenderTargetSet(width, height int, colors []Format) (RenderTargetSet, error)
	// Screen is the default framebuffer of the window.
	Screen() Framebuffer
	SetState(s State)
	// ReadPixels returns the region of the bound framebuffer with row 0 at
	// the top.
	ReadPixels(x, y, width, height int) (*image.RGBA, error)
}
