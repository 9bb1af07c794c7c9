// Package gputest provides an in-memory gpu.Context that records what it is
// asked to do, for tests that must run without a GL context.
package gputest

import (
	"fmt"
	"image"
	"image/color"

	"deferred-renderer/core"
	"deferred-renderer/gpu"
	"deferred-renderer/math"
)

// Context is a recording fake. Zero configuration succeeds everywhere;
// set the Fail* fields to inject errors.
type Context struct {
	// FailProgram maps a program name to the error NewProgram returns.
	FailProgram map[string]error
	// FailTargets makes NewRenderTargetSet fail.
	FailTargets error
	// FailMesh makes NewMesh fail.
	FailMesh error
	// Missing lists uniform names that setters report as unbound.
	Missing map[string]bool
	// DrawErr is returned by every Program.Draw.
	DrawErr error
	// Pixels is returned by ReadPixels, cropped to the region.
	Pixels *image.RGBA

	Programs map[string]*Program
	Targets  []*Targets
	Meshes   []*Mesh
	Textures []*Texture
	Deleted  map[uint32]bool
	States   []gpu.State
	Draws    []Draw

	ScreenFB *Framebuffer
	nextID   uint32
	bound    gpu.Framebuffer
}

// Draw records one Program.Draw call and the uniforms set at that moment.
type Draw struct {
	Program  string
	Mesh     *Mesh
	State    gpu.State
	Uniforms map[string]any
	Target   gpu.Framebuffer
}

func New() *Context {
	c := &Context{
		Programs: make(map[string]*Program),
		Deleted:  make(map[uint32]bool),
	}
	c.ScreenFB = &Framebuffer{ctx: c, W: 800, H: 600}
	return c
}

func (c *Context) id() uint32 {
	c.nextID++
	return c.nextID
}

func (c *Context) NewProgram(name string) (gpu.Program, error) {
	if err := c.FailProgram[name]; err != nil {
		return nil, fmt.Errorf("%w: %w", gpu.ErrShaderCompile, err)
	}
	if p, ok := c.Programs[name]; ok {
		return p, nil
	}
	p := &Program{ctx: c, name: name, ID: c.id(), Uniforms: make(map[string]any)}
	c.Programs[name] = p
	return p, nil
}

func (c *Context) NewMesh(data core.MeshData) (gpu.Mesh, error) {
	if c.FailMesh != nil {
		return nil, fmt.Errorf("%w: %w", gpu.ErrResourceAllocation, c.FailMesh)
	}
	if len(data.Vertices) == 0 {
		return nil, fmt.Errorf("%w: mesh has no vertices", gpu.ErrResourceAllocation)
	}
	m := &Mesh{ID: c.id(), Data: data}
	c.Meshes = append(c.Meshes, m)
	return m, nil
}

func (c *Context) NewTexture(img *image.RGBA) (gpu.Texture, error) {
	if img == nil || img.Rect.Empty() {
		return nil, fmt.Errorf("%w: empty image", gpu.ErrResourceAllocation)
	}
	t := &Texture{id: c.id(), w: img.Rect.Dx(), h: img.Rect.Dy(), Image: img}
	c.Textures = append(c.Textures, t)
	return t, nil
}

func (c *Context) DeleteTexture(t gpu.Texture) {
	if t != nil {
		c.Deleted[t.ID()] = true
	}
}

func (c *Context) NewRenderTargetSet(width, height int, colors []gpu.Format) (gpu.RenderTargetSet, error) {
	if c.FailTargets != nil {
		return nil, fmt.Errorf("%w: %w", gpu.ErrResourceAllocation, c.FailTargets)
	}
	if width <= 0 || height <= 0 || len(colors) == 0 {
		return nil, fmt.Errorf("%w: invalid target %dx%d with %d colors", gpu.ErrResourceAllocation, width, height, len(colors))
	}
	t := &Targets{Framebuffer: Framebuffer{ctx: c, W: width, H: height}, Formats: colors}
	for range colors {
		t.colors = append(t.colors, &Texture{id: c.id(), w: width, h: height})
	}
	t.depth = &Texture{id: c.id(), w: width, h: height}
	c.Targets = append(c.Targets, t)
	return t, nil
}

func (c *Context) Screen() gpu.Framebuffer { return c.ScreenFB }

func (c *Context) SetState(s gpu.State) {
	c.States = append(c.States, s)
}

// State returns the most recently set state.
func (c *Context) State() gpu.State {
	if len(c.States) == 0 {
		return gpu.State{}
	}
	return c.States[len(c.States)-1]
}

func (c *Context) ReadPixels(x, y, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid read region", gpu.ErrResourceAllocation)
	}
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			var px color.RGBA
			if c.Pixels != nil {
				px = c.Pixels.RGBAAt(x+i, y+j)
			}
			out.SetRGBA(i, j, px)
		}
	}
	return out, nil
}

// DrawsOf returns the recorded draws of one program.
func (c *Context) DrawsOf(program string) []Draw {
	var out []Draw
	for _, d := range c.Draws {
		if d.Program == program {
			out = append(out, d)
		}
	}
	return out
}

// Bound is the framebuffer most recently bound.
func (c *Context) Bound() gpu.Framebuffer { return c.bound }

var _ gpu.Context = (*Context)(nil)

// ── Resources ─────────────────────────────────────────────────────────────────

type Texture struct {
	id    uint32
	w, h  int
	Image *image.RGBA
}

func (t *Texture) ID() uint32  { return t.id }
func (t *Texture) Width() int  { return t.w }
func (t *Texture) Height() int { return t.h }

type Mesh struct {
	ID      uint32
	Data    core.MeshData
	Deleted bool
}

func (m *Mesh) VertexCount() int { return len(m.Data.Vertices) }
func (m *Mesh) Delete()          { m.Deleted = true }

type Framebuffer struct {
	ctx    *Context
	W, H   int
	Binds  int
	Clears []core.Color
}

func (f *Framebuffer) Bind() {
	f.Binds++
	f.ctx.bound = f
}

func (f *Framebuffer) Clear(col core.Color) {
	f.Bind()
	f.Clears = append(f.Clears, col)
}

func (f *Framebuffer) Size() (int, int) { return f.W, f.H }

type Targets struct {
	Framebuffer
	Formats []gpu.Format
	colors  []*Texture
	depth   *Texture
	Deleted bool
}

func (t *Targets) Bind() {
	t.Binds++
	t.ctx.bound = t
}

func (t *Targets) Clear(col core.Color) {
	t.Bind()
	t.Clears = append(t.Clears, col)
}

func (t *Targets) ColorCount() int { return len(t.colors) }

func (t *Targets) Color(i int) gpu.Texture {
	if i < 0 || i >= len(t.colors) {
		return nil
	}
	return t.colors[i]
}

func (t *Targets) Depth() gpu.Texture { return t.depth }

func (t *Targets) Delete() {
	t.Deleted = true
	for _, tex := range t.colors {
		t.ctx.Deleted[tex.id] = true
	}
	t.ctx.Deleted[t.depth.id] = true
}

// ── Program ───────────────────────────────────────────────────────────────────

type Program struct {
	ctx      *Context
	name     string
	ID       uint32
	Uniforms map[string]any
	Deleted  bool
}

func (p *Program) Name() string { return p.name }
func (p *Program) Use()         {}

func (p *Program) set(name string, v any) error {
	if p.ctx.Missing[name] {
		return fmt.Errorf("%w: uniform %q not found in program %q", gpu.ErrBinding, name, p.name)
	}
	p.Uniforms[name] = v
	return nil
}

func (p *Program) SetInt(name string, v int32) error      { return p.set(name, v) }
func (p *Program) SetFloat(name string, v float32) error  { return p.set(name, v) }
func (p *Program) SetVec3(name string, v math.Vec3) error { return p.set(name, v) }
func (p *Program) SetVec4(name string, v math.Vec4) error { return p.set(name, v) }
func (p *Program) SetMat4(name string, m math.Mat4) error { return p.set(name, m) }

func (p *Program) SetVec3Array(name string, v []math.Vec3) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty array for %q", gpu.ErrBinding, name)
	}
	return p.set(name, append([]math.Vec3(nil), v...))
}

// UseTexture records the bound texture under the sampler name.
func (p *Program) UseTexture(name string, unit int, t gpu.Texture) error {
	if t == nil {
		return fmt.Errorf("%w: nil texture for sampler %q", gpu.ErrBinding, name)
	}
	if p.ctx.Deleted[t.ID()] {
		return fmt.Errorf("%w: texture %d was deleted", gpu.ErrBinding, t.ID())
	}
	return p.set(name, t)
}

func (p *Program) Draw(m gpu.Mesh) error {
	if p.ctx.DrawErr != nil {
		return fmt.Errorf("%w: %w", gpu.ErrDraw, p.ctx.DrawErr)
	}
	mesh, ok := m.(*Mesh)
	if !ok || mesh.Deleted {
		return fmt.Errorf("%w: unknown or deleted mesh", gpu.ErrDraw)
	}
	uniforms := make(map[string]any, len(p.Uniforms))
	for k, v := range p.Uniforms {
		uniforms[k] = v
	}
	p.ctx.Draws = append(p.ctx.Draws, Draw{
		Program:  p.name,
		Mesh:     mesh,
		State:    p.ctx.State(),
		Uniforms: uniforms,
		Target:   p.ctx.bound,
	})
	return nil
}

func (p *Program) Delete() {
	p.Deleted = true
	delete(p.ctx.Programs, p.name)
}
