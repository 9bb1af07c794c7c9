package opengl

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"deferred-renderer/gpu"
	"deferred-renderer/internal/logger"
	"deferred-renderer/math"
	"deferred-renderer/shaders"
)

// Program is a linked GL program with a uniform location cache.
type Program struct {
	ctx       *Context
	id        uint32
	name      string
	locations map[string]int32
}

// NewProgram returns the program registered under name, compiling it on
// first use. Programs are shared per context; Delete only when no user of
// the name remains.
func (c *Context) NewProgram(name string) (gpu.Program, error) {
	if p, ok := c.programs[name]; ok {
		return p, nil
	}

	vert, frag, err := shaders.Load(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gpu.ErrShaderCompile, err)
	}
	id, err := newProgram(vert, frag)
	if err != nil {
		return nil, fmt.Errorf("%w: program %q: %w", gpu.ErrShaderCompile, name, err)
	}

	p := &Program{ctx: c, id: id, name: name, locations: make(map[string]int32)}
	c.programs[name] = p
	logger.Log.Debug("shader program linked", zap.String("program", name), zap.Uint32("id", id))
	return p, nil
}

func (p *Program) Name() string { return p.name }

func (p *Program) Use() {
	if p.ctx.current != p.id {
		gl.UseProgram(p.id)
		p.ctx.current = p.id
	}
}

func (p *Program) location(name string) (int32, error) {
	if loc, ok := p.locations[name]; ok {
		return loc, nil
	}
	loc := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	if loc < 0 {
		return -1, fmt.Errorf("%w: uniform %q not found in program %q", gpu.ErrBinding, name, p.name)
	}
	p.locations[name] = loc
	return loc, nil
}

func (p *Program) SetInt(name string, v int32) error {
	loc, err := p.location(name)
	if err != nil {
		return err
	}
	p.Use()
	gl.Uniform1i(loc, v)
	return nil
}

func (p *Program) SetFloat(name string, v float32) error {
	loc, err := p.location(name)
	if err != nil {
		return err
	}
	p.Use()
	gl.Uniform1f(loc, v)
	return nil
}

func (p *Program) SetVec3(name string, v math.Vec3) error {
	loc, err := p.location(name)
	if err != nil {
		return err
	}
	p.Use()
	gl.Uniform3f(loc, v.X, v.Y, v.Z)
	return nil
}

func (p *Program) SetVec4(name string, v math.Vec4) error {
	loc, err := p.location(name)
	if err != nil {
		return err
	}
	p.Use()
	gl.Uniform4f(loc, v.X, v.Y, v.Z, v.W)
	return nil
}

func (p *Program) SetVec3Array(name string, v []math.Vec3) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty array for %q", gpu.ErrBinding, name)
	}
	loc, err := p.location(name)
	if err != nil {
		return err
	}
	p.Use()
	gl.Uniform3fv(loc, int32(len(v)), &v[0].X)
	return nil
}

// SetMat4 uploads m untransposed; see math.Mat4 for the layout.
func (p *Program) SetMat4(name string, m math.Mat4) error {
	loc, err := p.location(name)
	if err != nil {
		return err
	}
	p.Use()
	gl.UniformMatrix4fv(loc, 1, false, &m[0][0])
	return nil
}

func (p *Program) UseTexture(name string, unit int, t gpu.Texture) error {
	if t == nil {
		return fmt.Errorf("%w: nil texture for sampler %q", gpu.ErrBinding, name)
	}
	if unit < 0 || unit >= p.ctx.maxTextureUnits {
		return fmt.Errorf("%w: texture unit %d out of range for %q", gpu.ErrBinding, unit, name)
	}
	loc, err := p.location(name)
	if err != nil {
		return err
	}
	p.Use()
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, t.ID())
	gl.Uniform1i(loc, int32(unit))
	return nil
}

func (p *Program) Draw(m gpu.Mesh) error {
	mesh, ok := m.(*Mesh)
	if !ok || mesh == nil || mesh.vao == 0 {
		return fmt.Errorf("%w: mesh was not created by this context", gpu.ErrDraw)
	}
	p.Use()
	drainErrors()

	gl.BindVertexArray(mesh.vao)
	if mesh.indexCount > 0 {
		gl.DrawElements(gl.TRIANGLES, mesh.indexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, mesh.vertexCount)
	}
	gl.BindVertexArray(0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%w: program %q: GL error 0x%X", gpu.ErrDraw, p.name, code)
	}
	return nil
}

func (p *Program) Delete() {
	if p.id == 0 {
		return
	}
	if p.ctx.current == p.id {
		gl.UseProgram(0)
		p.ctx.current = 0
	}
	gl.DeleteProgram(p.id)
	delete(p.ctx.programs, p.name)
	p.id = 0
}

// ── Shader helpers ────────────────────────────────────────────────────────────

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link failed: %s", strings.TrimRight(log, "\x00"))
	}
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %s", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

// drainErrors clears errors left by earlier calls so the next check only
// reports the draw that follows.
func drainErrors() {
	for i := 0; i < 16 && gl.GetError() != gl.NO_ERROR; i++ {
	}
}
