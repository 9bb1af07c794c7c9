// Package opengl implements gpu.Context on an OpenGL 4.1 core context.
package opengl

import (
	"fmt"
	"image"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"deferred-renderer/core"
	"deferred-renderer/gpu"
	"deferred-renderer/internal/logger"
)

// Context is the OpenGL gpu.Context. It must be created and used on the
// thread whose GL context is current.
type Context struct {
	programs map[string]*Program
	current  uint32 // program bound with glUseProgram

	screen *screen

	maxTextureUnits     int
	maxColorAttachments int

	Version  string
	Renderer string
}

// NewContext loads GL entry points for the current context. screenSize
// reports the default framebuffer size in pixels, normally
// (*core.Window).FramebufferSize.
func NewContext(screenSize func() (int, int)) (*Context, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("%w: OpenGL init: %w", gpu.ErrResourceAllocation, err)
	}

	c := &Context{
		programs: make(map[string]*Program),
		screen:   &screen{size: screenSize},
		Version:  gl.GoStr(gl.GetString(gl.VERSION)),
		Renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
	}

	var units, attachments int32
	gl.GetIntegerv(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS, &units)
	gl.GetIntegerv(gl.MAX_COLOR_ATTACHMENTS, &attachments)
	c.maxTextureUnits = int(units)
	c.maxColorAttachments = int(attachments)

	logger.Log.Info("OpenGL context ready",
		zap.String("version", c.Version),
		zap.String("renderer", c.Renderer),
		zap.Int("textureUnits", c.maxTextureUnits),
		zap.Int("colorAttachments", c.maxColorAttachments))
	return c, nil
}

func (c *Context) Screen() gpu.Framebuffer {
	return c.screen
}

func (c *Context) SetState(s gpu.State) {
	gl.DepthMask(s.DepthWrite)

	switch s.DepthTest {
	case gpu.DepthTestNone:
		gl.Disable(gl.DEPTH_TEST)
	case gpu.DepthTestLess:
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)
	case gpu.DepthTestLessOrEqual:
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LEQUAL)
	case gpu.DepthTestAlways:
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.ALWAYS)
	}

	switch s.Cull {
	case gpu.CullNone:
		gl.Disable(gl.CULL_FACE)
	case gpu.CullBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	case gpu.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	}

	switch s.Blend {
	case gpu.BlendNone:
		gl.Disable(gl.BLEND)
	case gpu.BlendAlpha:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	case gpu.BlendAdditive:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.ONE, gl.ONE)
	}
}

// ReadPixels reads an RGBA8 region of the bound framebuffer. x and y are in
// GL window coordinates (origin bottom-left); the returned image has row 0
// at the top of the region.
func (c *Context) ReadPixels(x, y, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid read region %dx%d", gpu.ErrResourceAllocation, width, height)
	}

	buf := make([]byte, width*height*4)
	drainErrors()
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(int32(x), int32(y), int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(buf))
	if code := gl.GetError(); code != gl.NO_ERROR {
		return nil, fmt.Errorf("read pixels: GL error 0x%X", code)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	row := width * 4
	for r := 0; r < height; r++ {
		src := buf[(height-1-r)*row : (height-r)*row]
		copy(img.Pix[r*img.Stride:r*img.Stride+row], src)
	}
	return img, nil
}

// Destroy deletes every program still cached by the context.
func (c *Context) Destroy() {
	for _, p := range c.programs {
		p.Delete()
	}
}

// ── Default framebuffer ───────────────────────────────────────────────────────

type screen struct {
	size func() (int, int)
}

func (s *screen) Size() (int, int) {
	return s.size()
}

func (s *screen) Bind() {
	w, h := s.size()
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(w), int32(h))
}

func (s *screen) Clear(col core.Color) {
	s.Bind()
	clearBound(col)
}

// clearBound fills the bound framebuffer's color attachments and depth.
func clearBound(col core.Color) {
	gl.ColorMask(true, true, true, true)
	gl.DepthMask(true)
	gl.ClearColor(col.R, col.G, col.B, col.A)
	gl.ClearDepth(1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}
