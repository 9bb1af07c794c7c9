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

// Texture is a GL 2D texture.
type Texture struct {
	id            uint32
	width, height int
}

func (t *Texture) ID() uint32  { return t.id }
func (t *Texture) Width() int  { return t.width }
func (t *Texture) Height() int { return t.height }

// RenderTargetSet is an FBO with several color attachments and a sampleable
// DEPTH_COMPONENT32F attachment.
type RenderTargetSet struct {
	fbo    uint32
	colors []*Texture
	depth  *Texture
	width  int
	height int
}

type texFormat struct {
	internal int32
	format   uint32
	xtype    uint32
}

var formats = map[gpu.Format]texFormat{
	gpu.FormatRGBA8:   {gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE},
	gpu.FormatRGBA16F: {gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT},
	gpu.FormatRGBA32F: {gl.RGBA32F, gl.RGBA, gl.FLOAT},
}

// NewRenderTargetSet allocates all attachments or, on any failure, none.
func (c *Context) NewRenderTargetSet(width, height int, colors []gpu.Format) (gpu.RenderTargetSet, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid target size %dx%d", gpu.ErrResourceAllocation, width, height)
	}
	if len(colors) == 0 || len(colors) > c.maxColorAttachments {
		return nil, fmt.Errorf("%w: %d color attachments requested, %d supported",
			gpu.ErrResourceAllocation, len(colors), c.maxColorAttachments)
	}

	drainErrors()
	t := &RenderTargetSet{width: width, height: height}

	for i, f := range colors {
		tf, ok := formats[f]
		if !ok {
			t.Delete()
			return nil, fmt.Errorf("%w: unsupported format %v for attachment %d", gpu.ErrResourceAllocation, f, i)
		}
		t.colors = append(t.colors, allocTexture(width, height, tf.internal, tf.format, tf.xtype))
	}
	t.depth = allocTexture(width, height, gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT)

	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	buffers := make([]uint32, len(t.colors))
	for i, tex := range t.colors {
		attachment := gl.COLOR_ATTACHMENT0 + uint32(i)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, attachment, gl.TEXTURE_2D, tex.id, 0)
		buffers[i] = attachment
	}
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, t.depth.id, 0)
	gl.DrawBuffers(int32(len(buffers)), &buffers[0])

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		t.Delete()
		return nil, fmt.Errorf("%w: framebuffer incomplete (0x%X)", gpu.ErrResourceAllocation, status)
	}
	if code := gl.GetError(); code != gl.NO_ERROR {
		t.Delete()
		return nil, fmt.Errorf("%w: GL error 0x%X", gpu.ErrResourceAllocation, code)
	}

	logger.Log.Debug("render target set allocated",
		zap.Int("width", width), zap.Int("height", height), zap.Int("colors", len(colors)))
	return t, nil
}

func allocTexture(width, height int, internal int32, format, xtype uint32) *Texture {
	t := &Texture{width: width, height: height}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(width), int32(height), 0, format, xtype, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return t
}

func (t *RenderTargetSet) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.Viewport(0, 0, int32(t.width), int32(t.height))
}

func (t *RenderTargetSet) Clear(col core.Color) {
	t.Bind()
	clearBound(col)
}

func (t *RenderTargetSet) Size() (int, int) { return t.width, t.height }
func (t *RenderTargetSet) ColorCount() int  { return len(t.colors) }
func (t *RenderTargetSet) Depth() gpu.Texture {
	return t.depth
}

func (t *RenderTargetSet) Color(i int) gpu.Texture {
	if i < 0 || i >= len(t.colors) {
		return nil
	}
	return t.colors[i]
}

func (t *RenderTargetSet) Delete() {
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
		t.fbo = 0
	}
	for _, tex := range t.colors {
		deleteTexture(tex)
	}
	t.colors = nil
	if t.depth != nil {
		deleteTexture(t.depth)
		t.depth = nil
	}
}

// ── Sampled textures ──────────────────────────────────────────────────────────

// NewTexture uploads img as a mipmapped RGBA8 texture. Row 0 of the image
// lands at t = 0.
func (c *Context) NewTexture(img *image.RGBA) (gpu.Texture, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", gpu.ErrResourceAllocation)
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty image", gpu.ErrResourceAllocation)
	}

	pix := img.Pix
	if img.Stride != w*4 || img.Rect.Min != (image.Point{}) {
		tight := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			copy(tight.Pix[y*tight.Stride:(y+1)*tight.Stride], img.Pix[img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y):])
		}
		pix = tight.Pix
	}

	drainErrors()
	t := &Texture{width: w, height: h}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		deleteTexture(t)
		return nil, fmt.Errorf("%w: texture upload: GL error 0x%X", gpu.ErrResourceAllocation, code)
	}
	return t, nil
}

func (c *Context) DeleteTexture(t gpu.Texture) {
	if tex, ok := t.(*Texture); ok {
		deleteTexture(tex)
	}
}

func deleteTexture(t *Texture) {
	if t != nil && t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}
