package effects

import (
	"fmt"
	"image"
	"image/color"
	"slices"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"deferred-renderer/gpu"
	"deferred-renderer/math"
	"deferred-renderer/pipeline"
	"deferred-renderer/scene"
)

const (
	overlayPadding = 6
	overlayLeading = 2
)

var overlayBackground = color.RGBA{A: 160}

// Overlay draws lines of text in a panel anchored to the top-left corner.
// The text is rasterized on the CPU and re-uploaded only when it changes.
type Overlay struct {
	screenPass

	TextColor color.Color
	Opacity   float32
	Margin    int // pixels between the panel and the frame edge

	lines   []string
	dirty   bool
	texture gpu.Texture
}

func NewOverlay(ctx gpu.Context) (*Overlay, error) {
	pass, err := newScreenPass(ctx, "overlay", gpu.ScreenQuad())
	if err != nil {
		return nil, err
	}
	return &Overlay{
		screenPass: pass,
		TextColor:  color.White,
		Opacity:    1,
		Margin:     10,
	}, nil
}

// SetText replaces the displayed lines.
func (o *Overlay) SetText(lines ...string) {
	if slices.Equal(lines, o.lines) {
		return
	}
	o.lines = slices.Clone(lines)
	o.dirty = true
}

func (o *Overlay) Lines() []string {
	return o.lines
}

// Apply uses only the output size; the overlay samples no pipeline texture.
func (o *Overlay) Apply(_ *scene.Camera, in pipeline.Outputs) error {
	if len(o.lines) == 0 || in.Width <= 0 || in.Height <= 0 {
		return nil
	}
	if o.dirty || o.texture == nil {
		if err := o.upload(); err != nil {
			return err
		}
	}
	p := o.program
	if err := p.UseTexture("overlayMap", 0, o.texture); err != nil {
		return fmt.Errorf("%s effect: %w", o.name, err)
	}
	rect := o.rect(in.Width, in.Height)
	err := o.uniforms(
		func() error { return p.SetVec4("rect", rect) },
		func() error { return p.SetFloat("opacity", math.Clamp(o.Opacity, 0, 1)) },
	)
	if err != nil {
		return err
	}
	return o.draw()
}

func (o *Overlay) upload() error {
	img := RenderText(o.lines, o.TextColor)
	tex, err := o.ctx.NewTexture(img)
	if err != nil {
		return fmt.Errorf("%s effect: %w", o.name, err)
	}
	if o.texture != nil {
		o.ctx.DeleteTexture(o.texture)
	}
	o.texture = tex
	o.dirty = false
	return nil
}

// rect places the panel in NDC as (x0, y0, x1, y1), bottom-left to
// top-right, at its pixel size.
func (o *Overlay) rect(width, height int) math.Vec4 {
	w, h := float32(o.texture.Width()), float32(o.texture.Height())
	fw, fh := float32(width), float32(height)
	m := float32(o.Margin)
	x0 := -1 + 2*m/fw
	y1 := 1 - 2*m/fh
	return math.Vec4{X: x0, Y: y1 - 2*h/fh, Z: x0 + 2*w/fw, W: y1}
}

// Delete frees the mesh and the text texture.
func (o *Overlay) Delete() {
	if o.texture != nil {
		o.ctx.DeleteTexture(o.texture)
		o.texture = nil
	}
	o.screenPass.Delete()
}

// RenderText rasterizes lines with the 7x13 bitmap font onto a translucent
// dark panel sized to fit them. The pixels hold straight, not premultiplied,
// alpha to match the SRC_ALPHA blend of the overlay pass.
func RenderText(lines []string, fg color.Color) *image.RGBA {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil() + overlayLeading

	width := 0
	for _, l := range lines {
		width = max(width, font.MeasureString(face, l).Ceil())
	}
	w := width + 2*overlayPadding
	h := max(len(lines)*lineHeight-overlayLeading, 0) + 2*overlayPadding

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(overlayBackground), image.Point{}, xdraw.Src)

	d := font.Drawer{Dst: img, Src: image.NewUniform(fg), Face: face}
	for i, l := range lines {
		d.Dot = fixed.P(overlayPadding, overlayPadding+i*lineHeight+metrics.Ascent.Ceil())
		d.DrawString(l)
	}
	return &image.RGBA{Pix: img.Pix, Stride: img.Stride, Rect: img.Rect}
}
