// Package pipeline implements deferred shading: a geometry pass that fills a
// multi-attachment render target set, followed by a light pass that
// composites ambient, directional, point and spot lights into a destination
// framebuffer.
package pipeline

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"deferred-renderer/core"
	"deferred-renderer/gpu"
	"deferred-renderer/internal/logger"
	"deferred-renderer/scene"
)

// ErrPassOrder is returned when a pass or accessor is used before the pass
// it depends on has completed in the current frame.
var ErrPassOrder = errors.New("render pass out of order")

// Attachment indices of the geometry buffer.
const (
	// rgb albedo, a specular intensity
	AttachmentColor = 0
	// rgb world position, a coverage
	AttachmentPosition = 1
	// rgb world normal, a specular power
	AttachmentNormal = 2
)

// Layout is the color attachment list of the geometry buffer.
var Layout = []gpu.Format{gpu.FormatRGBA8, gpu.FormatRGBA32F, gpu.FormatRGBA16F}

// Phase is the pipeline's progress through the current frame.
type Phase int

const (
	NotStarted Phase = iota
	GeometryDone
	LightingDone
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "NotStarted"
	case GeometryDone:
		return "GeometryDone"
	case LightingDone:
		return "LightingDone"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Light pass fixed-function states.
var (
	// The base pass writes every covered pixel and copies G-buffer depth.
	baseState = gpu.State{DepthWrite: true, DepthTest: gpu.DepthTestAlways, Cull: gpu.CullBack, Blend: gpu.BlendNone}
	// Each further light adds onto the base.
	additiveState = gpu.State{DepthWrite: false, DepthTest: gpu.DepthTestNone, Cull: gpu.CullBack, Blend: gpu.BlendAdditive}
)

// Outputs are the pipeline textures of the frame, handed to effects. Every
// reference goes stale at the next geometry pass.
type Outputs struct {
	Color    gpu.TextureRef
	Position gpu.TextureRef
	Normal   gpu.TextureRef
	Depth    gpu.TextureRef

	Width, Height int
}

// DeferredPipeline owns the geometry buffer and the light programs.
type DeferredPipeline struct {
	ctx     gpu.Context
	targets gpu.RenderTargetSet
	width   int
	height  int

	ambient     gpu.Program
	directional gpu.Program
	point       gpu.Program
	spot        gpu.Program
	screen      gpu.Mesh

	gen   gpu.Generation
	phase Phase
}

// New builds the light programs and the full-screen mesh. The geometry
// buffer is allocated lazily by the first GeometryPass.
func New(ctx gpu.Context) (*DeferredPipeline, error) {
	p := &DeferredPipeline{ctx: ctx}
	programs := []struct {
		name string
		dst  *gpu.Program
	}{
		{"ambient", &p.ambient},
		{"directional", &p.directional},
		{"point", &p.point},
		{"spot", &p.spot},
	}
	for _, pr := range programs {
		prog, err := ctx.NewProgram(pr.name)
		if err != nil {
			return nil, fmt.Errorf("deferred pipeline: %w", err)
		}
		*pr.dst = prog
	}
	mesh, err := ctx.NewMesh(gpu.FullScreenTriangle())
	if err != nil {
		return nil, fmt.Errorf("deferred pipeline: %w", err)
	}
	p.screen = mesh
	return p, nil
}

// GeometryPass prepares a width x height geometry buffer, clears it and
// runs draw once with the buffer bound. The buffer is reallocated when the
// size changes. Texture references from earlier passes become stale.
func (p *DeferredPipeline) GeometryPass(width, height int, draw func() error) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: geometry pass size %dx%d", gpu.ErrResourceAllocation, width, height)
	}
	p.phase = NotStarted
	p.gen.Bump()

	if p.targets == nil || width != p.width || height != p.height {
		if err := p.allocate(width, height); err != nil {
			return err
		}
	}

	p.targets.Clear(core.Color{})
	p.ctx.SetState(gpu.GeometryState)
	if draw != nil {
		if err := draw(); err != nil {
			return fmt.Errorf("geometry pass: %w", err)
		}
	}
	p.phase = GeometryDone
	return nil
}

func (p *DeferredPipeline) allocate(width, height int) error {
	if p.targets != nil {
		p.targets.Delete()
		p.targets = nil
	}
	p.width, p.height = 0, 0
	targets, err := p.ctx.NewRenderTargetSet(width, height, Layout)
	if err != nil {
		return fmt.Errorf("geometry buffer: %w", err)
	}
	p.targets = targets
	p.width, p.height = width, height
	logger.Log.Debug("geometry buffer allocated",
		zap.Int("width", width), zap.Int("height", height), zap.Uint64("generation", p.gen.Current()))
	return nil
}

// LightPass shades the geometry buffer into dst, or the screen when dst is
// nil. dst is bound but not cleared: pixels without geometry keep their
// contents. A nil ambient light contributes black and nil lights in the
// slices are skipped.
func (p *DeferredPipeline) LightPass(dst gpu.Framebuffer, cam *scene.Camera, ambient *scene.AmbientLight,
	directional []*scene.DirectionalLight, points []*scene.PointLight, spots []*scene.SpotLight) error {
	if p.phase == NotStarted {
		return fmt.Errorf("%w: light pass requires a geometry pass", ErrPassOrder)
	}
	if cam == nil {
		return fmt.Errorf("%w: light pass without a camera", gpu.ErrBinding)
	}
	if dst == nil {
		dst = p.ctx.Screen()
	}
	dst.Bind()

	if ambient == nil {
		ambient = &scene.AmbientLight{Color: core.ColorBlack}
	}
	p.ctx.SetState(baseState)
	if err := p.bindGBuffer(p.ambient, true); err != nil {
		return fmt.Errorf("ambient light: %w", err)
	}
	if err := ambient.Contribute(p.ambient); err != nil {
		return fmt.Errorf("ambient light: %w", err)
	}
	if err := p.ambient.Draw(p.screen); err != nil {
		return fmt.Errorf("ambient light: %w", err)
	}

	p.ctx.SetState(additiveState)
	for i, l := range directional {
		if l == nil {
			continue
		}
		if err := p.shade(p.directional, cam, l); err != nil {
			return fmt.Errorf("directional light %d: %w", i, err)
		}
	}
	for i, l := range points {
		if l == nil {
			continue
		}
		if err := p.shade(p.point, cam, l); err != nil {
			return fmt.Errorf("point light %d: %w", i, err)
		}
	}
	for i, l := range spots {
		if l == nil {
			continue
		}
		if err := p.shade(p.spot, cam, l); err != nil {
			return fmt.Errorf("spot light %d: %w", i, err)
		}
	}

	p.phase = LightingDone
	return nil
}

// LightScene runs the light pass with the lights of s.
func (p *DeferredPipeline) LightScene(dst gpu.Framebuffer, cam *scene.Camera, s *scene.Scene) error {
	return p.LightPass(dst, cam, s.Ambient, s.Directional, s.Points, s.Spots)
}

type contributor interface {
	Contribute(p gpu.Program) error
}

func (p *DeferredPipeline) shade(prog gpu.Program, cam *scene.Camera, l contributor) error {
	if err := p.bindGBuffer(prog, false); err != nil {
		return err
	}
	if err := prog.SetVec3("eyePosition", cam.Position()); err != nil {
		return err
	}
	if err := l.Contribute(prog); err != nil {
		return err
	}
	return prog.Draw(p.screen)
}

// bindGBuffer points the program's samplers at the geometry buffer. The
// ambient program reads depth instead of normals.
func (p *DeferredPipeline) bindGBuffer(prog gpu.Program, ambient bool) error {
	if err := prog.UseTexture("colorMap", 0, p.targets.Color(AttachmentColor)); err != nil {
		return err
	}
	if err := prog.UseTexture("positionMap", 1, p.targets.Color(AttachmentPosition)); err != nil {
		return err
	}
	if ambient {
		return prog.UseTexture("depthMap", 2, p.targets.Depth())
	}
	return prog.UseTexture("normalMap", 2, p.targets.Color(AttachmentNormal))
}

// ── Texture access ────────────────────────────────────────────────────────────

func (p *DeferredPipeline) ref(t func(gpu.RenderTargetSet) gpu.Texture) gpu.TextureRef {
	if p.targets == nil {
		return gpu.TextureRef{}
	}
	return p.gen.Ref(t(p.targets))
}

// ColorTexture is the albedo attachment of the current geometry buffer.
func (p *DeferredPipeline) ColorTexture() gpu.TextureRef {
	return p.ref(func(t gpu.RenderTargetSet) gpu.Texture { return t.Color(AttachmentColor) })
}

func (p *DeferredPipeline) PositionTexture() gpu.TextureRef {
	return p.ref(func(t gpu.RenderTargetSet) gpu.Texture { return t.Color(AttachmentPosition) })
}

func (p *DeferredPipeline) NormalTexture() gpu.TextureRef {
	return p.ref(func(t gpu.RenderTargetSet) gpu.Texture { return t.Color(AttachmentNormal) })
}

func (p *DeferredPipeline) DepthTexture() gpu.TextureRef {
	return p.ref(func(t gpu.RenderTargetSet) gpu.Texture { return t.Depth() })
}

// Outputs returns the frame's textures for effects. It fails until the
// light pass of the current frame has completed.
func (p *DeferredPipeline) Outputs() (Outputs, error) {
	if p.phase != LightingDone {
		return Outputs{}, fmt.Errorf("%w: outputs requested in phase %v", ErrPassOrder, p.phase)
	}
	return Outputs{
		Color:    p.ColorTexture(),
		Position: p.PositionTexture(),
		Normal:   p.NormalTexture(),
		Depth:    p.DepthTexture(),
		Width:    p.width,
		Height:   p.height,
	}, nil
}

func (p *DeferredPipeline) Phase() Phase {
	return p.phase
}

// Size is the geometry buffer size, or zero before the first pass.
func (p *DeferredPipeline) Size() (int, int) {
	return p.width, p.height
}

// Destroy frees the geometry buffer and the full-screen mesh.
func (p *DeferredPipeline) Destroy() {
	if p.targets != nil {
		p.targets.Delete()
		p.targets = nil
	}
	if p.screen != nil {
		p.screen.Delete()
		p.screen = nil
	}
	p.gen.Bump()
	p.phase = NotStarted
	p.width, p.height = 0, 0
}
