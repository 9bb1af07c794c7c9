// Package effects composites screen-space passes over the output of the
// deferred pipeline. Each effect draws into whatever framebuffer is bound,
// normally the light pass destination, and reads pipeline textures through
// generation-checked references that are only valid for the current frame.
package effects

import (
	"fmt"

	"deferred-renderer/core"
	"deferred-renderer/gpu"
	"deferred-renderer/pipeline"
	"deferred-renderer/scene"
)

// Effect is a screen-space pass applied after lighting.
type Effect interface {
	Apply(cam *scene.Camera, in pipeline.Outputs) error
}

// Apply runs effects in order and stops at the first failure.
func Apply(cam *scene.Camera, in pipeline.Outputs, effects ...Effect) error {
	for _, e := range effects {
		if e == nil {
			continue
		}
		if err := e.Apply(cam, in); err != nil {
			return err
		}
	}
	return nil
}

// screenPass is the program and mesh shared by every effect.
type screenPass struct {
	ctx     gpu.Context
	name    string
	program gpu.Program
	mesh    gpu.Mesh
}

func newScreenPass(ctx gpu.Context, program string, mesh core.MeshData) (screenPass, error) {
	p, err := ctx.NewProgram(program)
	if err != nil {
		return screenPass{}, fmt.Errorf("%s effect: %w", program, err)
	}
	m, err := ctx.NewMesh(mesh)
	if err != nil {
		return screenPass{}, fmt.Errorf("%s effect: %w", program, err)
	}
	return screenPass{ctx: ctx, name: program, program: p, mesh: m}, nil
}

// bind resolves ref and attaches it to the sampler. Stale references fail
// with gpu.ErrStaleTexture before anything is drawn.
func (s *screenPass) bind(sampler string, unit int, ref gpu.TextureRef) error {
	tex, err := ref.Resolve()
	if err != nil {
		return fmt.Errorf("%s effect %s: %w", s.name, sampler, err)
	}
	if err := s.program.UseTexture(sampler, unit, tex); err != nil {
		return fmt.Errorf("%s effect: %w", s.name, err)
	}
	return nil
}

// camera rejects a nil camera with gpu.ErrBinding.
func (s *screenPass) camera(cam *scene.Camera) error {
	if cam == nil {
		return fmt.Errorf("%s effect: %w: nil camera", s.name, gpu.ErrBinding)
	}
	return nil
}

func (s *screenPass) draw() error {
	s.ctx.SetState(gpu.ScreenOverlayState)
	if err := s.program.Draw(s.mesh); err != nil {
		return fmt.Errorf("%s effect: %w", s.name, err)
	}
	return nil
}

// uniforms applies setters in order and wraps the first failure.
func (s *screenPass) uniforms(setters ...func() error) error {
	for _, set := range setters {
		if err := set(); err != nil {
			return fmt.Errorf("%s effect: %w", s.name, err)
		}
	}
	return nil
}

// Delete frees the effect's mesh. Programs are shared through the context.
func (s *screenPass) Delete() {
	if s.mesh != nil {
		s.mesh.Delete()
		s.mesh = nil
	}
}
