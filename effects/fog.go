package effects

import (
	stdmath "math"

	"deferred-renderer/core"
	"deferred-renderer/gpu"
	"deferred-renderer/math"
	"deferred-renderer/pipeline"
	"deferred-renderer/scene"
)

// swirl weights the view direction in the animated density ripple. It must
// match the constant in fog.frag.
var swirl = math.Vec3{X: 1.3, Y: 0.7, Z: 2.1}

// Fog blends an exponential distance fog over the frame, reconstructing
// world positions from the pipeline depth texture.
type Fog struct {
	screenPass

	Color     core.Color
	Density   float32
	Animation float32 // relative density ripple, 0 disables it
	Paused    bool

	time float64
}

func NewFog(ctx gpu.Context) (*Fog, error) {
	pass, err := newScreenPass(ctx, "fog", gpu.FullScreenTriangle())
	if err != nil {
		return nil, err
	}
	return &Fog{
		screenPass: pass,
		Color:      core.ColorGrey,
		Density:    0.2,
		Animation:  0.1,
	}, nil
}

// Update advances the animation clock by dt seconds unless paused.
func (f *Fog) Update(dt float64) {
	if f.Paused || dt <= 0 {
		return
	}
	f.time += dt
}

// Time is the animation clock in seconds.
func (f *Fog) Time() float64 {
	return f.time
}

func (f *Fog) Apply(cam *scene.Camera, in pipeline.Outputs) error {
	if err := f.camera(cam); err != nil {
		return err
	}
	if err := f.bind("depthMap", 0, in.Depth); err != nil {
		return err
	}
	p := f.program
	err := f.uniforms(
		func() error { return p.SetMat4("viewProjectionInverse", cam.ViewProjection().Inverse()) },
		func() error { return p.SetVec3("fogColor", f.Color.RGB()) },
		func() error { return p.SetFloat("fogDensity", f.Density) },
		func() error { return p.SetFloat("animation", f.Animation) },
		func() error { return p.SetFloat("time", float32(f.time)) },
		func() error { return p.SetVec3("eyePosition", cam.Position()) },
	)
	if err != nil {
		return err
	}
	return f.draw()
}

// FactorAt is the blend factor the shader produces for a surface at
// distance dist along the unit view direction dir.
func (f *Fog) FactorAt(dir math.Vec3, dist float32) float32 {
	return FogFactor(f.Density, f.Animation, float32(f.time)+dir.Dot(swirl), dist)
}

// FogFactor is 1 - exp(-d * dist) with d = max(0, density * (1 + animation
// * sin(phase))). For a fixed phase it is non-decreasing in dist and stays
// in [0, 1]. Without fog or distance the factor is 0, even for an
// infinite distance.
func FogFactor(density, animation, phase, dist float32) float32 {
	d := density * (1 + animation*float32(stdmath.Sin(float64(phase))))
	if !(d > 0) || !(dist > 0) {
		return 0
	}
	return math.Clamp(1-float32(stdmath.Exp(float64(-d*dist))), 0, 1)
}
