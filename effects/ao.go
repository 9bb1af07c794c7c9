package effects

import (
	"math/rand"

	"deferred-renderer/gpu"
	"deferred-renderer/math"
	"deferred-renderer/pipeline"
	"deferred-renderer/scene"
)

// KernelSize is the sample count compiled into ao.frag.
const KernelSize = 32

// AmbientOcclusion darkens creases by testing a hemisphere of samples around
// each surface point against the geometry buffer positions.
type AmbientOcclusion struct {
	screenPass

	Radius   float32 // hemisphere radius in world units
	Bias     float32 // distance tolerance against self-occlusion
	Strength float32 // 0 disables the darkening, 1 applies it fully
	Enabled  bool

	kernel []math.Vec3
}

func NewAmbientOcclusion(ctx gpu.Context) (*AmbientOcclusion, error) {
	pass, err := newScreenPass(ctx, "ao", gpu.FullScreenTriangle())
	if err != nil {
		return nil, err
	}
	return &AmbientOcclusion{
		screenPass: pass,
		Radius:     0.5,
		Bias:       0.025,
		Strength:   1,
		Enabled:    true,
		kernel:     GenerateKernel(KernelSize, 42),
	}, nil
}

// GenerateKernel returns n sample offsets in the +Z unit hemisphere,
// clustered towards the origin. The same seed yields the same kernel.
func GenerateKernel(n int, seed int64) []math.Vec3 {
	rng := rand.New(rand.NewSource(seed))
	kernel := make([]math.Vec3, n)
	for i := range kernel {
		v := math.Vec3{
			X: rng.Float32()*2 - 1,
			Y: rng.Float32()*2 - 1,
			Z: rng.Float32(),
		}.Normalize()
		v = v.Mul(rng.Float32())

		// lerp(0.1, 1, t²) pulls most samples close to the surface
		t := float32(i) / float32(n)
		kernel[i] = v.Mul(0.1 + 0.9*t*t)
	}
	return kernel
}

func (a *AmbientOcclusion) Apply(cam *scene.Camera, in pipeline.Outputs) error {
	if !a.Enabled || a.Strength <= 0 {
		return nil
	}
	if err := a.camera(cam); err != nil {
		return err
	}
	if err := a.bind("positionMap", 0, in.Position); err != nil {
		return err
	}
	if err := a.bind("normalMap", 1, in.Normal); err != nil {
		return err
	}
	p := a.program
	err := a.uniforms(
		func() error { return p.SetMat4("viewProjection", cam.ViewProjection()) },
		func() error { return p.SetVec3("eyePosition", cam.Position()) },
		func() error { return p.SetVec3Array("kernel", a.kernel) },
		func() error { return p.SetFloat("radius", a.Radius) },
		func() error { return p.SetFloat("bias", a.Bias) },
		func() error { return p.SetFloat("strength", math.Clamp(a.Strength, 0, 1)) },
	)
	if err != nil {
		return err
	}
	return a.draw()
}
