package scene

import (
	stdmath "math"

	"deferred-renderer/core"
	"deferred-renderer/gpu"
	"deferred-renderer/math"
)

// Attenuation scales light by 1 / (Constant + Linear*d + Exponential*d²).
type Attenuation struct {
	Constant    float32
	Linear      float32
	Exponential float32
}

// DefaultAttenuation falls to about a tenth of full strength at 30 units.
var DefaultAttenuation = Attenuation{Constant: 0.5, Linear: 0.05, Exponential: 0.005}

// At returns the attenuation factor at distance d.
func (a Attenuation) At(d float32) float32 {
	denom := a.Constant + a.Linear*d + a.Exponential*d*d
	if denom <= 0 {
		return 1
	}
	return 1 / denom
}

func (a Attenuation) contribute(p gpu.Program) error {
	if err := p.SetFloat("attenuationConstant", a.Constant); err != nil {
		return err
	}
	if err := p.SetFloat("attenuationLinear", a.Linear); err != nil {
		return err
	}
	return p.SetFloat("attenuationExponential", a.Exponential)
}

// ── Ambient ───────────────────────────────────────────────────────────────────

// AmbientLight lights every covered pixel uniformly.
type AmbientLight struct {
	Color     core.Color
	Intensity float32
}

func NewAmbientLight(color core.Color, intensity float32) *AmbientLight {
	return &AmbientLight{Color: color, Intensity: intensity}
}

// Contribute sets ambientColor and ambientIntensity.
func (l *AmbientLight) Contribute(p gpu.Program) error {
	if err := p.SetVec3("ambientColor", l.Color.RGB()); err != nil {
		return err
	}
	return p.SetFloat("ambientIntensity", l.Intensity)
}

// ── Directional ───────────────────────────────────────────────────────────────

// DirectionalLight is infinitely far away. Direction points from the light
// into the scene.
type DirectionalLight struct {
	Color     core.Color
	Intensity float32
	Direction math.Vec3
}

func NewDirectionalLight(color core.Color, intensity float32, direction math.Vec3) *DirectionalLight {
	return &DirectionalLight{Color: color, Intensity: intensity, Direction: direction.Normalize()}
}

func (l *DirectionalLight) Contribute(p gpu.Program) error {
	if err := p.SetVec3("lightColor", l.Color.RGB()); err != nil {
		return err
	}
	if err := p.SetFloat("lightIntensity", l.Intensity); err != nil {
		return err
	}
	return p.SetVec3("lightDirection", l.Direction.Normalize())
}

// ── Point ─────────────────────────────────────────────────────────────────────

type PointLight struct {
	Color       core.Color
	Intensity   float32
	Position    math.Vec3
	Attenuation Attenuation
}

func NewPointLight(color core.Color, intensity float32, position math.Vec3) *PointLight {
	return &PointLight{Color: color, Intensity: intensity, Position: position, Attenuation: DefaultAttenuation}
}

func (l *PointLight) Contribute(p gpu.Program) error {
	if err := p.SetVec3("lightColor", l.Color.RGB()); err != nil {
		return err
	}
	if err := p.SetFloat("lightIntensity", l.Intensity); err != nil {
		return err
	}
	if err := p.SetVec3("lightPosition", l.Position); err != nil {
		return err
	}
	return l.Attenuation.contribute(p)
}

// ── Spot ──────────────────────────────────────────────────────────────────────

// SpotLight is a point light restricted to a cone. Cutoff is the cone
// half-angle in radians.
type SpotLight struct {
	Color       core.Color
	Intensity   float32
	Position    math.Vec3
	Direction   math.Vec3
	Cutoff      float32
	Attenuation Attenuation
}

func NewSpotLight(color core.Color, intensity float32, position, direction math.Vec3, cutoff float32) *SpotLight {
	return &SpotLight{
		Color:       color,
		Intensity:   intensity,
		Position:    position,
		Direction:   direction.Normalize(),
		Cutoff:      cutoff,
		Attenuation: DefaultAttenuation,
	}
}

// Contribute sends the cutoff as a cosine so the shader compares it with a
// dot product directly.
func (l *SpotLight) Contribute(p gpu.Program) error {
	if err := p.SetVec3("lightColor", l.Color.RGB()); err != nil {
		return err
	}
	if err := p.SetFloat("lightIntensity", l.Intensity); err != nil {
		return err
	}
	if err := p.SetVec3("lightPosition", l.Position); err != nil {
		return err
	}
	if err := p.SetVec3("lightDirection", l.Direction.Normalize()); err != nil {
		return err
	}
	if err := p.SetFloat("cutoff", float32(stdmath.Cos(float64(l.Cutoff)))); err != nil {
		return err
	}
	return l.Attenuation.contribute(p)
}
