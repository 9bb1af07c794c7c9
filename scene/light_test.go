package scene

import (
	"errors"
	stdmath "math"
	"testing"

	"deferred-renderer/core"
	"deferred-renderer/gpu"
	"deferred-renderer/internal/gputest"
	"deferred-renderer/math"
)

func program(t *testing.T, ctx *gputest.Context, name string) *gputest.Program {
	t.Helper()
	p, err := ctx.NewProgram(name)
	if err != nil {
		t.Fatalf("NewProgram(%q): %v", name, err)
	}
	return p.(*gputest.Program)
}

func TestAmbientContribute(t *testing.T) {
	ctx := gputest.New()
	p := program(t, ctx, "ambient")
	l := NewAmbientLight(core.Color{R: 1, G: 0.5, B: 0.25, A: 1}, 0.7)
	if err := l.Contribute(p); err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	if got := p.Uniforms["ambientColor"]; got != (math.Vec3{X: 1, Y: 0.5, Z: 0.25}) {
		t.Errorf("ambientColor = %v", got)
	}
	if got := p.Uniforms["ambientIntensity"]; got != float32(0.7) {
		t.Errorf("ambientIntensity = %v", got)
	}
}

func TestDirectionalContributeNormalizes(t *testing.T) {
	ctx := gputest.New()
	p := program(t, ctx, "directional")
	l := &DirectionalLight{Color: core.ColorWhite, Intensity: 1, Direction: math.Vec3{Y: -4}}
	if err := l.Contribute(p); err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	if got := p.Uniforms["lightDirection"]; got != (math.Vec3{Y: -1}) {
		t.Errorf("lightDirection = %v, want unit -Y", got)
	}
}

func TestPointContributeAttenuation(t *testing.T) {
	ctx := gputest.New()
	p := program(t, ctx, "point")
	l := NewPointLight(core.ColorWhite, 2, math.Vec3{X: 1, Y: 2, Z: 3})
	if err := l.Contribute(p); err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	want := map[string]any{
		"lightPosition":          math.Vec3{X: 1, Y: 2, Z: 3},
		"lightIntensity":         float32(2),
		"attenuationConstant":    DefaultAttenuation.Constant,
		"attenuationLinear":      DefaultAttenuation.Linear,
		"attenuationExponential": DefaultAttenuation.Exponential,
	}
	for name, v := range want {
		if got := p.Uniforms[name]; got != v {
			t.Errorf("%s = %v, want %v", name, got, v)
		}
	}
}

func TestSpotContributeSendsCosine(t *testing.T) {
	ctx := gputest.New()
	p := program(t, ctx, "spot")
	l := NewSpotLight(core.ColorWhite, 1, math.Vec3{Y: 5}, math.Vec3{Y: -1}, float32(stdmath.Pi/3))
	if err := l.Contribute(p); err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	got, _ := p.Uniforms["cutoff"].(float32)
	if !near(got, 0.5) {
		t.Errorf("cutoff = %v, want cos(60°) = 0.5", got)
	}
}

func TestContributeMissingUniform(t *testing.T) {
	ctx := gputest.New()
	ctx.Missing = map[string]bool{"lightIntensity": true}
	p := program(t, ctx, "point")
	err := NewPointLight(core.ColorWhite, 1, math.Vec3Zero).Contribute(p)
	if !errors.Is(err, gpu.ErrBinding) {
		t.Errorf("err = %v, want ErrBinding", err)
	}
}

func TestAttenuationAt(t *testing.T) {
	a := Attenuation{Constant: 1, Linear: 0, Exponential: 1}
	if got := a.At(0); got != 1 {
		t.Errorf("At(0) = %v", got)
	}
	if got := a.At(3); !near(got, 0.1) {
		t.Errorf("At(3) = %v, want 0.1", got)
	}
	prev := DefaultAttenuation.At(0)
	for d := float32(1); d < 100; d *= 2 {
		cur := DefaultAttenuation.At(d)
		if cur > prev {
			t.Fatalf("attenuation grows at %v", d)
		}
		prev = cur
	}
	if got := (Attenuation{}).At(5); got != 1 {
		t.Errorf("zero attenuation At(5) = %v, want 1", got)
	}
}
