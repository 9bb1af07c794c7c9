package effects

import (
	"errors"
	"image/color"
	stdmath "math"
	"strings"
	"testing"

	"deferred-renderer/gpu"
	"deferred-renderer/internal/gputest"
	"deferred-renderer/math"
	"deferred-renderer/pipeline"
	"deferred-renderer/scene"
)

type frame struct {
	ctx *gputest.Context
	p   *pipeline.DeferredPipeline
	cam *scene.Camera
	out pipeline.Outputs
}

// newFrame runs an empty geometry and light pass and returns its outputs.
func newFrame(t *testing.T) *frame {
	t.Helper()
	ctx := gputest.New()
	p, err := pipeline.New(ctx)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	f := &frame{
		ctx: ctx,
		p:   p,
		cam: scene.NewPerspectiveCamera(math.Vec3{Z: 5}, math.Vec3Zero, math.Vec3Up, 0.8, 1, 0.1, 50),
	}
	f.next(t)
	return f
}

func (f *frame) next(t *testing.T) {
	t.Helper()
	if err := f.p.GeometryPass(640, 480, func() error { return nil }); err != nil {
		t.Fatalf("GeometryPass: %v", err)
	}
	if err := f.p.LightPass(nil, f.cam, nil, nil, nil, nil); err != nil {
		t.Fatalf("LightPass: %v", err)
	}
	out, err := f.p.Outputs()
	if err != nil {
		t.Fatalf("Outputs: %v", err)
	}
	f.out = out
	f.ctx.Draws = nil
}

// ── Fog ───────────────────────────────────────────────────────────────────────

func TestFogFactorMonotonicInDistance(t *testing.T) {
	densities := []float32{0, 0.01, 0.2, 1, 5}
	animations := []float32{0, 0.1, 0.5, 1, 2}
	for _, density := range densities {
		for _, anim := range animations {
			for phase := float32(0); phase < 2*stdmath.Pi; phase += 0.37 {
				prev := float32(0)
				for dist := float32(0); dist <= 200; dist += 0.5 {
					f := FogFactor(density, anim, phase, dist)
					if f < 0 || f > 1 {
						t.Fatalf("FogFactor(%v, %v, %v, %v) = %v outside [0,1]", density, anim, phase, dist, f)
					}
					if f < prev {
						t.Fatalf("FogFactor decreases at density %v animation %v phase %v: %v -> %v at %v",
							density, anim, phase, prev, f, dist)
					}
					prev = f
				}
			}
		}
	}
}

func TestFogFactorEdges(t *testing.T) {
	if got := FogFactor(0.2, 0, 0, 0); got != 0 {
		t.Errorf("factor at the eye = %v, want 0", got)
	}
	if got := FogFactor(0.2, 0, 0, 1e6); got != 1 {
		t.Errorf("factor far away = %v, want 1", got)
	}
	// Animation strong enough to drive density negative clamps it to zero.
	if got := FogFactor(0.2, 3, -stdmath.Pi/2, 100); got != 0 {
		t.Errorf("factor with negative density = %v, want 0", got)
	}
	inf := float32(stdmath.Inf(1))
	if got := FogFactor(0, 0, 0, inf); got != 0 {
		t.Errorf("factor without fog at infinity = %v, want 0", got)
	}
	if got := FogFactor(0.2, 0, 0, inf); got != 1 {
		t.Errorf("factor at infinity = %v, want 1", got)
	}
	if got := FogFactor(0.2, 0, 0, float32(stdmath.NaN())); got != 0 {
		t.Errorf("factor at NaN distance = %v, want 0", got)
	}
}

func TestFogUpdate(t *testing.T) {
	f := newFrame(t)
	fog, err := NewFog(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	fog.Update(0.5)
	fog.Update(-1)
	fog.Paused = true
	fog.Update(10)
	if fog.Time() != 0.5 {
		t.Errorf("Time = %v, want 0.5", fog.Time())
	}

	dir := math.Vec3{Z: -1}
	near, far := fog.FactorAt(dir, 1), fog.FactorAt(dir, 10)
	if near >= far {
		t.Errorf("FactorAt: %v at 1 not below %v at 10", near, far)
	}
}

func TestFogApply(t *testing.T) {
	f := newFrame(t)
	fog, err := NewFog(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	fog.Update(1.25)
	if err := fog.Apply(f.cam, f.out); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	draws := f.ctx.DrawsOf("fog")
	if len(draws) != 1 {
		t.Fatalf("fog draws = %d", len(draws))
	}
	d := draws[0]
	if d.State != gpu.ScreenOverlayState {
		t.Errorf("state = %+v", d.State)
	}
	depth, _ := f.out.Depth.Resolve()
	if d.Uniforms["depthMap"] != depth {
		t.Error("depthMap is not the pipeline depth texture")
	}
	if d.Uniforms["time"] != float32(1.25) || d.Uniforms["fogDensity"] != float32(0.2) {
		t.Errorf("time = %v, density = %v", d.Uniforms["time"], d.Uniforms["fogDensity"])
	}
	if d.Uniforms["viewProjectionInverse"] != f.cam.ViewProjection().Inverse() {
		t.Error("viewProjectionInverse mismatch")
	}
}

func TestFogRejectsStaleOutputs(t *testing.T) {
	f := newFrame(t)
	fog, err := NewFog(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	old := f.out
	f.next(t)
	err = fog.Apply(f.cam, old)
	if !errors.Is(err, gpu.ErrStaleTexture) || !errors.Is(err, gpu.ErrBinding) {
		t.Fatalf("err = %v, want ErrStaleTexture", err)
	}
	if n := len(f.ctx.DrawsOf("fog")); n != 0 {
		t.Errorf("stale apply drew %d times", n)
	}
	if err := fog.Apply(f.cam, f.out); err != nil {
		t.Errorf("fresh outputs: %v", err)
	}
}

func TestFogMissingUniform(t *testing.T) {
	f := newFrame(t)
	fog, err := NewFog(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	f.ctx.Missing = map[string]bool{"animation": true}
	if err := fog.Apply(f.cam, f.out); !errors.Is(err, gpu.ErrBinding) {
		t.Errorf("err = %v, want ErrBinding", err)
	}
}

func TestFogDrawFailure(t *testing.T) {
	f := newFrame(t)
	fog, err := NewFog(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	f.ctx.DrawErr = errors.New("device lost")
	if err := fog.Apply(f.cam, f.out); !errors.Is(err, gpu.ErrDraw) {
		t.Errorf("err = %v, want ErrDraw", err)
	}
}

func TestEffectsRejectNilCamera(t *testing.T) {
	f := newFrame(t)
	fog, _ := NewFog(f.ctx)
	debug, _ := NewDebug(f.ctx)
	debug.SetMode(DebugNormal)
	ao, _ := NewAmbientOcclusion(f.ctx)
	effects := []struct {
		name string
		e    Effect
	}{{"fog", fog}, {"debug", debug}, {"ao", ao}}
	for _, tt := range effects {
		err := tt.e.Apply(nil, f.out)
		if !errors.Is(err, gpu.ErrBinding) || !strings.Contains(err.Error(), tt.name+" effect") {
			t.Errorf("%s: err = %v, want ErrBinding", tt.name, err)
		}
	}
	if len(f.ctx.Draws) != 0 {
		t.Errorf("%d draws without a camera", len(f.ctx.Draws))
	}

	debug.SetMode(DebugNone)
	if err := debug.Apply(nil, f.out); err != nil {
		t.Errorf("disabled debug view: %v", err)
	}
}

func TestNewEffectShaderFailure(t *testing.T) {
	ctx := gputest.New()
	ctx.FailProgram = map[string]error{"fog": errors.New("bad source")}
	if _, err := NewFog(ctx); !errors.Is(err, gpu.ErrShaderCompile) {
		t.Errorf("err = %v, want ErrShaderCompile", err)
	}
}

// ── Debug ─────────────────────────────────────────────────────────────────────

func TestDebugModeCycle(t *testing.T) {
	f := newFrame(t)
	d, err := NewDebug(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	n := len(DebugModes())
	for _, start := range DebugModes() {
		d.SetMode(start)
		seen := map[DebugMode]bool{}
		for i := 0; i < n; i++ {
			seen[d.NextMode()] = true
		}
		if d.Mode() != start {
			t.Errorf("after %d advances from %v: mode %v", n, start, d.Mode())
		}
		if len(seen) != n {
			t.Errorf("cycle from %v visited %d modes, want %d", start, len(seen), n)
		}
	}
}

func TestDebugModeNames(t *testing.T) {
	want := []string{"None", "Position", "Normal", "Color", "Depth", "Specular"}
	for i, m := range DebugModes() {
		if m.String() != want[i] {
			t.Errorf("mode %d = %q, want %q", i, m, want[i])
		}
	}
	if got := DebugMode(42).String(); got != "DebugMode(42)" {
		t.Errorf("unknown mode = %q", got)
	}
}

func TestDebugSetModeOutOfRange(t *testing.T) {
	d := &Debug{}
	d.SetMode(DebugDepth)
	d.SetMode(DebugMode(99))
	if d.Mode() != DebugNone {
		t.Errorf("mode = %v, want None", d.Mode())
	}
}

func TestDebugApply(t *testing.T) {
	f := newFrame(t)
	d, err := NewDebug(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Apply(f.cam, f.out); err != nil {
		t.Fatal(err)
	}
	if n := len(f.ctx.DrawsOf("debug")); n != 0 {
		t.Errorf("None mode drew %d times", n)
	}

	d.SetMode(DebugNormal)
	if err := d.Apply(f.cam, f.out); err != nil {
		t.Fatal(err)
	}
	draws := f.ctx.DrawsOf("debug")
	if len(draws) != 1 {
		t.Fatalf("debug draws = %d", len(draws))
	}
	u := draws[0].Uniforms
	if u["mode"] != int32(2) || u["zNear"] != f.cam.Near() || u["zFar"] != f.cam.Far() {
		t.Errorf("uniforms = %v", u)
	}
	for _, s := range []string{"positionMap", "normalMap", "colorMap", "depthMap"} {
		if _, ok := u[s].(gpu.Texture); !ok {
			t.Errorf("%s not bound", s)
		}
	}
}

// ── Ambient occlusion ─────────────────────────────────────────────────────────

func TestGenerateKernel(t *testing.T) {
	a := GenerateKernel(KernelSize, 7)
	b := GenerateKernel(KernelSize, 7)
	if len(a) != KernelSize {
		t.Fatalf("len = %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs between runs with the same seed", i)
		}
		if a[i].Z < 0 {
			t.Errorf("sample %d below the hemisphere: %v", i, a[i])
		}
		if l := a[i].Length(); l > 1+1e-5 {
			t.Errorf("sample %d outside the unit hemisphere: length %v", i, l)
		}
	}
	if c := GenerateKernel(KernelSize, 8); c[0] == a[0] && c[1] == a[1] {
		t.Error("different seeds produced the same kernel")
	}
}

func TestAmbientOcclusionApply(t *testing.T) {
	f := newFrame(t)
	ao, err := NewAmbientOcclusion(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := ao.Apply(f.cam, f.out); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	draws := f.ctx.DrawsOf("ao")
	if len(draws) != 1 {
		t.Fatalf("ao draws = %d", len(draws))
	}
	kernel, _ := draws[0].Uniforms["kernel"].([]math.Vec3)
	if len(kernel) != KernelSize {
		t.Errorf("kernel uniform has %d samples", len(kernel))
	}

	ao.Enabled = false
	if err := ao.Apply(f.cam, f.out); err != nil {
		t.Fatal(err)
	}
	if n := len(f.ctx.DrawsOf("ao")); n != 1 {
		t.Errorf("disabled AO drew; total draws %d", n)
	}
}

// ── Overlay ───────────────────────────────────────────────────────────────────

func TestRenderText(t *testing.T) {
	img := RenderText([]string{"FPS 60", "mode Normal"}, color.White)
	b := img.Bounds()
	if b.Dx() < len("mode Normal")*7 || b.Dy() < 2*13 {
		t.Fatalf("panel %v too small for the text", b)
	}
	lit := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y).R > 128 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("no glyph pixels drawn")
	}
	if c := img.RGBAAt(0, 0); c != overlayBackground {
		t.Errorf("corner = %v, want panel background", c)
	}
}

func TestRenderTextStraightAlpha(t *testing.T) {
	// Half-transparent white over the panel stores the full text color
	// with the combined alpha; premultiplied storage would halve it.
	img := RenderText([]string{"#"}, color.NRGBA{R: 255, G: 255, B: 255, A: 128})
	var brightest color.RGBA
	for i := 0; i+3 < len(img.Pix); i += 4 {
		if img.Pix[i] > brightest.R {
			brightest = color.RGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: img.Pix[i+3]}
		}
	}
	if brightest.R < 150 || brightest.A < 200 {
		t.Errorf("glyph pixel = %v, want straight alpha near {157 157 157 208}", brightest)
	}
}

func TestOverlayWrapsBindingError(t *testing.T) {
	f := newFrame(t)
	o, err := NewOverlay(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	o.SetText("x")
	if err := o.Apply(f.cam, f.out); err != nil {
		t.Fatal(err)
	}
	f.ctx.DeleteTexture(f.ctx.Textures[0])
	err = o.Apply(f.cam, f.out)
	if !errors.Is(err, gpu.ErrBinding) || !strings.Contains(err.Error(), "overlay effect") {
		t.Errorf("err = %v, want a wrapped ErrBinding", err)
	}
}

func TestOverlayUploadsOnChange(t *testing.T) {
	f := newFrame(t)
	o, err := NewOverlay(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Apply(f.cam, f.out); err != nil {
		t.Fatal(err)
	}
	if len(f.ctx.Textures) != 0 || len(f.ctx.DrawsOf("overlay")) != 0 {
		t.Error("empty overlay uploaded or drew")
	}

	o.SetText("hello")
	for i := 0; i < 3; i++ {
		if err := o.Apply(f.cam, f.out); err != nil {
			t.Fatal(err)
		}
	}
	if len(f.ctx.Textures) != 1 {
		t.Errorf("uploaded %d textures for unchanged text", len(f.ctx.Textures))
	}
	o.SetText("hello")
	o.SetText("hello", "world")
	if err := o.Apply(f.cam, f.out); err != nil {
		t.Fatal(err)
	}
	if len(f.ctx.Textures) != 2 || !f.ctx.Deleted[f.ctx.Textures[0].ID()] {
		t.Error("changed text did not replace the texture")
	}
	if len(f.ctx.DrawsOf("overlay")) != 4 {
		t.Errorf("overlay draws = %d, want 4", len(f.ctx.DrawsOf("overlay")))
	}
}

func TestOverlayRect(t *testing.T) {
	f := newFrame(t)
	o, err := NewOverlay(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	o.SetText("x")
	if err := o.Apply(f.cam, f.out); err != nil {
		t.Fatal(err)
	}
	r, _ := f.ctx.DrawsOf("overlay")[0].Uniforms["rect"].(math.Vec4)
	if r.X <= -1 || r.W >= 1 || r.X >= r.Z || r.Y >= r.W {
		t.Errorf("rect %v is not inside the frame top-left", r)
	}
	tex := f.ctx.Textures[0]
	wantW := 2 * float32(tex.Width()) / float32(f.out.Width)
	if d := r.Z - r.X; stdmath.Abs(float64(d-wantW)) > 1e-5 {
		t.Errorf("rect width %v, want %v (pixel exact)", d, wantW)
	}
}

func TestApplyChain(t *testing.T) {
	f := newFrame(t)
	fog, _ := NewFog(f.ctx)
	debug, _ := NewDebug(f.ctx)
	debug.SetMode(DebugDepth)
	if err := Apply(f.cam, f.out, fog, nil, debug); err != nil {
		t.Fatal(err)
	}
	if len(f.ctx.Draws) != 2 || f.ctx.Draws[0].Program != "fog" || f.ctx.Draws[1].Program != "debug" {
		t.Errorf("draw order = %v", f.ctx.Draws)
	}
}
