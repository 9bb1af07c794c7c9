package pipeline_test

import (
	"image/color"
	"runtime"
	"testing"

	"deferred-renderer/core"
	"deferred-renderer/gpu"
	"deferred-renderer/internal/opengl"
	"deferred-renderer/math"
	"deferred-renderer/pipeline"
	"deferred-renderer/scene"
)

// openGL creates a hidden window with a current context, or skips the test
// when no display or driver is available.
func openGL(t *testing.T, width, height int) *opengl.Context {
	t.Helper()
	runtime.LockOSThread()
	t.Cleanup(runtime.UnlockOSThread)

	cfg := core.DefaultWindowConfig()
	cfg.Width, cfg.Height = width, height
	cfg.Visible = false
	cfg.VSync = false
	win, err := core.NewWindow(cfg)
	if err != nil {
		t.Skipf("no OpenGL window available: %v", err)
	}
	t.Cleanup(win.Destroy)

	ctx, err := opengl.NewContext(win.FramebufferSize)
	if err != nil {
		t.Skipf("no OpenGL 4.1 context: %v", err)
	}
	t.Cleanup(ctx.Destroy)
	return ctx
}

func closeTo(got color.RGBA, want [3]float32) bool {
	ch := []uint8{got.R, got.G, got.B}
	for i, w := range want {
		d := int(ch[i]) - int(w*255+0.5)
		if d < -2 || d > 2 {
			return false
		}
	}
	return true
}

func TestAmbientTriangleScenario(t *testing.T) {
	const width, height = 800, 600
	ctx := openGL(t, width, height)

	p, err := pipeline.New(ctx)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	defer p.Destroy()

	green := [3]float32{0.5, 1, 0.5}
	model, err := scene.NewModel(ctx, scene.Triangle(),
		scene.NewMaterial("green", core.Color{R: green[0], G: green[1], B: green[2], A: 1}))
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	defer model.Delete()

	cam := scene.NewPerspectiveCamera(math.Vec3{Z: 3}, math.Vec3Zero, math.Vec3Up, 0.8, width/float32(height), 0.1, 100)

	// Shade into an offscreen target so the read-back does not depend on
	// the hidden window's default framebuffer.
	dst, err := ctx.NewRenderTargetSet(width, height, []gpu.Format{gpu.FormatRGBA8})
	if err != nil {
		t.Fatalf("destination target: %v", err)
	}
	defer dst.Delete()

	clearColor := [3]float32{0.1, 0.2, 0.3}
	if err := p.GeometryPass(width, height, func() error { return model.Render(cam) }); err != nil {
		t.Fatalf("GeometryPass: %v", err)
	}
	dst.Clear(core.Color{R: clearColor[0], G: clearColor[1], B: clearColor[2], A: 1})
	if err := p.LightPass(dst, cam, scene.NewAmbientLight(core.ColorWhite, 1), nil, nil, nil); err != nil {
		t.Fatalf("LightPass: %v", err)
	}

	dst.Bind()
	img, err := ctx.ReadPixels(0, 0, width, height)
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}

	if c := img.RGBAAt(width/2, height/2); !closeTo(c, green) {
		t.Errorf("center pixel = %v, want material color %v", c, green)
	}
	for _, pt := range [][2]int{{0, 0}, {width - 1, 0}, {0, height - 1}, {width - 1, height - 1}} {
		if c := img.RGBAAt(pt[0], pt[1]); !closeTo(c, clearColor) {
			t.Errorf("pixel %v = %v, want clear color %v", pt, c, clearColor)
		}
	}
}
