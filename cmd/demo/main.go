// Command demo renders a model through the deferred pipeline with fog,
// ambient occlusion, a G-buffer debug view and a text overlay.
//
// Controls: left-drag orbits, the wheel zooms, R cycles the debug view,
// Space pauses the fog, O toggles ambient occlusion, Escape quits.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	stdmath "math"
	"os"

	"go.uber.org/zap"

	"deferred-renderer/capture"
	"deferred-renderer/core"
	"deferred-renderer/effects"
	"deferred-renderer/gpu"
	"deferred-renderer/internal/logger"
	"deferred-renderer/internal/opengl"
	"deferred-renderer/math"
	"deferred-renderer/pipeline"
	"deferred-renderer/scene"
)

type config struct {
	width      int
	height     int
	model      string
	screenshot string
	logLevel   string
	fogDensity float64
	vsync      bool
}

func parseFlags(args []string) (config, error) {
	var cfg config
	var noVSync bool
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.IntVar(&cfg.width, "width", 1280, "window width in pixels")
	fs.IntVar(&cfg.height, "height", 720, "window height in pixels")
	fs.StringVar(&cfg.model, "model", "", "glTF or OBJ file to display instead of the built-in scene")
	fs.StringVar(&cfg.screenshot, "screenshot", "", "save the first frame to this file (.png, .jpg, .bmp, .tiff) and exit")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "debug, info, warn or error")
	fs.Float64Var(&cfg.fogDensity, "fog", 0.05, "fog density, 0 disables fog")
	fs.BoolVar(&noVSync, "no-vsync", false, "render without waiting for vertical sync")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if cfg.width <= 0 || cfg.height <= 0 {
		return config{}, fmt.Errorf("invalid size %dx%d", cfg.width, cfg.height)
	}
	if cfg.fogDensity < 0 {
		return config{}, fmt.Errorf("fog density %v is negative", cfg.fogDensity)
	}
	cfg.vsync = !noVSync
	return cfg, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := logger.Init(cfg.logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Log.Error("demo failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

// app holds everything one frame touches. teardown assumes setup succeeded.
type app struct {
	cfg      config
	ctx      *opengl.Context
	pipeline *pipeline.DeferredPipeline
	scene    *scene.Scene
	camera   *scene.Camera

	ao      *effects.AmbientOcclusion
	fog     *effects.Fog
	debug   *effects.Debug
	overlay *effects.Overlay

	controls *Controls
	hud      DebugOverlay
	fps      fpsCounter
}

func run(cfg config) error {
	wcfg := core.DefaultWindowConfig()
	wcfg.Width, wcfg.Height = cfg.width, cfg.height
	wcfg.Title = "Deferred Renderer"
	wcfg.VSync = cfg.vsync
	window, err := core.NewWindow(wcfg)
	if err != nil {
		return err
	}
	defer window.Destroy()

	ctx, err := opengl.NewContext(window.FramebufferSize)
	if err != nil {
		return err
	}
	defer ctx.Destroy()

	a := &app{cfg: cfg, ctx: ctx}
	if err := a.setup(); err != nil {
		return err
	}
	defer a.teardown()

	logger.Log.Info("starting render loop",
		zap.Int("models", len(a.scene.Models)),
		zap.Int("lights", a.scene.LightCount()),
		zap.String("debugView", a.debug.Mode().String()))
	return window.RenderLoop(a.frame)
}

func (a *app) setup() error {
	var err error
	if a.pipeline, err = pipeline.New(a.ctx); err != nil {
		return err
	}
	if a.scene, err = buildScene(a.ctx, a.cfg.model); err != nil {
		return err
	}
	a.camera = frameCamera(a.scene.Bounds(), float32(a.cfg.width)/float32(a.cfg.height))

	if a.ao, err = effects.NewAmbientOcclusion(a.ctx); err != nil {
		return err
	}
	if a.fog, err = effects.NewFog(a.ctx); err != nil {
		return err
	}
	a.fog.Density = float32(a.cfg.fogDensity)
	if a.debug, err = effects.NewDebug(a.ctx); err != nil {
		return err
	}
	if a.overlay, err = effects.NewOverlay(a.ctx); err != nil {
		return err
	}
	a.controls = NewControls(a.camera, a.debug, a.fog, a.ao)
	return nil
}

func (a *app) teardown() {
	a.overlay.Delete()
	a.debug.Delete()
	a.fog.Delete()
	a.ao.Delete()
	a.scene.Delete()
	a.pipeline.Destroy()
}

func (a *app) frame(in core.FrameInput) error {
	if err := a.controls.Handle(in.Events); err != nil {
		return err
	}
	if in.Width <= 0 || in.Height <= 0 {
		return nil // minimized
	}
	a.camera.SetViewport(in.Width, in.Height)
	a.fog.Update(in.Elapsed)
	a.fps.Tick(in.Elapsed)

	err := a.pipeline.GeometryPass(in.Width, in.Height, func() error {
		return a.scene.Render(a.camera)
	})
	if err != nil {
		return fmt.Errorf("geometry pass: %w", err)
	}
	screen := a.ctx.Screen()
	screen.Clear(core.Color{R: 0.05, G: 0.05, B: 0.08, A: 1})
	if err := a.pipeline.LightScene(screen, a.camera, a.scene); err != nil {
		return fmt.Errorf("light pass: %w", err)
	}
	out, err := a.pipeline.Outputs()
	if err != nil {
		return err
	}

	a.updateHUD()
	if err := effects.Apply(a.camera, out, a.ao, a.fog, a.debug, a.overlay); err != nil {
		return err
	}

	if a.cfg.screenshot != "" {
		if err := capture.Save(a.ctx, a.cfg.screenshot, 0, 0, in.Width, in.Height); err != nil {
			return err
		}
		return core.ErrStopLoop
	}
	return nil
}

func (a *app) updateHUD() {
	a.hud.Clear()
	a.hud.AddLine("FPS %d", a.fps.FPS())
	a.hud.AddLine("models %d/%d  lights %d", a.scene.Drawn(), len(a.scene.Models), a.scene.LightCount())
	a.hud.AddLine("view %s (R)  fog %s (Space)  ao %s (O)",
		a.debug.Mode(), onOff(!a.fog.Paused), onOff(a.ao.Enabled))
	a.hud.AddLine("distance %.2f", a.camera.Distance())
	a.overlay.SetText(a.hud.Lines()...)
}

// buildScene loads path, or the built-in shapes when path is empty, and
// adds the demo lights.
func buildScene(ctx gpu.Context, path string) (*scene.Scene, error) {
	s := scene.New()
	s.Ambient = scene.NewAmbientLight(core.ColorWhite, 0.15)
	s.AddDirectional(scene.NewDirectionalLight(core.Color{R: 1, G: 0.95, B: 0.85, A: 1}, 0.8,
		math.Vec3{X: -0.4, Y: -1, Z: -0.3}.Normalize()))
	s.AddPoint(scene.NewPointLight(core.Color{R: 1, G: 0.4, B: 0.2, A: 1}, 2, math.Vec3{X: 2, Y: 1.5, Z: 2}))
	s.AddPoint(scene.NewPointLight(core.Color{R: 0.2, G: 0.5, B: 1, A: 1}, 2, math.Vec3{X: -2, Y: 1.5, Z: -1}))
	s.AddSpot(scene.NewSpotLight(core.ColorWhite, 3, math.Vec3{Y: 4}, math.Vec3{Y: -1}, 0.35))

	if path != "" {
		models, err := scene.LoadModels(ctx, path)
		if err != nil {
			return nil, err
		}
		s.Add(models...)
		return s, nil
	}

	shapes := []struct {
		mesh      *scene.Mesh
		material  *scene.Material
		transform math.Mat4
	}{
		{scene.Cube(1), scene.NewMaterial("brick", core.Color{R: 0.7, G: 0.3, B: 0.2, A: 1}),
			math.Mat4Translation(math.Vec3{X: -1.2, Y: 0.5})},
		{scene.Sphere(0.6, 32, 16), scene.MaterialFromMetallicRoughness("chrome", core.Color{R: 0.8, G: 0.8, B: 0.85, A: 1}, 1, 0.2),
			math.Mat4Translation(math.Vec3{X: 1.2, Y: 0.6})},
		{scene.PlaneMesh(10), scene.NewMaterial("floor", core.ColorGrey), math.Mat4Identity()},
	}
	shapes[2].material.AlbedoTexture = scene.CheckerTexture(256, 32,
		color.RGBA{R: 230, G: 230, B: 230, A: 255}, color.RGBA{R: 120, G: 120, B: 130, A: 255})

	for _, sh := range shapes {
		m, err := scene.NewModel(ctx, sh.mesh, sh.material)
		if err != nil {
			s.Delete()
			return nil, err
		}
		m.Transform = sh.transform
		s.Add(m)
	}
	return s, nil
}

// frameCamera places an orbit camera that keeps bounds in view.
func frameCamera(bounds scene.AABB, aspect float32) *scene.Camera {
	const fov = stdmath.Pi / 4
	center := bounds.Center()
	radius := max(bounds.Max.Sub(bounds.Min).Length()/2, 0.5)
	dist := radius / float32(stdmath.Sin(fov/2))
	eye := center.Add(math.Vec3{Y: 0.4, Z: 1}.Normalize().Mul(dist))
	cam := scene.NewPerspectiveCamera(eye, center, math.Vec3Up, fov, aspect, 0.05, max(dist*10, 100))
	cam.MinDistance = radius * 0.5
	return cam
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
