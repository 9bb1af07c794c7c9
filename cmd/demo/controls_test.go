package main

import (
	"errors"
	"testing"

	"deferred-renderer/core"
	"deferred-renderer/effects"
	"deferred-renderer/internal/gputest"
	"deferred-renderer/math"
	"deferred-renderer/scene"
)

func newControls(t *testing.T) *Controls {
	t.Helper()
	ctx := gputest.New()
	debug, err := effects.NewDebug(ctx)
	if err != nil {
		t.Fatal(err)
	}
	fog, err := effects.NewFog(ctx)
	if err != nil {
		t.Fatal(err)
	}
	ao, err := effects.NewAmbientOcclusion(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cam := scene.NewPerspectiveCamera(math.Vec3{Z: 5}, math.Vec3Zero, math.Vec3Up, 0.8, 1.5, 0.1, 100)
	return NewControls(cam, debug, fog, ao)
}

func TestControlsDragRotates(t *testing.T) {
	c := newControls(t)
	start := c.camera.Position()

	c.Handle([]core.Event{{Kind: core.EventMouseMotion, DX: 40}})
	if c.camera.Position() != start {
		t.Fatal("motion without a held button moved the camera")
	}

	err := c.Handle([]core.Event{
		{Kind: core.EventMousePress, Button: core.MouseLeft},
		{Kind: core.EventMouseMotion, DX: 40, DY: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !c.Dragging() {
		t.Error("left press did not start a drag")
	}
	moved := c.camera.Position()
	if moved == start {
		t.Error("drag did not rotate the camera")
	}
	if d := c.camera.Distance(); d < 4.99 || d > 5.01 {
		t.Errorf("rotation changed the distance to %v", d)
	}

	c.Handle([]core.Event{
		{Kind: core.EventMouseRelease, Button: core.MouseLeft},
		{Kind: core.EventMouseMotion, DX: 40},
	})
	if c.camera.Position() != moved {
		t.Error("motion after release moved the camera")
	}
}

func TestControlsScrollZooms(t *testing.T) {
	c := newControls(t)
	before := c.camera.Distance()
	c.Handle([]core.Event{{Kind: core.EventScroll, DY: 3}})
	if c.camera.Distance() >= before {
		t.Errorf("scroll up: distance %v, was %v", c.camera.Distance(), before)
	}
	for i := 0; i < 1000; i++ {
		c.Handle([]core.Event{{Kind: core.EventScroll, DY: 50}})
	}
	if d := c.camera.Distance(); d < c.camera.MinDistance-1e-4 {
		t.Errorf("distance %v below the minimum %v", d, c.camera.MinDistance)
	}
}

func TestControlsKeys(t *testing.T) {
	c := newControls(t)

	press := func(key string) error {
		return c.Handle([]core.Event{{Kind: core.EventKeyPress, Key: key}})
	}
	for i := 0; i < len(effects.DebugModes()); i++ {
		if err := press("R"); err != nil {
			t.Fatal(err)
		}
	}
	if c.debug.Mode() != effects.DebugNone {
		t.Errorf("after a full cycle mode = %v", c.debug.Mode())
	}
	press("R")
	if c.debug.Mode() != effects.DebugPosition {
		t.Errorf("mode = %v, want Position", c.debug.Mode())
	}

	press("Space")
	if !c.fog.Paused {
		t.Error("Space did not pause the fog")
	}
	press("O")
	if c.ao.Enabled {
		t.Error("O did not disable ambient occlusion")
	}

	c.Handle([]core.Event{{Kind: core.EventKeyRelease, Key: "Space"}})
	if !c.fog.Paused {
		t.Error("key release toggled the fog")
	}
}

func TestControlsEscapeStops(t *testing.T) {
	c := newControls(t)
	err := c.Handle([]core.Event{
		{Kind: core.EventKeyPress, Key: "Escape"},
		{Kind: core.EventKeyPress, Key: "R"},
	})
	if !errors.Is(err, core.ErrStopLoop) {
		t.Fatalf("err = %v, want ErrStopLoop", err)
	}
	if c.debug.Mode() != effects.DebugNone {
		t.Error("events after Escape were applied")
	}
}

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags([]string{"--width", "640", "--height", "480", "--fog", "0", "--no-vsync", "--screenshot", "out.png"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.width != 640 || cfg.height != 480 || cfg.fogDensity != 0 || cfg.vsync || cfg.screenshot != "out.png" {
		t.Errorf("cfg = %+v", cfg)
	}

	def, err := parseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !def.vsync || def.logLevel != "info" || def.model != "" {
		t.Errorf("defaults = %+v", def)
	}

	for _, args := range [][]string{
		{"--width", "0"},
		{"--fog", "-1"},
		{"--bogus"},
	} {
		if _, err := parseFlags(args); err == nil {
			t.Errorf("parseFlags(%v) accepted invalid input", args)
		}
	}
}

func TestDebugOverlay(t *testing.T) {
	var hud DebugOverlay
	hud.AddLine("FPS %d", 60)
	hud.AddLine("view %s", effects.DebugDepth)
	if got := hud.Lines(); len(got) != 2 || got[0] != "FPS 60" || got[1] != "view Depth" {
		t.Errorf("lines = %q", got)
	}
	hud.Clear()
	if len(hud.Lines()) != 0 {
		t.Error("Clear kept lines")
	}
}

func TestFPSCounter(t *testing.T) {
	var f fpsCounter
	for i := 0; i < 30; i++ {
		f.Tick(1.0 / 30)
	}
	f.Tick(0.01)
	if f.FPS() < 30 || f.FPS() > 31 {
		t.Errorf("FPS = %d", f.FPS())
	}
}

func TestBuildSceneAndFrame(t *testing.T) {
	ctx := gputest.New()
	s, err := buildScene(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Models) != 3 || s.LightCount() != 4 {
		t.Errorf("models = %d, lights = %d", len(s.Models), s.LightCount())
	}
	cam := frameCamera(s.Bounds(), 16.0/9)
	if err := s.Render(cam); err != nil {
		t.Fatal(err)
	}
	if s.Drawn() != 3 {
		t.Errorf("framed camera sees %d of 3 models", s.Drawn())
	}
}
