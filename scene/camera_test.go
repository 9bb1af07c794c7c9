package scene

import (
	stdmath "math"
	"testing"

	"deferred-renderer/math"
)

const eps = 1e-3

func near(a, b float32) bool {
	return stdmath.Abs(float64(a-b)) < eps
}

func testCamera() *Camera {
	return NewPerspectiveCamera(math.Vec3{Z: 3}, math.Vec3Zero, math.Vec3Up,
		float32(stdmath.Pi/4), 800.0/600.0, 0.1, 100)
}

func TestCameraDefaults(t *testing.T) {
	c := testCamera()
	if !near(c.Distance(), 3) {
		t.Errorf("Distance = %v, want 3", c.Distance())
	}
	if c.MinDistance != 0.1 || !near(c.MaxDistance, 90) {
		t.Errorf("zoom range = [%v, %v], want [0.1, 90]", c.MinDistance, c.MaxDistance)
	}
	if d := c.Direction(); !near(d.Z, -1) {
		t.Errorf("Direction = %v, want -Z", d)
	}
}

func TestCameraViewProjectionCentersTarget(t *testing.T) {
	c := testCamera()
	ndc := c.ViewProjection().TransformPoint(c.Target())
	if !near(ndc.X, 0) || !near(ndc.Y, 0) {
		t.Errorf("target projects to %v, want screen center", ndc)
	}
	if ndc.Z <= -1 || ndc.Z >= 1 {
		t.Errorf("target depth %v outside clip range", ndc.Z)
	}
}

func TestCameraZoomNeverInverts(t *testing.T) {
	deltas := []float32{1, 5, 1e3, 1e9, -1, -1e9, 0.01, 1e9}
	c := testCamera()
	for _, d := range deltas {
		c.Zoom(d)
		dist := c.Distance()
		if dist < c.MinDistance-eps || dist > c.MaxDistance+eps {
			t.Fatalf("Zoom(%v): distance %v outside [%v, %v]", d, dist, c.MinDistance, c.MaxDistance)
		}
		if c.Position().Z <= 0 {
			t.Fatalf("Zoom(%v): camera crossed its target, position %v", d, c.Position())
		}
		if dir := c.Direction(); dir.Z >= 0 {
			t.Fatalf("Zoom(%v): view direction flipped to %v", d, dir)
		}
	}
}

func TestCameraZoomKeepsNearDistance(t *testing.T) {
	for _, lo := range []float32{0, -5, float32(stdmath.Inf(-1))} {
		c := testCamera()
		c.MinDistance = lo
		c.Zoom(1e9)
		if d := c.Distance(); !near(d, c.Near()) {
			t.Errorf("MinDistance %v: distance %v, want the near plane %v", lo, d, c.Near())
		}
		if v := c.View(); !math.IsFinite(v[0][0]) || v[0][0] == 0 {
			t.Errorf("MinDistance %v: degenerate view %v", lo, v)
		}
	}
}

func TestCameraZoomClamps(t *testing.T) {
	c := testCamera()
	c.Zoom(1e9)
	if !near(c.Distance(), c.MinDistance) {
		t.Errorf("full zoom in: distance %v, want %v", c.Distance(), c.MinDistance)
	}
	c.Zoom(-1e9)
	if !near(c.Distance(), c.MaxDistance) {
		t.Errorf("full zoom out: distance %v, want %v", c.Distance(), c.MaxDistance)
	}
}

func TestCameraZoomIgnoresNonFinite(t *testing.T) {
	c := testCamera()
	before := c.Position()
	c.Zoom(float32(stdmath.NaN()))
	c.Zoom(float32(stdmath.Inf(1)))
	if c.Position() != before {
		t.Errorf("position moved to %v after non-finite zoom", c.Position())
	}
}

func TestCameraRotateKeepsDistance(t *testing.T) {
	c := testCamera()
	for i := 0; i < 50; i++ {
		c.Rotate(37, -13)
		if !near(c.Distance(), 3) {
			t.Fatalf("step %d: distance %v, want 3", i, c.Distance())
		}
	}
}

func TestCameraRotateStopsShortOfPole(t *testing.T) {
	c := testCamera()
	c.Rotate(0, 1e6)
	up := c.Direction().Negate().Dot(math.Vec3Up)
	if up >= 1 {
		t.Errorf("camera reached the pole")
	}
	if up < 0.99 {
		t.Errorf("elevation %v, want close to the pole", up)
	}
	view := c.View()
	for i := range view {
		for j := range view[i] {
			if !math.IsFinite(view[i][j]) {
				t.Fatalf("view matrix has non-finite element at %d,%d", i, j)
			}
		}
	}
}

func TestCameraSetViewport(t *testing.T) {
	c := testCamera()
	c.SetViewport(1920, 1080)
	if !near(c.Aspect(), 1920.0/1080.0) {
		t.Errorf("Aspect = %v", c.Aspect())
	}
	c.SetViewport(0, 1080)
	c.SetViewport(640, -1)
	if !near(c.Aspect(), 1920.0/1080.0) {
		t.Errorf("non-positive viewport changed aspect to %v", c.Aspect())
	}
}

func TestCameraProjectionFollowsViewport(t *testing.T) {
	c := testCamera()
	before := c.Projection()
	c.SetViewport(400, 400)
	after := c.Projection()
	if before[0][0] == after[0][0] {
		t.Error("projection not rebuilt after SetViewport")
	}
	if !near(after[0][0], after[1][1]) {
		t.Errorf("square viewport should scale x and y equally: %v vs %v", after[0][0], after[1][1])
	}
}

func TestCameraConstructorClampsStartDistance(t *testing.T) {
	c := NewPerspectiveCamera(math.Vec3{Z: 500}, math.Vec3Zero, math.Vec3Up, 1, 1, 0.1, 100)
	if !near(c.Distance(), 90) {
		t.Errorf("Distance = %v, want clamped to 90", c.Distance())
	}
}

func BenchmarkCameraViewProjection(b *testing.B) {
	c := testCamera()
	for i := 0; i < b.N; i++ {
		c.Rotate(1, 0)
		_ = c.ViewProjection()
	}
}
