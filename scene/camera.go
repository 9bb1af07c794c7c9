package scene

import (
	stdmath "math"

	"deferred-renderer/math"
)

// Orbit defaults.
const (
	DefaultRotateSpeed = 0.01
	DefaultZoomSpeed   = 0.1

	// elevation stays this far short of the poles so the view never flips
	poleMargin = 0.01
)

// Camera is a perspective camera that orbits its target. View and
// projection matrices are cached and rebuilt lazily after any change.
type Camera struct {
	position math.Vec3
	target   math.Vec3
	up       math.Vec3

	fovY   float32
	aspect float32
	near   float32
	far    float32

	// Radians per unit of Rotate input.
	RotateSpeed float32
	// World units per unit of Zoom input.
	ZoomSpeed float32
	// The orbit distance is kept in [MinDistance, MaxDistance].
	MinDistance float32
	MaxDistance float32

	view     math.Mat4
	proj     math.Mat4
	viewProj math.Mat4
	dirty    bool
}

// NewPerspectiveCamera creates a camera at position looking at target.
// fovY is in radians. The zoom range defaults to [near, 0.9*far], widened
// if needed so the starting distance is inside it.
func NewPerspectiveCamera(position, target, up math.Vec3, fovY, aspect, near, far float32) *Camera {
	if near <= 0 {
		near = 0.1
	}
	if far <= near {
		far = near * 1000
	}
	if aspect <= 0 {
		aspect = 1
	}
	c := &Camera{
		position:    position,
		target:      target,
		up:          up.Normalize(),
		fovY:        fovY,
		aspect:      aspect,
		near:        near,
		far:         far,
		RotateSpeed: DefaultRotateSpeed,
		ZoomSpeed:   DefaultZoomSpeed,
		MinDistance: near,
		MaxDistance: 0.9 * far,
		dirty:       true,
	}
	c.clampDistance()
	return c
}

// SetViewport updates the aspect ratio for a framebuffer of w x h pixels.
// Non-positive sizes, as reported for a minimized window, are ignored.
func (c *Camera) SetViewport(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	c.aspect = float32(w) / float32(h)
	c.dirty = true
}

// SetView moves the camera and its target.
func (c *Camera) SetView(position, target, up math.Vec3) {
	c.position = position
	c.target = target
	c.up = up.Normalize()
	c.clampDistance()
	c.dirty = true
}

// Rotate orbits the camera around the target. dx turns around the up axis,
// dy changes elevation. The distance to the target is preserved.
func (c *Camera) Rotate(dx, dy float32) {
	if !math.IsFinite(dx) || !math.IsFinite(dy) {
		return
	}
	yaw, pitch, dist := c.spherical()
	yaw -= dx * c.RotateSpeed
	pitch += dy * c.RotateSpeed

	limit := float32(stdmath.Pi/2 - poleMargin)
	pitch = math.Clamp(pitch, -limit, limit)

	c.position = c.target.Add(c.fromSpherical(yaw, pitch, dist))
	c.dirty = true
}

// Zoom moves the camera along the view direction; positive delta moves it
// closer to the target. The distance never leaves [MinDistance, MaxDistance],
// and never drops below the near plane even if MinDistance was lowered, so
// the camera cannot reach or pass its target.
func (c *Camera) Zoom(delta float32) {
	if !math.IsFinite(delta) {
		return
	}
	offset := c.position.Sub(c.target)
	dist := offset.Length()
	if dist == 0 {
		return
	}
	lo := max(c.MinDistance, c.near)
	next := math.Clamp(dist-delta*c.ZoomSpeed, lo, max(c.MaxDistance, lo))
	c.position = c.target.Add(offset.Mul(next / dist))
	c.dirty = true
}

func (c *Camera) clampDistance() {
	if c.MinDistance <= 0 {
		c.MinDistance = c.near
	}
	if c.MaxDistance < c.MinDistance {
		c.MaxDistance = c.MinDistance
	}
	offset := c.position.Sub(c.target)
	dist := offset.Length()
	if dist == 0 {
		// Degenerate view: back off along +Z.
		c.position = c.target.Add(math.Vec3Front.Mul(c.MinDistance))
		return
	}
	clamped := math.Clamp(dist, c.MinDistance, c.MaxDistance)
	if clamped != dist {
		c.position = c.target.Add(offset.Mul(clamped / dist))
	}
}

// spherical returns the camera offset from the target as yaw around +Y,
// pitch above the XZ plane and distance.
func (c *Camera) spherical() (yaw, pitch, dist float32) {
	o := c.position.Sub(c.target)
	dist = o.Length()
	if dist == 0 {
		return 0, 0, 0
	}
	yaw = float32(stdmath.Atan2(float64(o.X), float64(o.Z)))
	pitch = float32(stdmath.Asin(float64(math.Clamp(o.Y/dist, -1, 1))))
	return yaw, pitch, dist
}

func (c *Camera) fromSpherical(yaw, pitch, dist float32) math.Vec3 {
	cp := float32(stdmath.Cos(float64(pitch)))
	return math.Vec3{
		X: dist * cp * float32(stdmath.Sin(float64(yaw))),
		Y: dist * float32(stdmath.Sin(float64(pitch))),
		Z: dist * cp * float32(stdmath.Cos(float64(yaw))),
	}
}

func (c *Camera) update() {
	if !c.dirty {
		return
	}
	c.view = math.Mat4LookAt(c.position, c.target, c.up)
	c.proj = math.Mat4Perspective(c.fovY, c.aspect, c.near, c.far)
	c.viewProj = c.view.Mul(c.proj)
	c.dirty = false
}

func (c *Camera) View() math.Mat4 {
	c.update()
	return c.view
}

func (c *Camera) Projection() math.Mat4 {
	c.update()
	return c.proj
}

// ViewProjection maps world space to clip space.
func (c *Camera) ViewProjection() math.Mat4 {
	c.update()
	return c.viewProj
}

func (c *Camera) Position() math.Vec3 { return c.position }
func (c *Camera) Target() math.Vec3   { return c.target }
func (c *Camera) Up() math.Vec3       { return c.up }

// Direction is the unit vector from the camera towards its target.
func (c *Camera) Direction() math.Vec3 {
	return c.target.Sub(c.position).Normalize()
}

func (c *Camera) Distance() float32 {
	return c.position.Distance(c.target)
}

func (c *Camera) Near() float32   { return c.near }
func (c *Camera) Far() float32    { return c.far }
func (c *Camera) FOV() float32    { return c.fovY }
func (c *Camera) Aspect() float32 { return c.aspect }
