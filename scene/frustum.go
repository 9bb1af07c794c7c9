package scene

import "deferred-renderer/math"

// Plane is the half-space Normal·p + D >= 0.
type Plane struct {
	Normal math.Vec3
	D      float32
}

// DistanceTo is positive on the inside of the plane.
func (p Plane) DistanceTo(pt math.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Frustum holds the six clip planes of a view: left, right, bottom, top,
// near, far.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromViewProjection extracts normalized planes from a row-vector
// view-projection matrix (Gribb/Hartmann). Clip coordinate i is p·column(i),
// so the planes combine columns of vp.
func FrustumFromViewProjection(vp math.Mat4) Frustum {
	col := func(i int) math.Vec4 {
		return math.Vec4{X: vp[0][i], Y: vp[1][i], Z: vp[2][i], W: vp[3][i]}
	}
	c0, c1, c2, c3 := col(0), col(1), col(2), col(3)

	var f Frustum
	f.Planes[0] = normalizePlane(c3.X+c0.X, c3.Y+c0.Y, c3.Z+c0.Z, c3.W+c0.W)
	f.Planes[1] = normalizePlane(c3.X-c0.X, c3.Y-c0.Y, c3.Z-c0.Z, c3.W-c0.W)
	f.Planes[2] = normalizePlane(c3.X+c1.X, c3.Y+c1.Y, c3.Z+c1.Z, c3.W+c1.W)
	f.Planes[3] = normalizePlane(c3.X-c1.X, c3.Y-c1.Y, c3.Z-c1.Z, c3.W-c1.W)
	f.Planes[4] = normalizePlane(c3.X+c2.X, c3.Y+c2.Y, c3.Z+c2.Z, c3.W+c2.W)
	f.Planes[5] = normalizePlane(c3.X-c2.X, c3.Y-c2.Y, c3.Z-c2.Z, c3.W-c2.W)
	return f
}

func normalizePlane(a, b, c, d float32) Plane {
	l := math.Vec3{X: a, Y: b, Z: c}.Length()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: math.Vec3{X: a / l, Y: b / l, Z: c / l}, D: d / l}
}

// Intersects reports false only when box lies entirely outside one plane.
func (f *Frustum) Intersects(box AABB) bool {
	for _, p := range f.Planes {
		// corner furthest along the plane normal
		pv := box.Max
		if p.Normal.X < 0 {
			pv.X = box.Min.X
		}
		if p.Normal.Y < 0 {
			pv.Y = box.Min.Y
		}
		if p.Normal.Z < 0 {
			pv.Z = box.Min.Z
		}
		if p.DistanceTo(pv) < 0 {
			return false
		}
	}
	return true
}
