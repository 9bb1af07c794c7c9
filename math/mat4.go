package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Mat4 is a row-major 4x4 matrix used with row vectors: p' = p * M.
// Translation lives in row 3. Uploaded to GLSL untransposed it reads as the
// equivalent column-vector matrix.
type Mat4 [4][4]float32

func Mat4Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Mul returns m followed by other (apply m first).
func (m Mat4) Mul(other Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[i][k] * other[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// TransformPoint applies m to p with w = 1 and divides by the resulting w.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return p.ToVec4(1).MulMat(m).ToVec3DivW()
}

// TransformDir applies the upper 3x3 of m to d.
func (m Mat4) TransformDir(d Vec3) Vec3 {
	return d.ToVec4(0).MulMat(m).ToVec3()
}

func (m Mat4) Transpose() Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i][j] = m[j][i]
		}
	}
	return out
}

// Inverse returns the inverse of m, or the identity when m is singular.
func (m Mat4) Inverse() Mat4 {
	g := m.ToMgl()
	if g.Det() == 0 {
		return Mat4Identity()
	}
	return Mat4FromMgl(g.Inv())
}

// ToMgl converts m to the equivalent column-major, column-vector mgl32 matrix.
// The two layouts share the same flat element order.
func (m Mat4) ToMgl() mgl32.Mat4 {
	var g mgl32.Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			g[i*4+j] = m[i][j]
		}
	}
	return g
}

// Mat4FromMgl is the inverse of ToMgl.
func Mat4FromMgl(g mgl32.Mat4) Mat4 {
	var m Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			m[i][j] = g[i*4+j]
		}
	}
	return m
}

func Mat4Translation(t Vec3) Mat4 {
	m := Mat4Identity()
	m[3][0], m[3][1], m[3][2] = t.X, t.Y, t.Z
	return m
}

func Mat4Scale(s Vec3) Mat4 {
	m := Mat4Identity()
	m[0][0], m[1][1], m[2][2] = s.X, s.Y, s.Z
	return m
}

func Mat4RotationY(angle float32) Mat4 {
	c := float32(math.Cos(float64(angle)))
	s := float32(math.Sin(float64(angle)))
	return Mat4{
		{c, 0, -s, 0},
		{0, 1, 0, 0},
		{s, 0, c, 0},
		{0, 0, 0, 1},
	}
}

// Mat4Perspective builds an OpenGL clip-space projection (NDC z in [-1, 1]).
func Mat4Perspective(fovY, aspect, near, far float32) Mat4 {
	f := 1 / float32(math.Tan(float64(fovY)/2))
	var m Mat4
	m[0][0] = f / aspect
	m[1][1] = f
	m[2][2] = -(far + near) / (far - near)
	m[2][3] = -1
	m[3][2] = -(2 * far * near) / (far - near)
	return m
}

// Mat4LookAt builds a right-handed view matrix looking from eye at target.
func Mat4LookAt(eye, target, up Vec3) Mat4 {
	z := eye.Sub(target).Normalize()
	x := up.Cross(z).Normalize()
	y := z.Cross(x)

	return Mat4{
		{x.X, y.X, z.X, 0},
		{x.Y, y.Y, z.Y, 0},
		{x.Z, y.Z, z.Z, 0},
		{-x.Dot(eye), -y.Dot(eye), -z.Dot(eye), 1},
	}
}
