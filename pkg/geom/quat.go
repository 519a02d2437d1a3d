// ABOUTME: Quaternion rotations
// ABOUTME: Hamilton product, vector rotation, Euler and basis conversions
package geom

import (
	"fmt"
	"math"
)

// gimbalThreshold is the |w*x - z*y| above which Euler extraction uses the pole branch
const gimbalThreshold = 0.49

// Quat is a rotation quaternion (x, y, z vector part, w scalar part)
type Quat struct {
	X, Y, Z, W float64
}

// Identity returns the identity rotation
func Identity() Quat {
	return Quat{W: 1}
}

// Add returns the component-wise sum (not normalized)
func (q Quat) Add(o Quat) Quat {
	return Quat{q.X + o.X, q.Y + o.Y, q.Z + o.Z, q.W + o.W}
}

// Sub returns the component-wise difference (not normalized)
func (q Quat) Sub(o Quat) Quat {
	return Quat{q.X - o.X, q.Y - o.Y, q.Z - o.Z, q.W - o.W}
}

// Scale multiplies every component by s (not normalized)
func (q Quat) Scale(s float64) Quat {
	return Quat{q.X * s, q.Y * s, q.Z * s, q.W * s}
}

// Dot returns the four dimensional dot product
func (q Quat) Dot(o Quat) float64 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

// Norm returns the quaternion length
func (q Quat) Norm() float64 {
	return math.Sqrt(q.Dot(q))
}

// Normalized returns q scaled to unit length. A zero quaternion becomes the identity.
func (q Quat) Normalized() Quat {
	n := q.Norm()
	if n < Epsilon {
		return Identity()
	}
	return q.Scale(1 / n)
}

// Conjugate negates the vector part
func (q Quat) Conjugate() Quat {
	return Quat{-q.X, -q.Y, -q.Z, q.W}
}

// Inverse returns the opposite rotation of a unit quaternion as (x, y, z, -w)
func (q Quat) Inverse() Quat {
	return Quat{q.X, q.Y, q.Z, -q.W}
}

// MulUnnormalized returns the plain Hamilton product a*b
func MulUnnormalized(a, b Quat) Quat {
	return Quat{
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z,
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y,
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X,
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W,
	}
}

// Mul returns the Hamilton product a*b normalized to a unit quaternion
func Mul(a, b Quat) Quat {
	return MulUnnormalized(a, b).Normalized()
}

// Mul composes q with o (q applied after o)
func (q Quat) Mul(o Quat) Quat {
	return Mul(q, o)
}

// Rotate rotates v by q
func (q Quat) Rotate(v Vector3) Vector3 {
	p := MulUnnormalized(q, Quat{v.X, v.Y, v.Z, 0})
	r := MulUnnormalized(p, q.Conjugate())
	return Vector3{r.X, r.Y, r.Z}
}

// AntiRotate applies the inverse rotation of q to v
func (q Quat) AntiRotate(v Vector3) Vector3 {
	p := MulUnnormalized(q.Conjugate(), Quat{v.X, v.Y, v.Z, 0})
	r := MulUnnormalized(p, q)
	return Vector3{r.X, r.Y, r.Z}
}

// QuatFromEuler builds a rotation from pitch (x), yaw (y) and roll (z) in radians.
// Roll is applied first, then pitch, then yaw.
func QuatFromEuler(pitch, yaw, roll float64) Quat {
	sX, cX := math.Sincos(pitch * 0.5)
	sY, cY := math.Sincos(yaw * 0.5)
	sZ, cZ := math.Sincos(roll * 0.5)

	return Quat{
		W: cX*cY*cZ + sX*sY*sZ,
		X: sX*cY*cZ + cX*sY*sZ,
		Y: cX*sY*cZ - sX*cY*sZ,
		Z: cX*cY*sZ - sX*sY*cZ,
	}
}

// Euler returns (pitch, yaw, roll) in radians.
// Near the poles pitch is pinned to ±π/2 and the remaining rotation goes to yaw.
func (q Quat) Euler() (pitch, yaw, roll float64) {
	d := q.W*q.X - q.Z*q.Y

	if math.Abs(d) > gimbalThreshold {
		yaw = math.Copysign(2*math.Atan2(q.Y, q.W), d)
		pitch = math.Copysign(math.Pi/2, d)
	} else {
		yaw = math.Atan2(q.W*q.Y+q.X*q.Z, 0.5-(q.X*q.X+q.Y*q.Y))
		pitch = math.Asin(2 * d)
	}

	roll = math.Atan2(q.W*q.Z+q.X*q.Y, 0.5-(q.X*q.X+q.Z*q.Z))
	return pitch, yaw, roll
}

// QuatFromAxisAngle rotates by radians around axis
func QuatFromAxisAngle(axis Vector3, radians float64) Quat {
	a := axis.Normalized()
	s, c := math.Sincos(radians * 0.5)
	return Quat{a.X * s, a.Y * s, a.Z * s, c}
}

// AxisAngle returns the rotation axis and angle of a unit quaternion
func (q Quat) AxisAngle() (Vector3, float64) {
	q = q.Normalized()
	if q.W < 0 {
		q = q.Scale(-1)
	}
	angle := 2 * math.Acos(math.Min(1, q.W))
	s := math.Sqrt(math.Max(0, 1-q.W*q.W))
	if s < Epsilon {
		return Up, 0
	}
	return Vector3{q.X / s, q.Y / s, q.Z / s}, angle
}

// Slerp interpolates along the shortest arc between a and b
func Slerp(a, b Quat, t float64) Quat {
	cos := a.Dot(b)
	if cos < 0 {
		b = b.Scale(-1)
		cos = -cos
	}
	if cos > 0.9995 {
		return a.Add(b.Sub(a).Scale(t)).Normalized()
	}
	theta := math.Acos(cos)
	sin := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sin
	wb := math.Sin(t*theta) / sin
	return a.Scale(wa).Add(b.Scale(wb))
}

// Forward returns the rotated z axis
func (q Quat) Forward() Vector3 {
	return Vector3{
		2 * (q.X*q.Z + q.W*q.Y),
		2 * (q.Y*q.Z - q.W*q.X),
		1 - 2*(q.X*q.X+q.Y*q.Y),
	}
}

// Up returns the rotated y axis
func (q Quat) Up() Vector3 {
	return Vector3{
		2 * (q.X*q.Y - q.W*q.Z),
		1 - 2*(q.X*q.X+q.Z*q.Z),
		2 * (q.Y*q.Z + q.W*q.X),
	}
}

// Right returns the rotated x axis
func (q Quat) Right() Vector3 {
	return Vector3{
		1 - 2*(q.Y*q.Y+q.Z*q.Z),
		2 * (q.X*q.Y + q.W*q.Z),
		2 * (q.X*q.Z - q.W*q.Y),
	}
}

// QuatFromForwardUp builds a rotation from an orthogonal forward and up pair.
// Non-orthogonal input gives an un-normalized result.
func QuatFromForwardUp(forward, up Vector3) Quat {
	right := up.Cross(forward)
	return QuatFromMatrix(Matrix3{
		{right.X, up.X, forward.X},
		{right.Y, up.Y, forward.Y},
		{right.Z, up.Z, forward.Z},
	})
}

// FromToRotation returns the shortest arc rotation taking from onto to
func FromToRotation(from, to Vector3) Quat {
	u := from.Cross(to)
	if math.Abs(u.X)+math.Abs(u.Y)+math.Abs(u.Z) < 0.0001 {
		// parallel or anti-parallel
		u = from
	}
	u = u.Normalized()

	normDot := 0.0
	if mag := from.Magnitude() * to.Magnitude(); mag > Epsilon {
		normDot = from.Dot(to) / mag
	}

	// abs keeps rounding noise from producing a negative sqrt argument
	sinth := math.Sqrt(math.Abs(0.5 * (1 - normDot)))

	return Quat{
		X: u.X * sinth,
		Y: u.Y * sinth,
		Z: u.Z * sinth,
		W: math.Sqrt(0.5 * (1 + normDot)),
	}
}

// QuatFromOpenGL converts a right-handed OpenGL orientation into this convention
func QuatFromOpenGL(x, y, z, w float64) Quat {
	return Quat{x, y, -z, -w}
}

// String formats the quaternion for logs
func (q Quat) String() string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f, %.4f)", q.X, q.Y, q.Z, q.W)
}
