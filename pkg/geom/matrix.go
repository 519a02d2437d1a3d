// ABOUTME: Row-major 3x3 rotation matrices
// ABOUTME: Conversions between matrices, quaternions, basis vectors and Euler angles
package geom

import "math"

// Matrix3 is a row-major 3x3 matrix. The columns of a rotation are right, up and forward.
type Matrix3 [3][3]float64

// Identity3 returns the identity matrix
func Identity3() Matrix3 {
	return Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Mul returns m * o
func (m Matrix3) Mul(o Matrix3) Matrix3 {
	var r Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j] + m[i][2]*o[2][j]
		}
	}
	return r
}

// MulVector returns m * v
func (m Matrix3) MulVector(v Vector3) Vector3 {
	return Vector3{
		m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Transpose swaps rows and columns
func (m Matrix3) Transpose() Matrix3 {
	var r Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// Matrix returns the rotation matrix of q
func (q Quat) Matrix() Matrix3 {
	r := q.Right()
	u := q.Up()
	f := q.Forward()
	return Matrix3{
		{r.X, u.X, f.X},
		{r.Y, u.Y, f.Y},
		{r.Z, u.Z, f.Z},
	}
}

// QuatFromMatrix extracts a quaternion with Shepperd's method.
// Each radicand is clamped at zero so rounding noise never reaches sqrt.
func QuatFromMatrix(m Matrix3) Quat {
	w := 0.5 * math.Sqrt(math.Max(0, 1+m[0][0]+m[1][1]+m[2][2]))
	x := 0.5 * math.Sqrt(math.Max(0, 1+m[0][0]-m[1][1]-m[2][2]))
	y := 0.5 * math.Sqrt(math.Max(0, 1-m[0][0]+m[1][1]-m[2][2]))
	z := 0.5 * math.Sqrt(math.Max(0, 1-m[0][0]-m[1][1]+m[2][2]))

	return Quat{
		X: math.Copysign(x, m[2][1]-m[1][2]),
		Y: math.Copysign(y, m[0][2]-m[2][0]),
		Z: math.Copysign(z, m[1][0]-m[0][1]),
		W: w,
	}
}

// MatrixFromVectors builds the rotation matrix for a forward and up pair
func MatrixFromVectors(forward, up Vector3) Matrix3 {
	right := up.Cross(forward)
	return Matrix3{
		{right.X, up.X, forward.X},
		{right.Y, up.Y, forward.Y},
		{right.Z, up.Z, forward.Z},
	}
}

// FromToRotationMatrix returns the shortest arc rotation from one vector to
// another as an axis-angle (Rodrigues) matrix in right-handed coordinates.
// The inputs are in the left-handed engine frame and get their y and z
// swapped first, so the result rotates (x, z, y) ordered vectors. Use
// FromToRotation for a rotation in the engine frame.
func FromToRotationMatrix(from, to Vector3) Matrix3 {
	fr := Vector3{from.X, from.Z, from.Y}
	t := Vector3{to.X, to.Z, to.Y}

	mag := fr.Magnitude() * t.Magnitude()
	if mag < Epsilon {
		return Identity3()
	}

	u := fr.Cross(t)
	if u.Magnitude() < Epsilon {
		// Parallel inputs: any axis not parallel to fr will do
		u = Vector3{fr.Y, fr.Z, fr.X}
	}
	u = u.Normalized()

	c := fr.Dot(t) / mag
	s := math.Sqrt(math.Max(0, 1-c*c))
	k := 1 - c

	return Matrix3{
		{c + k*u.X*u.X, -s*u.Z + k*u.X*u.Y, s*u.Y + k*u.X*u.Z},
		{s*u.Z + k*u.X*u.Y, c + k*u.Y*u.Y, -s*u.X + k*u.Y*u.Z},
		{-s*u.Y + k*u.X*u.Z, s*u.X + k*u.Y*u.Z, c + k*u.Z*u.Z},
	}
}

// MatrixFromEulerDegrees builds a rotation matrix from pitch, yaw and roll in degrees
func MatrixFromEulerDegrees(pitch, yaw, roll float64) Matrix3 {
	sX, cX := math.Sincos(DegToRad(pitch))
	sY, cY := math.Sincos(DegToRad(yaw))
	sZ, cZ := math.Sincos(DegToRad(roll))

	return Matrix3{
		{cY*cZ + sY*sX*sZ, -cY*sZ + sY*sX*cZ, sY * cX},
		{cX * sZ, cX * cZ, -sX},
		{-sY*cZ + cY*sX*sZ, sY*sZ + cY*sX*cZ, cY * cX},
	}
}
