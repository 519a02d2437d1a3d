// ABOUTME: Three component vector type and helpers
// ABOUTME: Magnitude, normalization, products and plane projection
package geom

import (
	"fmt"
	"math"
)

// Epsilon is the magnitude below which a vector is treated as zero
const Epsilon = 1e-8

// Vector3 is a position or direction (x=right, y=up, z=forward)
type Vector3 struct {
	X, Y, Z float64
}

var (
	// Zero is the zero vector
	Zero = Vector3{}
	// Forward is the unit z axis
	Forward = Vector3{0, 0, 1}
	// Up is the unit y axis
	Up = Vector3{0, 1, 0}
	// Right is the unit x axis
	Right = Vector3{1, 0, 0}
)

// Vec creates a vector from components
func Vec(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// Add returns v + o
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * s
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

// Neg returns -v
func (v Vector3) Neg() Vector3 {
	return Vector3{-v.X, -v.Y, -v.Z}
}

// Dot returns the dot product
func (v Vector3) Dot(o Vector3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the cross product v × o
func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Magnitude returns the Euclidean length
func (v Vector3) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// MagSquared returns the squared length, for comparisons without a sqrt
func (v Vector3) MagSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Normalized returns a unit vector in the same direction.
// Vectors shorter than Epsilon normalize to the zero vector.
func (v Vector3) Normalized() Vector3 {
	mag := v.Magnitude()
	if mag < Epsilon {
		return Zero
	}
	return Vector3{v.X / mag, v.Y / mag, v.Z / mag}
}

// Normalize normalizes v in place
func (v *Vector3) Normalize() {
	*v = v.Normalized()
}

// ClampMagnitude scales v down to max when it is longer; shorter vectors are returned unchanged
func (v Vector3) ClampMagnitude(max float64) Vector3 {
	mag := v.Magnitude()
	if mag > max {
		return v.Scale(max / mag)
	}
	return v
}

// Distance returns |v - o|
func (v Vector3) Distance(o Vector3) float64 {
	return v.Sub(o).Magnitude()
}

// Lerp interpolates linearly between v and o
func (v Vector3) Lerp(o Vector3, t float64) Vector3 {
	return v.Add(o.Sub(v).Scale(t))
}

// Angle returns the angle between a and b in radians, 0 if either is degenerate
func Angle(a, b Vector3) float64 {
	denom := a.Magnitude() * b.Magnitude()
	if denom < Epsilon {
		return 0
	}
	cos := a.Dot(b) / denom
	// acos is undefined just outside [-1, 1]
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}

// ProjectOntoPlane removes the component of v along the unit plane normal
func ProjectOntoPlane(v, unitNormal Vector3) Vector3 {
	return unitNormal.Cross(v).Cross(unitNormal)
}

// RotateByVectors rotates v into the frame described by forward and up
func RotateByVectors(forward, up, v Vector3) Vector3 {
	right := up.Cross(forward).Normalized()
	return Vector3{
		right.X*v.X + up.X*v.Y + forward.X*v.Z,
		right.Y*v.X + up.Y*v.Y + forward.Y*v.Z,
		right.Z*v.X + up.Z*v.Y + forward.Z*v.Z,
	}
}

// VectorFromEulerDegrees returns the forward vector for pitch (x) and yaw (y) in degrees
func VectorFromEulerDegrees(pitch, yaw float64) Vector3 {
	x := DegToRad(pitch)
	y := DegToRad(yaw)
	return Vector3{math.Sin(y) * math.Cos(x), -math.Sin(x), math.Cos(y) * math.Cos(x)}
}

// String formats the vector for logs
func (v Vector3) String() string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v.X, v.Y, v.Z)
}

// DegToRad converts degrees to radians
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
