// ABOUTME: Azimuth/elevation/distance spherical coordinates
// ABOUTME: Conversions between Cartesian vectors and listener-relative directions
package geom

import (
	"fmt"
	"math"
)

// Aed is a spherical coordinate: azimuth and elevation in degrees, distance in vector units.
// Positive azimuth is to the right, positive elevation is up.
type Aed struct {
	Azimuth   float64
	Elevation float64
	Distance  float64
}

// AedFromVector converts a vector to azimuth/elevation/distance.
// The zero vector maps to the zero Aed.
func AedFromVector(v Vector3) Aed {
	return Aed{
		Azimuth:   RadToDeg(math.Atan2(v.X, v.Z)),
		Elevation: RadToDeg(math.Atan2(v.Y, math.Sqrt(v.X*v.X+v.Z*v.Z))),
		Distance:  v.Magnitude(),
	}
}

// Vector converts back to Cartesian coordinates
func (a Aed) Vector() Vector3 {
	azi := DegToRad(a.Azimuth)
	ele := DegToRad(a.Elevation)
	cosEle := math.Cos(ele)
	return Vector3{
		a.Distance * math.Sin(azi) * cosEle,
		a.Distance * math.Sin(ele),
		a.Distance * math.Cos(azi) * cosEle,
	}
}

// VectorFromAziEle returns the unit vector for azimuth and elevation in degrees
func VectorFromAziEle(azimuth, elevation float64) Vector3 {
	return Aed{Azimuth: azimuth, Elevation: elevation, Distance: 1}.Vector()
}

// AedFromQuat returns where source sits relative to a listener at listenerPos facing listener
func AedFromQuat(listener Quat, source, listenerPos Vector3) Aed {
	rel := source.Sub(listenerPos)
	anti := Quat{-listener.X, -listener.Y, -listener.Z, listener.W}
	return AedFromVector(anti.Rotate(rel))
}

// String formats the coordinate for logs
func (a Aed) String() string {
	return fmt.Sprintf("az %.1f° el %.1f° d %.2f", a.Azimuth, a.Elevation, a.Distance)
}
