// ABOUTME: 3D orientation and spherical coordinate math for spatial audio
// ABOUTME: Vectors, quaternions, rotation matrices and azimuth/elevation/distance
// Package geom provides the geometry used to place listeners and sources.
//
// Axes follow a left-handed convention: x points right, y points up and
// z points forward. Angles passed to Euler helpers are radians unless the
// function name says Degrees; azimuth and elevation are always degrees.
//
// Every function is a pure operation on value types. Degenerate input
// (zero vectors, parallel vectors, non-orthogonal bases) produces a
// well-defined result instead of an error, so the functions are safe to call
// from a real-time audio callback.
//
// Example:
//
//	q := geom.QuatFromEuler(0, math.Pi/2, 0) // yaw 90° to the right
//	v := q.Rotate(geom.Forward)            // ≈ (1, 0, 0)
//	aed := geom.AedFromVector(v)           // azimuth 90, elevation 0, distance 1
package geom
