// Package geom holds the unit conversions and rectilinear geometry the
// resizer core and the Steiner service share. Everything here is pure
// and stateless: DBU<->meter conversion and Manhattan-grid arithmetic.
package geom

import "math"

// Point is an integer DBU coordinate.
type Point struct {
	X, Y int64
}

// Rect is an axis-aligned rectangle in DBU, inclusive of its bounds.
type Rect struct {
	MinX, MinY, MaxX, MaxY int64
}

// Empty reports whether the rectangle has no area (degenerate core).
func (r Rect) Empty() bool {
	return r.MaxX <= r.MinX || r.MaxY <= r.MinY
}

// Contains reports whether p lies within the rectangle, bounds inclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Manhattan returns the L1 distance between two points.
func Manhattan(a, b Point) int64 {
	return absInt64(a.X-b.X) + absInt64(a.Y-b.Y)
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// ClosestPointInRect clamps p into r. If r is empty, p is returned unchanged
// -- a degenerate core never forces a placement to move.
func ClosestPointInRect(r Rect, p Point) Point {
	if r.Empty() {
		return p
	}
	return Point{
		X: clamp(p.X, r.MinX, r.MaxX),
		Y: clamp(p.Y, r.MinY, r.MaxY),
	}
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DbuPerMicron is the tech-unit scale factor; the fake harness and most
// demo configurations use 1000 (1 DBU == 1 nanometer).
type DbuPerMicron int64

// MetersToDbu truncates, matching the source engine's integer placement
// coordinates.
func (u DbuPerMicron) MetersToDbu(meters float64) int64 {
	return int64(meters * float64(u) * 1e6)
}

// DbuToMeters is the inverse conversion, used whenever a public API
// reports lengths or separations back to the caller.
func (u DbuPerMicron) DbuToMeters(dbu int64) float64 {
	return float64(dbu) / (float64(u) * 1e6)
}

// LengthMeters converts a DBU wire-branch length to meters using a
// pre-resolved scale factor; a thin wrapper so callers outside this
// package never hand-roll the division.
func LengthMeters(dbu int64, u DbuPerMicron) float64 {
	return u.DbuToMeters(dbu)
}

// FuzzyEqual compares two floats with an absolute tolerance appropriate
// for circuit quantities (capacitances in farads, times in seconds).
func FuzzyEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// FuzzyGreaterEqual is the area-budget comparison: true when a is
// greater than or equal to b within tol.
func FuzzyGreaterEqual(a, b, tol float64) bool {
	return a >= b-tol
}

const defaultTol = 1e-12

// FuzzyEqualDefault uses a tolerance suitable for default-scale farad/second
// quantities (1e-12, i.e. one pF or one ps).
func FuzzyEqualDefault(a, b float64) bool {
	return FuzzyEqual(a, b, defaultTol)
}
