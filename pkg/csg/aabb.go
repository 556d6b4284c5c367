package csg

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// AABB is an axis-aligned bounding box. Every AABB produced by this
// package is a cube: Min is the low corner and Side is the edge
// length along all three axes, so the high corner is Min + Side in
// each component.
type AABB struct {
	Min  v3.Vec
	Side float64
}

// Max returns the box's high corner.
func (b AABB) Max() v3.Vec {
	return v3.Vec{X: b.Min.X + b.Side, Y: b.Min.Y + b.Side, Z: b.Min.Z + b.Side}
}

// unionAABB returns the smallest cube enclosing both a and b: the
// componentwise min/max of their corners, widened to a cube by taking
// the largest of the three resulting axis extents as the side.
func unionAABB(a, b AABB) AABB {
	aMax, bMax := a.Max(), b.Max()

	min := v3.Vec{
		X: math.Min(a.Min.X, b.Min.X),
		Y: math.Min(a.Min.Y, b.Min.Y),
		Z: math.Min(a.Min.Z, b.Min.Z),
	}
	max := v3.Vec{
		X: math.Max(aMax.X, bMax.X),
		Y: math.Max(aMax.Y, bMax.Y),
		Z: math.Max(aMax.Z, bMax.Z),
	}
	side := math.Max(max.X-min.X, math.Max(max.Y-min.Y, max.Z-min.Z))
	return AABB{Min: min, Side: side}
}

// transformAABB returns the smallest cube enclosing m applied to
// every point of box. For an affine m this equals the classic
// column-by-column projection trick; computing it by mapping the
// box's eight corners and taking their componentwise extrema gives
// the same exact result without needing raw access to m's elements.
func transformAABB(box AABB, m sdf.M44) AABB {
	lo, hi := box.Min, box.Max()

	var corners [8]v3.Vec
	i := 0
	for _, x := range [2]float64{lo.X, hi.X} {
		for _, y := range [2]float64{lo.Y, hi.Y} {
			for _, z := range [2]float64{lo.Z, hi.Z} {
				corners[i] = m.MulPosition(v3.Vec{X: x, Y: y, Z: z})
				i++
			}
		}
	}

	min, max := corners[0], corners[0]
	for _, c := range corners[1:] {
		min.X, max.X = math.Min(min.X, c.X), math.Max(max.X, c.X)
		min.Y, max.Y = math.Min(min.Y, c.Y), math.Max(max.Y, c.Y)
		min.Z, max.Z = math.Min(min.Z, c.Z), math.Max(max.Z, c.Z)
	}

	side := math.Max(max.X-min.X, math.Max(max.Y-min.Y, max.Z-min.Z))
	return AABB{Min: min, Side: side}
}
