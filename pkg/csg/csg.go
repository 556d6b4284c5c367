// Package csg implements the Constructive Solid Geometry node algebra:
// a closed set of primitive, boolean and transform node variants,
// owned by a per-scene arena, each exposing a signed-distance function
// and a cubical axis-aligned bounding box. Only the sign of Distance
// and its magnitude relative to a voxel's diagonal are relied upon by
// the octree builder; magnitudes need not be exact Euclidean
// distances (see Cube).
package csg

import (
	"math"

	"github.com/chazu/ocmesh/pkg/voxel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Handle is a stable, non-owning reference to a node inside a Scene's
// arena. A Handle created by one Scene must never be passed to a
// combinator of a different Scene; doing so panics.
type Handle struct {
	scene *Scene
	index int
}

// IsZero reports whether h is the zero Handle (never produced by any
// Scene method; useful as a "no handle" sentinel in callers).
func (h Handle) IsZero() bool {
	return h.scene == nil
}

type kind uint8

const (
	kindSphere kind = iota
	kindCube
	kindUnion
	kindIntersection
	kindDifference
	kindTransform
	kindTopLevel
)

type record struct {
	kind kind

	radius float64 // sphere
	side   float64 // cube

	left, right Handle // union / intersection / difference operands

	child      Handle  // transform / toplevel
	objToWorld sdf.M44 // transform
	worldToObj sdf.M44 // transform, cached inverse

	material voxel.Material // toplevel
}

// Scene owns an append-only arena of CSG nodes plus an ordered
// sequence of top-level objects, each tagged with a material label.
// A Scene is not thread-safe and must not be mutated while an octree
// build is reading it.
type Scene struct {
	records []record
	tops    []Handle
}

// New creates an empty Scene.
func New() *Scene {
	return &Scene{}
}

func (s *Scene) push(r record) Handle {
	s.records = append(s.records, r)
	return Handle{scene: s, index: len(s.records) - 1}
}

func (h Handle) requireScene(s *Scene) {
	if h.scene != s {
		panic("csg: handle belongs to a different scene")
	}
}

func (h Handle) record() record {
	return h.scene.records[h.index]
}

// Sphere creates a sphere of the given radius centred at the origin.
func (s *Scene) Sphere(radius float64) Handle {
	if radius <= 0 {
		panic("csg: sphere radius must be positive")
	}
	return s.push(record{kind: kindSphere, radius: radius})
}

// Cube creates a cube of the given side length centred at the origin.
func (s *Scene) Cube(side float64) Handle {
	if side <= 0 {
		panic("csg: cube side must be positive")
	}
	return s.push(record{kind: kindCube, side: side})
}

func (s *Scene) binary(k kind, a, b Handle) Handle {
	a.requireScene(s)
	b.requireScene(s)
	return s.push(record{kind: k, left: a, right: b})
}

// Union returns the union of a and b: min(distance(a), distance(b)).
func (s *Scene) Union(a, b Handle) Handle { return s.binary(kindUnion, a, b) }

// Intersection returns the intersection of a and b: max(distance(a), distance(b)).
func (s *Scene) Intersection(a, b Handle) Handle { return s.binary(kindIntersection, a, b) }

// Difference returns a minus b: max(distance(a), -distance(b)).
func (s *Scene) Difference(a, b Handle) Handle { return s.binary(kindDifference, a, b) }

// Transform applies the given object-to-world affine matrix to child.
// The world-to-object inverse is computed once here and cached.
func (s *Scene) Transform(child Handle, objectToWorld sdf.M44) Handle {
	child.requireScene(s)
	return s.push(record{
		kind:       kindTransform,
		child:      child,
		objToWorld: objectToWorld,
		worldToObj: objectToWorld.Inverse(),
	})
}

// TopLevel registers child as a top-level object tagged with material
// and appends it to the scene's ordered build list. The returned
// Handle delegates Distance/BoundingBox to child.
func (s *Scene) TopLevel(child Handle, material voxel.Material) Handle {
	child.requireScene(s)
	h := s.push(record{kind: kindTopLevel, child: child, material: material})
	s.tops = append(s.tops, h)
	return h
}

// TopLevels returns the scene's top-level objects in registration
// order; this order is significant (see octree.BuildFromScene, where
// the first object containing a voxel's centre wins).
func (s *Scene) TopLevels() []Handle {
	out := make([]Handle, len(s.tops))
	copy(out, s.tops)
	return out
}

// Material returns the material label of a TopLevel handle; panics if
// h does not refer to a top-level node.
func (h Handle) Material() voxel.Material {
	r := h.record()
	if r.kind != kindTopLevel {
		panic("csg: Material called on a non-toplevel handle")
	}
	return r.material
}

// Distance evaluates the signed distance function of h at p: negative
// inside the solid, positive outside.
func (h Handle) Distance(p v3.Vec) float32 {
	r := h.record()
	switch r.kind {
	case kindSphere:
		return float32(p.Length() - r.radius)
	case kindCube:
		m := math.Max(math.Abs(p.X), math.Max(math.Abs(p.Y), math.Abs(p.Z)))
		return float32(m - r.side/2)
	case kindUnion:
		return minf32(r.left.Distance(p), r.right.Distance(p))
	case kindIntersection:
		return maxf32(r.left.Distance(p), r.right.Distance(p))
	case kindDifference:
		return maxf32(r.left.Distance(p), -r.right.Distance(p))
	case kindTransform:
		local := r.worldToObj.MulPosition(p)
		return r.child.Distance(local)
	case kindTopLevel:
		return r.child.Distance(p)
	default:
		panic("csg: unknown node kind")
	}
}

// BoundingBox returns the axis-aligned cube enclosing h.
func (h Handle) BoundingBox() AABB {
	r := h.record()
	switch r.kind {
	case kindSphere:
		return AABB{Min: v3.Vec{X: -r.radius, Y: -r.radius, Z: -r.radius}, Side: 2 * r.radius}
	case kindCube:
		half := r.side / 2
		return AABB{Min: v3.Vec{X: -half, Y: -half, Z: -half}, Side: r.side}
	case kindUnion, kindIntersection:
		// Intersection's true extent is a subset of this union; the
		// spec treats the combined-corners box as a safe over-approximation.
		return unionAABB(r.left.BoundingBox(), r.right.BoundingBox())
	case kindDifference:
		return r.left.BoundingBox()
	case kindTransform:
		return transformAABB(r.child.BoundingBox(), r.objToWorld)
	case kindTopLevel:
		return r.child.BoundingBox()
	default:
		panic("csg: unknown node kind")
	}
}

// BoundingBox returns the union of the scene's top-level bounding
// boxes. Panics if the scene has no top-level objects.
func (s *Scene) BoundingBox() AABB {
	if len(s.tops) == 0 {
		panic("csg: scene has no top-level objects")
	}
	box := s.tops[0].BoundingBox()
	for _, h := range s.tops[1:] {
		box = unionAABB(box, h.BoundingBox())
	}
	return box
}

func minf32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
