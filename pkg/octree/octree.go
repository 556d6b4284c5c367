// Package octree implements the linear octree: a sorted flat sequence
// of packed voxels built either from an arbitrary classification
// predicate or, specifically, by querying a csg.Scene. Sorting by
// voxel code doubles as a pre-order Z-curve traversal, which is what
// makes same-size neighbour lookup a binary search instead of a tree
// walk.
package octree

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/ocmesh/pkg/csg"
	"github.com/chazu/ocmesh/pkg/voxel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// debugAssertionsEnabled gates the assertion described in Build: a
// predicate that still returns Unknown at maximum depth. Release
// builds would flip this off and let the postcondition check (absent
// here, left to callers/tests) catch it instead.
var debugAssertionsEnabled = true

// Octree is a sorted flat sequence of voxels. The zero value is not
// usable; construct one with Build or BuildFromScene.
type Octree struct {
	voxels []voxel.Voxel
}

// Voxels returns the octree's voxels in sorted order. The returned
// slice aliases the octree's internal storage and must not be
// mutated.
func (o *Octree) Voxels() []voxel.Voxel {
	return o.voxels
}

// Len returns the number of voxels in the tree.
func (o *Octree) Len() int {
	return len(o.voxels)
}

// Build performs the single-pass in-place subdivision described by
// spec.md §4.5.1: starting from the root voxel, it repeatedly calls
// predicate on each array slot; an Unknown verdict on a non-leaf
// voxel subdivides that slot into eight children (the first overwrites
// the slot, the rest are appended), and the loop re-examines the same
// index. Any other verdict stamps the slot with that material. The
// array is left unsorted until every slot has settled, then sorted
// once by code.
//
// predicate must depend only on its argument; it must not read the
// Octree under construction, which is in an inconsistent (unsorted,
// possibly still-Unknown) state until Build returns.
func Build(predicate func(voxel.Voxel) voxel.Material) *Octree {
	data := []voxel.Voxel{voxel.Root()}

	for i := 0; i < len(data); i++ {
		v := data[i]
		m := predicate(v)

		if v.Height() > 0 && m == voxel.Unknown {
			children := v.Children()
			data[i] = children[0]
			data = append(data, children[1:]...)
			i--
			continue
		}

		if m == voxel.Unknown && debugAssertionsEnabled {
			panic(fmt.Sprintf("octree: predicate failed to classify %v at maximum depth", v))
		}
		data[i] = v.WithMaterial(m)
	}

	sort.Slice(data, func(i, j int) bool { return data[i].Code() < data[j].Code() })
	return &Octree{voxels: data}
}

// BuildFromScene builds an octree by classifying each candidate voxel
// against sc's top-level objects in registration order, per spec.md
// §4.5.2. precision is the refinement floor, expressed as a fraction of
// the scene's bounding box side, and must lie in (0, 1]: a voxel that
// straddles a surface is subdivided only while its edge is longer than
// precision times that side, so no voxel edge is shorter than half of
// it.
func BuildFromScene(sc *csg.Scene, precision float64) *Octree {
	if precision <= 0 || precision > 1 {
		panic(fmt.Sprintf("octree: precision %v out of range (0,1]", precision))
	}

	bb := sc.BoundingBox()
	scale := bb.Side / float64(uint64(1)<<voxel.Precision)
	tops := sc.TopLevels()

	classify := func(v voxel.Voxel) voxel.Material {
		gx, gy, gz := v.Coordinates()
		world := v3.Vec{
			X: float64(gx)*scale + bb.Min.X,
			Y: float64(gy)*scale + bb.Min.Y,
			Z: float64(gz)*scale + bb.Min.Z,
		}
		worldSide := float64(v.Size()) * scale
		centre := v3.Vec{X: world.X + worldSide/2, Y: world.Y + worldSide/2, Z: world.Z + worldSide/2}
		diagonal := math.Sqrt(3) * worldSide

		for _, obj := range tops {
			d := float64(obj.Distance(centre))
			// Strictly greater than the precision floor: a voxel
			// already at the floor (worldSide == precision*bb.Side,
			// the root when precision == 1) must not subdivide, even
			// straddling, since its children would fall under the
			// requested minimum edge length.
			if math.Abs(d) < diagonal/2 && worldSide > precision*bb.Side {
				return voxel.Unknown
			}
			if d <= 0 {
				return obj.Material()
			}
		}
		return voxel.Void
	}

	return Build(classify)
}

// contains reports whether the grid point (x,y,z) falls within e's cube.
func contains(e voxel.Voxel, x, y, z uint32) bool {
	ex, ey, ez := e.Coordinates()
	size := e.Size()
	return x >= ex && x < ex+size && y >= ey && y < ey+size && z >= ez && z < ez+size
}

// Neighbor returns the voxel in o whose spatial extent touches the
// given face of v and contains v.Neighbor(face)'s coordinate, per
// spec.md §4.5.3. It forms the hypothetical same-size neighbour and
// performs a lower_bound search over the sorted codes; an exact code
// match covers the common case (a same-size neighbour exists), and
// falling back one position covers a coarser neighbour, whose own
// code sorts just before the point it nonetheless contains. Returns
// ok=false if v sits on the grid boundary in that direction (the
// same-size candidate is itself void) or no stored voxel contains it.
func (o *Octree) Neighbor(v voxel.Voxel, face voxel.Face) (_ voxel.Voxel, ok bool) {
	candidate := v.Neighbor(face)
	if candidate.IsVoid() {
		return voxel.Voxel(0), false
	}

	cx, cy, cz := candidate.Coordinates()
	idx := sort.Search(len(o.voxels), func(i int) bool {
		return o.voxels[i].Code() >= candidate.Code()
	})

	if idx < len(o.voxels) && contains(o.voxels[idx], cx, cy, cz) {
		return o.voxels[idx], true
	}
	if idx > 0 && contains(o.voxels[idx-1], cx, cy, cz) {
		return o.voxels[idx-1], true
	}
	return voxel.Voxel(0), false
}

// NeighborEdge returns the neighbour of the neighbour of v along f1
// then f2, per spec.md §4.5.3.
func (o *Octree) NeighborEdge(v voxel.Voxel, f1, f2 voxel.Face) (voxel.Voxel, bool) {
	n1, ok := o.Neighbor(v, f1)
	if !ok {
		return voxel.Voxel(0), false
	}
	return o.Neighbor(n1, f2)
}
