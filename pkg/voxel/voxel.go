// Package voxel implements the packed 64-bit voxel representation: a
// Morton-coded location, a subdivision level, and a material label
// bit-packed into a single word, plus the navigation operations
// (children, same-size neighbours, corners) the octree builder and
// mesh emitter are built on.
package voxel

import (
	"fmt"

	"github.com/chazu/ocmesh/pkg/morton"
)

// Precision is the number of bits per coordinate axis (P in the
// design notes). The grid domain is [0, 2^Precision - 1]^3.
const Precision = 13

// Bit widths of the three packed fields, morton in the high bits down
// to material in the low bits: morton:39 | level:4 | material:21.
const (
	locationBits = 3 * Precision // 39
	levelBits    = 4             // ceil(log2(Precision+1))
	materialBits = 64 - locationBits - levelBits
)

// MaxCoordinate is the largest coordinate component a voxel in this
// grid can hold.
const MaxCoordinate = 1<<Precision - 1

// MaxLevel is the level of the root voxel.
const MaxLevel = Precision

// MaxMaterial is the largest representable material label.
const MaxMaterial = 1<<materialBits - 1

const (
	locationMask = uint64(1)<<locationBits - 1
	levelMask    = uint64(1)<<levelBits - 1
	materialMask = uint64(1)<<materialBits - 1
)

// Material is a user-supplied voxel label. Two values are reserved:
// Unknown means "undecided, subdivide further"; Void means "outside
// all objects". User materials start at 2.
type Material uint32

// Reserved material labels.
const (
	Unknown Material = 0
	Void    Material = 1
)

// Voxel is a packed (morton, level, material) triple. The zero Voxel
// is the "void voxel" sentinel used by Neighbor to mean "no neighbour
// exists across this face".
type Voxel uint64

func pack(mortonCode uint64, level uint8, material Material) Voxel {
	return Voxel(mortonCode&locationMask<<(levelBits+materialBits) |
		uint64(level)&levelMask<<materialBits |
		uint64(material)&materialMask)
}

// New builds a voxel directly from its packed fields.
func New(mortonCode uint64, level uint8, material Material) Voxel {
	if level > MaxLevel {
		panic(fmt.Sprintf("voxel: level %d exceeds max level %d", level, MaxLevel))
	}
	if material > MaxMaterial {
		panic(fmt.Sprintf("voxel: material %d exceeds max material %d", material, MaxMaterial))
	}
	return pack(mortonCode, level, material)
}

// Root returns the single root voxel: level = Precision, coordinates
// (0,0,0), material Unknown.
func Root() Voxel {
	return New(0, MaxLevel, Unknown)
}

// IsVoid reports whether v is the zero voxel, the sentinel Neighbor
// returns when no neighbour exists across the requested face.
func (v Voxel) IsVoid() bool {
	return v == 0
}

// Level returns the subdivision depth: 0 is unit-cube sized, Precision
// is the root.
func (v Voxel) Level() uint8 {
	return uint8(uint64(v) >> materialBits & levelMask)
}

// Height returns the voxel's edge length exponent (log2 of Size). It
// equals Level: both count up from 0 at a unit leaf to Precision at
// the root, since the packed level field directly drives the
// per-child morton increment in Children, which only works out to
// tile the parent's cube when size doubles with level.
func (v Voxel) Height() uint8 {
	return v.Level()
}

// Material returns the voxel's material label.
func (v Voxel) Material() Material {
	return Material(uint64(v) & materialMask)
}

// Morton returns the voxel's raw interleaved location code
// (not its packed code; see Code).
func (v Voxel) Morton() uint64 {
	return uint64(v) >> (levelBits + materialBits) & locationMask
}

// Code returns the full 64-bit packed representation.
func (v Voxel) Code() uint64 {
	return uint64(v)
}

// Size returns the voxel's edge length in grid units.
func (v Voxel) Size() uint32 {
	return 1 << v.Height()
}

// Coordinates returns the voxel's low-corner grid coordinates. The low
// Height() bits of each component are always zero in a well-formed
// voxel (alignment to Size()).
func (v Voxel) Coordinates() (x, y, z uint32) {
	return morton.Decode(v.Morton())
}

// WithLevel returns a copy of v with only the level field replaced.
func (v Voxel) WithLevel(level uint8) Voxel {
	return New(v.Morton(), level, v.Material())
}

// WithMaterial returns a copy of v with only the material field replaced.
func (v Voxel) WithMaterial(material Material) Voxel {
	return New(v.Morton(), v.Level(), material)
}

// WithMorton returns a copy of v with only the morton field replaced.
func (v Voxel) WithMorton(mortonCode uint64) Voxel {
	return New(mortonCode, v.Level(), v.Material())
}

// WithCoordinates returns a copy of v with only its location replaced,
// re-deriving the morton field from the given grid coordinates.
func (v Voxel) WithCoordinates(x, y, z uint32) Voxel {
	return New(morton.Encode(x, y, z), v.Level(), v.Material())
}

// Children returns the eight children of v in Z-order. Requires
// v.Height() > 0; undefined (panics) for leaf-sized voxels.
//
// The morton code of the first child equals the parent's; the only
// difference between siblings is the "digit" at the child's own
// height, which can simply be incremented because the lower digits of
// a well-formed location code are already zero.
func (v Voxel) Children() [8]Voxel {
	if v.Height() == 0 {
		panic("voxel: cannot subdivide a zero-height voxel")
	}
	childLevel := v.Level() - 1
	inc := uint64(1) << (3 * uint(childLevel))
	m := v.Morton()
	mat := v.Material()

	var out [8]Voxel
	for i := range out {
		out[i] = New(m, childLevel, mat)
		m += inc
	}
	return out
}

// Face identifies one of the six axis-aligned faces of a voxel's cube.
type Face int

const (
	FacePosX Face = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

// Neighbor returns the hypothetical same-size voxel across the given
// face: same level and material, coordinate shifted by size on the
// positive faces or by one grid unit on the negative faces (the low
// corner is the coordinate origin, so one unit past it is enough to
// identify the neighbouring cell). Returns the void voxel if the shift
// would leave the grid domain.
//
// The result is a search key, not necessarily a voxel that exists in
// any octree.
func (v Voxel) Neighbor(face Face) Voxel {
	x, y, z := v.Coordinates()
	size := v.Size()

	switch face {
	case FacePosX:
		sum := uint64(x) + uint64(size)
		if sum > MaxCoordinate {
			return Voxel(0)
		}
		x = uint32(sum)
	case FaceNegX:
		if x == 0 {
			return Voxel(0)
		}
		x--
	case FacePosY:
		sum := uint64(y) + uint64(size)
		if sum > MaxCoordinate {
			return Voxel(0)
		}
		y = uint32(sum)
	case FaceNegY:
		if y == 0 {
			return Voxel(0)
		}
		y--
	case FacePosZ:
		sum := uint64(z) + uint64(size)
		if sum > MaxCoordinate {
			return Voxel(0)
		}
		z = uint32(sum)
	case FaceNegZ:
		if z == 0 {
			return Voxel(0)
		}
		z--
	default:
		panic(fmt.Sprintf("voxel: unknown face %d", face))
	}

	return New(morton.Encode(x, y, z), v.Level(), v.Material())
}

// Corner is an integer grid-space coordinate of one of a voxel's eight
// corners, in grid units (no scaling applied).
type Corner struct {
	X, Y, Z uint32
}

// Corners returns the eight integer corners of v's cube in Z-order,
// matching the child enumeration: LBB, RBB, LTB, RTB, LBF, RBF, LTF,
// RTF, where L/R is x-/x+, B/T is y-/y+, B/F is z-/z+.
func (v Voxel) Corners() [8]Corner {
	x, y, z := v.Coordinates()
	size := v.Size()

	var out [8]Corner
	for k := 0; k < 8; k++ {
		dx := uint32(k&1) * size
		dy := uint32((k>>1)&1) * size
		dz := uint32((k>>2)&1) * size
		out[k] = Corner{X: x + dx, Y: y + dy, Z: z + dz}
	}
	return out
}

func (v Voxel) String() string {
	x, y, z := v.Coordinates()
	return fmt.Sprintf("voxel{code=%#016x level=%d mat=%d coords=(%d,%d,%d) size=%d}",
		v.Code(), v.Level(), v.Material(), x, y, z, v.Size())
}
