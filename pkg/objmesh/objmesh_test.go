package objmesh

import (
	"bufio"
	"bytes"
	"errors"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/chazu/ocmesh/pkg/octree"
	"github.com/chazu/ocmesh/pkg/voxel"
)

type parsedVertex struct{ x, y, z int }

// parseOBJ splits an OBJ document into its v, vn and f lines, parsing
// each line's fields (minus the leading tag) as integers; an f line
// yields its vertex and normal indices interleaved.
func parseOBJ(t *testing.T, data []byte) (verts []parsedVertex, normals [][3]int, faces [][6]int) {
	t.Helper()
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) != 4 {
				t.Fatalf("malformed v line: %q", line)
			}
			x, _ := strconv.Atoi(fields[1])
			y, _ := strconv.Atoi(fields[2])
			z, _ := strconv.Atoi(fields[3])
			verts = append(verts, parsedVertex{x, y, z})
		case "vn":
			if len(fields) != 4 {
				t.Fatalf("malformed vn line: %q", line)
			}
			x, _ := strconv.Atoi(fields[1])
			y, _ := strconv.Atoi(fields[2])
			z, _ := strconv.Atoi(fields[3])
			normals = append(normals, [3]int{x, y, z})
		case "f":
			if len(fields) != 4 {
				t.Fatalf("malformed f line: %q", line)
			}
			var row [6]int
			for i, f := range fields[1:] {
				parts := strings.Split(f, "//")
				if len(parts) != 2 {
					t.Fatalf("malformed f reference %q in line %q", f, line)
				}
				vi, _ := strconv.Atoi(parts[0])
				ni, _ := strconv.Atoi(parts[1])
				row[i*2] = vi
				row[i*2+1] = ni
			}
			faces = append(faces, row)
		default:
			t.Fatalf("unexpected OBJ line %q", line)
		}
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scanning OBJ output: %v", err)
	}
	return verts, normals, faces
}

func singleVoxelOctree(material voxel.Material) *octree.Octree {
	return octree.Build(func(v voxel.Voxel) voxel.Material { return material })
}

func TestWriteEmitsExpectedCountsForSingleVoxel(t *testing.T) {
	oct := singleVoxelOctree(3)

	var buf bytes.Buffer
	if err := Write(&buf, oct); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	verts, normals, faces := parseOBJ(t, buf.Bytes())
	if len(verts) != 8 {
		t.Fatalf("vertex count = %d, want 8", len(verts))
	}
	if len(normals) != 6 {
		t.Fatalf("normal count = %d, want 6", len(normals))
	}
	if len(faces) != 12 {
		t.Fatalf("face count = %d, want 12", len(faces))
	}
}

func TestWriteVertexOrderMatchesVoxelCorners(t *testing.T) {
	oct := singleVoxelOctree(3)
	root := oct.Voxels()[0]
	corners := root.Corners()

	var buf bytes.Buffer
	if err := Write(&buf, oct); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	verts, _, _ := parseOBJ(t, buf.Bytes())

	for i, c := range corners {
		got := verts[i]
		if got.x != int(c.X) || got.y != int(c.Y) || got.z != int(c.Z) {
			t.Fatalf("vertex %d = %+v, want corner %+v", i, got, c)
		}
	}
}

func TestWriteNormalsAreAxisAlignedInFixedOrder(t *testing.T) {
	oct := singleVoxelOctree(3)

	var buf bytes.Buffer
	if err := Write(&buf, oct); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	_, normals, _ := parseOBJ(t, buf.Bytes())

	want := [6][3]int{
		{-1, 0, 0}, {1, 0, 0},
		{0, -1, 0}, {0, 1, 0},
		{0, 0, -1}, {0, 0, 1},
	}
	if !slices.Equal(normals, want[:]) {
		t.Fatalf("normals = %v, want %v", normals, want)
	}
}

// TestWriteFacesArePlanarAndOutwardFacing checks, for every face's two
// triangles, that all three referenced vertices lie on the plane the
// face's normal implies (e.g. the -X face's vertices all share the
// cube's minimum X), which is only true if the triangle/normal
// indices line up correctly.
func TestWriteFacesArePlanarAndOutwardFacing(t *testing.T) {
	oct := singleVoxelOctree(3)
	root := oct.Voxels()[0]
	corners := root.Corners()
	lo := int(corners[0].X)
	hi := lo + int(root.Size())

	var buf bytes.Buffer
	if err := Write(&buf, oct); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	verts, _, faces := parseOBJ(t, buf.Bytes())

	axisOf := func(normalIdx int) (axis int, value int) {
		switch normalIdx {
		case 1: // -X
			return 0, lo
		case 2: // +X
			return 0, hi
		case 3: // -Y
			return 1, lo
		case 4: // +Y
			return 1, hi
		case 5: // -Z
			return 2, lo
		case 6: // +Z
			return 2, hi
		}
		t.Fatalf("unexpected normal index %d", normalIdx)
		return 0, 0
	}

	coord := func(v parsedVertex, axis int) int {
		switch axis {
		case 0:
			return v.x
		case 1:
			return v.y
		default:
			return v.z
		}
	}

	for fi, f := range faces {
		vi1, ni1, vi2, ni2, vi3, ni3 := f[0], f[1], f[2], f[3], f[4], f[5]
		if ni1 != ni2 || ni2 != ni3 {
			t.Fatalf("face %d references mixed normals %d,%d,%d", fi, ni1, ni2, ni3)
		}
		axis, want := axisOf(ni1)
		for _, vi := range []int{vi1, vi2, vi3} {
			v := verts[vi-1]
			if coord(v, axis) != want {
				t.Fatalf("face %d vertex %d = %+v, not on plane axis=%d value=%d", fi, vi, v, axis, want)
			}
		}
	}
}

// TestWriteTriangleWindingMatchesOutwardNormal checks, for every
// triangle, that (v1-v0)x(v2-v0) is a positive multiple of the face's
// declared normal -- i.e. the winding order actually produces an
// outward-facing triangle rather than merely lying in the right plane.
func TestWriteTriangleWindingMatchesOutwardNormal(t *testing.T) {
	oct := singleVoxelOctree(3)

	var buf bytes.Buffer
	if err := Write(&buf, oct); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	verts, normals, faces := parseOBJ(t, buf.Bytes())

	for fi, f := range faces {
		vi0, ni0, vi1, _, vi2, _ := f[0], f[1], f[2], f[3], f[4], f[5]
		n := normals[ni0-1]
		v0, v1, v2 := verts[vi0-1], verts[vi1-1], verts[vi2-1]

		e1 := [3]int{v1.x - v0.x, v1.y - v0.y, v1.z - v0.z}
		e2 := [3]int{v2.x - v0.x, v2.y - v0.y, v2.z - v0.z}
		cross := [3]int{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}

		dot := cross[0]*n[0] + cross[1]*n[1] + cross[2]*n[2]
		if dot <= 0 {
			t.Fatalf("face %d: cross(e1,e2)=%v against normal %v, dot=%d, want > 0", fi, cross, n, dot)
		}
	}
}

func TestWriteIndexesAreOneBasedAndPerVoxelOffset(t *testing.T) {
	oct := octree.Build(func(v voxel.Voxel) voxel.Material {
		if v.Level() == voxel.MaxLevel {
			return voxel.Unknown
		}
		return 2
	})
	if oct.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", oct.Len())
	}

	var buf bytes.Buffer
	if err := Write(&buf, oct); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	verts, _, faces := parseOBJ(t, buf.Bytes())

	if len(verts) != 8*8 {
		t.Fatalf("vertex count = %d, want %d", len(verts), 8*8)
	}
	if len(faces) != 8*12 {
		t.Fatalf("face count = %d, want %d", len(faces), 8*12)
	}
	// Each voxel emits 12 faces, which must reference only that voxel's
	// own 8 vertices (1-based, offset by 8 per preceding voxel).
	for fi, f := range faces {
		lo := (fi/12)*8 + 1
		hi := lo + 7
		for _, vi := range []int{f[0], f[2], f[4]} {
			if vi < lo || vi > hi {
				t.Fatalf("face %d vertex index %d out of its voxel's range [%d,%d]", fi, vi, lo, hi)
			}
		}
	}
}

type erroringWriter struct{}

var errWriteFailed = errors.New("objmesh test: simulated write failure")

func (erroringWriter) Write([]byte) (int, error) {
	return 0, errWriteFailed
}

func TestWritePropagatesWriterError(t *testing.T) {
	oct := singleVoxelOctree(3)
	if err := Write(erroringWriter{}, oct); err == nil {
		t.Fatal("Write did not propagate the underlying writer's error")
	}
}
