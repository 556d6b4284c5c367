// Package objmesh exports a linear octree as an indexed OBJ triangle
// mesh: each voxel contributes its eight corners as vertices and
// twelve triangles (two per face) referencing one of six shared face
// normals. No coordinate scaling is applied; output is in grid units.
package objmesh

import (
	"bufio"
	"fmt"
	"io"

	"github.com/chazu/ocmesh/pkg/octree"
)

// normals holds the six face normals in emission order: -X, +X, -Y,
// +Y, -Z, +Z.
var normals = [6][3]int{
	{-1, 0, 0},
	{1, 0, 0},
	{0, -1, 0},
	{0, 1, 0},
	{0, 0, -1},
	{0, 0, 1},
}

// faceTriangles[f] lists the two triangles making up face f, each as
// three corner indices into voxel.Voxel.Corners() (LBB, RBB, LTB,
// RTB, LBF, RBF, LTF, RTF), wound so (v1-v0)x(v2-v0) points along
// normals[f].
var faceTriangles = [6][2][3]int{
	{{0, 6, 2}, {0, 4, 6}}, // -X
	{{1, 3, 7}, {1, 7, 5}}, // +X
	{{0, 1, 5}, {0, 5, 4}}, // -Y
	{{2, 7, 3}, {2, 6, 7}}, // +Y
	{{0, 3, 1}, {0, 2, 3}}, // -Z
	{{4, 5, 7}, {4, 7, 6}}, // +Z
}

// Write emits oct's voxels as an OBJ mesh: all v lines, then all vn
// lines, then all f lines, in that order, matching spec.md's output
// section ordering. I/O errors are wrapped and returned immediately;
// nothing is retried or partially flushed.
func Write(w io.Writer, oct *octree.Octree) error {
	bw := bufio.NewWriter(w)
	voxels := oct.Voxels()

	for _, v := range voxels {
		for _, c := range v.Corners() {
			if _, err := fmt.Fprintf(bw, "v %d %d %d\n", c.X, c.Y, c.Z); err != nil {
				return fmt.Errorf("objmesh: writing vertex: %w", err)
			}
		}
	}

	for _, n := range normals {
		if _, err := fmt.Fprintf(bw, "vn %d %d %d\n", n[0], n[1], n[2]); err != nil {
			return fmt.Errorf("objmesh: writing normal: %w", err)
		}
	}

	for i := range voxels {
		base := i * 8
		for face, tris := range faceTriangles {
			nidx := face + 1
			for _, tri := range tris {
				_, err := fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n",
					base+tri[0]+1, nidx,
					base+tri[1]+1, nidx,
					base+tri[2]+1, nidx)
				if err != nil {
					return fmt.Errorf("objmesh: writing face: %w", err)
				}
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("objmesh: flushing output: %w", err)
	}
	return nil
}
