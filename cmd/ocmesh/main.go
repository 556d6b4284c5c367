// Command ocmesh converts a CSG scene description into an indexed OBJ
// triangle mesh: ocmesh <input.csg> <output.obj>.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/chazu/ocmesh/internal/dsl"
	"github.com/chazu/ocmesh/pkg/objmesh"
	"github.com/chazu/ocmesh/pkg/octree"
)

// precision is the refinement floor passed to octree.BuildFromScene, as
// a fraction of the scene's bounding box side: voxels straddling a
// surface subdivide only while their edge exceeds it. spec.md's CLI contract
// takes no precision flag, so this is the library's fixed default.
const precision = 1.0 / 64

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if len(args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <input.csg> <output.obj>\n", filenameOf(args))
		return 1
	}

	in, err := os.Open(args[1])
	if err != nil {
		log.Printf("ocmesh: opening input: %v", err)
		return 2
	}
	defer in.Close()

	out, err := os.Create(args[2])
	if err != nil {
		log.Printf("ocmesh: opening output: %v", err)
		return 3
	}
	defer out.Close()

	scene, _, err := dsl.Parse(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ocmesh: %v\n", err)
		return 4
	}

	oct := octree.BuildFromScene(scene, precision)

	if err := objmesh.Write(out, oct); err != nil {
		log.Printf("ocmesh: writing output: %v", err)
		return 3
	}

	return 0
}

func filenameOf(args []string) string {
	if len(args) == 0 {
		return "ocmesh"
	}
	return args[0]
}
