// Package dsl implements a hand-rolled lexer and recursive-descent
// parser for the line-oriented CSG scene description language
// consumed by the mesh builder: object definitions, material
// declarations and build directives over a small expression language
// of primitives, boolean combinators and affine transforms.
package dsl

import (
	"fmt"
	"io"

	"github.com/chazu/ocmesh/pkg/csg"
	"github.com/chazu/ocmesh/pkg/voxel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ParseError reports a lexical or syntactic problem in a DSL
// document, with the 1-based source line it occurred on.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Build names one of a scene's top-level objects together with the
// material name it was registered under, in the order its "build"
// directive appeared in the source.
type Build struct {
	Object   string
	Material string
}

type parser struct {
	lex *lexer
	cur token

	scene     *csg.Scene
	objects   map[string]csg.Handle
	materials map[string]voxel.Material
	nextMat   voxel.Material
	builds    []Build
}

// Parse reads a CSG DSL document and returns the scene it describes
// plus its ordered build list. A malformed document yields a
// *ParseError describing the first problem found, and the scene is
// left unreturned (nil); a failure reading r is returned wrapped with
// %w, not as a ParseError.
func Parse(r io.Reader) (*csg.Scene, []Build, error) {
	lx, err := newLexer(r)
	if err != nil {
		return nil, nil, fmt.Errorf("dsl: reading input: %w", err)
	}

	p := &parser{
		lex:       lx,
		scene:     csg.New(),
		objects:   make(map[string]csg.Handle),
		materials: make(map[string]voxel.Material),
		nextMat:   voxel.Void + 1,
	}
	p.advance()

	for p.cur.kind != tokEOF {
		if err := p.statement(); err != nil {
			return nil, nil, err
		}
	}
	return p.scene, p.builds, nil
}

func (p *parser) advance() {
	p.cur = p.lex.next()
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &ParseError{Line: p.cur.line, Message: fmt.Sprintf(format, args...)}
}

// expect consumes the current token if it has the given kind,
// otherwise reports a parse error naming what was expected.
func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.cur.kind != kind {
		return token{}, p.errorf("expected %s, found %q", what, p.cur.text)
	}
	t := p.cur
	p.advance()
	return t, nil
}

func (p *parser) statement() error {
	switch p.cur.kind {
	case tokObject:
		return p.objectDef()
	case tokMaterial:
		return p.materialDef()
	case tokBuild:
		return p.buildDir()
	default:
		return p.errorf("expected object, material or build, found %q", p.cur.text)
	}
}

func (p *parser) objectDef() error {
	p.advance() // "object"
	name, err := p.expect(tokIdent, "an object name")
	if err != nil {
		return err
	}
	if _, err := p.expect(tokEquals, "'='"); err != nil {
		return err
	}
	h, err := p.objectExpr()
	if err != nil {
		return err
	}
	p.objects[name.text] = h
	return nil
}

func (p *parser) materialDef() error {
	p.advance() // "material"
	name, err := p.expect(tokIdent, "a material name")
	if err != nil {
		return err
	}
	if _, exists := p.materials[name.text]; exists {
		return &ParseError{Line: name.line, Message: fmt.Sprintf("material %q already declared", name.text)}
	}
	p.materials[name.text] = p.nextMat
	p.nextMat++
	return nil
}

func (p *parser) buildDir() error {
	line := p.cur.line
	p.advance() // "build"
	objName, err := p.expect(tokIdent, "an object name")
	if err != nil {
		return err
	}
	matName, err := p.expect(tokIdent, "a material name")
	if err != nil {
		return err
	}

	h, ok := p.objects[objName.text]
	if !ok {
		return &ParseError{Line: line, Message: fmt.Sprintf("undefined object %q", objName.text)}
	}
	mat, ok := p.materials[matName.text]
	if !ok {
		return &ParseError{Line: line, Message: fmt.Sprintf("undefined material %q", matName.text)}
	}

	p.scene.TopLevel(h, mat)
	p.builds = append(p.builds, Build{Object: objName.text, Material: matName.text})
	return nil
}

func (p *parser) objectExpr() (csg.Handle, error) {
	switch p.cur.kind {
	case tokIdent:
		name := p.cur
		p.advance()
		h, ok := p.objects[name.text]
		if !ok {
			return csg.Handle{}, &ParseError{Line: name.line, Message: fmt.Sprintf("undefined object %q", name.text)}
		}
		return h, nil
	case tokPrimitive:
		return p.primitiveExpr()
	case tokBinary:
		return p.binaryExpr()
	case tokTransform:
		return p.transformExpr()
	default:
		return csg.Handle{}, p.errorf("expected an object expression, found %q", p.cur.text)
	}
}

func (p *parser) number() (float64, error) {
	t, err := p.expect(tokNumber, "a number")
	if err != nil {
		return 0, err
	}
	return t.num, nil
}

func (p *parser) vec3() (v3.Vec, error) {
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return v3.Vec{}, err
	}
	x, err := p.number()
	if err != nil {
		return v3.Vec{}, err
	}
	if _, err := p.expect(tokComma, "','"); err != nil {
		return v3.Vec{}, err
	}
	y, err := p.number()
	if err != nil {
		return v3.Vec{}, err
	}
	if _, err := p.expect(tokComma, "','"); err != nil {
		return v3.Vec{}, err
	}
	z, err := p.number()
	if err != nil {
		return v3.Vec{}, err
	}
	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return v3.Vec{}, err
	}
	return v3.Vec{X: x, Y: y, Z: z}, nil
}

// scaleArg accepts either a bare NUMBER (uniform scale) or a vec3
// (per-axis scale), per the "scale" production in spec.md §6.1.
func (p *parser) scaleArg() (v3.Vec, error) {
	if p.cur.kind == tokLBrace {
		return p.vec3()
	}
	n, err := p.number()
	if err != nil {
		return v3.Vec{}, err
	}
	return v3.Vec{X: n, Y: n, Z: n}, nil
}

func (p *parser) primitiveExpr() (csg.Handle, error) {
	name := p.cur.text
	p.advance()
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return csg.Handle{}, err
	}
	n, err := p.number()
	if err != nil {
		return csg.Handle{}, err
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return csg.Handle{}, err
	}

	switch name {
	case "sphere":
		return p.scene.Sphere(n), nil
	case "cube":
		return p.scene.Cube(n), nil
	default:
		panic(fmt.Sprintf("dsl: unreachable primitive %q", name))
	}
}

func (p *parser) binaryExpr() (csg.Handle, error) {
	name := p.cur.text
	p.advance()
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return csg.Handle{}, err
	}
	a, err := p.objectExpr()
	if err != nil {
		return csg.Handle{}, err
	}
	if _, err := p.expect(tokComma, "','"); err != nil {
		return csg.Handle{}, err
	}
	b, err := p.objectExpr()
	if err != nil {
		return csg.Handle{}, err
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return csg.Handle{}, err
	}

	switch name {
	case "unite":
		return p.scene.Union(a, b), nil
	case "intersect":
		return p.scene.Intersection(a, b), nil
	case "subtract":
		return p.scene.Difference(a, b), nil
	default:
		panic(fmt.Sprintf("dsl: unreachable binary combinator %q", name))
	}
}

// transformExpr parses "scale", "rotate", "translate" and their nine
// per-axis variants. The three general forms each have their own
// argument shape; every per-axis form shares the single "NUMBER ,
// object_expr" shape, per spec.md §6.1.
func (p *parser) transformExpr() (csg.Handle, error) {
	name := p.cur.text
	p.advance()
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return csg.Handle{}, err
	}

	var (
		m     sdf.M44
		child csg.Handle
		err   error
	)

	switch name {
	case "scale":
		v, e := p.scaleArg()
		if e != nil {
			return csg.Handle{}, e
		}
		requireNonZeroScale(v)
		if _, e := p.expect(tokComma, "','"); e != nil {
			return csg.Handle{}, e
		}
		child, err = p.objectExpr()
		m = sdf.Scale3d(v)

	case "rotate":
		angle, e := p.number()
		if e != nil {
			return csg.Handle{}, e
		}
		if _, e := p.expect(tokComma, "','"); e != nil {
			return csg.Handle{}, e
		}
		axis, e := p.vec3()
		if e != nil {
			return csg.Handle{}, e
		}
		if _, e := p.expect(tokComma, "','"); e != nil {
			return csg.Handle{}, e
		}
		child, err = p.objectExpr()
		m = sdf.Rotate3d(axis, angle)

	case "translate":
		v, e := p.vec3()
		if e != nil {
			return csg.Handle{}, e
		}
		if _, e := p.expect(tokComma, "','"); e != nil {
			return csg.Handle{}, e
		}
		child, err = p.objectExpr()
		m = sdf.Translate3d(v)

	case "xscale", "yscale", "zscale",
		"xrotate", "yrotate", "zrotate",
		"xtranslate", "ytranslate", "ztranslate":
		n, e := p.number()
		if e != nil {
			return csg.Handle{}, e
		}
		if _, e := p.expect(tokComma, "','"); e != nil {
			return csg.Handle{}, e
		}
		if name == "xscale" || name == "yscale" || name == "zscale" {
			requireNonZeroScaleFactor(n)
		}
		child, err = p.objectExpr()
		m = axisMatrix(name, n)

	default:
		panic(fmt.Sprintf("dsl: unreachable transform %q", name))
	}
	if err != nil {
		return csg.Handle{}, err
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return csg.Handle{}, err
	}

	return p.scene.Transform(child, m), nil
}

// requireNonZeroScale panics if any component of v is zero: a zero
// scale factor is a domain precondition violation per spec.md §7, the
// same programmer-error category as subdividing a leaf voxel
// (voxel.go) or combining handles across scenes (csg.go).
func requireNonZeroScale(v v3.Vec) {
	if v.X == 0 || v.Y == 0 || v.Z == 0 {
		panic(fmt.Sprintf("dsl: zero scale factor in %v", v))
	}
}

// requireNonZeroScaleFactor is requireNonZeroScale specialized to the
// single-axis scale forms, whose only user-supplied component is n.
func requireNonZeroScaleFactor(n float64) {
	if n == 0 {
		panic("dsl: zero scale factor")
	}
}

func axisMatrix(name string, n float64) sdf.M44 {
	switch name {
	case "xscale":
		return sdf.Scale3d(v3.Vec{X: n, Y: 1, Z: 1})
	case "yscale":
		return sdf.Scale3d(v3.Vec{X: 1, Y: n, Z: 1})
	case "zscale":
		return sdf.Scale3d(v3.Vec{X: 1, Y: 1, Z: n})
	case "xrotate":
		return sdf.RotateX(n)
	case "yrotate":
		return sdf.RotateY(n)
	case "zrotate":
		return sdf.RotateZ(n)
	case "xtranslate":
		return sdf.Translate3d(v3.Vec{X: n})
	case "ytranslate":
		return sdf.Translate3d(v3.Vec{Y: n})
	case "ztranslate":
		return sdf.Translate3d(v3.Vec{Z: n})
	default:
		panic(fmt.Sprintf("dsl: unreachable axis transform %q", name))
	}
}
