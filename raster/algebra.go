package raster

import (
	"errors"
	"fmt"
	"strings"

	zarr "github.com/qri-io/zarr-raster"
	"gonum.org/v1/gonum/floats"
)

// Op is an elementwise arithmetic operator
type Op int

const (
	Add Op = iota + 1
	Sub
	Mul
	Div
)

var opNames = map[Op]string{
	Add: "PLUS",
	Sub: "MINUS",
	Mul: "TIMES",
	Div: "DIVIDEDBY",
}

func (op Op) String() string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

func (op Op) validate() error {
	if _, ok := opNames[op]; !ok {
		return fmt.Errorf("%w: operator %s", ErrInvalidParameter, op)
	}
	return nil
}

// ParseOp reads an operator from one of "add", "sub", "mul", "div", or the
// names Op.String returns
func ParseOp(s string) (Op, error) {
	switch strings.ToLower(s) {
	case "add", "plus", "+":
		return Add, nil
	case "sub", "minus", "-":
		return Sub, nil
	case "mul", "times", "*":
		return Mul, nil
	case "div", "dividedby", "/":
		return Div, nil
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrInvalidParameter, s)
}

// Combine writes a op b to out one row at a time. All three rasters must
// share dimensions. Division by zero saturates at the largest value out's
// kind can hold.
func Combine(a, b, out *Raster, op Op) error {
	if err := op.validate(); err != nil {
		return err
	}
	if err := a.sameShape(b, out); err != nil {
		return err
	}

	var (
		rowA, rowB []float64
		err        error
	)
	for y := 0; y < a.ny; y++ {
		s := Row(y, a.nx)
		if rowA, err = a.Read(s, rowA); err != nil {
			return err
		}
		if rowB, err = b.Read(s, rowB); err != nil {
			return err
		}
		switch op {
		case Add:
			floats.Add(rowA, rowB)
		case Sub:
			floats.Sub(rowA, rowB)
		case Mul:
			floats.Mul(rowA, rowB)
		case Div:
			ceil := out.kind.Max()
			for i, d := range rowB {
				if d == 0 {
					rowA[i] = ceil
				} else {
					rowA[i] /= d
				}
			}
		}
		if err := out.Write(s, rowA); err != nil {
			return err
		}
	}
	return nil
}

// CombineScalar writes in op v to out one row at a time
func CombineScalar(in, out *Raster, op Op, v float64) error {
	if err := op.validate(); err != nil {
		return err
	}
	if op == Div && v == 0 {
		return ErrDivideByZero
	}
	if err := in.sameShape(out); err != nil {
		return err
	}

	var (
		row []float64
		err error
	)
	for y := 0; y < in.ny; y++ {
		s := Row(y, in.nx)
		if row, err = in.Read(s, row); err != nil {
			return err
		}
		switch op {
		case Add:
			floats.AddConst(v, row)
		case Sub:
			floats.AddConst(-v, row)
		case Mul:
			floats.Scale(v, row)
		case Div:
			for i := range row {
				row[i] /= v
			}
		}
		if err := out.Write(s, row); err != nil {
			return err
		}
	}
	return nil
}

// Apply creates a raster named after the expression, like "a_PLUS_b", of a's
// kind and dimensions in g, and fills it with Combine
func Apply(g *zarr.Group, a, b *Raster, op Op) (*Raster, error) {
	if err := a.sameShape(b); err != nil {
		return nil, err
	}
	return apply(g, a, op, fmt.Sprintf("%s_%s_%s", a.name, op, b.name), func(out *Raster) error {
		return Combine(a, b, out, op)
	})
}

// ApplyScalar creates a raster named like "a_TIMES_val" in g and fills it
// with CombineScalar
func ApplyScalar(g *zarr.Group, a *Raster, op Op, v float64) (*Raster, error) {
	if op == Div && v == 0 {
		return nil, ErrDivideByZero
	}
	return apply(g, a, op, fmt.Sprintf("%s_%s_val", a.name, op), func(out *Raster) error {
		return CombineScalar(a, out, op, v)
	})
}

func apply(g *zarr.Group, like *Raster, op Op, name string, fill func(out *Raster) error) (*Raster, error) {
	if err := op.validate(); err != nil {
		return nil, err
	}
	out, err := Create(g, name, like.kind, like.nx, like.ny, WithLayoutOf(like))
	if err != nil {
		return nil, err
	}
	if err := fill(out); err != nil {
		return nil, errors.Join(err, out.Destroy())
	}
	return out, nil
}
