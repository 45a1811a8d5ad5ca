package raster

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// saltPepperWhite is the value "salt" noise sets samples to, capped at the
// largest value of the output kind
const saltPepperWhite = 15000

// rowMap streams in to out row by row, passing each row through fn. in and
// out may be the same raster.
func rowMap(in, out *Raster, fn func(row []float64)) error {
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
		fn(row)
		if err := out.Write(s, row); err != nil {
			return err
		}
	}
	return nil
}

// Threshold zeroes every sample of r below value, in place
func Threshold(r *Raster, value float64) error {
	return rowMap(r, r, func(row []float64) {
		for i, v := range row {
			if v < value {
				row[i] = 0
			}
		}
	})
}

// Scale writes mult*(v-offset) for every sample v of in to out, truncated
// toward zero and floored at zero
func Scale(in, out *Raster, offset, mult float64) error {
	return rowMap(in, out, func(row []float64) {
		for i, v := range row {
			row[i] = max(0, math.Trunc(mult*(v-offset)))
		}
	})
}

// BitShift multiplies every sample of in by 2^bits, or divides by it when
// right is set, and writes the result to out
func BitShift(in, out *Raster, bits int, right bool) error {
	if bits < 0 {
		return fmt.Errorf("%w: negative shift %d", ErrInvalidParameter, bits)
	}
	f := math.Ldexp(1, bits)
	if right {
		f = 1 / f
	}
	return rowMap(in, out, func(row []float64) {
		for i := range row {
			row[i] *= f
		}
	})
}

// AddSaltPepper writes in to out with impulse noise added. For each sample a
// draw p from rng below or at low sets it to zero, and a draw at or above
// 1-low sets it to white: 15000, or the largest value out's kind holds if
// that is smaller.
func AddSaltPepper(in, out *Raster, low float64, rng *rand.Rand) error {
	if low < 0 || low > 0.5 || math.IsNaN(low) {
		return fmt.Errorf("%w: noise probability %v, must be within [0, 0.5]", ErrInvalidParameter, low)
	}
	if rng == nil {
		return fmt.Errorf("%w: nil random source", ErrInvalidParameter)
	}
	high := 1 - low
	white := min(saltPepperWhite, out.kind.Max())
	return rowMap(in, out, func(row []float64) {
		for i := range row {
			switch p := rng.Float64(); {
			case p <= low:
				row[i] = 0
			case p >= high:
				row[i] = white
			}
		}
	})
}

// Copy writes slice s of in to the top left corner of out
func Copy(in *Raster, s Slice, out *Raster) error {
	if err := s.Within(in.nx, in.ny); err != nil {
		return err
	}
	if s.DX > out.nx || s.DY > out.ny {
		return fmt.Errorf("%w: %s does not fit %s", ErrBadSlice, s, out)
	}

	var (
		row []float64
		err error
	)
	for y := 0; y < s.DY; y++ {
		if row, err = in.Read(Slice{X0: s.X0, Y0: s.Y0 + y, DX: s.DX, DY: 1}, row); err != nil {
			return err
		}
		if err := out.Write(Slice{X0: 0, Y0: y, DX: s.DX, DY: 1}, row); err != nil {
			return err
		}
	}
	return nil
}

// Set overwrites every sample of r in s with value
func Set(r *Raster, s Slice, value float64) error {
	if err := s.Within(r.nx, r.ny); err != nil {
		return err
	}
	row := make([]float64, s.DX)
	for i := range row {
		row[i] = value
	}
	for y := s.Y0; y < s.Y0+s.DY; y++ {
		if err := r.Write(Slice{X0: s.X0, Y0: y, DX: s.DX, DY: 1}, row); err != nil {
			return err
		}
	}
	return nil
}
