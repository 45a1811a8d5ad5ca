// Package spectral computes two dimensional discrete Fourier transforms of
// rasters without holding them in memory. A 2D transform is two passes of a
// 1D complex transform, one over every row and one over every column, with
// the intermediate result held in scratch rasters created next to the input
// and removed before the call returns.
package spectral

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	zarr "github.com/qri-io/zarr-raster"
	"github.com/qri-io/zarr-raster/raster"
	"gonum.org/v1/gonum/dsp/fourier"
)

// lowPassDivisor sets the side of the square of high frequencies
// LowPassFilter removes to nx/lowPassDivisor
const lowPassDivisor = 5

// Forward2D writes the 2D DFT of in to outReal and outImag, which must share
// in's dimensions. Rows are transformed first, then columns. The transform
// is not normalized.
func Forward2D(g *zarr.Group, in, outReal, outImag *raster.Raster) (err error) {
	if err := sameShape(in, outReal, outImag); err != nil {
		return err
	}
	nx, ny := in.Dimensions()

	bufRe, bufIm, release, err := scratch(g, in, "BufferReal", "BufferImg")
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, release()) }()

	slog.Debug("forward transform", "raster", in.Name(), "nx", nx, "ny", ny)
	rows := fourier.NewCmplxFFT(nx)
	if err := transformLines(ny, rowAt(nx), in, nil, bufRe, bufIm, rows.Coefficients, 1); err != nil {
		return fmt.Errorf("row pass: %w", err)
	}
	cols := fourier.NewCmplxFFT(ny)
	if err := transformLines(nx, columnAt(ny), bufRe, bufIm, outReal, outImag, cols.Coefficients, 1); err != nil {
		return fmt.Errorf("column pass: %w", err)
	}
	return nil
}

// Inverse2D writes the real part of the inverse 2D DFT of the spectrum held
// in inReal and inImag to out, normalized by nx*ny so that Inverse2D undoes
// Forward2D at any size. Spectra scaled for a fixed divisor must be rescaled
// by the caller. Columns are transformed first, then rows.
func Inverse2D(g *zarr.Group, inReal, out, inImag *raster.Raster) (err error) {
	if err := sameShape(inReal, out, inImag); err != nil {
		return err
	}
	nx, ny := inReal.Dimensions()

	bufRe, bufIm, release, err := scratch(g, inReal, "BufferRealInv", "BufferImgInv")
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, release()) }()

	slog.Debug("inverse transform", "raster", inReal.Name(), "nx", nx, "ny", ny)
	cols := fourier.NewCmplxFFT(ny)
	if err := transformLines(nx, columnAt(ny), inReal, inImag, bufRe, bufIm, cols.Sequence, 1); err != nil {
		return fmt.Errorf("column pass: %w", err)
	}
	rows := fourier.NewCmplxFFT(nx)
	if err := transformLines(ny, rowAt(nx), bufRe, bufIm, out, nil, rows.Sequence, 1/float64(nx*ny)); err != nil {
		return fmt.Errorf("row pass: %w", err)
	}
	return nil
}

// LowPassFilter transforms in into re and im, zeroes a square of side nx/5
// centered in both spectra, and writes the inverse transform to out. Without
// a shift the center of the spectrum holds the highest frequencies. All four
// rasters must share dimensions, which is checked before anything is
// written.
func LowPassFilter(g *zarr.Group, in, re, im, out *raster.Raster) error {
	if err := sameShape(in, re, im, out); err != nil {
		return err
	}
	if err := Forward2D(g, in, re, im); err != nil {
		return err
	}

	nx, ny := in.Dimensions()
	if w := min(nx/lowPassDivisor, ny); w > 0 {
		mask := raster.Slice{X0: (nx - w) / 2, Y0: (ny - w) / 2, DX: w, DY: w}
		slog.Debug("masking spectrum", "raster", in.Name(), "slice", mask)
		for _, r := range []*raster.Raster{re, im} {
			if err := raster.Set(r, mask, 0); err != nil {
				return err
			}
		}
	}

	return Inverse2D(g, re, out, im)
}

// transformLines runs fn over count lines, each addressed by at. Line i is
// read from srcRe, plus srcIm as the imaginary part if it's non-nil. The
// result's real part, scaled, goes to dstRe and its imaginary part to dstIm
// unless dstIm is nil.
func transformLines(count int, at func(i int) raster.Slice, srcRe, srcIm, dstRe, dstIm *raster.Raster, fn func(dst, seq []complex128) []complex128, scale float64) error {
	var (
		re, im   []float64
		seq, res []complex128
		err      error
	)
	for i := 0; i < count; i++ {
		s := at(i)
		if re, err = srcRe.Read(s, re); err != nil {
			return err
		}
		if srcIm != nil {
			if im, err = srcIm.Read(s, im); err != nil {
				return err
			}
		}
		if seq == nil {
			seq = make([]complex128, len(re))
		}
		for j, v := range re {
			if srcIm != nil {
				seq[j] = complex(v, im[j])
			} else {
				seq[j] = complex(v, 0)
			}
		}

		res = fn(res, seq)
		for j, c := range res {
			re[j] = real(c) * scale
		}
		if err := dstRe.Write(s, re); err != nil {
			return err
		}
		if dstIm == nil {
			continue
		}
		if im == nil {
			im = make([]float64, len(res))
		}
		for j, c := range res {
			im[j] = imag(c)
		}
		if err := dstIm.Write(s, im); err != nil {
			return err
		}
	}
	return nil
}

func rowAt(nx int) func(int) raster.Slice {
	return func(y int) raster.Slice { return raster.Row(y, nx) }
}

func columnAt(ny int) func(int) raster.Slice {
	return func(x int) raster.Slice { return raster.Column(x, ny) }
}

// scratch creates a pair of uniquely named Float32 rasters shaped like like,
// and a release func that removes them
func scratch(g *zarr.Group, like *raster.Raster, rePrefix, imPrefix string) (re, im *raster.Raster, release func() error, err error) {
	nx, ny := like.Dimensions()
	id := uuid.Must(uuid.NewV7()).String()

	if re, err = raster.Create(g, rePrefix+"-"+id, raster.Float32, nx, ny, raster.WithLayoutOf(like)); err != nil {
		return nil, nil, nil, err
	}
	if im, err = raster.Create(g, imPrefix+"-"+id, raster.Float32, nx, ny, raster.WithLayoutOf(like)); err != nil {
		return nil, nil, nil, errors.Join(err, re.Destroy())
	}
	slog.Debug("created scratch rasters", "real", re.Name(), "imag", im.Name())

	release = func() error {
		slog.Debug("releasing scratch rasters", "real", re.Name(), "imag", im.Name())
		return errors.Join(re.Destroy(), im.Destroy())
	}
	return re, im, release, nil
}

func sameShape(r *raster.Raster, others ...*raster.Raster) error {
	nx, ny := r.Dimensions()
	for _, o := range others {
		ox, oy := o.Dimensions()
		if ox != nx || oy != ny {
			return fmt.Errorf("%w: %s is %dx%d, %s is %dx%d", raster.ErrShapeMismatch, r.Name(), nx, ny, o.Name(), ox, oy)
		}
	}
	return nil
}
