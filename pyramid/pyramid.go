// Package pyramid builds Gaussian and Laplacian image pyramids out of
// rasters by repeated blurring with a 5x5 binomial kernel and resampling by
// a factor of two.
package pyramid

import (
	"errors"
	"fmt"
	"log/slog"

	zarr "github.com/qri-io/zarr-raster"
	"github.com/qri-io/zarr-raster/raster"
	"gonum.org/v1/gonum/floats"
)

const (
	// GaussianPrefix names the levels Gaussian creates, followed by the level
	GaussianPrefix = "GPyramid"
	// LaplacianPrefix names the levels Laplacian creates
	LaplacianPrefix = "LPyramid"
)

// binomialKernel is the 5x5 binomial blur, normalized by 400
var binomialKernel = [5][5]float64{
	{1, 4, 6, 4, 1},
	{4, 16, 24, 16, 4},
	{6, 24, 36, 24, 6},
	{4, 16, 24, 16, 4},
	{1, 4, 6, 4, 1},
}

// kernelGain is what the blur multiplies a sample by. The kernel is applied
// to the one sample under its center rather than to a neighbourhood, so
// blurring reduces to scaling by the sum of its weights, 256/400.
var kernelGain = func() float64 {
	sum := 0.0
	for _, row := range binomialKernel {
		sum += floats.Sum(row[:])
	}
	return sum / 400
}()

// Downsample writes the blurred odd rows and columns of in to out, which must
// be half in's size in each dimension, rounding down. in is not modified.
func Downsample(in, out *raster.Raster) error {
	nx, ny := in.Dimensions()
	ox, oy := out.Dimensions()
	if ox != nx/2 || oy != ny/2 {
		return fmt.Errorf("%w: downsampling %dx%d needs a %dx%d output, got %dx%d", raster.ErrShapeMismatch, nx, ny, nx/2, ny/2, ox, oy)
	}

	var (
		row []float64
		err error
	)
	dst := make([]float64, ox)
	for y := 0; y < oy; y++ {
		if row, err = in.Read(raster.Row(2*y+1, nx), row); err != nil {
			return err
		}
		for x := range dst {
			dst[x] = row[2*x+1] * kernelGain
		}
		if err := out.Write(raster.Row(y, ox), dst); err != nil {
			return err
		}
	}
	return nil
}

// Upsample writes in to out, which must be twice in's size in each
// dimension. Every input sample lands on an odd row and column of out, and
// is then blurred and spread to its even neighbours below and to the right.
// The first row and column of out repeat the blurred first sample row and
// column.
func Upsample(in, out *raster.Raster) error {
	nx, ny := in.Dimensions()
	ox, oy := out.Dimensions()
	if ox != 2*nx || oy != 2*ny {
		return fmt.Errorf("%w: upsampling %dx%d needs a %dx%d output, got %dx%d", raster.ErrShapeMismatch, nx, ny, 2*nx, 2*ny, ox, oy)
	}

	// scatter in onto the odd rows and columns
	var (
		row []float64
		err error
	)
	wide := make([]float64, ox)
	for y := 0; y < ny; y++ {
		if row, err = in.Read(raster.Row(y, nx), row); err != nil {
			return err
		}
		for x, v := range row {
			wide[2*x+1] = v
		}
		if err := out.Write(raster.Row(2*y+1, ox), wide); err != nil {
			return err
		}
	}

	// blur each scattered sample and fill the gaps around it
	for y := 1; y < oy; y += 2 {
		if wide, err = out.Read(raster.Row(y, ox), wide); err != nil {
			return err
		}
		for x := 1; x < ox; x += 2 {
			v := wide[x] * kernelGain
			wide[x] = v
			if x == 1 {
				wide[0] = v
			}
			if x+1 < ox {
				wide[x+1] = v
			}
		}
		rows := []int{y}
		if y == 1 {
			rows = append(rows, 0)
		}
		if y+1 < oy {
			rows = append(rows, y+1)
		}
		for _, ry := range rows {
			if err := out.Write(raster.Row(ry, ox), wide); err != nil {
				return err
			}
		}
	}
	return nil
}

// Gaussian builds an n level Gaussian pyramid over base in g. The returned
// slice holds n+1 rasters: base itself, then Float32 levels named
// GPyramid1 through GPyramidN, each half the size of the one before. If any
// level can't be built the levels already created are removed.
func Gaussian(g *zarr.Group, base *raster.Raster, n int) ([]*raster.Raster, error) {
	return build(g, base, n, GaussianPrefix, func(nx, ny int) (int, int) { return nx / 2, ny / 2 }, Downsample)
}

// Laplacian builds an n level pyramid over base in g by repeated
// upsampling. The returned slice holds base followed by Float32 levels named
// LPyramid1 through LPyramidN, each twice the size of the one before.
func Laplacian(g *zarr.Group, base *raster.Raster, n int) ([]*raster.Raster, error) {
	return build(g, base, n, LaplacianPrefix, func(nx, ny int) (int, int) { return 2 * nx, 2 * ny }, Upsample)
}

func build(g *zarr.Group, base *raster.Raster, n int, prefix string, size func(nx, ny int) (int, int), step func(in, out *raster.Raster) error) (levels []*raster.Raster, err error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", raster.ErrInvalidLevelCount, n)
	}

	levels = []*raster.Raster{base}
	defer func() {
		if err == nil {
			return
		}
		for _, l := range levels[1:] {
			err = errors.Join(err, l.Destroy())
		}
		levels = nil
	}()

	for i := 1; i <= n; i++ {
		prev := levels[i-1]
		nx, ny := size(prev.Dimensions())
		name := fmt.Sprintf("%s%d", prefix, i)
		slog.Debug("building pyramid level", "name", name, "nx", nx, "ny", ny)

		level, err := raster.Create(g, name, raster.Float32, nx, ny, raster.WithLayoutOf(base))
		if err != nil {
			return levels, fmt.Errorf("level %d: %w", i, err)
		}
		levels = append(levels, level)
		if err := step(prev, level); err != nil {
			return levels, fmt.Errorf("level %d: %w", i, err)
		}
	}
	return levels, nil
}
