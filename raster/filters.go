package raster

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	minWindow     = 3
	maxWindow     = 11
	maxPartitions = 150
)

// tileStat reduces the samples of one tile to the value the whole tile is
// overwritten with
type tileStat func(tile []float64) float64

// HarmonicMean replaces every complete n by n tile of in with the harmonic
// mean of its samples, writing the result to out. A tile holding a zero
// sample has a harmonic mean of zero.
func HarmonicMean(in, out *Raster, n int) error {
	return tileFilter(in, out, n, func(tile []float64) float64 {
		return stat.HarmonicMean(tile, nil)
	})
}

// MidpointFilter replaces every complete n by n tile of in with the midpoint
// of its smallest and largest samples
func MidpointFilter(in, out *Raster, n int) error {
	return tileFilter(in, out, n, func(tile []float64) float64 {
		return (floats.Min(tile) + floats.Max(tile)) / 2
	})
}

// RangeFilter replaces every complete n by n tile of in with the difference
// between its largest and smallest samples
func RangeFilter(in, out *Raster, n int) error {
	return tileFilter(in, out, n, func(tile []float64) float64 {
		return floats.Max(tile) - floats.Min(tile)
	})
}

// tileFilter walks in as a grid of non-overlapping n by n tiles, writing
// each tile's statistic across the matching tile of out. Strips along the
// right and bottom edges narrower than n are left as they are in out.
func tileFilter(in, out *Raster, n int, fn tileStat) error {
	if n < minWindow || n > maxWindow || n%2 == 0 {
		return fmt.Errorf("%w: %d, must be odd and within [%d, %d]", ErrInvalidWindowSize, n, minWindow, maxWindow)
	}
	if err := in.sameShape(out); err != nil {
		return err
	}

	var (
		tile []float64
		err  error
	)
	for ty := 0; ty < in.ny/n; ty++ {
		for tx := 0; tx < in.nx/n; tx++ {
			s := Slice{X0: tx * n, Y0: ty * n, DX: n, DY: n}
			if tile, err = in.Read(s, tile); err != nil {
				return err
			}
			v := fn(tile)
			for i := range tile {
				tile[i] = v
			}
			if err := out.Write(s, tile); err != nil {
				return err
			}
		}
	}
	return nil
}

// gradientKernels are the eight directional 3x3 Sobel compass kernels
var gradientKernels = [8][3][3]float64{
	{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}},
	{{1, 0, -1}, {2, 0, -2}, {1, 0, -1}},
	{{1, 2, 1}, {0, 0, 0}, {-1, -2, -1}},
	{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}},
	{{0, -1, -2}, {1, 0, -1}, {2, 1, 0}},
	{{-2, -1, 0}, {-1, 0, 1}, {0, 1, 2}},
	{{2, 1, 0}, {1, 0, -1}, {0, -1, -2}},
	{{0, 1, 2}, {-1, 0, 1}, {-2, -1, 0}},
}

// blurKernel is what GradientMask applies regardless of mask
var blurKernel = [3][3]float64{
	{0.0625, 0.125, 0.0625},
	{0.125, 0.5, 0.125},
	{0.0625, 0.125, 0.0625},
}

// GradientKernel returns the directional kernel numbered mask, 1 through 8
func GradientKernel(mask int) ([3][3]float64, error) {
	if mask < 1 || mask > len(gradientKernels) {
		return [3][3]float64{}, fmt.Errorf("%w: gradient mask %d, must be within [1, %d]", ErrInvalidParameter, mask, len(gradientKernels))
	}
	return gradientKernels[mask-1], nil
}

// GradientMask writes in to out with every sample weighted by the blur
// kernel. The directional kernel chosen by mask is validated but not yet
// convolved, so every mask currently produces the same output: each sample
// scaled by the kernel's sum of 1.25.
func GradientMask(in, out *Raster, mask int) error {
	if _, err := GradientKernel(mask); err != nil {
		return err
	}
	if err := in.sameShape(out); err != nil {
		return err
	}

	gain := 0.0
	for _, row := range blurKernel {
		gain += floats.Sum(row[:])
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
		floats.Scale(gain, row)
		if err := out.Write(s, row); err != nil {
			return err
		}
	}
	return nil
}

// AutoLocalThreshold splits in into partitions x partitions blocks, each
// (nx/partitions) by (ny/partitions) samples, and writes every block to out
// with samples below a third of the block's min plus max set to zero. The
// remainder strips beyond the last whole block are left as they are in out.
func AutoLocalThreshold(in, out *Raster, partitions int) error {
	if partitions < 1 || partitions > maxPartitions {
		return fmt.Errorf("%w: %d partitions, must be within [1, %d]", ErrInvalidWindowSize, partitions, maxPartitions)
	}
	if err := in.sameShape(out); err != nil {
		return err
	}
	bx, by := in.nx/partitions, in.ny/partitions
	if bx == 0 || by == 0 {
		return fmt.Errorf("%w: %d partitions of a %dx%d raster", ErrInvalidWindowSize, partitions, in.nx, in.ny)
	}

	var (
		block []float64
		err   error
	)
	for py := 0; py < partitions; py++ {
		for px := 0; px < partitions; px++ {
			s := Slice{X0: px * bx, Y0: py * by, DX: bx, DY: by}
			if block, err = in.Read(s, block); err != nil {
				return err
			}
			thresh := (floats.Min(block) + floats.Max(block)) / 3
			for i, v := range block {
				if v < thresh {
					block[i] = 0
				}
			}
			if err := out.Write(s, block); err != nil {
				return err
			}
		}
	}
	return nil
}
