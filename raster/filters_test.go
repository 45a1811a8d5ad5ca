package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestRangeFilterConstant(t *testing.T) {
	g := newGroup(t)
	in := newRaster(t, g, "in", UInt16, 20, 20, constant(400, 2)...)
	out := newRaster(t, g, "out", UInt16, 20, 20, constant(400, 9)...)

	require.NoError(t, RangeFilter(in, out, 5))
	assert.Equal(t, constant(400, 0), readAll(t, out))
}

func TestHarmonicMeanOnes(t *testing.T) {
	g := newGroup(t)
	in := newRaster(t, g, "in", Float32, 3, 3, constant(9, 1)...)
	out := newRaster(t, g, "out", Float32, 3, 3)

	require.NoError(t, HarmonicMean(in, out, 3))
	for _, v := range readAll(t, out) {
		assert.InDelta(t, 1.0, v, 1e-6)
	}
}

func TestHarmonicMeanZero(t *testing.T) {
	g := newGroup(t)
	vals := constant(9, 4)
	vals[4] = 0
	in := newRaster(t, g, "in", Float32, 3, 3, vals...)
	out := newRaster(t, g, "out", Float32, 3, 3)

	require.NoError(t, HarmonicMean(in, out, 3))
	assert.Equal(t, constant(9, 0), readAll(t, out))
}

func TestMidpointFilterRemainder(t *testing.T) {
	g := newGroup(t)
	vals := make([]float64, 49)
	for i := range vals {
		vals[i] = float64(i)
	}
	in := newRaster(t, g, "in", UInt8, 7, 7, vals...)
	out := newRaster(t, g, "out", UInt8, 7, 7, constant(49, 99)...)

	require.NoError(t, MidpointFilter(in, out, 3))
	got := readAll(t, out)

	// the first tile spans samples 0 through 16, the tile at rows and columns
	// 3 to 5 spans 24 through 40
	assert.Equal(t, 8.0, got[0])
	assert.Equal(t, 8.0, got[2*7+2])
	assert.Equal(t, 32.0, got[5*7+5])
	// the seventh row and column are not a whole tile
	for i := 0; i < 7; i++ {
		assert.Equal(t, 99.0, got[6*7+i])
		assert.Equal(t, 99.0, got[i*7+6])
	}
}

func TestTileFilterErrors(t *testing.T) {
	g := newGroup(t)
	in := newRaster(t, g, "in", UInt8, 20, 20)
	out := newRaster(t, g, "out", UInt8, 20, 20)
	small := newRaster(t, g, "small", UInt8, 10, 20)

	for _, n := range []int{1, 2, 4, 12, 13} {
		assert.ErrorIs(t, RangeFilter(in, out, n), ErrInvalidWindowSize, n)
		assert.ErrorIs(t, HarmonicMean(in, out, n), ErrInvalidWindowSize, n)
		assert.ErrorIs(t, MidpointFilter(in, out, n), ErrInvalidWindowSize, n)
	}
	assert.ErrorIs(t, RangeFilter(in, small, 3), ErrShapeMismatch)
}

func TestGradientMask(t *testing.T) {
	g := newGroup(t)
	in := newRaster(t, g, "in", Float32, 5, 3, constant(15, 4)...)
	out := newRaster(t, g, "out", Float32, 5, 3)

	for mask := 1; mask <= 8; mask++ {
		require.NoError(t, GradientMask(in, out, mask))
		assert.Equal(t, constant(15, 5), readAll(t, out))
	}

	assert.ErrorIs(t, GradientMask(in, out, 0), ErrInvalidParameter)
	assert.ErrorIs(t, GradientMask(in, out, 9), ErrInvalidParameter)
}

func TestGradientKernel(t *testing.T) {
	for mask := 1; mask <= 8; mask++ {
		k, err := GradientKernel(mask)
		require.NoError(t, err)
		sum := 0.0
		for _, row := range k {
			sum += floats.Sum(row[:])
		}
		assert.Equal(t, 0.0, sum, "mask %d", mask)
	}
	_, err := GradientKernel(9)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestAutoLocalThreshold(t *testing.T) {
	g := newGroup(t)
	in := newRaster(t, g, "in", UInt8, 4, 4,
		1, 9, 30, 30,
		3, 2, 30, 90,
		0, 0, 60, 61,
		0, 3, 62, 63,
	)
	out := newRaster(t, g, "out", UInt8, 4, 4)

	require.NoError(t, AutoLocalThreshold(in, out, 2))
	assert.Equal(t, []float64{
		0, 9, 0, 0,
		0, 0, 0, 90,
		0, 0, 60, 61,
		0, 3, 62, 63,
	}, readAll(t, out))

	for _, p := range []int{0, -1, 151} {
		assert.ErrorIs(t, AutoLocalThreshold(in, out, p), ErrInvalidWindowSize, p)
	}
	assert.ErrorIs(t, AutoLocalThreshold(in, out, 5), ErrInvalidWindowSize)
}
