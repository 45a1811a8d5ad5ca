package raster

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreshold(t *testing.T) {
	g := newGroup(t)
	r := newRaster(t, g, "r", UInt8, 3, 2, 1, 5, 10, 4, 6, 5)

	require.NoError(t, Threshold(r, 5))
	assert.Equal(t, []float64{0, 5, 10, 0, 6, 5}, readAll(t, r))
}

func TestScale(t *testing.T) {
	g := newGroup(t)
	in := newRaster(t, g, "in", Float32, 4, 1, 10, 20, 5, 0)
	out := newRaster(t, g, "out", UInt8, 4, 1)

	require.NoError(t, Scale(in, out, 5, 1.5))
	assert.Equal(t, []float64{7, 22, 0, 0}, readAll(t, out))
}

func TestBitShift(t *testing.T) {
	g := newGroup(t)
	in := newRaster(t, g, "in", Float32, 4, 1, 1, 2, 3, 4)
	out := newRaster(t, g, "out", Float32, 4, 1)

	require.NoError(t, BitShift(in, out, 2, false))
	assert.Equal(t, []float64{4, 8, 12, 16}, readAll(t, out))
	require.NoError(t, BitShift(in, out, 1, true))
	assert.Equal(t, []float64{0.5, 1, 1.5, 2}, readAll(t, out))

	assert.ErrorIs(t, BitShift(in, out, -1, true), ErrInvalidParameter)
}

func TestAddSaltPepper(t *testing.T) {
	g := newGroup(t)
	in := newRaster(t, g, "in", UInt8, 10, 10, constant(100, 100)...)
	out := newRaster(t, g, "out", UInt8, 10, 10)

	require.NoError(t, AddSaltPepper(in, out, 0, rand.New(rand.NewPCG(1, 2))))
	assert.Equal(t, constant(100, 100), readAll(t, out))

	require.NoError(t, AddSaltPepper(in, out, 0.5, rand.New(rand.NewPCG(1, 2))))
	first := readAll(t, out)
	for _, v := range first {
		assert.Contains(t, []float64{0, 255}, v)
	}

	// same seed, same noise
	require.NoError(t, AddSaltPepper(in, out, 0.5, rand.New(rand.NewPCG(1, 2))))
	assert.Equal(t, first, readAll(t, out))

	wide := newRaster(t, g, "wide", Float32, 10, 10)
	require.NoError(t, AddSaltPepper(in, wide, 0.5, rand.New(rand.NewPCG(3, 4))))
	for _, v := range readAll(t, wide) {
		assert.Contains(t, []float64{0, 15000}, v)
	}

	assert.ErrorIs(t, AddSaltPepper(in, out, 0.6, rand.New(rand.NewPCG(1, 2))), ErrInvalidParameter)
	assert.ErrorIs(t, AddSaltPepper(in, out, -0.1, rand.New(rand.NewPCG(1, 2))), ErrInvalidParameter)
	assert.ErrorIs(t, AddSaltPepper(in, out, 0.1, nil), ErrInvalidParameter)
}

func TestCopy(t *testing.T) {
	g := newGroup(t)
	vals := make([]float64, 16)
	for i := range vals {
		vals[i] = float64(i)
	}
	in := newRaster(t, g, "in", UInt8, 4, 4, vals...)
	out := newRaster(t, g, "out", UInt8, 3, 3)

	require.NoError(t, Copy(in, Slice{X0: 1, Y0: 1, DX: 2, DY: 2}, out))
	assert.Equal(t, []float64{
		5, 6, 0,
		9, 10, 0,
		0, 0, 0,
	}, readAll(t, out))

	assert.ErrorIs(t, Copy(in, Slice{X0: 0, Y0: 0, DX: 4, DY: 4}, out), ErrBadSlice)
	assert.ErrorIs(t, Copy(in, Slice{X0: 3, Y0: 0, DX: 2, DY: 1}, out), ErrBadSlice)
}

func TestSet(t *testing.T) {
	g := newGroup(t)
	r := newRaster(t, g, "r", UInt16, 4, 3)

	require.NoError(t, Set(r, Slice{X0: 1, Y0: 0, DX: 2, DY: 2}, 7))
	assert.Equal(t, []float64{
		0, 7, 7, 0,
		0, 7, 7, 0,
		0, 0, 0, 0,
	}, readAll(t, r))
	assert.ErrorIs(t, Set(r, Slice{X0: 3, Y0: 0, DX: 2, DY: 2}, 7), ErrBadSlice)
}
