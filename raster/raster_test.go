package raster

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zarr "github.com/qri-io/zarr-raster"
)

func newGroup(t *testing.T) *zarr.Group {
	t.Helper()
	g, err := zarr.CreateGroup(zarr.NewMemoryStore(), "landsat")
	require.NoError(t, err)
	return g
}

// newRaster creates an nx by ny raster with small chunks so reads and writes
// cross chunk boundaries, filled with vals if given
func newRaster(t *testing.T, g *zarr.Group, name string, kind Kind, nx, ny int, vals ...float64) *Raster {
	t.Helper()
	r, err := Create(g, name, kind, nx, ny, WithChunkSize(4))
	require.NoError(t, err)
	if len(vals) > 0 {
		require.Len(t, vals, nx*ny)
		require.NoError(t, r.Write(Slice{DX: nx, DY: ny}, vals))
	}
	return r
}

var errPutFailed = errors.New("put failed")

// failingStore rejects every Put whose key starts with failPrefix
type failingStore struct {
	zarr.Store
	failPrefix string
}

func (s *failingStore) Put(key string, val io.Reader) error {
	if s.failPrefix != "" && strings.HasPrefix(key, s.failPrefix) {
		return errPutFailed
	}
	return s.Store.Put(key, val)
}

func newFailingGroup(t *testing.T) (*zarr.Group, *failingStore) {
	t.Helper()
	s := &failingStore{Store: zarr.NewMemoryStore()}
	g, err := zarr.CreateGroup(s, "landsat")
	require.NoError(t, err)
	return g, s
}

func constant(n int, v float64) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = v
	}
	return vals
}

func readAll(t *testing.T, r *Raster) []float64 {
	t.Helper()
	nx, ny := r.Dimensions()
	data, err := r.Read(Slice{DX: nx, DY: ny}, nil)
	require.NoError(t, err)
	return data
}

func TestCreateOpen(t *testing.T) {
	g := newGroup(t)

	r, err := Create(g, "B07", UInt16, 100, 50)
	require.NoError(t, err)
	nx, ny := r.Dimensions()
	assert.Equal(t, 100, nx)
	assert.Equal(t, 50, ny)
	assert.Equal(t, "B07", r.Name())
	assert.Equal(t, UInt16, r.Kind())

	_, err = Create(g, "B07", UInt8, 10, 10)
	assert.ErrorIs(t, err, ErrAlreadyExists)
	_, err = Create(g, "bad", Kind(42), 10, 10)
	assert.ErrorIs(t, err, ErrUnsupportedKind)
	_, err = Create(g, "empty", UInt8, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = Create(g, "squashed", UInt8, 10, 10, WithCompression("lzma"))
	assert.Error(t, err)

	opened, err := Open(g, "B07")
	require.NoError(t, err)
	assert.Equal(t, UInt16, opened.Kind())
	nx, ny = opened.Dimensions()
	assert.Equal(t, [2]int{100, 50}, [2]int{nx, ny})

	_, err = Open(g, "B08")
	assert.ErrorIs(t, err, ErrNotFound)

	dt, err := UInt8.Dtype()
	require.NoError(t, err)
	_, err = g.CreateArray("plain", zarr.NewArrayMeta(dt, 4, 4, 4))
	require.NoError(t, err)
	_, err = Open(g, "plain")
	assert.ErrorIs(t, err, ErrNotARaster)

	_, err = zarr.CreateGroup(g.Store(), "landsat/scenes")
	require.NoError(t, err)
	_, err = Open(g, "scenes")
	assert.ErrorIs(t, err, ErrNotARaster)
}

func TestCreateUntaggedRemoved(t *testing.T) {
	g, s := newFailingGroup(t)
	s.failPrefix = "landsat/B07/.zattrs"

	_, err := Create(g, "B07", UInt8, 4, 4)
	assert.ErrorIs(t, err, errPutFailed)
	exists, err := g.ArrayExists("B07")
	require.NoError(t, err)
	assert.False(t, exists)

	s.failPrefix = ""
	_, err = Create(g, "B07", UInt8, 4, 4)
	assert.NoError(t, err)
}

func TestKind(t *testing.T) {
	for _, k := range []Kind{UInt8, UInt16, Float32} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
		assert.True(t, k.Valid())
	}
	_, err := ParseKind("complex128")
	assert.ErrorIs(t, err, ErrUnsupportedKind)

	assert.Equal(t, 255.0, UInt8.Max())
	assert.Equal(t, 65535.0, UInt16.Max())
	assert.Equal(t, math.MaxFloat32, Float32.Max())
}

func TestSliceOf(t *testing.T) {
	s, err := SliceOf(1, 2, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, Slice{X0: 1, Y0: 2, DX: 3, DY: 4}, s)
	assert.Equal(t, 12, s.Len())

	_, err = SliceOf(1, 2, 3)
	assert.ErrorIs(t, err, ErrBadSlice)

	cases := []struct {
		s  Slice
		ok bool
	}{
		{Slice{0, 0, 10, 10}, true},
		{Slice{9, 9, 1, 1}, true},
		{Slice{-1, 0, 1, 1}, false},
		{Slice{0, 0, 0, 1}, false},
		{Slice{5, 0, 6, 1}, false},
		{Slice{0, 5, 1, 6}, false},
	}
	for _, c := range cases {
		err := c.s.Within(10, 10)
		if c.ok {
			assert.NoError(t, err, c.s.String())
		} else {
			assert.ErrorIs(t, err, ErrBadSlice, c.s.String())
		}
	}
}

func TestReadWrite(t *testing.T) {
	g := newGroup(t)
	r := newRaster(t, g, "B07", UInt8, 10, 6)

	s := Slice{X0: 3, Y0: 2, DX: 4, DY: 3}
	in := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 300, -4}
	require.NoError(t, Write(r, s, in))

	got, err := Read(r, s, []float32(nil))
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 255, 0}, got)

	// samples outside the written slice still read as zero
	row, err := r.Read(Row(1, 10), nil)
	require.NoError(t, err)
	assert.Equal(t, constant(10, 0), row)

	// a longer buffer keeps its length
	long := make([]uint16, 20)
	long, err = Read(r, s, long)
	require.NoError(t, err)
	assert.Len(t, long, 20)
	assert.Equal(t, uint16(255), long[10])

	err = Write(r, s, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrBufferTooSmall)
	err = Write(r, Slice{X0: 8, Y0: 0, DX: 4, DY: 1}, []float64{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrBadSlice)
	_, err = Read(r, Slice{X0: 0, Y0: 5, DX: 1, DY: 2}, []float64(nil))
	assert.ErrorIs(t, err, ErrBadSlice)
}

func TestReadConversion(t *testing.T) {
	g := newGroup(t)
	r := newRaster(t, g, "thermal", Float32, 5, 1, 300.7, -2, math.NaN(), 12.5, -300)

	u8, err := Read(r, Row(0, 5), []uint8(nil))
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 0, 0, 13, 0}, u8)

	i8, err := Read(r, Row(0, 5), []int8(nil))
	require.NoError(t, err)
	assert.Equal(t, []int8{127, -2, 0, 13, -128}, i8)

	f, err := r.Read(Row(0, 5), nil)
	require.NoError(t, err)
	assert.InDelta(t, 300.7, f[0], 1e-4)
	assert.True(t, math.IsNaN(f[2]))
}

func TestRemove(t *testing.T) {
	g := newGroup(t)
	r := newRaster(t, g, "B07", UInt8, 9, 9, constant(81, 7)...)
	newRaster(t, g, "B070", UInt8, 2, 2)

	require.NoError(t, r.Destroy())
	_, err := Open(g, "B07")
	assert.ErrorIs(t, err, ErrNotFound)

	keys, err := g.Store().List("landsat/B07/")
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = Open(g, "B070")
	assert.NoError(t, err)

	assert.ErrorIs(t, Remove(g, "B07"), ErrNotFound)
}

func TestLayoutOf(t *testing.T) {
	g := newGroup(t)
	src, err := Create(g, "src", Float32, 30, 20, WithChunkSize(8), WithCompression("zst"))
	require.NoError(t, err)

	dst, err := Create(g, "dst", UInt8, 30, 20, WithLayoutOf(src))
	require.NoError(t, err)
	m := dst.Meta()
	assert.Equal(t, [2]int{8, 8}, m.Chunks)
	require.NotNil(t, m.Compressor)
	assert.Equal(t, "zst", m.Compressor.ID)
}
