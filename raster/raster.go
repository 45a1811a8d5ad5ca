package raster

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"

	zarr "github.com/qri-io/zarr-raster"
)

const (
	// ObjectTypeKey is the attribute every raster array is tagged with
	ObjectTypeKey = "object_type"
	// ObjectType is the value of ObjectTypeKey on raster arrays
	ObjectType = "zarr-raster::raster"
	// DefaultChunkSize is the edge length of the square chunks rasters are
	// stored in unless WithChunkSize says otherwise
	DefaultChunkSize = 256
)

// Raster is a named, fixed size two dimensional grid of samples persisted in
// a zarr group. A Raster holds no sample data: reads and writes go straight
// to the underlying array.
type Raster struct {
	name   string
	kind   Kind
	nx, ny int
	group  *zarr.Group
	arr    *zarr.Array
}

// Number is the set of buffer element types Read and Write convert to and
// from
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

type createOptions struct {
	chunk      int
	compressor string
}

// Option configures the storage layout of a new raster
type Option func(*createOptions)

// WithChunkSize stores the raster in square chunks with edge length n
func WithChunkSize(n int) Option {
	return func(o *createOptions) { o.chunk = n }
}

// WithCompression compresses stored chunks with the codec named id ("zst" or
// "gzip"). An empty id stores chunks uncompressed.
func WithCompression(id string) Option {
	return func(o *createOptions) { o.compressor = id }
}

// WithLayoutOf copies the chunk size and compression of r
func WithLayoutOf(r *Raster) Option {
	return func(o *createOptions) {
		m := r.Meta()
		o.chunk = max(m.Chunks[0], m.Chunks[1])
		o.compressor = ""
		if m.Compressor != nil {
			o.compressor = m.Compressor.ID
		}
	}
}

// Create persists a new nx by ny raster called name in g. Every sample of a
// new raster reads as zero until written.
func Create(g *zarr.Group, name string, kind Kind, nx, ny int, opts ...Option) (*Raster, error) {
	dt, err := kind.Dtype()
	if err != nil {
		return nil, err
	}
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("%w: raster dimensions %dx%d", ErrInvalidParameter, nx, ny)
	}
	o := &createOptions{chunk: DefaultChunkSize}
	for _, opt := range opts {
		opt(o)
	}
	if o.chunk <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrInvalidParameter, o.chunk)
	}

	m := zarr.NewArrayMeta(dt, nx, ny, o.chunk)
	if m.Compressor, err = zarr.NewCompressionMeta(o.compressor); err != nil {
		return nil, err
	}
	arr, err := g.CreateArray(name, m)
	if errors.Is(err, zarr.ErrExists) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	} else if err != nil {
		return nil, err
	}
	if err := arr.SetAttributes(zarr.Attributes{ObjectTypeKey: ObjectType}); err != nil {
		return nil, errors.Join(err, g.RemoveArray(name))
	}

	slog.Debug("created raster", "name", name, "kind", kind, "nx", nx, "ny", ny)
	return &Raster{name: name, kind: kind, nx: nx, ny: ny, group: g, arr: arr}, nil
}

// Open attaches to the existing raster called name in g
func Open(g *zarr.Group, name string) (*Raster, error) {
	arr, err := g.OpenArray(name, zarr.ModeReadWrite)
	if errors.Is(err, zarr.ErrNotfound) {
		if isGroup, gerr := g.GroupExists(name); gerr != nil {
			return nil, gerr
		} else if isGroup {
			return nil, fmt.Errorf("%w: %s is a group", ErrNotARaster, name)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	} else if err != nil {
		return nil, err
	}

	attrs, err := arr.Attributes()
	if err != nil {
		return nil, err
	}
	if ot, _ := attrs.String(ObjectTypeKey); ot != ObjectType {
		return nil, fmt.Errorf("%w: %s", ErrNotARaster, name)
	}
	kind, err := kindOf(arr.Dtype())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	nx, ny := arr.Dims()
	return &Raster{name: name, kind: kind, nx: nx, ny: ny, group: g, arr: arr}, nil
}

// Remove deletes the raster called name and all of its samples from g
func Remove(g *zarr.Group, name string) error {
	if _, err := Open(g, name); err != nil {
		return err
	}
	slog.Debug("removing raster", "name", name)
	return g.RemoveArray(name)
}

// Destroy deletes r from the group it was created or opened in. r must not
// be used afterwards.
func (r *Raster) Destroy() error {
	return Remove(r.group, r.name)
}

func (r *Raster) Name() string { return r.name }

func (r *Raster) Kind() Kind { return r.kind }

// Dimensions returns the width and height of r in samples
func (r *Raster) Dimensions() (nx, ny int) {
	return r.nx, r.ny
}

// Meta is the metadata of the array backing r. Callers must not modify it.
func (r *Raster) Meta() *zarr.ArrayMeta { return r.arr.Meta() }

// Group is the group r is stored in
func (r *Raster) Group() *zarr.Group { return r.group }

func (r *Raster) String() string {
	return fmt.Sprintf("%s %s %dx%d", r.name, r.kind, r.nx, r.ny)
}

// Read returns the samples in s as float64s, see the package level Read
func (r *Raster) Read(s Slice, buf []float64) ([]float64, error) {
	return Read(r, s, buf)
}

// Write stores buf into s, see the package level Write
func (r *Raster) Write(s Slice, buf []float64) error {
	return Write(r, s, buf)
}

// sameShape checks that every raster in rs has the dimensions of r
func (r *Raster) sameShape(rs ...*Raster) error {
	for _, o := range rs {
		if o.nx != r.nx || o.ny != r.ny {
			return fmt.Errorf("%w: %s is %dx%d, %s is %dx%d", ErrShapeMismatch, r.name, r.nx, r.ny, o.name, o.nx, o.ny)
		}
	}
	return nil
}

// Write stores the first s.Len() samples of buf into slice s of r in row
// major order, converting each to r's kind. Integer kinds round to nearest
// and saturate at their range.
func Write[T Number](r *Raster, s Slice, buf []T) error {
	if err := s.Within(r.nx, r.ny); err != nil {
		return err
	}
	n := s.Len()
	if len(buf) < n {
		return fmt.Errorf("%w: slice %s needs %d samples, buffer has %d", ErrBufferTooSmall, s, n, len(buf))
	}

	var vals []float64
	if f, ok := any(buf).([]float64); ok {
		vals = f[:n]
	} else {
		vals = make([]float64, n)
		for i, v := range buf[:n] {
			vals[i] = float64(v)
		}
	}
	if err := r.arr.WriteHyperslab([2]int{s.Y0, s.X0}, [2]int{s.DY, s.DX}, vals); err != nil {
		return fmt.Errorf("writing %s%s: %w", r.name, s, err)
	}
	return nil
}

// Read fills buf with the samples in slice s of r in row major order and
// returns it. buf is grown to s.Len() if it is shorter, like append. Samples
// are converted to T, rounding and saturating for integer types.
func Read[T Number](r *Raster, s Slice, buf []T) ([]T, error) {
	if err := s.Within(r.nx, r.ny); err != nil {
		return buf, err
	}
	n := s.Len()
	if len(buf) < n {
		buf = append(buf, make([]T, n-len(buf))...)
	}

	var vals []float64
	f, direct := any(buf).([]float64)
	if direct {
		vals = f[:n]
	} else {
		vals = make([]float64, n)
	}
	if err := r.arr.ReadHyperslab([2]int{s.Y0, s.X0}, [2]int{s.DY, s.DX}, vals); err != nil {
		return buf, fmt.Errorf("reading %s%s: %w", r.name, s, err)
	}
	if !direct {
		conv := converter[T]()
		for i, v := range vals {
			buf[i] = conv(v)
		}
	}
	return buf, nil
}

// converter returns a function narrowing float64 samples to T
func converter[T Number]() func(float64) T {
	var zero T
	t := reflect.TypeOf(zero)
	var lo, hi float64
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		return func(v float64) T { return T(v) }
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		bits := t.Bits()
		lo = -math.Ldexp(1, bits-1)
		hi = math.Nextafter(math.Ldexp(1, bits-1), 0)
	default:
		hi = math.Nextafter(math.Ldexp(1, t.Bits()), 0)
	}
	return func(v float64) T {
		if math.IsNaN(v) {
			return 0
		}
		v = math.Round(v)
		switch {
		case v <= lo:
			return T(lo)
		case v >= hi:
			return T(hi)
		}
		return T(v)
	}
}
