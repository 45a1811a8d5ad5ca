package zarr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// Version is the storage format version written by this library.
	Version = 2
)

var (
	// ErrExists is returned when creating an array or group at a path that
	// is already taken
	ErrExists = errors.New("already exists")
	// ErrReadOnly is returned when writing to an array opened with ModeRead
	ErrReadOnly = errors.New("array is read only")
	// ErrOutOfBounds is returned for hyperslabs that do not fit the array
	ErrOutOfBounds = errors.New("hyperslab out of bounds")
)

type Array struct {
	path  Path
	store Store
	mode  PersistenceMode
	meta  *ArrayMeta
}

// Create stores m at path and returns the new, empty array. Create fails with
// ErrExists if an array or group is already stored at path.
func Create(store Store, path string, m *ArrayMeta) (*Array, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	p, err := NewPath(path)
	if err != nil {
		return nil, err
	}
	for _, mt := range []MetaType{MTArray, MTGroup} {
		exists, err := Has(store, p.Join(string(mt)).String())
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", ErrExists, p)
		}
	}

	a := &Array{
		path:  p,
		store: store,
		mode:  ModeReadWrite,
		meta:  m,
	}
	if err := putJSON(store, p.Join(string(MTArray)).String(), m); err != nil {
		return nil, err
	}
	return a, nil
}

// Zeros creates an array whose uninitialized elements read as 0
func Zeros(store Store, path string, m *ArrayMeta) (*Array, error) {
	m.FillValue = 0
	return Create(store, path, m)
}

// Ones creates an array whose uninitialized elements read as 1
func Ones(store Store, path string, m *ArrayMeta) (*Array, error) {
	m.FillValue = 1
	return Create(store, path, m)
}

// Open attaches to the array stored at path. Open fails with ErrNotfound
// if no array metadata exists there.
func Open(store Store, path string, mode PersistenceMode) (*Array, error) {
	p, err := NewPath(path)
	if err != nil {
		return nil, err
	}

	a := &Array{
		path:  p,
		store: store,
		mode:  mode,
	}

	mp := p.Join(string(MTArray)).String()
	f, err := store.Get(mp)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	a.meta = &ArrayMeta{}
	if err := json.NewDecoder(f).Decode(a.meta); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", mp, err)
	}
	if err := a.meta.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}

	return a, nil
}

func (a *Array) Info() string {
	return fmt.Sprintf("<zarr-raster.Array %s shape=%v chunks=%v dtype=%s>", a.path, a.meta.Shape, a.meta.Chunks, a.meta.Dtype.Dtype)
}

func (a *Array) Path() string {
	return a.path.String()
}

// Meta returns the array's metadata. Callers must not modify it.
func (a *Array) Meta() *ArrayMeta {
	return a.meta
}

// Dtype is the element type values are persisted as
func (a *Array) Dtype() Dtype {
	return a.meta.Dtype.Dtype
}

// Dims returns the number of columns and rows of the array
func (a *Array) Dims() (nx, ny int) {
	return a.meta.Shape[1], a.meta.Shape[0]
}

// ReadHyperslab fills dst in row-major order with the count[0] x count[1]
// block of elements starting at row offset[0], column offset[1]
func (a *Array) ReadHyperslab(offset, count [2]int, dst []float64) error {
	if err := a.checkHyperslab(offset, count, len(dst)); err != nil {
		return err
	}

	size := a.Dtype().ByteSize
	for _, proj := range projectHyperslab(a.meta.Chunks, offset, count) {
		chunk, err := a.loadChunk(proj.ChunkCoords)
		if err != nil {
			return err
		}
		for r := 0; r < proj.Count[0]; r++ {
			cOff := (proj.ChunkSelection[0]+r)*a.meta.Chunks[1] + proj.ChunkSelection[1]
			oOff := (proj.OutSelection[0]+r)*count[1] + proj.OutSelection[1]
			for c := 0; c < proj.Count[1]; c++ {
				dst[oOff+c] = a.Dtype().decode(chunk[(cOff+c)*size:])
			}
		}
	}
	return nil
}

// WriteHyperslab stores src, a row-major count[0] x count[1] block, starting
// at row offset[0], column offset[1]. Values are converted with
// Dtype.Quantize. Chunks are committed one at a time, so an error part way
// through leaves the chunks written before it in place.
func (a *Array) WriteHyperslab(offset, count [2]int, src []float64) error {
	if a.mode == ModeRead {
		return fmt.Errorf("%w: %s", ErrReadOnly, a.path)
	}
	if err := a.checkHyperslab(offset, count, len(src)); err != nil {
		return err
	}

	size := a.Dtype().ByteSize
	for _, proj := range projectHyperslab(a.meta.Chunks, offset, count) {
		var (
			chunk []byte
			err   error
		)
		if proj.Count == a.meta.Chunks {
			// every element is overwritten, skip the read
			chunk = make([]byte, a.chunkLen()*size)
		} else if chunk, err = a.loadChunk(proj.ChunkCoords); err != nil {
			return err
		}
		for r := 0; r < proj.Count[0]; r++ {
			cOff := (proj.ChunkSelection[0]+r)*a.meta.Chunks[1] + proj.ChunkSelection[1]
			oOff := (proj.OutSelection[0]+r)*count[1] + proj.OutSelection[1]
			for c := 0; c < proj.Count[1]; c++ {
				a.Dtype().encode(chunk[(cOff+c)*size:], src[oOff+c])
			}
		}
		if err := a.storeChunk(proj.ChunkCoords, chunk); err != nil {
			return err
		}
	}
	return nil
}

// ReadAll returns every element of the array in row-major order
func (a *Array) ReadAll() ([]float64, error) {
	nx, ny := a.Dims()
	data := make([]float64, nx*ny)
	if err := a.ReadHyperslab([2]int{0, 0}, [2]int{ny, nx}, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Attributes reads the user attributes stored alongside the array. An array
// without attributes returns an empty map.
func (a *Array) Attributes() (Attributes, error) {
	attrs := Attributes{}
	f, err := a.store.Get(a.path.Join(string(MTAttributes)).String())
	if errors.Is(err, ErrNotfound) {
		return attrs, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&attrs); err != nil {
		return nil, fmt.Errorf("decoding %s attributes: %w", a.path, err)
	}
	return attrs, nil
}

// SetAttributes replaces the user attributes stored alongside the array
func (a *Array) SetAttributes(attrs Attributes) error {
	if a.mode == ModeRead {
		return fmt.Errorf("%w: %s", ErrReadOnly, a.path)
	}
	return putJSON(a.store, a.path.Join(string(MTAttributes)).String(), attrs)
}

func (a *Array) checkHyperslab(offset, count [2]int, bufLen int) error {
	for d := 0; d < 2; d++ {
		if offset[d] < 0 || count[d] < 0 || offset[d]+count[d] > a.meta.Shape[d] {
			return fmt.Errorf("%w: offset %v count %v in shape %v", ErrOutOfBounds, offset, count, a.meta.Shape)
		}
	}
	if bufLen < count[0]*count[1] {
		return fmt.Errorf("buffer of %d elements cannot hold %v hyperslab", bufLen, count)
	}
	return nil
}

func (a *Array) chunkLen() int {
	return a.meta.Chunks[0] * a.meta.Chunks[1]
}

// loadChunk returns the raw bytes of a chunk. Chunks that were never written
// are returned filled with the array's fill value.
func (a *Array) loadChunk(ch [2]int) ([]byte, error) {
	size := a.Dtype().ByteSize
	f, err := a.openChunk(ch)
	if errors.Is(err, ErrNotfound) {
		chunk := make([]byte, a.chunkLen()*size)
		if fill := a.meta.fill(); fill != 0 {
			for i := 0; i < a.chunkLen(); i++ {
				a.Dtype().encode(chunk[i*size:], fill)
			}
		}
		return chunk, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	chunk, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading chunk %v of %s: %w", ch, a.path, err)
	}
	if len(chunk) != a.chunkLen()*size {
		return nil, fmt.Errorf("chunk %v of %s is %d bytes, expected %d", ch, a.path, len(chunk), a.chunkLen()*size)
	}
	return chunk, nil
}

func (a *Array) openChunk(ch [2]int) (io.ReadCloser, error) {
	f, err := a.store.Get(a.chunkPath(ch).String())
	if err != nil {
		return nil, err
	}
	return a.meta.Compressor.Decompressor(f)
}

func (a *Array) storeChunk(ch [2]int, chunk []byte) error {
	buf := &bytes.Buffer{}
	w, err := a.meta.Compressor.Compressor(buf)
	if err != nil {
		return err
	}
	if _, err := w.Write(chunk); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return a.store.Put(a.chunkPath(ch).String(), buf)
}

func (a *Array) chunkPath(ch [2]int) Path {
	return a.path.Join(fmt.Sprintf("%d%s%d", ch[0], a.meta.separator(), ch[1]))
}

// remove deletes every key stored under the array's path
func (a *Array) remove() error {
	keys, err := a.store.List(a.path.String() + "/")
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := a.store.Delete(k); err != nil {
			return fmt.Errorf("removing %s: %w", k, err)
		}
	}
	return nil
}

func putJSON(s Store, key string, v interface{}) error {
	data, err := jsonBytes(v, "")
	if err != nil {
		return err
	}
	return s.Put(key, bytes.NewReader(data))
}

// jsonBytes encodes v without HTML escaping, keeping dtype strings like "<f4"
// readable in stored metadata
func jsonBytes(v interface{}, indent string) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type PersistenceMode string

const (
	// Persistence mode:
	// ‘r’ means read only (must exist);
	ModeRead PersistenceMode = "r"
	//‘r+’ means read/write (must exist)
	ModeReadWrite PersistenceMode = "r+"
	// ‘a’ means read/write (create if doesn’t exist)
	ModeReadWriteCreate PersistenceMode = "a"
	// ‘w’ means create (overwrite if exists)
	ModeWrite PersistenceMode = "w"
	// ‘w-’ means create (fail if exists).
	ModeWriteFail PersistenceMode = "w-"
)

type Path []string

// NewPath normalizes a logical path so behaviour is consistent across
// storage systems:
// * Replace all backward slash characters (”\”) with forward slash characters (“/”)
// * Strip any leading “/” characters
// * Strip any trailing “/” characters
// * Collapse any sequence of more than one “/” character into a single “/” character
func NewPath(posix string) (Path, error) {
	p := Path{}
	for _, seg := range strings.Split(strings.ReplaceAll(posix, `\`, "/"), "/") {
		switch seg {
		case "":
			continue
		case ".", "..":
			return nil, fmt.Errorf("invalid path segment %q in %q", seg, posix)
		}
		p = append(p, seg)
	}
	return p, nil
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

func (p Path) Join(elems ...string) Path {
	joined := make(Path, 0, len(p)+len(elems))
	joined = append(joined, p...)
	return append(joined, elems...)
}
