package zarr

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

type MetaType string

const (
	// MTAttributes stores userland metadata keyed by array name
	MTAttributes MetaType = ".zattrs"
	// MTArray is the key for storing metadata on an array store
	MTArray MetaType = ".zarray"
	// MTGroup is the key for storing group definitions on an array store
	MTGroup MetaType = ".zgroup"
	// MTMetadata is the key for composite metadata
	MTMetadata MetaType = ".zmetadata"
)

type MetaTyper interface {
	MetaType() MetaType
}

var metaTypes = map[MetaType]struct{}{
	MTAttributes: {},
	MTArray:      {},
	MTGroup:      {},
}

// KeyMetaType reports which metadata document a store key names. Every
// metadata key name is 7 bytes long.
func KeyMetaType(s string) (mt MetaType, ok bool) {
	if len(s) < 7 {
		return mt, false
	}
	mt = MetaType(s[len(s)-7:])
	_, ok = metaTypes[mt]
	return mt, ok
}

type Attributes map[string]interface{}

func (Attributes) MetaType() MetaType { return MTAttributes }

// String returns the attribute at key if it is present and a string
func (a Attributes) String(key string) (string, bool) {
	s, ok := a[key].(string)
	return s, ok
}

// ConsolidatedMetadata gathers every metadata document below a group into a
// single ".zmetadata" key so a hierarchy can be listed with one read.
type ConsolidatedMetadata struct {
	ConsolidatedFormat int                  `json:"zarr_consolidated_format"`
	Metadata           map[string]MetaTyper `json:"metadata"`
}

type consolidatedMetaDecoder struct {
	ConsolidatedFormat int                        `json:"zarr_consolidated_format"`
	Metadata           map[string]json.RawMessage `json:"metadata"`
}

func (m *ConsolidatedMetadata) UnmarshalJSON(d []byte) error {
	cd := consolidatedMetaDecoder{}
	if err := json.Unmarshal(d, &cd); err != nil {
		return err
	}
	cm := ConsolidatedMetadata{
		ConsolidatedFormat: cd.ConsolidatedFormat,
		Metadata:           map[string]MetaTyper{},
	}

	for key, data := range cd.Metadata {
		kt, ok := KeyMetaType(key)
		if !ok {
			return fmt.Errorf("invalid consoldated metadata key: %q", key)
		}

		switch kt {
		case MTArray:
			arr := &ArrayMeta{}
			if err := json.Unmarshal(data, arr); err != nil {
				return fmt.Errorf("reading %q metadata: %w", key, err)
			}
			cm.Metadata[key] = arr
		case MTAttributes:
			attr := Attributes{}
			if err := json.Unmarshal(data, &attr); err != nil {
				return fmt.Errorf("reading %q attributes: %w", key, err)
			}
			cm.Metadata[key] = attr
		case MTGroup:
			grp := &Group{}
			if err := json.Unmarshal(data, grp); err != nil {
				return fmt.Errorf("reading %q group: %w", key, err)
			}
			cm.Metadata[key] = grp
		}
	}

	*m = cm
	return nil
}

// Arrays returns the paths of every array described by m, sorted
func (m *ConsolidatedMetadata) Arrays() []string {
	paths := []string{}
	for key, mt := range m.Metadata {
		if mt.MetaType() == MTArray {
			paths = append(paths, strings.TrimSuffix(strings.TrimSuffix(key, string(MTArray)), "/"))
		}
	}
	sort.Strings(paths)
	return paths
}

// ArrayMeta is the ".zarray" document describing how an array's chunks are
// laid out and encoded
type ArrayMeta struct {
	ZarrFormat int `json:"zarr_format"`
	// [rows, columns]
	Shape []int `json:"shape"`
	// rows and columns per chunk. Edge chunks are stored full size.
	Chunks     [2]int           `json:"chunks"`
	Dtype      StructuredType   `json:"dtype"`
	Compressor *CompressionMeta `json:"compressor"`
	// value uninitialized elements read as: a number, or one of the
	// FillValue* strings
	FillValue interface{} `json:"fill_value"`
	// only "C" (row-major) chunks are read and written
	Order   string   `json:"order"`
	Filters []Filter `json:"filters"`
	// placed between chunk indices in chunk keys, "." when empty
	DimensionSeparator string `json:"dimension_separator,omitempty"`
}

func (a ArrayMeta) MetaType() MetaType { return MTArray }

// NewArrayMeta describes a row-major ny x nx array of dtype, split into
// chunks of at most chunk x chunk elements
func NewArrayMeta(dtype Dtype, nx, ny, chunk int) *ArrayMeta {
	return &ArrayMeta{
		ZarrFormat: 2,
		Shape:      []int{ny, nx},
		Chunks:     [2]int{min(chunk, max(ny, 1)), min(chunk, max(nx, 1))},
		Dtype:      StructuredType{Dtype: dtype},
		FillValue:  0,
		Order:      "C",
	}
}

// Validate checks that m describes an array this package can read and write
func (m *ArrayMeta) Validate() error {
	if len(m.Shape) != 2 {
		return fmt.Errorf("only 2 dimensional arrays are supported, got shape %v", m.Shape)
	}
	if m.Shape[0] < 0 || m.Shape[1] < 0 {
		return fmt.Errorf("invalid shape %v", m.Shape)
	}
	if m.Chunks[0] <= 0 || m.Chunks[1] <= 0 {
		return fmt.Errorf("invalid chunk shape %v", m.Chunks)
	}
	if !m.Dtype.IsBasic() || !m.Dtype.Dtype.Numeric() {
		return fmt.Errorf("unsupported dtype %q", m.Dtype.Dtype)
	}
	if m.Order != "" && m.Order != "C" {
		return fmt.Errorf("unsupported order %q", m.Order)
	}
	return nil
}

// fill returns the value uninitialized elements read as
func (m *ArrayMeta) fill() float64 {
	switch v := m.FillValue.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		switch v {
		case FillValueNaN:
			return math.NaN()
		case FillValueInfinity:
			return math.Inf(1)
		case FillValueNegativeInfinity:
			return math.Inf(-1)
		}
	}
	return 0
}

func (m *ArrayMeta) separator() string {
	if m.DimensionSeparator == "" {
		return "."
	}
	return m.DimensionSeparator
}

type Filter struct {
	ID     string `json:"id"`
	Delta  string `json:"delta,omitempty"`
	Dtype  string `json:"dtype,omitempty"`
	AsType string `json:"astype,omitempty"`
}

// non-finite fill values are stored as strings
const (
	FillValueNaN              = "NaN"
	FillValueInfinity         = "Infinity"
	FillValueNegativeInfinity = "-Infinity"
)
