package zarr

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dtype is a NumPy typestr like "<u2" or "|u1": a byte order, a basic type
// code and an element size in bytes. Datetime types may carry a unit suffix
// like "[ns]", kept in Units.
type Dtype struct {
	ByteOrder ByteOrder
	BasicType BasicType
	ByteSize  int
	Units     string
}

var (
	_ json.Unmarshaler = (*Dtype)(nil)
	_ json.Marshaler   = Dtype{}
)

// ParseDtype reads a typestr
func ParseDtype(s string) (dt Dtype, err error) {
	// some writers HTML-escape the byte order
	s = strings.NewReplacer("&lt;", "<", "&gt;", ">").Replace(s)
	if len(s) < 3 {
		return dt, fmt.Errorf("invalid dtype %q: too short", s)
	}

	if dt.ByteOrder, err = ParseByteOrder(rune(s[0])); err != nil {
		return dt, err
	}
	if dt.BasicType, err = ParseBasicType(rune(s[1])); err != nil {
		return dt, err
	}

	size, units, hasUnits := strings.Cut(s[2:], "[")
	n, err := strconv.Atoi(size)
	if err != nil || n <= 0 {
		return dt, fmt.Errorf("invalid dtype %q: bad size %q", s, size)
	}
	dt.ByteSize = n
	if hasUnits {
		dt.Units = "[" + units
	}
	return dt, nil
}

func (dt Dtype) String() string {
	return fmt.Sprintf("%c%c%d%s", dt.ByteOrder, dt.BasicType, dt.ByteSize, dt.Units)
}

// MarshalJSON writes the bare typestr. Stored metadata is encoded without
// HTML escaping so "<f4" stays readable.
func (dt Dtype) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(dt.String())), nil
}

func (dt *Dtype) UnmarshalJSON(d []byte) error {
	var s string
	if err := json.Unmarshal(d, &s); err != nil {
		return err
	}
	t, err := ParseDtype(s)
	if err != nil {
		return err
	}
	*dt = t
	return nil
}

// Numeric reports whether values of dt can be moved through hyperslab I/O
func (dt Dtype) Numeric() bool {
	switch dt.BasicType {
	case BTBoolean:
		return dt.ByteSize == 1
	case BTInteger, BTUnsigned:
		switch dt.ByteSize {
		case 1, 2, 4, 8:
			return true
		}
	case BTFloatingPoint:
		return dt.ByteSize == 4 || dt.ByteSize == 8
	}
	return false
}

// Range returns the smallest and largest values dt can represent
func (dt Dtype) Range() (lo, hi float64) {
	switch dt.BasicType {
	case BTBoolean:
		return 0, 1
	case BTUnsigned:
		return 0, math.Exp2(float64(8*dt.ByteSize)) - 1
	case BTInteger:
		half := math.Exp2(float64(8*dt.ByteSize - 1))
		return -half, half - 1
	case BTFloatingPoint:
		if dt.ByteSize == 4 {
			return -math.MaxFloat32, math.MaxFloat32
		}
	}
	return -math.MaxFloat64, math.MaxFloat64
}

// Quantize returns v as it will read back after being stored as dt. Integer
// types round to nearest and saturate at their range, NaN stores as zero.
// 4 byte floats narrow to float32 precision.
func (dt Dtype) Quantize(v float64) float64 {
	switch dt.BasicType {
	case BTFloatingPoint:
		if dt.ByteSize == 4 {
			return float64(float32(v))
		}
		return v
	case BTBoolean:
		if v != 0 && !math.IsNaN(v) {
			return 1
		}
		return 0
	}
	if math.IsNaN(v) {
		return 0
	}
	lo, hi := dt.Range()
	return math.Max(lo, math.Min(hi, math.Round(v)))
}

func (dt Dtype) order() binary.ByteOrder {
	if dt.ByteOrder == BOLittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// decode reads a single value from the first ByteSize bytes of b
func (dt Dtype) decode(b []byte) float64 {
	bo := dt.order()
	switch dt.BasicType {
	case BTFloatingPoint:
		if dt.ByteSize == 4 {
			return float64(math.Float32frombits(bo.Uint32(b)))
		}
		return math.Float64frombits(bo.Uint64(b))
	case BTInteger:
		switch dt.ByteSize {
		case 1:
			return float64(int8(b[0]))
		case 2:
			return float64(int16(bo.Uint16(b)))
		case 4:
			return float64(int32(bo.Uint32(b)))
		default:
			return float64(int64(bo.Uint64(b)))
		}
	default:
		switch dt.ByteSize {
		case 1:
			return float64(b[0])
		case 2:
			return float64(bo.Uint16(b))
		case 4:
			return float64(bo.Uint32(b))
		default:
			return float64(bo.Uint64(b))
		}
	}
}

// encode writes Quantize(v) into the first ByteSize bytes of b
func (dt Dtype) encode(b []byte, v float64) {
	bo := dt.order()
	v = dt.Quantize(v)
	switch dt.BasicType {
	case BTFloatingPoint:
		if dt.ByteSize == 4 {
			bo.PutUint32(b, math.Float32bits(float32(v)))
		} else {
			bo.PutUint64(b, math.Float64bits(v))
		}
	case BTInteger:
		switch dt.ByteSize {
		case 1:
			b[0] = byte(int8(v))
		case 2:
			bo.PutUint16(b, uint16(int16(v)))
		case 4:
			bo.PutUint32(b, uint32(int32(v)))
		default:
			if v >= math.Exp2(63) {
				bo.PutUint64(b, math.MaxInt64)
				return
			}
			bo.PutUint64(b, uint64(int64(v)))
		}
	default:
		switch dt.ByteSize {
		case 1:
			b[0] = byte(v)
		case 2:
			bo.PutUint16(b, uint16(v))
		case 4:
			bo.PutUint32(b, uint32(v))
		default:
			if v >= math.Exp2(64) {
				bo.PutUint64(b, math.MaxUint64)
				return
			}
			bo.PutUint64(b, uint64(v))
		}
	}
}

type ByteOrder rune

const (
	BONotRelevant  ByteOrder = '|'
	BOLittleEndian ByteOrder = '<'
	BOBigEndian    ByteOrder = '>'
)

func ParseByteOrder(r rune) (ByteOrder, error) {
	switch o := ByteOrder(r); o {
	case BONotRelevant, BOLittleEndian, BOBigEndian:
		return o, nil
	}
	return 0, fmt.Errorf("unsupported byte order %q", r)
}

type BasicType rune

const (
	BTBoolean       BasicType = 'b'
	BTInteger       BasicType = 'i'
	BTUnsigned      BasicType = 'u'
	BTFloatingPoint BasicType = 'f'
	BTComplex       BasicType = 'c'
	BTTimedelta     BasicType = 'm'
	BTDatetime      BasicType = 'M'
	BTString        BasicType = 'S'
	BTUnicode       BasicType = 'U'
	BTOther         BasicType = 'V'
)

func ParseBasicType(r rune) (BasicType, error) {
	switch t := BasicType(r); t {
	case BTBoolean, BTInteger, BTUnsigned, BTFloatingPoint, BTComplex,
		BTTimedelta, BTDatetime, BTString, BTUnicode, BTOther:
		return t, nil
	}
	return 0, fmt.Errorf("unsupported basic type %q", r)
}

// StructuredType is the "dtype" field of array metadata. It is either a
// plain typestr, or a single named field given as [name, typestr] or
// [name, typestr, shape]. Records of several fields are rejected.
type StructuredType struct {
	Fieldname string
	Dtype     Dtype
	Shape     []int
}

var (
	_ json.Unmarshaler = (*StructuredType)(nil)
	_ json.Marshaler   = StructuredType{}
)

// IsBasic reports whether st is a plain typestr
func (st *StructuredType) IsBasic() bool {
	return st.Fieldname == "" && st.Shape == nil
}

func (st StructuredType) MarshalJSON() ([]byte, error) {
	if st.IsBasic() {
		return st.Dtype.MarshalJSON()
	}
	field := []interface{}{st.Fieldname, st.Dtype}
	if st.Shape != nil {
		field = append(field, st.Shape)
	}
	return json.Marshal(field)
}

func (st *StructuredType) UnmarshalJSON(d []byte) error {
	var typestr string
	if err := json.Unmarshal(d, &typestr); err == nil {
		dt, err := ParseDtype(typestr)
		if err != nil {
			return err
		}
		*st = StructuredType{Dtype: dt}
		return nil
	}

	var field []json.RawMessage
	if err := json.Unmarshal(d, &field); err != nil {
		return fmt.Errorf("dtype must be a string or a field list: %w", err)
	}
	if len(field) < 2 || len(field) > 3 {
		return fmt.Errorf("unsupported structured dtype %s", d)
	}
	t := StructuredType{}
	if err := json.Unmarshal(field[0], &t.Fieldname); err != nil {
		return fmt.Errorf("structured dtype field name: %w", err)
	}
	if err := json.Unmarshal(field[1], &t.Dtype); err != nil {
		return fmt.Errorf("structured dtype field %q: %w", t.Fieldname, err)
	}
	if len(field) == 3 {
		if err := json.Unmarshal(field[2], &t.Shape); err != nil {
			return fmt.Errorf("structured dtype field %q shape: %w", t.Fieldname, err)
		}
	}
	*st = t
	return nil
}
