package raster

import (
	"fmt"
	"math"
	"strings"

	zarr "github.com/qri-io/zarr-raster"
)

// Kind is the element type a raster persists its samples as
type Kind int

const (
	UInt8 Kind = iota + 1
	UInt16
	Float32
)

var kindDtypes = map[Kind]zarr.Dtype{
	UInt8:   {ByteOrder: zarr.BONotRelevant, BasicType: zarr.BTUnsigned, ByteSize: 1},
	UInt16:  {ByteOrder: zarr.BOLittleEndian, BasicType: zarr.BTUnsigned, ByteSize: 2},
	Float32: {ByteOrder: zarr.BOLittleEndian, BasicType: zarr.BTFloatingPoint, ByteSize: 4},
}

func (k Kind) String() string {
	switch k {
	case UInt8:
		return "uint8"
	case UInt16:
		return "uint16"
	case Float32:
		return "float32"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind reads a kind from its String form
func ParseKind(s string) (Kind, error) {
	for k := range kindDtypes {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
}

// Valid reports whether k is one of the kinds rasters can be created with
func (k Kind) Valid() bool {
	_, ok := kindDtypes[k]
	return ok
}

// Dtype is the zarr data type samples of kind k are stored as
func (k Kind) Dtype() (zarr.Dtype, error) {
	dt, ok := kindDtypes[k]
	if !ok {
		return dt, fmt.Errorf("%w: %s", ErrUnsupportedKind, k)
	}
	return dt, nil
}

// Max is the largest value kind k can represent
func (k Kind) Max() float64 {
	switch k {
	case UInt8:
		return math.MaxUint8
	case UInt16:
		return math.MaxUint16
	}
	return math.MaxFloat32
}

// kindOf maps a stored zarr data type back to its raster kind
func kindOf(dt zarr.Dtype) (Kind, error) {
	for k, kdt := range kindDtypes {
		if kdt.BasicType == dt.BasicType && kdt.ByteSize == dt.ByteSize {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: dtype %s", ErrUnsupportedKind, dt)
}
