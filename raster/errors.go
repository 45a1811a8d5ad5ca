package raster

import "errors"

var (
	// ErrShapeMismatch is returned when rasters passed to an operation do not
	// have the dimensions it requires
	ErrShapeMismatch = errors.New("raster shape mismatch")
	// ErrBadSlice is returned for malformed slices and slices that do not fit
	// inside the raster they address
	ErrBadSlice = errors.New("bad slice")
	// ErrBufferTooSmall is returned by Write when the buffer holds fewer
	// samples than the slice covers
	ErrBufferTooSmall = errors.New("buffer too small")
	// ErrInvalidWindowSize is returned for tile and partition sizes outside
	// the supported range
	ErrInvalidWindowSize = errors.New("invalid window size")
	// ErrInvalidLevelCount is returned when a pyramid is asked for fewer than
	// one level
	ErrInvalidLevelCount = errors.New("invalid level count")
	// ErrUnsupportedKind is returned for element kinds other than UInt8,
	// UInt16 and Float32
	ErrUnsupportedKind = errors.New("unsupported raster kind")
	// ErrAlreadyExists is returned when creating a raster under a taken name
	ErrAlreadyExists = errors.New("raster already exists")
	// ErrNotFound is returned when opening a raster that doesn't exist
	ErrNotFound = errors.New("raster not found")
	// ErrNotARaster is returned when opening an array that was not created
	// as a raster
	ErrNotARaster = errors.New("not a raster")
	// ErrDivideByZero is returned by scalar division by zero
	ErrDivideByZero = errors.New("divide by zero")
	// ErrInvalidParameter is returned for out of range numeric arguments
	ErrInvalidParameter = errors.New("invalid parameter")
)
