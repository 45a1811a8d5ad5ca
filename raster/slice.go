package raster

import "fmt"

// Slice is a rectangular region of a raster: DX columns by DY rows whose top
// left sample sits at column X0, row Y0
type Slice struct {
	X0, Y0 int
	DX, DY int
}

// SliceOf builds a slice from its components in x0, y0, dx, dy order.
// Components past the fourth are ignored.
func SliceOf(vals ...int) (Slice, error) {
	if len(vals) < 4 {
		return Slice{}, fmt.Errorf("%w: need 4 components, got %d", ErrBadSlice, len(vals))
	}
	return Slice{X0: vals[0], Y0: vals[1], DX: vals[2], DY: vals[3]}, nil
}

// Row is the slice covering row y of a raster nx samples wide
func Row(y, nx int) Slice {
	return Slice{X0: 0, Y0: y, DX: nx, DY: 1}
}

// Column is the slice covering column x of a raster ny samples tall
func Column(x, ny int) Slice {
	return Slice{X0: x, Y0: 0, DX: 1, DY: ny}
}

// Len is the number of samples s covers
func (s Slice) Len() int {
	return s.DX * s.DY
}

func (s Slice) String() string {
	return fmt.Sprintf("[%d %d %d %d]", s.X0, s.Y0, s.DX, s.DY)
}

// Within checks that s is well formed and fits inside an nx by ny raster
func (s Slice) Within(nx, ny int) error {
	if s.X0 < 0 || s.Y0 < 0 || s.DX <= 0 || s.DY <= 0 {
		return fmt.Errorf("%w: %s", ErrBadSlice, s)
	}
	if s.X0+s.DX > nx || s.Y0+s.DY > ny {
		return fmt.Errorf("%w: %s exceeds %dx%d raster", ErrBadSlice, s, nx, ny)
	}
	return nil
}
