package raster

import (
	"fmt"
	"math"
)

// DrawFilledCircle sets every sample within radius of (x0, y0) to color. The
// circle must lie entirely inside r.
func DrawFilledCircle(r *Raster, x0, y0 int, radius, color float64) error {
	if radius < 0 || math.IsNaN(radius) {
		return fmt.Errorf("%w: radius %v", ErrInvalidParameter, radius)
	}
	if err := r.fits(float64(x0), float64(y0), radius); err != nil {
		return err
	}
	rad := int(radius)
	if rad == 0 {
		return nil
	}

	s := Slice{X0: x0 - rad, Y0: y0 - rad, DX: 2 * rad, DY: 2 * rad}
	data, err := r.Read(s, nil)
	if err != nil {
		return err
	}
	rsq := radius * radius
	for y := 0; y < s.DY; y++ {
		for x := 0; x < s.DX; x++ {
			dx, dy := float64(x)-radius, float64(y)-radius
			if dx*dx+dy*dy <= rsq {
				data[y*s.DX+x] = color
			}
		}
	}
	return r.Write(s, data)
}

// DrawLine draws a segment from (s.X0, s.Y0) to (s.X0+s.DX, s.Y0+s.DY),
// setting every sample within radius of it to color. A radius below one half
// still draws a one sample wide line. DX and DY may be zero or negative.
func DrawLine(r *Raster, s Slice, radius, color float64) error {
	if radius < 0 || math.IsNaN(radius) {
		return fmt.Errorf("%w: radius %v", ErrInvalidParameter, radius)
	}
	x0, y0 := float64(s.X0), float64(s.Y0)
	x1, y1 := float64(s.X0+s.DX), float64(s.Y0+s.DY)
	if err := r.fits(x0, y0, radius); err != nil {
		return err
	}
	if err := r.fits(x1, y1, radius); err != nil {
		return err
	}

	reach := max(radius, 0.5)
	xlo := max(0, int(math.Floor(min(x0, x1)-reach)))
	xhi := min(r.nx-1, int(math.Ceil(max(x0, x1)+reach)))
	ylo := max(0, int(math.Floor(min(y0, y1)-reach)))
	yhi := min(r.ny-1, int(math.Ceil(max(y0, y1)+reach)))
	box := Slice{X0: xlo, Y0: ylo, DX: xhi - xlo + 1, DY: yhi - ylo + 1}

	data, err := r.Read(box, nil)
	if err != nil {
		return err
	}
	for y := 0; y < box.DY; y++ {
		for x := 0; x < box.DX; x++ {
			if segmentDist(float64(box.X0+x), float64(box.Y0+y), x0, y0, x1, y1) <= reach {
				data[y*box.DX+x] = color
			}
		}
	}
	return r.Write(box, data)
}

// DrawRectangle outlines s with edges width samples thick
func DrawRectangle(r *Raster, s Slice, width int, color float64) error {
	if width < 0 {
		return fmt.Errorf("%w: line width %d", ErrInvalidParameter, width)
	}
	if err := s.Within(r.nx, r.ny); err != nil {
		return err
	}
	w := min(width, s.DX, s.DY)
	if w == 0 {
		return nil
	}
	edges := []Slice{
		{X0: s.X0, Y0: s.Y0, DX: w, DY: s.DY},
		{X0: s.X0, Y0: s.Y0, DX: s.DX, DY: w},
		{X0: s.X0, Y0: s.Y0 + s.DY - w, DX: s.DX, DY: w},
		{X0: s.X0 + s.DX - w, Y0: s.Y0, DX: w, DY: s.DY},
	}
	for _, e := range edges {
		if err := Set(r, e, color); err != nil {
			return err
		}
	}
	return nil
}

// DrawFilledRectangle fills s with fillColor and outlines it with lineColor
func DrawFilledRectangle(r *Raster, s Slice, width int, lineColor, fillColor float64) error {
	if width < 0 {
		return fmt.Errorf("%w: line width %d", ErrInvalidParameter, width)
	}
	if err := Set(r, s, fillColor); err != nil {
		return err
	}
	return DrawRectangle(r, s, width, lineColor)
}

// fits checks that the disc of radius around (x, y) lies inside r
func (r *Raster) fits(x, y, radius float64) error {
	if x-radius < 0 || x+radius > float64(r.nx) || y-radius < 0 || y+radius > float64(r.ny) {
		return fmt.Errorf("%w: radius %v around (%v, %v) leaves %dx%d raster", ErrBadSlice, radius, x, y, r.nx, r.ny)
	}
	return nil
}

// segmentDist is the distance from (px, py) to the segment (x0, y0)-(x1, y1)
func segmentDist(px, py, x0, y0, x1, y1 float64) float64 {
	dx, dy := x1-x0, y1-y0
	t := 0.0
	if l := dx*dx + dy*dy; l > 0 {
		t = ((px-x0)*dx + (py-y0)*dy) / l
		t = max(0, min(1, t))
	}
	return math.Hypot(px-(x0+t*dx), py-(y0+t*dy))
}
