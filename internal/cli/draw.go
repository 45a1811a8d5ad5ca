package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qri-io/zarr-raster/raster"
)

// drawOptions are the parameters of the draw command
type drawOptions struct {
	slice  raster.Slice
	radius float64
	width  int
	color  float64
	fill   float64
}

var shapes = map[string]func(r *raster.Raster, o *drawOptions) error{
	"set": func(r *raster.Raster, o *drawOptions) error {
		return raster.Set(r, o.slice, o.color)
	},
	"circle": func(r *raster.Raster, o *drawOptions) error {
		return raster.DrawFilledCircle(r, o.slice.X0, o.slice.Y0, o.radius, o.color)
	},
	"line": func(r *raster.Raster, o *drawOptions) error {
		return raster.DrawLine(r, o.slice, o.radius, o.color)
	},
	"rect": func(r *raster.Raster, o *drawOptions) error {
		return raster.DrawRectangle(r, o.slice, o.width, o.color)
	},
	"filled-rect": func(r *raster.Raster, o *drawOptions) error {
		return raster.DrawFilledRectangle(r, o.slice, o.width, o.color, o.fill)
	},
}

// NewDrawCommand creates the draw command.
func NewDrawCommand(rootOpts *RootOptions) *cobra.Command {
	o := &drawOptions{}
	cmd := &cobra.Command{
		Use:   "draw <shape> <raster>",
		Short: "Draw a shape into a raster in place",
		Long: `Draw a shape into an existing raster.

shape is one of:
  set          fill the slice --x --y --dx --dy with --color
  circle       a disc of --radius centered on --x --y
  line         a segment from --x --y to --x+dx --y+dy, --radius thick
  rect         the outline of the slice, --width thick
  filled-rect  an outlined slice filled with --fill`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fn, ok := shapes[args[0]]
			if !ok {
				return NewExitError(ExitFailure, fmt.Sprintf("unknown shape %q", args[0]))
			}
			return run(rootOpts, cmd, func(s *session) error {
				r, err := raster.Open(s.group, args[1])
				if err != nil {
					return WrapExitError(ExitFailure, "draw", err)
				}
				if err := fn(r, o); err != nil {
					return WrapExitError(ExitFailure, "draw "+args[0], err)
				}
				return s.out.Success(describe(r))
			})
		},
	}
	cmd.Flags().IntVar(&o.slice.X0, "x", 0, "first column")
	cmd.Flags().IntVar(&o.slice.Y0, "y", 0, "first row")
	cmd.Flags().IntVar(&o.slice.DX, "dx", 1, "width in columns")
	cmd.Flags().IntVar(&o.slice.DY, "dy", 1, "height in rows")
	cmd.Flags().Float64Var(&o.radius, "radius", 1, "circle radius or line half width")
	cmd.Flags().IntVar(&o.width, "width", 1, "rectangle edge width")
	cmd.Flags().Float64Var(&o.color, "color", 255, "sample value to draw with")
	cmd.Flags().Float64Var(&o.fill, "fill", 0, "fill value of filled-rect")
	return cmd
}
