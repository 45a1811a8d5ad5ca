package cli

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/qri-io/zarr-raster/pyramid"
	"github.com/qri-io/zarr-raster/raster"
	"github.com/qri-io/zarr-raster/spectral"
)

// NewCombineCommand creates the combine command.
func NewCombineCommand(rootOpts *RootOptions) *cobra.Command {
	var value float64
	cmd := &cobra.Command{
		Use:   "combine <a> <op> [b]",
		Short: "Add, subtract, multiply or divide rasters",
		Long: `Combine raster a with raster b, or with --value, into a new raster named
after the expression, like a_PLUS_b or a_TIMES_val.

op is one of add, sub, mul or div.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := raster.ParseOp(args[1])
			if err != nil {
				return WrapExitError(ExitFailure, "combine", err)
			}
			scalar := cmd.Flags().Changed("value")
			if scalar == (len(args) == 3) {
				return NewExitError(ExitFailure, "combine needs exactly one of a second raster or --value")
			}
			return run(rootOpts, cmd, func(s *session) error {
				a, err := raster.Open(s.group, args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "combine", err)
				}
				var out *raster.Raster
				if scalar {
					out, err = raster.ApplyScalar(s.group, a, op, value)
				} else {
					var b *raster.Raster
					if b, err = raster.Open(s.group, args[2]); err != nil {
						return WrapExitError(ExitFailure, "combine", err)
					}
					out, err = raster.Apply(s.group, a, b, op)
				}
				if err != nil {
					return WrapExitError(ExitFailure, "combine", err)
				}
				return s.out.Success(describe(out))
			})
		},
	}
	cmd.Flags().Float64Var(&value, "value", 0, "scalar operand")
	return cmd
}

// filterOptions are the parameters of the filter command
type filterOptions struct {
	kind       string
	window     int
	mask       int
	partitions int
	bits       int
	right      bool
	offset     float64
	mult       float64
}

// filters maps filter names to the operation they run
var filters = map[string]func(in, out *raster.Raster, o *filterOptions) error{
	"harmonic": func(in, out *raster.Raster, o *filterOptions) error {
		return raster.HarmonicMean(in, out, o.window)
	},
	"midpoint": func(in, out *raster.Raster, o *filterOptions) error {
		return raster.MidpointFilter(in, out, o.window)
	},
	"range": func(in, out *raster.Raster, o *filterOptions) error {
		return raster.RangeFilter(in, out, o.window)
	},
	"gradient": func(in, out *raster.Raster, o *filterOptions) error {
		return raster.GradientMask(in, out, o.mask)
	},
	"autothreshold": func(in, out *raster.Raster, o *filterOptions) error {
		return raster.AutoLocalThreshold(in, out, o.partitions)
	},
	"bitshift": func(in, out *raster.Raster, o *filterOptions) error {
		return raster.BitShift(in, out, o.bits, o.right)
	},
	"scale": func(in, out *raster.Raster, o *filterOptions) error {
		return raster.Scale(in, out, o.offset, o.mult)
	},
}

// NewFilterCommand creates the filter command.
func NewFilterCommand(rootOpts *RootOptions) *cobra.Command {
	o := &filterOptions{}
	cmd := &cobra.Command{
		Use:   "filter <filter> <in> <out>",
		Short: "Run a filter over a raster into a new raster",
		Long: `Run a filter over raster in, writing the result to a new raster out.

filter is one of harmonic, midpoint, range (tile statistics over --window),
gradient (--mask), autothreshold (--partitions), bitshift (--bits, --right)
or scale (--offset, --mult). out gets in's kind unless --kind is set.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			fn, ok := filters[args[0]]
			if !ok {
				return NewExitError(ExitFailure, fmt.Sprintf("unknown filter %q", args[0]))
			}
			return run(rootOpts, cmd, func(s *session) error {
				in, err := raster.Open(s.group, args[1])
				if err != nil {
					return WrapExitError(ExitFailure, "filter", err)
				}
				kind := in.Kind()
				if o.kind != "" {
					if kind, err = raster.ParseKind(o.kind); err != nil {
						return WrapExitError(ExitFailure, "filter", err)
					}
				}
				nx, ny := in.Dimensions()
				out, err := raster.Create(s.group, args[2], kind, nx, ny, raster.WithLayoutOf(in))
				if err != nil {
					return WrapExitError(ExitFailure, "filter", err)
				}
				s.out.VerboseLog("running %s filter over %s", args[0], in)
				if err := fn(in, out, o); err != nil {
					return WrapExitError(ExitFailure, args[0], discard(err, out))
				}
				return s.out.Success(describe(out))
			})
		},
	}
	cmd.Flags().StringVar(&o.kind, "kind", "", "output element kind")
	cmd.Flags().IntVar(&o.window, "window", 3, "tile size, odd within [3, 11]")
	cmd.Flags().IntVar(&o.mask, "mask", 1, "gradient mask within [1, 8]")
	cmd.Flags().IntVar(&o.partitions, "partitions", 10, "blocks per side within [1, 150]")
	cmd.Flags().IntVar(&o.bits, "bits", 1, "bits to shift by")
	cmd.Flags().BoolVar(&o.right, "right", false, "shift right instead of left")
	cmd.Flags().Float64Var(&o.offset, "offset", 0, "value subtracted before scaling")
	cmd.Flags().Float64Var(&o.mult, "mult", 1, "scale factor")
	return cmd
}

// NewPyramidCommand creates the pyramid command.
func NewPyramidCommand(rootOpts *RootOptions) *cobra.Command {
	var levels int
	cmd := &cobra.Command{
		Use:   "pyramid <gaussian|laplacian> <base>",
		Short: "Build an image pyramid over a raster",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			build := pyramid.Gaussian
			switch args[0] {
			case "gaussian":
			case "laplacian":
				build = pyramid.Laplacian
			default:
				return NewExitError(ExitFailure, fmt.Sprintf("unknown pyramid %q", args[0]))
			}
			return run(rootOpts, cmd, func(s *session) error {
				base, err := raster.Open(s.group, args[1])
				if err != nil {
					return WrapExitError(ExitFailure, "pyramid", err)
				}
				built, err := build(s.group, base, levels)
				if err != nil {
					return WrapExitError(ExitFailure, "pyramid", err)
				}
				list := make(rasterList, len(built))
				for i, r := range built {
					list[i] = describe(r)
				}
				return s.out.Success(list)
			})
		},
	}
	cmd.Flags().IntVarP(&levels, "levels", "n", 3, "number of levels to build")
	return cmd
}

// NewLowPassCommand creates the lowpass command.
func NewLowPassCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lowpass <in> <out>",
		Short: "Low pass filter a raster through its Fourier transform",
		Long: `Low pass filter raster in into a new Float32 raster out. The filtered
spectrum is kept alongside as out_REAL and out_IMAG.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(rootOpts, cmd, func(s *session) error {
				in, err := raster.Open(s.group, args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "lowpass", err)
				}
				nx, ny := in.Dimensions()
				created := make([]*raster.Raster, 0, 3)
				for _, name := range []string{args[1] + "_REAL", args[1] + "_IMAG", args[1]} {
					r, err := raster.Create(s.group, name, raster.Float32, nx, ny, raster.WithLayoutOf(in))
					if err != nil {
						return WrapExitError(ExitFailure, "lowpass", discard(err, created...))
					}
					created = append(created, r)
				}
				if err := spectral.LowPassFilter(s.group, in, created[0], created[1], created[2]); err != nil {
					return WrapExitError(ExitFailure, "lowpass", discard(err, created...))
				}
				return s.out.Success(describe(created[2]))
			})
		},
	}
}

// NewNoiseCommand creates the noise command.
func NewNoiseCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		low  float64
		seed uint64
	)
	cmd := &cobra.Command{
		Use:   "noise <in> <out>",
		Short: "Add salt and pepper noise to a raster",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = rand.Uint64()
			}
			return run(rootOpts, cmd, func(s *session) error {
				in, err := raster.Open(s.group, args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "noise", err)
				}
				nx, ny := in.Dimensions()
				out, err := raster.Create(s.group, args[1], in.Kind(), nx, ny, raster.WithLayoutOf(in))
				if err != nil {
					return WrapExitError(ExitFailure, "noise", err)
				}
				s.out.VerboseLog("adding noise to %s with seed %d", in, seed)
				rng := rand.New(rand.NewPCG(seed, seed))
				if err := raster.AddSaltPepper(in, out, low, rng); err != nil {
					return WrapExitError(ExitFailure, "noise", discard(err, out))
				}
				return s.out.Success(describe(out))
			})
		},
	}
	cmd.Flags().Float64Var(&low, "low", 0.05, "probability of each of salt and pepper, within [0, 0.5]")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed, random if unset")
	return cmd
}

// discard removes outputs created for a command that failed, joining any
// removal errors onto err
func discard(err error, outputs ...*raster.Raster) error {
	errs := []error{err}
	for _, r := range outputs {
		errs = append(errs, r.Destroy())
	}
	return errors.Join(errs...)
}
