package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qri-io/zarr-raster/raster"
)

// rasterInfo describes one raster in command output
type rasterInfo struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	NX         int    `json:"nx"`
	NY         int    `json:"ny"`
	Chunks     [2]int `json:"chunks"`
	Compressor string `json:"compressor,omitempty"`
}

func describe(r *raster.Raster) rasterInfo {
	nx, ny := r.Dimensions()
	m := r.Meta()
	info := rasterInfo{
		Name:   r.Name(),
		Kind:   r.Kind().String(),
		NX:     nx,
		NY:     ny,
		Chunks: m.Chunks,
	}
	if m.Compressor != nil {
		info.Compressor = m.Compressor.ID
	}
	return info
}

func (i rasterInfo) String() string {
	s := fmt.Sprintf("%s\t%s\t%dx%d\tchunks %dx%d", i.Name, i.Kind, i.NX, i.NY, i.Chunks[1], i.Chunks[0])
	if i.Compressor != "" {
		s += "\t" + i.Compressor
	}
	return s
}

// rasterList prints one raster per line in text output
type rasterList []rasterInfo

func (l rasterList) String() string {
	lines := make([]string, len(l))
	for i, info := range l {
		lines[i] = info.String()
	}
	return strings.Join(lines, "\n")
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		kind   string
		nx, ny int
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty raster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := raster.ParseKind(kind)
			if err != nil {
				return WrapExitError(ExitFailure, "create", err)
			}
			return run(rootOpts, cmd, func(s *session) error {
				r, err := raster.Create(s.group, args[0], k, nx, ny, rootOpts.Config.RasterOptions()...)
				if err != nil {
					return WrapExitError(ExitFailure, "create", err)
				}
				return s.out.Success(describe(r))
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "uint8", "element kind (uint8|uint16|float32)")
	cmd.Flags().IntVar(&nx, "nx", 0, "width in samples")
	cmd.Flags().IntVar(&ny, "ny", 0, "height in samples")
	cmd.MarkFlagRequired("nx")
	cmd.MarkFlagRequired("ny")
	return cmd
}

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Describe a raster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(rootOpts, cmd, func(s *session) error {
				r, err := raster.Open(s.group, args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "info", err)
				}
				return s.out.Success(describe(r))
			})
		},
	}
}

// NewListCommand creates the ls command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var consolidate bool
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List the rasters in the configured group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(rootOpts, cmd, func(s *session) error {
				names, err := s.group.ArrayNames()
				if err != nil {
					return WrapExitError(ExitFailure, "ls", err)
				}
				list := rasterList{}
				for _, name := range names {
					r, err := raster.Open(s.group, name)
					if errors.Is(err, raster.ErrNotARaster) || errors.Is(err, raster.ErrUnsupportedKind) {
						s.out.VerboseLog("skipping array %s: %v", name, err)
						continue
					} else if err != nil {
						return WrapExitError(ExitFailure, "ls", err)
					}
					list = append(list, describe(r))
				}
				if consolidate {
					if _, err := s.group.Consolidate(); err != nil {
						return WrapExitError(ExitFailure, "consolidating metadata", err)
					}
				}
				return s.out.Success(list)
			})
		},
	}
	cmd.Flags().BoolVar(&consolidate, "consolidate", false, "also write consolidated group metadata")
	return cmd
}
