// Command zraster creates and processes rasters stored in zarr groups.
package main

import (
	"fmt"
	"os"

	"github.com/qri-io/zarr-raster/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
