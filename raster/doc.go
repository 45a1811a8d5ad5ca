// Package raster implements named two dimensional rasters persisted as
// chunked zarr arrays, and image processing operations that stream through
// them one slice at a time.
//
// A Raster is created in, or opened from, a zarr.Group. Its element kind
// (UInt8, UInt16 or Float32) and dimensions are fixed at creation. Samples
// are moved in and out through Read and Write, which address a rectangular
// Slice of the raster and convert between the persisted kind and the
// caller's buffer type:
//
//	r, err := raster.Create(group, "B07", raster.UInt16, 200, 200)
//	...
//	s := raster.Slice{X0: 0, Y0: 0, DX: 40, DY: 60}
//	buf, err := raster.Read(r, s, []float32(nil))
//
// Nothing is cached: every Read and Write is a pass through to the store.
// Operations never hold a whole raster in memory, they stream rows or tiles
// from their inputs and write results to an output raster. Rasters are not
// safe for concurrent writers.
package raster
