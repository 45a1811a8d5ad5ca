package zarr

type chunkDimProjection struct {
	// Index of chunk.
	DimChunkIX int
	// Selection of items from chunk array.
	DimChunkSel int
	// Selection of items in target (output) array.
	DimOutSel int
	// Number of items selected.
	DimLen int
}

// dimProjections splits the run [offset, offset+count) along one dimension at
// chunk boundaries
func dimProjections(chunkLen, offset, count int) []chunkDimProjection {
	projs := []chunkDimProjection{}
	for pos := offset; pos < offset+count; {
		ix := pos / chunkLen
		sel := pos - ix*chunkLen
		n := min(chunkLen-sel, offset+count-pos)
		projs = append(projs, chunkDimProjection{
			DimChunkIX:  ix,
			DimChunkSel: sel,
			DimOutSel:   pos - offset,
			DimLen:      n,
		})
		pos += n
	}
	return projs
}

// A mapping of items from chunk to output array. Can be used to extract items
// from the chunk array for loading into an output array. Can also be used to
// extract items from a value array for setting/updating in a chunk array.
type chunkProjection struct {
	// Indices of chunk
	ChunkCoords [2]int
	// Selection of items from chunk array.
	ChunkSelection [2]int
	// Selection of items in target (output) array.
	OutSelection [2]int
	// Extent of the selection, in rows and columns.
	Count [2]int
}

// projectHyperslab returns one projection for every chunk the region of
// count elements at offset touches, in row-major chunk order
func projectHyperslab(chunks, offset, count [2]int) []chunkProjection {
	rows := dimProjections(chunks[0], offset[0], count[0])
	cols := dimProjections(chunks[1], offset[1], count[1])
	projs := make([]chunkProjection, 0, len(rows)*len(cols))
	for _, r := range rows {
		for _, c := range cols {
			projs = append(projs, chunkProjection{
				ChunkCoords:    [2]int{r.DimChunkIX, c.DimChunkIX},
				ChunkSelection: [2]int{r.DimChunkSel, c.DimChunkSel},
				OutSelection:   [2]int{r.DimOutSel, c.DimOutSel},
				Count:          [2]int{r.DimLen, c.DimLen},
			})
		}
	}
	return projs
}
