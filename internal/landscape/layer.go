package landscape

import "sort"

const (
	// NumVals is the fixed capacity of a layer's distinct-value table.
	NumVals = 100
	// NoData marks cells with no measurement.
	NoData = -9999
	// TooManyVals is the Num sentinel for layers whose distinct-value count
	// exceeds the table capacity.
	TooManyVals = -1
)

// Layer is one raster band of a landscape plus the categorical summary the
// wire format carries for it. The summary fields are derived from the cell
// data and are never authoritative on their own; NewLayer computes them once
// and WithGrid recomputes them whenever the data is replaced.
type Layer struct {
	Lo       int32
	Hi       int32
	Num      int32
	Vals     [NumVals]int32
	UnitOpts int16
	File     string

	grid Grid
}

// NewLayer builds a layer around the given raster and derives its summary.
func NewLayer(g Grid) Layer {
	l := Layer{grid: g}
	l.rebuildSummary()
	return l
}

// Grid returns the layer's raster.
func (l Layer) Grid() Grid { return l.grid }

// WithGrid returns a copy of the layer carrying the new raster with a freshly
// derived summary. Unit options and the file reference are preserved.
func (l Layer) WithGrid(g Grid) Layer {
	l.grid = g
	l.rebuildSummary()
	return l
}

// Rederived returns a copy with the summary recomputed from the current
// raster. The codec calls this before writing so stale tables never reach the
// wire.
func (l Layer) Rederived() Layer {
	l.rebuildSummary()
	return l
}

// Equal reports whether two layers match in both summary and cell data.
func (l Layer) Equal(other Layer) bool {
	return l.Lo == other.Lo &&
		l.Hi == other.Hi &&
		l.Num == other.Num &&
		l.Vals == other.Vals &&
		l.UnitOpts == other.UnitOpts &&
		l.File == other.File &&
		l.grid.Equal(other.grid)
}

// rebuildSummary recomputes Lo, Hi, Num, and Vals from the cell data. The
// distinct-value table holds the ascending set of values found in the raster
// with 0 injected as the first entry when absent. Num is TooManyVals when the
// table cannot represent the set: more than NumVals distinct values, or
// exactly NumVals where the 0 injection (or a NoData entry) would overflow it.
func (l *Layer) rebuildSummary() {
	l.Lo, l.Hi = 0, 0
	l.Num = 0
	l.Vals = [NumVals]int32{}
	if l.grid.rows == 0 || l.grid.cols == 0 {
		return
	}

	lo, hi := l.grid.cells[0], l.grid.cells[0]
	seen := make(map[int16]struct{})
	for _, v := range l.grid.cells {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
		seen[v] = struct{}{}
	}
	l.Lo, l.Hi = int32(lo), int32(hi)

	if len(seen) > NumVals {
		l.Num = TooManyVals
		return
	}
	_, hasZero := seen[0]
	_, hasNoData := seen[NoData]
	if len(seen) == NumVals && (hasNoData || !hasZero) {
		l.Num = TooManyVals
		return
	}

	unique := make([]int32, 0, len(seen)+1)
	for v := range seen {
		unique = append(unique, int32(v))
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })
	if !hasZero {
		unique = append([]int32{0}, unique...)
	}
	l.Num = int32(len(unique))
	copy(l.Vals[:], unique)
}
