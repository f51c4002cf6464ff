package landscape

import "fmt"

// Grid is a dense row-major int16 raster indexed (north, east).
type Grid struct {
	rows  int
	cols  int
	cells []int16
}

// NewGrid allocates a zeroed raster with the given shape.
func NewGrid(rows, cols int) Grid {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("landscape: invalid grid shape %dx%d", rows, cols))
	}
	return Grid{rows: rows, cols: cols, cells: make([]int16, rows*cols)}
}

// GridFromRows builds a Grid from nested row slices. All rows must share the
// same length.
func GridFromRows(rows [][]int16) (Grid, error) {
	if len(rows) == 0 {
		return Grid{}, nil
	}
	cols := len(rows[0])
	g := NewGrid(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return Grid{}, fmt.Errorf("landscape: ragged grid: row %d has %d cells, want %d", i, len(row), cols)
		}
		copy(g.cells[i*cols:(i+1)*cols], row)
	}
	return g, nil
}

// Rows returns the north extent of the grid.
func (g Grid) Rows() int { return g.rows }

// Cols returns the east extent of the grid.
func (g Grid) Cols() int { return g.cols }

// At returns the cell value at (north, east).
func (g Grid) At(i, j int) int16 { return g.cells[i*g.cols+j] }

// Set assigns the cell value at (north, east).
func (g *Grid) Set(i, j int, v int16) { g.cells[i*g.cols+j] = v }

// Fill assigns every cell the same value.
func (g *Grid) Fill(v int16) {
	for i := range g.cells {
		g.cells[i] = v
	}
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	cp := Grid{rows: g.rows, cols: g.cols, cells: make([]int16, len(g.cells))}
	copy(cp.cells, g.cells)
	return cp
}

// ToRows returns the grid as nested row slices, copying the cells.
func (g Grid) ToRows() [][]int16 {
	rows := make([][]int16, g.rows)
	for i := range rows {
		rows[i] = make([]int16, g.cols)
		copy(rows[i], g.cells[i*g.cols:(i+1)*g.cols])
	}
	return rows
}

// Equal reports whether two grids have the same shape and cell values.
func (g Grid) Equal(other Grid) bool {
	if g.rows != other.rows || g.cols != other.cols {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}
