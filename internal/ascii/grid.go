// Package ascii reads and writes standard GIS ASCII grid files, the format
// the simulator uses for scalar output rasters.
package ascii

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fireline/internal/npyfile"
)

// DefaultNoData is the sentinel marking missing cells when none is declared.
const DefaultNoData = -9999.0

// Grid is one scalar raster with its georeferencing header. Cells equal to
// NoDataValue are missing; IsNoData reports them.
type Grid struct {
	Rows        int
	Cols        int
	XLLCorner   float64
	YLLCorner   float64
	CellSize    float64
	NoDataValue float64
	Data        [][]float64
}

// New returns a zero-filled grid of the given shape with default
// georeferencing.
func New(rows, cols int) *Grid {
	data := make([][]float64, rows)
	for i := range data {
		data[i] = make([]float64, cols)
	}
	return &Grid{
		Rows:        rows,
		Cols:        cols,
		CellSize:    30,
		NoDataValue: DefaultNoData,
		Data:        data,
	}
}

// IsNoData reports whether the cell at (i, j) holds the missing sentinel.
func (g *Grid) IsNoData(i, j int) bool {
	return math.Abs(g.Data[i][j]-g.NoDataValue) < 1e-8*math.Max(1, math.Abs(g.NoDataValue))
}

// Read parses a grid with its six-line header.
func Read(r io.Reader) (*Grid, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<24)

	g := &Grid{}
	headers := []struct {
		name string
		dst  *float64
	}{
		{"ncols", nil},
		{"nrows", nil},
		{"xllcorner", &g.XLLCorner},
		{"yllcorner", &g.YLLCorner},
		{"cellsize", &g.CellSize},
		{"nodata_value", &g.NoDataValue},
	}
	for i, h := range headers {
		if !scanner.Scan() {
			return nil, fmt.Errorf("missing %s header line", h.name)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed header line %q", scanner.Text())
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", h.name, fields[1], err)
		}
		switch i {
		case 0:
			g.Cols = int(v)
		case 1:
			g.Rows = int(v)
		default:
			*h.dst = v
		}
	}

	g.Data = make([][]float64, 0, g.Rows)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		row := make([]float64, len(fields))
		for j, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d field %d %q: %w", len(g.Data), j, f, err)
			}
			row[j] = v
		}
		if len(row) != g.Cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", len(g.Data), len(row), g.Cols)
		}
		g.Data = append(g.Data, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}
	if len(g.Data) != g.Rows {
		return nil, fmt.Errorf("grid has %d rows, header declares %d", len(g.Data), g.Rows)
	}
	return g, nil
}

// ReadFile reads a grid from disk.
func ReadFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grid: %w", err)
	}
	defer f.Close()
	g, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Write serializes the grid with cell values at eight decimal places.
func (g *Grid) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "NCOLS: %d\n", g.Cols)
	fmt.Fprintf(bw, "NROWS: %d\n", g.Rows)
	fmt.Fprintf(bw, "XLLCORNER: %v\n", g.XLLCorner)
	fmt.Fprintf(bw, "YLLCORNER: %v\n", g.YLLCorner)
	fmt.Fprintf(bw, "CELLSIZE: %v\n", g.CellSize)
	fmt.Fprintf(bw, "NODATA_VALUE: %v\n", g.NoDataValue)
	for _, row := range g.Data {
		for j, v := range row {
			if j > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(bw, "%.8f", v); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile stores the grid on disk, creating parent directories.
func (g *Grid) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create grid file: %w", err)
	}
	if err := g.Write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write grid file: %w", err)
	}
	return f.Close()
}

// ExportNumpy persists the raster body as a .npy artifact.
func (g *Grid) ExportNumpy(path string) error {
	return npyfile.Save(path, g.Data)
}
