// Package npyfile persists numeric arrays in the NumPy .npy format so exported
// artifacts can be loaded directly by downstream analysis tooling.
//
// Rank-2 and rank-3 grids are serialized here against the documented .npy v1.0
// layout because npyio's writer only carries a true multi-dimensional shape for
// mat.Dense values; nested slices fail its binary encoding step. npyio remains
// the reader of record for the format.
package npyfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sbinet/npyio"
)

var magic = [6]byte{'\x93', 'N', 'U', 'M', 'P', 'Y'}

// Save writes v to path in the .npy format, creating parent directories as
// needed. Rank-2 slices of float64 or int16 and rank-3 slices of float64 are
// written with their full shape; anything else is handed to npyio.
func Save(path string, v any) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory %q: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	buf := bufio.NewWriter(f)
	if err := write(buf, v); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := buf.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func write(w io.Writer, v any) error {
	switch data := v.(type) {
	case [][]float64:
		flat, shape, err := flattenGrid(data)
		if err != nil {
			return err
		}
		return writeArray(w, "<f8", shape, flat)
	case [][]int16:
		flat, shape, err := flattenGrid(data)
		if err != nil {
			return err
		}
		return writeArray(w, "<i2", shape, flat)
	case [][][]float64:
		flat, shape, err := flattenStack(data)
		if err != nil {
			return err
		}
		return writeArray(w, "<f8", shape, flat)
	default:
		return npyio.Write(w, v)
	}
}

// flattenGrid lays a rectangular rank-2 slice out in row-major order.
func flattenGrid[T int16 | float64](grid [][]T) ([]T, []int, error) {
	cols := 0
	if len(grid) > 0 {
		cols = len(grid[0])
	}
	flat := make([]T, 0, len(grid)*cols)
	for i, row := range grid {
		if len(row) != cols {
			return nil, nil, fmt.Errorf("ragged array: row %d has %d values, want %d", i, len(row), cols)
		}
		flat = append(flat, row...)
	}
	return flat, []int{len(grid), cols}, nil
}

// flattenStack lays a rank-3 slice out in C order, slab by slab.
func flattenStack(stack [][][]float64) ([]float64, []int, error) {
	rows, cols := 0, 0
	if len(stack) > 0 {
		rows = len(stack[0])
		if rows > 0 {
			cols = len(stack[0][0])
		}
	}
	flat := make([]float64, 0, len(stack)*rows*cols)
	for k, slab := range stack {
		slabFlat, shape, err := flattenGrid(slab)
		if err != nil {
			return nil, nil, fmt.Errorf("slab %d: %w", k, err)
		}
		if shape[0] != rows || shape[1] != cols {
			return nil, nil, fmt.Errorf("ragged array: slab %d is %dx%d, want %dx%d",
				k, shape[0], shape[1], rows, cols)
		}
		flat = append(flat, slabFlat...)
	}
	return flat, []int{len(stack), rows, cols}, nil
}

// writeArray emits a .npy v1.0 record: magic, version, a space-padded header
// dict whose total preamble length is a multiple of 64, then the flat data in
// little-endian C order.
func writeArray(w io.Writer, descr string, shape []int, flat any) error {
	dims := make([]string, len(shape))
	for i, n := range shape {
		dims[i] = strconv.Itoa(n)
	}
	tuple := "(" + strings.Join(dims, ", ") + ")"
	if len(dims) == 1 {
		tuple = "(" + dims[0] + ",)"
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, tuple)
	preamble := len(magic) + 2 + 2 + len(header) + 1
	if rem := preamble % 64; rem != 0 {
		header += strings.Repeat(" ", 64-rem)
	}
	header += "\n"

	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, flat)
}
