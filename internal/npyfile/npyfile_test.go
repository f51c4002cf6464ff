package npyfile

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sbinet/npyio"
)

func TestSaveGridRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "grid.npy")
	grid := [][]float64{
		{1, 2, 3},
		{4, 5, 6},
	}
	if err := Save(path, grid); err != nil {
		t.Fatalf("Save: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if got, want := r.Header.Descr.Type, "<f8"; got != want {
		t.Errorf("dtype = %q, want %q", got, want)
	}
	if r.Header.Descr.Fortran {
		t.Error("fortran_order = true, want false")
	}
	if diff := cmp.Diff([]int{2, 3}, r.Header.Descr.Shape); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}

	var flat []float64
	if err := r.Read(&flat); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if diff := cmp.Diff([]float64{1, 2, 3, 4, 5, 6}, flat); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveInt16Grid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.npy")
	grid := [][]int16{
		{7, -9999},
		{0, 42},
		{1, 2},
	}
	if err := Save(path, grid); err != nil {
		t.Fatalf("Save: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if got, want := r.Header.Descr.Type, "<i2"; got != want {
		t.Errorf("dtype = %q, want %q", got, want)
	}
	if diff := cmp.Diff([]int{3, 2}, r.Header.Descr.Shape); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}

	var flat []int16
	if err := r.Read(&flat); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if diff := cmp.Diff([]int16{7, -9999, 0, 42, 1, 2}, flat); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveStack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stack.npy")
	stack := [][][]float64{
		{{0, 0.25}, {0.5, 0.75}},
		{{1, 1}, {1, 0.75}},
	}
	if err := Save(path, stack); err != nil {
		t.Fatalf("Save: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if diff := cmp.Diff([]int{2, 2, 2}, r.Header.Descr.Shape); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}

	// The reader only decodes up to rank 2, so pull the body straight off the
	// file once the header has been consumed.
	flat := make([]float64, 8)
	if err := binary.Read(f, binary.LittleEndian, flat); err != nil {
		t.Fatalf("read body: %v", err)
	}
	want := []float64{0, 0.25, 0.5, 0.75, 1, 1, 1, 0.75}
	if diff := cmp.Diff(want, flat); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveFlatSlice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flat.npy")
	if err := Save(path, []float64{3, 1, 4}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var flat []float64
	if err := npyio.Read(f, &flat); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if diff := cmp.Diff([]float64{3, 1, 4}, flat); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveRejectsRagged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ragged.npy")
	err := Save(path, [][]float64{{1, 2}, {3}})
	if err == nil {
		t.Fatal("Save accepted a ragged grid")
	}
	if !strings.Contains(err.Error(), "ragged") {
		t.Errorf("error = %q, want mention of ragged shape", err)
	}
}
