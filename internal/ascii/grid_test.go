package ascii

import (
	"strings"
	"testing"
)

const sampleGrid = `NCOLS: 3
NROWS: 2
XLLCORNER: 500.5
YLLCORNER: 1000.25
CELLSIZE: 30
NODATA_VALUE: -9999
1.5 2.5 3.5
-9999 5 6
`

func TestReadGrid(t *testing.T) {
	g, err := Read(strings.NewReader(sampleGrid))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if g.Rows != 2 || g.Cols != 3 {
		t.Fatalf("shape = (%d,%d), want (2,3)", g.Rows, g.Cols)
	}
	if g.XLLCorner != 500.5 || g.YLLCorner != 1000.25 {
		t.Errorf("corner = (%v,%v), want (500.5,1000.25)", g.XLLCorner, g.YLLCorner)
	}
	if g.Data[0][2] != 3.5 {
		t.Errorf("cell (0,2) = %v, want 3.5", g.Data[0][2])
	}
	if !g.IsNoData(1, 0) {
		t.Error("cell (1,0) should be flagged as missing")
	}
	if g.IsNoData(1, 1) {
		t.Error("cell (1,1) wrongly flagged as missing")
	}
}

func TestReadRejectsRaggedRows(t *testing.T) {
	bad := strings.Replace(sampleGrid, "-9999 5 6", "-9999 5", 1)
	if _, err := Read(strings.NewReader(bad)); err == nil {
		t.Fatal("expected error for short row")
	}
}

func TestReadRejectsRowCountMismatch(t *testing.T) {
	bad := strings.Replace(sampleGrid, "NROWS: 2", "NROWS: 3", 1)
	if _, err := Read(strings.NewReader(bad)); err == nil {
		t.Fatal("expected error for missing row")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	g, err := Read(strings.NewReader(sampleGrid))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	var buf strings.Builder
	if err := g.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("re-Read: %v", err)
	}
	if got.Rows != g.Rows || got.Cols != g.Cols {
		t.Fatalf("shape changed across round trip")
	}
	for i := range g.Data {
		for j := range g.Data[i] {
			if got.Data[i][j] != g.Data[i][j] {
				t.Errorf("cell (%d,%d) = %v, want %v", i, j, got.Data[i][j], g.Data[i][j])
			}
		}
	}
}
