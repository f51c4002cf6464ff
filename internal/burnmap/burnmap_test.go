package burnmap

import (
	"math"
	"testing"

	"github.com/peterstace/simplefeatures/geom"

	"fireline/internal/perimeter"
)

func polyWKT(t *testing.T, wkt string) geom.Geometry {
	t.Helper()
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		t.Fatalf("UnmarshalWKT(%q): %v", wkt, err)
	}
	return g
}

func TestRasterizeFullCoverage(t *testing.T) {
	def := GridDef{NumNorth: 3, NumEast: 4, ResX: 10, ResY: 10, West: 0, South: 0}
	m := perimeter.Merged{Geometry: polyWKT(t, "POLYGON((-5 -5,100 -5,100 100,-5 100,-5 -5))")}

	burn, err := Rasterize(def, m)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	for i, row := range burn {
		for j, v := range row {
			if v != 1 {
				t.Fatalf("cell (%d,%d) = %v, want 1", i, j, v)
			}
		}
	}
}

func TestRasterizeNoOverlap(t *testing.T) {
	def := GridDef{NumNorth: 3, NumEast: 3, ResX: 10, ResY: 10, West: 0, South: 0}
	m := perimeter.Merged{Geometry: polyWKT(t, "POLYGON((1000 1000,1010 1000,1010 1010,1000 1010,1000 1000))")}

	burn, err := Rasterize(def, m)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	for i, row := range burn {
		for j, v := range row {
			if v != 0 {
				t.Fatalf("cell (%d,%d) = %v, want 0", i, j, v)
			}
		}
	}
}

func TestRasterizePartialCoverage(t *testing.T) {
	// Covers cell (0,0) fully and the left half of cell (0,1) by area.
	def := GridDef{NumNorth: 2, NumEast: 2, ResX: 10, ResY: 10, West: 0, South: 0}
	m := perimeter.Merged{Geometry: polyWKT(t, "POLYGON((-1 -1,15 -1,15 10,-1 10,-1 -1))")}

	burn, err := Rasterize(def, m)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	want := [][]float64{{1, 0.5}, {0, 0}}
	for i := range want {
		for j := range want[i] {
			if math.Abs(burn[i][j]-want[i][j]) > 1e-9 {
				t.Fatalf("cell (%d,%d) = %v, want %v", i, j, burn[i][j], want[i][j])
			}
		}
	}
}

func TestComputeStacksSteps(t *testing.T) {
	def := GridDef{NumNorth: 2, NumEast: 2, ResX: 10, ResY: 10, West: 0, South: 0}
	merged := []perimeter.Merged{
		{ElapsedMinutes: 0, Geometry: polyWKT(t, "POLYGON((0 0,10 0,10 10,0 10,0 0))")},
		{ElapsedMinutes: 60, Geometry: polyWKT(t, "POLYGON((0 0,20 0,20 20,0 20,0 0))")},
	}
	bm, err := Compute(def, merged)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(bm) != 2 {
		t.Fatalf("got %d steps, want 2", len(bm))
	}
	fractions := bm.Fractions()
	if math.Abs(fractions[0]-0.25) > 1e-9 {
		t.Fatalf("step 0 fraction = %v, want 0.25", fractions[0])
	}
	if math.Abs(fractions[1]-1) > 1e-9 {
		t.Fatalf("step 1 fraction = %v, want 1", fractions[1])
	}
}
