package perimeter

import (
	"math"
	"testing"

	"github.com/peterstace/simplefeatures/geom"
)

func mustWKT(t *testing.T, wkt string) geom.Geometry {
	t.Helper()
	g, err := geom.UnmarshalWKT(wkt, geom.NoValidate{})
	if err != nil {
		t.Fatalf("UnmarshalWKT(%q): %v", wkt, err)
	}
	return g
}

func unitSquare(t *testing.T, x, y float64) geom.Geometry {
	t.Helper()
	coords := []float64{x, y, x + 1, y, x + 1, y + 1, x, y + 1, x, y}
	ring := geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
	return geom.NewPolygon([]geom.LineString{ring}).AsGeometry()
}

func TestMergeGroupsByElapsedTime(t *testing.T) {
	times := []float64{0, 0, 0, 5, 5, 10}
	records := make([]Record, len(times))
	for i, tm := range times {
		records[i] = Record{ElapsedMinutes: tm, Boundary: unitSquare(t, float64(i)*2, 0)}
	}

	merged, err := Merge(records)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(merged) != 3 {
		t.Fatalf("got %d merged entries, want 3", len(merged))
	}
	wantTimes := []float64{0, 5, 10}
	wantAreas := []float64{3, 2, 1} // disjoint unit squares per group
	for i, m := range merged {
		if m.ElapsedMinutes != wantTimes[i] {
			t.Errorf("entry %d time = %v, want %v", i, m.ElapsedMinutes, wantTimes[i])
		}
		if area := m.Geometry.Area(); math.Abs(area-wantAreas[i]) > 1e-9 {
			t.Errorf("entry %d area = %v, want %v", i, area, wantAreas[i])
		}
	}
}

func TestMergeUnionsOverlappingBoundaries(t *testing.T) {
	records := []Record{
		{ElapsedMinutes: 1, Boundary: mustWKT(t, "POLYGON((0 0,2 0,2 2,0 2,0 0))")},
		{ElapsedMinutes: 1, Boundary: mustWKT(t, "POLYGON((1 0,3 0,3 2,1 2,1 0))")},
	}
	merged, err := Merge(records)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(merged) != 1 {
		t.Fatalf("got %d merged entries, want 1", len(merged))
	}
	if area := merged[0].Geometry.Area(); math.Abs(area-6) > 1e-9 {
		t.Fatalf("union area = %v, want 6", area)
	}
}

func TestMergeRepairsBowtie(t *testing.T) {
	// Self-intersecting "bowtie" ring: repair should keep both lobes.
	records := []Record{
		{ElapsedMinutes: 0, Boundary: mustWKT(t, "POLYGON((0 0,2 2,2 0,0 2,0 0))")},
	}
	merged, err := Merge(records)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if err := merged[0].Geometry.Validate(); err != nil {
		t.Fatalf("merged geometry still invalid: %v", err)
	}
	if area := merged[0].Geometry.Area(); area <= 0 {
		t.Fatalf("merged area = %v, want positive", area)
	}
}

func TestMergeClosesOpenLineString(t *testing.T) {
	records := []Record{
		{ElapsedMinutes: 0, Boundary: mustWKT(t, "LINESTRING(0 0,4 0,4 4,0 4)")},
	}
	merged, err := Merge(records)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if area := merged[0].Geometry.Area(); math.Abs(area-16) > 1e-9 {
		t.Fatalf("area = %v, want 16", area)
	}
}

func TestMergeToleratesTimeJitter(t *testing.T) {
	records := []Record{
		{ElapsedMinutes: 10, Boundary: unitSquare(t, 0, 0)},
		{ElapsedMinutes: 10 + 1e-9, Boundary: unitSquare(t, 5, 0)},
	}
	merged, err := Merge(records)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(merged) != 1 {
		t.Fatalf("jittered times split into %d groups, want 1", len(merged))
	}
}

func TestMergeEmptyInput(t *testing.T) {
	merged, err := Merge(nil)
	if err != nil {
		t.Fatalf("Merge(nil): %v", err)
	}
	if len(merged) != 0 {
		t.Fatalf("got %d entries from empty input", len(merged))
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	records := []Record{
		{ElapsedMinutes: 0, Boundary: unitSquare(t, 0, 0)},
		{ElapsedMinutes: 30, Boundary: unitSquare(t, 1, 1)},
	}
	data, err := Write(records)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(data)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("got %d records, want %d", len(got), len(records))
	}
	for i := range got {
		if got[i].ElapsedMinutes != records[i].ElapsedMinutes {
			t.Errorf("record %d elapsed = %v, want %v", i, got[i].ElapsedMinutes, records[i].ElapsedMinutes)
		}
		if math.Abs(got[i].Boundary.Area()-1) > 1e-9 {
			t.Errorf("record %d area = %v, want 1", i, got[i].Boundary.Area())
		}
	}
}
