package simcase

import (
	"os"
	"path/filepath"
	"testing"

	"fireline/internal/ascii"
	"fireline/internal/perimeter"
)

func writeTestOutputs(t *testing.T, c *Case) {
	t.Helper()
	if err := os.MkdirAll(c.OutputDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range OutputGridNames {
		g := ascii.New(3, 4)
		g.XLLCorner = c.Landscape.UTMWest
		g.YLLCorner = c.Landscape.UTMSouth
		g.Data[0][0] = 42
		if err := g.WriteFile(c.outputFile(name + ".asc")); err != nil {
			t.Fatal(err)
		}
	}
	records := []perimeter.Record{
		{ElapsedMinutes: 0, Boundary: mustWKT(t, "POLYGON((0 0,30 0,30 30,0 30,0 0))")},
		{ElapsedMinutes: 60, Boundary: mustWKT(t, "POLYGON((0 0,120 0,120 90,0 90,0 0))")},
	}
	if err := perimeter.WriteFile(c.outputFile("Perimeters.geojson"), records); err != nil {
		t.Fatal(err)
	}
}

func TestReadOutput(t *testing.T) {
	c := testCase(t, t.TempDir())
	writeTestOutputs(t, c)

	if err := c.ReadOutput(); err != nil {
		t.Fatalf("ReadOutput: %v", err)
	}
	if len(c.Outputs.Grids) != len(OutputGridNames) {
		t.Fatalf("read %d grids, want %d", len(c.Outputs.Grids), len(OutputGridNames))
	}
	if c.Outputs.Grids["ArrivalTime"].Data[0][0] != 42 {
		t.Error("grid contents not preserved")
	}
	if len(c.Outputs.Merged) != 2 {
		t.Fatalf("merged %d perimeter steps, want 2", len(c.Outputs.Merged))
	}
	if c.Outputs.Spots != nil {
		t.Error("spots should be absent")
	}
}

func TestReadOutputMissingGrid(t *testing.T) {
	c := testCase(t, t.TempDir())
	writeTestOutputs(t, c)
	if err := os.Remove(c.outputFile("SpreadRate.asc")); err != nil {
		t.Fatal(err)
	}
	if err := c.ReadOutput(); err == nil {
		t.Fatal("expected error for missing raster")
	}
}

func TestComputeBurnMapsAndExport(t *testing.T) {
	c := testCase(t, t.TempDir())
	writeTestOutputs(t, c)
	if err := c.ReadOutput(); err != nil {
		t.Fatalf("ReadOutput: %v", err)
	}

	if err := c.ComputeBurnMaps(); err != nil {
		t.Fatalf("ComputeBurnMaps: %v", err)
	}
	if len(c.Outputs.Burn) != 2 {
		t.Fatalf("burn tensor has %d steps, want 2", len(c.Outputs.Burn))
	}
	fractions := c.Outputs.Burn.Fractions()
	if fractions[1] != 1 {
		t.Errorf("final burn fraction = %v, want 1", fractions[1])
	}
	if fractions[0] >= fractions[1] {
		t.Errorf("burn fractions not increasing: %v", fractions)
	}

	times := c.OutputTimes()
	if len(times) != 2 {
		t.Fatalf("output times = %d, want 2", len(times))
	}
	if got := times[1].Sub(times[0]).Minutes(); got != 60 {
		t.Errorf("step spacing = %v minutes, want 60", got)
	}

	prefix := filepath.Join(t.TempDir(), "export", c.Name)
	if err := c.ExportData(prefix); err != nil {
		t.Fatalf("ExportData: %v", err)
	}
	for _, suffix := range []string{
		"_elevation.npy",
		"_fuel.npy",
		"_wind_east.npy",
		"_wind_north.npy",
		"_moisture_1_hour.npy",
		"_moisture_live_woody.npy",
		"_burn.npy",
		"_Perimeters.geojson",
	} {
		if _, err := os.Stat(prefix + suffix); err != nil {
			t.Errorf("missing artifact %s: %v", suffix, err)
		}
	}
}

func TestExportRequiresBurnMaps(t *testing.T) {
	c := testCase(t, t.TempDir())
	if err := c.ExportData(filepath.Join(t.TempDir(), "x")); err == nil {
		t.Fatal("expected error before burn maps are computed")
	}
}
