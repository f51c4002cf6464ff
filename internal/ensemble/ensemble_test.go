package ensemble

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/peterstace/simplefeatures/geom"

	"fireline/internal/ascii"
	"fireline/internal/landscape"
	"fireline/internal/perimeter"
	"fireline/internal/simcase"
	"fireline/internal/store"
	"fireline/internal/weather"
)

func mustWKT(t *testing.T, wkt string) geom.Geometry {
	t.Helper()
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		t.Fatalf("UnmarshalWKT(%q): %v", wkt, err)
	}
	return g
}

func testFactory(t *testing.T) Factory {
	t.Helper()
	return func(int) *simcase.Case {
		c := simcase.New("proto", "")
		c.StartTime = time.Date(2000, 6, 1, 9, 0, 0, 0, time.UTC)
		c.EndTime = time.Date(2000, 6, 1, 11, 0, 0, 0, time.UTC)
		c.FuelMoistures = []simcase.FuelMoisture{
			{Model: 0, OneHour: 6, TenHour: 7, HundredHour: 8, LiveHerbaceous: 60, LiveWoody: 90},
		}
		c.Weather = &weather.Stream{
			Units: weather.UnitsEnglish,
			Observations: []weather.Observation{
				{Time: c.StartTime, Temperature: 25, Humidity: 40, WindSpeed: 10, WindDirection: 90},
				{Time: c.EndTime, Temperature: 30, Humidity: 30, WindSpeed: 15, WindDirection: 180},
			},
		}
		ls := landscape.New(3, 4)
		ls.UTMWest = 0
		ls.UTMEast = 120
		ls.UTMSouth = 0
		ls.UTMNorth = 90
		ls.ResX = 30
		ls.ResY = 30
		ls.Latitude = 40
		for _, name := range landscape.RequiredLayerNames {
			g := landscape.NewGrid(3, 4)
			g.Fill(5)
			if err := ls.SetLayerGrid(name, g); err != nil {
				t.Fatalf("SetLayerGrid(%s): %v", name, err)
			}
		}
		c.Landscape = ls
		c.Ignition = mustWKT(t, "POLYGON((10 10,40 10,40 40,10 40,10 10))")
		return c
	}
}

func writeCaseOutputs(t *testing.T, c *simcase.Case) {
	t.Helper()
	if err := os.MkdirAll(c.OutputDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range simcase.OutputGridNames {
		g := ascii.New(3, 4)
		g.XLLCorner = c.Landscape.UTMWest
		g.YLLCorner = c.Landscape.UTMSouth
		path := filepath.Join(c.OutputDir(), c.Name+"_"+name+".asc")
		if err := g.WriteFile(path); err != nil {
			t.Fatal(err)
		}
	}
	records := []perimeter.Record{
		{ElapsedMinutes: 0, Boundary: mustWKT(t, "POLYGON((0 0,30 0,30 30,0 30,0 0))")},
		{ElapsedMinutes: 60, Boundary: mustWKT(t, "POLYGON((0 0,120 0,120 90,0 90,0 0))")},
	}
	path := filepath.Join(c.OutputDir(), c.Name+"_Perimeters.geojson")
	if err := perimeter.WriteFile(path, records); err != nil {
		t.Fatal(err)
	}
}

func writeJobLog(t *testing.T, c *simcase.Case, content string) {
	t.Helper()
	if err := os.MkdirAll(c.RootDir, 0o755); err != nil {
		t.Fatal(err)
	}
	name := fmt.Sprintf("%s.%d.out", c.Name, c.JobID)
	if err := os.WriteFile(filepath.Join(c.RootDir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewNamesAndRoots(t *testing.T) {
	dir := t.TempDir()
	e, err := New("demo", dir, 12, testFactory(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.Size() != 12 {
		t.Fatalf("size = %d, want 12", e.Size())
	}
	if got := e.CaseID(3); got != "03" {
		t.Errorf("CaseID(3) = %q, want 03", got)
	}
	if e.Cases[3].Name != "demo_03" {
		t.Errorf("case name = %q, want demo_03", e.Cases[3].Name)
	}
	want := filepath.Join(dir, "cases", "03")
	if e.Cases[3].RootDir != want {
		t.Errorf("case root = %q, want %q", e.Cases[3].RootDir, want)
	}
}

func TestIDWidth(t *testing.T) {
	for _, tc := range []struct {
		size, want int
	}{
		{1, 1},
		{9, 1},
		{10, 1},
		{11, 2},
		{100, 2},
		{101, 3},
	} {
		if got := idWidth(tc.size); got != tc.want {
			t.Errorf("idWidth(%d) = %d, want %d", tc.size, got, tc.want)
		}
	}
}

func TestNewRejectsBadArguments(t *testing.T) {
	if _, err := New("demo", t.TempDir(), 0, testFactory(t), nil); err == nil {
		t.Error("expected error for zero size")
	}
	if _, err := New("demo", t.TempDir(), 2, nil, nil); err == nil {
		t.Error("expected error for nil factory")
	}
}

func TestWriteLaysOutCases(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "cases.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	e, err := New("demo", dir, 3, testFactory(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	e.Store = s

	ctx := context.Background()
	if err := e.Write(ctx, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	for i, c := range e.Cases {
		input := filepath.Join(c.RootDir, c.Name+".input")
		if _, err := os.Stat(input); err != nil {
			t.Errorf("case %d missing input deck: %v", i, err)
		}
		rec, err := s.GetByCaseID(ctx, c.Name)
		if err != nil {
			t.Fatalf("GetByCaseID(%s): %v", c.Name, err)
		}
		if rec.Status != store.StatusWritten {
			t.Errorf("case %s status = %s, want written", c.Name, rec.Status)
		}
	}
}

func TestWriteSubset(t *testing.T) {
	dir := t.TempDir()
	e, err := New("demo", dir, 3, testFactory(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Write(context.Background(), []int{1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(e.Cases[1].RootDir); err != nil {
		t.Errorf("selected case not written: %v", err)
	}
	if _, err := os.Stat(e.Cases[0].RootDir); !os.IsNotExist(err) {
		t.Errorf("unselected case written: %v", err)
	}
}

func TestPostProcessPartitionsOutcomes(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "cases.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	e, err := New("demo", dir, 3, testFactory(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	e.Store = s

	ctx := context.Background()
	if err := e.Write(ctx, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Case 0 finished, case 1 failed to ignite, case 2 has not started.
	e.Cases[0].JobID = 100
	writeJobLog(t, e.Cases[0], "Launching Farsite\nWriting outputs\n")
	writeCaseOutputs(t, e.Cases[0])
	e.Cases[1].JobID = 101
	writeJobLog(t, e.Cases[1], "Launching Farsite\nNo ignition\n")

	unresolved, err := e.PostProcess(ctx, PostProcessOptions{Attempts: 1})
	if err != nil {
		t.Fatalf("PostProcess: %v", err)
	}
	want := []string{"1", "2"}
	if len(unresolved) != 2 || unresolved[0] != want[0] || unresolved[1] != want[1] {
		t.Errorf("unresolved = %v, want %v", unresolved, want)
	}

	burnFile := filepath.Join(e.ExportDir(), e.Cases[0].Name+"_burn.npy")
	if _, err := os.Stat(burnFile); err != nil {
		t.Errorf("finished case not exported: %v", err)
	}

	for i, wantStatus := range []store.Status{
		store.StatusExported,
		store.StatusIgnitionFailed,
		store.StatusRunning,
	} {
		rec, err := s.GetByCaseID(ctx, e.Cases[i].Name)
		if err != nil {
			t.Fatal(err)
		}
		if rec.Status != wantStatus {
			t.Errorf("case %d status = %s, want %s", i, rec.Status, wantStatus)
		}
	}
}

func TestPostProcessSkipsExported(t *testing.T) {
	dir := t.TempDir()
	e, err := New("demo", dir, 1, testFactory(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Write(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	e.Cases[0].JobID = 100
	writeJobLog(t, e.Cases[0], "Launching Farsite\nWriting outputs\n")
	writeCaseOutputs(t, e.Cases[0])

	ctx := context.Background()
	if unresolved, err := e.PostProcess(ctx, PostProcessOptions{}); err != nil || len(unresolved) != 0 {
		t.Fatalf("first pass: unresolved=%v err=%v", unresolved, err)
	}
	// Everything exported, so a second pass has no pending work.
	if unresolved, err := e.PostProcess(ctx, PostProcessOptions{}); err != nil || unresolved != nil {
		t.Fatalf("second pass: unresolved=%v err=%v", unresolved, err)
	}
}

func TestPostProcessRetries(t *testing.T) {
	dir := t.TempDir()
	e, err := New("demo", dir, 1, testFactory(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Write(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	// Never starts, so every attempt leaves it unresolved.
	unresolved, err := e.PostProcess(context.Background(), PostProcessOptions{
		Attempts: 3,
		Pause:    time.Millisecond,
	})
	if err != nil {
		t.Fatalf("PostProcess: %v", err)
	}
	if len(unresolved) != 1 || unresolved[0] != "0" {
		t.Errorf("unresolved = %v, want [0]", unresolved)
	}
}

func TestLoadStateResumesAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "cases.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	first, err := New("demo", dir, 2, testFactory(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	first.Store = s
	if err := first.Write(ctx, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Submit case 0 and let its job finish before the process "restarts".
	first.Cases[0].JobID = 100
	if err := s.SetJobID(ctx, first.Cases[0].Name, 100); err != nil {
		t.Fatal(err)
	}
	writeJobLog(t, first.Cases[0], "Launching Farsite\nWriting outputs\n")
	writeCaseOutputs(t, first.Cases[0])

	second, err := New("demo", dir, 2, testFactory(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	second.Store = s
	if err := second.LoadState(ctx); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if got := second.Cases[0].JobID; got != 100 {
		t.Fatalf("restored job id = %d, want 100", got)
	}
	if got := second.Cases[1].JobID; got != 0 {
		t.Fatalf("unsubmitted case job id = %d, want 0", got)
	}

	unresolved, err := second.PostProcess(ctx, PostProcessOptions{Indices: []int{0}, Attempts: 1})
	if err != nil {
		t.Fatalf("PostProcess: %v", err)
	}
	if len(unresolved) != 0 {
		t.Fatalf("unresolved = %v, want none", unresolved)
	}
	burnFile := filepath.Join(second.ExportDir(), second.Cases[0].Name+"_burn.npy")
	if _, err := os.Stat(burnFile); err != nil {
		t.Errorf("resumed case not exported: %v", err)
	}

	// A third instance sees the exported flag and has nothing left to do,
	// even with the raw outputs gone.
	if err := os.RemoveAll(second.Cases[0].OutputDir()); err != nil {
		t.Fatal(err)
	}
	third, err := New("demo", dir, 2, testFactory(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	third.Store = s
	if err := third.LoadState(ctx); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	unresolved, err = third.PostProcess(ctx, PostProcessOptions{Indices: []int{0}, Attempts: 1})
	if err != nil {
		t.Fatalf("PostProcess after restore: %v", err)
	}
	if len(unresolved) != 0 {
		t.Errorf("exported case reprocessed: unresolved = %v", unresolved)
	}
}

func TestPostProcessIsolatesHarvestFailure(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "cases.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	e, err := New("demo", dir, 2, testFactory(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	e.Store = s
	if err := e.Write(ctx, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Case 0 claims to have finished but never produced outputs; case 1
	// finished cleanly.
	e.Cases[0].JobID = 100
	writeJobLog(t, e.Cases[0], "Launching Farsite\nWriting outputs\n")
	e.Cases[1].JobID = 101
	writeJobLog(t, e.Cases[1], "Launching Farsite\nWriting outputs\n")
	writeCaseOutputs(t, e.Cases[1])

	unresolved, err := e.PostProcess(ctx, PostProcessOptions{Attempts: 1})
	if err != nil {
		t.Fatalf("PostProcess: %v", err)
	}
	if len(unresolved) != 1 || unresolved[0] != "0" {
		t.Fatalf("unresolved = %v, want [0]", unresolved)
	}

	burnFile := filepath.Join(e.ExportDir(), e.Cases[1].Name+"_burn.npy")
	if _, err := os.Stat(burnFile); err != nil {
		t.Errorf("healthy sibling not exported: %v", err)
	}

	rec, err := s.GetByCaseID(ctx, e.Cases[0].Name)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != store.StatusFailed {
		t.Errorf("broken case status = %s, want failed", rec.Status)
	}
	if rec.ErrorMessage == "" {
		t.Error("broken case has no recorded error message")
	}
	rec, err = s.GetByCaseID(ctx, e.Cases[1].Name)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != store.StatusExported {
		t.Errorf("healthy case status = %s, want exported", rec.Status)
	}
}

func TestComputeStatistics(t *testing.T) {
	dir := t.TempDir()
	e, err := New("demo", dir, 2, testFactory(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Write(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	for _, c := range e.Cases {
		writeCaseOutputs(t, c)
	}

	stats, err := e.ComputeStatistics()
	if err != nil {
		t.Fatalf("ComputeStatistics: %v", err)
	}
	if stats.BurnFraction.Steps() != 2 {
		t.Fatalf("steps = %d, want 2", stats.BurnFraction.Steps())
	}
	if got := stats.BurnFraction.Mean[1]; got != 1 {
		t.Errorf("final mean burn fraction = %v, want 1", got)
	}
	if stats.BurnFraction.Mean[0] >= stats.BurnFraction.Mean[1] {
		t.Errorf("burn fraction not increasing: %v", stats.BurnFraction.Mean)
	}

	area := e.Cases[0].Landscape.Area()
	wantRadius := math.Sqrt(area / math.Pi)
	if got := stats.BurnRadius.Values[1][0]; math.Abs(got-wantRadius) > 1e-9 {
		t.Errorf("final burn radius = %v, want %v", got, wantRadius)
	}

	dt := float64(e.Cases[0].Timestep)
	wantSpeed := (stats.BurnRadius.Values[1][0] - stats.BurnRadius.Values[0][0]) / dt
	if got := stats.FrontSpeed.Values[1][0]; math.Abs(got-wantSpeed) > 1e-9 {
		t.Errorf("final front speed = %v, want %v", got, wantSpeed)
	}
}

func TestComputeStatisticsToleratesMissingCase(t *testing.T) {
	dir := t.TempDir()
	e, err := New("demo", dir, 2, testFactory(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Write(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	writeCaseOutputs(t, e.Cases[0])

	stats, err := e.ComputeStatistics()
	if err != nil {
		t.Fatalf("ComputeStatistics: %v", err)
	}
	if !math.IsNaN(stats.BurnFraction.Values[0][1]) {
		t.Error("missing case should contribute NaN")
	}
	if got := stats.BurnFraction.Mean[1]; got != 1 {
		t.Errorf("mean over present cases = %v, want 1", got)
	}
	if got := stats.BurnFraction.Sigma[1]; got != 0 {
		t.Errorf("sigma with one sample = %v, want 0", got)
	}
}

func TestWriteStatisticsFiles(t *testing.T) {
	dir := t.TempDir()
	e, err := New("demo", dir, 2, testFactory(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Write(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	for _, c := range e.Cases {
		writeCaseOutputs(t, c)
	}

	if _, err := e.WriteStatistics(); err != nil {
		t.Fatalf("WriteStatistics: %v", err)
	}
	for _, name := range []string{
		"stats_burn_fraction.csv",
		"stats_burn_radius.csv",
		"stats_front_speed.csv",
		"hist_burn_fraction.csv",
		"hist_burn_radius.csv",
		"hist_front_speed.csv",
	} {
		if _, err := os.Stat(filepath.Join(e.ExportDir(), name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}
