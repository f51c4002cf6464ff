package main

import (
	"os"
	"path/filepath"
	"testing"

	"fireline/internal/landscape"
)

func writeTestLandscape(t *testing.T) string {
	t.Helper()

	ls := landscape.New(3, 4)
	ls.UTMWest = 0
	ls.UTMEast = 120
	ls.UTMSouth = 0
	ls.UTMNorth = 90
	ls.ResX = 30
	ls.ResY = 30
	ls.Latitude = 40
	for _, name := range landscape.RequiredLayerNames {
		grid := landscape.NewGrid(3, 4)
		grid.Fill(7)
		if err := ls.SetLayerGrid(name, grid); err != nil {
			t.Fatalf("set layer %s: %v", name, err)
		}
	}

	prefix := filepath.Join(t.TempDir(), "terrain")
	if err := landscape.WriteFile(ls, prefix); err != nil {
		t.Fatalf("write landscape: %v", err)
	}
	return prefix
}

func TestCLILandscapeInfo(t *testing.T) {
	prefix := writeTestLandscape(t)

	out, _, err := runCLI(t, []string{"lcp", "info", prefix + ".lcp"}, "")
	if err != nil {
		t.Fatalf("lcp info: %v", err)
	}
	requireContains(t, out, "3 x 4 cells")
	requireContains(t, out, "elevation")
	requireContains(t, out, "fuel")
	requireContains(t, out, "Crown:      no")
}

func TestCLILandscapeExport(t *testing.T) {
	prefix := writeTestLandscape(t)

	out, _, err := runCLI(t, []string{"lcp", "export", prefix}, "")
	if err != nil {
		t.Fatalf("lcp export: %v", err)
	}
	requireContains(t, out, "Exported numpy layers")

	if _, err := os.Stat(prefix + "_elevation.npy"); err != nil {
		t.Fatalf("expected exported elevation array: %v", err)
	}
}
