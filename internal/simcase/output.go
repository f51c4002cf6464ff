package simcase

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fireline/internal/ascii"
	"fireline/internal/burnmap"
	"fireline/internal/fileutil"
	"fireline/internal/landscape"
	"fireline/internal/npyfile"
	"fireline/internal/perimeter"
)

// Scalar raster artifacts the simulator writes per case.
var OutputGridNames = []string{
	"ArrivalTime",
	"CrownFire",
	"FlameLength",
	"HeatPerUnitArea",
	"Ignitions",
	"Intensity",
	"ReactionIntensity",
	"SpotGrid",
	"SpreadDirection",
	"SpreadRate",
}

// Outputs holds everything harvested from a finished case.
type Outputs struct {
	Grids      map[string]*ascii.Grid
	Spots      []perimeter.Record
	Perimeters []perimeter.Record
	Merged     []perimeter.Merged
	Burn       burnmap.Map
}

func (c *Case) outputFile(name string) string {
	return filepath.Join(c.OutputDir(), c.Name+"_"+name)
}

// ReadOutput harvests the case's scalar rasters and perimeters, merging the
// latter by output time. Spot records are optional: they exist only when
// spotting produced any.
func (c *Case) ReadOutput() error {
	out := &Outputs{Grids: make(map[string]*ascii.Grid, len(OutputGridNames))}
	for _, name := range OutputGridNames {
		g, err := ascii.ReadFile(c.outputFile(name + ".asc"))
		if err != nil {
			return fmt.Errorf("case %s: %w", c.Name, err)
		}
		out.Grids[name] = g
	}

	spotsFile := c.outputFile("Spots.geojson")
	if _, err := os.Stat(spotsFile); err == nil {
		spots, err := perimeter.ReadFile(spotsFile)
		if err != nil {
			return fmt.Errorf("case %s: %w", c.Name, err)
		}
		out.Spots = spots
	}

	perims, err := perimeter.ReadFile(c.outputFile("Perimeters.geojson"))
	if err != nil {
		return fmt.Errorf("case %s: %w", c.Name, err)
	}
	out.Perimeters = perims

	merged, err := perimeter.Merge(perims)
	if err != nil {
		return fmt.Errorf("case %s: merge perimeters: %w", c.Name, err)
	}
	out.Merged = merged

	c.Outputs = out
	return nil
}

// ComputeBurnMaps rasterizes every merged perimeter onto the landscape grid.
func (c *Case) ComputeBurnMaps() error {
	if c.Outputs == nil {
		return fmt.Errorf("case %s: outputs not read", c.Name)
	}
	burn, err := burnmap.Compute(burnmap.GridFromLandscape(c.Landscape), c.Outputs.Merged)
	if err != nil {
		return fmt.Errorf("case %s: %w", c.Name, err)
	}
	c.Outputs.Burn = burn
	return nil
}

// OutputTimes derives the wall-clock time of each merged perimeter from the
// case start and its elapsed minutes.
func (c *Case) OutputTimes() []time.Time {
	if c.Outputs == nil {
		return nil
	}
	times := make([]time.Time, len(c.Outputs.Merged))
	for i, m := range c.Outputs.Merged {
		times[i] = c.StartTime.Add(time.Duration(m.ElapsedMinutes * float64(time.Minute)))
	}
	return times
}

// ExportData writes the case's training artifacts under the given prefix:
// landscape bands, wind components at the output times, moisture rasters,
// the burn tensor, and a verified copy of the raw perimeter file.
func (c *Case) ExportData(prefix string) error {
	if c.Outputs == nil || c.Outputs.Burn == nil {
		return fmt.Errorf("case %s: burn maps not computed", c.Name)
	}
	if dir := filepath.Dir(prefix); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("case %s: create export directory: %w", c.Name, err)
		}
	}

	if err := c.Landscape.ExportNumpy(prefix); err != nil {
		return fmt.Errorf("case %s: %w", c.Name, err)
	}
	rows := int(c.Landscape.NumNorth)
	cols := int(c.Landscape.NumEast)
	if err := c.Weather.ExportWindNumpy(prefix, rows, cols, c.OutputTimes()); err != nil {
		return fmt.Errorf("case %s: %w", c.Name, err)
	}
	if err := c.exportMoisture(prefix); err != nil {
		return fmt.Errorf("case %s: %w", c.Name, err)
	}
	if err := c.Outputs.Burn.Export(prefix + "_burn.npy"); err != nil {
		return fmt.Errorf("case %s: %w", c.Name, err)
	}
	if err := fileutil.CopyFileVerified(c.outputFile("Perimeters.geojson"), prefix+"_Perimeters.geojson"); err != nil {
		return fmt.Errorf("case %s: archive perimeters: %w", c.Name, err)
	}
	return nil
}

// exportMoisture rasterizes the moisture table over the fuel layer: each
// cell takes the record of its fuel model, falling back to the model 0
// record.
func (c *Case) exportMoisture(prefix string) error {
	fuelLayer, err := c.Landscape.Layer(landscape.LayerFuel)
	if err != nil {
		return err
	}
	grid := fuelLayer.Grid()
	rows, cols := grid.Rows(), grid.Cols()

	byModel := make(map[int]FuelMoisture, len(c.FuelMoistures))
	for _, fm := range c.FuelMoistures {
		byModel[fm.Model] = fm
	}
	fallback := byModel[0]

	fields := []struct {
		suffix string
		value  func(FuelMoisture) int16
	}{
		{"_moisture_1_hour.npy", func(fm FuelMoisture) int16 { return int16(fm.OneHour) }},
		{"_moisture_10_hour.npy", func(fm FuelMoisture) int16 { return int16(fm.TenHour) }},
		{"_moisture_100_hour.npy", func(fm FuelMoisture) int16 { return int16(fm.HundredHour) }},
		{"_moisture_live_herbaceous.npy", func(fm FuelMoisture) int16 { return int16(fm.LiveHerbaceous) }},
		{"_moisture_live_woody.npy", func(fm FuelMoisture) int16 { return int16(fm.LiveWoody) }},
	}
	for _, field := range fields {
		raster := make([][]int16, rows)
		for i := 0; i < rows; i++ {
			raster[i] = make([]int16, cols)
			for j := 0; j < cols; j++ {
				fm, ok := byModel[int(grid.At(i, j))]
				if !ok {
					fm = fallback
				}
				raster[i][j] = field.value(fm)
			}
		}
		if err := npyfile.Save(prefix+field.suffix, raster); err != nil {
			return err
		}
	}
	return nil
}
