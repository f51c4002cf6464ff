// Package burnmap rasterizes merged fire perimeters into per-cell fractional
// burn coverage on the landscape grid.
package burnmap

import (
	"fmt"

	"github.com/peterstace/simplefeatures/geom"

	"fireline/internal/landscape"
	"fireline/internal/npyfile"
	"fireline/internal/perimeter"
)

// GridDef frames the target raster in UTM coordinates: cell (i, j) spans
// [West + j*ResX, West + (j+1)*ResX] x [South + i*ResY, South + (i+1)*ResY].
type GridDef struct {
	NumNorth int
	NumEast  int
	ResX     float64
	ResY     float64
	West     float64
	South    float64
}

// GridFromLandscape derives the raster definition from a landscape record.
func GridFromLandscape(ls *landscape.Landscape) GridDef {
	return GridDef{
		NumNorth: int(ls.NumNorth),
		NumEast:  int(ls.NumEast),
		ResX:     ls.ResX,
		ResY:     ls.ResY,
		West:     ls.UTMWest,
		South:    ls.UTMSouth,
	}
}

// Map is the stacked burn tensor: one fractional raster per merged time step.
type Map [][][]float64

// prepared caches what the per-cell tests need from one perimeter: the
// geometry itself plus its envelope for cheap rejection of far-away cells.
type prepared struct {
	geometry geom.Geometry
	envelope geom.Geometry
}

func prepare(g geom.Geometry) prepared {
	return prepared{geometry: g, envelope: g.Envelope().AsGeometry()}
}

// Rasterize computes fractional coverage of one merged perimeter over the
// grid: 1 for cells fully inside, area-weighted fractions on the boundary,
// 0 elsewhere.
func Rasterize(def GridDef, m perimeter.Merged) ([][]float64, error) {
	p := prepare(m.Geometry)
	cellArea := def.ResX * def.ResY

	burn := make([][]float64, def.NumNorth)
	for i := 0; i < def.NumNorth; i++ {
		burn[i] = make([]float64, def.NumEast)
		for j := 0; j < def.NumEast; j++ {
			cell := cellPolygon(def, i, j)
			if !geom.Intersects(p.envelope, cell) {
				continue
			}
			inside, err := geom.Contains(p.geometry, cell)
			if err != nil {
				return nil, fmt.Errorf("cell (%d,%d) containment: %w", i, j, err)
			}
			if inside {
				burn[i][j] = 1
				continue
			}
			if !geom.Intersects(p.geometry, cell) {
				continue
			}
			overlap, err := geom.Intersection(cell, p.geometry)
			if err != nil {
				return nil, fmt.Errorf("cell (%d,%d) intersection: %w", i, j, err)
			}
			burn[i][j] = overlap.Area() / cellArea
		}
	}
	return burn, nil
}

// Compute stacks one raster per merged perimeter into the burn tensor.
func Compute(def GridDef, merged []perimeter.Merged) (Map, error) {
	out := make(Map, len(merged))
	for i, m := range merged {
		raster, err := Rasterize(def, m)
		if err != nil {
			return nil, fmt.Errorf("step %d (t=%v): %w", i, m.ElapsedMinutes, err)
		}
		out[i] = raster
	}
	return out, nil
}

// Fractions reduces each step's raster to its mean coverage, the burn
// fraction consumed by ensemble statistics.
func (m Map) Fractions() []float64 {
	fractions := make([]float64, len(m))
	for i, raster := range m {
		var sum float64
		var cells int
		for _, row := range raster {
			for _, v := range row {
				sum += v
				cells++
			}
		}
		if cells > 0 {
			fractions[i] = sum / float64(cells)
		}
	}
	return fractions
}

// Export persists the stacked tensor as a .npy artifact.
func (m Map) Export(path string) error {
	return npyfile.Save(path, [][][]float64(m))
}

func cellPolygon(def GridDef, i, j int) geom.Geometry {
	x0 := def.West + float64(j)*def.ResX
	y0 := def.South + float64(i)*def.ResY
	x1 := x0 + def.ResX
	y1 := y0 + def.ResY
	coords := []float64{x0, y0, x1, y0, x1, y1, x0, y1, x0, y0}
	ring := geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
	return geom.NewPolygon([]geom.LineString{ring}).AsGeometry()
}
