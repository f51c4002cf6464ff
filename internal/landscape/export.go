package landscape

import (
	"fmt"
	"math"

	"fireline/internal/npyfile"
)

// Slope and aspect unit-option codes carried in the record.
const (
	SlopeUnitsDegrees = 0
	SlopeUnitsPercent = 1

	AspectUnitsCategories   = 0 // 15-degree increments, 25 = flat
	AspectUnitsGrassDegrees = 1 // counterclockwise from east
	AspectUnitsAzimuth      = 2 // clockwise from north
)

const aspectFlatCategory = 25

// SlopeComponents converts the slope and aspect layers into east and north
// down-slope gradient components, honoring each layer's unit options. Aspect
// in the record refers to the down-slope direction.
func (ls *Landscape) SlopeComponents() (east, north [][]float64, err error) {
	slopeLayer, err := ls.Layer(LayerSlope)
	if err != nil {
		return nil, nil, err
	}
	aspectLayer, err := ls.Layer(LayerAspect)
	if err != nil {
		return nil, nil, err
	}

	rows, cols := int(ls.NumNorth), int(ls.NumEast)
	east = make([][]float64, rows)
	north = make([][]float64, rows)
	for i := 0; i < rows; i++ {
		east[i] = make([]float64, cols)
		north[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			slopeRaw := float64(slopeLayer.Grid().At(i, j))
			aspectRaw := aspectLayer.Grid().At(i, j)

			var slope float64
			switch slopeLayer.UnitOpts {
			case SlopeUnitsDegrees:
				slope = -slopeRaw * math.Pi / 180
			case SlopeUnitsPercent:
				slope = -math.Atan(slopeRaw / 100)
			default:
				return nil, nil, fmt.Errorf("landscape: unsupported slope units %d", slopeLayer.UnitOpts)
			}

			var aspect float64
			switch aspectLayer.UnitOpts {
			case AspectUnitsCategories:
				if aspectRaw == aspectFlatCategory {
					aspect, slope = 0, 0
				} else {
					aspect = float64(aspectRaw) * 15 * math.Pi / 180
				}
			case AspectUnitsGrassDegrees:
				aspect = float64(aspectRaw) * math.Pi / 180
			case AspectUnitsAzimuth:
				aspect = -float64(aspectRaw)*math.Pi/180 + math.Pi/2
			default:
				return nil, nil, fmt.Errorf("landscape: unsupported aspect units %d", aspectLayer.UnitOpts)
			}

			east[i][j] = math.Tan(slope) * math.Cos(aspect)
			north[i][j] = math.Tan(slope) * math.Sin(aspect)
		}
	}
	return east, north, nil
}

// ExportNumpy writes the terrain layers as .npy arrays under the given path
// prefix: derived slope components plus the raw elevation, fuel, and cover
// bands, and any optional bands the fuel flags declare present.
func (ls *Landscape) ExportNumpy(prefix string) error {
	slopeEast, slopeNorth, err := ls.SlopeComponents()
	if err != nil {
		return err
	}
	if err := npyfile.Save(prefix+"_slope_east.npy", slopeEast); err != nil {
		return err
	}
	if err := npyfile.Save(prefix+"_slope_north.npy", slopeNorth); err != nil {
		return err
	}

	names := []string{LayerElevation, LayerFuel, LayerCover}
	crown, err := ls.CrownPresent()
	if err != nil {
		return err
	}
	if crown {
		names = append(names, CrownLayerNames...)
	}
	ground, err := ls.GroundPresent()
	if err != nil {
		return err
	}
	if ground {
		names = append(names, GroundLayerNames...)
	}
	for _, name := range names {
		l, err := ls.Layer(name)
		if err != nil {
			return err
		}
		if err := npyfile.Save(fmt.Sprintf("%s_%s.npy", prefix, name), l.Grid().ToRows()); err != nil {
			return err
		}
	}
	return nil
}
