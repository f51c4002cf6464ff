package weather

import (
	"fmt"
	"math"
	"time"

	"fireline/internal/npyfile"
)

// WindComponents interpolates speed and direction at the query times and
// resolves them into uniform east/north component fields of the given raster
// shape, one layer per query time. Direction is the compass bearing the wind
// blows from, so components point down-wind.
func (s *Stream) WindComponents(queryTimes []time.Time, rows, cols int) (east, north [][][]float64, err error) {
	if len(s.Observations) == 0 {
		return nil, nil, fmt.Errorf("no observations to interpolate from")
	}
	if len(queryTimes) == 0 {
		queryTimes = []time.Time{s.Observations[0].Time}
	}

	epoch := s.Observations[0].Time
	obsSecs := make([]float64, len(s.Observations))
	speeds := make([]float64, len(s.Observations))
	dirs := make([]float64, len(s.Observations))
	for i, obs := range s.Observations {
		obsSecs[i] = obs.Time.Sub(epoch).Seconds()
		speeds[i] = float64(obs.WindSpeed)
		dirs[i] = float64(obs.WindDirection)
	}

	east = make([][][]float64, len(queryTimes))
	north = make([][][]float64, len(queryTimes))
	for q, qt := range queryTimes {
		secs := qt.Sub(epoch).Seconds()
		speed := interp(secs, obsSecs, speeds)
		dir := interp(secs, obsSecs, dirs)
		theta := -dir*math.Pi/180 + math.Pi/2
		e := -speed * math.Cos(theta)
		n := -speed * math.Sin(theta)
		east[q] = uniformField(rows, cols, e)
		north[q] = uniformField(rows, cols, n)
	}
	return east, north, nil
}

// ExportWindNumpy writes the interpolated wind component tensors as
// <prefix>_wind_east.npy and <prefix>_wind_north.npy.
func (s *Stream) ExportWindNumpy(prefix string, rows, cols int, queryTimes []time.Time) error {
	east, north, err := s.WindComponents(queryTimes, rows, cols)
	if err != nil {
		return err
	}
	if err := npyfile.Save(prefix+"_wind_east.npy", east); err != nil {
		return fmt.Errorf("wind east: %w", err)
	}
	if err := npyfile.Save(prefix+"_wind_north.npy", north); err != nil {
		return fmt.Errorf("wind north: %w", err)
	}
	return nil
}

// interp is piecewise-linear interpolation over sorted sample points,
// clamping outside the sampled range.
func interp(x float64, xs, ys []float64) float64 {
	if x <= xs[0] {
		return ys[0]
	}
	last := len(xs) - 1
	if x >= xs[last] {
		return ys[last]
	}
	for i := 1; i <= last; i++ {
		if x <= xs[i] {
			span := xs[i] - xs[i-1]
			if span == 0 {
				return ys[i]
			}
			frac := (x - xs[i-1]) / span
			return ys[i-1] + frac*(ys[i]-ys[i-1])
		}
	}
	return ys[last]
}

func uniformField(rows, cols int, v float64) [][]float64 {
	field := make([][]float64, rows)
	for i := range field {
		row := make([]float64, cols)
		for j := range row {
			row[j] = v
		}
		field[i] = row
	}
	return field
}
