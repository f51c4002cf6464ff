package perimeter

import (
	"fmt"
	"math"

	"github.com/peterstace/simplefeatures/geom"
)

// timeTolerance bounds how far apart two elapsed-time stamps may sit while
// still belonging to the same output step.
const timeTolerance = 1e-6

// Record is one raw boundary as read from the simulator output: the elapsed
// simulation time in minutes and the (possibly self-intersecting) boundary.
type Record struct {
	ElapsedMinutes float64
	Boundary       geom.Geometry
}

// Merged is the union of all repaired boundaries sharing one elapsed time.
type Merged struct {
	ElapsedMinutes float64
	Geometry       geom.Geometry
}

// Merge groups records by elapsed time and unions each group. Records must be
// pre-sorted by elapsed time; the result is strictly ascending with exactly
// one entry per distinct time.
func Merge(records []Record) ([]Merged, error) {
	if len(records) == 0 {
		return nil, nil
	}

	merged := make([]Merged, 0, len(records))
	groupTime := records[0].ElapsedMinutes
	group := make([]geom.Geometry, 0, 4)

	flush := func() error {
		union, err := unionAll(group)
		if err != nil {
			return fmt.Errorf("union boundaries at t=%v: %w", groupTime, err)
		}
		merged = append(merged, Merged{ElapsedMinutes: groupTime, Geometry: union})
		return nil
	}

	for _, rec := range records {
		if math.Abs(rec.ElapsedMinutes-groupTime) > timeTolerance {
			if err := flush(); err != nil {
				return nil, err
			}
			group = group[:0]
			groupTime = rec.ElapsedMinutes
		}
		poly, err := asPolygon(rec.Boundary)
		if err != nil {
			return nil, fmt.Errorf("boundary at t=%v: %w", rec.ElapsedMinutes, err)
		}
		group = append(group, Repair(poly))
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Repair returns a valid version of g. Invalid polygons are rebuilt through a
// self-union, the planar analog of the zero-width buffer trick; geometries
// that still cannot be repaired are returned unchanged so the caller's union
// can surface the error with context.
func Repair(g geom.Geometry) geom.Geometry {
	if err := g.Validate(); err == nil {
		return g
	}
	if fixed, err := geom.Union(g, g); err == nil {
		return fixed
	}
	return g
}

// asPolygon promotes boundary line work into areal geometry. Simulator dumps
// store each perimeter as a LineString ring; polygons and multipolygons pass
// through untouched.
func asPolygon(g geom.Geometry) (geom.Geometry, error) {
	switch g.Type() {
	case geom.TypePolygon, geom.TypeMultiPolygon:
		return g, nil
	case geom.TypeLineString:
		ring := closeRing(g.MustAsLineString())
		return geom.NewPolygon([]geom.LineString{ring}).AsGeometry(), nil
	default:
		return geom.Geometry{}, fmt.Errorf("unsupported boundary type %s", g.Type())
	}
}

// closeRing appends the first vertex when the line work is not closed.
func closeRing(ls geom.LineString) geom.LineString {
	seq := ls.Coordinates()
	n := seq.Length()
	if n < 3 {
		return ls
	}
	first, last := seq.GetXY(0), seq.GetXY(n-1)
	if first == last {
		return ls
	}
	coords := make([]float64, 0, 2*(n+1))
	for i := 0; i < n; i++ {
		xy := seq.GetXY(i)
		coords = append(coords, xy.X, xy.Y)
	}
	coords = append(coords, first.X, first.Y)
	return geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
}

func unionAll(gs []geom.Geometry) (geom.Geometry, error) {
	if len(gs) == 0 {
		return geom.Geometry{}, nil
	}
	acc := gs[0]
	for _, g := range gs[1:] {
		var err error
		acc, err = geom.Union(acc, g)
		if err != nil {
			return geom.Geometry{}, err
		}
	}
	return acc, nil
}
