// Package generate builds random 2D fields and ignition shapes for
// synthesizing ensemble inputs.
package generate

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/peterstace/simplefeatures/geom"
	"gonum.org/v1/gonum/stat/distuv"
)

// Generator produces random fields from a single seeded source so that an
// ensemble case is reproducible from its seed.
type Generator struct {
	src rand.Source
	rng *rand.Rand
}

// New returns a generator seeded for reproducible output.
func New(seed uint64) *Generator {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Generator{src: src, rng: rand.New(src)}
}

// Uniform fills a rows-by-cols field with uniform noise on [low, high).
func (g *Generator) Uniform(rows, cols int, low, high float64) [][]float64 {
	dist := distuv.Uniform{Min: low, Max: high, Src: g.src}
	return g.fill(rows, cols, dist.Rand)
}

// Integer fills a field with uniform integers on [low, high).
func (g *Generator) Integer(rows, cols int, low, high int) [][]int {
	field := make([][]int, rows)
	span := high - low
	for i := range field {
		row := make([]int, cols)
		for j := range row {
			row[j] = low + g.rng.IntN(span)
		}
		field[i] = row
	}
	return field
}

// Normal fills a field with normally distributed noise.
func (g *Generator) Normal(rows, cols int, mean, stddev float64) [][]float64 {
	dist := distuv.Normal{Mu: mean, Sigma: stddev, Src: g.src}
	return g.fill(rows, cols, dist.Rand)
}

// FoldedNormal fills a field with the absolute value of normal noise, the
// usual shape for multiplicative perturbation factors.
func (g *Generator) FoldedNormal(rows, cols int, mean, stddev float64) [][]float64 {
	dist := distuv.Normal{Mu: mean, Sigma: stddev, Src: g.src}
	return g.fill(rows, cols, func() float64 { return math.Abs(dist.Rand()) })
}

// Bool fills a field with true at probability p.
func (g *Generator) Bool(rows, cols int, p float64) [][]bool {
	field := make([][]bool, rows)
	for i := range field {
		row := make([]bool, cols)
		for j := range row {
			row[j] = g.rng.Float64() <= p
		}
		field[i] = row
	}
	return field
}

// Choice fills a field by sampling uniformly from vals.
func (g *Generator) Choice(rows, cols int, vals []int) ([][]int, error) {
	if len(vals) == 0 {
		return nil, fmt.Errorf("no values to choose from")
	}
	field := make([][]int, rows)
	for i := range field {
		row := make([]int, cols)
		for j := range row {
			row[j] = vals[g.rng.IntN(len(vals))]
		}
		field[i] = row
	}
	return field, nil
}

// PatchyOptions shapes a Patchy field: random regular polygons stamped onto a
// base value until the filled fraction is reached.
type PatchyOptions struct {
	Vals             []int
	Base             int
	FilledFraction   float64
	PatchSides       int
	PatchRadiusMean  float64
	PatchRadiusSigma float64
}

// Patchy generates a field of the base value overlaid with polygonal patches
// of values drawn from opts.Vals, covering at least opts.FilledFraction of
// the cells.
func (g *Generator) Patchy(rows, cols int, opts PatchyOptions) ([][]int, error) {
	if len(opts.Vals) == 0 {
		return nil, fmt.Errorf("no patch values to choose from")
	}
	if opts.PatchSides < 3 {
		return nil, fmt.Errorf("patch sides = %d, want at least 3", opts.PatchSides)
	}
	if opts.FilledFraction < 0 || opts.FilledFraction > 1 {
		return nil, fmt.Errorf("filled fraction = %v, want [0, 1]", opts.FilledFraction)
	}

	field := make([][]int, rows)
	covered := make([][]bool, rows)
	for i := range field {
		field[i] = make([]int, cols)
		covered[i] = make([]bool, cols)
		for j := range field[i] {
			field[i][j] = opts.Base
		}
	}

	total := rows * cols
	filled := 0
	radiusDist := distuv.Normal{Mu: opts.PatchRadiusMean, Sigma: opts.PatchRadiusSigma, Src: g.src}
	for float64(filled)/float64(total) < opts.FilledFraction {
		val := opts.Vals[g.rng.IntN(len(opts.Vals))]
		radius := radiusDist.Rand()
		if opts.PatchRadiusSigma == 0 {
			radius = opts.PatchRadiusMean
		}
		rotation := g.rng.Float64() * 2 * math.Pi
		cx := g.rng.Float64() * float64(rows)
		cy := g.rng.Float64() * float64(cols)
		patch := RegularPolygon(opts.PatchSides, radius, rotation, cx, cy)

		min, max, ok := patch.Envelope().MinMaxXYs()
		if !ok {
			continue
		}
		iLo := clampInt(int(math.Floor(min.X)), 0, rows)
		iHi := clampInt(int(math.Ceil(max.X)), 0, rows)
		jLo := clampInt(int(math.Floor(min.Y)), 0, cols)
		jHi := clampInt(int(math.Ceil(max.Y)), 0, cols)

		for i := iLo; i < iHi; i++ {
			for j := jLo; j < jHi; j++ {
				pt := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: float64(i), Y: float64(j)}}).AsGeometry()
				inside, err := geom.Contains(patch, pt)
				if err != nil {
					return nil, fmt.Errorf("patch containment: %w", err)
				}
				if inside {
					field[i][j] = val
					if !covered[i][j] {
						covered[i][j] = true
						filled++
					}
				}
			}
		}
	}
	return field, nil
}

// Gradient generates a plane with the given slope toward the given aspect,
// both in radians, shifted so its minimum is zero.
func Gradient(rows, cols int, aspect, slope, lengthScale float64) [][]float64 {
	nx := math.Sin(slope) * math.Cos(aspect+math.Pi/2)
	ny := math.Sin(slope) * math.Sin(-aspect-math.Pi/2)
	nz := math.Cos(slope)

	field := make([][]float64, rows)
	minimum := math.Inf(1)
	for i := range field {
		row := make([]float64, cols)
		for j := range row {
			row[j] = lengthScale * (nx*float64(i) + ny*float64(j)) / nz
			if row[j] < minimum {
				minimum = row[j]
			}
		}
		field[i] = row
	}
	for i := range field {
		for j := range field[i] {
			field[i][j] -= minimum
		}
	}
	return field
}

// RegularPolygon builds a regular polygon of the given number of sides and
// circumscribed radius, rotated and translated, for use as a patch or an
// ignition shape.
func RegularPolygon(sides int, radius, rotation, cx, cy float64) geom.Geometry {
	theta := 2 * math.Pi / float64(sides)
	coords := make([]float64, 0, 2*(sides+1))
	for i := 0; i < sides; i++ {
		coords = append(coords,
			math.Sin(theta*float64(i)+rotation)*radius+cx,
			math.Cos(theta*float64(i)+rotation)*radius+cy)
	}
	coords = append(coords, coords[0], coords[1])
	ring := geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
	return geom.NewPolygon([]geom.LineString{ring}).AsGeometry()
}

// SetBorder returns a copy of the field with a border of the given thickness
// overwritten with value.
func SetBorder[T any](field [][]T, thickness int, value T) ([][]T, error) {
	if thickness < 0 {
		return nil, fmt.Errorf("border thickness = %d, want non-negative", thickness)
	}
	out := make([][]T, len(field))
	for i := range field {
		out[i] = append([]T(nil), field[i]...)
	}
	if thickness == 0 {
		return out, nil
	}
	rows := len(out)
	for i := range out {
		cols := len(out[i])
		for j := range out[i] {
			if i < thickness || i >= rows-thickness || j < thickness || j >= cols-thickness {
				out[i][j] = value
			}
		}
	}
	return out, nil
}

func (g *Generator) fill(rows, cols int, sample func() float64) [][]float64 {
	field := make([][]float64, rows)
	for i := range field {
		row := make([]float64, cols)
		for j := range row {
			row[j] = sample()
		}
		field[i] = row
	}
	return field
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
