package ensemble

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// histogramBins is the bin count for per-step occurrence histograms.
const histogramBins = 21

// Series is one aggregate quantity over output steps: a table of per-case
// values padded with NaN where a case has fewer steps, plus row statistics.
type Series struct {
	Name    string
	CaseIDs []string
	// Values[step][case]; NaN marks missing steps.
	Values [][]float64
	Mean   []float64
	Median []float64
	Sigma  []float64
}

// Steps returns the number of output steps covered.
func (s *Series) Steps() int { return len(s.Values) }

// Statistics aggregates burn evolution across the ensemble.
type Statistics struct {
	BurnFraction *Series
	BurnRadius   *Series
	FrontSpeed   *Series
}

// ComputeStatistics harvests every readable case and aggregates burn
// fraction, equivalent-circle burn radius, and effective front speed over
// output steps. Cases whose outputs are missing contribute all-NaN columns.
func (e *Ensemble) ComputeStatistics() (*Statistics, error) {
	fractions := make([][]float64, e.Size())
	caseIDs := make([]string, e.Size())
	steps := 0
	for i, c := range e.Cases {
		caseIDs[i] = e.CaseID(i)
		e.logger.Info("computing statistics",
			slog.String("ensemble", e.Name),
			slog.String("case", caseIDs[i]))

		if err := c.ReadOutput(); err != nil {
			// Unreadable cases stay in the table as missing data.
			e.logger.Warn("case outputs unavailable",
				slog.String("case", caseIDs[i]),
				slog.Any("error", err))
			continue
		}
		if err := c.ComputeBurnMaps(); err != nil {
			return nil, err
		}
		fractions[i] = c.Outputs.Burn.Fractions()
		if len(fractions[i]) > steps {
			steps = len(fractions[i])
		}
	}
	if steps == 0 {
		return nil, fmt.Errorf("ensemble %s: no case produced outputs", e.Name)
	}

	burnFraction := newSeries("burn_fraction", caseIDs, steps)
	for i, series := range fractions {
		for step, v := range series {
			burnFraction.Values[step][i] = v
		}
	}
	burnFraction.finalize()

	area := e.Cases[0].Landscape.Area()
	burnRadius := newSeries("burn_radius", caseIDs, steps)
	for step := range burnRadius.Values {
		for i, frac := range burnFraction.Values[step] {
			burnRadius.Values[step][i] = math.Sqrt(frac * area / math.Pi)
		}
	}
	burnRadius.finalize()

	timestep := float64(e.Cases[0].Timestep)
	frontSpeed := newSeries("front_speed", caseIDs, steps)
	for step := range frontSpeed.Values {
		for i := range frontSpeed.Values[step] {
			frontSpeed.Values[step][i] = gradientAt(burnRadius.column(i), step, timestep)
		}
	}
	frontSpeed.finalize()

	return &Statistics{
		BurnFraction: burnFraction,
		BurnRadius:   burnRadius,
		FrontSpeed:   frontSpeed,
	}, nil
}

// WriteStatistics computes the aggregate series and writes each to the
// export directory as stats_<name>.csv plus a histogram of per-step
// occurrences as hist_<name>.csv.
func (e *Ensemble) WriteStatistics() (*Statistics, error) {
	stats, err := e.ComputeStatistics()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(e.ExportDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	for _, s := range []*Series{stats.BurnFraction, stats.BurnRadius, stats.FrontSpeed} {
		if err := s.writeCSV(filepath.Join(e.ExportDir(), "stats_"+s.Name+".csv")); err != nil {
			return nil, err
		}
		if err := s.writeHistogramCSV(filepath.Join(e.ExportDir(), "hist_"+s.Name+".csv")); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func newSeries(name string, caseIDs []string, steps int) *Series {
	s := &Series{Name: name, CaseIDs: caseIDs, Values: make([][]float64, steps)}
	for i := range s.Values {
		row := make([]float64, len(caseIDs))
		for j := range row {
			row[j] = math.NaN()
		}
		s.Values[i] = row
	}
	return s
}

func (s *Series) column(i int) []float64 {
	col := make([]float64, len(s.Values))
	for step := range s.Values {
		col[step] = s.Values[step][i]
	}
	return col
}

// finalize computes per-step mean, median, and standard deviation over the
// cases with data at that step.
func (s *Series) finalize() {
	steps := len(s.Values)
	s.Mean = make([]float64, steps)
	s.Median = make([]float64, steps)
	s.Sigma = make([]float64, steps)
	for step, row := range s.Values {
		var present []float64
		for _, v := range row {
			if !math.IsNaN(v) {
				present = append(present, v)
			}
		}
		if len(present) == 0 {
			s.Mean[step] = math.NaN()
			s.Median[step] = math.NaN()
			s.Sigma[step] = math.NaN()
			continue
		}
		sort.Float64s(present)
		s.Mean[step] = stat.Mean(present, nil)
		s.Median[step] = stat.Quantile(0.5, stat.Empirical, present, nil)
		if len(present) > 1 {
			s.Sigma[step] = stat.StdDev(present, nil)
		}
	}
}

// Bounds returns the mean plus-minus two sigma envelope.
func (s *Series) Bounds() (upper, lower []float64) {
	upper = make([]float64, len(s.Mean))
	lower = make([]float64, len(s.Mean))
	for i := range s.Mean {
		upper[i] = s.Mean[i] + 2*s.Sigma[i]
		lower[i] = s.Mean[i] - 2*s.Sigma[i]
	}
	return upper, lower
}

func (s *Series) writeCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)

	header := append([]string{"step"}, s.CaseIDs...)
	header = append(header, "mu", "median", "sigma")
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return err
	}
	for step, row := range s.Values {
		record := make([]string, 0, len(row)+4)
		record = append(record, strconv.Itoa(step))
		for _, v := range row {
			record = append(record, formatFloat(v))
		}
		record = append(record,
			formatFloat(s.Mean[step]),
			formatFloat(s.Median[step]),
			formatFloat(s.Sigma[step]))
		if err := w.Write(record); err != nil {
			_ = f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// writeHistogramCSV bins each step's values over the series range and writes
// one count row per step.
func (s *Series) writeHistogramCSV(path string) error {
	lo, hi := s.rangeBounds()
	edges := make([]float64, histogramBins)
	span := hi - lo
	if span <= 0 {
		span = 1
	}
	for i := range edges {
		edges[i] = lo + span*float64(i)/float64(histogramBins-1)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)

	header := []string{"step"}
	for i := 0; i < histogramBins-1; i++ {
		header = append(header, fmt.Sprintf("%g-%g", edges[i], edges[i+1]))
	}
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return err
	}
	for step, row := range s.Values {
		counts := make([]int, histogramBins-1)
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			bin := int(float64(histogramBins-1) * (v - lo) / span)
			if bin < 0 {
				bin = 0
			}
			if bin >= len(counts) {
				bin = len(counts) - 1
			}
			counts[bin]++
		}
		record := []string{strconv.Itoa(step)}
		for _, c := range counts {
			record = append(record, strconv.Itoa(c))
		}
		if err := w.Write(record); err != nil {
			_ = f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (s *Series) rangeBounds() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range s.Values {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	return lo, hi
}

// gradientAt is a central difference with one-sided ends, matching the
// conventional numerical gradient over a uniform step.
func gradientAt(series []float64, i int, dt float64) float64 {
	n := len(series)
	if n < 2 {
		return 0
	}
	switch {
	case i == 0:
		return (series[1] - series[0]) / dt
	case i == n-1:
		return (series[n-1] - series[n-2]) / dt
	default:
		return (series[i+1] - series[i-1]) / (2 * dt)
	}
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
