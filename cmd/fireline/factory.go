package main

import (
	"fmt"
	"math"
	"time"

	"fireline/internal/config"
	"fireline/internal/ensemble"
	"fireline/internal/fuel"
	"fireline/internal/generate"
	"fireline/internal/landscape"
	"fireline/internal/simcase"
	"fireline/internal/weather"
)

// generateOptions controls the synthesized inputs of a case.
type generateOptions struct {
	Rows           int
	Cols           int
	CellSize       float64
	Seed           uint64
	SimHours       int
	IgnitionRadius float64
	FuelFraction   float64
}

func defaultGenerateOptions() generateOptions {
	return generateOptions{
		Rows:           100,
		Cols:           100,
		CellSize:       30,
		Seed:           1,
		SimHours:       48,
		IgnitionRadius: 120,
		FuelFraction:   0.6,
	}
}

// caseSpec is the immutable prototype all ensemble cases are built from. Each
// case derives its own generator seed from the case index so the population
// is reproducible.
type caseSpec struct {
	cfg *config.Config
	gen generateOptions
}

func newCaseSpec(cfg *config.Config, gen generateOptions) *caseSpec {
	return &caseSpec{cfg: cfg, gen: gen}
}

func (s *caseSpec) factory() ensemble.Factory {
	return func(index int) *simcase.Case {
		return s.buildCase(index)
	}
}

func (s *caseSpec) buildCase(index int) *simcase.Case {
	cfg := s.cfg
	g := generate.New(s.gen.Seed + uint64(index))

	c := simcase.New(fmt.Sprintf("%s_%d", cfg.Ensemble.Name, index), "")

	c.Timestep = cfg.Simulation.Timestep
	c.DistanceRes = cfg.Simulation.DistanceRes
	c.PerimeterRes = cfg.Simulation.PerimeterRes
	c.MinIgnitionVertexDistance = cfg.Simulation.MinIgnitionVertexDistance
	c.FoliarMoistureContent = cfg.Simulation.FoliarMoistureContent
	c.NumberProcessors = cfg.Simulation.NumberProcessors
	c.OutType = cfg.Simulation.OutType
	if method, err := simcase.ParseCrownFireMethod(cfg.Simulation.CrownFireMethod); err == nil {
		c.CrownFireMethod = method
	}

	c.SpotGridResolution = cfg.Spotting.GridResolution
	c.SpotProbability = cfg.Spotting.Probability
	c.SpotIgnitionDelay = cfg.Spotting.IgnitionDelay
	c.MinimumSpotDistance = cfg.Spotting.MinimumDistance
	c.AccelerationOn = cfg.Spotting.AccelerationOn
	c.SpottingSeed = cfg.Spotting.Seed
	if c.SpottingSeed == 0 {
		c.SpottingSeed = int(s.gen.Seed) + index
	}

	c.Script.SetOption("--partition", cfg.Scheduler.Partition)
	c.Script.SetOption("-t", cfg.Scheduler.TimeLimit)
	c.Script.Exec = cfg.Scheduler.Exec
	c.Script.SetupLines = append([]string(nil), cfg.Scheduler.SetupLines...)
	c.Script.EchoLine = "simulation start"

	c.StartTime = time.Date(2000, 6, 1, 8, 0, 0, 0, time.UTC)
	c.EndTime = c.StartTime.Add(time.Duration(s.gen.SimHours) * time.Hour)

	// One daytime burn window per simulated day.
	for day := c.StartTime.Truncate(24 * time.Hour); day.Before(c.EndTime); day = day.Add(24 * time.Hour) {
		start := day.Add(9 * time.Hour)
		end := day.Add(20 * time.Hour)
		if end.Before(c.StartTime) || start.After(c.EndTime) {
			continue
		}
		c.BurnPeriods = append(c.BurnPeriods, simcase.BurnPeriod{Start: start, End: end})
	}

	c.FuelMoistures = []simcase.FuelMoisture{{
		Model:          0,
		OneHour:        4 + g.Integer(1, 1, 0, 5)[0][0],
		TenHour:        5 + g.Integer(1, 1, 0, 5)[0][0],
		HundredHour:    6 + g.Integer(1, 1, 0, 5)[0][0],
		LiveHerbaceous: 50 + g.Integer(1, 1, 0, 30)[0][0],
		LiveWoody:      70 + g.Integer(1, 1, 0, 40)[0][0],
	}}

	c.Weather = s.buildWeather(g, c.StartTime, c.EndTime)
	c.Landscape = s.buildLandscape(g)
	cx, cy := c.Landscape.Center()
	rotation := g.Uniform(1, 1, 0, 2*math.Pi)[0][0]
	c.Ignition = generate.RegularPolygon(8, s.gen.IgnitionRadius, rotation, cx, cy)

	return c
}

func (s *caseSpec) buildWeather(g *generate.Generator, start, end time.Time) *weather.Stream {
	speed := g.Integer(1, 1, 5, 16)[0][0]
	direction := g.Integer(1, 1, 0, 360)[0][0]
	stream := &weather.Stream{Units: weather.UnitsEnglish}
	for t := start; !t.After(end); t = t.Add(time.Hour) {
		hour := t.Sub(start).Hours()
		stream.Observations = append(stream.Observations, weather.Observation{
			Time:          t,
			Temperature:   70 + int(10*math.Sin(hour*math.Pi/12)),
			Humidity:      40 - int(10*math.Sin(hour*math.Pi/12)),
			WindSpeed:     speed,
			WindDirection: direction,
		})
	}
	return stream
}

func (s *caseSpec) buildLandscape(g *generate.Generator) *landscape.Landscape {
	rows, cols := s.gen.Rows, s.gen.Cols
	ls := landscape.New(rows, cols)
	ls.UTMWest = 0
	ls.UTMEast = float64(cols) * s.gen.CellSize
	ls.UTMSouth = 0
	ls.UTMNorth = float64(rows) * s.gen.CellSize
	ls.ResX = s.gen.CellSize
	ls.ResY = s.gen.CellSize
	ls.Latitude = 40

	aspect := g.Uniform(1, 1, 0, 2*math.Pi)[0][0]
	slope := math.Pi / 36
	elevation := generate.Gradient(rows, cols, aspect, slope, s.gen.CellSize)
	setFloatLayer(ls, landscape.LayerElevation, elevation)

	slopeDeg := int16(math.Round(slope * 180 / math.Pi))
	aspectDeg := int16(math.Round(aspect*180/math.Pi)) % 360
	if aspectDeg < 0 {
		aspectDeg += 360
	}
	setConstLayer(ls, landscape.LayerSlope, rows, cols, slopeDeg)
	setConstLayer(ls, landscape.LayerAspect, rows, cols, aspectDeg)
	setLayerUnits(ls, landscape.LayerSlope, landscape.SlopeUnitsDegrees)
	setLayerUnits(ls, landscape.LayerAspect, landscape.AspectUnitsAzimuth)

	field, err := g.Patchy(rows, cols, generate.PatchyOptions{
		Vals:            fuel.Grass[:4],
		Base:            fuel.NonBurnable[0],
		FilledFraction:  s.gen.FuelFraction,
		PatchSides:      6,
		PatchRadiusMean: float64(rows) / 8,
	})
	if err != nil {
		// Patch generation only fails on invalid options; fall back to a
		// uniform burnable field.
		field = make([][]int, rows)
		for i := range field {
			field[i] = make([]int, cols)
			for j := range field[i] {
				field[i][j] = fuel.Grass[0]
			}
		}
	}
	setIntLayer(ls, landscape.LayerFuel, field)

	setConstLayer(ls, landscape.LayerCover, rows, cols, 30)
	return ls
}

func setFloatLayer(ls *landscape.Landscape, name string, field [][]float64) {
	grid := landscape.NewGrid(len(field), len(field[0]))
	for i := range field {
		for j := range field[i] {
			grid.Set(i, j, int16(math.Round(field[i][j])))
		}
	}
	_ = ls.SetLayerGrid(name, grid)
}

func setIntLayer(ls *landscape.Landscape, name string, field [][]int) {
	grid := landscape.NewGrid(len(field), len(field[0]))
	for i := range field {
		for j := range field[i] {
			grid.Set(i, j, int16(field[i][j]))
		}
	}
	_ = ls.SetLayerGrid(name, grid)
}

func setConstLayer(ls *landscape.Landscape, name string, rows, cols int, value int16) {
	grid := landscape.NewGrid(rows, cols)
	grid.Fill(value)
	_ = ls.SetLayerGrid(name, grid)
}

func setLayerUnits(ls *landscape.Landscape, name string, units int16) {
	l, err := ls.Layer(name)
	if err != nil {
		return
	}
	l.UnitOpts = units
	_ = ls.SetLayer(name, l)
}
