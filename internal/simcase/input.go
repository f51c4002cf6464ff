package simcase

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fireline/internal/weather"
)

// WriteInput serializes the case's input deck.
func (c *Case) WriteInput(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "FARSITE INPUTS FILE VERSION 1.0")
	fmt.Fprintf(bw, "FARSITE_START_TIME: %02d %02d %02d%02d\n",
		int(c.StartTime.Month()), c.StartTime.Day(), c.StartTime.Hour(), c.StartTime.Minute())
	fmt.Fprintf(bw, "FARSITE_END_TIME: %02d %02d %02d%02d\n",
		int(c.EndTime.Month()), c.EndTime.Day(), c.EndTime.Hour(), c.EndTime.Minute())
	fmt.Fprintf(bw, "FARSITE_TIMESTEP: %d\n", c.Timestep)
	fmt.Fprintf(bw, "FARSITE_DISTANCE_RES: %.1f\n", c.DistanceRes)
	fmt.Fprintf(bw, "FARSITE_PERIMETER_RES: %.1f\n", c.PerimeterRes)
	fmt.Fprintf(bw, "FARSITE_MIN_IGNITION_VERTEX_DISTANCE: %.1f\n", c.MinIgnitionVertexDistance)
	fmt.Fprintf(bw, "NUMBER_PROCESSORS: %d\n", c.NumberProcessors)
	fmt.Fprint(bw, "\n\n")

	if len(c.BurnPeriods) > 0 {
		fmt.Fprintf(bw, "FARSITE_BURN_PERIODS: %d\n", len(c.BurnPeriods))
		for _, bp := range c.BurnPeriods {
			fmt.Fprintf(bw, "%02d %02d %02d%02d %02d%02d\n",
				int(bp.Start.Month()), bp.Start.Day(),
				bp.Start.Hour(), bp.Start.Minute(),
				bp.End.Hour(), bp.End.Minute())
		}
		fmt.Fprint(bw, "\n\n")
	}

	fmt.Fprintf(bw, "FARSITE_SPOT_GRID_RESOLUTION: %.1f\n", c.SpotGridResolution)
	fmt.Fprintf(bw, "FARSITE_SPOT_PROBABILITY: %0.2f\n", c.SpotProbability)
	fmt.Fprintf(bw, "FARSITE_SPOT_IGNITION_DELAY: %d\n", c.SpotIgnitionDelay)
	fmt.Fprintf(bw, "FARSITE_MINIMUM_SPOT_DISTANCE: %d\n", c.MinimumSpotDistance)
	fmt.Fprintf(bw, "FARSITE_ACCELERATION_ON: %d\n", boolToInt(c.AccelerationOn))
	fmt.Fprintf(bw, "SPOTTING_SEED: %d\n", c.SpottingSeed)
	fmt.Fprint(bw, "\n\n")

	fmt.Fprintf(bw, "FUEL_MOISTURES_DATA: %d\n", len(c.FuelMoistures))
	for _, fm := range c.FuelMoistures {
		fmt.Fprintf(bw, "%d %d %d %d %d %d\n",
			fm.Model, fm.OneHour, fm.TenHour, fm.HundredHour, fm.LiveHerbaceous, fm.LiveWoody)
	}
	fmt.Fprint(bw, "\n\n")

	fmt.Fprintf(bw, "RAWS_FILE: %s\n", c.weatherFileLocal())
	fmt.Fprint(bw, "\n\n")

	fmt.Fprintf(bw, "FOLIAR_MOISTURE_CONTENT: %d\n", c.FoliarMoistureContent)
	fmt.Fprintf(bw, "CROWN_FIRE_METHOD: %s\n", c.CrownFireMethod)

	return bw.Flush()
}

// WriteInputFile stores the input deck on disk.
func (c *Case) WriteInputFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("case %s: create input deck: %w", c.Name, err)
	}
	if err := c.WriteInput(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("case %s: write input deck: %w", c.Name, err)
	}
	return f.Close()
}

// ReadInput parses an input deck back into the case, overwriting the fields
// it names. Comments after # are ignored.
func (c *Case) ReadInput(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	c.FuelMoistures = nil
	c.BurnPeriods = nil
	for scanner.Scan() {
		line := stripComment(scanner.Text())
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, "FARSITE INPUTS FILE"):
		case strings.Contains(trimmed, ":"):
			name, value, _ := strings.Cut(trimmed, ":")
			name = strings.TrimSpace(name)
			value = strings.TrimSpace(value)
			switch name {
			case "FARSITE_BURN_PERIODS":
				count, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("burn period count %q: %w", value, err)
				}
				for i := 0; i < count; i++ {
					if !scanner.Scan() {
						return fmt.Errorf("burn period %d: unexpected end of deck", i)
					}
					bp, err := parseBurnPeriod(scanner.Text())
					if err != nil {
						return fmt.Errorf("burn period %d: %w", i, err)
					}
					c.BurnPeriods = append(c.BurnPeriods, bp)
				}
			case "FUEL_MOISTURES_DATA":
				count, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("fuel moisture count %q: %w", value, err)
				}
				for i := 0; i < count; i++ {
					if !scanner.Scan() {
						return fmt.Errorf("fuel moisture %d: unexpected end of deck", i)
					}
					fm, err := parseFuelMoisture(scanner.Text())
					if err != nil {
						return fmt.Errorf("fuel moisture %d: %w", i, err)
					}
					c.FuelMoistures = append(c.FuelMoistures, fm)
				}
			default:
				if err := c.applyNameValue(name, value); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("unrecognized input deck line %q", trimmed)
		}
	}
	return scanner.Err()
}

// ReadInputFile reads an input deck from disk.
func (c *Case) ReadInputFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("case %s: open input deck: %w", c.Name, err)
	}
	defer f.Close()
	if err := c.ReadInput(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (c *Case) applyNameValue(name, value string) error {
	var err error
	switch name {
	case "FARSITE_START_TIME":
		c.StartTime, err = parseDeckTime(value, c.StartTime.Year())
	case "FARSITE_END_TIME":
		c.EndTime, err = parseDeckTime(value, c.EndTime.Year())
	case "FARSITE_TIMESTEP":
		c.Timestep, err = strconv.Atoi(value)
	case "FARSITE_DISTANCE_RES":
		c.DistanceRes, err = strconv.ParseFloat(value, 64)
	case "FARSITE_PERIMETER_RES":
		c.PerimeterRes, err = strconv.ParseFloat(value, 64)
	case "FARSITE_MIN_IGNITION_VERTEX_DISTANCE":
		c.MinIgnitionVertexDistance, err = strconv.ParseFloat(value, 64)
	case "FARSITE_SPOT_GRID_RESOLUTION":
		c.SpotGridResolution, err = strconv.ParseFloat(value, 64)
	case "FARSITE_SPOT_PROBABILITY":
		c.SpotProbability, err = strconv.ParseFloat(value, 64)
	case "FARSITE_SPOT_IGNITION_DELAY":
		c.SpotIgnitionDelay, err = strconv.Atoi(value)
	case "FARSITE_MINIMUM_SPOT_DISTANCE":
		c.MinimumSpotDistance, err = strconv.Atoi(value)
	case "FARSITE_ACCELERATION_ON":
		var v int
		v, err = strconv.Atoi(value)
		c.AccelerationOn = v != 0
	case "SPOTTING_SEED":
		c.SpottingSeed, err = strconv.Atoi(value)
	case "RAWS_FILE":
		var stream *weather.Stream
		stream, err = weather.ParseFile(filepath.Join(c.RootDir, value))
		if err == nil {
			c.Weather = stream
			if len(stream.Observations) > 0 {
				year := stream.Observations[0].Time.Year()
				c.StartTime = withYear(c.StartTime, year)
				c.EndTime = withYear(c.EndTime, year)
			}
		}
	case "FOLIAR_MOISTURE_CONTENT":
		c.FoliarMoistureContent, err = strconv.Atoi(value)
	case "CROWN_FIRE_METHOD":
		c.CrownFireMethod, err = ParseCrownFireMethod(value)
	case "NUMBER_PROCESSORS":
		c.NumberProcessors, err = strconv.Atoi(value)
	}
	if err != nil {
		return fmt.Errorf("parse %s %q: %w", name, value, err)
	}
	return nil
}

func parseDeckTime(value string, year int) (time.Time, error) {
	fields := strings.Fields(value)
	if len(fields) != 3 || len(fields[2]) != 4 {
		return time.Time{}, fmt.Errorf("malformed time %q", value)
	}
	month, err1 := strconv.Atoi(fields[0])
	day, err2 := strconv.Atoi(fields[1])
	hour, err3 := strconv.Atoi(fields[2][:2])
	minute, err4 := strconv.Atoi(fields[2][2:])
	for _, err := range []error{err1, err2, err3, err4} {
		if err != nil {
			return time.Time{}, fmt.Errorf("malformed time %q: %w", value, err)
		}
	}
	if year == 0 {
		year = defaultYear
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC), nil
}

func parseBurnPeriod(line string) (BurnPeriod, error) {
	fields := strings.Fields(stripComment(line))
	if len(fields) != 4 || len(fields[2]) != 4 || len(fields[3]) != 4 {
		return BurnPeriod{}, fmt.Errorf("malformed burn period %q", line)
	}
	start, err := parseDeckTime(strings.Join(fields[:3], " "), defaultYear)
	if err != nil {
		return BurnPeriod{}, err
	}
	endHour, err1 := strconv.Atoi(fields[3][:2])
	endMinute, err2 := strconv.Atoi(fields[3][2:])
	if err1 != nil || err2 != nil {
		return BurnPeriod{}, fmt.Errorf("malformed burn period end %q", fields[3])
	}
	end := time.Date(start.Year(), start.Month(), start.Day(), endHour, endMinute, 0, 0, time.UTC)
	return BurnPeriod{Start: start, End: end}, nil
}

func parseFuelMoisture(line string) (FuelMoisture, error) {
	fields := strings.Fields(stripComment(line))
	if len(fields) != 6 {
		return FuelMoisture{}, fmt.Errorf("record %q has %d fields, want 6", line, len(fields))
	}
	vals := make([]int, 6)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return FuelMoisture{}, fmt.Errorf("field %d %q: %w", i, f, err)
		}
		vals[i] = v
	}
	return FuelMoisture{
		Model:          vals[0],
		OneHour:        vals[1],
		TenHour:        vals[2],
		HundredHour:    vals[3],
		LiveHerbaceous: vals[4],
		LiveWoody:      vals[5],
	}, nil
}

func withYear(t time.Time, year int) time.Time {
	return time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
