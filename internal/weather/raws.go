// Package weather reads and writes the RAWS hourly observation stream fed to
// the simulator, and interpolates wind fields from it.
package weather

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Units identifies the measurement system of an observation stream.
type Units int

const (
	UnitsEnglish Units = iota + 1
	UnitsMetric
)

// String returns the wire spelling of the unit system.
func (u Units) String() string {
	switch u {
	case UnitsEnglish:
		return "English"
	case UnitsMetric:
		return "Metric"
	default:
		return fmt.Sprintf("Units(%d)", int(u))
	}
}

// ParseUnits converts the wire spelling into a Units value.
func ParseUnits(s string) (Units, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "english":
		return UnitsEnglish, nil
	case "metric":
		return UnitsMetric, nil
	default:
		return 0, fmt.Errorf("invalid units %q: must be English or Metric", s)
	}
}

// Observation is one fixed-field weather record.
type Observation struct {
	Time          time.Time
	Temperature   int
	Humidity      int
	Precipitation float64
	WindSpeed     int
	WindDirection int
	CloudCover    int
}

// Stream is a complete RAWS file: station elevation, unit system, and the
// ordered observations.
type Stream struct {
	Elevation    int
	Units        Units
	Observations []Observation
}

// Parse reads a RAWS stream, validating the three-line header and the fixed
// field count of every record at parse time.
func Parse(r io.Reader) (*Stream, error) {
	scanner := bufio.NewScanner(r)
	s := &Stream{Units: UnitsEnglish}

	elev, err := headerValue(scanner, "RAWS_ELEVATION")
	if err != nil {
		return nil, err
	}
	if s.Elevation, err = strconv.Atoi(elev); err != nil {
		return nil, fmt.Errorf("parse elevation %q: %w", elev, err)
	}

	units, err := headerValue(scanner, "RAWS_UNITS")
	if err != nil {
		return nil, err
	}
	if s.Units, err = ParseUnits(units); err != nil {
		return nil, err
	}

	countStr, err := headerValue(scanner, "RAWS")
	if err != nil {
		return nil, err
	}
	count, err := strconv.Atoi(countStr)
	if err != nil {
		return nil, fmt.Errorf("parse observation count %q: %w", countStr, err)
	}

	s.Observations = make([]Observation, 0, count)
	for i := 0; i < count; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("observation %d: unexpected end of stream", i)
		}
		obs, err := parseObservation(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
		s.Observations = append(s.Observations, obs)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	return s, nil
}

// ParseFile reads a RAWS stream from disk.
func ParseFile(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weather: %w", err)
	}
	defer f.Close()
	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Write serializes the stream in the simulator's text format.
func (s *Stream) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "RAWS_ELEVATION: %d\n", s.Elevation)
	fmt.Fprintf(bw, "RAWS_UNITS: %s\n", s.Units)
	fmt.Fprintf(bw, "RAWS: %d\n", len(s.Observations))
	for _, obs := range s.Observations {
		fmt.Fprintf(bw, "%d %d %d %d%02d %d %d %1.2f %d %d %d\n",
			obs.Time.Year(), int(obs.Time.Month()), obs.Time.Day(),
			obs.Time.Hour(), obs.Time.Minute(),
			obs.Temperature, obs.Humidity, obs.Precipitation,
			obs.WindSpeed, obs.WindDirection, obs.CloudCover)
	}
	return bw.Flush()
}

// WriteFile stores the stream on disk.
func (s *Stream) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create weather file: %w", err)
	}
	if err := s.Write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write weather file: %w", err)
	}
	return f.Close()
}

func headerValue(scanner *bufio.Scanner, key string) (string, error) {
	if !scanner.Scan() {
		return "", fmt.Errorf("missing %s header line", key)
	}
	name, value, ok := strings.Cut(scanner.Text(), ": ")
	if !ok || strings.TrimSpace(name) != key {
		return "", fmt.Errorf("malformed header line %q, want %s", scanner.Text(), key)
	}
	return strings.TrimSpace(value), nil
}

func parseObservation(line string) (Observation, error) {
	fields := strings.Fields(line)
	if len(fields) != 10 {
		return Observation{}, fmt.Errorf("record %q has %d fields, want 10", line, len(fields))
	}
	ints := make([]int, 10)
	for i, f := range fields {
		if i == 6 {
			continue // precipitation is fractional
		}
		v, err := strconv.Atoi(f)
		if err != nil {
			return Observation{}, fmt.Errorf("field %d %q: %w", i, f, err)
		}
		ints[i] = v
	}
	precip, err := strconv.ParseFloat(fields[6], 64)
	if err != nil {
		return Observation{}, fmt.Errorf("precipitation %q: %w", fields[6], err)
	}

	// Hour-minute rides in one zero-padded HHMM field.
	hhmm := fmt.Sprintf("%04d", ints[3])
	hour, _ := strconv.Atoi(hhmm[:2])
	minute, _ := strconv.Atoi(hhmm[2:])

	return Observation{
		Time:          time.Date(ints[0], time.Month(ints[1]), ints[2], hour, minute, 0, 0, time.UTC),
		Temperature:   ints[4],
		Humidity:      ints[5],
		Precipitation: precip,
		WindSpeed:     ints[7],
		WindDirection: ints[8],
		CloudCover:    ints[9],
	}, nil
}
