// Package simcase manages individual simulation cases: their on-disk layout,
// input decks, batch submission, and output harvesting.
package simcase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterstace/simplefeatures/geom"

	"fireline/internal/landscape"
	"fireline/internal/scheduler"
	"fireline/internal/weather"
)

// CrownFireMethod selects the crown fire model in the input deck.
type CrownFireMethod int

const (
	CrownFireFinney CrownFireMethod = iota + 1
	CrownFireReinhardt
)

// String returns the input deck spelling.
func (m CrownFireMethod) String() string {
	switch m {
	case CrownFireFinney:
		return "Finney"
	case CrownFireReinhardt:
		return "Reinhardt"
	default:
		return fmt.Sprintf("CrownFireMethod(%d)", int(m))
	}
}

// ParseCrownFireMethod converts the input deck spelling.
func ParseCrownFireMethod(s string) (CrownFireMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "finney":
		return CrownFireFinney, nil
	case "reinhardt":
		return CrownFireReinhardt, nil
	default:
		return 0, fmt.Errorf("invalid crown fire method %q", s)
	}
}

// BurnPeriod is one daily burning window.
type BurnPeriod struct {
	Start time.Time
	End   time.Time
}

// FuelMoisture is the fixed-field moisture record for one fuel model, all
// values in percent.
type FuelMoisture struct {
	Model          int
	OneHour        int
	TenHour        int
	HundredHour    int
	LiveHerbaceous int
	LiveWoody      int
}

// Directory and file layout inside a case root.
const (
	OutputDirLocal    = "output"
	LandscapeDirLocal = "landscape"
	IgnitionDirLocal  = "ignition"
	JobFileLocal      = "job.slurm"
)

const defaultYear = 2000

// Case is one simulation: its inputs, scheduler script, and harvested
// outputs.
type Case struct {
	Name    string
	RootDir string
	Script  *scheduler.Script

	StartTime                 time.Time
	EndTime                   time.Time
	Timestep                  int
	DistanceRes               float64
	PerimeterRes              float64
	MinIgnitionVertexDistance float64

	SpotGridResolution  float64
	SpotProbability     float64
	SpotIgnitionDelay   int
	MinimumSpotDistance int
	SpottingSeed        int
	AccelerationOn      bool

	BurnPeriods   []BurnPeriod
	FuelMoistures []FuelMoisture

	Weather               *weather.Stream
	FoliarMoistureContent int
	CrownFireMethod       CrownFireMethod
	NumberProcessors      int

	Landscape *landscape.Landscape
	Ignition  geom.Geometry
	OutType   int

	JobID int

	Outputs *Outputs
}

// New returns a case with the simulator's default parameters.
func New(name, rootDir string) *Case {
	return &Case{
		Name:                      name,
		RootDir:                   rootDir,
		Script:                    scheduler.NewScript(name),
		StartTime:                 time.Date(defaultYear, 1, 1, 0, 0, 0, 0, time.UTC),
		EndTime:                   time.Date(defaultYear, 1, 1, 0, 0, 0, 0, time.UTC),
		Timestep:                  60,
		DistanceRes:               30,
		PerimeterRes:              60,
		MinIgnitionVertexDistance: 15,
		SpotGridResolution:        15,
		SpotProbability:           0.05,
		MinimumSpotDistance:       30,
		AccelerationOn:            true,
		Weather:                   &weather.Stream{Units: weather.UnitsEnglish},
		FoliarMoistureContent:     100,
		CrownFireMethod:           CrownFireFinney,
		NumberProcessors:          1,
	}
}

// Local file names derived from the case name.
func (c *Case) inputFileLocal() string    { return c.Name + ".input" }
func (c *Case) weatherFileLocal() string  { return c.Name + ".raws" }
func (c *Case) runFileLocal() string      { return "run_" + c.Name + ".txt" }
func (c *Case) lcpPrefixLocal() string    { return filepath.Join(LandscapeDirLocal, c.Name) }
func (c *Case) ignitionFileLocal() string { return filepath.Join(IgnitionDirLocal, c.Name+".geojson") }
func (c *Case) outPrefixLocal() string    { return filepath.Join(OutputDirLocal, c.Name) }

// OutputDir returns the absolute output directory.
func (c *Case) OutputDir() string { return filepath.Join(c.RootDir, OutputDirLocal) }

// Write lays the complete case out on disk: directories, landscape record,
// weather stream, ignition shape, input deck, run file, and job script.
func (c *Case) Write() error {
	if c.Landscape == nil {
		return fmt.Errorf("case %s: no landscape", c.Name)
	}
	for _, dir := range []string{
		c.RootDir,
		filepath.Join(c.RootDir, LandscapeDirLocal),
		filepath.Join(c.RootDir, IgnitionDirLocal),
		filepath.Join(c.RootDir, OutputDirLocal),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if err := c.WriteInputFile(filepath.Join(c.RootDir, c.inputFileLocal())); err != nil {
		return err
	}
	if err := landscape.WriteFile(c.Landscape, filepath.Join(c.RootDir, c.lcpPrefixLocal())); err != nil {
		return fmt.Errorf("case %s: write landscape: %w", c.Name, err)
	}
	if err := c.Weather.WriteFile(filepath.Join(c.RootDir, c.weatherFileLocal())); err != nil {
		return fmt.Errorf("case %s: %w", c.Name, err)
	}
	if err := WriteIgnitionFile(filepath.Join(c.RootDir, c.ignitionFileLocal()), c.Ignition); err != nil {
		return fmt.Errorf("case %s: %w", c.Name, err)
	}

	runLine := fmt.Sprintf("%s %s %s %d %s %d",
		c.lcpPrefixLocal()+".lcp",
		c.inputFileLocal(),
		c.ignitionFileLocal(),
		0,
		c.outPrefixLocal(),
		c.OutType)
	runFile := filepath.Join(c.RootDir, c.runFileLocal())
	if err := os.WriteFile(runFile, []byte(runLine), 0o644); err != nil {
		return fmt.Errorf("case %s: write run file: %w", c.Name, err)
	}

	c.Script.SetOption("-J", c.Name)
	c.Script.RunFile = c.runFileLocal()
	if err := c.Script.WriteFile(filepath.Join(c.RootDir, JobFileLocal)); err != nil {
		return fmt.Errorf("case %s: %w", c.Name, err)
	}
	return nil
}

// Submit hands the case's job script to the scheduler and records the
// assigned job id.
func (c *Case) Submit(ctx context.Context, client *scheduler.Client) error {
	jobID, err := client.Submit(ctx, c.RootDir, JobFileLocal)
	if err != nil {
		return fmt.Errorf("case %s: %w", c.Name, err)
	}
	c.JobID = jobID
	return nil
}

// Log sentinels emitted by the simulator.
const (
	launchSentinel         = "Launching Farsite"
	doneSentinel           = "Writing outputs"
	ignitionFailedSentinel = "No ignition"
)

// Started reports whether the simulation has begun executing, judged by the
// launch line in the job log.
func (c *Case) Started() (bool, error) {
	return c.logContains(launchSentinel)
}

// Done reports whether the simulation has written its outputs.
func (c *Case) Done() (bool, error) {
	started, err := c.Started()
	if err != nil || !started {
		return false, err
	}
	return c.logContains(doneSentinel)
}

// IgnitionFailed reports whether the simulation started but could not
// ignite.
func (c *Case) IgnitionFailed() (bool, error) {
	started, err := c.Started()
	if err != nil || !started {
		return false, err
	}
	return c.logContains(ignitionFailedSentinel)
}

func (c *Case) logContains(sentinel string) (bool, error) {
	if c.JobID == 0 {
		return false, nil
	}
	content, ok, err := scheduler.ReadLog(c.RootDir, c.JobID)
	if err != nil {
		return false, fmt.Errorf("case %s: %w", c.Name, err)
	}
	if !ok {
		return false, nil
	}
	return strings.Contains(content, sentinel), nil
}
