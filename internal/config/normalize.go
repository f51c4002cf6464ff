package config

import (
	"fmt"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEnsemble()
	c.normalizeScheduler()
	c.normalizeSimulation()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.RootDir) == "" {
		c.Paths.RootDir = defaultRootDir
	}
	if c.Paths.RootDir, err = expandPath(c.Paths.RootDir); err != nil {
		return fmt.Errorf("paths.root_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		c.Paths.DatabasePath = defaultDatabasePath
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeEnsemble() {
	c.Ensemble.Name = strings.TrimSpace(c.Ensemble.Name)
	if c.Ensemble.Name == "" {
		c.Ensemble.Name = defaultEnsembleName
	}
	if c.Ensemble.Attempts <= 0 {
		c.Ensemble.Attempts = defaultAttempts
	}
	if c.Ensemble.PauseSeconds < 0 {
		c.Ensemble.PauseSeconds = defaultPauseSeconds
	}
	if c.Ensemble.Concurrency <= 0 {
		c.Ensemble.Concurrency = runtime.GOMAXPROCS(0)
	}
}

func (c *Config) normalizeScheduler() {
	c.Scheduler.Partition = strings.TrimSpace(c.Scheduler.Partition)
	if c.Scheduler.Partition == "" {
		c.Scheduler.Partition = defaultPartition
	}
	c.Scheduler.TimeLimit = strings.TrimSpace(c.Scheduler.TimeLimit)
	if c.Scheduler.TimeLimit == "" {
		c.Scheduler.TimeLimit = defaultTimeLimit
	}
	c.Scheduler.Exec = strings.TrimSpace(c.Scheduler.Exec)
	if c.Scheduler.Exec == "" {
		c.Scheduler.Exec = defaultExec
	}
}

func (c *Config) normalizeSimulation() {
	if c.Simulation.Timestep <= 0 {
		c.Simulation.Timestep = defaultTimestep
	}
	if c.Simulation.DistanceRes <= 0 {
		c.Simulation.DistanceRes = defaultDistanceRes
	}
	if c.Simulation.PerimeterRes <= 0 {
		c.Simulation.PerimeterRes = defaultPerimeterRes
	}
	if c.Simulation.MinIgnitionVertexDistance <= 0 {
		c.Simulation.MinIgnitionVertexDistance = defaultMinIgnitionVD
	}
	if c.Simulation.FoliarMoistureContent <= 0 {
		c.Simulation.FoliarMoistureContent = defaultFoliarMoisture
	}
	c.Simulation.CrownFireMethod = strings.ToLower(strings.TrimSpace(c.Simulation.CrownFireMethod))
	if c.Simulation.CrownFireMethod == "" {
		c.Simulation.CrownFireMethod = defaultCrownFireMethod
	}
	if c.Simulation.NumberProcessors <= 0 {
		c.Simulation.NumberProcessors = defaultNumberProcessors
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
