package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database configuration.
type Paths struct {
	RootDir      string `toml:"root_dir"`
	LogDir       string `toml:"log_dir"`
	DatabasePath string `toml:"database_path"`
}

// Ensemble contains configuration for the case population.
type Ensemble struct {
	Name         string `toml:"name"`
	Size         int    `toml:"size"`
	Attempts     int    `toml:"attempts"`
	PauseSeconds int    `toml:"pause_seconds"`
	Concurrency  int    `toml:"concurrency"`
}

// Scheduler contains batch submission settings.
type Scheduler struct {
	Partition  string   `toml:"partition"`
	TimeLimit  string   `toml:"time_limit"`
	Exec       string   `toml:"exec"`
	SetupLines []string `toml:"setup_lines"`
}

// Simulation contains per-case simulator parameters.
type Simulation struct {
	Timestep                  int     `toml:"timestep"`
	DistanceRes               float64 `toml:"distance_res"`
	PerimeterRes              float64 `toml:"perimeter_res"`
	MinIgnitionVertexDistance float64 `toml:"min_ignition_vertex_distance"`
	FoliarMoistureContent     int     `toml:"foliar_moisture_content"`
	CrownFireMethod           string  `toml:"crown_fire_method"`
	NumberProcessors          int     `toml:"number_processors"`
	OutType                   int     `toml:"out_type"`
}

// Spotting contains ember spotting parameters.
type Spotting struct {
	GridResolution  float64 `toml:"grid_resolution"`
	Probability     float64 `toml:"probability"`
	IgnitionDelay   int     `toml:"ignition_delay"`
	MinimumDistance int     `toml:"minimum_distance"`
	AccelerationOn  bool    `toml:"acceleration_on"`
	Seed            int     `toml:"seed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for fireline.
//
// Configuration sections by subsystem:
//   - Paths: ensemble root, log directory, and case database
//   - Ensemble: population size and post-processing polling
//   - Scheduler: batch partition, time limit, and job setup
//   - Simulation: per-case simulator parameters
//   - Spotting: ember spotting parameters
//   - Logging: log format, level, and retention
type Config struct {
	Paths      Paths      `toml:"paths"`
	Ensemble   Ensemble   `toml:"ensemble"`
	Scheduler  Scheduler  `toml:"scheduler"`
	Simulation Simulation `toml:"simulation"`
	Spotting   Spotting   `toml:"spotting"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/fireline/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("fireline.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required before writing cases.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.RootDir, c.Paths.LogDir}
	if dbDir := filepath.Dir(c.Paths.DatabasePath); dbDir != "" {
		dirs = append(dirs, dbDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PostProcessPause returns the pause between polling attempts.
func (c *Config) PostProcessPause() time.Duration {
	return time.Duration(c.Ensemble.PauseSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
