package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEnsemble(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateSimulation(); err != nil {
		return err
	}
	if err := c.validateSpotting(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEnsemble() error {
	if c.Ensemble.Size <= 0 {
		return errors.New("ensemble.size must be positive")
	}
	if c.Ensemble.Attempts <= 0 {
		return errors.New("ensemble.attempts must be positive")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if err := checkWalltime(c.Scheduler.TimeLimit); err != nil {
		return fmt.Errorf("scheduler.time_limit: %w", err)
	}
	return nil
}

// checkWalltime accepts Slurm's [D-]HH:MM:SS walltime form.
func checkWalltime(s string) error {
	rest := s
	if before, after, ok := strings.Cut(s, "-"); ok {
		var days int
		if _, err := fmt.Sscanf(before, "%d", &days); err != nil {
			return fmt.Errorf("malformed walltime %q", s)
		}
		rest = after
	}
	var hours, minutes, seconds int
	if _, err := fmt.Sscanf(rest, "%d:%d:%d", &hours, &minutes, &seconds); err != nil {
		return fmt.Errorf("malformed walltime %q", s)
	}
	return nil
}

func (c *Config) validateSimulation() error {
	switch c.Simulation.CrownFireMethod {
	case "finney", "reinhardt":
	default:
		return fmt.Errorf("simulation.crown_fire_method must be finney or reinhardt, got %q", c.Simulation.CrownFireMethod)
	}
	if c.Simulation.OutType < 0 {
		return errors.New("simulation.out_type must be >= 0")
	}
	return nil
}

func (c *Config) validateSpotting() error {
	if c.Spotting.Probability < 0 || c.Spotting.Probability > 1 {
		return errors.New("spotting.probability must be between 0 and 1")
	}
	if c.Spotting.GridResolution <= 0 {
		return errors.New("spotting.grid_resolution must be positive")
	}
	if c.Spotting.IgnitionDelay < 0 {
		return errors.New("spotting.ignition_delay must be >= 0")
	}
	if c.Spotting.MinimumDistance < 0 {
		return errors.New("spotting.minimum_distance must be >= 0")
	}
	return nil
}
