// Package scheduler writes batch job scripts and submits them to the Slurm
// workload manager.
package scheduler

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Option is one directive line in a batch script.
type Option struct {
	Flag  string
	Value string
}

// Script models a Slurm batch script: shell line, directives, an echo marker,
// setup lines, then the simulator invocation.
type Script struct {
	Shell      string
	Options    []Option
	EchoLine   string
	SetupLines []string
	Exec       string
	RunFile    string
}

// NewScript returns a script with the default single-task directives for the
// given job name.
func NewScript(jobName string) *Script {
	return &Script{
		Shell: "#!/bin/bash",
		Options: []Option{
			{Flag: "-J", Value: jobName},
			{Flag: "-o", Value: "%x.%j.out"},
			{Flag: "-N", Value: "1"},
			{Flag: "-n", Value: "1"},
			{Flag: "-t", Value: FormatDuration(2 * time.Hour)},
			{Flag: "--partition", Value: "pdebug"},
		},
	}
}

// SetOption overwrites the value of an existing directive or appends a new
// one.
func (s *Script) SetOption(flag, value string) {
	for i := range s.Options {
		if s.Options[i].Flag == flag {
			s.Options[i].Value = value
			return
		}
	}
	s.Options = append(s.Options, Option{Flag: flag, Value: value})
}

// Option returns the value of a directive and whether it is set.
func (s *Script) Option(flag string) (string, bool) {
	for _, opt := range s.Options {
		if opt.Flag == flag {
			return opt.Value, true
		}
	}
	return "", false
}

// FormatDuration renders a walltime limit in Slurm's D-HH:MM:SS form.
func FormatDuration(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	seconds := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%d-%02d:%02d:%02d", days, hours, minutes, seconds)
}

// ParseDuration reads a walltime limit in [D-]HH:MM:SS form.
func ParseDuration(s string) (time.Duration, error) {
	days := 0
	rest := s
	if before, after, ok := strings.Cut(s, "-"); ok {
		if _, err := fmt.Sscanf(before, "%d", &days); err != nil {
			return 0, fmt.Errorf("parse walltime days %q: %w", s, err)
		}
		rest = after
	}
	var hours, minutes, seconds int
	if _, err := fmt.Sscanf(rest, "%d:%d:%d", &hours, &minutes, &seconds); err != nil {
		return 0, fmt.Errorf("parse walltime %q: %w", s, err)
	}
	return time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second, nil
}

// Write serializes the script.
func (s *Script) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, s.Shell)
	fmt.Fprintln(bw)
	for _, opt := range s.Options {
		fmt.Fprintf(bw, "#SBATCH %s %s\n", opt.Flag, opt.Value)
	}
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "echo %s\n", s.EchoLine)
	fmt.Fprintln(bw)
	for _, line := range s.SetupLines {
		fmt.Fprintln(bw, line)
	}
	fmt.Fprintf(bw, "%s %s", s.Exec, s.RunFile)
	return bw.Flush()
}

// WriteFile stores the script on disk with execute permission.
func (s *Script) WriteFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("create job script: %w", err)
	}
	if err := s.Write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write job script: %w", err)
	}
	return f.Close()
}

// Read parses a batch script back into its parts.
func Read(r io.Reader) (*Script, error) {
	s := &Script{Shell: "#!/bin/bash"}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, "#!"):
			s.Shell = line
		case strings.HasPrefix(line, "#SBATCH"):
			fields := strings.FieldsFunc(line, func(r rune) bool { return r == ' ' || r == '=' })
			if len(fields) < 3 {
				return nil, fmt.Errorf("malformed directive %q", line)
			}
			s.Options = append(s.Options, Option{Flag: fields[1], Value: fields[2]})
		case strings.HasPrefix(line, "echo"):
			s.EchoLine = strings.TrimSpace(strings.TrimPrefix(line, "echo"))
		case strings.HasPrefix(line, "#"):
		default:
			fields := strings.Fields(line)
			if len(fields) == 2 {
				s.Exec = fields[0]
				s.RunFile = strings.TrimPrefix(fields[1], "./")
			} else {
				s.SetupLines = append(s.SetupLines, line)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read job script: %w", err)
	}
	return s, nil
}

// ReadFile reads a batch script from disk.
func ReadFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open job script: %w", err)
	}
	defer f.Close()
	s, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
