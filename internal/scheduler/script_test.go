package scheduler

import (
	"strings"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{2 * time.Hour, "0-02:00:00"},
		{26*time.Hour + 30*time.Minute + 5*time.Second, "1-02:30:05"},
		{0, "0-00:00:00"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.d); got != c.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		s    string
		want time.Duration
	}{
		{"0-02:00:00", 2 * time.Hour},
		{"02:00:00", 2 * time.Hour},
		{"1-00:15:30", 24*time.Hour + 15*time.Minute + 30*time.Second},
	}
	for _, c := range cases {
		got, err := ParseDuration(c.s)
		if err != nil {
			t.Errorf("ParseDuration(%q): %v", c.s, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", c.s, got, c.want)
		}
	}
	if _, err := ParseDuration("bogus"); err == nil {
		t.Error("expected error for malformed walltime")
	}
}

func TestScriptWrite(t *testing.T) {
	s := NewScript("case_0001")
	s.SetOption("-t", FormatDuration(4*time.Hour))
	s.SetOption("--partition", "pbatch")
	s.EchoLine = "Running case_0001"
	s.Exec = "TestFARSITE"
	s.RunFile = "run_case_0001.txt"

	var buf strings.Builder
	if err := s.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"#!/bin/bash",
		"#SBATCH -J case_0001",
		"#SBATCH -o %x.%j.out",
		"#SBATCH -t 0-04:00:00",
		"#SBATCH --partition pbatch",
		"echo Running case_0001",
		"TestFARSITE run_case_0001.txt",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("script missing %q:\n%s", want, out)
		}
	}
}

func TestScriptReadRoundTrip(t *testing.T) {
	s := NewScript("demo")
	s.EchoLine = "Running demo"
	s.Exec = "TestFARSITE"
	s.RunFile = "run_demo.txt"

	var buf strings.Builder
	if err := s.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if name, _ := got.Option("-J"); name != "demo" {
		t.Errorf("job name = %q, want demo", name)
	}
	if got.Exec != "TestFARSITE" || got.RunFile != "run_demo.txt" {
		t.Errorf("exec line = %q %q", got.Exec, got.RunFile)
	}
	if got.EchoLine != "Running demo" {
		t.Errorf("echo line = %q", got.EchoLine)
	}
}

func TestScriptSetOptionAppends(t *testing.T) {
	s := NewScript("x")
	s.SetOption("--exclusive", "")
	if _, ok := s.Option("--exclusive"); !ok {
		t.Fatal("new option not appended")
	}
	s.SetOption("-N", "4")
	if v, _ := s.Option("-N"); v != "4" {
		t.Fatalf("-N = %q, want 4", v)
	}
}
