package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"fireline/internal/logging"
)

var commandContext = exec.CommandContext

// Client submits batch scripts and inspects their logs.
type Client struct {
	logger *slog.Logger
}

// NewClient returns a client logging through the given logger.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{logger: logger}
}

// Submit hands the script to sbatch from the given working directory and
// returns the assigned job id, parsed from the last token of sbatch's
// acknowledgement line.
func (c *Client) Submit(ctx context.Context, dir, scriptName string) (int, error) {
	cmd := commandContext(ctx, "sbatch", scriptName)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("submit %s: %w", scriptName, err)
	}
	fields := strings.Fields(strings.TrimSpace(string(output)))
	if len(fields) == 0 {
		return 0, fmt.Errorf("submit %s: empty scheduler response", scriptName)
	}
	jobID, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0, fmt.Errorf("submit %s: parse job id from %q: %w", scriptName, string(output), err)
	}
	c.logger.Info("job submitted",
		slog.String("script", scriptName),
		slog.String("dir", dir),
		slog.Int("job_id", jobID))
	return jobID, nil
}

// Cancel asks the scheduler to cancel the job.
func (c *Client) Cancel(ctx context.Context, jobID int) error {
	cmd := commandContext(ctx, "scancel", strconv.Itoa(jobID))
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("cancel job %d: %w: %s", jobID, err, strings.TrimSpace(string(output)))
	}
	c.logger.Info("job cancelled", slog.Int("job_id", jobID))
	return nil
}

// LogFile locates the job's output log in dir. The scheduler names it
// <jobname>.<jobid>.out; matching on the id suffix tolerates renamed jobs.
func LogFile(dir string, jobID int) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	suffix := fmt.Sprintf("%d.out", jobID)
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), suffix) {
			return filepath.Join(dir, entry.Name()), true
		}
	}
	return "", false
}

// ReadLog returns the job's log contents, or ok=false if the log does not
// exist yet.
func ReadLog(dir string, jobID int) (string, bool, error) {
	path, ok := LogFile(dir, jobID)
	if !ok {
		return "", false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("read job log: %w", err)
	}
	return string(data), true, nil
}
