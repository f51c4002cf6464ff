// Package ensemble orchestrates populations of simulation cases: generation
// from a prototype factory, batch submission, polling post-processing, and
// aggregate statistics.
package ensemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/gofrs/flock"
	psg "github.com/petenewcomb/psg-go"

	"fireline/internal/logging"
	"fireline/internal/scheduler"
	"fireline/internal/simcase"
	"fireline/internal/store"
)

// Directory layout inside an ensemble root.
const (
	CasesDirLocal  = "cases"
	ExportDirLocal = "export"

	lockFileName = ".fireline.lock"
)

// Factory builds one case from its zero-based index. The ensemble overrides
// the returned case's name and root directory.
type Factory func(index int) *simcase.Case

// Ensemble is a population of cases under one root directory.
type Ensemble struct {
	Name    string
	RootDir string
	Cases   []*simcase.Case

	// Store is optional: when set, case lifecycle changes are persisted.
	Store *store.Store

	exported []bool
	idWidth  int
	logger   *slog.Logger
}

// New builds an ensemble of size cases from the factory. Each case is named
// <name>_<id> and rooted at <rootDir>/cases/<id>, with ids zero-padded to a
// uniform width.
func New(name, rootDir string, size int, factory Factory, logger *slog.Logger) (*Ensemble, error) {
	if size <= 0 {
		return nil, fmt.Errorf("ensemble size = %d, want positive", size)
	}
	if factory == nil {
		return nil, errors.New("ensemble factory must be non-nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	e := &Ensemble{
		Name:     name,
		RootDir:  rootDir,
		Cases:    make([]*simcase.Case, size),
		exported: make([]bool, size),
		idWidth:  idWidth(size),
		logger:   logger,
	}
	for i := 0; i < size; i++ {
		c := factory(i)
		if c == nil {
			return nil, fmt.Errorf("factory returned nil for case %d", i)
		}
		id := e.CaseID(i)
		c.Name = name + "_" + id
		c.RootDir = filepath.Join(rootDir, CasesDirLocal, id)
		e.Cases[i] = c
	}
	return e, nil
}

// LoadState restores job ids and export flags recorded by earlier
// invocations, so a freshly built ensemble resumes where the store left off.
// Cases the store has never seen are left untouched.
func (e *Ensemble) LoadState(ctx context.Context) error {
	if e.Store == nil {
		return nil
	}
	for i, c := range e.Cases {
		rec, err := e.Store.GetByCaseID(ctx, c.Name)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load state for case %s: %w", c.Name, err)
		}
		if rec.JobID != 0 {
			c.JobID = rec.JobID
		}
		e.exported[i] = rec.Exported
	}
	return nil
}

// Size returns the number of cases.
func (e *Ensemble) Size() int { return len(e.Cases) }

// CaseID formats the zero-padded id of case i.
func (e *Ensemble) CaseID(i int) string {
	return fmt.Sprintf("%0*d", e.idWidth, i)
}

// ExportDir returns the directory receiving exported artifacts and
// statistics.
func (e *Ensemble) ExportDir() string {
	return filepath.Join(e.RootDir, ExportDirLocal)
}

func idWidth(size int) int {
	w := len(strconv.Itoa(size - 1))
	if w < 1 {
		w = 1
	}
	return w
}

// allIndices expands a nil selection to every case.
func (e *Ensemble) allIndices(indices []int) []int {
	if indices != nil {
		return indices
	}
	all := make([]int, e.Size())
	for i := range all {
		all[i] = i
	}
	return all
}

// lock takes the ensemble-wide file lock, guarding against two processes
// mutating the same root.
func (e *Ensemble) lock() (*flock.Flock, error) {
	if err := os.MkdirAll(e.RootDir, 0o755); err != nil {
		return nil, fmt.Errorf("create ensemble root: %w", err)
	}
	fl := flock.New(filepath.Join(e.RootDir, lockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock ensemble root: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("ensemble root %s is locked by another process", e.RootDir)
	}
	return fl, nil
}

// Write lays out the selected cases on disk in parallel. A nil selection
// writes every case.
func (e *Ensemble) Write(ctx context.Context, indices []int) error {
	fl, err := e.lock()
	if err != nil {
		return err
	}
	defer func() { _ = fl.Unlock() }()

	indices = e.allIndices(indices)

	job := psg.NewJob(ctx)
	defer job.Cancel()
	pool := psg.NewTaskPool(job, runtime.GOMAXPROCS(0))

	var errs []error
	gather := psg.NewGather(func(_ context.Context, index int, err error) error {
		if err != nil {
			errs = append(errs, fmt.Errorf("case %s: %w", e.CaseID(index), err))
		}
		return nil
	})

	for _, i := range indices {
		i := i
		c := e.Cases[i]
		if err := gather.Scatter(ctx, pool, func(context.Context) (int, error) {
			return i, c.Write()
		}); err != nil {
			return err
		}
	}
	if err := job.GatherAll(ctx); err != nil {
		return err
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	e.logger.Info("ensemble written",
		slog.String("ensemble", e.Name),
		slog.Int("cases", len(indices)))

	if e.Store != nil {
		for _, i := range indices {
			id := e.Cases[i].Name
			if _, err := e.Store.GetByCaseID(ctx, id); errors.Is(err, store.ErrNotFound) {
				if _, err := e.Store.NewCase(ctx, id); err != nil {
					return err
				}
			}
			if err := e.Store.SetStatus(ctx, id, store.StatusWritten, ""); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run submits the selected cases to the scheduler. A nil selection submits
// every case.
func (e *Ensemble) Run(ctx context.Context, client *scheduler.Client, indices []int) error {
	for _, i := range e.allIndices(indices) {
		c := e.Cases[i]
		if err := c.Submit(ctx, client); err != nil {
			return err
		}
		if e.Store != nil {
			if err := e.Store.SetJobID(ctx, c.Name, c.JobID); err != nil {
				return err
			}
		}
	}
	return nil
}
