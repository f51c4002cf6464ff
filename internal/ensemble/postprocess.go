package ensemble

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	psg "github.com/petenewcomb/psg-go"

	"fireline/internal/logging"
	"fireline/internal/store"
)

// caseStatus is the outcome of one post-processing pass over a case.
type caseStatus int

const (
	statusIgnitionFailed caseStatus = iota + 1
	statusNotDoneYet
	statusDone
)

// PostProcessOptions tunes the polling loop.
type PostProcessOptions struct {
	// Indices selects cases; nil means all.
	Indices []int
	// Attempts is the number of polling passes; at least one runs.
	Attempts int
	// Pause separates passes that left cases unresolved.
	Pause time.Duration
	// Concurrency caps parallel case processing; 0 means GOMAXPROCS.
	Concurrency int
}

// PostProcess harvests finished cases and exports their artifacts, polling
// up to Attempts times. Harvest errors are recorded against the failing case
// without aborting its siblings. PostProcess returns the ids of cases that
// remained unresolved: those that failed to ignite, those still running, and
// those whose harvest errored.
func (e *Ensemble) PostProcess(ctx context.Context, opts PostProcessOptions) ([]string, error) {
	fl, err := e.lock()
	if err != nil {
		return nil, err
	}
	defer func() { _ = fl.Unlock() }()

	indices := e.allIndices(opts.Indices)
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	var ignitionFailed, notDoneYet, failed []string
	for attempt := 0; attempt < attempts; attempt++ {
		e.logger.Info("post-process attempt",
			slog.String("ensemble", e.Name),
			slog.Int("attempt", attempt))

		var pending []int
		for _, i := range indices {
			if !e.exported[i] {
				pending = append(pending, i)
			}
		}
		if len(pending) == 0 {
			return nil, nil
		}

		results, failures, err := e.postProcessBatch(ctx, pending, concurrency)
		if err != nil {
			return nil, err
		}

		ignitionFailed = ignitionFailed[:0]
		notDoneYet = notDoneYet[:0]
		failed = failed[:0]
		for _, i := range pending {
			if caseErr := failures[i]; caseErr != nil {
				e.logger.Error("case harvest failed",
					slog.String("ensemble", e.Name),
					slog.String("case", e.CaseID(i)),
					logging.Error(caseErr))
				failed = append(failed, e.CaseID(i))
				if err := e.recordFailure(ctx, i, caseErr); err != nil {
					return nil, err
				}
				continue
			}
			status := results[i]
			e.exported[i] = status == statusDone
			switch status {
			case statusIgnitionFailed:
				ignitionFailed = append(ignitionFailed, e.CaseID(i))
			case statusNotDoneYet:
				notDoneYet = append(notDoneYet, e.CaseID(i))
			}
			if err := e.recordStatus(ctx, i, status); err != nil {
				return nil, err
			}
		}

		if len(ignitionFailed) == 0 && len(notDoneYet) == 0 && len(failed) == 0 {
			break
		}
		e.logger.Warn("cases unresolved",
			slog.String("ensemble", e.Name),
			slog.Any("ignition_failed", ignitionFailed),
			slog.Any("not_done_yet", notDoneYet),
			slog.Any("failed", failed))

		if attempt < attempts-1 && opts.Pause > 0 {
			select {
			case <-time.After(opts.Pause):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	unresolved := append(ignitionFailed, notDoneYet...)
	return append(unresolved, failed...), nil
}

type postResult struct {
	index  int
	status caseStatus
	err    error
}

// postProcessBatch fans the pending cases over a bounded pool. Case-level
// errors travel inside postResult so one broken case cannot cancel the
// batch; the returned error covers pool failures only.
func (e *Ensemble) postProcessBatch(ctx context.Context, pending []int, concurrency int) (map[int]caseStatus, map[int]error, error) {
	job := psg.NewJob(ctx)
	defer job.Cancel()
	pool := psg.NewTaskPool(job, concurrency)

	results := make(map[int]caseStatus, len(pending))
	failures := make(map[int]error)
	gather := psg.NewGather(func(_ context.Context, r postResult, err error) error {
		if err != nil {
			return err
		}
		if r.err != nil {
			failures[r.index] = r.err
			return nil
		}
		results[r.index] = r.status
		return nil
	})

	for _, i := range pending {
		i := i
		if err := gather.Scatter(ctx, pool, func(context.Context) (postResult, error) {
			status, err := e.postProcessCase(i)
			return postResult{index: i, status: status, err: err}, nil
		}); err != nil {
			return nil, nil, err
		}
	}
	if err := job.GatherAll(ctx); err != nil {
		return nil, nil, err
	}
	return results, failures, nil
}

// postProcessCase advances one case: classify its state, then harvest and
// export if it finished.
func (e *Ensemble) postProcessCase(i int) (caseStatus, error) {
	c := e.Cases[i]

	failed, err := c.IgnitionFailed()
	if err != nil {
		return 0, err
	}
	if failed {
		return statusIgnitionFailed, nil
	}
	done, err := c.Done()
	if err != nil {
		return 0, err
	}
	if !done {
		return statusNotDoneYet, nil
	}

	if err := c.ReadOutput(); err != nil {
		return 0, err
	}
	if err := c.ComputeBurnMaps(); err != nil {
		return 0, err
	}
	if err := c.ExportData(filepath.Join(e.ExportDir(), c.Name)); err != nil {
		return 0, err
	}
	return statusDone, nil
}

func (e *Ensemble) recordFailure(ctx context.Context, i int, caseErr error) error {
	if e.Store == nil {
		return nil
	}
	return e.Store.SetStatus(ctx, e.Cases[i].Name, store.StatusFailed, caseErr.Error())
}

func (e *Ensemble) recordStatus(ctx context.Context, i int, status caseStatus) error {
	if e.Store == nil {
		return nil
	}
	id := e.Cases[i].Name
	switch status {
	case statusIgnitionFailed:
		return e.Store.SetStatus(ctx, id, store.StatusIgnitionFailed, "no ignition")
	case statusNotDoneYet:
		return e.Store.SetStatus(ctx, id, store.StatusRunning, "")
	case statusDone:
		return e.Store.SetExported(ctx, id, true)
	default:
		return nil
	}
}
