package store

import "time"

// Status is the lifecycle of an ensemble case.
type Status string

const (
	StatusPending        Status = "pending"
	StatusWritten        Status = "written"
	StatusSubmitted      Status = "submitted"
	StatusRunning        Status = "running"
	StatusIgnitionFailed Status = "ignition_failed"
	StatusDone           Status = "done"
	StatusExported       Status = "exported"
	StatusFailed         Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusWritten,
	StatusSubmitted,
	StatusRunning,
	StatusIgnitionFailed,
	StatusDone,
	StatusExported,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Valid reports whether the status is a known lifecycle value.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Terminal reports whether no further processing will move the case.
func (s Status) Terminal() bool {
	switch s {
	case StatusIgnitionFailed, StatusExported, StatusFailed:
		return true
	default:
		return false
	}
}

// CaseRecord is one case's persisted state.
type CaseRecord struct {
	ID           int64
	CaseID       string
	RunID        string
	Status       Status
	JobID        int
	Exported     bool
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
