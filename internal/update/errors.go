package update

import (
	"errors"
	"fmt"
)

// Error kinds returned by the update pipeline. Stage errors wrap one of
// these so callers can classify failures with errors.Is.
var (
	ErrNetwork     = errors.New("network error")
	ErrVersionRead = errors.New("cannot read local version")
	ErrDownload    = errors.New("download failed")
	ErrExtract     = errors.New("extraction failed")
	ErrBackup      = errors.New("backup failed")
	ErrApply       = errors.New("apply failed")
	ErrNoBackup    = errors.New("no backup found")
)

// StageError records the state the orchestrator was in when a run failed.
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
