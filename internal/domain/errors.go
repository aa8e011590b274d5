package domain

import (
	"errors"
	"fmt"
)

// ErrNoCurrentDataset reports a finalize attempt with nothing to seal.
var ErrNoCurrentDataset = errors.New("no current dataset")

// UpstreamError is a failed provider fetch (bad status or malformed
// payload). Fatal to an update run; the updater retries only through an
// explicitly configured retry policy.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StorageError is a failed dataset read or write. Fatal; no partial-write
// recovery is attempted.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ValidationError reports a dataset or argument failing shape checks.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation: %s: %v", e.Reason, e.Err)
	}
	return "validation: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }
