package deploy

import "errors"

var (
	// ErrMissingRequirements indicates required tools are absent.
	ErrMissingRequirements = errors.New("missing requirements")

	// ErrBackupFailed indicates the pre-overwrite backup failed and the deploy was aborted.
	ErrBackupFailed = errors.New("backup failed")

	// ErrInterrupted indicates a batch stopped because its context was cancelled.
	ErrInterrupted = errors.New("interrupted")
)
