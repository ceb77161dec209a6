package entities

import "errors"

// Failure kinds of a validation run. Callers match them with errors.Is;
// none of them is retried.
var (
	// ErrDataSourceUnavailable means the database could not be opened or reached.
	ErrDataSourceUnavailable = errors.New("data source unavailable")
	// ErrQueryFailure means a check query failed, usually a schema mismatch.
	ErrQueryFailure = errors.New("query failed")
	// ErrOutputWrite means the report could not be written to its path.
	ErrOutputWrite = errors.New("report write failed")
)
