package model

import "time"

// RunSummary captures metrics from a single batch scoring run.
type RunSummary struct {
	RunID           string
	ModelName       string
	InputPath       string
	InputSHA256     string
	RowsRead        int64
	RowsScored      int64
	RowsSkipped     int64
	RowsPersisted   int64
	DurationScore   time.Duration
	DurationPersist time.Duration
	DurationTotal   time.Duration
}
