// Package model defines the records and run results shared across packages.
package model

import "time"

// RunStatus represents the state of a fill run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusPartial  RunStatus = "partial"
	RunStatusFailed   RunStatus = "failed"
)

// PeriodStatus is the outcome for one reporting period (one year sheet).
type PeriodStatus string

const (
	PeriodStatusFilled  PeriodStatus = "filled"
	PeriodStatusSkipped PeriodStatus = "skipped"
	PeriodStatusFailed  PeriodStatus = "failed"
)

// Run is one invocation of the fill command.
type Run struct {
	ID        string         `json:"id"`
	Template  string         `json:"template"`
	Output    string         `json:"output"`
	DryRun    bool           `json:"dry_run"`
	Status    RunStatus      `json:"status"`
	Periods   []PeriodResult `json:"periods,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// PeriodResult summarizes how one round file was written into its year sheet.
type PeriodResult struct {
	Round        int          `json:"round"`
	SourceFile   string       `json:"source_file"`
	Sheet        string       `json:"sheet"`
	Status       PeriodStatus `json:"status"`
	HeaderRow    int          `json:"header_row,omitempty"`
	MetricCol    int          `json:"metric_col,omitempty"`
	Entities     int          `json:"entities,omitempty"`
	Records      int          `json:"records"`
	Duplicates   int          `json:"duplicates"`
	Written      int          `json:"written"`
	Unresolved   int          `json:"unresolved"`
	EmptySources []string     `json:"empty_sources,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// Summarize derives the run status from its periods: complete when none
// failed, failed when all did, partial otherwise.
func Summarize(periods []PeriodResult) RunStatus {
	failed := 0
	for _, p := range periods {
		if p.Status == PeriodStatusFailed {
			failed++
		}
	}
	switch {
	case failed == 0:
		return RunStatusComplete
	case failed == len(periods):
		return RunStatusFailed
	default:
		return RunStatusPartial
	}
}
