package model

import "time"

// RunStatus represents the current state of an import run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusAborted  RunStatus = "aborted"
)

// OutcomeKind classifies the result of attempting one row.
type OutcomeKind string

const (
	OutcomeCreated OutcomeKind = "created"
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeFailed  OutcomeKind = "failed"
)

// Outcome is the per-row result of an import attempt. Row is the 1-based
// source line number (the header line is row 1). Name is the candidate's
// name, or "(empty)" when the name itself was blank.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Row    int         `json:"row"`
	Name   string      `json:"name"`
	Reason string      `json:"reason,omitempty"`
}

// RowError describes one non-created row with enough context for an
// operator to act on: the source line number, the candidate's name, and
// the failure reason.
type RowError struct {
	Row    int    `json:"row"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImportSummary is the final accounting of an import run. SuccessCount
// plus FailureCount always equals the number of candidates fed in, and
// Errors holds exactly one entry per non-created outcome, in row order.
type ImportSummary struct {
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	Errors       []RowError `json:"errors"`
}

// Total returns the number of candidates accounted for.
func (s *ImportSummary) Total() int {
	return s.SuccessCount + s.FailureCount
}

// ImportRun is a persisted record of one import run against a backend.
type ImportRun struct {
	ID         string         `json:"id"`
	FileName   string         `json:"file_name"`
	Backend    string         `json:"backend"`
	TotalRows  int            `json:"total_rows"`
	Status     RunStatus      `json:"status"`
	Summary    *ImportSummary `json:"summary,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}
