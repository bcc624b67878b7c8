// Package store persists leads, reference data, and import run history.
package store

import (
	"context"

	"github.com/sells-group/leadimport-cli/internal/model"
)

// RunFilter specifies criteria for listing import runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	Backend string          `json:"backend,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the import pipeline. It
// doubles as the default record-creation collaborator: CreateLead is the
// per-row create operation the executor invokes.
type Store interface {
	// Leads
	CreateLead(ctx context.Context, c model.Candidate) (*model.Lead, error)

	// Reference data for default-value pickers
	ListSources(ctx context.Context) ([]model.LeadSource, error)
	ListStatuses(ctx context.Context) ([]model.LeadStatus, error)

	// Import run history
	CreateImportRun(ctx context.Context, fileName, backend string, totalRows int) (*model.ImportRun, error)
	CompleteImportRun(ctx context.Context, runID string, status model.RunStatus, summary *model.ImportSummary) error
	GetImportRun(ctx context.Context, runID string) (*model.ImportRun, error)
	ListImportRuns(ctx context.Context, filter RunFilter) ([]model.ImportRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
