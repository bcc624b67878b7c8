package importer

import (
	"context"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadimport-cli/internal/model"
)

// Failure reasons recorded in the import summary. Validation failures and
// store rejections are the same shape but different text, so an operator
// can tell local validation from store-side rejection from transport
// failure.
const (
	ReasonMissingRequired = "Missing name or email"
	ReasonCreateFailed    = "Failed to create record"
	ReasonAPIError        = "API error"
)

// emptyNamePlaceholder stands in for the candidate name in error rows
// where the name itself was blank.
const emptyNamePlaceholder = "(empty)"

// CreateFunc creates one lead in the backing record store. Returning a nil
// lead with a nil error is treated as a store-side rejection.
type CreateFunc func(ctx context.Context, c model.Candidate) (*model.Lead, error)

// ExecOptions configures optional per-row callbacks of the executor.
type ExecOptions struct {
	// Progress receives round(100*processed/total) after every row,
	// regardless of outcome. Values are monotonically non-decreasing.
	Progress func(percent int)
	// OnOutcome receives every per-row outcome as it is decided.
	OnOutcome func(model.Outcome)
}

// Execute runs the import strictly sequentially, one row at a time in
// input order. Rows failing the required-field check are recorded without
// calling create; create errors and empty create results are recorded as
// failures. One row's failure never prevents later rows from being
// attempted, so SuccessCount+FailureCount always equals len(rows).
//
/// Cancellation is checked once per row boundary: on a cancelled context
// Execute returns the partial summary for the rows already processed
// together with the context error. Per-row failures are never escalated.
func Execute(ctx context.Context, rows []ProjectedRow, create CreateFunc, opts ExecOptions) (*model.ImportSummary, error) {
	summary := &model.ImportSummary{}
	total := len(rows)

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return summary, eris.Wrap(err, "importer: import cancelled")
		}

		outcome := importOne(ctx, row, create)
		if outcome.Kind == model.OutcomeCreated {
			summary.SuccessCount++
		} else {
			summary.FailureCount++
			summary.Errors = append(summary.Errors, model.RowError{
				Row:    outcome.Row,
				Name:   outcome.Name,
				Reason: outcome.Reason,
			})
		}

		if opts.OnOutcome != nil {
			opts.OnOutcome(outcome)
		}
		if opts.Progress != nil {
			opts.Progress(int(math.Round(float64(i+1) / float64(total) * 100)))
		}
	}

	return summary, nil
}

// importOne classifies a single row: validation failure before any external
// call, then created / rejected / errored from the create call itself.
func importOne(ctx context.Context, row ProjectedRow, create CreateFunc) model.Outcome {
	c := row.Candidate

	if !c.Valid() {
		name := c.Name
		if name == "" {
			name = emptyNamePlaceholder
		}
		return model.Outcome{Kind: model.OutcomeSkipped, Row: row.Line, Name: name, Reason: ReasonMissingRequired}
	}

	lead, err := create(ctx, c)
	switch {
	case err != nil:
		return model.Outcome{Kind: model.OutcomeFailed, Row: row.Line, Name: c.Name, Reason: ReasonAPIError}
	case lead == nil:
		return model.Outcome{Kind: model.OutcomeFailed, Row: row.Line, Name: c.Name, Reason: ReasonCreateFailed}
	default:
		return model.Outcome{Kind: model.OutcomeCreated, Row: row.Line, Name: c.Name}
	}
}
