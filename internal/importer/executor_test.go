package importer

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadimport-cli/internal/model"
)

func okCreate(_ context.Context, c model.Candidate) (*model.Lead, error) {
	return &model.Lead{ID: "1", Name: c.Name, Email: c.Email}, nil
}

func candidates(names ...string) []ProjectedRow {
	rows := make([]ProjectedRow, len(names))
	for i, n := range names {
		rows[i] = ProjectedRow{
			Line:      i + 2,
			Candidate: model.Candidate{Name: n, Email: n + "@x.com"},
		}
	}
	return rows
}

func TestExecuteAllSucceed(t *testing.T) {
	t.Parallel()

	summary, err := Execute(context.Background(), candidates("John Smith", "Jane Doe"), okCreate, ExecOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 0, summary.FailureCount)
	assert.Empty(t, summary.Errors)
}

func TestExecuteValidationFailureSkipsCreate(t *testing.T) {
	t.Parallel()

	rows := []ProjectedRow{
		{Line: 2, Candidate: model.Candidate{Name: "", Email: "bad@x.com"}},
		{Line: 3, Candidate: model.Candidate{Name: "Joe", Email: "joe@x.com"}},
	}

	var createCalls int
	create := func(ctx context.Context, c model.Candidate) (*model.Lead, error) {
		createCalls++
		return okCreate(ctx, c)
	}

	summary, err := Execute(context.Background(), rows, create, ExecOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, createCalls, "create must not be called for invalid rows")
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailureCount)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, model.RowError{Row: 2, Name: "(empty)", Reason: ReasonMissingRequired}, summary.Errors[0])
}

func TestExecuteNeverShortCircuits(t *testing.T) {
	t.Parallel()

	rows := candidates("a", "b", "c", "d", "e")
	var attempted []string
	create := func(_ context.Context, c model.Candidate) (*model.Lead, error) {
		attempted = append(attempted, c.Name)
		if c.Name == "b" {
			return nil, eris.New("boom")
		}
		return &model.Lead{ID: c.Name}, nil
	}

	summary, err := Execute(context.Background(), rows, create, ExecOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, attempted)
	assert.Equal(t, 4, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailureCount)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, model.RowError{Row: 3, Name: "b", Reason: ReasonAPIError}, summary.Errors[0])
}

func TestExecuteNilLeadIsCreateFailure(t *testing.T) {
	t.Parallel()

	create := func(_ context.Context, _ model.Candidate) (*model.Lead, error) {
		return nil, nil
	}

	summary, err := Execute(context.Background(), candidates("Jane"), create, ExecOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FailureCount)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, ReasonCreateFailed, summary.Errors[0].Reason)
}

func TestExecuteTotalAccounting(t *testing.T) {
	t.Parallel()

	rows := candidates("a", "b", "c", "d", "e", "f", "g")
	rows[1].Candidate.Email = ""
	rows[4].Candidate.Name = ""

	create := func(_ context.Context, c model.Candidate) (*model.Lead, error) {
		if c.Name == "d" {
			return nil, eris.New("transport down")
		}
		return &model.Lead{ID: c.Name}, nil
	}

	summary, err := Execute(context.Background(), rows, create, ExecOptions{})
	require.NoError(t, err)
	assert.Equal(t, len(rows), summary.Total())
	assert.Len(t, summary.Errors, summary.FailureCount)
}

func TestExecuteProgressMonotonic(t *testing.T) {
	t.Parallel()

	var seen []int
	opts := ExecOptions{Progress: func(p int) { seen = append(seen, p) }}

	_, err := Execute(context.Background(), candidates("a", "b", "c"), okCreate, opts)
	require.NoError(t, err)

	assert.Equal(t, []int{33, 67, 100}, seen)
}

func TestExecuteCancellationKeepsPartialSummary(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	rows := candidates("a", "b", "c", "d")

	create := func(_ context.Context, c model.Candidate) (*model.Lead, error) {
		if c.Name == "b" {
			cancel() // takes effect at the next row boundary
		}
		return &model.Lead{ID: c.Name}, nil
	}

	summary, err := Execute(ctx, rows, create, ExecOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 0, summary.FailureCount)
}

func TestExecuteScenarioB(t *testing.T) {
	t.Parallel()

	table, err := Parse("name,email\n,bad@x.com\nJoe,joe@x.com")
	require.NoError(t, err)

	mapping := InferMapping(table.Headers)
	rows := Project(table, mapping, Defaults{Source: "csv_import", Status: "New"})

	summary, err := Execute(context.Background(), rows, okCreate, ExecOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailureCount)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, model.RowError{Row: 2, Name: "(empty)", Reason: ReasonMissingRequired}, summary.Errors[0])
}

func TestExecuteScenarioA(t *testing.T) {
	t.Parallel()

	table, err := Parse("name,email\nJohn Smith,john@x.com\nJane Doe,jane@x.com")
	require.NoError(t, err)

	rows := Project(table, InferMapping(table.Headers), Defaults{})
	summary, err := Execute(context.Background(), rows, okCreate, ExecOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 0, summary.FailureCount)
	assert.Empty(t, summary.Errors)
}

func TestExecuteOutcomeCallback(t *testing.T) {
	t.Parallel()

	var kinds []model.OutcomeKind
	opts := ExecOptions{OnOutcome: func(o model.Outcome) { kinds = append(kinds, o.Kind) }}

	rows := candidates("a", "b")
	rows[1].Candidate.Email = ""

	_, err := Execute(context.Background(), rows, okCreate, opts)
	require.NoError(t, err)
	assert.Equal(t, []model.OutcomeKind{model.OutcomeCreated, model.OutcomeSkipped}, kinds)
}
