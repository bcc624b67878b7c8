package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadimport-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by the store. pgxmock satisfies
// it in unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name         TEXT NOT NULL,
	email        TEXT NOT NULL,
	phone        TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT '',
	organization TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS lead_sources (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS lead_statuses (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS import_runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	file_name   TEXT NOT NULL,
	backend     TEXT NOT NULL,
	total_rows  INTEGER NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	summary     JSONB,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
CREATE INDEX IF NOT EXISTS idx_import_runs_status ON import_runs(status);
CREATE INDEX IF NOT EXISTS idx_import_runs_started_at ON import_runs(started_at);

INSERT INTO lead_sources (id, name) VALUES
	('src_website', 'website'),
	('src_referral', 'referral'),
	('src_ads', 'ads'),
	('src_csv_import', 'csv_import')
ON CONFLICT (id) DO NOTHING;

INSERT INTO lead_statuses (id, name) VALUES
	('sts_new', 'New'),
	('sts_contacted', 'Contacted'),
	('sts_qualified', 'Qualified'),
	('sts_converted', 'Converted'),
	('sts_lost', 'Lost')
ON CONFLICT (id) DO NOTHING;
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateLead(ctx context.Context, c model.Candidate) (*model.Lead, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO leads (id, name, email, phone, source, status, organization, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, c.Name, c.Email, c.Phone, c.Source, c.Status, c.Organization, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert lead")
	}

	return &model.Lead{
		ID:           id,
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		Source:       c.Source,
		Status:       c.Status,
		Organization: c.Organization,
		CreatedAt:    now,
	}, nil
}

func (s *PostgresStore) ListSources(ctx context.Context) ([]model.LeadSource, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM lead_sources ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sources")
	}
	defer rows.Close()

	var sources []model.LeadSource
	for rows.Next() {
		var src model.LeadSource
		if err := rows.Scan(&src.ID, &src.Name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan source")
		}
		sources = append(sources, src)
	}
	return sources, eris.Wrap(rows.Err(), "postgres: list sources iterate")
}

func (s *PostgresStore) ListStatuses(ctx context.Context) ([]model.LeadStatus, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM lead_statuses ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list statuses")
	}
	defer rows.Close()

	var statuses []model.LeadStatus
	for rows.Next() {
		var st model.LeadStatus
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan status")
		}
		statuses = append(statuses, st)
	}
	return statuses, eris.Wrap(rows.Err(), "postgres: list statuses iterate")
}

func (s *PostgresStore) CreateImportRun(ctx context.Context, fileName, backend string, totalRows int) (*model.ImportRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO import_runs (id, file_name, backend, total_rows, status, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, fileName, backend, totalRows, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert import run")
	}

	return &model.ImportRun{
		ID:        id,
		FileName:  fileName,
		Backend:   backend,
		TotalRows: totalRows,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteImportRun(ctx context.Context, runID string, status model.RunStatus, summary *model.ImportSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE import_runs SET status = $1, summary = $2, finished_at = $3 WHERE id = $4`,
		string(status), summaryJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete import run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: import run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) GetImportRun(ctx context.Context, runID string) (*model.ImportRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, file_name, backend, total_rows, status, summary, started_at, finished_at
		 FROM import_runs WHERE id = $1`,
		runID,
	)
	r, err := scanPgImportRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(err, "postgres: get import run %s", runID)
	}
	return r, err
}

func (s *PostgresStore) ListImportRuns(ctx context.Context, filter RunFilter) ([]model.ImportRun, error) {
	query := `SELECT id, file_name, backend, total_rows, status, summary, started_at, finished_at
	          FROM import_runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.Backend != "" {
		args = append(args, filter.Backend)
		query += ` AND backend = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list import runs")
	}
	defer rows.Close()

	var runs []model.ImportRun
	for rows.Next() {
		r, err := scanPgImportRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list import runs iterate")
}

func scanPgImportRun(row pgx.Row) (*model.ImportRun, error) {
	var r model.ImportRun
	var summaryJSON []byte
	var finishedAt *time.Time

	err := row.Scan(&r.ID, &r.FileName, &r.Backend, &r.TotalRows, &r.Status, &summaryJSON, &r.StartedAt, &finishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan import run")
	}

	if len(summaryJSON) > 0 {
		var summary model.ImportSummary
		if err := json.Unmarshal(summaryJSON, &summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
		r.Summary = &summary
	}
	r.FinishedAt = finishedAt
	return &r, nil
}

