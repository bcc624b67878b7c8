package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadimport-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	email        TEXT NOT NULL,
	phone        TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT '',
	organization TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
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
	id          TEXT PRIMARY KEY,
	file_name   TEXT NOT NULL,
	backend     TEXT NOT NULL,
	total_rows  INTEGER NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	summary     TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
CREATE INDEX IF NOT EXISTS idx_import_runs_status ON import_runs(status);
CREATE INDEX IF NOT EXISTS idx_import_runs_started_at ON import_runs(started_at);

INSERT OR IGNORE INTO lead_sources (id, name) VALUES
	('src_website', 'website'),
	('src_referral', 'referral'),
	('src_ads', 'ads'),
	('src_csv_import', 'csv_import');

INSERT OR IGNORE INTO lead_statuses (id, name) VALUES
	('sts_new', 'New'),
	('sts_contacted', 'Contacted'),
	('sts_qualified', 'Qualified'),
	('sts_converted', 'Converted'),
	('sts_lost', 'Lost');
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateLead(ctx context.Context, c model.Candidate) (*model.Lead, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, name, email, phone, source, status, organization, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, c.Name, c.Email, c.Phone, c.Source, c.Status, c.Organization, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert lead")
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

func (s *SQLiteStore) ListSources(ctx context.Context) ([]model.LeadSource, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM lead_sources ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sources")
	}
	defer rows.Close()

	var sources []model.LeadSource
	for rows.Next() {
		var src model.LeadSource
		if err := rows.Scan(&src.ID, &src.Name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan source")
		}
		sources = append(sources, src)
	}
	return sources, eris.Wrap(rows.Err(), "sqlite: list sources iterate")
}

func (s *SQLiteStore) ListStatuses(ctx context.Context) ([]model.LeadStatus, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM lead_statuses ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list statuses")
	}
	defer rows.Close()

	var statuses []model.LeadStatus
	for rows.Next() {
		var st model.LeadStatus
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan status")
		}
		statuses = append(statuses, st)
	}
	return statuses, eris.Wrap(rows.Err(), "sqlite: list statuses iterate")
}

func (s *SQLiteStore) CreateImportRun(ctx context.Context, fileName, backend string, totalRows int) (*model.ImportRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_runs (id, file_name, backend, total_rows, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, fileName, backend, totalRows, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert import run")
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

func (s *SQLiteStore) CompleteImportRun(ctx context.Context, runID string, status model.RunStatus, summary *model.ImportSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE import_runs SET status = ?, summary = ?, finished_at = ? WHERE id = ?`,
		string(status), string(summaryJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete import run %s", runID)
	}
	return checkRowsAffected(res, "import run", runID)
}

func (s *SQLiteStore) GetImportRun(ctx context.Context, runID string) (*model.ImportRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, file_name, backend, total_rows, status, summary, started_at, finished_at
		 FROM import_runs WHERE id = ?`,
		runID,
	)
	return scanImportRun(row)
}

func (s *SQLiteStore) ListImportRuns(ctx context.Context, filter RunFilter) ([]model.ImportRun, error) {
	query := `SELECT id, file_name, backend, total_rows, status, summary, started_at, finished_at
	          FROM import_runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Backend != "" {
		query += ` AND backend = ?`
		args = append(args, filter.Backend)
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list import runs")
	}
	defer rows.Close()

	var runs []model.ImportRun
	for rows.Next() {
		r, err := scanImportRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list import runs iterate")
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanImportRun(row scanner) (*model.ImportRun, error) {
	var r model.ImportRun
	var summaryJSON sql.NullString
	var finishedAt sql.NullTime

	err := row.Scan(&r.ID, &r.FileName, &r.Backend, &r.TotalRows, &r.Status, &summaryJSON, &r.StartedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(err, "sqlite: import run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan import run")
	}

	if summaryJSON.Valid && summaryJSON.String != "" {
		var summary model.ImportSummary
		if err := json.Unmarshal([]byte(summaryJSON.String), &summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
		r.Summary = &summary
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		r.FinishedAt = &t
	}
	return &r, nil
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", kind, id)
	}
	if n == 0 {
		return eris.Errorf("sqlite: %s %s not found", kind, id)
	}
	return nil
}
