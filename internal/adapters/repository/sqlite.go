package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/internal/domain/scoring"
	"github.com/okian/applyflow/pkg/logger"
)

const sqliteScheme = "sqlite://"

const sqliteSchemaDDL = `
CREATE TABLE IF NOT EXISTS jobs (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	company         TEXT NOT NULL,
	location        TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	required_skills TEXT NOT NULL DEFAULT '[]',
	required_years  INTEGER NOT NULL DEFAULT 0,
	source          TEXT NOT NULL,
	source_url      TEXT NOT NULL DEFAULT '',
	remote          INTEGER NOT NULL DEFAULT 0,
	created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS applications (
	job_id         TEXT PRIMARY KEY REFERENCES jobs(id),
	status         TEXT NOT NULL DEFAULT 'new'
	               CHECK (status IN ('new','applied','phone_screen','technical','final_round','rejected','offer')),
	match_score    REAL NOT NULL DEFAULT 0,
	matched_skills TEXT NOT NULL DEFAULT '[]',
	missing_skills TEXT NOT NULL DEFAULT '[]',
	experience_gap INTEGER NOT NULL DEFAULT 0,
	notes          TEXT NOT NULL DEFAULT '',
	applied_at     TEXT,
	updated_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_applications_match_score ON applications (match_score DESC);
CREATE INDEX IF NOT EXISTS idx_jobs_company ON jobs (company);
`

// SQLiteStore is a file-backed Store for single-process deployments.
type SQLiteStore struct {
	db   *sql.DB
	path string
	opts options
}

// IsSQLiteURL reports whether databaseURL names a SQLite database: a
// sqlite:// URL, a file: URI, or a path ending in .db.
func IsSQLiteURL(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, sqliteScheme) ||
		strings.HasPrefix(databaseURL, "file:") ||
		strings.HasSuffix(databaseURL, ".db")
}

func sqlitePath(databaseURL string) string {
	path := strings.TrimPrefix(databaseURL, sqliteScheme)
	path = strings.TrimPrefix(path, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

// OpenSQLite opens (creating when missing) the database file named by
// databaseURL and ensures the schema.
func OpenSQLite(ctx context.Context, databaseURL string, opts ...Option) (*SQLiteStore, error) {
	path := sqlitePath(databaseURL)
	if path == "" {
		return nil, fmt.Errorf("sqlite: empty path in %q", databaseURL)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create %s: %w", dir, err)
		}
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	// One writer keeps SaveJob's insert-or-ignore serialized.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping failed: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrMigration, err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &SQLiteStore{db: db, path: path, opts: o}, nil
}

// SaveJob implements Store.
func (s *SQLiteStore) SaveJob(ctx context.Context, p model.Posting) (bool, error) {
	defer observe("save_job", time.Now())
	if p.ID == "" {
		return false, ErrEmptyID
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.opts.now()
	}
	skills, err := json.Marshal(nonNil(p.RequiredSkills))
	if err != nil {
		return false, fmt.Errorf("encode skills %s: %w", p.ID, err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, title, company, location, description, required_skills,
		                   required_years, source, source_url, remote, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Title, p.Company, p.Location, p.Description, string(skills),
		p.RequiredYears, p.Source, p.SourceURL, p.Remote, formatTime(p.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert job %s: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert job %s: %w", p.ID, err)
	}
	return n == 1, nil
}

// SaveApplication implements Store.
func (s *SQLiteStore) SaveApplication(ctx context.Context, jobID string, r scoring.Result) error {
	defer observe("save_application", time.Now())
	matched, err := json.Marshal(nonNil(r.MatchedSkills))
	if err != nil {
		return fmt.Errorf("encode matched skills %s: %w", jobID, err)
	}
	missing, err := json.Marshal(nonNil(r.MissingSkills))
	if err != nil {
		return fmt.Errorf("encode missing skills %s: %w", jobID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO applications (job_id, status, match_score, matched_skills,
		                           missing_skills, experience_gap, updated_at)
		 VALUES (?, 'new', ?, ?, ?, ?, ?)
		 ON CONFLICT (job_id) DO UPDATE SET
		     match_score    = excluded.match_score,
		     matched_skills = excluded.matched_skills,
		     missing_skills = excluded.missing_skills,
		     experience_gap = excluded.experience_gap,
		     updated_at     = excluded.updated_at`,
		jobID, r.FinalScore, string(matched), string(missing),
		r.ExperienceGap, formatTime(s.opts.now()),
	)
	if err != nil {
		return fmt.Errorf("upsert application %s: %w", jobID, err)
	}
	return nil
}

// ListApplications implements Store.
func (s *SQLiteStore) ListApplications(ctx context.Context) ([]model.ApplicationView, error) {
	defer observe("list_applications", time.Now())
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.job_id, a.status, a.match_score, a.matched_skills, a.missing_skills,
		        a.experience_gap, a.notes, a.applied_at, a.updated_at,
		        j.title, j.company, j.location, j.source_url, j.remote
		 FROM applications a
		 JOIN jobs j ON j.id = a.job_id
		 ORDER BY a.match_score DESC, a.job_id`)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	out := []model.ApplicationView{}
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan applications: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan applications: %w", err)
	}
	return out, nil
}

func scanView(rows *sql.Rows) (model.ApplicationView, error) {
	var (
		v                model.ApplicationView
		status           string
		matched, missing string
		appliedAt        sql.NullString
		updatedAt        string
	)
	err := rows.Scan(
		&v.JobID, &status, &v.MatchScore, &matched, &missing,
		&v.ExperienceGap, &v.Notes, &appliedAt, &updatedAt,
		&v.Title, &v.Company, &v.Location, &v.SourceURL, &v.Remote,
	)
	if err != nil {
		return v, err
	}
	v.Status = model.Status(status)
	if err := json.Unmarshal([]byte(matched), &v.MatchedSkills); err != nil {
		return v, fmt.Errorf("decode matched skills: %w", err)
	}
	if err := json.Unmarshal([]byte(missing), &v.MissingSkills); err != nil {
		return v, fmt.Errorf("decode missing skills: %w", err)
	}
	if v.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return v, err
	}
	if appliedAt.Valid {
		t, err := parseTime(appliedAt.String)
		if err != nil {
			return v, err
		}
		v.AppliedAt = &t
	}
	return v, nil
}

// UpdateStatus implements Store.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, jobID string, status model.Status, notes *string) error {
	defer observe("update_status", time.Now())
	if !status.Valid() {
		return fmt.Errorf("update %s: %w: %q", jobID, model.ErrInvalidStatus, status)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE applications SET
		     status     = ?2,
		     notes      = COALESCE(?3, notes),
		     applied_at = CASE WHEN ?2 = 'applied' AND applied_at IS NULL THEN ?4 ELSE applied_at END,
		     updated_at = ?4
		 WHERE job_id = ?1`,
		jobID, string(status), notes, formatTime(s.opts.now()),
	)
	if err != nil {
		return fmt.Errorf("update application %s: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application %s: %w", jobID, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s: %w", jobID, ErrNotFound)
	}
	return nil
}

// CountJobs implements Store.
func (s *SQLiteStore) CountJobs(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM jobs`)
}

// CountApplications implements Store.
func (s *SQLiteStore) CountApplications(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM applications`)
}

func (s *SQLiteStore) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Ping implements Store.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite %s: %w", s.path, err)
	}
	s.opts.log().Debug(context.Background(), "sqlite database closed", logger.String("path", s.path))
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
