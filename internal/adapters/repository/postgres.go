package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/internal/domain/scoring"
	"github.com/okian/applyflow/pkg/logger"
)

// PostgresStore is a Store backed by a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	opts options
}

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}

// OpenPostgres connects to databaseURL, ensures the schema and returns a store
// that owns the pool.
func OpenPostgres(ctx context.Context, databaseURL string, opts ...Option) (*PostgresStore, error) {
	pool, err := NewPostgresPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return NewPostgresStore(pool, opts...), nil
}

// NewPostgresStore wraps an existing pool. Close closes the pool.
func NewPostgresStore(pool *pgxpool.Pool, opts ...Option) *PostgresStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &PostgresStore{pool: pool, opts: o}
}

// SaveJob implements Store.
func (s *PostgresStore) SaveJob(ctx context.Context, p model.Posting) (bool, error) {
	defer observe("save_job", time.Now())
	if p.ID == "" {
		return false, ErrEmptyID
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.opts.now()
	}
	skills := p.RequiredSkills
	if skills == nil {
		skills = []string{}
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, title, company, location, description, required_skills,
		                   required_years, source, source_url, remote, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Title, p.Company, p.Location, p.Description, skills,
		p.RequiredYears, p.Source, p.SourceURL, p.Remote, p.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert job %s: %w", p.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// SaveApplication implements Store.
func (s *PostgresStore) SaveApplication(ctx context.Context, jobID string, r scoring.Result) error {
	defer observe("save_application", time.Now())
	_, err := s.pool.Exec(ctx,
		`INSERT INTO applications (job_id, status, match_score, matched_skills,
		                           missing_skills, experience_gap, updated_at)
		 VALUES ($1, 'new', $2, $3, $4, $5, $6)
		 ON CONFLICT (job_id) DO UPDATE SET
		     match_score    = EXCLUDED.match_score,
		     matched_skills = EXCLUDED.matched_skills,
		     missing_skills = EXCLUDED.missing_skills,
		     experience_gap = EXCLUDED.experience_gap,
		     updated_at     = EXCLUDED.updated_at`,
		jobID, r.FinalScore, nonNil(r.MatchedSkills), nonNil(r.MissingSkills),
		r.ExperienceGap, s.opts.now(),
	)
	if err != nil {
		return fmt.Errorf("upsert application %s: %w", jobID, err)
	}
	return nil
}

// ListApplications implements Store.
func (s *PostgresStore) ListApplications(ctx context.Context) ([]model.ApplicationView, error) {
	defer observe("list_applications", time.Now())
	rows, err := s.pool.Query(ctx,
		`SELECT a.job_id, a.status, a.match_score, a.matched_skills, a.missing_skills,
		        a.experience_gap, a.notes, a.applied_at, a.updated_at,
		        j.title, j.company, j.location, j.source_url, j.remote
		 FROM applications a
		 JOIN jobs j ON j.id = a.job_id
		 ORDER BY a.match_score DESC, a.job_id`)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ApplicationView, error) {
		var v model.ApplicationView
		var status string
		err := row.Scan(
			&v.JobID, &status, &v.MatchScore, &v.MatchedSkills, &v.MissingSkills,
			&v.ExperienceGap, &v.Notes, &v.AppliedAt, &v.UpdatedAt,
			&v.Title, &v.Company, &v.Location, &v.SourceURL, &v.Remote,
		)
		v.Status = model.Status(status)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan applications: %w", err)
	}
	return out, nil
}

// UpdateStatus implements Store.
func (s *PostgresStore) UpdateStatus(ctx context.Context, jobID string, status model.Status, notes *string) error {
	defer observe("update_status", time.Now())
	if !status.Valid() {
		return fmt.Errorf("update %s: %w: %q", jobID, model.ErrInvalidStatus, status)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE applications SET
		     status     = $2,
		     notes      = COALESCE($3, notes),
		     applied_at = CASE WHEN $2 = 'applied' AND applied_at IS NULL THEN $4 ELSE applied_at END,
		     updated_at = $4
		 WHERE job_id = $1`,
		jobID, string(status), notes, s.opts.now(),
	)
	if err != nil {
		return fmt.Errorf("update application %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s: %w", jobID, ErrNotFound)
	}
	return nil
}

// CountJobs implements Store.
func (s *PostgresStore) CountJobs(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM jobs`)
}

// CountApplications implements Store.
func (s *PostgresStore) CountApplications(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM applications`)
}

func (s *PostgresStore) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	s.opts.log().Debug(context.Background(), "postgres pool closed")
	return nil
}

// Open picks the Store for databaseURL: in-memory when empty, SQLite for
// sqlite:// URLs and .db paths, Postgres otherwise.
func Open(ctx context.Context, databaseURL string, opts ...Option) (Store, error) {
	if databaseURL == "" {
		o := defaultOptions()
		for _, opt := range opts {
			opt(&o)
		}
		o.log().Info(ctx, "database_url is empty, using in-memory store")
		return NewMemoryStore(opts...), nil
	}
	if IsSQLiteURL(databaseURL) {
		store, err := OpenSQLite(ctx, databaseURL, opts...)
		if err != nil {
			return nil, err
		}
		store.opts.log().Info(ctx, "opened sqlite database", logger.String("path", store.path))
		return store, nil
	}
	store, err := OpenPostgres(ctx, databaseURL, opts...)
	if err != nil {
		return nil, err
	}
	store.opts.log().Info(ctx, "connected to postgres", logger.Int("max_conns", int(store.pool.Config().MaxConns)))
	return store, nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
