package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS jobs (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	company         TEXT NOT NULL,
	location        TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	required_skills JSONB NOT NULL DEFAULT '[]'::jsonb,
	required_years  INTEGER NOT NULL DEFAULT 0,
	source          TEXT NOT NULL,
	source_url      TEXT NOT NULL DEFAULT '',
	remote          BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS applications (
	job_id         TEXT PRIMARY KEY REFERENCES jobs(id),
	status         TEXT NOT NULL DEFAULT 'new'
	               CHECK (status IN ('new','applied','phone_screen','technical','final_round','rejected','offer')),
	match_score    DOUBLE PRECISION NOT NULL DEFAULT 0,
	matched_skills JSONB NOT NULL DEFAULT '[]'::jsonb,
	missing_skills JSONB NOT NULL DEFAULT '[]'::jsonb,
	experience_gap INTEGER NOT NULL DEFAULT 0,
	notes          TEXT NOT NULL DEFAULT '',
	applied_at     TIMESTAMPTZ,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_applications_match_score ON applications (match_score DESC);
CREATE INDEX IF NOT EXISTS idx_jobs_company ON jobs (company);
`

// EnsureSchema creates the jobs and applications tables when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("%w: %w", ErrMigration, err)
	}
	return nil
}
