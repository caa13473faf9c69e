// Package repository defines the persistence boundary for postings and
// applications, with in-memory, SQLite and Postgres implementations.
package repository

import (
	"context"

	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/internal/domain/scoring"
)

// Store persists postings and their applications.
type Store interface {
	// SaveJob inserts p unless a posting with the same id exists. The check and
	// the insert are a single atomic operation. Returns true when inserted.
	SaveJob(ctx context.Context, p model.Posting) (bool, error)

	// SaveApplication upserts the application for jobID with the score fields of r.
	// A new application starts in StatusNew; an existing one keeps its status and notes.
	SaveApplication(ctx context.Context, jobID string, r scoring.Result) error

	// ListApplications returns every application joined with its posting,
	// ordered by match score descending (job id ascending on ties).
	ListApplications(ctx context.Context) ([]model.ApplicationView, error)

	// UpdateStatus sets the status of the application for jobID. notes replaces
	// the stored notes when non-nil. Returns ErrNotFound for unknown job ids and
	// an error wrapping model.ErrInvalidStatus for values outside the enum.
	UpdateStatus(ctx context.Context, jobID string, status model.Status, notes *string) error

	// CountJobs returns the number of stored postings.
	CountJobs(ctx context.Context) (int, error)

	// CountApplications returns the number of stored applications.
	CountApplications(ctx context.Context) (int, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error

	Close() error
}
