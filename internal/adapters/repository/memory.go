package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/applyflow/internal/domain/dedupe"
	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/internal/domain/scoring"
	"github.com/okian/applyflow/pkg/metrics"
)

// MemoryStore is a process-local Store. Posting ids are claimed through a
// Deduper so concurrent SaveJob calls for the same id insert exactly once.
type MemoryStore struct {
	opts options
	ids  dedupe.Deduper

	mu     sync.RWMutex
	jobs   map[string]model.Posting
	apps   map[string]model.Application
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		opts: o,
		ids:  dedupe.NewInMemoryDeduper(),
		jobs: make(map[string]model.Posting),
		apps: make(map[string]model.Application),
	}
}

// SaveJob implements Store.
func (s *MemoryStore) SaveJob(ctx context.Context, p model.Posting) (bool, error) {
	defer observe("save_job", time.Now())
	if p.ID == "" {
		return false, ErrEmptyID
	}
	if s.isClosed() {
		return false, ErrClosed
	}
	if s.ids.SeenAndRecord(ctx, p.ID) {
		return false, nil
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.opts.now()
	}
	p.RequiredSkills = cloneStrings(p.RequiredSkills)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		// Close won the race after the id was claimed.
		s.ids.Unrecord(ctx, p.ID)
		return false, ErrClosed
	}
	s.jobs[p.ID] = p
	return true, nil
}

// SaveApplication implements Store.
func (s *MemoryStore) SaveApplication(_ context.Context, jobID string, r scoring.Result) error {
	defer observe("save_application", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, ok := s.jobs[jobID]; !ok {
		return fmt.Errorf("save application for %s: %w", jobID, ErrNotFound)
	}

	app, ok := s.apps[jobID]
	if !ok {
		app = model.Application{JobID: jobID, Status: model.StatusNew}
	}
	app.MatchScore = r.FinalScore
	app.MatchedSkills = cloneStrings(r.MatchedSkills)
	app.MissingSkills = cloneStrings(r.MissingSkills)
	app.ExperienceGap = r.ExperienceGap
	app.UpdatedAt = s.opts.now()
	s.apps[jobID] = app
	return nil
}

// ListApplications implements Store.
func (s *MemoryStore) ListApplications(_ context.Context) ([]model.ApplicationView, error) {
	defer observe("list_applications", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ApplicationView, 0, len(s.apps))
	for id, app := range s.apps {
		job := s.jobs[id]
		app.MatchedSkills = cloneStrings(app.MatchedSkills)
		app.MissingSkills = cloneStrings(app.MissingSkills)
		out = append(out, model.ApplicationView{
			Application: app,
			Title:       job.Title,
			Company:     job.Company,
			Location:    job.Location,
			SourceURL:   job.SourceURL,
			Remote:      job.Remote,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchScore != out[j].MatchScore {
			return out[i].MatchScore > out[j].MatchScore
		}
		return out[i].JobID < out[j].JobID
	})
	return out, nil
}

// UpdateStatus implements Store.
func (s *MemoryStore) UpdateStatus(_ context.Context, jobID string, status model.Status, notes *string) error {
	defer observe("update_status", time.Now())
	if !status.Valid() {
		return fmt.Errorf("update %s: %w: %q", jobID, model.ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[jobID]
	if !ok {
		return fmt.Errorf("update %s: %w", jobID, ErrNotFound)
	}
	now := s.opts.now()
	app.Status = status
	if notes != nil {
		app.Notes = *notes
	}
	if status == model.StatusApplied && app.AppliedAt == nil {
		app.AppliedAt = &now
	}
	app.UpdatedAt = now
	s.apps[jobID] = app
	return nil
}

// CountJobs implements Store.
func (s *MemoryStore) CountJobs(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs), nil
}

// CountApplications implements Store.
func (s *MemoryStore) CountApplications(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.apps), nil
}

// Job returns the stored posting for id.
func (s *MemoryStore) Job(id string) (model.Posting, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.jobs[id]
	return p, ok
}

// Ping implements Store.
func (s *MemoryStore) Ping(_ context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *MemoryStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, metrics.Since(start))
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
