// Package ingest runs the fetch, extract, persist and score pipeline over a
// set of collectors.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/applyflow/internal/adapters/collector"
	"github.com/okian/applyflow/internal/adapters/repository"
	"github.com/okian/applyflow/internal/domain/extract"
	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/internal/domain/scoring"
	"github.com/okian/applyflow/pkg/logger"
	"github.com/okian/applyflow/pkg/metrics"
)

// Summary reports the outcome of one run.
type Summary struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	DurationMS int64         `json:"duration_ms"`
	Saved      int           `json:"saved"`
	SkippedDup int           `json:"skipped_dup"`
	Failed     int           `json:"failed"`
	TotalInDB  int           `json:"total_in_db"`
	Sources    []SourceStats `json:"sources"`
}

// SourceStats breaks a run down per collector.
type SourceStats struct {
	Source     string `json:"source"`
	Fetched    int    `json:"fetched"`
	Saved      int    `json:"saved"`
	SkippedDup int    `json:"skipped_dup"`
	Failed     int    `json:"failed"`
	Error      string `json:"error,omitempty"`
}

// EventSink accepts pipeline events. The event queue satisfies it.
type EventSink interface {
	Enqueue(ctx context.Context, e model.Event) error
}

// Orchestrator drives a run over its collectors.
type Orchestrator struct {
	collectors []collector.Collector
	extractor  *extract.Extractor
	scorer     scoring.Scorer
	store      repository.Store
	profile    model.CandidateProfile

	events EventSink
	log    logger.Logger
	now    func() time.Time
}

// New builds an orchestrator. Collectors run in the order given.
func New(store repository.Store, extractor *extract.Extractor, scorer scoring.Scorer,
	profile model.CandidateProfile, collectors []collector.Collector, opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		collectors: collectors,
		extractor:  extractor,
		scorer:     scorer,
		store:      store,
		profile:    profile,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Named("ingest")
	}
	return o
}

// Collectors returns the source names in run order.
func (o *Orchestrator) Collectors() []string {
	names := make([]string, len(o.collectors))
	for i, c := range o.collectors {
		names[i] = c.Name()
	}
	return names
}

// Run performs one synchronous pass over every collector. Source and item
// failures are counted in the summary, never returned.
func (o *Orchestrator) Run(ctx context.Context) Summary {
	start := o.now()
	sum := Summary{
		RunID:     uuid.NewString(),
		StartedAt: start.UTC(),
		Sources:   make([]SourceStats, 0, len(o.collectors)),
	}
	log := o.log
	log.Info(ctx, "run started", logger.String("run_id", sum.RunID), logger.Int("collectors", len(o.collectors)))

	for _, c := range o.collectors {
		if ctx.Err() != nil {
			break
		}
		st := o.runSource(ctx, c)
		sum.Saved += st.Saved
		sum.SkippedDup += st.SkippedDup
		sum.Failed += st.Failed
		sum.Sources = append(sum.Sources, st)
	}

	total, err := o.store.CountJobs(ctx)
	if err != nil {
		log.Error(ctx, "count jobs failed", logger.String("run_id", sum.RunID), logger.Error(err))
	} else {
		sum.TotalInDB = total
		metrics.UpdateTotalJobs(total)
	}

	elapsed := o.now().Sub(start)
	sum.DurationMS = elapsed.Milliseconds()
	metrics.RecordRun(elapsed)

	log.Info(ctx, "run completed",
		logger.String("run_id", sum.RunID),
		logger.Int("saved", sum.Saved),
		logger.Int("skipped_dup", sum.SkippedDup),
		logger.Int("failed", sum.Failed),
		logger.Int("total_in_db", sum.TotalInDB),
		logger.Duration("elapsed", elapsed),
	)
	o.emit(ctx, sum)
	return sum
}

func (o *Orchestrator) runSource(ctx context.Context, c collector.Collector) SourceStats {
	st := SourceStats{Source: c.Name()}
	postings, err := o.fetch(ctx, c)
	if err != nil {
		st.Failed++
		st.Error = err.Error()
		metrics.RecordSourceFailure(st.Source)
		metrics.RecordPostingFailed()
		o.log.Error(ctx, "collector failed", logger.String("source", st.Source), logger.Error(err))
		return st
	}
	st.Fetched = len(postings)
	metrics.RecordPostingsFetched(st.Source, st.Fetched)

	for i := range postings {
		if ctx.Err() != nil {
			break
		}
		inserted, err := o.process(ctx, postings[i])
		switch {
		case err != nil:
			st.Failed++
			metrics.RecordPostingFailed()
			o.log.Warn(ctx, "posting failed",
				logger.String("source", st.Source),
				logger.String("title", postings[i].Title),
				logger.Error(err),
			)
		case inserted:
			st.Saved++
			metrics.RecordPostingSaved()
		default:
			st.SkippedDup++
			metrics.RecordPostingDuplicate()
		}
	}
	o.log.Info(ctx, "source processed",
		logger.String("source", st.Source),
		logger.Int("fetched", st.Fetched),
		logger.Int("saved", st.Saved),
		logger.Int("skipped_dup", st.SkippedDup),
		logger.Int("failed", st.Failed),
	)
	return st
}

// fetch calls the collector, turning a panic into an error.
func (o *Orchestrator) fetch(ctx context.Context, c collector.Collector) (postings []model.Posting, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return c.Fetch(ctx)
}

// process enriches, persists and scores one posting. It reports whether the
// posting was new.
func (o *Orchestrator) process(ctx context.Context, p model.Posting) (inserted bool, err error) { //nolint:gocritic // hugeParam: the posting is enriched on a copy
	defer func() {
		if r := recover(); r != nil {
			inserted, err = false, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	if p.ID == "" {
		p.ID = model.PostingID(p.Source, p.Company, p.Title)
	}
	p.RequiredSkills = o.extractor.ExtractSkills(p.Description)
	p.RequiredYears = o.extractor.ExtractYears(p.Description)

	inserted, err = o.store.SaveJob(ctx, p)
	if err != nil {
		return false, fmt.Errorf("save job: %w", err)
	}
	if !inserted {
		return false, nil
	}

	scoreStart := time.Now()
	result := o.scorer.Score(p, o.profile)
	metrics.RecordScoringLatency(metrics.Since(scoreStart))
	metrics.RecordMatchScore(result.FinalScore, result.HardMismatch)

	if err := o.store.SaveApplication(ctx, p.ID, result); err != nil {
		return false, fmt.Errorf("save application: %w", err)
	}
	return true, nil
}

func (o *Orchestrator) emit(ctx context.Context, sum Summary) { //nolint:gocritic // hugeParam: summary is copied into the payload
	if o.events == nil {
		return
	}
	e := model.Event{
		ID:   uuid.NewString(),
		Type: model.EventRunCompleted,
		TS:   o.now().UTC(),
		Payload: map[string]any{
			"run_id":      sum.RunID,
			"saved":       sum.Saved,
			"skipped_dup": sum.SkippedDup,
			"failed":      sum.Failed,
			"total_in_db": sum.TotalInDB,
			"duration_ms": sum.DurationMS,
		},
	}
	if err := o.events.Enqueue(context.WithoutCancel(ctx), e); err != nil {
		o.log.Warn(ctx, "run event dropped", logger.String("run_id", sum.RunID), logger.Error(err))
	}
}
