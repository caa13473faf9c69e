// Package service wires the pipeline components together and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/okian/applyflow/internal/adapters/collector"
	eventqueue "github.com/okian/applyflow/internal/adapters/mq/queue"
	workerpool "github.com/okian/applyflow/internal/adapters/mq/worker"
	"github.com/okian/applyflow/internal/adapters/notify"
	"github.com/okian/applyflow/internal/adapters/repository"
	"github.com/okian/applyflow/internal/domain/extract"
	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/internal/domain/scoring"
	"github.com/okian/applyflow/internal/domain/types"
	"github.com/okian/applyflow/internal/ingest"
	"github.com/okian/applyflow/internal/scheduler"
	"github.com/okian/applyflow/pkg/logger"
	"github.com/okian/applyflow/pkg/metrics"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted = errors.New("service not started")
)

const ingestKey = "ingest"

// Service owns the store, the ingestion pipeline, the event path and the
// scheduler.
type Service struct {
	mu sync.RWMutex

	// Injected components
	store      repository.Store
	collectors []collector.Collector
	extractor  *extract.Extractor
	scorer     scoring.Scorer
	profile    model.CandidateProfile
	publisher  notify.Publisher

	// Configuration
	queueSize    int
	eventWorkers int
	schedule     string
	runOnStart   bool

	// Runtime
	queue      *eventqueue.InMemoryQueue
	pool       *workerpool.Pool
	orch       *ingest.Orchestrator
	sched      *scheduler.Scheduler
	runs       singleflight.Group
	inflight   sync.WaitGroup
	runCtx     context.Context //nolint:containedctx // lifetime of background work
	cancel     context.CancelFunc
	ingestCtx  context.Context //nolint:containedctx // canceled first on Stop
	stopIngest context.CancelFunc
	lastRun    *ingest.Summary
	runCount   int64
	started    bool
	startedAt  time.Time

	logger logger.Logger
}

// New constructs a Service. Components not supplied through options get
// defaults on Start.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:    1024,
		eventWorkers: 1,
		profile:      DefaultProfile(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultProfile is the candidate used when none is configured.
func DefaultProfile() model.CandidateProfile {
	return model.CandidateProfile{
		Skills: []string{
			"docker", "terraform", "aws", "python", "github actions",
			"cloudwatch", "amazon ecs", "ec2", "s3", "aws iam", "jenkins", "bash",
			"github", "linux", "postgresql",
		},
		ExperienceYears: 2,
		Domains:         []string{"SRE", "DevOps", "Cloud"},
		Certifications:  []string{"AWS Certified Cloud Practitioner"},
	}
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.extractor == nil {
		s.extractor = extract.New()
	}
	if s.scorer == nil {
		s.scorer = scoring.New()
	}
	if s.publisher == nil {
		s.publisher = notify.NewLogPublisher(s.logger.Named("events"))
	}

	s.runCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.ingestCtx, s.stopIngest = context.WithCancel(s.runCtx)

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.eventWorkers, s.queue, s.publisher,
		workerpool.WithLogger(s.logger.Named("events")))
	s.pool.Start(s.runCtx)

	s.orch = ingest.New(s.store, s.extractor, s.scorer, s.profile, s.collectors,
		ingest.WithEvents(s.queue), ingest.WithLogger(s.logger.Named("ingest")))

	s.sched = scheduler.New(s.schedule, func(ctx context.Context, _ string) {
		if _, err := s.TriggerIngest(ctx); err != nil {
			s.logger.Error(ctx, "scheduled ingestion failed", logger.Error(err))
		}
	}, scheduler.WithRunOnStart(s.runOnStart), scheduler.WithLogger(s.logger.Named("scheduler")))
	if err := s.sched.Start(s.runCtx); err != nil {
		s.cancel()
		_ = s.pool.Shutdown(ctx)
		return fmt.Errorf("start scheduler: %w", err)
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "applyflow service started",
		logger.Any("collectors", s.orch.Collectors()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("event_workers", s.eventWorkers),
		logger.String("schedule", s.schedule),
	)
	return nil
}

// Stop aborts in-flight ingestion runs and waits for them, halts the
// scheduler, drains pending events and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping applyflow service...")

	var errs []error
	s.stopIngest()
	if err := s.sched.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.waitRuns(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	s.cancel()
	if err := s.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	s.logger.Info(ctx, "applyflow service stopped")
	return errors.Join(errs...)
}

// waitRuns blocks until every TriggerIngest caller has returned or ctx ends.
func (s *Service) waitRuns(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for ingestion runs: %w", ctx.Err())
	}
}

// beginRun registers a TriggerIngest caller. It fails once Stop has begun so
// no run can start after waitRuns.
func (s *Service) beginRun() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return false
	}
	s.inflight.Add(1)
	return true
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// TriggerIngest runs the pipeline once. Concurrent callers share the run in
// flight and receive its summary. The run is detached from ctx so a client
// disconnect does not abort it; Stop cancels it.
func (s *Service) TriggerIngest(ctx context.Context) (ingest.Summary, error) {
	if !s.beginRun() {
		return ingest.Summary{}, ErrNotStarted
	}
	defer s.inflight.Done()

	v, _, shared := s.runs.Do(ingestKey, func() (interface{}, error) {
		sum := s.orch.Run(s.ingestCtx)
		s.mu.Lock()
		s.lastRun = &sum
		s.runCount++
		s.mu.Unlock()
		return sum, nil
	})
	if shared {
		s.logger.Debug(ctx, "joined in-flight ingestion run")
	}
	sum, _ := v.(ingest.Summary)
	return sum, nil
}

// LastRun returns the summary of the most recent run, if any.
func (s *Service) LastRun() (ingest.Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return ingest.Summary{}, false
	}
	return *s.lastRun, true
}

// ListApplications returns every application ordered by score.
func (s *Service) ListApplications(ctx context.Context) ([]model.ApplicationView, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.store.ListApplications(ctx)
}

// ListJobs returns scored jobs passing filter.
func (s *Service) ListJobs(ctx context.Context, filter types.JobFilter) ([]model.ApplicationView, error) {
	apps, err := s.ListApplications(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.ApplicationView, 0, len(apps))
	for i := range apps {
		if filter.Match(&apps[i]) {
			out = append(out, apps[i])
		}
	}
	return out, nil
}

// UpdateStatus moves an application to status. Any enumerated status is
// accepted regardless of the current one.
func (s *Service) UpdateStatus(ctx context.Context, jobID string, status model.Status, notes *string) error {
	if !s.isStarted() {
		return ErrNotStarted
	}
	if err := s.store.UpdateStatus(ctx, jobID, status, notes); err != nil {
		return err
	}
	metrics.RecordStatusUpdate(string(status))

	e := model.Event{
		ID:   uuid.NewString(),
		Type: model.EventStatusChanged,
		TS:   time.Now().UTC(),
		Payload: map[string]any{
			"job_id": jobID,
			"status": string(status),
		},
	}
	if err := s.queue.Enqueue(ctx, e); err != nil {
		s.logger.Warn(ctx, "status event dropped", logger.String("job_id", jobID), logger.Error(err))
	}
	return nil
}

// CountJobs returns the number of stored postings.
func (s *Service) CountJobs(ctx context.Context) (int, error) {
	if !s.isStarted() {
		return 0, ErrNotStarted
	}
	return s.store.CountJobs(ctx)
}

// Conversion computes funnel statistics over all applications.
func (s *Service) Conversion(ctx context.Context) (types.Conversion, error) {
	apps, err := s.ListApplications(ctx)
	if err != nil {
		return types.Conversion{}, err
	}
	return Conversion(apps), nil
}

// SkillsGap returns the limit most frequently missing skills.
func (s *Service) SkillsGap(ctx context.Context, limit int) ([]types.SkillCount, error) {
	apps, err := s.ListApplications(ctx)
	if err != nil {
		return nil, err
	}
	return SkillsGap(apps, limit), nil
}

// Health reports storage reachability and table sizes.
func (s *Service) Health(ctx context.Context) types.Health {
	h := types.Health{
		Status:    types.HealthOK,
		DB:        types.DBConnected,
		Timestamp: time.Now().UTC(),
	}
	if !s.isStarted() {
		h.Status = types.HealthDegraded
		h.DB = types.DBError(ErrNotStarted)
		return h
	}
	if err := s.store.Ping(ctx); err != nil {
		h.Status = types.HealthDegraded
		h.DB = types.DBError(err)
		return h
	}
	if n, err := s.store.CountJobs(ctx); err == nil {
		h.TotalJobs = n
	}
	if n, err := s.store.CountApplications(ctx); err == nil {
		h.TotalApplications = n
	}
	return h
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"queueSize":    s.queueSize,
		"eventWorkers": s.eventWorkers,
		"schedule":     s.schedule,
		"runs":         s.runCount,
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	stats["collectors"] = s.orch.Collectors()
	stats["queueLength"] = s.queue.Len()
	stats["eventsPublished"] = s.pool.Published()
	stats["scheduleEnabled"] = s.sched.Enabled()
	if last := s.sched.LastRun(); !last.IsZero() {
		stats["lastScheduledRun"] = last.UTC()
	}
	if s.lastRun != nil {
		stats["lastRun"] = *s.lastRun
	}
	if n, err := s.store.CountJobs(ctx); err == nil {
		stats["totalJobs"] = n
		metrics.UpdateTotalJobs(n)
	}
	if n, err := s.store.CountApplications(ctx); err == nil {
		stats["totalApplications"] = n
		metrics.UpdateTotalApplications(n)
	}
	metrics.UpdateQueueSize(s.queue.Len())
	return stats
}
