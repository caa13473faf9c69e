package service

import (
	"github.com/okian/applyflow/internal/adapters/collector"
	"github.com/okian/applyflow/internal/adapters/notify"
	"github.com/okian/applyflow/internal/adapters/repository"
	"github.com/okian/applyflow/internal/domain/extract"
	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/internal/domain/scoring"
	"github.com/okian/applyflow/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence backend. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCollectors sets the listing sources, run in order.
func WithCollectors(cs ...collector.Collector) Option {
	return func(s *Service) {
		s.collectors = append([]collector.Collector(nil), cs...)
	}
}

// WithExtractor sets the skill and experience extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(s *Service) {
		if e != nil {
			s.extractor = e
		}
	}
}

// WithScorer sets the scoring engine.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithProfile sets the candidate postings are scored against.
func WithProfile(p model.CandidateProfile) Option {
	return func(s *Service) {
		s.profile = p
	}
}

// WithPublisher sets where pipeline events are delivered. The service closes
// it on Stop.
func WithPublisher(p notify.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithQueueSize sets the capacity of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithEventWorkers sets how many goroutines publish events.
func WithEventWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.eventWorkers = n
		}
	}
}

// WithSchedule sets the cron spec for periodic runs. An empty spec disables
// them; runOnStart fires one run as soon as the service starts.
func WithSchedule(spec string, runOnStart bool) Option {
	return func(s *Service) {
		s.schedule = spec
		s.runOnStart = runOnStart
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
