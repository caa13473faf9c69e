package main

import (
	"context"
	"fmt"

	"github.com/okian/applyflow/internal/adapters/collector"
	"github.com/okian/applyflow/internal/adapters/notify"
	"github.com/okian/applyflow/internal/adapters/repository"
	service "github.com/okian/applyflow/internal/app"
	"github.com/okian/applyflow/internal/config"
	"github.com/okian/applyflow/internal/domain/extract"
	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/internal/domain/scoring"
	"github.com/okian/applyflow/pkg/logger"
)

// buildService assembles the service from configuration. The returned
// service owns the store and publisher and closes them on Stop.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger, withSchedule bool) (*service.Service, error) {
	store, err := repository.Open(ctx, cfg.DatabaseURL, repository.WithLogger(log.Named("repository")))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	publisher, err := buildPublisher(ctx, cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithStore(store),
		service.WithPublisher(publisher),
		service.WithCollectors(buildCollectors(cfg, log)...),
		service.WithExtractor(buildExtractor(cfg)),
		service.WithScorer(scoring.New(scoring.WithWeights(cfg.Weights))),
		service.WithProfile(profileOf(cfg)),
		service.WithQueueSize(cfg.QueueSize),
		service.WithEventWorkers(cfg.EventWorkers),
	}
	if withSchedule {
		opts = append(opts, service.WithSchedule(cfg.Schedule, cfg.RunOnStart))
	}
	return service.New(opts...), nil
}

func buildPublisher(ctx context.Context, cfg *config.Config, log logger.Logger) (notify.Publisher, error) {
	if cfg.RedisURL == "" {
		return notify.NewLogPublisher(log.Named("events")), nil
	}
	client, err := notify.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	log.Info(ctx, "publishing events to redis", logger.String("channel", cfg.RedisChannel))
	return notify.NewRedisPublisher(client, cfg.RedisChannel), nil
}

func buildCollectors(cfg *config.Config, log logger.Logger) []collector.Collector {
	common := []collector.Option{
		collector.WithTimeout(cfg.HTTPTimeout),
		collector.WithDelay(cfg.RequestDelay),
	}

	var out []collector.Collector
	if len(cfg.Greenhouse.Companies) > 0 {
		opts := append([]collector.Option{
			collector.WithBaseURL(cfg.Greenhouse.BaseURL),
			collector.WithLogger(log.Named("greenhouse")),
		}, common...)
		out = append(out, collector.NewGreenhouse(cfg.Greenhouse.Companies, cfg.Greenhouse.Keywords, opts...))
	}
	if cfg.Adzuna.Enabled() {
		opts := append([]collector.Option{collector.WithLogger(log.Named("adzuna"))}, common...)
		out = append(out, collector.NewAdzuna(cfg.Adzuna, opts...))
	}
	return out
}

func buildExtractor(cfg *config.Config) *extract.Extractor {
	if len(cfg.Vocabulary) == 0 {
		return extract.New()
	}
	return extract.New(extract.WithVocabulary(extract.NewVocabulary(cfg.Vocabulary...)))
}

func profileOf(cfg *config.Config) model.CandidateProfile {
	if cfg.HasProfile() {
		return cfg.Profile
	}
	return service.DefaultProfile()
}
