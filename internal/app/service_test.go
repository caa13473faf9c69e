package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/applyflow/internal/adapters/collector"
	"github.com/okian/applyflow/internal/adapters/repository"
	service "github.com/okian/applyflow/internal/app"
	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/internal/domain/types"
	"github.com/okian/applyflow/pkg/logger"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []model.Event
	closed bool
}

func (p *capturePublisher) Publish(_ context.Context, e model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *capturePublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func postings() []model.Posting {
	return []model.Posting{
		model.NewPosting("test", "acme", "SRE", "Remote", "Terraform, AWS and Docker. 2+ years", ""),
		model.NewPosting("test", "acme", "Platform Engineer", "Berlin", "Kubernetes, Terraform and Go. 5+ years", ""),
		model.NewPosting("test", "globex", "Cloud Engineer", "NYC", "AWS, Ansible and Kubernetes", ""),
	}
}

func newService(pub *capturePublisher, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithStore(repository.NewMemoryStore()),
		service.WithCollectors(collector.Static("test", postings()...)),
		service.WithPublisher(pub),
		service.WithLogger(logger.Nop()),
	}
	return service.New(append(base, opts...)...)
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service that has not started", t, func() {
		pub := &capturePublisher{}
		svc := newService(pub)
		ctx := context.Background()

		Convey("Then operations report ErrNotStarted", func() {
			_, err := svc.TriggerIngest(ctx)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.Health(ctx).Status, ShouldEqual, types.HealthDegraded)
			So(svc.GetStats()["started"], ShouldBeFalse)
			So(svc.Stop(ctx), ShouldBeNil)
		})

		Convey("When started and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldBeTrue)
			So(svc.GetStats()["scheduleEnabled"], ShouldBeFalse)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then owned components are closed", func() {
				So(pub.closed, ShouldBeTrue)
			})
		})
	})
}

func TestServiceIngestAndReview(t *testing.T) {
	Convey("Given a started service", t, func() {
		pub := &capturePublisher{}
		svc := newService(pub)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		sum, err := svc.TriggerIngest(ctx)
		So(err, ShouldBeNil)

		Convey("Then the run summary counts every posting", func() {
			So(sum.Saved, ShouldEqual, 3)
			So(sum.SkippedDup, ShouldEqual, 0)
			So(sum.TotalInDB, ShouldEqual, 3)
			last, ok := svc.LastRun()
			So(ok, ShouldBeTrue)
			So(last.RunID, ShouldEqual, sum.RunID)
		})

		Convey("Then a second run only skips duplicates", func() {
			again, err := svc.TriggerIngest(ctx)
			So(err, ShouldBeNil)
			So(again.Saved, ShouldEqual, 0)
			So(again.SkippedDup, ShouldEqual, 3)
		})

		Convey("Then applications are listed by descending score", func() {
			apps, err := svc.ListApplications(ctx)
			So(err, ShouldBeNil)
			So(apps, ShouldHaveLength, 3)
			So(apps[0].Title, ShouldEqual, "SRE")
			for i := 1; i < len(apps); i++ {
				So(apps[i-1].MatchScore, ShouldBeGreaterThanOrEqualTo, apps[i].MatchScore)
			}
		})

		Convey("Then job filters apply", func() {
			jobs, err := svc.ListJobs(ctx, types.JobFilter{Company: "acme"})
			So(err, ShouldBeNil)
			So(jobs, ShouldHaveLength, 2)

			jobs, err = svc.ListJobs(ctx, types.JobFilter{MinScore: 100})
			So(err, ShouldBeNil)
			So(jobs, ShouldHaveLength, 1)
		})

		Convey("When updating statuses", func() {
			apps, _ := svc.ListApplications(ctx)
			So(svc.UpdateStatus(ctx, apps[0].JobID, model.StatusApplied, nil), ShouldBeNil)
			So(svc.UpdateStatus(ctx, apps[1].JobID, model.StatusApplied, nil), ShouldBeNil)
			So(svc.UpdateStatus(ctx, apps[2].JobID, model.StatusTechnical, nil), ShouldBeNil)

			Convey("Then conversion reflects them", func() {
				c, err := svc.Conversion(ctx)
				So(err, ShouldBeNil)
				So(c.Total, ShouldEqual, 3)
				So(c.Applied, ShouldEqual, 2)
				So(c.Interviewed, ShouldEqual, 1)
				So(c.InterviewRate, ShouldEqual, 50.0)
				So(c.OfferRate, ShouldEqual, 0.0)
			})

			Convey("Then unknown jobs are reported", func() {
				err := svc.UpdateStatus(ctx, "nope", model.StatusApplied, nil)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then status events reach the publisher after stop drains the queue", func() {
				So(svc.Stop(ctx), ShouldBeNil)
				got := pub.types()
				So(got, ShouldContain, model.EventRunCompleted)
				So(got, ShouldContain, model.EventStatusChanged)
			})
		})

		Convey("Then the skills gap lists missing skills", func() {
			gap, err := svc.SkillsGap(ctx, 0)
			So(err, ShouldBeNil)
			So(gap[0], ShouldResemble, types.SkillCount{Skill: "kubernetes", Count: 2})
		})

		Convey("Then health is ok with counts", func() {
			h := svc.Health(ctx)
			So(h.Status, ShouldEqual, types.HealthOK)
			So(h.DB, ShouldEqual, types.DBConnected)
			So(h.TotalJobs, ShouldEqual, 3)
			So(h.TotalApplications, ShouldEqual, 3)
		})

		Reset(func() { _ = svc.Stop(ctx) })
	})
}

func TestServiceCoalescesRuns(t *testing.T) {
	Convey("Given a slow collector", t, func() {
		var fetches atomic.Int32
		release := make(chan struct{})
		slow := collector.NewFunc("slow", func(context.Context) ([]model.Posting, error) {
			fetches.Add(1)
			<-release
			return postings(), nil
		})
		svc := service.New(
			service.WithCollectors(slow),
			service.WithPublisher(&capturePublisher{}),
			service.WithLogger(logger.Nop()),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When two triggers overlap", func() {
			results := make(chan int, 2)
			for i := 0; i < 2; i++ {
				go func() {
					sum, _ := svc.TriggerIngest(ctx)
					results <- sum.Saved
				}()
			}
			time.Sleep(100 * time.Millisecond)
			close(release)

			Convey("Then one run serves both", func() {
				So(<-results, ShouldEqual, 3)
				So(<-results, ShouldEqual, 3)
				So(fetches.Load(), ShouldEqual, 1)
			})
		})
	})
}

// closeTrackingStore records calls that arrive after Close.
type closeTrackingStore struct {
	*repository.MemoryStore
	closed    atomic.Bool
	lateCalls atomic.Int32
}

func (s *closeTrackingStore) touch() {
	if s.closed.Load() {
		s.lateCalls.Add(1)
	}
}

func (s *closeTrackingStore) SaveJob(ctx context.Context, p model.Posting) (bool, error) {
	s.touch()
	return s.MemoryStore.SaveJob(ctx, p)
}

func (s *closeTrackingStore) CountJobs(ctx context.Context) (int, error) {
	s.touch()
	return s.MemoryStore.CountJobs(ctx)
}

func (s *closeTrackingStore) Close() error {
	s.closed.Store(true)
	return s.MemoryStore.Close()
}

func TestServiceStopDuringRun(t *testing.T) {
	Convey("Given a manual run blocked in its collector", t, func() {
		store := &closeTrackingStore{MemoryStore: repository.NewMemoryStore()}
		started := make(chan struct{})
		blocking := collector.NewFunc("blocking", func(ctx context.Context) ([]model.Posting, error) {
			close(started)
			<-ctx.Done()
			return postings(), nil
		})
		svc := service.New(
			service.WithStore(store),
			service.WithCollectors(blocking),
			service.WithPublisher(&capturePublisher{}),
			service.WithLogger(logger.Nop()),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = svc.TriggerIngest(ctx)
		}()
		<-started

		Convey("When the service stops", func() {
			stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			err := svc.Stop(stopCtx)

			Convey("Then the run is aborted before the store closes", func() {
				So(err, ShouldBeNil)
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatal("run did not return")
				}
				So(store.lateCalls.Load(), ShouldEqual, 0)
				So(store.closed.Load(), ShouldBeTrue)
				n, _ := store.MemoryStore.CountJobs(ctx)
				So(n, ShouldEqual, 0)
			})

			Convey("Then new runs are refused", func() {
				_, err := svc.TriggerIngest(ctx)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestServiceHealthDegraded(t *testing.T) {
	Convey("Given a store that stops answering", t, func() {
		store := repository.NewMemoryStore()
		svc := service.New(service.WithStore(store), service.WithPublisher(&capturePublisher{}), service.WithLogger(logger.Nop()))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		So(store.Close(), ShouldBeNil)

		h := svc.Health(ctx)
		So(h.Status, ShouldEqual, types.HealthDegraded)
		So(h.DB, ShouldStartWith, "error: ")
		_ = svc.Stop(ctx)
	})
}

func TestServiceScheduledRun(t *testing.T) {
	Convey("Given a service that runs on start", t, func() {
		svc := newService(&capturePublisher{}, service.WithSchedule("", true))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if _, ok := svc.LastRun(); ok {
				break
			}
			time.Sleep(10 * time.Millisecond)
		}
		_, ok := svc.LastRun()
		So(ok, ShouldBeTrue)
		So(svc.Stop(ctx), ShouldBeNil)
	})
}

func TestDefaultProfile(t *testing.T) {
	Convey("Given the default profile", t, func() {
		p := service.DefaultProfile()
		So(p.ExperienceYears, ShouldEqual, 2)
		So(p.Skills, ShouldContain, "terraform")
		So(p.Skills, ShouldHaveLength, 15)
	})
}
