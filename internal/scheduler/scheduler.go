package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/country-insights/internal/insights"
	"github.com/i474232898/country-insights/internal/logger"
)

// probeTimeout bounds each individual upstream probe.
const probeTimeout = 15 * time.Second

// Scheduler periodically probes every upstream provider that supports it.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *insights.Service
	interval  time.Duration
}

// New creates a new Scheduler. An interval <= 0 disables probing.
func New(interval time.Duration, service *insights.Service) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		logger.Log.Info("scheduler: probing disabled")
		return nil
	}
	if len(s.service.Probers()) == 0 {
		logger.Log.Info("scheduler: no probeable upstreams; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce probes every upstream concurrently and waits for all results.
func (s *Scheduler) RunOnce(ctx context.Context) []insights.ProbeResult {
	probers := s.service.Probers()
	logger.Log.WithField("upstreams", len(probers)).Debug("scheduler: running upstream probe job")

	results := make([]insights.ProbeResult, len(probers))
	var wg sync.WaitGroup
	for i, p := range probers {
		wg.Add(1)
		go func(i int, p insights.Prober) {
			defer wg.Done()

			probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()

			results[i] = s.service.ProbeAndStore(probeCtx, p)
		}(i, p)
	}
	wg.Wait()

	unhealthy := 0
	for _, r := range results {
		if !r.Healthy {
			unhealthy++
		}
	}
	logger.Log.WithFields(logger.Fields{
		"upstreams": len(results),
		"unhealthy": unhealthy,
	}).Info("scheduler: completed upstream probe job")
	return results
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
