package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const defaultInterval = time.Hour

// ServiceParams configure the maintenance loop.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.JobMetrics
	Interval time.Duration
}

// Service runs every registered job once per interval while holding Lock.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.JobMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = &Registry{}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// CycleReport is the outcome of one pass over the registry. Skipped is set
// when another worker held the lock.
type CycleReport struct {
	Skipped bool
	Ran     []string
	Failed  map[string]error
}

// Err folds the job failures into one error.
func (r CycleReport) Err() error {
	var err error
	for _, name := range r.Ran {
		if jobErr, ok := r.Failed[name]; ok {
			err = multierr.Append(err, fmt.Errorf("%s: %w", name, jobErr))
		}
	}
	return err
}

// Run executes a cycle immediately and then on every tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := s.RunOnce(ctx)
	s.logCycle(ctx, report, err)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "maintenance loop context canceled")
			return ctx.Err()
		case <-ticker.C:
			report, err := s.RunOnce(ctx)
			s.logCycle(ctx, report, err)
		}
	}
}

// RunOnce acquires the lock and runs every job in order. A failing job does
// not stop the ones after it.
func (s *Service) RunOnce(ctx context.Context) (CycleReport, error) {
	report := CycleReport{Failed: map[string]error{}}

	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return report, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		report.Skipped = true
		return report, nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release maintenance lock", relErr)
		}
	}()

	for _, job := range s.registry.Jobs() {
		report.Ran = append(report.Ran, job.Name())
		if jobErr := s.runJob(ctx, job); jobErr != nil {
			report.Failed[job.Name()] = jobErr
		}
	}
	return report, nil
}

func (s *Service) logCycle(ctx context.Context, report CycleReport, err error) {
	switch {
	case err != nil:
		s.logg.Error(ctx, "maintenance cycle failed", err)
	case report.Skipped:
		s.logg.Info(ctx, "maintenance lock held elsewhere; skipping cycle")
	default:
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"jobs":   len(report.Ran),
			"failed": len(report.Failed),
		})
		s.logg.Info(logCtx, "maintenance cycle complete")
	}
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx := s.logg.WithFields(ctx, map[string]any{
		"job":   job.Name(),
		"event": "maintenance.job",
	})
	start := time.Now()
	err := job.Run(jobCtx)
	elapsed := time.Since(start)
	s.metrics.ObserveDuration(job.Name(), elapsed)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.IncFailure(job.Name())
		return err
	}
	s.logg.Info(jobCtx, "job completed")
	s.metrics.IncSuccess(job.Name())
	return nil
}
