// Package scheduler runs the periodic re-matching sweep.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"funding-match-workers/internal/common/logger"
	"funding-match-workers/internal/rematch"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// StaleLister lists businesses whose stored matches predate their profile.
type StaleLister interface {
	ListStaleBusinesses(ctx context.Context, limit int) ([]string, error)
}

// SweepStats summarises one sweep.
type SweepStats struct {
	Candidates int
	Requested  int
	Failed     int
	Duration   time.Duration
}

// RematchSweeper periodically requests re-matching for stale businesses.
type RematchSweeper struct {
	lister      StaleLister
	trigger     rematch.Trigger
	batchSize   int
	concurrency int
	timeout     time.Duration
	cron        *cron.Cron
	logger      logger.Logger
}

func NewRematchSweeper(lister StaleLister, trigger rematch.Trigger, batchSize, concurrency int, log logger.Logger) *RematchSweeper {
	if batchSize <= 0 {
		batchSize = 100
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &RematchSweeper{
		lister:      lister,
		trigger:     trigger,
		batchSize:   batchSize,
		concurrency: concurrency,
		timeout:     10 * time.Minute,
		cron:        cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:      log.WithFields(map[string]interface{}{"component": "rematch-sweeper"}),
	}
}

// Start registers the sweep on schedule (standard cron syntax or descriptors such as "@every 1h").
func (s *RematchSweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.runScheduled); err != nil {
		return fmt.Errorf("invalid rematch schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.logger.Info("rematch sweeper started", map[string]interface{}{
		"schedule":    schedule,
		"batchSize":   s.batchSize,
		"concurrency": s.concurrency,
	})
	return nil
}

// Stop stops scheduling and waits for a running sweep to finish.
func (s *RematchSweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("rematch sweeper stopped", nil)
}

func (s *RematchSweeper) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error("rematch sweep failed", map[string]interface{}{"error": err})
	}
}

// Sweep requests re-matching for one batch of stale businesses. A failed request is logged and
// counted; it never stops the rest of the batch.
func (s *RematchSweeper) Sweep(ctx context.Context) (SweepStats, error) {
	start := time.Now()

	ids, err := s.lister.ListStaleBusinesses(ctx, s.batchSize)
	if err != nil {
		return SweepStats{}, fmt.Errorf("list stale businesses: %w", err)
	}

	var requested, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, id := range ids {
		g.Go(func() error {
			if err := s.trigger.Request(ctx, id, rematch.ReasonStaleMatches); err != nil {
				failed.Add(1)
				s.logger.Warn("rematch request failed", map[string]interface{}{
					"businessId": id,
					"error":      err,
				})
				return nil
			}
			requested.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	stats := SweepStats{
		Candidates: len(ids),
		Requested:  int(requested.Load()),
		Failed:     int(failed.Load()),
		Duration:   time.Since(start),
	}
	s.logger.Info("rematch sweep completed", map[string]interface{}{
		"candidates": stats.Candidates,
		"requested":  stats.Requested,
		"failed":     stats.Failed,
		"durationMs": stats.Duration.Milliseconds(),
	})
	return stats, nil
}
