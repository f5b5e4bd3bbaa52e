// Package monitoring periodically re-runs stored analyses to pick up
// new reviews, mentions and sentiment since the last fetch.
package monitoring

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/enrichment"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/evidence"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/metrics"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/pkg/logger"
)

type Scheduler struct {
	store        *evidence.Store
	orchestrator *enrichment.Orchestrator
	pool         *ants.Pool
}

type Report struct {
	Attempted int
	Updated   int
}

func NewScheduler(store *evidence.Store, orchestrator *enrichment.Orchestrator, workers int) (*Scheduler, error) {
	if workers < 1 {
		workers = 1
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &Scheduler{
		store:        store,
		orchestrator: orchestrator,
		pool:         pool,
	}, nil
}

func (s *Scheduler) Close() {
	s.pool.Release()
}

// Run refreshes up to limit stored analyses. Per-analysis failures are
// logged and counted as not-updated; the batch always completes and
// returns partial results. Updated counts only analyses that gained
// evidence.
func (s *Scheduler) Run(ctx context.Context, limit int) (Report, error) {
	analyses, err := s.store.ListAnalyses(ctx, limit)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list analyses: %w", err)
	}

	metrics.MonitoringRuns.Inc()
	logger.Info("Monitoring run started", zap.Int("analyses", len(analyses)))

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		updated int
	)

	for _, analysis := range analyses {
		analysisID := analysis.AnalysisID

		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()

			result, err := s.orchestrator.RefreshFromSaved(ctx, analysisID)
			if err != nil {
				metrics.MonitoringRefreshes.WithLabelValues("failed").Inc()
				logger.Warn("Analysis refresh failed",
					zap.String("analysis_id", analysisID),
					zap.Error(err),
				)
				return
			}

			if result.NewEvidence > 0 {
				metrics.MonitoringRefreshes.WithLabelValues("updated").Inc()
				mu.Lock()
				updated++
				mu.Unlock()
			} else {
				metrics.MonitoringRefreshes.WithLabelValues("unchanged").Inc()
			}
		})
		if submitErr != nil {
			wg.Done()
			logger.Warn("Failed to submit refresh task",
				zap.String("analysis_id", analysisID),
				zap.Error(submitErr),
			)
		}
	}

	wg.Wait()

	report := Report{
		Attempted: len(analyses),
		Updated:   updated,
	}

	logger.Info("Monitoring run complete",
		zap.Int("attempted", report.Attempted),
		zap.Int("updated", report.Updated),
	)

	return report, nil
}
