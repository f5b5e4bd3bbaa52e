package enrichment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/evidence"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/metrics"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage/models"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/pkg/logger"
)

// ErrNoSnapshot means the stored analysis carries no request snapshot,
// so there is nothing sensible to refresh from.
var ErrNoSnapshot = errors.New("analysis has no stored request snapshot")

type Orchestrator struct {
	store         *evidence.Store
	dispatcher    *Dispatcher
	configVersion string
}

type AnalyzeResult struct {
	AnalysisID    string
	ContentID     string
	EvidenceCount int
	Bundle        string
}

type RefreshResult struct {
	AnalysisID  string
	NewEvidence int
}

func NewOrchestrator(store *evidence.Store, dispatcher *Dispatcher, configVersion string) *Orchestrator {
	return &Orchestrator{
		store:         store,
		dispatcher:    dispatcher,
		configVersion: configVersion,
	}
}

// Analyze resolves the category's bundle, fans out every satisfied
// endpoint concurrently, and persists the collected payloads as an
// evidence batch plus exactly one analysis record.
func (o *Orchestrator) Analyze(ctx context.Context, req *models.ContentAnalysisRequest) (*AnalyzeResult, error) {
	bundle, err := ResolveBundle(req.ContentCategory)
	if err != nil {
		return nil, err
	}

	analysisID := uuid.New().String()
	contentID := uuid.New().String()

	logger.Info("Starting analysis",
		zap.String("analysis_id", analysisID),
		zap.String("bundle", bundle.Name),
		zap.String("content_category", string(req.ContentCategory)),
	)

	items := o.collect(ctx, bundle, req)
	records := o.store.SaveEvidenceBatch(ctx, analysisID, items)

	snapshot := req.Snapshot()
	record := &models.AnalysisRecord{
		AnalysisID:      analysisID,
		ContentID:       contentID,
		OrgID:           req.OrgID,
		ContentHash:     req.ContentHash(),
		ContentCategory: req.ContentCategory,
		EntityType:      req.EntityType,
		Summary: models.AnalysisSummary{
			Bundle:          bundle.Name,
			ContentCategory: req.ContentCategory,
			EntityType:      req.EntityType,
			EvidenceCount:   len(records),
			Request:         snapshot,
		},
		CreatedAt:     time.Now(),
		ConfigVersion: o.configVersion,
	}
	o.store.SaveAnalysis(ctx, record)

	metrics.AnalysesCreated.WithLabelValues(string(req.ContentCategory)).Inc()
	logger.Info("Analysis complete",
		zap.String("analysis_id", analysisID),
		zap.Int("evidence_count", len(records)),
	)

	return &AnalyzeResult{
		AnalysisID:    analysisID,
		ContentID:     contentID,
		EvidenceCount: len(records),
		Bundle:        bundle.Name,
	}, nil
}

// Refresh re-runs the bundle's fetches for an existing analysis and
// appends newly observed evidence under the same id. No new analysis
// record is created. Payloads already seen within the cache window are
// dropped before persisting.
func (o *Orchestrator) Refresh(ctx context.Context, analysisID string, req *models.ContentAnalysisRequest) (*RefreshResult, error) {
	bundle, err := ResolveBundle(req.ContentCategory)
	if err != nil {
		return nil, err
	}

	items := o.collect(ctx, bundle, req)

	fresh := make([]models.EvidenceItem, 0, len(items))
	for _, item := range items {
		if o.store.IsPayloadSeen(ctx, item.Source, item.Payload) {
			metrics.EvidenceDeduplicated.WithLabelValues(item.Source).Inc()
			logger.Debug("Payload already seen, skipping",
				zap.String("analysis_id", analysisID),
				zap.String("source", item.Source),
				zap.String("endpoint", item.Endpoint),
			)
			continue
		}
		fresh = append(fresh, item)
	}

	records := o.store.SaveEvidenceBatch(ctx, analysisID, fresh)

	logger.Info("Analysis refreshed",
		zap.String("analysis_id", analysisID),
		zap.Int("new_evidence", len(records)),
	)

	return &RefreshResult{
		AnalysisID:  analysisID,
		NewEvidence: len(records),
	}, nil
}

// RefreshFromSaved rebuilds the original request from the redacted
// snapshot stored on the analysis record and refreshes. The content
// body is never needed to re-fetch source data. Fails hard when no
// snapshot was stored.
func (o *Orchestrator) RefreshFromSaved(ctx context.Context, analysisID string) (*RefreshResult, error) {
	record, err := o.store.GetAnalysis(ctx, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis %s: %w", analysisID, err)
	}

	if len(record.Summary.Request) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, analysisID)
	}

	req := models.RequestFromSnapshot(record.Summary.Request)
	if req.ContentCategory == "" {
		req.ContentCategory = record.ContentCategory
	}

	return o.Refresh(ctx, analysisID, &req)
}

// collect filters the bundle to satisfied endpoints and dispatches
// them concurrently. Each dispatch is wrapped individually: one
// failure contributes no evidence and never cancels siblings. The
// orchestrator waits on all calls; each client carries its own bound.
func (o *Orchestrator) collect(ctx context.Context, bundle SourceBundle, req *models.ContentAnalysisRequest) []models.EvidenceItem {
	satisfied := make([]SourceEndpoint, 0, len(bundle.Endpoints))
	for _, endpoint := range bundle.Endpoints {
		if !endpoint.SatisfiedBy(req) {
			metrics.EndpointsSkipped.WithLabelValues(string(endpoint.Source)).Inc()
			logger.Debug("Endpoint skipped, identifiers missing",
				zap.String("source", string(endpoint.Source)),
				zap.String("endpoint", endpoint.Endpoint),
				zap.Strings("identifier_keys", endpoint.IdentifierKeys),
			)
			continue
		}
		satisfied = append(satisfied, endpoint)
	}

	if len(satisfied) == 0 {
		return nil
	}

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		items = make([]models.EvidenceItem, 0, len(satisfied))
	)

	for _, endpoint := range satisfied {
		wg.Add(1)
		go func(endpoint SourceEndpoint) {
			defer wg.Done()

			payload, ok := o.dispatcher.Dispatch(ctx, endpoint, req)
			if !ok {
				return
			}

			mu.Lock()
			items = append(items, models.EvidenceItem{
				Source:    string(endpoint.Source),
				Endpoint:  endpoint.Endpoint,
				EntityRef: endpoint.EntityRef(req),
				Payload:   payload,
			})
			mu.Unlock()
		}(endpoint)
	}

	wg.Wait()
	return items
}
