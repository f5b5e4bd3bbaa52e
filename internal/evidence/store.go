// Package evidence persists analyses and evidence records with a
// tiered read path (cache, then backend) and a best-effort write path:
// the cache is always updated, the backend write may fail without
// failing the save.
package evidence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/cache"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/metrics"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage/models"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/pkg/logger"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/pkg/utils"
)

const (
	kindAnalysis = "analysis"
	kindEvidence = "evidence"
)

type Store struct {
	cache   cache.Cache
	backend storage.Backend
	ttl     time.Duration
}

func NewStore(c cache.Cache, backend storage.Backend, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Store{
		cache:   c,
		backend: backend,
		ttl:     ttl,
	}
}

// SaveEvidenceBatch builds immutable records for the collected items
// and persists them under analysisID. A single row's durable-write
// failure never fails the batch; the cached copy still counts as
// saved.
func (s *Store) SaveEvidenceBatch(ctx context.Context, analysisID string, items []models.EvidenceItem) []models.EvidenceRecord {
	records := make([]models.EvidenceRecord, 0, len(items))

	for _, item := range items {
		record := models.EvidenceRecord{
			EvidenceID:  uuid.New().String(),
			AnalysisID:  analysisID,
			Source:      item.Source,
			Endpoint:    item.Endpoint,
			EntityRef:   item.EntityRef,
			Payload:     item.Payload,
			PayloadHash: utils.HashPayload(item.Payload),
			FetchedAt:   time.Now(),
		}

		if err := s.cache.Set(ctx, kindEvidence, evidenceKey(record.Source, record.PayloadHash), record, s.ttl); err != nil {
			logger.Warn("Failed to cache evidence record",
				zap.String("evidence_id", record.EvidenceID),
				zap.Error(err),
			)
		}

		if err := s.backend.InsertEvidence(ctx, &record); err != nil {
			metrics.DurableWriteFailures.WithLabelValues("evidence").Inc()
			logger.Warn("Durable evidence write failed, cached copy retained",
				zap.String("evidence_id", record.EvidenceID),
				zap.String("source", record.Source),
				zap.Error(err),
			)
		}

		metrics.EvidenceStored.WithLabelValues(record.Source).Inc()
		records = append(records, record)
	}

	logger.Info("Evidence batch saved",
		zap.String("analysis_id", analysisID),
		zap.Int("count", len(records)),
	)

	return records
}

func (s *Store) SaveAnalysis(ctx context.Context, record *models.AnalysisRecord) {
	if err := s.cache.Set(ctx, kindAnalysis, record.AnalysisID, record, s.ttl); err != nil {
		logger.Warn("Failed to cache analysis record",
			zap.String("analysis_id", record.AnalysisID),
			zap.Error(err),
		)
	}

	if err := s.backend.InsertAnalysis(ctx, record); err != nil {
		metrics.DurableWriteFailures.WithLabelValues("analyses").Inc()
		logger.Warn("Durable analysis write failed, cached copy retained",
			zap.String("analysis_id", record.AnalysisID),
			zap.Error(err),
		)
	}
}

func (s *Store) GetAnalysis(ctx context.Context, analysisID string) (*models.AnalysisRecord, error) {
	var cached models.AnalysisRecord
	hit, err := s.cache.Get(ctx, kindAnalysis, analysisID, &cached)
	if err != nil {
		logger.Warn("Analysis cache read failed", zap.Error(err))
	}
	if hit {
		metrics.CacheHits.WithLabelValues(kindAnalysis).Inc()
		return &cached, nil
	}
	metrics.CacheMisses.WithLabelValues(kindAnalysis).Inc()

	record, err := s.backend.GetAnalysis(ctx, analysisID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, kindAnalysis, analysisID, record, s.ttl); err != nil {
		logger.Warn("Failed to backfill analysis cache", zap.Error(err))
	}

	return record, nil
}

func (s *Store) ListAnalyses(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	return s.backend.ListAnalyses(ctx, limit)
}

func (s *Store) ListEvidence(ctx context.Context, analysisID string) ([]models.EvidenceRecord, error) {
	return s.backend.ListEvidence(ctx, analysisID)
}

// IsPayloadSeen reports whether an identical payload from the same
// source is present in the cache. It never consults the backend: this
// is a fast, approximate dedup hint scoped to the cache TTL window. A
// durably stored payload that expired from the cache reads as not
// seen.
func (s *Store) IsPayloadSeen(ctx context.Context, source string, payload map[string]interface{}) bool {
	var cached models.EvidenceRecord
	hit, err := s.cache.Get(ctx, kindEvidence, evidenceKey(source, utils.HashPayload(payload)), &cached)
	if err != nil {
		logger.Warn("Evidence cache read failed", zap.Error(err))
		return false
	}
	return hit
}

func evidenceKey(source, payloadHash string) string {
	return source + ":" + payloadHash
}
