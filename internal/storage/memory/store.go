// Package memory is the development fallback backend, used only when
// no durable store is configured. Nothing here survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage/models"
)

type Store struct {
	mu       sync.RWMutex
	analyses map[string]models.AnalysisRecord
	evidence map[string][]models.EvidenceRecord
}

func NewStore() *Store {
	return &Store{
		analyses: make(map[string]models.AnalysisRecord),
		evidence: make(map[string][]models.EvidenceRecord),
	}
}

func (s *Store) InsertAnalysis(ctx context.Context, record *models.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.analyses[record.AnalysisID] = *record
	return nil
}

func (s *Store) GetAnalysis(ctx context.Context, analysisID string) (*models.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.analyses[analysisID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &record, nil
}

func (s *Store) ListAnalyses(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.AnalysisRecord, 0, len(s.analyses))
	for _, record := range s.analyses {
		records = append(records, record)
	}

	// Newest first, matching the durable store's ordering.
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *Store) InsertEvidence(ctx context.Context, record *models.EvidenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evidence[record.AnalysisID] = append(s.evidence[record.AnalysisID], *record)
	return nil
}

func (s *Store) ListEvidence(ctx context.Context, analysisID string) ([]models.EvidenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.evidence[analysisID]
	out := make([]models.EvidenceRecord, len(records))
	copy(out, records)
	return out, nil
}
