package storage

import (
	"context"
	"errors"

	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage/models"
)

var ErrNotFound = errors.New("record not found")

// Backend is the durable half of the evidence store. Exactly one
// implementation is selected at construction: sqlite when a database
// is configured, the in-memory fallback otherwise.
type Backend interface {
	InsertAnalysis(ctx context.Context, record *models.AnalysisRecord) error
	GetAnalysis(ctx context.Context, analysisID string) (*models.AnalysisRecord, error)
	ListAnalyses(ctx context.Context, limit int) ([]models.AnalysisRecord, error)
	InsertEvidence(ctx context.Context, record *models.EvidenceRecord) error
	ListEvidence(ctx context.Context, analysisID string) ([]models.EvidenceRecord, error)
}
