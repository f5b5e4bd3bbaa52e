package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage/models"
)

func TestAnalysisRoundTrip(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	record := &models.AnalysisRecord{
		AnalysisID:      "analysis-1",
		ContentID:       "content-1",
		OrgID:           "org-1",
		ContentHash:     "abc123",
		ContentCategory: models.CategoryEntityReview,
		EntityType:      "hotel",
		Summary: models.AnalysisSummary{
			Bundle:          "entity_review_core",
			ContentCategory: models.CategoryEntityReview,
			EvidenceCount:   4,
			Request:         map[string]string{"entity_name": "Grand Plaza"},
		},
		CreatedAt:     time.Now(),
		ConfigVersion: "2024.2",
	}
	require.NoError(t, store.InsertAnalysis(ctx, record))

	got, err := store.GetAnalysis(ctx, "analysis-1")
	require.NoError(t, err)
	assert.Equal(t, record.ContentHash, got.ContentHash)
	assert.Equal(t, record.Summary, got.Summary)
}

func TestGetAnalysisNotFound(t *testing.T) {
	store := NewStore()

	_, err := store.GetAnalysis(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListAnalysesNewestFirstWithLimit(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.InsertAnalysis(ctx, &models.AnalysisRecord{
			AnalysisID: fmt.Sprintf("analysis-%d", i),
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}))
	}

	records, err := store.ListAnalyses(ctx, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "analysis-4", records[0].AnalysisID)
	assert.Equal(t, "analysis-3", records[1].AnalysisID)
	assert.Equal(t, "analysis-2", records[2].AnalysisID)
}

func TestEvidenceAppendsPerAnalysis(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.InsertEvidence(ctx, &models.EvidenceRecord{
			EvidenceID: fmt.Sprintf("evidence-%d", i),
			AnalysisID: "analysis-1",
			Source:     "trustpilot",
			Payload:    map[string]interface{}{"n": float64(i)},
		}))
	}
	require.NoError(t, store.InsertEvidence(ctx, &models.EvidenceRecord{
		EvidenceID: "other",
		AnalysisID: "analysis-2",
	}))

	records, err := store.ListEvidence(ctx, "analysis-1")
	require.NoError(t, err)
	assert.Len(t, records, 3)

	empty, err := store.ListEvidence(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListEvidenceReturnsCopy(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.InsertEvidence(ctx, &models.EvidenceRecord{
		EvidenceID: "evidence-1",
		AnalysisID: "analysis-1",
	}))

	first, err := store.ListEvidence(ctx, "analysis-1")
	require.NoError(t, err)
	first[0].EvidenceID = "mutated"

	second, err := store.ListEvidence(ctx, "analysis-1")
	require.NoError(t, err)
	assert.Equal(t, "evidence-1", second[0].EvidenceID)
}
