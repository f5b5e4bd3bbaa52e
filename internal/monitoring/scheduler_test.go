package monitoring

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/cache"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/enrichment"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/evidence"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/sources"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage/memory"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage/models"
)

// countingClient returns a fresh payload per call so every refresh
// observes a delta.
type countingClient struct {
	mu    sync.Mutex
	calls int
}

func (c *countingClient) Fetch(ctx context.Context, req sources.FetchRequest) (map[string]interface{}, error) {
	c.mu.Lock()
	c.calls++
	call := c.calls
	c.mu.Unlock()

	return map[string]interface{}{"observation": fmt.Sprintf("delta-%d", call)}, nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *enrichment.Orchestrator, *evidence.Store, *memory.Store) {
	t.Helper()

	backend := memory.NewStore()
	store := evidence.NewStore(cache.NewMemoryCache(), backend, time.Minute)

	registry := sources.NewRegistry()
	registry.Register(sources.Trustpilot, &countingClient{})
	registry.Register(sources.SocialMentions, &countingClient{})
	registry.Register(sources.Sentiment, &countingClient{})

	orchestrator := enrichment.NewOrchestrator(store, enrichment.NewDispatcher(registry), "test")

	scheduler, err := NewScheduler(store, orchestrator, 2)
	require.NoError(t, err)
	t.Cleanup(scheduler.Close)

	return scheduler, orchestrator, store, backend
}

func TestRun_RefreshesStoredAnalyses(t *testing.T) {
	scheduler, orchestrator, _, _ := newTestScheduler(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		req := &models.ContentAnalysisRequest{
			Content:          fmt.Sprintf("comparison draft %d", i),
			OrgID:            "org-1",
			ContentCategory:  models.CategoryProductComparison,
			EntityName:       fmt.Sprintf("Widget %d", i),
			TrustpilotDomain: fmt.Sprintf("widget%d.example", i),
		}
		_, err := orchestrator.Analyze(ctx, req)
		require.NoError(t, err)
	}

	report, err := scheduler.Run(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 3, report.Updated)
}

func TestRun_RespectsLimit(t *testing.T) {
	scheduler, orchestrator, _, _ := newTestScheduler(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		req := &models.ContentAnalysisRequest{
			Content:         fmt.Sprintf("draft %d", i),
			ContentCategory: models.CategoryProductComparison,
			EntityName:      fmt.Sprintf("Widget %d", i),
		}
		_, err := orchestrator.Analyze(ctx, req)
		require.NoError(t, err)
	}

	report, err := scheduler.Run(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Attempted)
}

func TestRun_ContinuesPastBadAnalyses(t *testing.T) {
	scheduler, orchestrator, _, backend := newTestScheduler(t)
	ctx := context.Background()

	req := &models.ContentAnalysisRequest{
		Content:         "healthy draft",
		ContentCategory: models.CategoryProductComparison,
		EntityName:      "Widget",
	}
	_, err := orchestrator.Analyze(ctx, req)
	require.NoError(t, err)

	// A record without a snapshot cannot be refreshed; the run must
	// absorb the failure and keep going.
	require.NoError(t, backend.InsertAnalysis(ctx, &models.AnalysisRecord{
		AnalysisID:      "bare-analysis",
		ContentID:       "content-x",
		ContentHash:     "abc",
		ContentCategory: models.CategoryProductComparison,
		CreatedAt:       time.Now(),
	}))

	report, err := scheduler.Run(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 1, report.Updated)
}

func TestRun_EmptyStore(t *testing.T) {
	scheduler, _, _, _ := newTestScheduler(t)

	report, err := scheduler.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, report.Attempted)
	assert.Zero(t, report.Updated)
}
