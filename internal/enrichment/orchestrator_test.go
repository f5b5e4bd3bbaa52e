package enrichment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/cache"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/evidence"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/sources"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage/memory"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage/models"
)

// stubClient records every fetch and replies with a fixed payload, a
// per-call payload, or an error.
type stubClient struct {
	mu        sync.Mutex
	calls     []sources.FetchRequest
	payload   map[string]interface{}
	payloadFn func(call int) map[string]interface{}
	err       error
}

func (c *stubClient) Fetch(ctx context.Context, req sources.FetchRequest) (map[string]interface{}, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	call := len(c.calls)
	c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	if c.payloadFn != nil {
		return c.payloadFn(call), nil
	}
	return c.payload, nil
}

func (c *stubClient) endpoints() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.calls))
	for _, call := range c.calls {
		out = append(out, call.Endpoint)
	}
	return out
}

func (c *stubClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

type testEnv struct {
	orchestrator *Orchestrator
	store        *evidence.Store
	backend      *memory.Store
	google       *stubClient
	tripadvisor  *stubClient
	trustpilot   *stubClient
	social       *stubClient
	sentiment    *stubClient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		backend:     memory.NewStore(),
		google:      &stubClient{payload: map[string]interface{}{"items_count": 1}},
		tripadvisor: &stubClient{payload: map[string]interface{}{"items_count": 2}},
		trustpilot:  &stubClient{payload: map[string]interface{}{"items_count": 3}},
		social:      &stubClient{payload: map[string]interface{}{"mention_count": 4}},
		sentiment:   &stubClient{payload: map[string]interface{}{"sentiment": "positive"}},
	}

	registry := sources.NewRegistry()
	registry.Register(sources.Google, env.google)
	registry.Register(sources.Tripadvisor, env.tripadvisor)
	registry.Register(sources.Trustpilot, env.trustpilot)
	registry.Register(sources.SocialMentions, env.social)
	registry.Register(sources.Sentiment, env.sentiment)

	env.store = evidence.NewStore(cache.NewMemoryCache(), env.backend, time.Minute)
	env.orchestrator = NewOrchestrator(env.store, NewDispatcher(registry), "test")
	return env
}

func fullRequest() *models.ContentAnalysisRequest {
	return &models.ContentAnalysisRequest{
		Content:               "The Grand Plaza remains the city's most reviewed hotel.",
		OrgID:                 "org-1",
		UserID:                "user-1",
		ContentFormat:         "blog_post",
		ContentCategory:       models.CategoryEntityReview,
		EntityType:            "hotel",
		EntityName:            "Grand Plaza",
		GoogleCID:             "123456789",
		GoogleHotelIdentifier: "hotel-gp-1",
		TripadvisorURLPath:    "Hotel_Review-g1-d1",
		TrustpilotDomain:      "grandplaza.example",
	}
}

func TestAnalyze_FullBundle(t *testing.T) {
	env := newTestEnv(t)
	req := fullRequest()

	result, err := env.orchestrator.Analyze(context.Background(), req)
	require.NoError(t, err)

	// All 8 entity_review endpoints are satisfied by a full request.
	assert.Equal(t, 8, result.EvidenceCount)
	assert.Equal(t, "entity_review_core", result.Bundle)
	assert.NotEmpty(t, result.AnalysisID)
	assert.NotEmpty(t, result.ContentID)

	records, err := env.store.ListEvidence(context.Background(), result.AnalysisID)
	require.NoError(t, err)
	assert.Len(t, records, 8)

	stored, err := env.store.GetAnalysis(context.Background(), result.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, req.ContentHash(), stored.ContentHash)
	assert.Equal(t, models.CategoryEntityReview, stored.ContentCategory)
	assert.Equal(t, 8, stored.Summary.EvidenceCount)
	assert.Empty(t, stored.Summary.Request["content"], "snapshot must not carry content")
	assert.Equal(t, "123456789", stored.Summary.Request[models.KeyGoogleCID])
}

func TestAnalyze_PartialFailure(t *testing.T) {
	env := newTestEnv(t)
	// Google's four endpoints all raise; the other four succeed.
	env.google.err = errors.New("rate limited")

	result, err := env.orchestrator.Analyze(context.Background(), fullRequest())
	require.NoError(t, err, "per-endpoint failures must not propagate")
	assert.Equal(t, 4, result.EvidenceCount)
}

func TestAnalyze_NoSatisfiedEndpoints(t *testing.T) {
	env := newTestEnv(t)
	req := &models.ContentAnalysisRequest{
		Content:         "Generic article with no identifiers.",
		ContentCategory: models.CategoryEntityReview,
	}

	result, err := env.orchestrator.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, result.EvidenceCount)

	for name, stub := range map[string]*stubClient{
		"google":      env.google,
		"tripadvisor": env.tripadvisor,
		"trustpilot":  env.trustpilot,
		"social":      env.social,
		"sentiment":   env.sentiment,
	} {
		assert.Zero(t, stub.callCount(), "no dispatch expected for %s", name)
	}
}

func TestAnalyze_GoogleCIDOnly(t *testing.T) {
	env := newTestEnv(t)
	req := &models.ContentAnalysisRequest{
		Content:         "Local business roundup.",
		ContentCategory: models.CategoryEntityReview,
		GoogleCID:       "123",
	}

	result, err := env.orchestrator.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, result.EvidenceCount)

	assert.ElementsMatch(t, []string{
		"business_data/google/my_business_info",
		"business_data/google/reviews",
		"business_data/google/questions_and_answers",
	}, env.google.endpoints())

	assert.Zero(t, env.tripadvisor.callCount())
	assert.Zero(t, env.trustpilot.callCount())
	assert.Zero(t, env.social.callCount())
	assert.Zero(t, env.sentiment.callCount())
}

func TestAnalyze_UnknownCategory(t *testing.T) {
	env := newTestEnv(t)
	req := &models.ContentAnalysisRequest{
		ContentCategory: models.ContentCategory("newsletter"),
	}

	_, err := env.orchestrator.Analyze(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCategory))
}

func TestAnalyze_EntityRefOnEvidence(t *testing.T) {
	env := newTestEnv(t)
	req := fullRequest()

	result, err := env.orchestrator.Analyze(context.Background(), req)
	require.NoError(t, err)

	records, err := env.store.ListEvidence(context.Background(), result.AnalysisID)
	require.NoError(t, err)

	refs := make(map[string]string)
	for _, record := range records {
		refs[record.Endpoint] = record.EntityRef
	}

	assert.Equal(t, "123456789", refs["business_data/google/reviews"])
	assert.Equal(t, "hotel-gp-1", refs["business_data/google/hotel_info"])
	assert.Equal(t, "grandplaza.example", refs["business_data/trustpilot/reviews"])
	assert.Equal(t, "Grand Plaza", refs["sentiment/entity"])
}

func TestRefresh_AppendsWithoutNewAnalysis(t *testing.T) {
	env := newTestEnv(t)
	// Every fetch returns a fresh payload so refreshes always observe deltas.
	for _, stub := range []*stubClient{env.google, env.tripadvisor, env.trustpilot, env.social, env.sentiment} {
		stub.payloadFn = func(call int) map[string]interface{} {
			return map[string]interface{}{"observation": fmt.Sprintf("delta-%d", call)}
		}
	}

	req := fullRequest()
	result, err := env.orchestrator.Analyze(context.Background(), req)
	require.NoError(t, err)

	before, err := env.store.GetAnalysis(context.Background(), result.AnalysisID)
	require.NoError(t, err)

	refreshed, err := env.orchestrator.Refresh(context.Background(), result.AnalysisID, req)
	require.NoError(t, err)
	assert.Equal(t, result.AnalysisID, refreshed.AnalysisID)
	assert.Equal(t, 8, refreshed.NewEvidence)

	after, err := env.store.GetAnalysis(context.Background(), result.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, before.CreatedAt.Unix(), after.CreatedAt.Unix())
	assert.Equal(t, before.Summary, after.Summary)

	analyses, err := env.backend.ListAnalyses(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, analyses, 1, "refresh must not create a new analysis record")

	records, err := env.store.ListEvidence(context.Background(), result.AnalysisID)
	require.NoError(t, err)
	assert.Len(t, records, 16)
}

func TestRefresh_DropsSeenPayloads(t *testing.T) {
	env := newTestEnv(t)
	req := fullRequest()

	result, err := env.orchestrator.Analyze(context.Background(), req)
	require.NoError(t, err)

	// Stubs return identical payloads, so every refetch is already in
	// the cache window.
	refreshed, err := env.orchestrator.Refresh(context.Background(), result.AnalysisID, req)
	require.NoError(t, err)
	assert.Equal(t, 0, refreshed.NewEvidence)

	records, err := env.store.ListEvidence(context.Background(), result.AnalysisID)
	require.NoError(t, err)
	assert.Len(t, records, 8)
}

func TestRefreshFromSaved(t *testing.T) {
	env := newTestEnv(t)
	req := fullRequest()

	result, err := env.orchestrator.Analyze(context.Background(), req)
	require.NoError(t, err)
	originalDispatches := env.google.endpoints()

	_, err = env.orchestrator.RefreshFromSaved(context.Background(), result.AnalysisID)
	require.NoError(t, err)

	// The snapshot reproduces the exact same dispatch set. Fan-out
	// order is not deterministic, so compare as multisets.
	expected := make([]string, 0, len(originalDispatches)*2)
	expected = append(expected, originalDispatches...)
	expected = append(expected, originalDispatches...)
	assert.ElementsMatch(t, expected, env.google.endpoints())

	for _, call := range env.google.calls {
		assert.Equal(t, "org-1", call.OrgID)
	}
}

func TestRefreshFromSaved_MissingAnalysis(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.orchestrator.RefreshFromSaved(context.Background(), "no-such-id")
	require.Error(t, err)
}

func TestRefreshFromSaved_NoSnapshot(t *testing.T) {
	env := newTestEnv(t)

	record := &models.AnalysisRecord{
		AnalysisID:      "bare-analysis",
		ContentID:       "content-1",
		ContentHash:     "abc",
		ContentCategory: models.CategoryEntityReview,
		CreatedAt:       time.Now(),
	}
	require.NoError(t, env.backend.InsertAnalysis(context.Background(), record))

	_, err := env.orchestrator.RefreshFromSaved(context.Background(), "bare-analysis")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSnapshot))
}
