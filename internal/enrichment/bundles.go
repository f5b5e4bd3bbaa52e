package enrichment

import (
	"errors"
	"fmt"

	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/sources"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage/models"
)

// ErrUnknownCategory means the caller passed a category outside the
// closed set. That is a programming error upstream, not a condition
// the pipeline recovers from.
var ErrUnknownCategory = errors.New("no source bundle for content category")

// SourceEndpoint declares one external call: which source, which
// logical endpoint, and the request fields that must all be present
// for the endpoint to be dispatched.
type SourceEndpoint struct {
	Source         sources.Name
	Endpoint       string
	IdentifierKeys []string
	Live           bool
}

// SatisfiedBy reports whether every declared identifier is present and
// non-empty on the request.
func (e SourceEndpoint) SatisfiedBy(req *models.ContentAnalysisRequest) bool {
	for _, key := range e.IdentifierKeys {
		if req.Identifier(key) == "" {
			return false
		}
	}
	return true
}

// EntityRef resolves a human-decodable reference for evidence rows:
// the first non-empty identifier value in declared order, falling back
// to the request's entity name. First declared wins.
func (e SourceEndpoint) EntityRef(req *models.ContentAnalysisRequest) string {
	for _, key := range e.IdentifierKeys {
		if value := req.Identifier(key); value != "" {
			return value
		}
	}
	return req.EntityName
}

// SourceBundle is the ordered set of endpoints appropriate to one
// content category.
type SourceBundle struct {
	Name      string
	Endpoints []SourceEndpoint
	Notes     string
}

// The bundle table decouples "what sources apply to this content type"
// from "how to call each source". Adding a category means adding a
// row here, not touching dispatch code.
var bundles = map[models.ContentCategory]SourceBundle{
	models.CategoryEntityReview: {
		Name: "entity_review_core",
		Endpoints: []SourceEndpoint{
			{Source: sources.Google, Endpoint: "business_data/google/my_business_info", IdentifierKeys: []string{models.KeyGoogleCID}, Live: true},
			{Source: sources.Google, Endpoint: "business_data/google/reviews", IdentifierKeys: []string{models.KeyGoogleCID}, Live: true},
			{Source: sources.Google, Endpoint: "business_data/google/questions_and_answers", IdentifierKeys: []string{models.KeyGoogleCID}, Live: true},
			{Source: sources.Google, Endpoint: "business_data/google/hotel_info", IdentifierKeys: []string{models.KeyGoogleHotelIdentifier}, Live: true},
			{Source: sources.Tripadvisor, Endpoint: "business_data/tripadvisor/reviews", IdentifierKeys: []string{models.KeyTripadvisorURLPath}, Live: true},
			{Source: sources.Trustpilot, Endpoint: "business_data/trustpilot/reviews", IdentifierKeys: []string{models.KeyTrustpilotDomain}, Live: true},
			{Source: sources.SocialMentions, Endpoint: "mentions/search", IdentifierKeys: []string{models.KeyEntityName}, Live: true},
			{Source: sources.Sentiment, Endpoint: "sentiment/entity", IdentifierKeys: []string{models.KeyEntityName}, Live: false},
		},
		Notes: "Review profiles, Q&A and social signal for a single named entity.",
	},
	models.CategoryServiceReview: {
		Name: "service_review_core",
		Endpoints: []SourceEndpoint{
			{Source: sources.Trustpilot, Endpoint: "business_data/trustpilot/reviews", IdentifierKeys: []string{models.KeyTrustpilotDomain}, Live: true},
			{Source: sources.Google, Endpoint: "business_data/google/my_business_info", IdentifierKeys: []string{models.KeyGoogleCID}, Live: true},
			{Source: sources.Google, Endpoint: "business_data/google/reviews", IdentifierKeys: []string{models.KeyGoogleCID}, Live: true},
			{Source: sources.SocialMentions, Endpoint: "mentions/page", IdentifierKeys: []string{models.KeyCanonicalURL}, Live: true},
			{Source: sources.SocialMentions, Endpoint: "mentions/search", IdentifierKeys: []string{models.KeyEntityName}, Live: true},
			{Source: sources.Sentiment, Endpoint: "sentiment/entity", IdentifierKeys: []string{models.KeyEntityName}, Live: false},
		},
		Notes: "Service reputation: trust scores first, then review volume and mentions.",
	},
	models.CategoryProductComparison: {
		Name: "product_comparison_core",
		Endpoints: []SourceEndpoint{
			{Source: sources.SocialMentions, Endpoint: "mentions/search", IdentifierKeys: []string{models.KeyEntityName}, Live: true},
			{Source: sources.Sentiment, Endpoint: "sentiment/entity", IdentifierKeys: []string{models.KeyEntityName}, Live: false},
			{Source: sources.Trustpilot, Endpoint: "business_data/trustpilot/reviews", IdentifierKeys: []string{models.KeyTrustpilotDomain}, Live: true},
			{Source: sources.SocialMentions, Endpoint: "mentions/page", IdentifierKeys: []string{models.KeyCanonicalURL}, Live: true},
		},
		Notes: "Comparisons lean on social signal; seller trust data when a domain is known.",
	},
}

// ResolveBundle is a pure, static lookup over the closed category set.
func ResolveBundle(category models.ContentCategory) (SourceBundle, error) {
	bundle, ok := bundles[category]
	if !ok {
		return SourceBundle{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return bundle, nil
}
