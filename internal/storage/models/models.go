package models

import (
	"time"

	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/pkg/utils"
)

// ContentCategory is a closed set; each category maps to exactly one
// source bundle in the enrichment registry.
type ContentCategory string

const (
	CategoryEntityReview      ContentCategory = "entity_review"
	CategoryServiceReview     ContentCategory = "service_review"
	CategoryProductComparison ContentCategory = "product_comparison"
)

// Identifier field names referenced by bundle endpoint declarations.
const (
	KeyGoogleCID             = "google_cid"
	KeyGoogleHotelIdentifier = "google_hotel_identifier"
	KeyTripadvisorURLPath    = "tripadvisor_url_path"
	KeyTrustpilotDomain      = "trustpilot_domain"
	KeyCanonicalURL          = "canonical_url"
	KeyEntityName            = "entity_name"
)

type ContentAnalysisRequest struct {
	Content         string
	OrgID           string
	UserID          string
	ContentFormat   string
	ContentCategory ContentCategory
	EntityType      string
	EntityName      string

	GoogleCID             string
	GoogleHotelIdentifier string
	TripadvisorURLPath    string
	TrustpilotDomain      string
	CanonicalURL          string
}

// ContentHash is a deterministic digest of the content body, used as a
// reuse/cache key. Storage does not enforce it as a uniqueness
// constraint.
func (r *ContentAnalysisRequest) ContentHash() string {
	return utils.HashString(r.Content)
}

// Identifier returns the request field named by a bundle identifier
// key, or "" for unknown keys.
func (r *ContentAnalysisRequest) Identifier(key string) string {
	switch key {
	case KeyGoogleCID:
		return r.GoogleCID
	case KeyGoogleHotelIdentifier:
		return r.GoogleHotelIdentifier
	case KeyTripadvisorURLPath:
		return r.TripadvisorURLPath
	case KeyTrustpilotDomain:
		return r.TrustpilotDomain
	case KeyCanonicalURL:
		return r.CanonicalURL
	case KeyEntityName:
		return r.EntityName
	default:
		return ""
	}
}

// Snapshot returns a redacted copy of the request with the content
// body stripped. It retains every identifier field any bundle endpoint
// could need: the snapshot is the sole input to a later refresh.
func (r *ContentAnalysisRequest) Snapshot() map[string]string {
	return map[string]string{
		"org_id":                r.OrgID,
		"user_id":               r.UserID,
		"content_format":        r.ContentFormat,
		"content_category":      string(r.ContentCategory),
		"entity_type":           r.EntityType,
		KeyEntityName:           r.EntityName,
		KeyGoogleCID:            r.GoogleCID,
		KeyGoogleHotelIdentifier: r.GoogleHotelIdentifier,
		KeyTripadvisorURLPath:   r.TripadvisorURLPath,
		KeyTrustpilotDomain:     r.TrustpilotDomain,
		KeyCanonicalURL:         r.CanonicalURL,
	}
}

// RequestFromSnapshot rebuilds a request from a stored snapshot. The
// content body is intentionally empty; re-fetching source data never
// needs it.
func RequestFromSnapshot(snap map[string]string) ContentAnalysisRequest {
	return ContentAnalysisRequest{
		OrgID:                 snap["org_id"],
		UserID:                snap["user_id"],
		ContentFormat:         snap["content_format"],
		ContentCategory:       ContentCategory(snap["content_category"]),
		EntityType:            snap["entity_type"],
		EntityName:            snap[KeyEntityName],
		GoogleCID:             snap[KeyGoogleCID],
		GoogleHotelIdentifier: snap[KeyGoogleHotelIdentifier],
		TripadvisorURLPath:    snap[KeyTripadvisorURLPath],
		TrustpilotDomain:      snap[KeyTrustpilotDomain],
		CanonicalURL:          snap[KeyCanonicalURL],
	}
}

// EvidenceItem is one successful dispatch result before persistence.
type EvidenceItem struct {
	Source    string
	Endpoint  string
	EntityRef string
	Payload   map[string]interface{}
}

// EvidenceRecord is immutable once written.
type EvidenceRecord struct {
	EvidenceID  string
	AnalysisID  string
	Source      string
	Endpoint    string
	EntityRef   string
	Payload     map[string]interface{}
	PayloadHash string
	FetchedAt   time.Time
}

type AnalysisSummary struct {
	Bundle          string            `json:"bundle"`
	ContentCategory ContentCategory   `json:"content_category"`
	EntityType      string            `json:"entity_type,omitempty"`
	EvidenceCount   int               `json:"evidence_count"`
	Request         map[string]string `json:"request"`
}

type AnalysisRecord struct {
	AnalysisID      string
	ContentID       string
	OrgID           string
	ContentHash     string
	ContentCategory ContentCategory
	EntityType      string
	Summary         AnalysisSummary
	CreatedAt       time.Time
	ConfigVersion   string
}
