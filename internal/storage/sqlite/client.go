package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage/models"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		analysis_id TEXT PRIMARY KEY,
		content_id TEXT NOT NULL,
		org_id TEXT,
		content_hash TEXT NOT NULL,
		content_category TEXT NOT NULL,
		entity_type TEXT,
		summary TEXT NOT NULL,
		config_version TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_org ON analyses(org_id);
	CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);
	CREATE INDEX IF NOT EXISTS idx_analyses_content_hash ON analyses(content_hash);

	-- No FK to analyses: evidence batches land before their analysis row.
	CREATE TABLE IF NOT EXISTS evidence (
		evidence_id TEXT PRIMARY KEY,
		analysis_id TEXT NOT NULL,
		source TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		entity_ref TEXT,
		payload TEXT NOT NULL,
		payload_hash TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_evidence_analysis ON evidence(analysis_id);
	CREATE INDEX IF NOT EXISTS idx_evidence_source_hash ON evidence(source, payload_hash);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertAnalysis(ctx context.Context, record *models.AnalysisRecord) error {
	summaryJSON, err := json.Marshal(record.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	query := `
		INSERT INTO analyses (analysis_id, content_id, org_id, content_hash, content_category,
			entity_type, summary, config_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = c.db.ExecContext(
		ctx,
		query,
		record.AnalysisID,
		record.ContentID,
		record.OrgID,
		record.ContentHash,
		string(record.ContentCategory),
		record.EntityType,
		string(summaryJSON),
		record.ConfigVersion,
		record.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	logger.Debug("Analysis inserted",
		zap.String("analysis_id", record.AnalysisID),
		zap.String("content_category", string(record.ContentCategory)),
	)
	return nil
}

func (c *Client) GetAnalysis(ctx context.Context, analysisID string) (*models.AnalysisRecord, error) {
	query := `
		SELECT analysis_id, content_id, org_id, content_hash, content_category,
			entity_type, summary, config_version, created_at
		FROM analyses WHERE analysis_id = ?
	`

	var record models.AnalysisRecord
	var category, summaryJSON string
	var createdAt int64

	err := c.db.QueryRowContext(ctx, query, analysisID).Scan(
		&record.AnalysisID,
		&record.ContentID,
		&record.OrgID,
		&record.ContentHash,
		&category,
		&record.EntityType,
		&summaryJSON,
		&record.ConfigVersion,
		&createdAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	record.ContentCategory = models.ContentCategory(category)
	record.CreatedAt = time.Unix(createdAt, 0)

	if err := json.Unmarshal([]byte(summaryJSON), &record.Summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}

	return &record, nil
}

func (c *Client) ListAnalyses(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	query := `
		SELECT analysis_id, content_id, org_id, content_hash, content_category,
			entity_type, summary, config_version, created_at
		FROM analyses
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var records []models.AnalysisRecord
	for rows.Next() {
		var record models.AnalysisRecord
		var category, summaryJSON string
		var createdAt int64

		err := rows.Scan(
			&record.AnalysisID,
			&record.ContentID,
			&record.OrgID,
			&record.ContentHash,
			&category,
			&record.EntityType,
			&summaryJSON,
			&record.ConfigVersion,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		record.ContentCategory = models.ContentCategory(category)
		record.CreatedAt = time.Unix(createdAt, 0)

		if err := json.Unmarshal([]byte(summaryJSON), &record.Summary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

func (c *Client) InsertEvidence(ctx context.Context, record *models.EvidenceRecord) error {
	payloadJSON, err := json.Marshal(record.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO evidence (evidence_id, analysis_id, source, endpoint, entity_ref,
			payload, payload_hash, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = c.db.ExecContext(
		ctx,
		query,
		record.EvidenceID,
		record.AnalysisID,
		record.Source,
		record.Endpoint,
		record.EntityRef,
		string(payloadJSON),
		record.PayloadHash,
		record.FetchedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert evidence: %w", err)
	}

	return nil
}

func (c *Client) ListEvidence(ctx context.Context, analysisID string) ([]models.EvidenceRecord, error) {
	query := `
		SELECT evidence_id, analysis_id, source, endpoint, entity_ref, payload, payload_hash, fetched_at
		FROM evidence
		WHERE analysis_id = ?
		ORDER BY fetched_at ASC, evidence_id ASC
	`

	rows, err := c.db.QueryContext(ctx, query, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence: %w", err)
	}
	defer rows.Close()

	var records []models.EvidenceRecord
	for rows.Next() {
		var record models.EvidenceRecord
		var payloadJSON string
		var fetchedAt int64

		err := rows.Scan(
			&record.EvidenceID,
			&record.AnalysisID,
			&record.Source,
			&record.Endpoint,
			&record.EntityRef,
			&payloadJSON,
			&record.PayloadHash,
			&fetchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		record.FetchedAt = time.Unix(fetchedAt, 0)

		if err := json.Unmarshal([]byte(payloadJSON), &record.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}

		records = append(records, record)
	}

	return records, rows.Err()
}
