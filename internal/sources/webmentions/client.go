// Package webmentions backs the social_mentions source with a search
// scrape: entity searches for mentions/search, link queries for
// mentions/page.
package webmentions

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/sources"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage/models"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/pkg/logger"
)

type Client struct {
	httpClient *http.Client
	maxResults int
}

func NewClient(maxResults int, timeout time.Duration) *Client {
	if maxResults <= 0 {
		maxResults = 5
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxResults: maxResults,
	}
}

func (c *Client) Fetch(ctx context.Context, req sources.FetchRequest) (map[string]interface{}, error) {
	query, err := buildQuery(req)
	if err != nil {
		return nil, err
	}

	mentions, err := c.scrapeMentions(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape mentions: %w", err)
	}

	logger.Debug("Mentions scraped",
		zap.String("query", query),
		zap.Int("mentions", len(mentions)),
	)

	return map[string]interface{}{
		"endpoint":      req.Endpoint,
		"query":         query,
		"mentions":      mentions,
		"mention_count": len(mentions),
	}, nil
}

func buildQuery(req sources.FetchRequest) (string, error) {
	switch req.Endpoint {
	case "mentions/page":
		canonical := req.Identifiers[models.KeyCanonicalURL]
		if canonical == "" {
			return "", fmt.Errorf("canonical_url identifier is empty")
		}
		return fmt.Sprintf("link:%s", canonical), nil
	default:
		entity := req.Identifiers[models.KeyEntityName]
		if entity == "" {
			return "", fmt.Errorf("entity_name identifier is empty")
		}
		return fmt.Sprintf("%q reviews OR mentions", entity), nil
	}
}

func (c *Client) scrapeMentions(ctx context.Context, query string) ([]map[string]interface{}, error) {
	searchURL := fmt.Sprintf("https://www.google.com/search?q=%s&num=%d",
		url.QueryEscape(query), c.maxResults)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	mentions := make([]map[string]interface{}, 0, c.maxResults)
	doc.Find("div.g").Each(func(i int, s *goquery.Selection) {
		if i >= c.maxResults {
			return
		}

		title := strings.TrimSpace(s.Find("h3").Text())
		link, _ := s.Find("a").Attr("href")
		snippet := strings.TrimSpace(s.Find("div.VwiC3b").Text())

		if title != "" && link != "" {
			mentions = append(mentions, map[string]interface{}{
				"title":   title,
				"url":     link,
				"snippet": snippet,
			})
		}
	})

	return mentions, nil
}
