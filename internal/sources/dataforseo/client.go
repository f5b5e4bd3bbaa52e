// Package dataforseo implements the sources.Client contract for the
// review-data provider backing the google, tripadvisor and trustpilot
// endpoints. All endpoints share one wire shape: POST a single-task
// JSON array, read the first task's result.
package dataforseo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/sources"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/pkg/circuitbreaker"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/pkg/logger"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/pkg/retry"
)

type Client struct {
	baseURL     string
	login       string
	password    string
	httpClient  *http.Client
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewClient(baseURL, login, password string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	cb := circuitbreaker.NewCircuitBreaker("dataforseo", circuitbreaker.Config{
		MaxRequests:      5,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("DataForSEO client initialized", zap.String("base_url", baseURL))

	return &Client{
		baseURL:  baseURL,
		login:    login,
		password: password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cb:          cb,
		retryConfig: retryConfig,
	}
}

type taskResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []struct {
		StatusCode    int                      `json:"status_code"`
		StatusMessage string                   `json:"status_message"`
		Result        []map[string]interface{} `json:"result"`
	} `json:"tasks"`
}

func (c *Client) Fetch(ctx context.Context, req sources.FetchRequest) (map[string]interface{}, error) {
	task := make(map[string]interface{}, len(req.Identifiers)+1)
	for key, value := range req.Identifiers {
		task[key] = value
	}
	if req.OrgID != "" {
		task["tag"] = req.OrgID
	}

	body, err := json.Marshal([]map[string]interface{}{task})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v3/%s", c.baseURL, req.Endpoint)
	if req.Live {
		endpoint += "/live"
	}

	var payload map[string]interface{}

	err = c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}
			httpReq.SetBasicAuth(c.login, c.password)
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return fmt.Errorf("failed to post task: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("provider returned status %d", resp.StatusCode)
			}

			respBody, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			var parsed taskResponse
			if err := json.Unmarshal(respBody, &parsed); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if len(parsed.Tasks) == 0 {
				return fmt.Errorf("provider returned no tasks")
			}

			taskResult := parsed.Tasks[0]
			if taskResult.StatusCode >= 40000 {
				return fmt.Errorf("task failed: %s (%d)", taskResult.StatusMessage, taskResult.StatusCode)
			}

			payload = map[string]interface{}{
				"endpoint":    req.Endpoint,
				"items":       taskResult.Result,
				"items_count": len(taskResult.Result),
			}

			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	logger.Debug("Provider task completed",
		zap.String("endpoint", req.Endpoint),
		zap.Any("items_count", payload["items_count"]),
	)

	return payload, nil
}
