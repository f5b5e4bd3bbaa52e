// Package sentiment scores public sentiment for a named entity via an
// LLM, exposed through the same sources.Client contract as every other
// provider.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/sources"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage/models"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/pkg/circuitbreaker"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/pkg/logger"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/pkg/retry"
)

const systemPrompt = `You are a brand reputation analyst. Assess the current public sentiment for the named entity.

Return ONLY a JSON object:
{"sentiment": "positive|neutral|negative", "score": 0.0, "themes": ["..."], "summary": "one sentence"}`

type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewClient(apiKey, model string, temperature float32, maxTokens int, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	cb := circuitbreaker.NewCircuitBreaker("sentiment", circuitbreaker.Config{
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

	logger.Info("Sentiment client initialized", zap.String("model", model))

	return &Client{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
		cb:          cb,
		retryConfig: retryConfig,
	}
}

func (c *Client) Fetch(ctx context.Context, req sources.FetchRequest) (map[string]interface{}, error) {
	entity := req.Identifiers[models.KeyEntityName]
	if entity == "" {
		return nil, fmt.Errorf("entity_name identifier is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var content string

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model: c.model,
					Messages: []openai.ChatCompletionMessage{
						{
							Role:    openai.ChatMessageRoleSystem,
							Content: systemPrompt,
						},
						{
							Role:    openai.ChatMessageRoleUser,
							Content: fmt.Sprintf("Entity: %s", entity),
						},
					},
					Temperature: c.temperature,
					MaxTokens:   c.maxTokens,
				},
			)
			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}

			content = resp.Choices[0].Message.Content
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	payload := parseSentiment(content)
	payload["endpoint"] = req.Endpoint
	payload["entity"] = entity

	logger.Debug("Sentiment scored",
		zap.String("entity", entity),
		zap.Any("sentiment", payload["sentiment"]),
	)

	return payload, nil
}

// parseSentiment tolerates fenced or prefixed model output; anything
// unparseable is kept raw so the evidence row still carries the
// response.
func parseSentiment(content string) map[string]interface{} {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		trimmed = trimmed[start : end+1]
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return map[string]interface{}{
			"raw": content,
		}
	}
	return parsed
}
