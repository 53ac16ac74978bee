package narrative

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"

	"eco-monitor/internal/config"
	"eco-monitor/internal/models"
	"eco-monitor/pkg/logging"
	"eco-monitor/pkg/metrics"
)

const chatCompletionsPath = "/openai/v1/chat/completions"

// chatMessage is one turn of an OpenAI-compatible chat request
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the OpenAI-compatible completion request body
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// chatResponse is the completion response envelope
type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// GroqClient generates narrative text through the Groq chat API.
// With no API key configured every call fails fast, which the analysis
// engine absorbs with its fixed fallback text.
type GroqClient struct {
	client      *resty.Client
	model       string
	temperature float64
	maxTokens   int
	apiKey      string
	logger      *logging.StructuredLogger
	metrics     *metrics.Collector
}

// NewGroqClient creates a Groq narrative client
func NewGroqClient(cfg config.NarrativeConfig, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *GroqClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &GroqClient{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		apiKey:      cfg.APIKey,
		logger:      logger,
		metrics:     metricsCollector,
	}
}

// Generate sends one prompt and returns the model's reply
func (c *GroqClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		c.metrics.RecordNarrativeRequest("disabled")
		return "", &models.ExternalServiceError{
			Service: "narrative",
			Err:     errors.New("no API key configured"),
		}
	}

	timer := c.metrics.NewTimer(c.metrics.NarrativeDuration)
	defer timer.ObserveDuration()

	request := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	var response chatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&response).
		SetError(&response).
		Post(chatCompletionsPath)

	if err != nil {
		c.metrics.RecordNarrativeRequest("error")
		return "", &models.ExternalServiceError{Service: "narrative", Err: err}
	}

	if resp.IsError() {
		c.metrics.RecordNarrativeRequest("error")
		reason := resp.Status()
		if response.Error != nil && response.Error.Message != "" {
			reason = response.Error.Message
		}
		return "", &models.ExternalServiceError{
			Service: "narrative",
			Err:     fmt.Errorf("completion request failed: %s", reason),
		}
	}

	if len(response.Choices) == 0 {
		c.metrics.RecordNarrativeRequest("error")
		return "", &models.ExternalServiceError{
			Service: "narrative",
			Err:     errors.New("completion response has no choices"),
		}
	}

	c.metrics.RecordNarrativeRequest("success")
	c.logger.Debug(ctx, "[NARRATIVE_GENERATE] Completion received", logging.Fields{
		"model":       c.model,
		"reply_bytes": len(response.Choices[0].Message.Content),
	})

	return response.Choices[0].Message.Content, nil
}
