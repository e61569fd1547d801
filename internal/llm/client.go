// Copyright 2025 Review Feedback Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package llm generates review enrichment content through the Gemini API.
// Every provider failure is absorbed into deterministic rating-banded
// fallback content; callers never observe an error from this package.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// GeminiOpenAIEndpoint is the OpenAI-compatible endpoint of the Gemini API
	GeminiOpenAIEndpoint = "https://generativelanguage.googleapis.com/v1beta/openai/"
	// DefaultModel is the generation model used when none is configured
	DefaultModel = "gemini-2.0-flash"
	// DefaultTimeout bounds each provider call so requests never hang
	DefaultTimeout = 20 * time.Second
	// MaxSuggestedActions caps the action list returned to callers
	MaxSuggestedActions = 3
	// completionTemperature keeps replies consistent in tone
	completionTemperature = 0.4
	// completionMaxTokens is ample for 2-3 sentence outputs
	completionMaxTokens = 300
)

// completionAPI is the slice of the provider client used by the generator
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Result is the outcome of a text generation. Degraded marks content that
// came from the static fallback instead of the provider, with Reason
// recording why.
type Result struct {
	Text     string
	Degraded bool
	Reason   string
}

// ActionsResult is the outcome of a suggested-actions generation
type ActionsResult struct {
	Actions  []string
	Degraded bool
	Reason   string
}

// ClientConfig contains generator configuration
type ClientConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client generates review enrichment content
type Client struct {
	api     completionAPI
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates a generator client talking to the Gemini API
func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	providerConfig := openai.DefaultConfig(cfg.APIKey)
	providerConfig.BaseURL = GeminiOpenAIEndpoint

	client := &Client{
		api:     openai.NewClientWithConfig(providerConfig),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}

	logger.Info("Gemini client initialized",
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout),
	)

	return client, nil
}

// GenerateUserResponse produces a 2-3 sentence customer-facing reply whose
// tone is banded by rating.
func (c *Client) GenerateUserResponse(ctx context.Context, rating int, reviewText string) Result {
	text, err := c.complete(ctx, userResponsePrompt(rating, reviewText))
	if err != nil {
		c.logger.Warn("User response generation degraded to fallback",
			zap.Int("rating", rating),
			zap.Error(err),
		)
		return Result{
			Text:     fallbackUserResponse(rating),
			Degraded: true,
			Reason:   err.Error(),
		}
	}

	return Result{Text: text}
}

// GenerateAdminSummary produces a 1-2 sentence internal summary of the review
func (c *Client) GenerateAdminSummary(ctx context.Context, rating int, reviewText string) Result {
	text, err := c.complete(ctx, adminSummaryPrompt(rating, reviewText))
	if err != nil {
		c.logger.Warn("Admin summary generation degraded to fallback",
			zap.Int("rating", rating),
			zap.Error(err),
		)
		return Result{
			Text:     fallbackAdminSummary(rating),
			Degraded: true,
			Reason:   err.Error(),
		}
	}

	return Result{Text: text}
}

// GenerateSuggestedActions produces at most three follow-up actions for the
// team. The provider is expected to answer with a JSON array, possibly
// wrapped in a markdown code fence.
func (c *Client) GenerateSuggestedActions(ctx context.Context, rating int, reviewText string) ActionsResult {
	text, err := c.complete(ctx, suggestedActionsPrompt(rating, reviewText))
	if err != nil {
		c.logger.Warn("Suggested actions generation degraded to fallback",
			zap.Int("rating", rating),
			zap.Error(err),
		)
		return ActionsResult{
			Actions:  fallbackActions(rating),
			Degraded: true,
			Reason:   err.Error(),
		}
	}

	actions, err := ParseActionList(text)
	if err != nil {
		c.logger.Warn("Suggested actions response unparseable, using fallback",
			zap.Int("rating", rating),
			zap.String("response_preview", truncateText(text, 100)),
			zap.Error(err),
		)
		return ActionsResult{
			Actions:  fallbackActions(rating),
			Degraded: true,
			Reason:   err.Error(),
		}
	}

	return ActionsResult{Actions: actions}
}

// complete runs a single bounded chat completion and returns the trimmed text
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("provider call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("provider returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("provider returned empty content")
	}

	return text, nil
}

// truncateText truncates text to a maximum length for logging
func truncateText(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	return text[:maxLength] + "..."
}
