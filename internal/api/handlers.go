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

// Package api exposes the HTTP surface of the review feedback service
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/your-org/review-feedback/internal/health"
	"github.com/your-org/review-feedback/internal/review"
	"github.com/your-org/review-feedback/internal/store"
)

const (
	// ServiceName identifies the service in health and metadata responses
	ServiceName = "review-feedback-api"
	// ServiceVersion is reported in the root metadata response
	ServiceVersion = "1.0.0"
)

// ReviewService is the slice of the orchestration service used by handlers
type ReviewService interface {
	Create(ctx context.Context, submission review.Submission) (*review.CreateResult, error)
	List(ctx context.Context, params review.ListParams) (*review.ListResult, error)
	Stats(ctx context.Context) (*review.StatsSnapshot, error)
}

// SubmitRequest is the body of POST /api/reviews/submit
type SubmitRequest struct {
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
}

// SubmitResponse is returned after a successful submission
type SubmitResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SubmissionID string `json:"submission_id"`
	AIResponse   string `json:"ai_response"`
}

// ListResponse is returned by GET /api/reviews/all
type ListResponse struct {
	Success bool                 `json:"success"`
	Total   int64                `json:"total"`
	Reviews []store.ReviewRecord `json:"reviews"`
}

// StatsResponse is returned by GET /api/reviews/stats
type StatsResponse struct {
	Success            bool             `json:"success"`
	TotalReviews       int64            `json:"total_reviews"`
	RatingDistribution map[string]int64 `json:"rating_distribution"`
	AverageRating      float64          `json:"average_rating"`
	RecentCount24h     int64            `json:"recent_count_24h"`
}

// ErrorResponse is the generic error body
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Handler holds the HTTP handlers for the review API
type Handler struct {
	service       ReviewService
	healthManager *health.Manager
	logger        *zap.Logger
	environment   string
	// exposeDetails controls whether raw error text reaches clients;
	// enabled outside production only
	exposeDetails bool
}

// NewHandler creates the API handler set
func NewHandler(service ReviewService, healthManager *health.Manager, environment string, logger *zap.Logger) *Handler {
	return &Handler{
		service:       service,
		healthManager: healthManager,
		logger:        logger,
		environment:   environment,
		exposeDetails: environment != "production",
	}
}

// Register wires all routes onto the router
func (h *Handler) Register(router *gin.Engine) {
	router.GET("/", h.handleRoot)
	router.GET("/health", h.handleHealth)

	reviews := router.Group("/api/reviews")
	reviews.POST("/submit", h.handleSubmit)
	reviews.GET("/all", h.handleList)
	reviews.GET("/stats", h.handleStats)
	reviews.GET("/health", h.handleAPIHealth)
}

// handleRoot returns service metadata
func (h *Handler) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "Review Feedback System API",
		"version":     ServiceVersion,
		"status":      "running",
		"environment": h.environment,
	})
}

// handleHealth runs the dependency health checks
func (h *Handler) handleHealth(c *gin.Context) {
	result := h.healthManager.Check(c.Request.Context())

	statusCode := http.StatusOK
	if result.Status == health.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, result)
}

// handleAPIHealth is the stateless liveness probe of the review API
func (h *Handler) handleAPIHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": ServiceName,
	})
}

// handleSubmit accepts a review submission, enriches it, and persists it
func (h *Handler) handleSubmit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.clientError(c, "Invalid request body", err.Error())
		return
	}

	h.logger.Info("New review submission", zap.Int("rating", req.Rating))

	result, err := h.service.Create(c.Request.Context(), review.Submission{
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
	})
	if err != nil {
		var validationErr review.ValidationError
		if errors.As(err, &validationErr) {
			h.clientError(c, "Validation failed", validationErr.Error())
			return
		}
		h.serverError(c, "Failed to submit review", err)
		return
	}

	c.JSON(http.StatusOK, SubmitResponse{
		Success:      true,
		Message:      "Review submitted successfully",
		SubmissionID: result.ID,
		AIResponse:   result.AIResponse,
	})
}

// handleList returns a paginated, optionally rating-filtered review page
func (h *Handler) handleList(c *gin.Context) {
	params, err := parseListParams(c)
	if err != nil {
		h.clientError(c, "Invalid query parameters", err.Error())
		return
	}

	h.logger.Info("Fetching reviews",
		zap.Int64("limit", params.Limit),
		zap.Int64("skip", params.Skip),
	)

	result, err := h.service.List(c.Request.Context(), params)
	if err != nil {
		h.serverError(c, "Failed to fetch reviews", err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Success: true,
		Total:   result.Total,
		Reviews: result.Reviews,
	})
}

// handleStats returns the aggregate statistics snapshot
func (h *Handler) handleStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.serverError(c, "Failed to fetch stats", err)
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		Success:            true,
		TotalReviews:       stats.TotalReviews,
		RatingDistribution: stats.RatingDistribution,
		AverageRating:      stats.AverageRating,
		RecentCount24h:     stats.RecentCount24h,
	})
}

// parseListParams validates the limit, skip, and rating query parameters
func parseListParams(c *gin.Context) (review.ListParams, error) {
	params := review.ListParams{Limit: review.DefaultListLimit}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 1 || limit > review.MaxListLimit {
			return params, fmt.Errorf("limit must be an integer between 1 and %d", review.MaxListLimit)
		}
		params.Limit = limit
	}

	if raw := c.Query("skip"); raw != "" {
		skip, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || skip < 0 {
			return params, fmt.Errorf("skip must be a non-negative integer")
		}
		params.Skip = skip
	}

	if raw := c.Query("rating"); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil || rating < review.MinRating || rating > review.MaxRating {
			return params, fmt.Errorf("rating must be an integer between %d and %d", review.MinRating, review.MaxRating)
		}
		params.Rating = &rating
	}

	return params, nil
}

// clientError rejects a request with a 400 and no side effects
func (h *Handler) clientError(c *gin.Context, message, details string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Success: false,
		Error:   message,
		Details: details,
	})
}

// serverError logs the full error and returns a generic message; raw error
// text is exposed only outside production
func (h *Handler) serverError(c *gin.Context, message string, err error) {
	h.logger.Error(message, zap.Error(err))

	resp := ErrorResponse{
		Success: false,
		Error:   message,
	}
	if h.exposeDetails {
		resp.Details = err.Error()
	}

	c.JSON(http.StatusInternalServerError, resp)
}
