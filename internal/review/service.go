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

// Package review orchestrates review submissions: validation, AI content
// generation, persistence, and the read-side queries.
package review

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/your-org/review-feedback/internal/llm"
	"github.com/your-org/review-feedback/internal/store"
	"go.uber.org/zap"
)

const (
	// MinRating is the lowest accepted star rating
	MinRating = 1
	// MaxRating is the highest accepted star rating
	MaxRating = 5
	// MaxReviewTextLength caps submitted review text
	MaxReviewTextLength = 5000
	// DefaultListLimit is the page size when none is requested
	DefaultListLimit = 50
	// MaxListLimit is the largest allowed page size
	MaxListLimit = 200
	// recentWindow is the trailing window for the recent review count
	recentWindow = 24 * time.Hour
)

// Generator produces AI enrichment content. Implementations never return
// errors; degraded fallback content is marked on the result.
type Generator interface {
	GenerateUserResponse(ctx context.Context, rating int, reviewText string) llm.Result
	GenerateAdminSummary(ctx context.Context, rating int, reviewText string) llm.Result
	GenerateSuggestedActions(ctx context.Context, rating int, reviewText string) llm.ActionsResult
}

// Store persists and queries review records
type Store interface {
	Insert(ctx context.Context, record store.ReviewRecord) (string, error)
	List(ctx context.Context, params store.ListParams) ([]store.ReviewRecord, int64, error)
	FindByID(ctx context.Context, id string) (*store.ReviewRecord, error)
	Stats(ctx context.Context, since time.Time) (*store.StatsResult, error)
}

// ValidationError reports a rejected submission field. Validation failures
// happen before any generation or write.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Submission is a user-provided rating and review text pair
type Submission struct {
	Rating     int
	ReviewText string
}

// Validate checks the submission constraints and returns the trimmed review
// text on success.
func (s Submission) Validate() (string, error) {
	if s.Rating < MinRating || s.Rating > MaxRating {
		return "", ValidationError{
			Field:   "rating",
			Message: fmt.Sprintf("must be between %d and %d", MinRating, MaxRating),
		}
	}

	trimmed := strings.TrimSpace(s.ReviewText)
	if trimmed == "" {
		return "", ValidationError{
			Field:   "review_text",
			Message: "must not be empty",
		}
	}
	// The limit counts characters, not bytes, so multibyte text is not
	// penalized
	if utf8.RuneCountInString(trimmed) > MaxReviewTextLength {
		return "", ValidationError{
			Field:   "review_text",
			Message: fmt.Sprintf("must not exceed %d characters", MaxReviewTextLength),
		}
	}

	return trimmed, nil
}

// CreateResult is returned after a successful submission
type CreateResult struct {
	ID         string
	AIResponse string
	// Degraded reports whether any of the generated content came from
	// static fallbacks rather than the provider
	Degraded bool
}

// ListParams controls the paginated review listing
type ListParams struct {
	Limit  int64
	Skip   int64
	Rating *int
}

// ListResult holds one page of reviews plus the filtered total
type ListResult struct {
	Total   int64
	Reviews []store.ReviewRecord
}

// StatsSnapshot is the on-demand aggregate view of all reviews
type StatsSnapshot struct {
	TotalReviews       int64            `json:"total_reviews"`
	RatingDistribution map[string]int64 `json:"rating_distribution"`
	AverageRating      float64          `json:"average_rating"`
	RecentCount24h     int64            `json:"recent_count_24h"`
}

// Service orchestrates review creation and reads. Dependencies are injected
// at startup; the service holds no global state.
type Service struct {
	generator Generator
	store     Store
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates the orchestration service
func NewService(generator Generator, reviewStore Store, logger *zap.Logger) *Service {
	return &Service{
		generator: generator,
		store:     reviewStore,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the submission, generates the three AI content pieces,
// and persists the assembled record in a single write. Nothing is persisted
// unless all generations have completed.
func (s *Service) Create(ctx context.Context, submission Submission) (*CreateResult, error) {
	reviewText, err := submission.Validate()
	if err != nil {
		return nil, err
	}

	s.logger.Info("Generating AI content for review",
		zap.Int("rating", submission.Rating),
		zap.Int("text_length", len(reviewText)),
	)

	userResponse := s.generator.GenerateUserResponse(ctx, submission.Rating, reviewText)
	adminSummary := s.generator.GenerateAdminSummary(ctx, submission.Rating, reviewText)
	actions := s.generator.GenerateSuggestedActions(ctx, submission.Rating, reviewText)

	degraded := userResponse.Degraded || adminSummary.Degraded || actions.Degraded
	if degraded {
		s.logger.Warn("Review content partially degraded to fallbacks",
			zap.Bool("user_response", userResponse.Degraded),
			zap.Bool("admin_summary", adminSummary.Degraded),
			zap.Bool("suggested_actions", actions.Degraded),
		)
	}

	record := store.ReviewRecord{
		Timestamp:        s.now(),
		Rating:           submission.Rating,
		ReviewText:       reviewText,
		AIResponse:       userResponse.Text,
		AISummary:        adminSummary.Text,
		SuggestedActions: actions.Actions,
	}

	id, err := s.store.Insert(ctx, record)
	if err != nil {
		s.logger.Error("Failed to persist review", zap.Error(err))
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.logger.Info("Review created", zap.String("id", id))

	return &CreateResult{
		ID:         id,
		AIResponse: userResponse.Text,
		Degraded:   degraded,
	}, nil
}

// List returns one page of reviews sorted newest first, optionally filtered
// by rating. Total reflects the filtered count independent of pagination.
func (s *Service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultListLimit
	}
	if params.Limit > MaxListLimit {
		params.Limit = MaxListLimit
	}
	if params.Skip < 0 {
		params.Skip = 0
	}

	records, total, err := s.store.List(ctx, store.ListParams{
		Rating: params.Rating,
		Skip:   params.Skip,
		Limit:  params.Limit,
	})
	if err != nil {
		s.logger.Error("Failed to list reviews", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch reviews: %w", err)
	}

	return &ListResult{
		Total:   total,
		Reviews: records,
	}, nil
}

// Stats computes the aggregate snapshot. All five rating buckets are always
// present, and the recent count is relative to the current time at call.
func (s *Service) Stats(ctx context.Context) (*StatsSnapshot, error) {
	since := s.now().Add(-recentWindow)

	result, err := s.store.Stats(ctx, since)
	if err != nil {
		s.logger.Error("Failed to compute stats", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch stats: %w", err)
	}

	distribution := make(map[string]int64, MaxRating)
	for rating := MinRating; rating <= MaxRating; rating++ {
		distribution[strconv.Itoa(rating)] = result.Distribution[rating]
	}

	return &StatsSnapshot{
		TotalReviews:       result.Total,
		RatingDistribution: distribution,
		AverageRating:      math.Round(result.Average*100) / 100,
		RecentCount24h:     result.Recent,
	}, nil
}

// GetByID returns a single review or store.ErrNotFound. Malformed
// identifiers are treated as not found.
func (s *Service) GetByID(ctx context.Context, id string) (*store.ReviewRecord, error) {
	record, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return record, nil
}
