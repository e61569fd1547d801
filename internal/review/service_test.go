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

package review

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"github.com/your-org/review-feedback/internal/llm"
	"github.com/your-org/review-feedback/internal/store"
)

// fakeGenerator returns canned content, optionally marked degraded
type fakeGenerator struct {
	degraded bool
}

func (g *fakeGenerator) GenerateUserResponse(_ context.Context, rating int, _ string) llm.Result {
	if g.degraded {
		return llm.Result{Text: "fallback reply", Degraded: true, Reason: "provider down"}
	}
	return llm.Result{Text: "generated reply"}
}

func (g *fakeGenerator) GenerateAdminSummary(_ context.Context, rating int, _ string) llm.Result {
	if g.degraded {
		return llm.Result{Text: "fallback summary", Degraded: true, Reason: "provider down"}
	}
	return llm.Result{Text: "generated summary"}
}

func (g *fakeGenerator) GenerateSuggestedActions(_ context.Context, rating int, _ string) llm.ActionsResult {
	if g.degraded {
		return llm.ActionsResult{Actions: []string{"fallback action"}, Degraded: true, Reason: "provider down"}
	}
	return llm.ActionsResult{Actions: []string{"action one", "action two"}}
}

// memoryStore is an in-memory Store with the same ordering, filtering, and
// aggregation semantics as the Mongo-backed implementation
type memoryStore struct {
	mu        sync.Mutex
	records   []store.ReviewRecord
	insertErr error
}

func (m *memoryStore) Insert(_ context.Context, record store.ReviewRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insertErr != nil {
		return "", m.insertErr
	}

	record.ID = bson.NewObjectID()
	m.records = append(m.records, record)
	return record.ID.Hex(), nil
}

func (m *memoryStore) List(_ context.Context, params store.ListParams) ([]store.ReviewRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var filtered []store.ReviewRecord
	for _, record := range m.records {
		if params.Rating == nil || record.Rating == *params.Rating {
			filtered = append(filtered, record)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})

	total := int64(len(filtered))

	if params.Skip >= total {
		return []store.ReviewRecord{}, total, nil
	}
	filtered = filtered[params.Skip:]
	if int64(len(filtered)) > params.Limit {
		filtered = filtered[:params.Limit]
	}

	return filtered, total, nil
}

func (m *memoryStore) FindByID(_ context.Context, id string) (*store.ReviewRecord, error) {
	if _, err := bson.ObjectIDFromHex(id); err != nil {
		return nil, store.ErrNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		if m.records[i].ID.Hex() == id {
			record := m.records[i]
			return &record, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memoryStore) Stats(_ context.Context, since time.Time) (*store.StatsResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := &store.StatsResult{Distribution: make(map[int]int64)}
	var sum int64

	for _, record := range m.records {
		result.Total++
		result.Distribution[record.Rating]++
		sum += int64(record.Rating)
		if !record.Timestamp.Before(since) {
			result.Recent++
		}
	}

	if result.Total > 0 {
		result.Average = float64(sum) / float64(result.Total)
	}

	return result, nil
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func newTestService(degraded bool) (*Service, *memoryStore) {
	ms := &memoryStore{}
	svc := NewService(&fakeGenerator{degraded: degraded}, ms, zap.NewNop())
	return svc, ms
}

func TestCreateSucceedsForAllRatings(t *testing.T) {
	svc, ms := newTestService(false)

	for rating := MinRating; rating <= MaxRating; rating++ {
		result, err := svc.Create(context.Background(), Submission{
			Rating:     rating,
			ReviewText: "the service was fine",
		})
		require.NoError(t, err, "rating %d", rating)
		assert.NotEmpty(t, result.ID)
		assert.NotEmpty(t, result.AIResponse)
		assert.False(t, result.Degraded)
	}

	assert.Equal(t, 5, ms.count())
}

func TestCreateFallbackGuarantee(t *testing.T) {
	// Even with the provider fully down the submission must succeed and
	// carry non-empty AI content
	svc, ms := newTestService(true)

	result, err := svc.Create(context.Background(), Submission{Rating: 1, ReviewText: "terrible"})
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.NotEmpty(t, result.AIResponse)
	assert.Equal(t, 1, ms.count())
}

func TestCreateValidationRejectedBeforeWrite(t *testing.T) {
	testCases := []struct {
		name       string
		submission Submission
		field      string
	}{
		{name: "rating zero", submission: Submission{Rating: 0, ReviewText: "ok"}, field: "rating"},
		{name: "rating six", submission: Submission{Rating: 6, ReviewText: "ok"}, field: "rating"},
		{name: "empty text", submission: Submission{Rating: 3, ReviewText: ""}, field: "review_text"},
		{name: "whitespace text", submission: Submission{Rating: 3, ReviewText: "   "}, field: "review_text"},
		{name: "text too long", submission: Submission{Rating: 3, ReviewText: strings.Repeat("x", MaxReviewTextLength+1)}, field: "review_text"},
		{name: "multibyte text too long", submission: Submission{Rating: 3, ReviewText: strings.Repeat("é", MaxReviewTextLength+1)}, field: "review_text"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, ms := newTestService(false)

			_, err := svc.Create(context.Background(), tc.submission)

			var validationErr ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.field, validationErr.Field)
			assert.Equal(t, 0, ms.count(), "no write may happen on validation failure")
		})
	}
}

func TestCreateCountsCharactersNotBytes(t *testing.T) {
	svc, ms := newTestService(false)

	// 3000 characters but 6000 bytes; the length limit is on characters
	_, err := svc.Create(context.Background(), Submission{
		Rating:     5,
		ReviewText: strings.Repeat("é", 3000),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ms.count())
}

func TestCreateTrimsReviewText(t *testing.T) {
	svc, ms := newTestService(false)

	_, err := svc.Create(context.Background(), Submission{Rating: 5, ReviewText: "  great!  "})
	require.NoError(t, err)

	require.Equal(t, 1, ms.count())
	assert.Equal(t, "great!", ms.records[0].ReviewText)
}

func TestCreateStoreFailurePropagates(t *testing.T) {
	ms := &memoryStore{insertErr: errors.New("write rejected")}
	svc := NewService(&fakeGenerator{}, ms, zap.NewNop())

	_, err := svc.Create(context.Background(), Submission{Rating: 4, ReviewText: "good"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create review")
}

func TestCreateConcurrentSubmissionsUniqueIDs(t *testing.T) {
	svc, ms := newTestService(false)

	const workers = 20
	ids := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.Create(context.Background(), Submission{
				Rating:     (i % 5) + 1,
				ReviewText: "concurrent review",
			})
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = result.ID
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "worker %d", i)
	}

	assert.Equal(t, workers, ms.count())

	seen := make(map[string]bool)
	for _, id := range ids {
		assert.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func seedReviews(t *testing.T, svc *Service, ratings []int) {
	t.Helper()
	base := time.Now().UTC()
	for i, rating := range ratings {
		// Stagger timestamps so ordering is deterministic: later entries
		// in the slice are newer
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Second) }
		_, err := svc.Create(context.Background(), Submission{Rating: rating, ReviewText: "seeded review"})
		require.NoError(t, err)
	}
	svc.now = func() time.Time { return time.Now().UTC() }
}

func TestListOrderingNewestFirst(t *testing.T) {
	svc, _ := newTestService(false)
	seedReviews(t, svc, []int{1, 2, 3, 4, 5})

	result, err := svc.List(context.Background(), ListParams{})
	require.NoError(t, err)

	require.Len(t, result.Reviews, 5)
	for i := 1; i < len(result.Reviews); i++ {
		assert.False(t, result.Reviews[i].Timestamp.After(result.Reviews[i-1].Timestamp),
			"reviews must be sorted newest first")
	}
	// The last seeded review has the newest timestamp
	assert.Equal(t, 5, result.Reviews[0].Rating)
}

func TestListRatingFilter(t *testing.T) {
	svc, _ := newTestService(false)
	seedReviews(t, svc, []int{5, 3, 5, 1, 5})

	rating := 5
	result, err := svc.List(context.Background(), ListParams{Rating: &rating})
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.Total)
	for _, record := range result.Reviews {
		assert.Equal(t, 5, record.Rating)
	}
}

func TestListPagination(t *testing.T) {
	svc, _ := newTestService(false)
	seedReviews(t, svc, []int{1, 2, 3, 4, 5, 1, 2, 3})

	result, err := svc.List(context.Background(), ListParams{Limit: 3, Skip: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(8), result.Total, "total must be independent of limit/skip")
	assert.Len(t, result.Reviews, 3)

	// Skip beyond the end returns an empty page with the full total
	result, err = svc.List(context.Background(), ListParams{Limit: 10, Skip: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(8), result.Total)
	assert.Empty(t, result.Reviews)
}

func TestListDefaultAndMaxLimit(t *testing.T) {
	svc, _ := newTestService(false)

	// Defaults applied for zero values, oversized limits clamped
	result, err := svc.List(context.Background(), ListParams{Limit: 0, Skip: -5})
	require.NoError(t, err)
	assert.NotNil(t, result)

	result, err = svc.List(context.Background(), ListParams{Limit: 10000})
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestStatsEmptyStore(t *testing.T) {
	svc, _ := newTestService(false)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.TotalReviews)
	assert.Equal(t, float64(0), stats.AverageRating)
	assert.Equal(t, int64(0), stats.RecentCount24h)

	require.Len(t, stats.RatingDistribution, 5)
	for rating := 1; rating <= 5; rating++ {
		assert.Equal(t, int64(0), stats.RatingDistribution[strconv.Itoa(rating)])
	}
}

func TestStatsFixture(t *testing.T) {
	svc, _ := newTestService(false)
	seedReviews(t, svc, []int{5, 5, 1, 3})

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalReviews)
	assert.Equal(t, 3.5, stats.AverageRating)
	assert.Equal(t, map[string]int64{
		"1": 1, "2": 0, "3": 1, "4": 0, "5": 2,
	}, stats.RatingDistribution)
	assert.Equal(t, int64(4), stats.RecentCount24h)
}

func TestStatsRecentWindowExcludesOldReviews(t *testing.T) {
	svc, _ := newTestService(false)

	// One review just outside the trailing 24h window, one inside
	svc.now = func() time.Time { return time.Now().UTC().Add(-25 * time.Hour) }
	_, err := svc.Create(context.Background(), Submission{Rating: 2, ReviewText: "old review"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().UTC() }
	_, err = svc.Create(context.Background(), Submission{Rating: 4, ReviewText: "fresh review"})
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalReviews)
	assert.Equal(t, int64(1), stats.RecentCount24h, "reviews older than 24h must not count as recent")
}

func TestStatsAverageRounding(t *testing.T) {
	svc, _ := newTestService(false)
	seedReviews(t, svc, []int{5, 4, 4}) // 13/3 = 4.333...

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4.33, stats.AverageRating)
}

func TestGetByID(t *testing.T) {
	svc, _ := newTestService(false)

	created, err := svc.Create(context.Background(), Submission{Rating: 4, ReviewText: "nice"})
	require.NoError(t, err)

	record, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, record.Rating)
	assert.Equal(t, "nice", record.ReviewText)

	_, err = svc.GetByID(context.Background(), bson.NewObjectID().Hex())
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.GetByID(context.Background(), "not-a-valid-id")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
