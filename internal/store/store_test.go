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

package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

func TestListFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, listFilter(nil))

	rating := 4
	assert.Equal(t, bson.M{"rating": 4}, listFilter(&rating))
}

func TestFindByIDMalformedID(t *testing.T) {
	// A malformed identifier must be reported as not found before any
	// database round trip happens.
	s := NewReviewStore(nil, zap.NewNop())

	testCases := []string{"", "not-a-hex-id", "12345", "zzzzzzzzzzzzzzzzzzzzzzzz"}
	for _, id := range testCases {
		_, err := s.FindByID(context.Background(), id)
		assert.ErrorIs(t, err, ErrNotFound, "id %q", id)
	}
}

func TestGatewayPingNotConnected(t *testing.T) {
	g := NewGateway(Config{URL: "mongodb://localhost:27017"}, zap.NewNop())
	assert.Error(t, g.Ping(context.Background()))
}

func TestGatewayCloseWithoutConnect(t *testing.T) {
	g := NewGateway(Config{URL: "mongodb://localhost:27017"}, zap.NewNop())
	assert.NoError(t, g.Close(context.Background()))
}

func TestReviewRecordJSONShape(t *testing.T) {
	id, err := bson.ObjectIDFromHex("65a1b2c3d4e5f6a7b8c9d0e1")
	require.NoError(t, err)

	record := ReviewRecord{
		ID:               id,
		Timestamp:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Rating:           5,
		ReviewText:       "great!",
		AIResponse:       "Thank you!",
		AISummary:        "Positive review",
		SuggestedActions: []string{"Send thank you note"},
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Contains(t, decoded, "_id")
	assert.Contains(t, decoded, "review_text")
	assert.Contains(t, decoded, "ai_response")
	assert.Contains(t, decoded, "ai_summary")
	assert.Contains(t, decoded, "suggested_actions")
	assert.Equal(t, float64(5), decoded["rating"])
}
