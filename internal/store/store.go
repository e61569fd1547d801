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

// Package store provides the MongoDB persistence gateway and the review
// collection operations used by the orchestration service.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

const (
	// ConnectTimeout bounds the initial dial and ping at startup
	ConnectTimeout = 10 * time.Second
)

// ErrNotFound is returned when a review lookup matches no document.
// Malformed identifiers are reported the same way.
var ErrNotFound = errors.New("review not found")

// ReviewRecord is the persisted, enriched review document. Records are
// immutable once inserted; no update or delete operation exists.
type ReviewRecord struct {
	ID               bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Timestamp        time.Time     `bson:"timestamp" json:"timestamp"`
	Rating           int           `bson:"rating" json:"rating"`
	ReviewText       string        `bson:"review_text" json:"review_text"`
	AIResponse       string        `bson:"ai_response" json:"ai_response"`
	AISummary        string        `bson:"ai_summary" json:"ai_summary"`
	SuggestedActions []string      `bson:"suggested_actions" json:"suggested_actions"`
}

// ListParams controls filtering and pagination for List
type ListParams struct {
	Rating *int
	Skip   int64
	Limit  int64
}

// StatsResult holds the raw aggregation output. The distribution map is
// sparse; the orchestration service fills in empty buckets.
type StatsResult struct {
	Total        int64
	Distribution map[int]int64
	Average      float64
	Recent       int64
}

// Config contains the connection parameters for the gateway
type Config struct {
	URL        string
	Database   string
	Collection string
}

// Gateway owns the single MongoDB client for the process lifetime
type Gateway struct {
	config Config
	client *mongo.Client
	logger *zap.Logger
}

// NewGateway creates a gateway. Connect must be called before use.
func NewGateway(config Config, logger *zap.Logger) *Gateway {
	return &Gateway{
		config: config,
		logger: logger,
	}
}

// Connect dials MongoDB and verifies the connection with a ping. A failure
// here is fatal to service startup.
func (g *Gateway) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(g.config.URL))
	if err != nil {
		return fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	g.client = client
	g.logger.Info("Connected to MongoDB",
		zap.String("database", g.config.Database),
		zap.String("collection", g.config.Collection),
	)

	return nil
}

// Close disconnects the client during service shutdown
func (g *Gateway) Close(ctx context.Context) error {
	if g.client == nil {
		return nil
	}

	if err := g.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	g.logger.Info("MongoDB connection closed")
	return nil
}

// Ping verifies the connection is still alive, for health checks
func (g *Gateway) Ping(ctx context.Context) error {
	if g.client == nil {
		return errors.New("gateway is not connected")
	}
	return g.client.Ping(ctx, readpref.Primary())
}

// Reviews returns the review collection handle
func (g *Gateway) Reviews() *mongo.Collection {
	return g.client.Database(g.config.Database).Collection(g.config.Collection)
}

// ReviewStore exposes collection-scoped operations on review documents
type ReviewStore struct {
	gateway *Gateway
	logger  *zap.Logger
}

// NewReviewStore creates a review store backed by the gateway
func NewReviewStore(gateway *Gateway, logger *zap.Logger) *ReviewStore {
	return &ReviewStore{
		gateway: gateway,
		logger:  logger,
	}
}

// Insert writes a single review document and returns its assigned id
func (s *ReviewStore) Insert(ctx context.Context, record ReviewRecord) (string, error) {
	result, err := s.gateway.Reviews().InsertOne(ctx, record)
	if err != nil {
		return "", fmt.Errorf("failed to insert review: %w", err)
	}

	id, ok := result.InsertedID.(bson.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}

	s.logger.Info("Review inserted", zap.String("id", id.Hex()))
	return id.Hex(), nil
}

// List returns a page of reviews sorted newest first, plus the total count
// of documents matching the filter independent of pagination.
func (s *ReviewStore) List(ctx context.Context, params ListParams) ([]ReviewRecord, int64, error) {
	filter := listFilter(params.Rating)
	collection := s.gateway.Reviews()

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(params.Skip).
		SetLimit(params.Limit)

	cursor, err := collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	records := []ReviewRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, fmt.Errorf("failed to decode reviews: %w", err)
	}

	return records, total, nil
}

// FindByID returns the review with the given hex identifier. A malformed
// identifier is treated as not found, not as an error.
func (s *ReviewStore) FindByID(ctx context.Context, id string) (*ReviewRecord, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var record ReviewRecord
	err = s.gateway.Reviews().FindOne(ctx, bson.M{"_id": objectID}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch review %s: %w", id, err)
	}

	return &record, nil
}

// Stats aggregates the review collection: total count, per-rating counts,
// mean rating, and the count of reviews since the given instant.
func (s *ReviewStore) Stats(ctx context.Context, since time.Time) (*StatsResult, error) {
	collection := s.gateway.Reviews()

	total, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	distribution := make(map[int]int64)
	var average float64

	if total > 0 {
		pipeline := mongo.Pipeline{
			{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: "$rating"},
				{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			}}},
		}

		cursor, err := collection.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate rating distribution: %w", err)
		}

		var groups []struct {
			Rating int   `bson:"_id"`
			Count  int64 `bson:"count"`
		}
		if err := cursor.All(ctx, &groups); err != nil {
			return nil, fmt.Errorf("failed to decode rating distribution: %w", err)
		}

		var sum int64
		for _, group := range groups {
			distribution[group.Rating] = group.Count
			sum += int64(group.Rating) * group.Count
		}
		average = float64(sum) / float64(total)
	}

	recent, err := collection.CountDocuments(ctx, bson.M{
		"timestamp": bson.M{"$gte": since},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count recent reviews: %w", err)
	}

	return &StatsResult{
		Total:        total,
		Distribution: distribution,
		Average:      average,
		Recent:       recent,
	}, nil
}

// listFilter builds the query document for List
func listFilter(rating *int) bson.M {
	if rating != nil {
		return bson.M{"rating": *rating}
	}
	return bson.M{}
}
