package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VanderSpeare/discord-clone/internal/models"
	"github.com/VanderSpeare/discord-clone/pkg/errs"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FriendshipRepository stores friend edges keyed by the canonical unordered
// user pair. The unique index on (user_lo, user_hi) is what enforces the
// one-edge-per-pair invariant even under racing requests.
type FriendshipRepository struct {
	collection *mongo.Collection
}

// NewFriendshipRepository creates a new instance of FriendshipRepository.
func NewFriendshipRepository(db *mongo.Database) *FriendshipRepository {
	return &FriendshipRepository{
		collection: db.Collection("friend_edges"),
	}
}

// EnsureIndexes creates the unique pair index.
func (r *FriendshipRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_lo", Value: 1}, {Key: "user_hi", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create friend edge index: %v", err)
	}
	return nil
}

// Create inserts a new pending edge. The edge must already be in canonical
// (lo, hi) order.
func (r *FriendshipRepository) Create(ctx context.Context, edge *models.FriendEdge) (*models.FriendEdge, error) {
	now := time.Now().UTC()
	edge.CreatedAt = now
	edge.UpdatedAt = now
	edge.Status = models.StatusPending

	result, err := r.collection.InsertOne(ctx, edge)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("friend edge for pair: %w", errs.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to insert friend edge: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	edge.ID = insertedID

	return edge, nil
}

// Get fetches the edge for a canonical pair, in any status.
func (r *FriendshipRepository) Get(ctx context.Context, lo, hi primitive.ObjectID) (*models.FriendEdge, error) {
	var edge models.FriendEdge
	err := r.collection.FindOne(ctx, bson.M{"user_lo": lo, "user_hi": hi}).Decode(&edge)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("friend edge for pair: %w", errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find friend edge: %v", err)
	}
	return &edge, nil
}

// Accept atomically flips the pair's edge from pending to accepted, but only
// when requester matches the recorded requester. Returns ErrNotFound when no
// such pending edge exists (unknown pair, already accepted, or wrong side).
func (r *FriendshipRepository) Accept(ctx context.Context, lo, hi, requester primitive.ObjectID) (*models.FriendEdge, error) {
	filter := bson.M{
		"user_lo":   lo,
		"user_hi":   hi,
		"requester": requester,
		"status":    models.StatusPending,
	}
	update := bson.M{"$set": bson.M{
		"status":     models.StatusAccepted,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var edge models.FriendEdge
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&edge)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("pending friend edge: %w", errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to accept friend edge: %v", err)
	}
	return &edge, nil
}

// ListByUser returns all edges touching userID, optionally filtered by status.
func (r *FriendshipRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, status string) ([]models.FriendEdge, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"user_lo": userID},
			{"user_hi": userID},
		},
	}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve friend edges: %v", err)
	}
	defer cursor.Close(ctx)

	var edges []models.FriendEdge
	for cursor.Next(ctx) {
		var edge models.FriendEdge
		if err := cursor.Decode(&edge); err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read friend edges: %v", err)
	}

	return edges, nil
}
