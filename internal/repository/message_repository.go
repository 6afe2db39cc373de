package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/VanderSpeare/discord-clone/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository is the durable append-only log of chat messages.
type MessageRepository struct {
	collection *mongo.Collection

	// mu serializes appends so that assigned (created_at, _id) pairs are
	// non-decreasing in insertion order. History relies on this to stay
	// monotonic under concurrent writers.
	mu     sync.Mutex
	lastTs time.Time
}

// NewMessageRepository creates a new instance of MessageRepository.
func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{
		collection: db.Collection("messages"),
	}
}

// EnsureIndexes creates the index backing room history queries.
func (r *MessageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create message index: %v", err)
	}
	return nil
}

// Append persists a message with a server-assigned id and timestamp and
// returns the stored record.
func (r *MessageRepository) Append(ctx context.Context, msg *models.Message) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if now.Before(r.lastTs) {
		now = r.lastTs
	}
	r.lastTs = now

	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = now

	if _, err := r.collection.InsertOne(ctx, msg); err != nil {
		logrus.WithError(err).Error("Failed to insert message")
		return nil, fmt.Errorf("failed to insert message: %v", err)
	}

	return msg, nil
}

// History returns messages for a room ordered ascending by (created_at, _id).
// A zero before cursor means "from the end of the log"; otherwise only
// messages with _id strictly below the cursor are returned. limit <= 0
// returns the full (remaining) history; limit > 0 returns the newest limit
// messages under the cursor, still in ascending order.
func (r *MessageRepository) History(ctx context.Context, roomID string, limit int64, before primitive.ObjectID) ([]models.Message, error) {
	filter := bson.M{"room_id": roomID}
	if !before.IsZero() {
		filter["_id"] = bson.M{"$lt": before}
	}

	opts := options.Find()
	if limit > 0 {
		opts.SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
		opts.SetLimit(limit)
	} else {
		opts.SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %v", err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	for cursor.Next(ctx) {
		var msg models.Message
		if err := cursor.Decode(&msg); err != nil {
			return nil, fmt.Errorf("failed to decode message: %v", err)
		}
		messages = append(messages, msg)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %v", err)
	}

	if limit > 0 {
		// The page was fetched newest-first; flip it back to ascending.
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}

	return messages, nil
}
