package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// MessageTypeText is the default message type when a client omits one.
	MessageTypeText = "text"
)

// Message is one persisted chat message. Records are immutable once written;
// ordering within a room is (created_at, _id) ascending.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID    string             `bson:"room_id" json:"roomId"`
	SenderID  primitive.ObjectID `bson:"sender_id" json:"senderId"`
	Content   string             `bson:"content" json:"content"`
	Type      string             `bson:"type" json:"type"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// Sender is the display identity a message carries once the sender has been
// resolved against the user directory.
type Sender struct {
	ID          primitive.ObjectID `json:"id"`
	Username    string             `json:"username"`
	DisplayName string             `json:"displayName,omitempty"`
	ProfilePic  string             `json:"profilePic,omitempty"`
}

// EnrichedMessage is a Message with its sender resolved. This is what gets
// broadcast to room members and returned from the history endpoint.
type EnrichedMessage struct {
	ID        primitive.ObjectID `json:"id"`
	RoomID    string             `json:"roomId"`
	Sender    Sender             `json:"sender"`
	Content   string             `json:"content"`
	Type      string             `json:"type"`
	CreatedAt time.Time          `json:"createdAt"`
}
