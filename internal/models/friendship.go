package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendshipStatus values for a friend edge.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
)

// FriendEdge is the single canonical relationship record between two users.
// The pair is stored unordered: UserLo always holds the smaller ObjectID hex,
// so at most one edge can exist per pair regardless of who asked first.
// Requester records which side sent the request; visibility is symmetric.
type FriendEdge struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserLo    primitive.ObjectID `bson:"user_lo" json:"userLo"`
	UserHi    primitive.ObjectID `bson:"user_hi" json:"userHi"`
	Requester primitive.ObjectID `bson:"requester" json:"requester"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// CanonicalPair orders two user IDs into the (lo, hi) form FriendEdge stores.
func CanonicalPair(a, b primitive.ObjectID) (primitive.ObjectID, primitive.ObjectID) {
	if a.Hex() > b.Hex() {
		return b, a
	}
	return a, b
}

// Other returns the endpoint of the edge that is not userID.
func (e *FriendEdge) Other(userID primitive.ObjectID) primitive.ObjectID {
	if e.UserLo == userID {
		return e.UserHi
	}
	return e.UserLo
}

// Touches reports whether userID is one of the edge's endpoints.
func (e *FriendEdge) Touches(userID primitive.ObjectID) bool {
	return e.UserLo == userID || e.UserHi == userID
}

// FriendEntry is one row of a user's friend list, enriched from the user
// directory.
type FriendEntry struct {
	FriendID    primitive.ObjectID `json:"friendId"`
	Username    string             `json:"username"`
	DisplayName string             `json:"displayName"`
	ProfilePic  string             `json:"profilePic"`
	Status      string             `json:"status"`
}
