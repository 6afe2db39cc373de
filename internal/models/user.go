package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a user account as stored by the (external) account system. The chat
// core only ever reads these documents to resolve display identities; account
// creation, authentication and profile mutation live elsewhere.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username    string             `bson:"username" json:"username"`
	DisplayName string             `bson:"displayName" json:"displayName"`
	ProfilePic  string             `bson:"profilePic" json:"profilePic"`
	Status      string             `bson:"status" json:"status"`
	Bio         string             `bson:"bio,omitempty" json:"bio,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
