package chat

import "github.com/VanderSpeare/discord-clone/internal/models"

// Socket event names.
const (
	EventJoinRoom       = "joinRoom"
	EventSendMessage    = "sendMessage"
	EventReceiveMessage = "receiveMessage"
	EventError          = "error"
)

// Error codes carried by error acks.
const (
	CodeBadEvent      = "bad_event"
	CodeValidation    = "validation_error"
	CodeAuthorization = "authorization_error"
	CodePersistence   = "persistence_error"
)

// inboundEvent is one client frame. Event selects which of the remaining
// fields are meaningful.
type inboundEvent struct {
	Event   string `json:"event"`
	RoomID  string `json:"roomId,omitempty"`
	UserID  string `json:"userId,omitempty"`
	Content string `json:"content,omitempty"`
	Type    string `json:"type,omitempty"`
}

// messageEvent is the frame fanned out to room members.
type messageEvent struct {
	Event   string                  `json:"event"`
	Message *models.EnrichedMessage `json:"message"`
}

// errorEvent is the ack sent back to a session whose event failed.
type errorEvent struct {
	Event   string `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
