package services

import (
	"context"
	"fmt"

	"github.com/VanderSpeare/discord-clone/internal/models"
	"github.com/VanderSpeare/discord-clone/pkg/errs"
	"github.com/VanderSpeare/discord-clone/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageStore is the durable message log the service writes to.
type MessageStore interface {
	Append(ctx context.Context, msg *models.Message) (*models.Message, error)
	History(ctx context.Context, roomID string, limit int64, before primitive.ObjectID) ([]models.Message, error)
}

// UserDirectory resolves user IDs to display identities. It belongs to the
// account system; the chat core never writes through it.
type UserDirectory interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// MessageService handles persisting chat messages and reading room history,
// returning records with the sender already resolved.
type MessageService struct {
	store MessageStore
	users UserDirectory
}

// NewMessageService creates a new MessageService.
func NewMessageService(store MessageStore, users UserDirectory) *MessageService {
	return &MessageService{store: store, users: users}
}

// Send validates and persists one message, then returns it hydrated with the
// sender's identity. The hydrated record is what callers broadcast; nothing
// may be broadcast when Send returns an error.
func (s *MessageService) Send(ctx context.Context, roomID string, senderID primitive.ObjectID, content, msgType string) (*models.EnrichedMessage, error) {
	if roomID == "" {
		return nil, fmt.Errorf("roomId is required: %w", errs.ErrValidation)
	}
	if senderID.IsZero() {
		return nil, fmt.Errorf("senderId is required: %w", errs.ErrValidation)
	}
	if content == "" {
		return nil, fmt.Errorf("content is required: %w", errs.ErrValidation)
	}
	if msgType == "" {
		msgType = models.MessageTypeText
	}

	msg, err := s.store.Append(ctx, &models.Message{
		RoomID:   roomID,
		SenderID: senderID,
		Content:  content,
		Type:     msgType,
	})
	if err != nil {
		logger.Log.Errorf("Failed to save message for room %s: %v", roomID, err)
		return nil, fmt.Errorf("saving message: %w", errs.ErrPersistence)
	}

	enriched := &models.EnrichedMessage{
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		Sender:    models.Sender{ID: msg.SenderID},
		Content:   msg.Content,
		Type:      msg.Type,
		CreatedAt: msg.CreatedAt,
	}

	// The message is durable at this point. A directory miss degrades the
	// display identity but never fails the send.
	sender, err := s.users.FindByID(ctx, senderID)
	if err != nil {
		logger.Log.Warnf("Failed to resolve sender %s: %v", senderID.Hex(), err)
		return enriched, nil
	}
	enriched.Sender = senderIdentity(sender)

	return enriched, nil
}

// History returns one ascending page of a room's messages with senders
// resolved in a single directory lookup.
func (s *MessageService) History(ctx context.Context, roomID string, limit int64, before primitive.ObjectID) ([]models.EnrichedMessage, error) {
	if roomID == "" {
		return nil, fmt.Errorf("roomId is required: %w", errs.ErrValidation)
	}

	messages, err := s.store.History(ctx, roomID, limit, before)
	if err != nil {
		logger.Log.Errorf("Failed to fetch history for room %s: %v", roomID, err)
		return nil, fmt.Errorf("fetching history: %w", errs.ErrPersistence)
	}

	seen := make(map[primitive.ObjectID]struct{}, len(messages))
	ids := make([]primitive.ObjectID, 0, len(messages))
	for _, msg := range messages {
		if _, ok := seen[msg.SenderID]; !ok {
			seen[msg.SenderID] = struct{}{}
			ids = append(ids, msg.SenderID)
		}
	}

	senders := make(map[primitive.ObjectID]models.Sender, len(ids))
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		logger.Log.Warnf("Failed to resolve senders for room %s: %v", roomID, err)
	} else {
		for i := range users {
			senders[users[i].ID] = senderIdentity(&users[i])
		}
	}

	enriched := make([]models.EnrichedMessage, 0, len(messages))
	for _, msg := range messages {
		sender, ok := senders[msg.SenderID]
		if !ok {
			sender = models.Sender{ID: msg.SenderID}
		}
		enriched = append(enriched, models.EnrichedMessage{
			ID:        msg.ID,
			RoomID:    msg.RoomID,
			Sender:    sender,
			Content:   msg.Content,
			Type:      msg.Type,
			CreatedAt: msg.CreatedAt,
		})
	}

	return enriched, nil
}

func senderIdentity(user *models.User) models.Sender {
	return models.Sender{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		ProfilePic:  user.ProfilePic,
	}
}
