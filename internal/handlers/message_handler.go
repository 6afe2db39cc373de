package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/VanderSpeare/discord-clone/internal/models"
	"github.com/VanderSpeare/discord-clone/pkg/errs"
	"github.com/VanderSpeare/discord-clone/pkg/logger"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageReader serves room history pages.
type MessageReader interface {
	History(ctx context.Context, roomID string, limit int64, before primitive.ObjectID) ([]models.EnrichedMessage, error)
}

// MessageHandler manages HTTP endpoints for reading chat messages.
type MessageHandler struct {
	Service MessageReader
}

// NewMessageHandler initializes a new MessageHandler.
func NewMessageHandler(service MessageReader) *MessageHandler {
	return &MessageHandler{Service: service}
}

// GetRoomMessagesHandler returns a room's messages in ascending order, with
// senders resolved. Supports ?limit= and ?before=<messageId> paging.
func (h *MessageHandler) GetRoomMessagesHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roomID := vars["roomId"]

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			logger.Log.Warnf("Invalid history limit %q for room %s", raw, roomID)
			return
		}
		limit = n
	}

	var before primitive.ObjectID
	if raw := r.URL.Query().Get("before"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			http.Error(w, "Invalid before cursor", http.StatusBadRequest)
			logger.Log.Warnf("Invalid history cursor %q for room %s", raw, roomID)
			return
		}
		before = id
	}

	messages, err := h.Service.History(r.Context(), roomID, limit, before)
	if err != nil {
		if errors.Is(err, errs.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Error fetching messages", http.StatusInternalServerError)
		logger.Log.Errorf("Failed to fetch messages for room %s: %v", roomID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}
