package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/VanderSpeare/discord-clone/internal/models"
	"github.com/VanderSpeare/discord-clone/pkg/errs"
	"github.com/VanderSpeare/discord-clone/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Friendships is the friendship ledger surface the handler exposes.
type Friendships interface {
	Request(ctx context.Context, from, to primitive.ObjectID) (*models.FriendEdge, error)
	Accept(ctx context.Context, requester, accepter primitive.ObjectID) (*models.FriendEdge, error)
	List(ctx context.Context, userID primitive.ObjectID, status string) ([]models.FriendEntry, error)
}

// FriendHandler manages HTTP endpoints related to friendships.
type FriendHandler struct {
	Service Friendships
}

// NewFriendHandler initializes a new FriendHandler.
func NewFriendHandler(service Friendships) *FriendHandler {
	return &FriendHandler{Service: service}
}

type friendPairRequest struct {
	UserID   string `json:"userId"`
	FriendID string `json:"friendId"`
}

// AddFriendHandler sends a friend request from userId to friendId.
func (h *FriendHandler) AddFriendHandler(w http.ResponseWriter, r *http.Request) {
	var body friendPairRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		logger.Log.Warnf("Failed to decode add-friend body: %v", err)
		return
	}
	defer r.Body.Close()

	if body.UserID == "" || body.FriendID == "" {
		http.Error(w, "userId and friendId are required", http.StatusBadRequest)
		return
	}
	if body.UserID == body.FriendID {
		http.Error(w, "Cannot add yourself as a friend", http.StatusBadRequest)
		return
	}

	from, err := primitive.ObjectIDFromHex(body.UserID)
	if err != nil {
		http.Error(w, "Invalid userId", http.StatusBadRequest)
		return
	}
	to, err := primitive.ObjectIDFromHex(body.FriendID)
	if err != nil {
		http.Error(w, "Invalid friendId", http.StatusBadRequest)
		return
	}

	edge, err := h.Service.Request(r.Context(), from, to)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrAlreadyExists):
			http.Error(w, "Friend request already exists", http.StatusBadRequest)
		case errors.Is(err, errs.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Failed to send friend request", http.StatusInternalServerError)
			logger.Log.Errorf("Failed to send friend request: %v", err)
		}
		return
	}

	logger.Log.Infof("User %s sent a friend request to %s", body.UserID, body.FriendID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(edge)
}

// AcceptFriendHandler accepts a pending request. userId is the accepting
// side, friendId the original requester.
func (h *FriendHandler) AcceptFriendHandler(w http.ResponseWriter, r *http.Request) {
	var body friendPairRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		logger.Log.Warnf("Failed to decode accept-friend body: %v", err)
		return
	}
	defer r.Body.Close()

	if body.UserID == "" || body.FriendID == "" {
		http.Error(w, "userId and friendId are required", http.StatusBadRequest)
		return
	}

	accepter, err := primitive.ObjectIDFromHex(body.UserID)
	if err != nil {
		http.Error(w, "Invalid userId", http.StatusBadRequest)
		return
	}
	requester, err := primitive.ObjectIDFromHex(body.FriendID)
	if err != nil {
		http.Error(w, "Invalid friendId", http.StatusBadRequest)
		return
	}

	edge, err := h.Service.Accept(r.Context(), requester, accepter)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			http.Error(w, "No pending friend request found", http.StatusNotFound)
		case errors.Is(err, errs.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Failed to accept friend request", http.StatusInternalServerError)
			logger.Log.Errorf("Failed to accept friend request: %v", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(edge)
}

// ListFriendsHandler returns all friendships touching ?userId=, optionally
// filtered by ?status=.
func (h *FriendHandler) ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	rawID := r.URL.Query().Get("userId")
	if rawID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}
	userID, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		http.Error(w, "Invalid userId", http.StatusBadRequest)
		return
	}

	entries, err := h.Service.List(r.Context(), userID, r.URL.Query().Get("status"))
	if err != nil {
		if errors.Is(err, errs.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to get friends", http.StatusInternalServerError)
		logger.Log.Errorf("Failed to fetch friends for user %s: %v", rawID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
