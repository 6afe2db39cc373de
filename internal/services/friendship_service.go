package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/VanderSpeare/discord-clone/internal/models"
	"github.com/VanderSpeare/discord-clone/pkg/errs"
	"github.com/VanderSpeare/discord-clone/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendEdgeStore persists canonical friend edges.
type FriendEdgeStore interface {
	Create(ctx context.Context, edge *models.FriendEdge) (*models.FriendEdge, error)
	Get(ctx context.Context, lo, hi primitive.ObjectID) (*models.FriendEdge, error)
	Accept(ctx context.Context, lo, hi, requester primitive.ObjectID) (*models.FriendEdge, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, status string) ([]models.FriendEdge, error)
}

// FriendshipService handles business logic for managing friendships: one
// canonical edge per unordered user pair, pending until the non-requesting
// side accepts, visible symmetrically to both endpoints.
type FriendshipService struct {
	edges FriendEdgeStore
	users UserDirectory
}

// NewFriendshipService creates a new FriendshipService.
func NewFriendshipService(edges FriendEdgeStore, users UserDirectory) *FriendshipService {
	return &FriendshipService{edges: edges, users: users}
}

// Request creates a pending edge between from and to, with from recorded as
// the requester. Fails when the pair already has an edge in any status.
func (s *FriendshipService) Request(ctx context.Context, from, to primitive.ObjectID) (*models.FriendEdge, error) {
	if from.IsZero() || to.IsZero() {
		return nil, fmt.Errorf("both user ids are required: %w", errs.ErrValidation)
	}
	if from == to {
		return nil, fmt.Errorf("cannot add yourself as a friend: %w", errs.ErrValidation)
	}

	lo, hi := models.CanonicalPair(from, to)

	// Fast pre-check; the unique pair index still catches racing requests.
	if _, err := s.edges.Get(ctx, lo, hi); err == nil {
		return nil, fmt.Errorf("friend edge for pair: %w", errs.ErrAlreadyExists)
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	edge, err := s.edges.Create(ctx, &models.FriendEdge{
		UserLo:    lo,
		UserHi:    hi,
		Requester: from,
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Infof("User %s sent a friend request to %s", from.Hex(), to.Hex())
	return edge, nil
}

// Accept transitions the pair's edge from pending to accepted. The accepter
// must be the side that did not send the request; anything else (no edge,
// already accepted, requester accepting their own request) is ErrNotFound.
func (s *FriendshipService) Accept(ctx context.Context, requester, accepter primitive.ObjectID) (*models.FriendEdge, error) {
	if requester.IsZero() || accepter.IsZero() {
		return nil, fmt.Errorf("both user ids are required: %w", errs.ErrValidation)
	}
	if requester == accepter {
		return nil, fmt.Errorf("cannot accept your own request: %w", errs.ErrValidation)
	}

	lo, hi := models.CanonicalPair(requester, accepter)
	edge, err := s.edges.Accept(ctx, lo, hi, requester)
	if err != nil {
		return nil, err
	}

	logger.Log.Infof("User %s accepted the friend request from %s", accepter.Hex(), requester.Hex())
	return edge, nil
}

// List returns every edge touching userID as (friend, status) rows enriched
// from the user directory, regardless of which side sent the request.
// status may be empty, "pending" or "accepted".
func (s *FriendshipService) List(ctx context.Context, userID primitive.ObjectID, status string) ([]models.FriendEntry, error) {
	if userID.IsZero() {
		return nil, fmt.Errorf("userId is required: %w", errs.ErrValidation)
	}
	if status != "" && status != models.StatusPending && status != models.StatusAccepted {
		return nil, fmt.Errorf("unknown status %q: %w", status, errs.ErrValidation)
	}

	edges, err := s.edges.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return []models.FriendEntry{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(edges))
	for i := range edges {
		ids = append(ids, edges[i].Other(userID))
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve friends: %v", err)
	}
	byID := make(map[primitive.ObjectID]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	entries := make([]models.FriendEntry, 0, len(edges))
	for i := range edges {
		friendID := edges[i].Other(userID)
		entry := models.FriendEntry{
			FriendID: friendID,
			Status:   edges[i].Status,
		}
		if user, ok := byID[friendID]; ok {
			entry.Username = user.Username
			entry.DisplayName = user.DisplayName
			entry.ProfilePic = user.ProfilePic
		} else {
			logger.Log.Warnf("Friend %s of user %s has no directory entry", friendID.Hex(), userID.Hex())
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
