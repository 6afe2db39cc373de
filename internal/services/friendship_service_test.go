package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/VanderSpeare/discord-clone/internal/models"
	"github.com/VanderSpeare/discord-clone/pkg/errs"
	"github.com/VanderSpeare/discord-clone/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMain(m *testing.M) {
	logger.InitLogger()
	os.Exit(m.Run())
}

// fakeEdgeStore keeps canonical edges in a map keyed by the (lo, hi) pair,
// mirroring the unique index of the Mongo repository.
type fakeEdgeStore struct {
	edges map[string]*models.FriendEdge
}

func newFakeEdgeStore() *fakeEdgeStore {
	return &fakeEdgeStore{edges: make(map[string]*models.FriendEdge)}
}

func pairKey(lo, hi primitive.ObjectID) string {
	return lo.Hex() + ":" + hi.Hex()
}

func (f *fakeEdgeStore) Create(ctx context.Context, edge *models.FriendEdge) (*models.FriendEdge, error) {
	key := pairKey(edge.UserLo, edge.UserHi)
	if _, ok := f.edges[key]; ok {
		return nil, fmt.Errorf("friend edge for pair: %w", errs.ErrAlreadyExists)
	}
	edge.ID = primitive.NewObjectID()
	edge.Status = models.StatusPending
	edge.CreatedAt = time.Now()
	edge.UpdatedAt = edge.CreatedAt
	stored := *edge
	f.edges[key] = &stored
	return edge, nil
}

func (f *fakeEdgeStore) Get(ctx context.Context, lo, hi primitive.ObjectID) (*models.FriendEdge, error) {
	edge, ok := f.edges[pairKey(lo, hi)]
	if !ok {
		return nil, fmt.Errorf("friend edge for pair: %w", errs.ErrNotFound)
	}
	cp := *edge
	return &cp, nil
}

func (f *fakeEdgeStore) Accept(ctx context.Context, lo, hi, requester primitive.ObjectID) (*models.FriendEdge, error) {
	edge, ok := f.edges[pairKey(lo, hi)]
	if !ok || edge.Status != models.StatusPending || edge.Requester != requester {
		return nil, fmt.Errorf("pending friend edge: %w", errs.ErrNotFound)
	}
	edge.Status = models.StatusAccepted
	edge.UpdatedAt = time.Now()
	cp := *edge
	return &cp, nil
}

func (f *fakeEdgeStore) ListByUser(ctx context.Context, userID primitive.ObjectID, status string) ([]models.FriendEdge, error) {
	var out []models.FriendEdge
	for _, edge := range f.edges {
		if !edge.Touches(userID) {
			continue
		}
		if status != "" && edge.Status != status {
			continue
		}
		out = append(out, *edge)
	}
	return out, nil
}

// fakeDirectory resolves users from a fixed map.
type fakeDirectory struct {
	users map[primitive.ObjectID]models.User
	err   error
}

func (f *fakeDirectory) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id.Hex(), errs.ErrNotFound)
	}
	return &user, nil
}

func (f *fakeDirectory) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.User
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func newFriendshipFixture() (*FriendshipService, primitive.ObjectID, primitive.ObjectID) {
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()
	directory := &fakeDirectory{users: map[primitive.ObjectID]models.User{
		userA: {ID: userA, Username: "alice", DisplayName: "Alice", ProfilePic: "a.png"},
		userB: {ID: userB, Username: "bob", DisplayName: "Bob", ProfilePic: "b.png"},
	}}
	return NewFriendshipService(newFakeEdgeStore(), directory), userA, userB
}

func TestRequestSelfIsRejected(t *testing.T) {
	svc, userA, _ := newFriendshipFixture()

	_, err := svc.Request(context.Background(), userA, userA)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestRequestCreatesPendingEdge(t *testing.T) {
	svc, userA, userB := newFriendshipFixture()

	edge, err := svc.Request(context.Background(), userA, userB)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, edge.Status)
	assert.Equal(t, userA, edge.Requester)

	lo, hi := models.CanonicalPair(userA, userB)
	assert.Equal(t, lo, edge.UserLo)
	assert.Equal(t, hi, edge.UserHi)
}

func TestRequestDuplicateEitherDirectionFails(t *testing.T) {
	svc, userA, userB := newFriendshipFixture()

	_, err := svc.Request(context.Background(), userA, userB)
	require.NoError(t, err)

	_, err = svc.Request(context.Background(), userA, userB)
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)

	_, err = svc.Request(context.Background(), userB, userA)
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestAcceptMakesFriendshipVisibleToBothSides(t *testing.T) {
	svc, userA, userB := newFriendshipFixture()
	ctx := context.Background()

	_, err := svc.Request(ctx, userA, userB)
	require.NoError(t, err)

	edge, err := svc.Accept(ctx, userA, userB)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, edge.Status)

	forA, err := svc.List(ctx, userA, "")
	require.NoError(t, err)
	require.Len(t, forA, 1)
	assert.Equal(t, userB, forA[0].FriendID)
	assert.Equal(t, "bob", forA[0].Username)
	assert.Equal(t, models.StatusAccepted, forA[0].Status)

	forB, err := svc.List(ctx, userB, "")
	require.NoError(t, err)
	require.Len(t, forB, 1)
	assert.Equal(t, userA, forB[0].FriendID)
	assert.Equal(t, "alice", forB[0].Username)
	assert.Equal(t, models.StatusAccepted, forB[0].Status)
}

func TestAcceptFailsWithoutPendingEdge(t *testing.T) {
	svc, userA, userB := newFriendshipFixture()
	ctx := context.Background()

	_, err := svc.Accept(ctx, userA, userB)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAcceptByRequesterFails(t *testing.T) {
	svc, userA, userB := newFriendshipFixture()
	ctx := context.Background()

	_, err := svc.Request(ctx, userA, userB)
	require.NoError(t, err)

	// userA sent the request; treating userB as requester must not match.
	_, err = svc.Accept(ctx, userB, userA)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestReAcceptFails(t *testing.T) {
	svc, userA, userB := newFriendshipFixture()
	ctx := context.Background()

	_, err := svc.Request(ctx, userA, userB)
	require.NoError(t, err)
	_, err = svc.Accept(ctx, userA, userB)
	require.NoError(t, err)

	_, err = svc.Accept(ctx, userA, userB)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestListStatusFilter(t *testing.T) {
	svc, userA, userB := newFriendshipFixture()
	ctx := context.Background()

	_, err := svc.Request(ctx, userA, userB)
	require.NoError(t, err)

	pending, err := svc.List(ctx, userA, models.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	accepted, err := svc.List(ctx, userA, models.StatusAccepted)
	require.NoError(t, err)
	assert.Empty(t, accepted)

	_, err = svc.List(ctx, userA, "blocked")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestListEmptyForUnknownUser(t *testing.T) {
	svc, _, _ := newFriendshipFixture()

	entries, err := svc.List(context.Background(), primitive.NewObjectID(), "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
