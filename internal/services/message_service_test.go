package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/VanderSpeare/discord-clone/internal/models"
	"github.com/VanderSpeare/discord-clone/pkg/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeMessageStore keeps messages in append order with the same
// (created_at, _id) paging semantics as the Mongo repository.
type fakeMessageStore struct {
	messages  []models.Message
	appendErr error
	now       time.Time
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{now: time.Now().UTC()}
}

func (f *fakeMessageStore) Append(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.now = f.now.Add(time.Millisecond)
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = f.now
	f.messages = append(f.messages, *msg)
	return msg, nil
}

func (f *fakeMessageStore) History(ctx context.Context, roomID string, limit int64, before primitive.ObjectID) ([]models.Message, error) {
	var room []models.Message
	for _, msg := range f.messages {
		if msg.RoomID != roomID {
			continue
		}
		if !before.IsZero() && msg.ID.Hex() >= before.Hex() {
			continue
		}
		room = append(room, msg)
	}
	if limit > 0 && int64(len(room)) > limit {
		room = room[int64(len(room))-limit:]
	}
	return room, nil
}

func newMessageFixture() (*MessageService, *fakeMessageStore, primitive.ObjectID) {
	store := newFakeMessageStore()
	sender := primitive.NewObjectID()
	directory := &fakeDirectory{users: map[primitive.ObjectID]models.User{
		sender: {ID: sender, Username: "alice", DisplayName: "Alice", ProfilePic: "a.png"},
	}}
	return NewMessageService(store, directory), store, sender
}

func TestSendValidation(t *testing.T) {
	svc, _, sender := newMessageFixture()
	ctx := context.Background()

	_, err := svc.Send(ctx, "", sender, "hi", "")
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.Send(ctx, "r1", primitive.NilObjectID, "hi", "")
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.Send(ctx, "r1", sender, "", "")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestSendReturnsHydratedMessage(t *testing.T) {
	svc, _, sender := newMessageFixture()

	msg, err := svc.Send(context.Background(), "r1", sender, "hello", "")
	require.NoError(t, err)

	assert.False(t, msg.ID.IsZero())
	assert.Equal(t, "r1", msg.RoomID)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, models.MessageTypeText, msg.Type)
	assert.Equal(t, "alice", msg.Sender.Username)
	assert.Equal(t, sender, msg.Sender.ID)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestSendSurvivesDirectoryMiss(t *testing.T) {
	store := newFakeMessageStore()
	svc := NewMessageService(store, &fakeDirectory{users: map[primitive.ObjectID]models.User{}})
	sender := primitive.NewObjectID()

	msg, err := svc.Send(context.Background(), "r1", sender, "hello", "")
	require.NoError(t, err)
	assert.Equal(t, sender, msg.Sender.ID)
	assert.Empty(t, msg.Sender.Username)
}

func TestSendPersistenceFailure(t *testing.T) {
	svc, store, sender := newMessageFixture()
	store.appendErr = errors.New("mongo down")

	_, err := svc.Send(context.Background(), "r1", sender, "hello", "")
	assert.ErrorIs(t, err, errs.ErrPersistence)
	assert.Empty(t, store.messages)
}

func TestHistoryReturnsNewMessageLast(t *testing.T) {
	svc, _, sender := newMessageFixture()
	ctx := context.Background()

	_, err := svc.Send(ctx, "r1", sender, "first", "")
	require.NoError(t, err)
	_, err = svc.Send(ctx, "r1", sender, "second", "")
	require.NoError(t, err)

	history, err := svc.History(ctx, "r1", 0, primitive.NilObjectID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "second", history[1].Content)
	assert.Equal(t, "alice", history[1].Sender.Username)
	assert.True(t, !history[1].CreatedAt.Before(history[0].CreatedAt))
}

func TestHistoryIsScopedToRoom(t *testing.T) {
	svc, _, sender := newMessageFixture()
	ctx := context.Background()

	_, err := svc.Send(ctx, "r1", sender, "for r1", "")
	require.NoError(t, err)
	_, err = svc.Send(ctx, "r2", sender, "for r2", "")
	require.NoError(t, err)

	history, err := svc.History(ctx, "r1", 0, primitive.NilObjectID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "for r1", history[0].Content)
}

func TestHistoryPaginationPartitionsLog(t *testing.T) {
	svc, _, sender := newMessageFixture()
	ctx := context.Background()

	contents := []string{"m1", "m2", "m3", "m4", "m5"}
	for _, content := range contents {
		_, err := svc.Send(ctx, "r1", sender, content, "")
		require.NoError(t, err)
	}

	// Walk backwards in pages of two; pages concatenated oldest-first must
	// reproduce the log exactly.
	var pages [][]models.EnrichedMessage
	before := primitive.NilObjectID
	for {
		page, err := svc.History(ctx, "r1", 2, before)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		pages = append(pages, page)
		before = page[0].ID
	}

	var rebuilt []string
	for i := len(pages) - 1; i >= 0; i-- {
		for _, msg := range pages[i] {
			rebuilt = append(rebuilt, msg.Content)
		}
	}
	assert.Equal(t, contents, rebuilt)
}

func TestHistoryEmptyRoom(t *testing.T) {
	svc, _, _ := newMessageFixture()

	history, err := svc.History(context.Background(), "ghost", 0, primitive.NilObjectID)
	require.NoError(t, err)
	assert.Empty(t, history)
}
