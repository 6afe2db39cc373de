package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/VanderSpeare/discord-clone/internal/models"
	"github.com/VanderSpeare/discord-clone/pkg/errs"
	"github.com/VanderSpeare/discord-clone/pkg/logger"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageSender persists a message and returns it hydrated for fan-out.
type MessageSender interface {
	Send(ctx context.Context, roomID string, senderID primitive.ObjectID, content, msgType string) (*models.EnrichedMessage, error)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Gateway owns the per-connection protocol: it upgrades HTTP requests to
// websocket sessions, interprets joinRoom/sendMessage events, and wires the
// message service and room registry together. One read loop per session
// keeps a sender's events strictly in arrival order.
type Gateway struct {
	registry   *Registry
	messages   MessageSender
	sendBuffer int

	// roomLocks serializes the persist+broadcast pair per room, so that
	// every member observes broadcasts in the store's append order.
	mu        sync.Mutex
	roomLocks map[string]*sync.Mutex
}

// NewGateway creates a Gateway over an explicit registry and message service.
func NewGateway(registry *Registry, messages MessageSender, sendBuffer int) *Gateway {
	return &Gateway{
		registry:   registry,
		messages:   messages,
		sendBuffer: sendBuffer,
		roomLocks:  make(map[string]*sync.Mutex),
	}
}

// HandleWS upgrades the request and serves the session until it disconnects.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	sess := NewSession(conn, g.sendBuffer)
	logger.Log.Infof("WebSocket connected: session %s", sess.ID)

	go sess.WritePump()
	g.serve(r.Context(), sess)
}

// serve runs the session state machine: Connected, then a set of joined
// rooms, then Closed. It returns once the connection is gone, after leaving
// every joined room.
func (g *Gateway) serve(ctx context.Context, sess *Session) {
	defer func() {
		g.registry.Leave(sess)
		sess.Close()
		logger.Log.Infof("WebSocket disconnected: session %s", sess.ID)
	}()

	// Membership as seen by this session's own event stream: room id to the
	// user the session joined as. Only the read loop touches it, so no lock
	// is needed; the registry keeps its own copy for fan-out.
	joined := make(map[string]primitive.ObjectID)

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}

		var evt inboundEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			g.ack(sess, CodeBadEvent, "malformed event")
			continue
		}

		switch evt.Event {
		case EventJoinRoom:
			g.handleJoin(sess, &evt, joined)
		case EventSendMessage:
			g.handleSend(ctx, sess, &evt, joined)
		default:
			g.ack(sess, CodeBadEvent, "unknown event: "+evt.Event)
		}
	}
}

func (g *Gateway) handleJoin(sess *Session, evt *inboundEvent, joined map[string]primitive.ObjectID) {
	if evt.RoomID == "" {
		g.ack(sess, CodeValidation, "roomId is required")
		return
	}
	userID, err := primitive.ObjectIDFromHex(evt.UserID)
	if err != nil {
		g.ack(sess, CodeValidation, "invalid userId")
		return
	}

	g.registry.Join(evt.RoomID, sess)
	joined[evt.RoomID] = userID
	logger.Log.Infof("Session %s joined room %s as user %s", sess.ID, evt.RoomID, evt.UserID)
}

func (g *Gateway) handleSend(ctx context.Context, sess *Session, evt *inboundEvent, joined map[string]primitive.ObjectID) {
	memberID, ok := joined[evt.RoomID]
	if !ok || evt.RoomID == "" {
		err := fmt.Errorf("not a member of room %q: %w", evt.RoomID, errs.ErrAuthorization)
		g.ack(sess, codeFor(err), err.Error())
		return
	}
	senderID, err := primitive.ObjectIDFromHex(evt.UserID)
	if err != nil {
		g.ack(sess, CodeValidation, "invalid userId")
		return
	}
	if senderID != memberID {
		err := fmt.Errorf("joined room %q as a different user: %w", evt.RoomID, errs.ErrAuthorization)
		g.ack(sess, codeFor(err), err.Error())
		return
	}

	// Persist first; a message that failed to save is never broadcast.
	// The room lock spans both steps: without it, two sessions racing on
	// the same room could fan out in the opposite of append order.
	lock := g.roomLock(evt.RoomID)
	lock.Lock()
	defer lock.Unlock()

	msg, err := g.messages.Send(ctx, evt.RoomID, senderID, evt.Content, evt.Type)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrValidation):
			g.ack(sess, CodeValidation, err.Error())
		case errors.Is(err, errs.ErrPersistence):
			logger.Log.Errorf("Dropping message for room %s: %v", evt.RoomID, err)
			g.ack(sess, CodePersistence, "message could not be saved")
		default:
			g.ack(sess, CodePersistence, "message could not be saved")
		}
		return
	}

	payload, err := json.Marshal(&messageEvent{Event: EventReceiveMessage, Message: msg})
	if err != nil {
		logger.Log.Errorf("Failed to encode message %s: %v", msg.ID.Hex(), err)
		return
	}

	notified := g.registry.Broadcast(evt.RoomID, payload)
	logger.Log.Debugf("Broadcast message %s to %d sessions in room %s", msg.ID.Hex(), notified, evt.RoomID)
}

// roomLock returns the ordering lock for roomID, creating it on first use.
func (g *Gateway) roomLock(roomID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.roomLocks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		g.roomLocks[roomID] = lock
	}
	return lock
}

// codeFor maps a service error onto the ack code for its taxonomy class.
func codeFor(err error) string {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return CodeValidation
	case errors.Is(err, errs.ErrAuthorization):
		return CodeAuthorization
	default:
		return CodePersistence
	}
}

// ack sends an error frame back to the offending session. Best-effort, like
// any other delivery.
func (g *Gateway) ack(sess *Session, code, message string) {
	data, err := json.Marshal(&errorEvent{Event: EventError, Code: code, Message: message})
	if err != nil {
		return
	}
	sess.Push(data)
}
