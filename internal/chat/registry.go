package chat

import (
	"sync"

	"github.com/VanderSpeare/discord-clone/pkg/logger"
)

// Registry tracks which sessions are currently joined to which rooms and
// fans broadcasts out to them. It is the only shared mutable state of the
// live delivery path; everything durable lives in the message store.
type Registry struct {
	mu sync.RWMutex

	// rooms: room id -> member sessions. sessions: session -> joined rooms.
	// Both sides are kept so that a disconnect can leave every room without
	// scanning the whole registry.
	rooms    map[string]map[*Session]struct{}
	sessions map[*Session]map[string]struct{}

	closed bool
}

// NewRegistry creates an empty room registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[string]map[*Session]struct{}),
		sessions: make(map[*Session]map[string]struct{}),
	}
}

// Join registers sess as a member of roomID. Joining a room twice is a no-op.
func (r *Registry) Join(roomID string, sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	if _, ok := r.rooms[roomID]; !ok {
		r.rooms[roomID] = make(map[*Session]struct{})
	}
	r.rooms[roomID][sess] = struct{}{}

	if _, ok := r.sessions[sess]; !ok {
		r.sessions[sess] = make(map[string]struct{})
	}
	r.sessions[sess][roomID] = struct{}{}
}

// Leave removes sess from every room it joined and forgets the session.
// Empty rooms are dropped so the registry does not grow unboundedly.
func (r *Registry) Leave(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(sess)
}

func (r *Registry) leaveLocked(sess *Session) {
	for roomID := range r.sessions[sess] {
		if members, ok := r.rooms[roomID]; ok {
			delete(members, sess)
			if len(members) == 0 {
				delete(r.rooms, roomID)
			}
		}
	}
	delete(r.sessions, sess)
}

// Broadcast delivers payload to every current member of roomID and returns
// the number of sessions that accepted it. Delivery is best-effort: a member
// whose send queue is full is disconnected on the spot rather than allowed
// to stall the room.
func (r *Registry) Broadcast(roomID string, payload []byte) int {
	r.mu.RLock()
	members := make([]*Session, 0, len(r.rooms[roomID]))
	for sess := range r.rooms[roomID] {
		members = append(members, sess)
	}
	r.mu.RUnlock()

	notified := 0
	var slow []*Session
	for _, sess := range members {
		if sess.Push(payload) {
			notified++
		} else {
			slow = append(slow, sess)
		}
	}

	for _, sess := range slow {
		logger.Log.Warnf("Disconnecting slow session %s from room %s", sess.ID, roomID)
		r.Leave(sess)
		sess.Close()
	}

	return notified
}

// Members returns the current member count of roomID.
func (r *Registry) Members(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// Close disconnects every session and rejects further joins. Used on server
// shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	sessions := make([]*Session, 0, len(r.sessions))
	for sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.rooms = make(map[string]map[*Session]struct{})
	r.sessions = make(map[*Session]map[string]struct{})
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
