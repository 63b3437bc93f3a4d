package realtime

import (
	"sync"
)

// Router tracks websocket sessions, one active Connection per user. Message
// delivery into an open conversation rides each session's own feed stream;
// the router exists for session replacement and for targeted notifications
// (a user's directory learning about a conversation created elsewhere).
type Router struct {
	mu           sync.RWMutex
	sessions     map[string]*Connection // sessionID -> connection
	userSessions map[string]string      // userID -> sessionID
}

// NewRouter constructs an initialized Router.
func NewRouter() *Router {
	return &Router{
		sessions:     make(map[string]*Connection),
		userSessions: make(map[string]string),
	}
}

// Attach registers a connection for the given user. If a previous session
// exists it is swapped out and closed, enforcing one active socket per user.
func (r *Router) Attach(conn *Connection) {
	var previous *Connection

	r.mu.Lock()
	if existingID, ok := r.userSessions[conn.UserID]; ok {
		if existing := r.sessions[existingID]; existing != nil {
			previous = existing
			r.detachLocked(existingID)
		}
	}
	r.sessions[conn.ID] = conn
	r.userSessions[conn.UserID] = conn.ID
	r.mu.Unlock()

	conn.Start()

	if previous != nil {
		previous.Close(4001, "session replaced")
	}
}

// Detach removes a connection if it is still tracked.
func (r *Router) Detach(conn *Connection) {
	r.mu.Lock()
	r.detachLocked(conn.ID)
	r.mu.Unlock()
}

// NotifyUser delivers payload to the current connection of the given user.
// It reports whether a connection existed and accepted the payload.
func (r *Router) NotifyUser(userID string, payload []byte) bool {
	r.mu.RLock()
	sessionID, ok := r.userSessions[userID]
	conn := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok || conn == nil {
		return false
	}
	return conn.Send(payload) == nil
}

// Close terminates all tracked connections and clears router state.
func (r *Router) Close() {
	r.mu.Lock()
	conns := make([]*Connection, 0, len(r.sessions))
	for _, conn := range r.sessions {
		conns = append(conns, conn)
	}
	r.sessions = make(map[string]*Connection)
	r.userSessions = make(map[string]string)
	r.mu.Unlock()

	for _, conn := range conns {
		conn.Close(1001, "router shutdown")
	}
}

func (r *Router) detachLocked(sessionID string) {
	conn, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.sessions, sessionID)
	if current, ok := r.userSessions[conn.UserID]; ok && current == sessionID {
		delete(r.userSessions, conn.UserID)
	}
}
