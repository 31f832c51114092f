package broadcast

import (
	"sync"

	"github.com/google/uuid"
)

type SessionState string

const (
	SessionConnecting   SessionState = "connecting"
	SessionConnected    SessionState = "connected"
	SessionRejected     SessionState = "rejected"
	SessionDisconnected SessionState = "disconnected"
)

// Session is one viewer subscribed to one submission
type Session struct {
	ID           uuid.UUID
	SubmissionID uuid.UUID
	UserID       uuid.UUID
	Instructor   bool

	mu      sync.Mutex
	state   SessionState
	send    chan []byte
	updated bool
}

func newSession(submissionID, userID uuid.UUID, buffer int) *Session {
	if buffer <= 0 {
		buffer = 1
	}
	return &Session{
		ID:           uuid.New(),
		SubmissionID: submissionID,
		UserID:       userID,
		state:        SessionConnecting,
		send:         make(chan []byte, buffer),
	}
}

// Messages yields serialized results; it is closed on disconnect
func (s *Session) Messages() <-chan []byte {
	return s.send
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// offer queues an update without blocking. Every message is a full snapshot,
// so when the viewer is behind the oldest pending one is dropped.
func (s *Session) offer(msg []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionConnected {
		return false
	}
	s.updated = true
	s.push(msg)
	return true
}

// offerInitial queues the connect snapshot unless an update already reached
// the session, since that update is at least as recent.
func (s *Session) offerInitial(msg []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionConnected || s.updated {
		return false
	}
	s.push(msg)
	return true
}

func (s *Session) push(msg []byte) {
	for {
		select {
		case s.send <- msg:
			return
		default:
		}
		select {
		case <-s.send:
		default:
		}
	}
}

// close moves the session to disconnected and closes its channel once
func (s *Session) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionDisconnected || s.state == SessionRejected {
		return false
	}
	wasConnected := s.state == SessionConnected
	s.state = SessionDisconnected
	close(s.send)
	return wasConnected
}
