package hub

import "sync"

// ConnState holds per-connection session state: the announced user identity
// and the set of joined rooms.
type ConnState struct {
	mu     sync.RWMutex
	userID string
	rooms  map[string]struct{}
}

func NewConnState() *ConnState {
	return &ConnState{rooms: make(map[string]struct{})}
}

// Announce binds the connection to a user identity.
func (s *ConnState) Announce(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

func (s *ConnState) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *ConnState) JoinRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = struct{}{}
}

func (s *ConnState) InRoom(roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[roomID]
	return ok
}
