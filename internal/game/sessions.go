package game

import (
	"context"
	"fmt"
	"sync"

	"world-server/internal/database"
	"world-server/internal/models"
)

// Sender pushes a server event toward one client connection. Implementations
// must not block; slow consumers drop messages, they do not stall rooms.
type Sender interface {
	Send(event models.ServerEnvelope)
}

// Session is the live state of one authenticated connection. Position,
// appearance and room assignment are guarded by the session mutex; the
// room engine holds references, never copies.
type Session struct {
	ConnID      string
	UserID      int
	CharacterID int
	Name        string

	mu         sync.Mutex
	x, y       float64
	appearance models.Appearance
	roomID     int
	ready      bool
	callPeer   int

	sender Sender
}

func (s *Session) Send(eventType string, payload any) {
	s.sender.Send(models.ServerEnvelope{Type: eventType, Payload: payload})
}

func (s *Session) Position() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.x, s.y
}

func (s *Session) SetPosition(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.x = x
	s.y = y
}

func (s *Session) Appearance() models.Appearance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appearance
}

// MergeAppearance applies only the fields the request carries and returns
// the merged result.
func (s *Session) MergeAppearance(req *models.AppearanceRequest) models.Appearance {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.BodyStyle != nil {
		s.appearance.BodyStyle = *req.BodyStyle
	}
	if req.HairStyle != nil {
		s.appearance.HairStyle = *req.HairStyle
	}
	if req.ShirtStyle != nil {
		s.appearance.ShirtStyle = *req.ShirtStyle
	}
	if req.PantsStyle != nil {
		s.appearance.PantsStyle = *req.PantsStyle
	}
	return s.appearance
}

func (s *Session) RoomID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

func (s *Session) setRoom(roomID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = roomID
	s.ready = false
}

func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *Session) setReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
}

func (s *Session) CallPeer() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callPeer
}

func (s *Session) SetCallPeer(userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callPeer = userID
}

// State snapshots the session for broadcast payloads.
func (s *Session) State() models.PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.PlayerState{
		CharacterID: s.CharacterID,
		UserID:      s.UserID,
		Name:        s.Name,
		X:           s.x,
		Y:           s.y,
		Appearance:  s.appearance,
	}
}

// SessionRegistry owns every live session, keyed by connection id. Two
// connections from the same user get two independent sessions; there is
// no dedup by user id.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	characters     database.CharacterRepository
	spawnX, spawnY float64
}

func NewSessionRegistry(characters database.CharacterRepository, spawnX, spawnY float64) *SessionRegistry {
	return &SessionRegistry{
		sessions:   make(map[string]*Session),
		characters: characters,
		spawnX:     spawnX,
		spawnY:     spawnY,
	}
}

// Register loads or creates the user's character and binds it to the
// connection. First-time characters get default appearance at the spawn
// point.
func (r *SessionRegistry) Register(ctx context.Context, connID string, user *models.User, sender Sender) (*Session, error) {
	ch, err := r.characters.GetOrCreateCharacter(ctx, user.ID, user.Username, r.spawnX, r.spawnY)
	if err != nil {
		return nil, fmt.Errorf("failed to load character for user %d: %w", user.ID, err)
	}

	sess := &Session{
		ConnID:      connID,
		UserID:      user.ID,
		CharacterID: ch.ID,
		Name:        ch.Name,
		x:           ch.X,
		y:           ch.Y,
		appearance:  ch.Appearance,
		sender:      sender,
	}

	r.mu.Lock()
	r.sessions[connID] = sess
	r.mu.Unlock()
	return sess, nil
}

func (r *SessionRegistry) Lookup(connID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[connID]
	return sess, ok
}

// ByUser returns every live session of a user, in no particular order.
// Voice relay targets by user id, not connection id.
func (r *SessionRegistry) ByUser(userID int) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Session
	for _, sess := range r.sessions {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	return out
}

// Remove destroys the session and returns it so the caller can run leave
// side effects against its last known room.
func (r *SessionRegistry) Remove(connID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[connID]
	if !ok {
		return nil, false
	}
	delete(r.sessions, connID)
	return sess, true
}

func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
