package game

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"world-server/internal/database"
	"world-server/internal/models"
	"world-server/pkg/logger"
)

// Room is the authoritative per-room state. Occupants and placed items are
// mutated only under the room mutex; the registry mutex never covers them,
// so unrelated rooms' traffic is not serialized through one lock.
type Room struct {
	ID         int
	Name       string
	HostID     int
	MaxPlayers int

	mu        sync.Mutex
	status    string
	occupants map[int]*Session
	items     map[int]*models.PlacedItem
}

func newRoom(stored *models.Room) *Room {
	return &Room{
		ID:         stored.ID,
		Name:       stored.Name,
		HostID:     stored.HostID,
		MaxPlayers: stored.MaxPlayers,
		status:     stored.Status,
		occupants:  make(map[int]*Session),
		items:      make(map[int]*models.PlacedItem),
	}
}

func (r *Room) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Room) OccupantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.occupants)
}

// addOccupant enforces the capacity invariant under the room lock, so
// concurrent joins racing the check cannot overshoot MaxPlayers.
func (r *Room) addOccupant(sess *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == models.RoomStatusClosed {
		return ErrRoomNotFound
	}
	if len(r.occupants) >= r.MaxPlayers {
		return ErrRoomFull
	}
	r.occupants[sess.CharacterID] = sess
	return nil
}

func (r *Room) removeOccupant(characterID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.occupants[characterID]; !ok {
		return false
	}
	delete(r.occupants, characterID)
	return true
}

// Broadcast fans an event out to every occupant except the excluded
// character (pass 0 to reach everyone). The room lock is held across the
// sends, so concurrent broadcasts reach every occupant in one order.
// Senders never block; slow consumers drop.
func (r *Room) Broadcast(event models.ServerEnvelope, exceptCharacterID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sess := range r.occupants {
		if id == exceptCharacterID {
			continue
		}
		sess.sender.Send(event)
	}
}

// occupantStates snapshots every occupant except the excluded character,
// ordered by character id for stable payloads.
func (r *Room) occupantStates(exceptCharacterID int) []models.PlayerState {
	r.mu.Lock()
	targets := make([]*Session, 0, len(r.occupants))
	for id, sess := range r.occupants {
		if id == exceptCharacterID {
			continue
		}
		targets = append(targets, sess)
	}
	r.mu.Unlock()

	states := make([]models.PlayerState, 0, len(targets))
	for _, sess := range targets {
		states = append(states, sess.State())
	}
	sort.Slice(states, func(i, j int) bool { return states[i].CharacterID < states[j].CharacterID })
	return states
}

func (r *Room) itemsSnapshot() []models.PlacedItem {
	r.mu.Lock()
	items := make([]models.PlacedItem, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, *item)
	}
	r.mu.Unlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].ZIndex != items[j].ZIndex {
			return items[i].ZIndex < items[j].ZIndex
		}
		return items[i].ID < items[j].ID
	})
	return items
}

func (r *Room) summary() models.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return models.RoomSummary{
		ID:          r.ID,
		Name:        r.Name,
		HostID:      r.HostID,
		PlayerCount: len(r.occupants),
		MaxPlayers:  r.MaxPlayers,
		Status:      r.status,
	}
}

// RoomRegistry is the in-memory room catalog. The store mirrors it for
// durability; live play is served entirely from memory.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[int]*Room
	store database.RoomRepository
}

func NewRoomRegistry(store database.RoomRepository) *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[int]*Room),
		store: store,
	}
}

// Restore reloads non-closed rooms from the store after a restart.
func (g *RoomRegistry) Restore(ctx context.Context, items database.PlacedItemRepository) error {
	stored, err := g.store.ListActiveRooms(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore rooms: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, sr := range stored {
		room := newRoom(sr)
		placed, err := items.ListPlacedItems(ctx, sr.ID)
		if err != nil {
			logger.Error("Failed to restore items for room %d: %v", sr.ID, err)
		}
		for _, item := range placed {
			room.items[item.ID] = item
		}
		g.rooms[sr.ID] = room
	}
	logger.Info("Restored %d rooms", len(stored))
	return nil
}

// Create persists the room and caches it live with status waiting.
func (g *RoomRegistry) Create(ctx context.Context, name string, hostUserID, maxPlayers int) (*Room, error) {
	stored, err := g.store.CreateRoom(ctx, name, hostUserID, maxPlayers)
	if err != nil {
		return nil, err
	}

	room := newRoom(stored)
	g.mu.Lock()
	g.rooms[room.ID] = room
	g.mu.Unlock()
	return room, nil
}

func (g *RoomRegistry) Get(roomID int) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[roomID]
	return room, ok
}

// Join adds the session to the room if capacity allows. The caller is
// responsible for having left any prior room first.
func (g *RoomRegistry) Join(roomID int, sess *Session) (*Room, error) {
	room, ok := g.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if err := room.addOccupant(sess); err != nil {
		return nil, err
	}
	sess.setRoom(room.ID)
	return room, nil
}

// Leave removes the session from whichever room holds it. Emptied rooms
// are closed, dropped from the registry, and their status mirrored to the
// store best-effort.
func (g *RoomRegistry) Leave(sess *Session) (*Room, bool) {
	roomID := sess.RoomID()
	if roomID == 0 {
		return nil, false
	}
	room, ok := g.Get(roomID)
	if !ok {
		sess.setRoom(0)
		return nil, false
	}
	if !room.removeOccupant(sess.CharacterID) {
		sess.setRoom(0)
		return nil, false
	}
	sess.setRoom(0)

	if room.OccupantCount() == 0 {
		g.close(room)
	}
	return room, true
}

// markInGame flips a waiting room to in-game the first time an occupant
// readies. Later readies are no-ops.
func (g *RoomRegistry) markInGame(room *Room) {
	room.mu.Lock()
	if room.status != models.RoomStatusWaiting {
		room.mu.Unlock()
		return
	}
	room.status = models.RoomStatusInGame
	room.mu.Unlock()

	go func() {
		if err := g.store.UpdateRoomStatus(context.Background(), room.ID, models.RoomStatusInGame); err != nil {
			logger.Error("Failed to persist in-game status for room %d: %v", room.ID, err)
		}
	}()
}

func (g *RoomRegistry) close(room *Room) {
	room.mu.Lock()
	room.status = models.RoomStatusClosed
	room.mu.Unlock()

	g.mu.Lock()
	delete(g.rooms, room.ID)
	g.mu.Unlock()

	go func() {
		if err := g.store.UpdateRoomStatus(context.Background(), room.ID, models.RoomStatusClosed); err != nil {
			logger.Error("Failed to persist closed status for room %d: %v", room.ID, err)
		}
	}()
	logger.Info("Room %d (%s) closed", room.ID, room.Name)
}

// ListActive returns all non-closed rooms with live occupant counts,
// ordered by id.
func (g *RoomRegistry) ListActive() []models.RoomSummary {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	g.mu.RUnlock()

	summaries := make([]models.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		s := room.summary()
		if s.Status == models.RoomStatusClosed {
			continue
		}
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries
}

func (g *RoomRegistry) ListByHost(userID int) []models.RoomSummary {
	all := g.ListActive()
	out := make([]models.RoomSummary, 0, len(all))
	for _, s := range all {
		if s.HostID == userID {
			out = append(out, s)
		}
	}
	return out
}
