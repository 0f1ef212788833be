package game

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"world-server/internal/database"
	"world-server/internal/models"
	"world-server/internal/world"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeSender records everything sent toward one connection.
type fakeSender struct {
	mu     sync.Mutex
	events []models.ServerEnvelope
}

func (s *fakeSender) Send(event models.ServerEnvelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *fakeSender) all() []models.ServerEnvelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ServerEnvelope, len(s.events))
	copy(out, s.events)
	return out
}

func (s *fakeSender) ofType(eventType string) []models.ServerEnvelope {
	var out []models.ServerEnvelope
	for _, e := range s.all() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (s *fakeSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

// fakeStore is an in-memory database.Database for engine tests.
type fakeStore struct {
	mu sync.Mutex

	nextCharacterID int
	characters      map[int]*models.Character // keyed by user id

	nextRoomID int
	rooms      map[int]*models.Room

	inventory map[int]*models.InventoryItem
	catalog   map[int]*models.CatalogItem

	nextPlacedID int
	placed       map[int]*models.PlacedItem
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		characters: make(map[int]*models.Character),
		rooms:      make(map[int]*models.Room),
		inventory:  make(map[int]*models.InventoryItem),
		catalog:    make(map[int]*models.CatalogItem),
		placed:     make(map[int]*models.PlacedItem),
	}
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeStore) CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeStore) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeStore) GetOrCreateCharacter(ctx context.Context, userID int, name string, spawnX, spawnY float64) (*models.Character, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.characters[userID]; ok {
		copied := *ch
		return &copied, nil
	}
	f.nextCharacterID++
	ch := &models.Character{
		ID:     f.nextCharacterID,
		UserID: userID,
		Name:   name,
		X:      spawnX,
		Y:      spawnY,
		Appearance: models.Appearance{
			BodyStyle:  "body_01",
			HairStyle:  "hair_01",
			ShirtStyle: "shirt_01",
			PantsStyle: "pants_01",
		},
	}
	f.characters[userID] = ch
	copied := *ch
	return &copied, nil
}

func (f *fakeStore) SavePosition(ctx context.Context, characterID int, x, y float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.characters {
		if ch.ID == characterID {
			ch.X = x
			ch.Y = y
		}
	}
	return nil
}

func (f *fakeStore) SaveAppearance(ctx context.Context, characterID int, appearance models.Appearance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.characters {
		if ch.ID == characterID {
			ch.Appearance = appearance
		}
	}
	return nil
}

func (f *fakeStore) CreateRoom(ctx context.Context, name string, hostID, maxPlayers int) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextRoomID++
	room := &models.Room{
		ID:         f.nextRoomID,
		Name:       name,
		HostID:     hostID,
		MaxPlayers: maxPlayers,
		Status:     models.RoomStatusWaiting,
	}
	f.rooms[room.ID] = room
	copied := *room
	return &copied, nil
}

func (f *fakeStore) UpdateRoomStatus(ctx context.Context, roomID int, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok := f.rooms[roomID]; ok {
		room.Status = status
	}
	return nil
}

func (f *fakeStore) ListActiveRooms(ctx context.Context) ([]*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Room
	for _, room := range f.rooms {
		if room.Status != models.RoomStatusClosed {
			copied := *room
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStore) GetInventoryItem(ctx context.Context, id int) (*models.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.inventory[id]
	if !ok {
		return nil, fmt.Errorf("inventory item %d not found", id)
	}
	copied := *item
	return &copied, nil
}

func (f *fakeStore) GetCatalogItem(ctx context.Context, id int) (*models.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.catalog[id]
	if !ok {
		return nil, fmt.Errorf("catalog item %d not found", id)
	}
	copied := *item
	return &copied, nil
}

func (f *fakeStore) PlaceItem(ctx context.Context, inventoryItemID, roomID, userID int, x, y float64, rotation, zIndex int) (*models.PlacedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.inventory[inventoryItemID]
	if !ok || inv.UserID != userID || inv.Quantity < 1 {
		return nil, database.ErrInsufficientInventory
	}
	inv.Quantity--
	f.nextPlacedID++
	item := &models.PlacedItem{
		ID:            f.nextPlacedID,
		RoomID:        roomID,
		CatalogItemID: inv.CatalogItemID,
		PlacedBy:      userID,
		X:             x,
		Y:             y,
		Rotation:      rotation,
		ZIndex:        zIndex,
	}
	f.placed[item.ID] = item
	copied := *item
	return &copied, nil
}

func (f *fakeStore) UpdatePlacedItem(ctx context.Context, id int, x, y float64, rotation, zIndex int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item, ok := f.placed[id]; ok {
		item.X = x
		item.Y = y
		item.Rotation = rotation
		item.ZIndex = zIndex
	}
	return nil
}

func (f *fakeStore) DeletePlacedItem(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.placed, id)
	return nil
}

func (f *fakeStore) ListPlacedItems(ctx context.Context, roomID int) ([]*models.PlacedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PlacedItem
	for _, item := range f.placed {
		if item.RoomID == roomID {
			copied := *item
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) inventoryQuantity(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item, ok := f.inventory[id]; ok {
		return item.Quantity
	}
	return 0
}

func (f *fakeStore) addInventory(id, userID, catalogItemID, quantity int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inventory[id] = &models.InventoryItem{
		ID:            id,
		UserID:        userID,
		CatalogItemID: catalogItemID,
		Quantity:      quantity,
	}
}

func (f *fakeStore) addCatalog(id int, name string, placeable bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog[id] = &models.CatalogItem{ID: id, Name: name, Placeable: placeable}
}

// testGridRows is a bordered 6x6 area with one interior wall cell at
// column 3, row 3 (world cell centers at n*32+16).
var testGridRows = []string{
	"111111",
	"100001",
	"100001",
	"100101",
	"100001",
	"111111",
}

const testSpawnX, testSpawnY = 48, 48 // center of cell (1,1)

func newTestEngine(t *testing.T) (*Engine, *fakeStore) {
	t.Helper()
	grid, err := world.NewGrid(32, testGridRows)
	require.NoError(t, err)

	store := newFakeStore()
	rooms := NewRoomRegistry(store)
	sessions := NewSessionRegistry(store, testSpawnX, testSpawnY)
	return NewEngine(rooms, sessions, grid, store, NewLogRewardSink(), 280), store
}

func connect(t *testing.T, e *Engine, userID int, name string) (*Session, *fakeSender) {
	t.Helper()
	sender := &fakeSender{}
	sess, err := e.Sessions().Register(context.Background(), uuid.NewString(), &models.User{ID: userID, Username: name}, sender)
	require.NoError(t, err)
	return sess, sender
}

// enterRoom joins and readies a session so subsequent intents are valid.
func enterRoom(t *testing.T, e *Engine, sess *Session, roomID int) {
	t.Helper()
	require.NoError(t, e.JoinRoom(sess, roomID))
	require.NoError(t, e.Ready(sess, roomID))
}
