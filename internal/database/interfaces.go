package database

import (
	"context"
	"errors"

	"world-server/internal/models"
)

// ErrInsufficientInventory is returned when a placement would consume an
// inventory item the caller no longer holds.
var ErrInsufficientInventory = errors.New("insufficient inventory")

type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

type CharacterRepository interface {
	GetOrCreateCharacter(ctx context.Context, userID int, name string, spawnX, spawnY float64) (*models.Character, error)
	SavePosition(ctx context.Context, characterID int, x, y float64) error
	SaveAppearance(ctx context.Context, characterID int, appearance models.Appearance) error
}

type RoomRepository interface {
	CreateRoom(ctx context.Context, name string, hostID, maxPlayers int) (*models.Room, error)
	UpdateRoomStatus(ctx context.Context, roomID int, status string) error
	ListActiveRooms(ctx context.Context) ([]*models.Room, error)
}

type InventoryRepository interface {
	GetInventoryItem(ctx context.Context, id int) (*models.InventoryItem, error)
	GetCatalogItem(ctx context.Context, id int) (*models.CatalogItem, error)
}

type PlacedItemRepository interface {
	// PlaceItem consumes one unit of the inventory item and inserts the
	// placement in a single transaction.
	PlaceItem(ctx context.Context, inventoryItemID, roomID, userID int, x, y float64, rotation, zIndex int) (*models.PlacedItem, error)
	UpdatePlacedItem(ctx context.Context, id int, x, y float64, rotation, zIndex int) error
	DeletePlacedItem(ctx context.Context, id int) error
	ListPlacedItems(ctx context.Context, roomID int) ([]*models.PlacedItem, error)
}

type Database interface {
	UserRepository
	CharacterRepository
	RoomRepository
	InventoryRepository
	PlacedItemRepository
	Close() error
}
