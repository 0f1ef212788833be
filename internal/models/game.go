package models

import "time"

// Room statuses as stored and broadcast.
const (
	RoomStatusWaiting = "waiting"
	RoomStatusInGame  = "in-game"
	RoomStatusClosed  = "closed"
)

type Room struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	HostID     int       `json:"host_id"`
	MaxPlayers int       `json:"max_players"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// RoomSummary is what room listings carry over the wire: the stored room
// plus its live occupant count.
type RoomSummary struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	HostID      int    `json:"host_id"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
	Status      string `json:"status"`
}

// Appearance holds the style keys a character renders with. Empty strings
// are never stored; partial updates merge field by field.
type Appearance struct {
	BodyStyle  string `json:"body_style"`
	HairStyle  string `json:"hair_style"`
	ShirtStyle string `json:"shirt_style"`
	PantsStyle string `json:"pants_style"`
}

type Character struct {
	ID         int        `json:"id"`
	UserID     int        `json:"user_id"`
	Name       string     `json:"name"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Appearance Appearance `json:"appearance"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type CatalogItem struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Placeable bool   `json:"placeable"`
}

type InventoryItem struct {
	ID            int `json:"id"`
	UserID        int `json:"user_id"`
	CatalogItemID int `json:"catalog_item_id"`
	Quantity      int `json:"quantity"`
}

type PlacedItem struct {
	ID            int     `json:"id"`
	RoomID        int     `json:"room_id"`
	CatalogItemID int     `json:"catalog_item_id"`
	PlacedBy      int     `json:"placed_by"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Rotation      int     `json:"rotation"`
	ZIndex        int     `json:"z_index"`
}
