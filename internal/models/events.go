package models

import "encoding/json"

// Inbound event names.
const (
	EventGetRoomList      = "get_room_list"
	EventCreateRoom       = "create_room"
	EventJoinRoom         = "join_room"
	EventPlayerReady      = "player_ready_in_room"
	EventLeaveRoom        = "leave_room_request"
	EventPlayerMove       = "player_move_request"
	EventSendChat         = "send_chat_message"
	EventChangeAppearance = "player_change_appearance"
	EventPlaceItem        = "room:place_item"
	EventMoveItem         = "room:move_item"
	EventRemoveItem       = "room:remove_item"
)

// The voice_chat:* family is relayed verbatim; only the prefix is inspected.
const VoiceEventPrefix = "voice_chat:"

// Outbound event names.
const (
	EventRoomListUpdate    = "room_list_update"
	EventGameInitialSetup  = "game_initial_setup"
	EventNewPlayerJoined   = "new_player_joined"
	EventOtherPlayerMoved  = "other_player_moved"
	EventMyPlayerMovePath  = "my_player_move_path"
	EventPlayerLeftRoom    = "player_left_room_notification"
	EventNewChatMessage    = "new_chat_message"
	EventAppearanceChanged = "player_appearance_changed"
	EventPlacedItemsUpdate = "room:placed_items_update"
	EventGameError         = "game_error"
	EventRoomJoined        = "room_joined"
	EventRoomLeft          = "room_left"
)

type ClientEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ServerEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type CreateRoomRequest struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"maxPlayers"`
}

type JoinRoomRequest struct {
	RoomID int `json:"roomId"`
}

type ReadyRequest struct {
	RoomID int `json:"roomId"`
}

type MoveRequest struct {
	TargetX float64 `json:"targetX"`
	TargetY float64 `json:"targetY"`
}

type ChatRequest struct {
	MessageText string `json:"messageText"`
}

// AppearanceRequest fields are pointers so absent fields are left unchanged.
type AppearanceRequest struct {
	BodyStyle  *string `json:"bodyStyle,omitempty"`
	HairStyle  *string `json:"hairStyle,omitempty"`
	ShirtStyle *string `json:"shirtStyle,omitempty"`
	PantsStyle *string `json:"pantsStyle,omitempty"`
}

type PlaceItemRequest struct {
	RoomID          int     `json:"roomId"`
	InventoryItemID int     `json:"inventoryItemId"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Rotation        int     `json:"rotation"`
	ZIndex          int     `json:"zIndex"`
}

type MoveItemRequest struct {
	RoomID       int     `json:"roomId"`
	PlacedItemID int     `json:"placedItemId"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Rotation     int     `json:"rotation"`
	ZIndex       int     `json:"zIndex"`
}

type RemoveItemRequest struct {
	RoomID       int `json:"roomId"`
	PlacedItemID int `json:"placedItemId"`
}

// VoiceRelayRequest carries an uninterpreted payload to a target user.
type VoiceRelayRequest struct {
	TargetUserID int             `json:"targetUserId"`
	Data         json.RawMessage `json:"data,omitempty"`
}

// PlayerState is the full per-player snapshot other clients render from.
type PlayerState struct {
	CharacterID int        `json:"character_id"`
	UserID      int        `json:"user_id"`
	Name        string     `json:"name"`
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	Appearance  Appearance `json:"appearance"`
}

type GridInfo struct {
	CellSize int      `json:"cell_size"`
	Rows     int      `json:"rows"`
	Cols     int      `json:"cols"`
	Cells    []string `json:"cells"`
}

type RoomListUpdate struct {
	Rooms []RoomSummary `json:"rooms"`
}

type RoomJoined struct {
	RoomID int    `json:"room_id"`
	Name   string `json:"name"`
}

type GameInitialSetup struct {
	You     PlayerState   `json:"you"`
	Grid    GridInfo      `json:"grid"`
	Players []PlayerState `json:"players"`
	Items   []PlacedItem  `json:"items"`
}

type MovePath struct {
	Path []Position `json:"path"`
}

type OtherPlayerMoved struct {
	CharacterID int        `json:"character_id"`
	Name        string     `json:"name"`
	Appearance  Appearance `json:"appearance"`
	Path        []Position `json:"path"`
}

type PlayerLeftRoom struct {
	CharacterID int `json:"character_id"`
}

type ChatBroadcast struct {
	CharacterID int    `json:"character_id"`
	Name        string `json:"name"`
	Text        string `json:"text"`
	Timestamp   string `json:"timestamp"`
}

type AppearanceChanged struct {
	CharacterID int        `json:"character_id"`
	Appearance  Appearance `json:"appearance"`
}

type PlacedItemsUpdate struct {
	RoomID int          `json:"room_id"`
	Items  []PlacedItem `json:"items"`
}

type GameError struct {
	Message string `json:"message"`
}
