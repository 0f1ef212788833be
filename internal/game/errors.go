package game

import "errors"

// Game-level failures reported to the requesting session only, as a
// game_error notice. None of them mutate state.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrNotInRoom      = errors.New("not in a room")
	ErrWrongRoom      = errors.New("not in that room")
	ErrNotReady       = errors.New("player not ready")
	ErrNotHost        = errors.New("only the room host may do that")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrItemNotFound   = errors.New("placed item not found")
	ErrItemNotOwned   = errors.New("inventory item not owned by caller")
	ErrNotPlaceable   = errors.New("item is not placeable")
)
