package game

import (
	"context"
	"errors"

	"world-server/internal/database"
	"world-server/internal/models"
	"world-server/pkg/logger"
)

// Decoration ledger: host-gated placement, move and removal of
// inventory-backed objects. Every successful mutation re-broadcasts the
// full placed-item snapshot rather than a delta.

// hostRoom resolves the room and enforces membership plus the single
// authorization rule: only the host user mutates decorations.
func (e *Engine) hostRoom(sess *Session, roomID int) (*Room, error) {
	if sess.RoomID() != roomID {
		return nil, ErrWrongRoom
	}
	room, ok := e.rooms.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.HostID != sess.UserID {
		return nil, ErrNotHost
	}
	return room, nil
}

// PlaceItem validates ownership and placeability, then consumes one
// inventory unit and records the placement in a single store transaction.
// The in-memory ledger is only touched after the store commits, so a
// failed decrement leaves no phantom placement.
func (e *Engine) PlaceItem(ctx context.Context, sess *Session, req *models.PlaceItemRequest) error {
	room, err := e.hostRoom(sess, req.RoomID)
	if err != nil {
		return err
	}

	inv, err := e.store.GetInventoryItem(ctx, req.InventoryItemID)
	if err != nil {
		return ErrItemNotOwned
	}
	if inv.UserID != sess.UserID || inv.Quantity < 1 {
		return ErrItemNotOwned
	}
	catalog, err := e.store.GetCatalogItem(ctx, inv.CatalogItemID)
	if err != nil || !catalog.Placeable {
		return ErrNotPlaceable
	}

	placed, err := e.store.PlaceItem(ctx, req.InventoryItemID, room.ID, sess.UserID, req.X, req.Y, req.Rotation, req.ZIndex)
	if err != nil {
		if errors.Is(err, database.ErrInsufficientInventory) {
			return ErrItemNotOwned
		}
		logger.Error("Placement failed for user %d in room %d: %v", sess.UserID, room.ID, err)
		return err
	}

	room.mu.Lock()
	room.items[placed.ID] = placed
	room.mu.Unlock()

	e.broadcastItems(room)

	userID := sess.UserID
	catalogItemID := placed.CatalogItemID
	go func() {
		if err := e.rewards.ItemPlaced(context.Background(), userID, catalogItemID); err != nil {
			logger.Error("Reward callback failed for user %d: %v", userID, err)
		}
	}()
	return nil
}

// MoveItem mutates position, rotation and stacking of an existing
// placement. The store mirror is asynchronous.
func (e *Engine) MoveItem(sess *Session, req *models.MoveItemRequest) error {
	room, err := e.hostRoom(sess, req.RoomID)
	if err != nil {
		return err
	}

	room.mu.Lock()
	item, ok := room.items[req.PlacedItemID]
	if !ok {
		room.mu.Unlock()
		return ErrItemNotFound
	}
	item.X = req.X
	item.Y = req.Y
	item.Rotation = req.Rotation
	item.ZIndex = req.ZIndex
	room.mu.Unlock()

	e.broadcastItems(room)

	go func() {
		if err := e.store.UpdatePlacedItem(context.Background(), req.PlacedItemID, req.X, req.Y, req.Rotation, req.ZIndex); err != nil {
			logger.Error("Failed to persist move of placed item %d: %v", req.PlacedItemID, err)
		}
	}()
	return nil
}

// RemoveItem deletes the placement. The item is not returned to inventory.
func (e *Engine) RemoveItem(sess *Session, req *models.RemoveItemRequest) error {
	room, err := e.hostRoom(sess, req.RoomID)
	if err != nil {
		return err
	}

	room.mu.Lock()
	if _, ok := room.items[req.PlacedItemID]; !ok {
		room.mu.Unlock()
		return ErrItemNotFound
	}
	delete(room.items, req.PlacedItemID)
	room.mu.Unlock()

	e.broadcastItems(room)

	go func() {
		if err := e.store.DeletePlacedItem(context.Background(), req.PlacedItemID); err != nil {
			logger.Error("Failed to persist removal of placed item %d: %v", req.PlacedItemID, err)
		}
	}()
	return nil
}

func (e *Engine) broadcastItems(room *Room) {
	room.Broadcast(models.ServerEnvelope{
		Type: models.EventPlacedItemsUpdate,
		Payload: models.PlacedItemsUpdate{
			RoomID: room.ID,
			Items:  room.itemsSnapshot(),
		},
	}, 0)
}
