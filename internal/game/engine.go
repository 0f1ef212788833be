package game

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"world-server/internal/database"
	"world-server/internal/models"
	"world-server/internal/world"
	"world-server/pkg/logger"
)

const maxRoomCapacity = 50

// Engine serializes every state-mutating room operation and fans deltas
// out to occupants. In-memory state is the source of truth; the store is
// an asynchronous mirror except for the transactional place-item flow.
type Engine struct {
	rooms    *RoomRegistry
	sessions *SessionRegistry
	grid     *world.Grid
	finder   *world.Pathfinder
	store    database.Database
	rewards  RewardSink

	maxChatLength int
}

func NewEngine(rooms *RoomRegistry, sessions *SessionRegistry, grid *world.Grid, store database.Database, rewards RewardSink, maxChatLength int) *Engine {
	if maxChatLength <= 0 {
		maxChatLength = 280
	}
	return &Engine{
		rooms:         rooms,
		sessions:      sessions,
		grid:          grid,
		finder:        world.NewPathfinder(grid),
		store:         store,
		rewards:       rewards,
		maxChatLength: maxChatLength,
	}
}

func (e *Engine) Sessions() *SessionRegistry { return e.sessions }
func (e *Engine) Rooms() *RoomRegistry       { return e.rooms }

// RoomList pushes the active-room snapshot to the requester.
func (e *Engine) RoomList(sess *Session) {
	sess.Send(models.EventRoomListUpdate, models.RoomListUpdate{Rooms: e.rooms.ListActive()})
}

// CreateRoom creates the room and auto-joins the caller as host.
func (e *Engine) CreateRoom(ctx context.Context, sess *Session, req *models.CreateRoomRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.MaxPlayers < 1 || req.MaxPlayers > maxRoomCapacity {
		return ErrInvalidPayload
	}

	room, err := e.rooms.Create(ctx, name, sess.UserID, req.MaxPlayers)
	if err != nil {
		return err
	}

	e.leaveCurrentRoom(sess)
	if _, err := e.rooms.Join(room.ID, sess); err != nil {
		return err
	}

	logger.Info("Room %d (%s) created by user %d", room.ID, room.Name, sess.UserID)
	sess.Send(models.EventRoomJoined, models.RoomJoined{RoomID: room.ID, Name: room.Name})
	return nil
}

// JoinRoom moves the session into the target room, leaving any prior room.
// The seat in the target is reserved first: a full or missing target must
// not disturb the caller's current membership, so the prior room is only
// left once the capacity check has passed.
func (e *Engine) JoinRoom(sess *Session, roomID int) error {
	if sess.RoomID() == roomID {
		if room, ok := e.rooms.Get(roomID); ok {
			sess.Send(models.EventRoomJoined, models.RoomJoined{RoomID: room.ID, Name: room.Name})
			return nil
		}
	}

	target, ok := e.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if err := target.addOccupant(sess); err != nil {
		return err
	}

	e.leaveCurrentRoom(sess)
	sess.setRoom(target.ID)

	sess.Send(models.EventRoomJoined, models.RoomJoined{RoomID: target.ID, Name: target.Name})
	return nil
}

// Ready flips the session active and returns the full initial snapshot to
// the caller only: own state, the grid, other occupants, placed items.
// Other occupants learn about the newcomer here, not at join time.
func (e *Engine) Ready(sess *Session, roomID int) error {
	if sess.RoomID() != roomID {
		return ErrWrongRoom
	}
	room, ok := e.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	sess.setReady()
	e.rooms.markInGame(room)
	setup := models.GameInitialSetup{
		You: sess.State(),
		Grid: models.GridInfo{
			CellSize: e.grid.CellSize(),
			Rows:     e.grid.Rows(),
			Cols:     e.grid.Cols(),
			Cells:    e.grid.RowStrings(),
		},
		Players: room.occupantStates(sess.CharacterID),
		Items:   room.itemsSnapshot(),
	}
	sess.Send(models.EventGameInitialSetup, setup)

	room.Broadcast(models.ServerEnvelope{
		Type:    models.EventNewPlayerJoined,
		Payload: sess.State(),
	}, sess.CharacterID)
	return nil
}

// LeaveRoom removes the session from its current room and notifies the
// remaining occupants.
func (e *Engine) LeaveRoom(sess *Session) error {
	if sess.RoomID() == 0 {
		return ErrNotInRoom
	}
	e.leaveCurrentRoom(sess)
	sess.Send(models.EventRoomLeft, nil)
	return nil
}

func (e *Engine) leaveCurrentRoom(sess *Session) {
	room, left := e.rooms.Leave(sess)
	if !left {
		return
	}
	room.Broadcast(models.ServerEnvelope{
		Type:    models.EventPlayerLeftRoom,
		Payload: models.PlayerLeftRoom{CharacterID: sess.CharacterID},
	}, sess.CharacterID)
}

// Move resolves a path from the session's last position to the target. An
// unreachable target is a silent no-op: no error, no broadcast, no
// position change. On success the server position jumps to the final
// waypoint immediately; clients animate the full sequence.
func (e *Engine) Move(sess *Session, req *models.MoveRequest) error {
	roomID := sess.RoomID()
	if roomID == 0 {
		return ErrNotInRoom
	}
	if !sess.Ready() {
		return ErrNotReady
	}
	room, ok := e.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	fromX, fromY := sess.Position()
	path := e.finder.FindPath(world.Point{X: fromX, Y: fromY}, world.Point{X: req.TargetX, Y: req.TargetY})
	if len(path) == 0 {
		return nil
	}

	last := path[len(path)-1]
	sess.SetPosition(last.X, last.Y)

	waypoints := make([]models.Position, len(path))
	for i, p := range path {
		waypoints[i] = models.Position{X: p.X, Y: p.Y}
	}

	sess.Send(models.EventMyPlayerMovePath, models.MovePath{Path: waypoints})
	room.Broadcast(models.ServerEnvelope{
		Type: models.EventOtherPlayerMoved,
		Payload: models.OtherPlayerMoved{
			CharacterID: sess.CharacterID,
			Name:        sess.Name,
			Appearance:  sess.Appearance(),
			Path:        waypoints,
		},
	}, sess.CharacterID)

	// Resting position is mirrored to storage outside any lock;
	// failures are logged, never retried synchronously.
	characterID := sess.CharacterID
	go func() {
		if err := e.store.SavePosition(context.Background(), characterID, last.X, last.Y); err != nil {
			logger.Error("Failed to persist position for character %d: %v", characterID, err)
		}
	}()
	return nil
}

// Chat broadcasts to every occupant including the sender, who renders its
// own bubble from the broadcast.
func (e *Engine) Chat(sess *Session, req *models.ChatRequest) error {
	text := strings.TrimSpace(req.MessageText)
	if text == "" || utf8.RuneCountInString(text) > e.maxChatLength {
		return ErrInvalidPayload
	}
	roomID := sess.RoomID()
	if roomID == 0 {
		return ErrNotInRoom
	}
	room, ok := e.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	room.Broadcast(models.ServerEnvelope{
		Type: models.EventNewChatMessage,
		Payload: models.ChatBroadcast{
			CharacterID: sess.CharacterID,
			Name:        sess.Name,
			Text:        text,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		},
	}, 0)
	return nil
}

// ChangeAppearance merges only the provided style fields. Roomless
// sessions see their own update; occupants broadcast room-wide.
func (e *Engine) ChangeAppearance(sess *Session, req *models.AppearanceRequest) error {
	if req.BodyStyle == nil && req.HairStyle == nil && req.ShirtStyle == nil && req.PantsStyle == nil {
		return ErrInvalidPayload
	}

	merged := sess.MergeAppearance(req)
	event := models.ServerEnvelope{
		Type: models.EventAppearanceChanged,
		Payload: models.AppearanceChanged{
			CharacterID: sess.CharacterID,
			Appearance:  merged,
		},
	}

	if room, ok := e.rooms.Get(sess.RoomID()); ok {
		room.Broadcast(event, 0)
	} else {
		sess.sender.Send(event)
	}

	characterID := sess.CharacterID
	go func() {
		if err := e.store.SaveAppearance(context.Background(), characterID, merged); err != nil {
			logger.Error("Failed to persist appearance for character %d: %v", characterID, err)
		}
	}()
	return nil
}

// Disconnect is the only lifecycle-ending signal: it tears down the
// session, runs the room leave fan-out, and ends any active voice call.
func (e *Engine) Disconnect(connID string) {
	sess, ok := e.sessions.Remove(connID)
	if !ok {
		return
	}

	e.leaveCurrentRoom(sess)

	if peer := sess.CallPeer(); peer != 0 {
		e.notifyCallEnded(sess, peer)
	}
	logger.Debug("Session %s (user %d) disconnected", connID, sess.UserID)
}
