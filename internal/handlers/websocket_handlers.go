package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"world-server/internal/auth"
	"world-server/internal/game"
	"world-server/internal/models"
	ws "world-server/internal/websocket"
	"world-server/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	authService *auth.Service
	engine      *game.Engine
	upgrader    websocket.Upgrader
}

func NewWebSocketHandlers(authService *auth.Service, engine *game.Engine) *WebSocketHandlers {
	return &WebSocketHandlers{
		authService: authService,
		engine:      engine,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

// HandleWebSocket authenticates the bearer credential before upgrading.
// Rejected credentials never reach the game engine; the refusal carries
// the reason string.
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, auth.ErrTokenMalformed.Error(), http.StatusUnauthorized)
		return
	}

	user, err := h.authService.GetUserFromToken(r.Context(), tokenStr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	connID := uuid.NewString()
	client := ws.NewClient(connID, conn,
		func(raw []byte) { h.dispatch(connID, raw) },
		func() { h.engine.Disconnect(connID) },
	)

	sess, err := h.engine.Sessions().Register(r.Context(), connID, user, client)
	if err != nil {
		logger.Error("Error creating session for user %d: %v", user.ID, err)
		conn.Close()
		return
	}

	logger.Info("User %d connected as character %d (conn %s)", user.ID, sess.CharacterID, connID)
	go client.WritePump()
	go client.ReadPump()
}

// dispatch routes one inbound frame. Errors from the engine are reported
// to the requester only; nothing here is fatal to the room or to other
// occupants.
func (h *WebSocketHandlers) dispatch(connID string, raw []byte) {
	sess, ok := h.engine.Sessions().Lookup(connID)
	if !ok {
		return
	}

	var env models.ClientEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		sess.Send(models.EventGameError, models.GameError{Message: game.ErrInvalidPayload.Error()})
		return
	}

	if err := h.handleEvent(sess, &env); err != nil {
		sess.Send(models.EventGameError, models.GameError{Message: err.Error()})
	}
}

func (h *WebSocketHandlers) handleEvent(sess *game.Session, env *models.ClientEnvelope) error {
	ctx := context.Background()

	switch env.Type {
	case models.EventGetRoomList:
		h.engine.RoomList(sess)
		return nil

	case models.EventCreateRoom:
		var req models.CreateRoomRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return game.ErrInvalidPayload
		}
		return h.engine.CreateRoom(ctx, sess, &req)

	case models.EventJoinRoom:
		var req models.JoinRoomRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return game.ErrInvalidPayload
		}
		return h.engine.JoinRoom(sess, req.RoomID)

	case models.EventPlayerReady:
		var req models.ReadyRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return game.ErrInvalidPayload
		}
		return h.engine.Ready(sess, req.RoomID)

	case models.EventLeaveRoom:
		return h.engine.LeaveRoom(sess)

	case models.EventPlayerMove:
		var req models.MoveRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return game.ErrInvalidPayload
		}
		return h.engine.Move(sess, &req)

	case models.EventSendChat:
		var req models.ChatRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return game.ErrInvalidPayload
		}
		return h.engine.Chat(sess, &req)

	case models.EventChangeAppearance:
		var req models.AppearanceRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return game.ErrInvalidPayload
		}
		return h.engine.ChangeAppearance(sess, &req)

	case models.EventPlaceItem:
		var req models.PlaceItemRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return game.ErrInvalidPayload
		}
		return h.engine.PlaceItem(ctx, sess, &req)

	case models.EventMoveItem:
		var req models.MoveItemRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return game.ErrInvalidPayload
		}
		return h.engine.MoveItem(sess, &req)

	case models.EventRemoveItem:
		var req models.RemoveItemRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return game.ErrInvalidPayload
		}
		return h.engine.RemoveItem(sess, &req)

	default:
		if strings.HasPrefix(env.Type, models.VoiceEventPrefix) {
			var req models.VoiceRelayRequest
			if err := json.Unmarshal(env.Payload, &req); err != nil {
				return game.ErrInvalidPayload
			}
			return h.engine.RelayVoice(sess, env.Type, &req)
		}
		logger.Debug("Unknown event type %q from conn %s", env.Type, sess.ConnID)
		return game.ErrInvalidPayload
	}
}
