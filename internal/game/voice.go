package game

import (
	"encoding/json"
	"strings"

	"world-server/internal/models"
)

// Voice signaling is a pure relay keyed by target user id; payloads are
// never interpreted. The only state kept is which user a session is in a
// call with, so a disconnect can notify the peer.

const voiceCallEnded = models.VoiceEventPrefix + "call_ended"

type voiceRelayPayload struct {
	FromUserID int             `json:"fromUserId"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// RelayVoice forwards a voice_chat:* event to every session of the target
// user. A call_ended event clears the call reference; everything else
// marks the pair as in-call.
func (e *Engine) RelayVoice(sess *Session, eventType string, req *models.VoiceRelayRequest) error {
	if !strings.HasPrefix(eventType, models.VoiceEventPrefix) || req.TargetUserID == 0 {
		return ErrInvalidPayload
	}

	if eventType == voiceCallEnded {
		sess.SetCallPeer(0)
	} else {
		sess.SetCallPeer(req.TargetUserID)
	}

	event := models.ServerEnvelope{
		Type: eventType,
		Payload: voiceRelayPayload{
			FromUserID: sess.UserID,
			Data:       req.Data,
		},
	}
	for _, target := range e.sessions.ByUser(req.TargetUserID) {
		if eventType == voiceCallEnded {
			target.SetCallPeer(0)
		}
		target.sender.Send(event)
	}
	return nil
}

// notifyCallEnded is the disconnect path: the dropped session's peer gets
// a call_ended as if the leaver had sent one.
func (e *Engine) notifyCallEnded(sess *Session, peerUserID int) {
	event := models.ServerEnvelope{
		Type:    voiceCallEnded,
		Payload: voiceRelayPayload{FromUserID: sess.UserID},
	}
	for _, target := range e.sessions.ByUser(peerUserID) {
		target.SetCallPeer(0)
		target.sender.Send(event)
	}
}
