package ws

import (
	"encoding/json"
	"log"

	"chat-client/internal/observability"
)

// Handler receives reconciliation events. The state reconciler is the
// production implementation; auth and pong frames never reach it, the
// channel consumes those itself.
type Handler interface {
	HandleOnlineSnapshot(friendIDs []int)
	HandleMessageNew(event MessageNewPayload)
	HandleFriendRequest(event FriendRequestPayload)
	HandleFriendAccepted(event FriendAcceptedPayload)
	HandleFriendRejected()
	HandleFriendRemoved(event FriendRemovedPayload)
	HandleFriendPresence(friendID int, online bool)
	HandleChatInvite(event ChatInvitePayload)
	HandleChatInviteResult(event ChatInviteResultPayload)
}

// Router classifies inbound frames and dispatches them to the handler.
// Malformed payloads and unknown types are logged and dropped; nothing
// inbound may take the channel down.
type Router struct {
	handler Handler
}

// NewRouter constructs a Router.
func NewRouter(handler Handler) *Router {
	return &Router{handler: handler}
}

// Route dispatches one frame.
func (r *Router) Route(frame Frame) {
	observability.IncWSEvent(frame.Type)

	switch frame.Type {
	case EventMessageNew:
		var payload MessageNewPayload
		if !r.decode(frame, &payload) {
			return
		}
		if payload.ChatID == 0 {
			log.Printf("[ws] message:new without chatId dropped")
			return
		}
		r.handler.HandleMessageNew(payload)

	case EventFriendRequest:
		var payload FriendRequestPayload
		if !r.decode(frame, &payload) {
			return
		}
		r.handler.HandleFriendRequest(payload)

	case EventFriendAccepted:
		var payload FriendAcceptedPayload
		if !r.decode(frame, &payload) {
			return
		}
		r.handler.HandleFriendAccepted(payload)

	case EventFriendRejected:
		r.handler.HandleFriendRejected()

	case EventFriendRemoved:
		var payload FriendRemovedPayload
		if !r.decode(frame, &payload) {
			return
		}
		r.handler.HandleFriendRemoved(payload)

	case EventFriendOnline, EventFriendOffline:
		var payload PresencePayload
		if !r.decode(frame, &payload) {
			return
		}
		r.handler.HandleFriendPresence(payload.FriendID, frame.Type == EventFriendOnline)

	case EventChatInvite:
		var payload ChatInvitePayload
		if !r.decode(frame, &payload) {
			return
		}
		if payload.Invite.ID == 0 {
			log.Printf("[ws] chat:invite without invite dropped")
			return
		}
		r.handler.HandleChatInvite(payload)

	case EventChatInviteResult:
		var payload ChatInviteResultPayload
		if !r.decode(frame, &payload) {
			return
		}
		r.handler.HandleChatInviteResult(payload)

	case EventError:
		var payload ErrorPayload
		if r.decode(frame, &payload) {
			log.Printf("[ws] server error: %s", payload.Message)
		}

	default:
		log.Printf("[ws] unknown event type: %s", frame.Type)
	}
}

func (r *Router) decode(frame Frame, out any) bool {
	if len(frame.Payload) == 0 {
		log.Printf("[ws] %s frame without payload dropped", frame.Type)
		observability.IncWSDroppedFrame()
		return false
	}
	if err := json.Unmarshal(frame.Payload, out); err != nil {
		log.Printf("[ws] undecodable %s payload dropped: %v", frame.Type, err)
		observability.IncWSDroppedFrame()
		return false
	}
	return true
}
