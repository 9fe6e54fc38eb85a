package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"chat-client/internal/models"
	"chat-client/internal/notify"
	"chat-client/internal/session"
	"chat-client/internal/store"
)

// ChatLister re-fetches the chat list; satisfied by the api client.
type ChatLister interface {
	ChatList(ctx context.Context) ([]models.Chat, error)
}

// Reconciler owns the canonical in-memory chat/message/friend state.
// REST responses and realtime events both land here; every apply is
// idempotent where duplicates can occur, so reconnect replays are safe.
type Reconciler struct {
	mu       sync.Mutex
	chats    map[int]*models.Chat
	order    []int
	friends  []models.Friend
	requests []models.FriendRequest
	invites  map[int]models.PendingInvite

	sess     *session.Manager
	notifier *notify.Notifier
	lister   ChatLister
	store    store.Store
}

// Stats summarizes collection sizes for the debug endpoint.
type Stats struct {
	Chats    int `json:"chats"`
	Friends  int `json:"friends"`
	Requests int `json:"friendRequests"`
	Invites  int `json:"pendingInvites"`
}

// NewReconciler constructs an empty reconciler. lister and store may be
// nil in tests.
func NewReconciler(sess *session.Manager, notifier *notify.Notifier, lister ChatLister, s store.Store) *Reconciler {
	return &Reconciler{
		chats:    make(map[int]*models.Chat),
		invites:  make(map[int]models.PendingInvite),
		sess:     sess,
		notifier: notifier,
		lister:   lister,
		store:    s,
	}
}

// ApplyChatList replaces the chat collection with a REST list result.
// Cached message histories survive for chats still present, since the
// list endpoint does not carry them.
func (r *Reconciler) ApplyChatList(ctx context.Context, chats []models.Chat) {
	r.mu.Lock()
	fresh := make(map[int]*models.Chat, len(chats))
	order := make([]int, 0, len(chats))
	for i := range chats {
		chat := chats[i]
		if prev, ok := r.chats[chat.ID]; ok && len(chat.Messages) == 0 {
			chat.Messages = prev.Messages
		}
		fresh[chat.ID] = &chat
		order = append(order, chat.ID)
	}
	r.chats = fresh
	r.order = order
	r.mu.Unlock()

	r.persistChats(ctx)
}

// AddChat prepends a newly created chat.
func (r *Reconciler) AddChat(ctx context.Context, chat models.Chat) {
	r.mu.Lock()
	if _, ok := r.chats[chat.ID]; !ok {
		r.chats[chat.ID] = &chat
		r.order = append([]int{chat.ID}, r.order...)
	}
	r.mu.Unlock()

	r.persistChats(ctx)
}

// RemoveChat drops a chat and its history.
func (r *Reconciler) RemoveChat(ctx context.Context, chatID int) {
	r.mu.Lock()
	delete(r.chats, chatID)
	for i, id := range r.order {
		if id == chatID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.persistChats(ctx)
}

// Chats returns the chat collection in order, most recent first.
func (r *Reconciler) Chats() []models.Chat {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Chat, 0, len(r.order))
	for _, id := range r.order {
		if chat, ok := r.chats[id]; ok {
			out = append(out, *chat)
		}
	}
	return out
}

// Chat returns one chat by id.
func (r *Reconciler) Chat(chatID int) (models.Chat, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok {
		return models.Chat{}, false
	}
	return *chat, true
}

// SetMessages replaces a chat's history with a REST list result.
func (r *Reconciler) SetMessages(ctx context.Context, chatID int, messages []models.Message) {
	r.mu.Lock()
	if chat, ok := r.chats[chatID]; ok {
		chat.Messages = messages
	}
	r.mu.Unlock()

	r.persistChats(ctx)
}

// AddMessage appends a message to a chat unless a message with the same
// id is already present. Duplicate delivery after a reconnect replay is
// expected; dropping it silently is the contract. The chat's
// denormalized last-message fields update only on an actual append.
func (r *Reconciler) AddMessage(ctx context.Context, chatID int, msg models.Message) bool {
	r.mu.Lock()
	chat, ok := r.chats[chatID]
	if !ok {
		// A message for an unknown chat creates a placeholder entry at
		// the front; the next chat-list fetch fills in the details.
		chat = &models.Chat{ID: chatID, Title: fmt.Sprintf("chat %d", chatID)}
		r.chats[chatID] = chat
		r.order = append([]int{chatID}, r.order...)
	}

	if msg.ID != 0 {
		for _, existing := range chat.Messages {
			if existing.ID == msg.ID {
				r.mu.Unlock()
				return false
			}
		}
	}

	chat.Messages = append(chat.Messages, msg)
	chat.LastMessage = msg.Content
	if msg.CreatedAt != "" {
		chat.LastMessageAt = msg.CreatedAt
	} else {
		chat.LastMessageAt = time.Now().UTC().Format(time.RFC3339)
	}
	r.mu.Unlock()

	r.persistChats(ctx)
	return true
}

// ClearMessages wipes a chat's history after an explicit clear.
func (r *Reconciler) ClearMessages(ctx context.Context, chatID int) {
	r.mu.Lock()
	if chat, ok := r.chats[chatID]; ok {
		chat.Messages = nil
		chat.LastMessage = ""
		chat.LastMessageAt = ""
	}
	r.mu.Unlock()

	r.persistChats(ctx)
}

// RemoveMessage drops one message after a delete.
func (r *Reconciler) RemoveMessage(ctx context.Context, chatID, messageID int) {
	r.mu.Lock()
	if chat, ok := r.chats[chatID]; ok {
		for i, msg := range chat.Messages {
			if msg.ID == messageID {
				chat.Messages = append(chat.Messages[:i], chat.Messages[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	r.persistChats(ctx)
}

// SetFriends replaces the friend collection.
func (r *Reconciler) SetFriends(friends []models.Friend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.friends = friends
}

// Friends returns the friend collection.
func (r *Reconciler) Friends() []models.Friend {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Friend, len(r.friends))
	copy(out, r.friends)
	return out
}

// SetRequests replaces the inbound friend-request collection.
func (r *Reconciler) SetRequests(requests []models.FriendRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = requests
}

// Requests returns the pending friend requests.
func (r *Reconciler) Requests() []models.FriendRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.FriendRequest, len(r.requests))
	copy(out, r.requests)
	return out
}

// RemoveRequest drops a request after the local accept/reject action.
func (r *Reconciler) RemoveRequest(requestID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, req := range r.requests {
		if req.ID == requestID {
			r.requests = append(r.requests[:i], r.requests[i+1:]...)
			return
		}
	}
}

// RemoveFriend drops a friend edge after the local delete action.
func (r *Reconciler) RemoveFriend(friendID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeFriendLocked(friendID)
}

// PendingInvites returns the invites awaiting the owner's decision.
func (r *Reconciler) PendingInvites() []models.PendingInvite {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.PendingInvite, 0, len(r.invites))
	for _, invite := range r.invites {
		out = append(out, invite)
	}
	return out
}

// RemovePendingInvite drops an invite after the local accept/reject.
// The realtime result broadcast never touches this collection.
func (r *Reconciler) RemovePendingInvite(inviteID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.invites, inviteID)
}

// CollectionStats reports collection sizes.
func (r *Reconciler) CollectionStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Chats:    len(r.chats),
		Friends:  len(r.friends),
		Requests: len(r.requests),
		Invites:  len(r.invites),
	}
}

func (r *Reconciler) removeFriendLocked(friendID int) {
	for i, friend := range r.friends {
		if friend.ID == friendID {
			r.friends = append(r.friends[:i], r.friends[i+1:]...)
			return
		}
	}
}

func (r *Reconciler) persistChats(ctx context.Context) {
	if r.store == nil {
		return
	}
	raw, err := json.Marshal(r.Chats())
	if err != nil {
		log.Printf("state: marshal chats: %v", err)
		return
	}
	if err := r.store.Set(ctx, store.KeyChats, raw); err != nil {
		log.Printf("state: persist chats: %v", err)
	}
}
