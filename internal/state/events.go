package state

import (
	"context"
	"log"
	"time"

	"chat-client/internal/models"
	"chat-client/internal/ws"
)

// The reconciler is the ws.Handler for every non-auth realtime event.
var _ ws.Handler = (*Reconciler)(nil)

// HandleOnlineSnapshot applies the presence snapshot bundled with a
// successful channel authentication.
func (r *Reconciler) HandleOnlineSnapshot(friendIDs []int) {
	online := make(map[int]bool, len(friendIDs))
	for _, id := range friendIDs {
		online[id] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.friends {
		r.friends[i].Online = online[r.friends[i].ID]
	}
}

// HandleMessageNew appends a pushed message, dropping duplicates by id.
func (r *Reconciler) HandleMessageNew(event ws.MessageNewPayload) {
	if !r.AddMessage(context.Background(), event.ChatID, event.Message) {
		log.Printf("state: duplicate message %d for chat %d dropped", event.Message.ID, event.ChatID)
	}
}

// HandleFriendRequest inserts an inbound friend request; a duplicate id
// is a no-op.
func (r *Reconciler) HandleFriendRequest(event ws.FriendRequestPayload) {
	request := models.FriendRequest{
		ID:        event.RequestID,
		UserID:    event.FromUser.ID,
		Username:  event.FromUser.Username,
		Nickname:  event.FromUser.Nickname,
		Avatar:    event.FromUser.Avatar,
		Status:    "pending",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	r.mu.Lock()
	for _, existing := range r.requests {
		if existing.ID == request.ID {
			r.mu.Unlock()
			return
		}
	}
	r.requests = append([]models.FriendRequest{request}, r.requests...)
	r.mu.Unlock()

	name := models.DisplayName(event.FromUser.Nickname, event.FromUser.Username)
	r.notifier.Info("new friend request", name+" wants to add you as a friend")
}

// HandleFriendAccepted adds the new friend edge; a duplicate id is a
// no-op. The new friend is marked online since they just acted.
func (r *Reconciler) HandleFriendAccepted(event ws.FriendAcceptedPayload) {
	friend := event.Friend
	friend.Online = true
	if friend.CreatedAt == "" {
		friend.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	r.mu.Lock()
	duplicate := false
	for _, existing := range r.friends {
		if existing.ID == friend.ID {
			duplicate = true
			break
		}
	}
	if !duplicate {
		r.friends = append(r.friends, friend)
	}
	r.mu.Unlock()

	name := models.DisplayName(friend.Nickname, friend.Username)
	r.notifier.Success("friend request accepted", name+" accepted your friend request")
}

// HandleFriendRejected only notifies; there is no local state to touch.
func (r *Reconciler) HandleFriendRejected() {
	r.notifier.Info("friend request rejected", "your friend request was declined")
}

// HandleFriendRemoved drops the edge when the other side deletes it.
func (r *Reconciler) HandleFriendRemoved(event ws.FriendRemovedPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeFriendLocked(event.FriendID)
}

// HandleFriendPresence flips a friend's online flag.
func (r *Reconciler) HandleFriendPresence(friendID int, online bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.friends {
		if r.friends[i].ID == friendID {
			r.friends[i].Online = online
			return
		}
	}
}

// HandleChatInvite records a pending group invite for the owner; an
// already-known invite id is a no-op.
func (r *Reconciler) HandleChatInvite(event ws.ChatInvitePayload) {
	invite := event.Invite
	invite.ChatTitle = event.ChatTitle

	r.mu.Lock()
	if _, ok := r.invites[invite.ID]; ok {
		r.mu.Unlock()
		return
	}
	r.invites[invite.ID] = invite
	r.mu.Unlock()

	inviter := models.DisplayName(invite.InviterNickname, invite.InviterUsername)
	invitee := models.DisplayName(invite.InviteeNickname, invite.InviteeUsername)
	r.notifier.Info("new group invite",
		inviter+" invited "+invitee+" to join "+event.ChatTitle)
}

// HandleChatInviteResult reacts to the owner's decision. The invitee
// joining a group is the only branch that changes state, via a full
// chat-list refresh; pending invites are cleaned up by the owner's
// local action, never by this broadcast.
func (r *Reconciler) HandleChatInviteResult(event ws.ChatInviteResultPayload) {
	userID := r.sess.Snapshot().UserID
	isInviter := event.InviterID == userID
	isInvitee := event.InviteeID == userID

	switch {
	case event.Action == "accept" && isInvitee:
		r.notifier.Success("invite accepted", "you joined "+event.ChatTitle)
		go r.refreshChatList()
	case event.Action == "accept" && isInviter:
		r.notifier.Success("invite accepted", "your friend joined "+event.ChatTitle)
	case isInvitee:
		r.notifier.Warning("invite rejected", "the owner of "+event.ChatTitle+" rejected your join request")
	case isInviter:
		r.notifier.Warning("invite rejected", "the owner of "+event.ChatTitle+" rejected your invite")
	}
}

func (r *Reconciler) refreshChatList() {
	if r.lister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	chats, err := r.lister.ChatList(ctx)
	if err != nil {
		log.Printf("state: chat list refresh failed: %v", err)
		return
	}
	r.ApplyChatList(ctx, chats)
}
