package models

// PendingInvite is a group invite awaiting the owner's decision. It is
// created by a realtime chat:invite event and removed by the local
// accept/reject action.
type PendingInvite struct {
	ID              int    `json:"id"`
	ChatID          int    `json:"chatId"`
	ChatTitle       string `json:"chatTitle,omitempty"`
	InviterID       int    `json:"inviterId"`
	InviterUsername string `json:"inviterUsername,omitempty"`
	InviterNickname string `json:"inviterNickname,omitempty"`
	InviteeID       int    `json:"inviteeId"`
	InviteeUsername string `json:"inviteeUsername,omitempty"`
	InviteeNickname string `json:"inviteeNickname,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
}

// DisplayName prefers the nickname over the username, matching how the
// server labels users in notifications.
func DisplayName(nickname, username string) string {
	if nickname != "" {
		return nickname
	}
	return username
}
