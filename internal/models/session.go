package models

// Session is the authenticated user state. Exactly one instance exists
// per process, owned by session.Manager.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       int    `json:"userId"`
	Username     string `json:"username"`
	Nickname     string `json:"nickname"`
	Avatar       string `json:"avatar,omitempty"`
}

// Empty reports whether the session holds no credentials.
func (s Session) Empty() bool {
	return s.AccessToken == "" && s.RefreshToken == ""
}
