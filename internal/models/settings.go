package models

// Settings are the connection preferences persisted across restarts, so
// a new run can tell when the target server moved since the last one.
type Settings struct {
	Server  string `json:"server"`
	DevMode bool   `json:"devMode"`
}
