// internal/models/config.go
package models

// RoomConfig captures the room-time configuration fixed for the lobby's
// lifetime once the room starts.
type RoomConfig struct {
	// EnableLaizi turns on the per-round wildcard rank.
	EnableLaizi bool `json:"enableLaizi"`

	// IsDedicated marks a room whose host process takes no seat itself.
	IsDedicated bool `json:"isDedicated"`

	// PasscodeHash is the argon2id hash guarding a private room, empty for
	// open rooms. Never serialized to guests.
	PasscodeHash string `json:"-"`
}
