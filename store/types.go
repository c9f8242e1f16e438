// cybercraft-launcher/store/types.go
package store

import "path/filepath"

// SessionIdentity is the single account remembered on this machine.
// Password is kept in cleartext for silent re-login; see DESIGN.md.
type SessionIdentity struct {
	Username  string  `json:"username" validate:"required"`
	Password  string  `json:"password" validate:"required"`
	AvatarURL *string `json:"avatarUrl"`
	Token     string  `json:"token,omitempty"`
}

type Settings struct {
	RAMGigabytes int    `json:"ramGigabytes" validate:"min=1"`
	GamePath     string `json:"gamePath" validate:"required"`
}

const (
	minDefaultRAM = 2
	maxDefaultRAM = 4
	gameDirName   = "CyberCraft"
)

// DefaultSettings derives first-run settings from the host:
// ram = clamp(totalGB-1, 2, 4), gamePath = <dataDir>/CyberCraft.
func DefaultSettings(totalGB int, dataDir string) Settings {
	ram := totalGB - 1
	if ram < minDefaultRAM {
		ram = minDefaultRAM
	}
	if ram > maxDefaultRAM {
		ram = maxDefaultRAM
	}
	return Settings{
		RAMGigabytes: ram,
		GamePath:     filepath.Join(dataDir, gameDirName),
	}
}
