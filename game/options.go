// cybercraft-launcher/game/options.go
package game

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// Credential identifies the player to the game client.
type Credential struct {
	Name        string
	UUID        string
	AccessToken string
	UserType    string
}

type Version struct {
	Number string
	Type   string
}

// Memory bounds in JVM notation, e.g. "1G".
type Memory struct {
	Min string
	Max string
}

// Options is the launch configuration handed to the bootstrapper.
type Options struct {
	Credential Credential
	Root       string
	Version    Version
	Memory     Memory
}

// OfflineCredential builds the credential the game uses for offline
// players: a name-based v3 UUID of "OfflinePlayer:<name>".
func OfflineCredential(name string) Credential {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	id := uuid.UUID(sum)
	return Credential{
		Name:        name,
		UUID:        id.String(),
		AccessToken: id.String(),
		UserType:    "legacy",
	}
}
