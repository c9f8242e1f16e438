// cybercraft-launcher/backend/types.go
package backend

type ServerImage struct {
	Image string `json:"image"`
}

// Server is one entry of the public server list. It has no identity beyond
// its position in the list.
type Server struct {
	Name              string        `json:"name"`
	OnlinePlayerCount int           `json:"online_player"`
	ImageURL          string        `json:"server_image"`
	Images            []ServerImage `json:"images"`
	Mods              []string      `json:"mods"`
	Version           string        `json:"version"`
}

type LoginResult struct {
	Token     string
	AvatarURL *string
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		AvatarURL      *string `json:"avatar_url"`
		AvatarURLCamel *string `json:"avatarUrl"`
	} `json:"user"`
}

type Profile struct {
	SkinURL string `json:"skinUrl"`
}

// Manifest describes the current launcher build published by the backend.
type Manifest struct {
	Version     string `json:"version"`
	BuildNumber int    `json:"buildNumber"`
	Artifact    struct {
		URL    string `json:"url"`
		SHA256 string `json:"sha256"`
	} `json:"asar"`
}
