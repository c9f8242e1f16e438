// cybercraft-launcher/controller/state.go
package controller

import (
	"cybercraft-launcher/backend"
	"cybercraft-launcher/selfupdate"
	"cybercraft-launcher/store"
)

type Auth int

const (
	LoggedOut Auth = iota
	LoggedIn
)

func (a Auth) String() string {
	if a == LoggedIn {
		return "logged in"
	}
	return "logged out"
}

// NoSelection is State.Selected when no server is selected.
const NoSelection = -1

// State is everything the renderer draws. The controller hands out copies;
// nothing else mutates it.
type State struct {
	Auth     Auth
	Identity *store.SessionIdentity
	SkinURL  string
	Servers  []backend.Server
	Selected int

	Settings    store.Settings
	MaxMemoryGB int
	// Draft is non-nil while the settings modal is open.
	Draft       *store.Settings

	Logs      []string
	Status    string
	Launching bool
	Update    *selfupdate.Status
}

// SelectedServer returns the selected server, if any.
func (s State) SelectedServer() (backend.Server, bool) {
	if s.Selected < 0 || s.Selected >= len(s.Servers) {
		return backend.Server{}, false
	}
	return s.Servers[s.Selected], true
}

func (s State) clone() State {
	c := s
	if s.Identity != nil {
		id := *s.Identity
		c.Identity = &id
	}
	if s.Draft != nil {
		d := *s.Draft
		c.Draft = &d
	}
	c.Servers = append([]backend.Server(nil), s.Servers...)
	c.Logs = append([]string(nil), s.Logs...)
	return c
}
