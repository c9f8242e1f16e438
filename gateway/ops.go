// cybercraft-launcher/gateway/ops.go
package gateway

import "encoding/json"

// Op names one privileged operation. The set is closed: anything not in
// catalog is rejected before dispatch.
type Op string

const (
	OpMinimizeWindow      Op = "minimizeWindow"
	OpCloseApplication    Op = "closeApplication"
	OpOpenExternalLink    Op = "openExternalLink"
	OpGetSessionIdentity  Op = "getSessionIdentity"
	OpSaveSessionIdentity Op = "saveSessionIdentity"
	OpLogout              Op = "logout"
	OpGetSettings         Op = "getSettings"
	OpSaveSettings        Op = "saveSettings"
	OpGetMaxMemoryGB      Op = "getMaxMemoryGB"
	OpSelectDirectory     Op = "selectDirectory"
	OpLaunchGame          Op = "launchGame"
	OpGameLogStream       Op = "gameLogStream"
	OpCheckLauncherUpdate Op = "checkLauncherUpdate"
	OpApplyLauncherUpdate Op = "applyLauncherUpdate"
)

type Kind int

const (
	// FireAndForget ops get no reply.
	FireAndForget Kind = iota
	// RequestResponse ops get exactly one reply.
	RequestResponse
	// Stream ops are subscribed once and push messages until superseded.
	Stream
)

func (k Kind) String() string {
	switch k {
	case FireAndForget:
		return "fire-and-forget"
	case RequestResponse:
		return "request/response"
	case Stream:
		return "stream"
	}
	return "unknown"
}

var catalog = map[Op]Kind{
	OpMinimizeWindow:      FireAndForget,
	OpCloseApplication:    FireAndForget,
	OpOpenExternalLink:    FireAndForget,
	OpGetSessionIdentity:  RequestResponse,
	OpSaveSessionIdentity: RequestResponse,
	OpLogout:              RequestResponse,
	OpGetSettings:         RequestResponse,
	OpSaveSettings:        RequestResponse,
	OpGetMaxMemoryGB:      RequestResponse,
	OpSelectDirectory:     RequestResponse,
	OpLaunchGame:          RequestResponse,
	OpGameLogStream:       Stream,
	OpCheckLauncherUpdate: RequestResponse,
	OpApplyLauncherUpdate: RequestResponse,
}

// Lookup reports the kind of op and whether op is in the catalog.
func Lookup(op Op) (Kind, bool) {
	k, ok := catalog[op]
	return k, ok
}

// Ops lists the catalog.
func Ops() []Op {
	ops := make([]Op, 0, len(catalog))
	for op := range catalog {
		ops = append(ops, op)
	}
	return ops
}

// Request is a UI -> host frame. ID is required for request/response ops.
type Request struct {
	ID      string          `json:"id,omitempty"`
	Op      Op              `json:"op"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	MessageReply = "reply"
	MessageLog   = "log"
)

// Message is a host -> UI frame: a reply to one request, or a log line.
type Message struct {
	Type   string          `json:"type"`
	ID     string          `json:"id,omitempty"`
	Op     Op              `json:"op,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Line   string          `json:"line,omitempty"`
}

type OKResult struct {
	OK bool `json:"ok"`
}

// DirectoryResult is either a chosen path or a cancellation; cancellation is
// not a failure.
type DirectoryResult struct {
	Path      string `json:"path,omitempty"`
	Cancelled bool   `json:"cancelled"`
}

type LaunchIdentity struct {
	Username string `json:"username" validate:"required"`
}

type LaunchGameRequest struct {
	Identity LaunchIdentity `json:"identity"`
	Version  string         `json:"version" validate:"required"`
}

// LaunchResult reports whether the launch was initiated. Success does not
// mean the game is running.
type LaunchResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type OpenExternalLinkRequest struct {
	URL string `json:"url"`
}
