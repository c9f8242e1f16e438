// cybercraft-launcher/gateway/client.go
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cybercraft-launcher/selfupdate"
	"cybercraft-launcher/store"
)

var ErrClosed = errors.New("gateway connection closed")

// RemoteError is a failure reported by the host for one operation.
type RemoteError struct {
	Op      Op
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Client is the UI side of the gateway. It is safe for concurrent use.
type Client struct {
	ws     *websocket.Conn
	logger *zap.Logger

	writeMutex sync.Mutex

	mutex   sync.Mutex
	pending map[string]chan Message
	onLog   func(string)
	closed  bool
	done    chan struct{}
}

// Dial connects to the websocket endpoint at rawURL, e.g.
// ws://127.0.0.1:41234/ws, authenticating with token.
func Dial(ctx context.Context, rawURL, token string, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	q := u.Query()
	q.Set(TokenQuery, token)
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial gateway: %w", err)
	}
	c := &Client{
		ws:      ws,
		logger:  logger,
		pending: make(map[string]chan Message),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Done is closed once the connection to the host is gone.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Close() error {
	c.writeMutex.Lock()
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.writeMutex.Unlock()
	return c.ws.Close()
}

func (c *Client) readLoop() {
	defer c.shutdown()
	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("gateway read failed", zap.Error(err))
			}
			return
		}
		switch msg.Type {
		case MessageReply:
			c.mutex.Lock()
			ch, ok := c.pending[msg.ID]
			delete(c.pending, msg.ID)
			c.mutex.Unlock()
			if ok {
				ch <- msg
			} else {
				c.logger.Debug("reply without caller", zap.String("id", msg.ID))
			}
		case MessageLog:
			c.mutex.Lock()
			fn := c.onLog
			c.mutex.Unlock()
			if fn != nil {
				fn(msg.Line)
			}
		}
	}
}

func (c *Client) shutdown() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.pending = nil
	close(c.done)
	c.ws.Close()
}

func (c *Client) write(req Request) error {
	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(req); err != nil {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return nil
}

func encodePayload(payload any) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

// Send issues a fire-and-forget op.
func (c *Client) Send(op Op, payload any) error {
	data, err := encodePayload(payload)
	if err != nil {
		return err
	}
	return c.write(Request{Op: op, Payload: data})
}

// Call issues a request/response op and decodes the reply into result,
// which may be nil. It waits until the reply arrives, ctx is done or the
// connection closes.
func (c *Client) Call(ctx context.Context, op Op, payload any, result any) error {
	data, err := encodePayload(payload)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	ch := make(chan Message, 1)

	c.mutex.Lock()
	if c.closed {
		c.mutex.Unlock()
		return ErrClosed
	}
	c.pending[id] = ch
	c.mutex.Unlock()

	if err := c.write(Request{ID: id, Op: op, Payload: data}); err != nil {
		c.forget(id)
		return err
	}

	select {
	case msg := <-ch:
		if msg.Error != "" {
			return &RemoteError{Op: op, Message: msg.Error}
		}
		if result == nil || len(msg.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(msg.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", op, err)
		}
		return nil
	case <-ctx.Done():
		c.forget(id)
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

func (c *Client) forget(id string) {
	c.mutex.Lock()
	delete(c.pending, id)
	c.mutex.Unlock()
}

// OnGameLog replaces any earlier game log handler and subscribes to the
// stream again, which drops lines the previous subscription had queued.
func (c *Client) OnGameLog(fn func(line string)) error {
	c.mutex.Lock()
	c.onLog = fn
	c.mutex.Unlock()
	return c.write(Request{Op: OpGameLogStream})
}

func (c *Client) MinimizeWindow() error { return c.Send(OpMinimizeWindow, nil) }

func (c *Client) CloseApplication() error { return c.Send(OpCloseApplication, nil) }

func (c *Client) OpenExternalLink(link string) error {
	return c.Send(OpOpenExternalLink, OpenExternalLinkRequest{URL: link})
}

// SessionIdentity returns nil when no identity is stored.
func (c *Client) SessionIdentity(ctx context.Context) (*store.SessionIdentity, error) {
	var id *store.SessionIdentity
	if err := c.Call(ctx, OpGetSessionIdentity, nil, &id); err != nil {
		return nil, err
	}
	return id, nil
}

func (c *Client) SaveSessionIdentity(ctx context.Context, id store.SessionIdentity) error {
	return c.Call(ctx, OpSaveSessionIdentity, id, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.Call(ctx, OpLogout, nil, nil)
}

func (c *Client) Settings(ctx context.Context) (store.Settings, error) {
	var s store.Settings
	err := c.Call(ctx, OpGetSettings, nil, &s)
	return s, err
}

func (c *Client) SaveSettings(ctx context.Context, s store.Settings) error {
	return c.Call(ctx, OpSaveSettings, s, nil)
}

func (c *Client) MaxMemoryGB(ctx context.Context) (int, error) {
	var gb int
	err := c.Call(ctx, OpGetMaxMemoryGB, nil, &gb)
	return gb, err
}

func (c *Client) SelectDirectory(ctx context.Context) (DirectoryResult, error) {
	var res DirectoryResult
	err := c.Call(ctx, OpSelectDirectory, nil, &res)
	return res, err
}

func (c *Client) LaunchGame(ctx context.Context, username, version string) (LaunchResult, error) {
	var res LaunchResult
	err := c.Call(ctx, OpLaunchGame, LaunchGameRequest{
		Identity: LaunchIdentity{Username: username},
		Version:  version,
	}, &res)
	return res, err
}

func (c *Client) CheckLauncherUpdate(ctx context.Context) (*selfupdate.Status, error) {
	var status selfupdate.Status
	if err := c.Call(ctx, OpCheckLauncherUpdate, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) ApplyLauncherUpdate(ctx context.Context) error {
	return c.Call(ctx, OpApplyLauncherUpdate, nil, nil)
}
