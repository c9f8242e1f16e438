// cybercraft-launcher/gateway/server.go
package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"cybercraft-launcher/utils"
)

const (
	TokenHeader = "X-Gateway-Token"
	TokenQuery  = "token"

	writeWait      = 10 * time.Second
	maxPayloadSize = 1 << 20
	sendBuffer     = 256
)

// Server exposes a Gateway to the UI process over localhost.
type Server struct {
	gateway  *Gateway
	token    string
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewServer(g *Gateway, token string, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	return &Server{
		gateway:  g,
		token:    token,
		gatherer: gatherer,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     localOrigin,
		},
	}
}

// localOrigin accepts non-browser clients and pages served from localhost.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWebSocket)
	r.Post("/api/ops/{op}", s.handleOp)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Serve blocks until ctx is done or the listener fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("gateway server shutdown", zap.Error(err))
		}
		return nil
	}
}

func (s *Server) authorized(token string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) == 1
}

func (s *Server) handleOp(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r.Header.Get(TokenHeader)) {
		utils.WriteJSONError(w, http.StatusUnauthorized, "invalid gateway token")
		return
	}
	op := Op(chi.URLParam(r, "op"))
	kind, ok := Lookup(op)
	if !ok {
		utils.WriteJSONError(w, http.StatusNotFound, "%s: %q", ErrUnknownOp, op)
		return
	}
	if kind == Stream {
		utils.WriteJSONError(w, http.StatusBadRequest, "%s: use the websocket", ErrNotCallable)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize))
	if err != nil {
		utils.WriteJSONError(w, http.StatusBadRequest, "read payload: %v", err)
		return
	}
	result, err := s.gateway.Dispatch(r.Context(), op, payload)
	if err != nil {
		utils.WriteJSONError(w, http.StatusUnprocessableEntity, "%v", err)
		return
	}
	if kind == FireAndForget {
		utils.WriteJSON(w, http.StatusAccepted, utils.APIResponse{OK: true})
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r.URL.Query().Get(TokenQuery)) {
		utils.WriteJSONError(w, http.StatusUnauthorized, "invalid gateway token")
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &conn{
		server: s,
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		ctx:    ctx,
		cancel: cancel,
		logger: s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context()))),
	}
	c.logger.Info("UI connected")
	go c.writePump()
	go c.readPump()
}

// conn is one UI connection. Replies for concurrent calls may leave in any
// order; the UI matches them by id.
type conn struct {
	server *Server
	ws     *websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	subMutex sync.Mutex
	sub      *Subscription
}

func (c *conn) readPump() {
	defer func() {
		c.cancel()
		c.closeSubscription()
		c.ws.Close()
		c.logger.Info("UI disconnected")
	}()
	c.ws.SetReadLimit(maxPayloadSize)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			c.logger.Warn("malformed request frame", zap.Error(err))
			continue
		}
		c.handle(req)
	}
}

func (c *conn) handle(req Request) {
	kind, ok := Lookup(req.Op)
	switch {
	case !ok:
		c.logger.Warn("rejected unknown operation", zap.String("op", string(req.Op)))
		if req.ID != "" {
			c.enqueue(Message{Type: MessageReply, ID: req.ID, Op: req.Op, Error: ErrUnknownOp.Error()})
		}
	case kind == Stream:
		c.subscribe()
	default:
		go c.dispatch(req, kind)
	}
}

func (c *conn) dispatch(req Request, kind Kind) {
	result, err := c.server.gateway.Dispatch(c.ctx, req.Op, req.Payload)
	if kind == FireAndForget {
		return
	}
	msg := Message{Type: MessageReply, ID: req.ID, Op: req.Op, Result: result}
	if err != nil {
		msg.Error = err.Error()
	}
	c.enqueue(msg)
}

// subscribe supersedes any earlier game log subscription, on this
// connection or another one.
func (c *conn) subscribe() {
	sub := c.server.gateway.Feed().Subscribe()
	c.subMutex.Lock()
	c.sub = sub
	c.subMutex.Unlock()

	go func() {
		for {
			line, ok := sub.Next(c.ctx)
			if !ok {
				return
			}
			c.enqueue(Message{Type: MessageLog, Line: line})
		}
	}()
}

func (c *conn) closeSubscription() {
	c.subMutex.Lock()
	defer c.subMutex.Unlock()
	if c.sub != nil {
		c.sub.Close()
	}
}

func (c *conn) enqueue(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("encode frame", zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	case <-c.ctx.Done():
	}
}

func (c *conn) writePump() {
	defer c.ws.Close()
	for {
		select {
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn("websocket write failed", zap.Error(err))
				c.cancel()
				return
			}
		case <-c.ctx.Done():
			c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
