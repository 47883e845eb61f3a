package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/saker-ai/armscript/internal/session"
)

// Handler serves one recording session per websocket connection. The peer
// drives the session with JSON-RPC tool calls and the session is closed, and
// exported, when the connection ends.
type Handler struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader
	manager  *session.Manager
}

type client struct {
	conn    *websocket.Conn
	sendMu  sync.Mutex
	logger  *zap.Logger
	session *session.Session
}

// NewHandler creates a websocket handler backed by manager.
func NewHandler(logger *zap.Logger, manager *session.Manager) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		logger:  logger,
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Handle upgrades the request and runs the session until the peer disconnects.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	sess, err := h.manager.Create()
	if err != nil {
		h.logger.Warn("ws session create failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		h.closeSession(sess.ID())
		return
	}
	defer conn.Close()

	c := &client{conn: conn, logger: h.logger, session: sess}
	c.logger.Info("ws session opened", zap.String("session_id", sess.ID()))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.logger.Debug("ws connection closed", zap.String("session_id", sess.ID()), zap.Error(err))
			break
		}
		var req rpcRequest
		if err := json.Unmarshal(data, &req); err != nil {
			c.replyError(nil, codeParseError, "invalid json")
			continue
		}
		c.handleRequest(req)
	}

	h.closeSession(sess.ID())
}

func (h *Handler) closeSession(id string) {
	artifacts, err := h.manager.Close(id)
	if err != nil {
		h.logger.Warn("ws session close failed", zap.String("session_id", id), zap.Error(err))
		return
	}
	h.logger.Info("ws session closed",
		zap.String("session_id", id),
		zap.Int("commands", artifacts.Commands),
	)
}

func (c *client) handleRequest(req rpcRequest) {
	if req.JSONRPC != jsonRPCVersion {
		c.replyError(req.ID, codeInvalidRequest, "invalid JSON-RPC version")
		return
	}
	if req.Method == "" {
		c.replyError(req.ID, codeInvalidRequest, "missing method")
		return
	}
	if len(req.ID) == 0 {
		c.logger.Debug("ws notification",
			zap.String("session_id", c.session.ID()),
			zap.String("method", req.Method),
		)
		return
	}
	c.dispatchRequest(req)
}

func (c *client) replyResult(id json.RawMessage, result any) {
	c.send(rpcResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func (c *client) replyError(id json.RawMessage, code int, message string) {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	c.send(rpcResponse{JSONRPC: jsonRPCVersion, ID: id, Error: &rpcError{Code: code, Message: message}})
}

func (c *client) send(payload any) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if err := c.conn.WriteJSON(payload); err != nil {
		c.logger.Debug("ws send failed", zap.Error(err))
	}
}
