package ws

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/saker-ai/armscript/internal/dispatch"
)

type requestHandler func(rpcRequest)

func (c *client) dispatchRequest(req rpcRequest) {
	handlers := map[string]requestHandler{
		"initialize":       c.onInitialize,
		"ping":             c.onPing,
		"tools/list":       c.onToolsList,
		"tools/call":       c.onToolsCall,
		"session/snapshot": c.onSnapshot,
		"session/export":   c.onExport,
	}

	if handler, ok := handlers[req.Method]; ok {
		handler(req)
		return
	}
	c.logger.Debug("ws unknown method",
		zap.String("session_id", c.session.ID()),
		zap.String("method", req.Method),
	)
	c.replyError(req.ID, codeMethodNotFound, "method not implemented")
}

func (c *client) onInitialize(req rpcRequest) {
	c.replyResult(req.ID, map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{"tools": map[string]any{}},
		"serverInfo": map[string]any{
			"name":    "armscript",
			"version": "1.0",
		},
		"sessionId": c.session.ID(),
	})
}

func (c *client) onPing(req rpcRequest) {
	c.replyResult(req.ID, map[string]any{})
}

func (c *client) onToolsList(req rpcRequest) {
	c.replyResult(req.ID, map[string]any{"tools": dispatch.Tools()})
}

func (c *client) onToolsCall(req rpcRequest) {
	var call dispatch.Call
	if err := json.Unmarshal(req.Params, &call); err != nil {
		c.replyError(req.ID, codeInvalidParams, "invalid tool call params")
		return
	}
	if call.Name == "" {
		c.replyError(req.ID, codeInvalidParams, "missing tool name")
		return
	}

	entry, err := c.session.Call(call)
	switch {
	case errors.Is(err, dispatch.ErrUnknownAction):
		c.replyError(req.ID, codeInvalidParams, err.Error())
	case err != nil:
		c.replyResult(req.ID, errorResult(err.Error()))
	default:
		c.replyResult(req.ID, textResult(entry.Executable, entry))
	}
}

func (c *client) onSnapshot(req rpcRequest) {
	c.replyResult(req.ID, c.session.Snapshot())
}

func (c *client) onExport(req rpcRequest) {
	artifacts, err := c.session.Export()
	if err != nil {
		c.replyResult(req.ID, errorResult(err.Error()))
		return
	}
	c.replyResult(req.ID, artifacts)
}
