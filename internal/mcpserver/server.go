// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mcpserver exposes a registry of operations as Model Context
// Protocol tools over JSON-RPC 2.0. Two transports are provided:
// newline-delimited messages on stdio, and POST /mcp over HTTP.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/serpfire/internal/registry"
	"github.com/pdiddy/serpfire/pkg/types"
)

// ProtocolVersion is the MCP revision announced when the client does not
// request one.
const ProtocolVersion = "2024-11-05"

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Operations is the tool surface served by a Server.
type Operations interface {
	List() []registry.Descriptor
	Invoke(ctx context.Context, name string, args map[string]any) (types.Envelope, error)
}

// Server answers MCP requests.
type Server struct {
	name    string
	version string
	ops     Operations
	log     *zap.Logger
}

// New returns a Server announcing itself as name/version.
func New(name, version string, ops Operations, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{name: name, version: version, ops: ops, log: log}
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// notification reports whether no response is expected.
func (r rpcRequest) notification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type initializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Handle processes one encoded JSON-RPC message and returns the encoded
// response, or nil for notifications.
func (s *Server) Handle(ctx context.Context, msg []byte) []byte {
	var req rpcRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		return s.encode(rpcResponse{
			ID:    json.RawMessage("null"),
			Error: &rpcError{Code: codeParseError, Message: "Parse error: " + err.Error()},
		})
	}

	result, rerr := s.dispatch(ctx, req)
	if req.notification() {
		return nil
	}
	return s.encode(rpcResponse{ID: req.ID, Result: result, Error: rerr})
}

func (s *Server) dispatch(ctx context.Context, req rpcRequest) (any, *rpcError) {
	if req.JSONRPC != "2.0" || req.Method == "" {
		return nil, &rpcError{Code: codeInvalidRequest, Message: "Invalid request"}
	}

	switch req.Method {
	case "initialize":
		var p initializeParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return nil, invalidParams(err)
			}
		}
		version := p.ProtocolVersion
		if version == "" {
			version = ProtocolVersion
		}
		return map[string]any{
			"protocolVersion": version,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]string{"name": s.name, "version": s.version},
		}, nil

	case "notifications/initialized", "notifications/cancelled":
		return nil, nil

	case "ping":
		return struct{}{}, nil

	case "tools/list":
		return map[string]any{"tools": s.ops.List()}, nil

	case "tools/call":
		var p callParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, invalidParams(err)
		}
		if p.Name == "" {
			return nil, &rpcError{Code: codeInvalidParams, Message: "Invalid params: missing tool name"}
		}
		return s.call(ctx, p)
	}

	return nil, &rpcError{Code: codeMethodNotFound, Message: "Method not found: " + req.Method}
}

func (s *Server) call(ctx context.Context, p callParams) (any, *rpcError) {
	env, err := s.ops.Invoke(ctx, p.Name, p.Arguments)
	if errors.Is(err, registry.ErrUnknownOperation) {
		return nil, &rpcError{Code: codeMethodNotFound, Message: "Unknown tool: " + p.Name}
	}
	if err != nil {
		s.log.Error("tool call failed", zap.String("tool", p.Name), zap.Error(err))
		return nil, &rpcError{Code: codeInternalError, Message: err.Error()}
	}
	return env, nil
}

func invalidParams(err error) *rpcError {
	return &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("Invalid params: %v", err)}
}

func (s *Server) encode(resp rpcResponse) []byte {
	resp.JSONRPC = "2.0"
	b, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("encoding response", zap.Error(err))
		b, _ = json.Marshal(rpcResponse{
			JSONRPC: "2.0",
			ID:      resp.ID,
			Error:   &rpcError{Code: codeInternalError, Message: "encoding response failed"},
		})
	}
	return b
}
