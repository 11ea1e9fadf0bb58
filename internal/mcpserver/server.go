package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"plexus/internal/bidir"
	"plexus/internal/router"
	"plexus/pkg/envelope"
	"plexus/pkg/handle"

	mcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// respondToolName is the well-known tool an MCP client calls to deliver
// a response to a server-initiated bidirectional request — the
// "_plexus_respond" pattern: once a transport has delivered the request to
// the client, the only channel back to the originating
// StandardChannel.Request is another, unrelated tools/call naming this
// tool. The stdio transport served here never delivers such a request
// (see inlineOutboundSink).
const respondToolName = "_plexus_respond"

// Server wraps a *router.Plexus with the MCP lifecycle state machine and
// JSON-RPC 2.0 method table. Each tools/call gets an inlineOutboundSink,
// so a server-initiated bidirectional request fails fast with a transport
// error: this demo transport is a single request/response round trip
// with no live push channel.
type Server struct {
	plexus       *router.Plexus
	state        *StateMachine
	info         ServerInfo
	bidirTimeout time.Duration
}

// New builds a Server wrapping plexus, not yet initialized.
func New(plexus *router.Plexus, info ServerInfo, bidirTimeout time.Duration) *Server {
	return &Server{plexus: plexus, state: NewStateMachine(), info: info, bidirTimeout: bidirTimeout}
}

func (s *Server) State() *StateMachine { return s.state }

// Handle routes one MCP JSON-RPC method call (params already extracted
// from the envelope) to its handler and returns the result value to be
// marshaled as the "result" field of a JSON-RPC response, or an *Error.
func (s *Server) Handle(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	logrus.WithField("method", method).Debug("mcpserver: handling request")

	switch method {
	case "initialize":
		return s.handleInitialize(ctx, params)
	case "notifications/initialized":
		return s.handleInitialized(ctx, params)
	case "ping":
		return s.handlePing(ctx, params)
	case "tools/list":
		return s.handleToolsList(ctx, params)
	case "tools/call":
		return s.handleToolsCall(ctx, params)
	case "resources/list":
		return s.handleResourcesList(ctx, params)
	case "resources/read":
		return s.handleResourcesRead(ctx, params)
	case "prompts/list":
		return s.handlePromptsList(ctx, params)
	case "prompts/get":
		return s.handlePromptsGet(ctx, params)
	case "notifications/cancelled":
		return s.handleCancelled(ctx, params)
	default:
		err := MethodNotFound(method)
		logrus.WithField("method", method).Error("mcpserver: unknown method")
		return nil, err
	}
}

func (s *Server) handleInitialize(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if err := s.state.Transition(Initializing); err != nil {
		return nil, FromState(err)
	}

	var req InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, Serialization(err.Error())
		}
	}
	if req.ProtocolVersion != "" && !isSupportedVersion(req.ProtocolVersion) {
		return nil, UnsupportedVersion(req.ProtocolVersion)
	}

	version := req.ProtocolVersion
	if version == "" {
		version = SupportedVersions[0]
	}

	return InitializeResult{
		ProtocolVersion: version,
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{ListChanged: false},
		},
		ServerInfo: s.info,
	}, nil
}

func (s *Server) handleInitialized(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if err := s.state.Transition(Ready); err != nil {
		return nil, FromState(err)
	}
	return struct{}{}, nil
}

func (s *Server) handlePing(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return struct{}{}, nil
}

func (s *Server) handleToolsList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if err := s.state.RequireReady(); err != nil {
		return nil, FromState(err)
	}
	tools := buildTools(s.plexus.Descriptors())
	return struct {
		Tools []mcp.Tool `json:"tools"`
	}{Tools: tools}, nil
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// collectingSink buffers every envelope.StreamItem emitted during one
// Route call so tools/call — a single request/response RPC, not a
// streaming one — can fold them into one CallToolResult. Per the tool
// catalog's synchronous contract, multiple Data items concatenate their
// textual content in emission order.
type collectingSink struct {
	items []envelope.StreamItem
}

func (c *collectingSink) Emit(ctx context.Context, item envelope.StreamItem) error {
	c.items = append(c.items, item)
	return nil
}

func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if err := s.state.RequireReady(); err != nil {
		return nil, FromState(err)
	}

	var req toolCallParams
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, InvalidParams(err.Error())
	}

	if req.Name == respondToolName {
		return s.handlePlexusRespond(ctx, req.Arguments)
	}

	namespace, method, ok := strings.Cut(req.Name, ".")
	if !ok {
		return nil, ToolNotFound(req.Name)
	}

	sink := &collectingSink{}
	outbound := &inlineOutboundSink{}
	err := s.plexus.Route(ctx, namespace, method, req.Arguments, sink, nil, s.bidirTimeout, outbound)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	var b strings.Builder
	for _, item := range sink.items {
		switch item.Kind {
		case envelope.KindData:
			b.Write(item.Content)
			b.WriteByte('\n')
		case envelope.KindError:
			return errorResult(item.ErrorMessage), nil
		}
	}
	return textResult(strings.TrimRight(b.String(), "\n")), nil
}

// inlineOutboundSink implements bidir.OutboundSink for the demo
// transport: it has no live push channel back to the client, so a
// bidirectional request simply fails fast as unsupported over this
// transport rather than hanging until timeout. A push-capable transport
// (e.g. MCP over a persistent stream) would instead forward the request
// as a notification and let handlePlexusRespond resolve it later.
type inlineOutboundSink struct{}

func (inlineOutboundSink) SendRequest(ctx context.Context, requestID uuid.UUID, data json.RawMessage, timeoutMS int64) error {
	return fmt.Errorf("mcpserver: this transport has no push channel for request %s", requestID)
}

type plexusRespondParams struct {
	RequestID string                 `json:"request_id"`
	Response  bidir.StandardResponse `json:"response"`
}

func (s *Server) handlePlexusRespond(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var req plexusRespondParams
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, InvalidParams(err.Error())
	}
	id, err := uuid.Parse(req.RequestID)
	if err != nil {
		return nil, InvalidParams("request_id: " + err.Error())
	}
	if err := bidir.Respond(bidir.Global(), id, req.Response); err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult("ok"), nil
}

func (s *Server) handleResourcesList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if err := s.state.RequireReady(); err != nil {
		return nil, FromState(err)
	}
	return struct {
		Resources []mcp.Resource `json:"resources"`
	}{Resources: nil}, nil
}

// handleResourcesRead treats a resource URI as a handle
// (plugin@version::method[:meta]*) and dispatches resolve_handle to the
// activation it names, per spec §4.6. Any parse or routing failure
// collapses to ResourceNotFound — MCP's resource surface has no concept
// of ActivationNotFound vs. a malformed URI.
func (s *Server) handleResourcesRead(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if err := s.state.RequireReady(); err != nil {
		return nil, FromState(err)
	}
	var req struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, InvalidParams(err.Error())
	}

	h, err := handle.Parse(req.URI)
	if err != nil {
		return nil, ResourceNotFound(req.URI)
	}

	sink := &collectingSink{}
	if err := s.plexus.ResolveHandle(ctx, h, sink, nil); err != nil {
		return nil, ResourceNotFound(req.URI)
	}

	var contents []json.RawMessage
	for _, item := range sink.items {
		switch item.Kind {
		case envelope.KindData:
			contents = append(contents, item.Content)
		case envelope.KindError:
			return nil, ResourceNotFound(req.URI)
		}
	}

	return struct {
		Contents []json.RawMessage `json:"contents"`
	}{Contents: contents}, nil
}

func (s *Server) handlePromptsList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if err := s.state.RequireReady(); err != nil {
		return nil, FromState(err)
	}
	return struct {
		Prompts []mcp.Prompt `json:"prompts"`
	}{Prompts: nil}, nil
}

func (s *Server) handlePromptsGet(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if err := s.state.RequireReady(); err != nil {
		return nil, FromState(err)
	}
	var req struct {
		Name string `json:"name"`
	}
	_ = json.Unmarshal(params, &req)
	return nil, PromptNotFound(req.Name)
}

func (s *Server) handleCancelled(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req struct {
		RequestID string `json:"requestId"`
		Reason    string `json:"reason"`
	}
	_ = json.Unmarshal(params, &req)
	logrus.WithFields(logrus.Fields{"request_id": req.RequestID, "reason": req.Reason}).Debug("mcpserver: request cancelled")
	return struct{}{}, nil
}
