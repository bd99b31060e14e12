package mcphost

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ai2b/zena-toolserver/internal/adapter/observability"
	"github.com/ai2b/zena-toolserver/internal/domain"
	obsctx "github.com/ai2b/zena-toolserver/internal/observability"
	"github.com/ai2b/zena-toolserver/internal/tool"
)

// Namespace prefixes every wire-visible tool name: zena_<tool>.
const Namespace = "zena"

var tracer = otel.Tracer("mcphost")

// rawArguments normalizes the SDK's argument payload to json.RawMessage.
func rawArguments(args any) json.RawMessage {
	switch v := args.(type) {
	case nil:
		return json.RawMessage("{}")
	case json.RawMessage:
		if len(v) == 0 {
			return json.RawMessage("{}")
		}
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return json.RawMessage("{}")
		}
		return b
	}
}

// sessionID pulls the conversational session id out of the raw arguments
// for audit recording. Tools that don't carry one fall back to user_id.
func sessionID(raw json.RawMessage) string {
	var probe struct {
		SessionID string `json:"session_id"`
		UserID    string `json:"user_id"`
	}
	_ = json.Unmarshal(raw, &probe)
	if probe.SessionID != "" {
		return probe.SessionID
	}
	return probe.UserID
}

// bindTool adapts one descriptor onto the MCP server. The handler contract
// holds here: every outcome, panics included, becomes a Result rendered as
// one JSON text content block, with IsError mirroring the envelope.
func (h *Host) bindTool(server *mcp.Server, t tool.Tool) {
	wireName := Namespace + "_" + t.Name
	server.AddTool(&mcp.Tool{
		Name:        wireName,
		Description: t.Description,
		InputSchema: t.InputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		raw := rawArguments(req.Params.Arguments)

		ctx, span := tracer.Start(ctx, "tool "+wireName,
			trace.WithAttributes(
				attribute.String("tenant", h.tenant.Name),
				attribute.String("tool", t.Name),
			))
		defer span.End()

		lg := obsctx.LoggerFromContext(ctx).With(
			slog.String("tenant", h.tenant.Name),
			slog.String("tool", t.Name),
		)
		ctx = obsctx.ContextWithLogger(ctx, lg)

		res := h.invoke(ctx, t, raw)

		outcome := "ok"
		if !res.IsOK() {
			outcome = res.Code()
		}
		observability.ObserveTool(h.tenant.Name, t.Name, outcome, time.Since(start).Seconds())
		h.recordEvent(ctx, t.Name, sessionID(raw))

		body, err := json.Marshal(res)
		if err != nil {
			lg.Error("tool result marshal failed", slog.Any("error", err))
			body = []byte(`{"code":"internal_error","error":"` + domain.UserMessage(domain.CodeInternal) + `"}`)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
			IsError: !res.IsOK(),
		}, nil
	})
}

// invoke runs the handler with a panic barrier: a handler bug degrades to
// internal_error instead of killing the tenant server.
func (h *Host) invoke(ctx context.Context, t tool.Tool, raw json.RawMessage) (res domain.Result[any]) {
	defer func() {
		if rec := recover(); rec != nil {
			obsctx.LoggerFromContext(ctx).Error("tool handler panicked",
				slog.String("tool", t.Name),
				slog.Any("recover", rec))
			res = domain.Err[any](domain.CodeInternal, "")
		}
	}()
	res = t.Handler(ctx, raw)
	if !res.IsOK() {
		obsctx.LoggerFromContext(ctx).Warn("tool returned error",
			slog.String("tool", t.Name),
			slog.String("code", res.Code()))
	}
	return res
}

// recordEvent writes the audit row; failures are logged and swallowed so
// audit never breaks a tool call.
func (h *Host) recordEvent(ctx context.Context, toolName, session string) {
	if h.events == nil {
		return
	}
	ev := domain.ToolEvent{
		Tenant:    h.tenant.Name,
		Tool:      toolName,
		SessionID: session,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.events.Record(ctx, ev); err != nil {
		obsctx.LoggerFromContext(ctx).Warn("tool event insert failed",
			slog.String("tool", toolName), slog.Any("error", err))
	}
}
