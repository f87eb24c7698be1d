// Package mcpserver exposes the tool registry over the Model Context
// Protocol, on stdio or streamable HTTP.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/fgbio-mcp/internal/tool"
)

// Name is the server name advertised during initialization.
const Name = "fgbio-mcp"

const instructions = "Sort and filter BAM files with the fgbio toolkit. " +
	"Paths are resolved on the server host. Every call returns a structured " +
	"result with success, kind, message, outputs, command, stdout, stderr and exit_code."

// New builds an MCP server serving every tool in reg.
func New(reg *tool.Registry, version string, logger *slog.Logger) *server.MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "mcp")

	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(func(_ context.Context, _ any, msg *mcp.InitializeRequest, _ *mcp.InitializeResult) {
		logger.Info("mcp: client initialized",
			"client", msg.Params.ClientInfo.Name,
			"client_version", msg.Params.ClientInfo.Version,
			"protocol", msg.Params.ProtocolVersion)
	})
	hooks.AddOnError(func(_ context.Context, _ any, method mcp.MCPMethod, _ any, err error) {
		logger.Warn("mcp: request failed", "method", method, "error", err)
	})

	s := server.NewMCPServer(Name, version,
		server.WithToolCapabilities(false),
		server.WithInstructions(instructions),
		server.WithRecovery(),
		server.WithHooks(hooks),
	)
	for _, t := range reg.Tools() {
		s.AddTool(Definition(t), callHandler(reg, t.Name))
	}
	return s
}

// Definition converts a registered tool into its MCP schema.
func Definition(t tool.Tool) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(t.Description),
		mcp.WithReadOnlyHintAnnotation(t.ReadOnly()),
		// Writing an existing output path replaces it.
		mcp.WithDestructiveHintAnnotation(t.Writes()),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	}
	for _, p := range t.Params {
		opts = append(opts, paramOption(p))
	}
	return mcp.NewTool(t.Name, opts...)
}

func paramOption(p tool.Param) mcp.ToolOption {
	props := []mcp.PropertyOption{mcp.Description(p.Description)}
	if p.Required {
		props = append(props, mcp.Required())
	}

	switch p.Type {
	case tool.ParamBoolean:
		if b, ok := p.Default.(bool); ok {
			props = append(props, mcp.DefaultBool(b))
		}
		return mcp.WithBoolean(p.Name, props...)
	case tool.ParamInteger:
		props = append(props, integerType)
		switch {
		case p.Positive:
			props = append(props, mcp.Min(1))
		case p.NonNegative:
			props = append(props, mcp.Min(0))
		}
		if n, ok := p.Default.(int); ok {
			props = append(props, mcp.DefaultNumber(float64(n)))
		}
		return mcp.WithNumber(p.Name, props...)
	default:
		if len(p.Enum) > 0 {
			props = append(props, mcp.Enum(p.Enum...))
		}
		if s, ok := p.Default.(string); ok && s != "" {
			props = append(props, mcp.DefaultString(s))
		}
		return mcp.WithString(p.Name, props...)
	}
}

// integerType narrows a number property to JSON Schema integers.
func integerType(schema map[string]any) {
	schema["type"] = "integer"
}

func callHandler(reg *tool.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := rawArguments(req.Params.Arguments)
		if err != nil {
			return nil, err
		}

		resp, err := reg.Execute(ctx, name, args)
		if err != nil {
			return nil, err
		}

		text, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("mcpserver: encoding result: %w", err)
		}
		res := mcp.NewToolResultStructured(resp, string(text))
		res.IsError = !resp.Success
		return res, nil
	}
}

// rawArguments re-encodes the decoded call arguments so the registry sees
// the same bytes a client sent. Absent arguments become an empty object.
func rawArguments(args any) (json.RawMessage, error) {
	if args == nil {
		return json.RawMessage("{}"), nil
	}
	if raw, ok := args.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("mcpserver: encoding arguments: %w", err)
	}
	return b, nil
}

// ServeStdio serves s on in/out until ctx is cancelled or in reaches EOF.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))

	logger.Info("mcp: serving on stdio")
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcpserver: stdio: %w", err)
	}
	return nil
}

// HTTPHandler returns a streamable HTTP handler for s, to be mounted at
// /mcp.
func HTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s, server.WithEndpointPath("/mcp"))
}
