package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/registry"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ServiceName = "dracor-mcp-server"
	Version     = "1.0.0"

	instructions = "Access to the Drama Corpora Project (DraCor). Use the resources to read corpora, " +
		"plays, characters, network data and texts, and the tools to search, compare and analyze plays. " +
		"Corpus and play identifiers consist of letters, digits, hyphens and underscores only."
)

// NewMCPServer exposes every resource, tool and prompt of reg through one
// MCP server. The server holds no per-request state and can be shared by
// all sessions.
func NewMCPServer(reg *registry.Registry, log *slog.Logger) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    ServiceName,
		Title:   "DraCor API v1",
		Version: Version,
	}, &mcp.ServerOptions{
		Instructions: instructions,
		Logger:       log,
	})

	for _, res := range reg.Resources() {
		if res.IsTemplate() {
			s.AddResourceTemplate(&mcp.ResourceTemplate{
				URITemplate: res.URI,
				Name:        res.Name,
				Description: res.Description,
				MIMEType:    res.MIMEType,
			}, resourceHandler(reg))
			continue
		}
		s.AddResource(&mcp.Resource{
			URI:         res.URI,
			Name:        res.Name,
			Description: res.Description,
			MIMEType:    res.MIMEType,
		}, resourceHandler(reg))
	}

	for _, tool := range reg.Tools() {
		s.AddTool(&mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.Parameters,
		}, toolHandler(reg, tool.Name))
	}

	for _, p := range reg.Prompts() {
		args := make([]*mcp.PromptArgument, 0, len(p.Arguments))
		for _, a := range p.Arguments {
			args = append(args, &mcp.PromptArgument{
				Name:        a.Name,
				Description: a.Description,
				Required:    a.Required,
			})
		}
		s.AddPrompt(&mcp.Prompt{
			Name:        p.Name,
			Description: p.Description,
			Arguments:   args,
		}, promptHandler(reg, p.Description))
	}

	return s
}

func resourceHandler(reg *registry.Registry) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		content, err := reg.ReadResource(ctx, req.Params.URI)
		if err != nil {
			if errors.Is(err, registry.ErrUnknownResource) {
				return nil, mcp.ResourceNotFoundError(req.Params.URI)
			}
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      content.URI,
				MIMEType: content.MIMEType,
				Text:     content.Text,
			}},
		}, nil
	}
}

func toolHandler(reg *registry.Registry, name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := reg.CallTool(ctx, name, string(req.Params.Arguments))
		if err != nil {
			return nil, err
		}
		text, err := res.Text()
		if err != nil {
			return nil, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
			IsError: res.IsError,
		}, nil
	}
}

func promptHandler(reg *registry.Registry, description string) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		text, err := reg.GetPrompt(req.Params.Name, req.Params.Arguments)
		if err != nil {
			return nil, err
		}
		return &mcp.GetPromptResult{
			Description: description,
			Messages: []*mcp.PromptMessage{{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			}},
		}, nil
	}
}
