package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/analysis"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/yosida95/uritemplate/v3"
)

const jsonMIMEType = "application/json"

var (
	ErrUnknownResource = errors.New("unknown resource")
	ErrUnknownTool     = errors.New("unknown tool")
	ErrUnknownPrompt   = errors.New("unknown prompt")
)

// Params holds the validated variables of a matched resource URI.
type Params map[string]dracor.Name

type ResourceHandler func(ctx context.Context, params Params) (any, error)

// Resource is either a static URI or a URI template such as
// play://{corpus}/{play}.
type Resource struct {
	URI         string
	Name        string
	Description string
	MIMEType    string
	Handler     ResourceHandler

	template *uritemplate.Template
}

// IsTemplate reports whether the resource URI contains variables.
func (r *Resource) IsTemplate() bool {
	return r.template != nil
}

// ResourceContent is the serialized result of a resource read.
type ResourceContent struct {
	URI      string
	MIMEType string
	Text     string
}

type ToolHandler func(ctx context.Context, arguments string) (any, error)

type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     ToolHandler
}

// ToolResult carries either the analysis result or an error payload of
// the form {"error": {"kind": ..., "message": ...}}.
type ToolResult struct {
	Value   any
	IsError bool
}

// Text returns the result as indented JSON.
func (r ToolResult) Text() (string, error) {
	body, err := json.MarshalIndent(r.Value, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return string(body), nil
}

type ErrorPayload struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Registry maps resource URIs, tool names and prompt names to their
// handlers. It is built once by New and read-only afterwards.
type Registry struct {
	analyzer *analysis.Analyzer
	client   *dracor.Client

	resources   []*Resource
	tools       []Tool
	toolIndex   map[string]int
	prompts     []Prompt
	promptIndex map[string]int
}

func New(analyzer *analysis.Analyzer) *Registry {
	r := &Registry{
		analyzer:    analyzer,
		client:      analyzer.Client(),
		toolIndex:   make(map[string]int),
		promptIndex: make(map[string]int),
	}
	r.registerResources()
	r.registerTools()
	r.registerPrompts()
	return r
}

func (r *Registry) addResource(res Resource) {
	if res.MIMEType == "" {
		res.MIMEType = jsonMIMEType
	}
	tmpl := uritemplate.MustNew(res.URI)
	if len(tmpl.Varnames()) > 0 {
		res.template = tmpl
	}
	r.resources = append(r.resources, &res)
}

func (r *Registry) addTool(tool Tool) {
	if _, ok := r.toolIndex[tool.Name]; ok {
		panic(fmt.Sprintf("tool %s registered twice", tool.Name))
	}
	r.toolIndex[tool.Name] = len(r.tools)
	r.tools = append(r.tools, tool)
}

func (r *Registry) addPrompt(p Prompt) {
	if _, ok := r.promptIndex[p.Name]; ok {
		panic(fmt.Sprintf("prompt %s registered twice", p.Name))
	}
	r.promptIndex[p.Name] = len(r.prompts)
	r.prompts = append(r.prompts, p)
}

// Resources returns all resources in registration order.
func (r *Registry) Resources() []*Resource {
	return r.resources
}

// Tools returns all tools in registration order.
func (r *Registry) Tools() []Tool {
	return r.tools
}

// Prompts returns all prompts in registration order.
func (r *Registry) Prompts() []Prompt {
	return r.prompts
}

// ReadResource resolves uri, validates its variables and runs the
// matching handler. No upstream request is made for an invalid variable.
func (r *Registry) ReadResource(ctx context.Context, uri string) (*ResourceContent, error) {
	res, params, err := r.match(uri)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	value, err := res.Handler(ctx, params)
	if err != nil {
		logger.Warn("[Resource] read failed", "uri", uri, "kind", dracor.KindOf(err), "err", err)
		return nil, fmt.Errorf("failed to read %s: %w", uri, err)
	}

	var text string
	if s, ok := value.(string); ok && res.MIMEType != jsonMIMEType {
		text = s
	} else {
		body, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
		}
		text = string(body)
	}

	logger.Debug("[Resource] read", "uri", uri, "bytes", len(text), "duration", time.Since(start))
	return &ResourceContent{URI: uri, MIMEType: res.MIMEType, Text: text}, nil
}

func (r *Registry) match(uri string) (*Resource, Params, error) {
	for _, res := range r.resources {
		if res.template == nil {
			if res.URI == uri {
				return res, Params{}, nil
			}
			continue
		}

		values := res.template.Match(uri)
		if values == nil {
			continue
		}
		params := make(Params, len(values))
		for _, name := range res.template.Varnames() {
			value, err := validateVar(name, values.Get(name).String())
			if err != nil {
				logger.Warn("[Resource] rejected identifier", "uri", uri, "err", err)
				return nil, nil, err
			}
			params[name] = value
		}
		return res, params, nil
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrUnknownResource, uri)
}

func validateVar(name, value string) (dracor.Name, error) {
	switch name {
	case "corpus":
		return dracor.ValidateName(value, "corpus_name")
	case "play":
		return dracor.ValidateName(value, "play_name")
	case "wikidata_id":
		return dracor.ValidateWikidataID(value)
	}
	return dracor.ValidateName(value, name)
}

// CallTool runs the named tool. Failures of the tool itself are returned
// as an error payload; the returned error is reserved for unknown tools
// and cancellation of ctx.
func (r *Registry) CallTool(ctx context.Context, name string, arguments string) (ToolResult, error) {
	idx, ok := r.toolIndex[name]
	if !ok {
		return ToolResult{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	tool := r.tools[idx]

	id, err := gonanoid.New()
	if err != nil {
		id = "unknown"
	}

	start := time.Now()
	logger.Info("[Tool] call", "tool", name, "id", id)
	value, err := tool.Handler(ctx, arguments)
	if err != nil {
		kind := dracor.KindOf(err)
		if kind == dracor.KindCanceled {
			logger.Debug("[Tool] canceled", "tool", name, "id", id)
			return ToolResult{}, err
		}
		logger.Warn("[Tool] failed", "tool", name, "id", id, "kind", kind, "err", err, "duration", time.Since(start))
		return ToolResult{
			Value:   ErrorPayload{Error: ErrorDetail{Kind: kind, Message: err.Error()}},
			IsError: true,
		}, nil
	}

	logger.Info("[Tool] done", "tool", name, "id", id, "duration", time.Since(start))
	return ToolResult{Value: value}, nil
}
